package minecraft

import "github.com/mrnavastar/blockman/util"

type Action string

const (
	Allow    Action = "allow"
	Disallow Action = "disallow"
)

type OSRule struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	Arch    string `json:"arch,omitempty"`
}

type Rule struct {
	Action   Action          `json:"action"`
	OS       *OSRule         `json:"os,omitempty"`
	Features map[string]bool `json:"features,omitempty"`
}

// KnownFeatures are the feature flags a launcher may switch on.
var KnownFeatures = map[string]bool{
	"is_demo_user":               true,
	"has_custom_resolution":      true,
	"has_quick_plays_support":    true,
	"is_quick_play_singleplayer": true,
	"is_quick_play_multiplayer":  true,
	"is_quick_play_realms":       true,
}

// Environment is what rules are evaluated against.
type Environment struct {
	Platform util.Platform
	Features map[string]bool
}

func CurrentEnvironment() Environment {
	return Environment{Platform: util.CurrentPlatform()}
}

func (r Rule) matches(env Environment) bool {
	if r.OS != nil {
		if r.OS.Name != "" && !env.Platform.MatchesName(r.OS.Name) {
			return false
		}
		if r.OS.Arch != "" && !env.Platform.MatchesArch(r.OS.Arch) {
			return false
		}
		// os.version is a regex against the OS release and is not checked.
	}

	for feature, wanted := range r.Features {
		if !KnownFeatures[feature] || env.Features[feature] != wanted {
			return false
		}
	}
	return true
}

// Allows evaluates rules in order: the last rule matching env decides. No
// rules means allowed, rules of which none match means disallowed. Any
// unrecognised feature switched on in env disallows everything.
func Allows(rules []Rule, env Environment) bool {
	for feature, on := range env.Features {
		if on && !KnownFeatures[feature] {
			return false
		}
	}

	if len(rules) == 0 {
		return true
	}

	allowed := false
	for _, rule := range rules {
		if rule.matches(env) {
			allowed = rule.Action == Allow
		}
	}
	return allowed
}
