package minecraft

import (
	"bytes"
	"encoding/json"
)

// Argument is either a plain string or a rule-gated list of values.
type Argument struct {
	Rules []Rule
	Value []string
}

type ruledArgument struct {
	Rules              []Rule          `json:"rules,omitempty"`
	CompatibilityRules []Rule          `json:"compatibilityRules,omitempty"`
	Value              json.RawMessage `json:"value"`
}

func (a *Argument) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*a = Argument{Value: []string{value}}
		return nil
	}

	var ruled ruledArgument
	if err := json.Unmarshal(data, &ruled); err != nil {
		return err
	}

	rules := ruled.Rules
	if rules == nil {
		rules = ruled.CompatibilityRules
	}
	if rules == nil {
		rules = []Rule{}
	}

	values, err := stringOrList(ruled.Value)
	if err != nil {
		return err
	}
	*a = Argument{Rules: rules, Value: values}
	return nil
}

func (a Argument) MarshalJSON() ([]byte, error) {
	if a.Rules == nil && len(a.Value) == 1 {
		return json.Marshal(a.Value[0])
	}

	var value interface{} = a.Value
	if len(a.Value) == 1 {
		value = a.Value[0]
	}
	return json.Marshal(struct {
		Rules []Rule      `json:"rules"`
		Value interface{} `json:"value"`
	}{a.Rules, value})
}

func stringOrList(data json.RawMessage) ([]string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == '"' {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return nil, err
		}
		return []string{value}, nil
	}

	var values []string
	err := json.Unmarshal(data, &values)
	return values, err
}

type Arguments struct {
	Game []Argument `json:"game,omitempty"`
	Jvm  []Argument `json:"jvm,omitempty"`
}

// Mojang ships these without the values the launcher would need to fill them.
var skippedArguments = map[string]bool{
	"--clientId":   true,
	"--xuid":       true,
	"${clientid}":  true,
	"${auth_xuid}": true,
}

// collect returns the substituted values of every argument allowed in env.
func collect(args []Argument, env Environment, replacer *Replacements) []string {
	var result []string
	for _, arg := range args {
		if !Allows(arg.Rules, env) {
			continue
		}
		for _, value := range arg.Value {
			value = replacer.Replace(value)
			if skippedArguments[value] {
				continue
			}
			result = append(result, value)
		}
	}
	return result
}
