package minecraft

import (
	"path/filepath"
	"strings"
)

// Replacements is the table of ${placeholders} filled in launch arguments.
type Replacements struct {
	replacer *strings.Replacer
}

func NewReplacements(options LaunchOptions, versionData VersionData, classpath string, minecraftPath string, assetsPath string, nativesPath string) *Replacements {
	table := map[string]string{
		"${auth_player_name}":  options.PlayerName,
		"${game_directory}":    minecraftPath,
		"${assets_index_name}": versionData.Assets,
		"${assets_root}":       assetsPath,
		"${game_assets}":       filepath.Join(minecraftPath, "assets"),
		"${natives_directory}": nativesPath,
		"${version_name}":      versionData.Id,
		"${version_type}":      string(versionData.Type),
		"${launcher_name}":     options.LauncherName,
		"${launcher_version}":  options.LauncherVersion,
		"${classpath}":         classpath,
	}

	if options.ProfileId != "" && options.Token != "" {
		table["${auth_uuid}"] = options.ProfileId
		table["${auth_access_token}"] = options.Token
		table["${auth_session}"] = options.Token
		table["${user_type}"] = "msa"
	}

	pairs := make([]string, 0, len(table)*2)
	for placeholder, value := range table {
		pairs = append(pairs, placeholder, value)
	}
	return &Replacements{replacer: strings.NewReplacer(pairs...)}
}

func (r *Replacements) Replace(arg string) string {
	return r.replacer.Replace(arg)
}
