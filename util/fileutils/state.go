package fileutils

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/mrnavastar/blockman/util"
	"github.com/zalando/go-keyring"
)

const (
	keyringService = "blockman"
	keyringDataDir = "data_dir"
)

// Settings are the launcher-wide defaults. Instance overrides win over them.
type Settings struct {
	LauncherName     string `json:"launcher_name"`
	UseFullscreen    bool   `json:"use_fullscreen"`
	EnableWindowSize bool   `json:"enable_window_size"`
	WindowWidth      uint32 `json:"window_width"`
	WindowHeight     uint32 `json:"window_height"`
	EnableMemory     bool   `json:"enable_memory"`
	MinMemory        uint32 `json:"min_memory"`
	MaxMemory        uint32 `json:"max_memory"`
	JavaExec         string `json:"java_exec"`
	EnableJvmArgs    bool   `json:"enable_jvm_args"`
	JvmArgs          string `json:"jvm_args"`
}

func DefaultSettings() Settings {
	return Settings{
		LauncherName: "blockman",
		WindowWidth:  1280,
		WindowHeight: 720,
		MinMemory:    512,
		MaxMemory:    1024,
		JavaExec:     "java",
	}
}

type State struct {
	DataDir        string   `json:"-"`
	ActiveInstance string   `json:"active_instance"`
	ActiveProfile  string   `json:"active_profile"`
	Settings       Settings `json:"settings"`
}

func (s State) statePath() string {
	return filepath.Join(s.DataDir, "blockman.json")
}

func (s State) InstancesDir() string {
	return filepath.Join(s.DataDir, "instances")
}

func (s State) LibrariesDir() string {
	return filepath.Join(s.DataDir, "libraries")
}

func (s State) AssetsDir() string {
	return filepath.Join(s.DataDir, "assets")
}

func (s State) Instances() Catalog[util.Instance] {
	return Catalog[util.Instance]{Path: filepath.Join(s.DataDir, "instances.json")}
}

func (s State) Profiles() Catalog[util.Profile] {
	return Catalog[util.Profile]{Path: filepath.Join(s.DataDir, "profiles.json")}
}

// Setup remembers dataDir in the OS keyring and lays out an empty launcher
// directory there.
func Setup(dataDir string) error {
	dataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return util.Wrap(util.ErrFilesystem, dataDir, err)
	}

	if err := keyring.Set(keyringService, keyringDataDir, dataDir); err != nil {
		return err
	}
	return InitDataDir(dataDir)
}

func InitDataDir(dataDir string) error {
	state := State{DataDir: dataDir, Settings: DefaultSettings()}
	for _, dir := range []string{state.InstancesDir(), state.LibrariesDir(), state.AssetsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return util.Wrap(util.ErrFilesystem, dir, err)
		}
	}

	if _, err := os.Stat(state.statePath()); os.IsNotExist(err) {
		return SaveAppState(state)
	}
	return nil
}

func SaveAppState(state State) error {
	file, err := json.MarshalIndent(state, "", " ")
	if err != nil {
		return util.Wrap(util.ErrParseFailed, state.statePath(), err)
	}
	return writeFileAtomic(state.statePath(), file)
}

func LoadAppState() (State, error) {
	dataDir, err := keyring.Get(keyringService, keyringDataDir)
	if err != nil {
		return State{}, err
	}
	return LoadAppStateFrom(dataDir)
}

func LoadAppStateFrom(dataDir string) (State, error) {
	state := State{Settings: DefaultSettings()}

	data, err := os.ReadFile(filepath.Join(dataDir, "blockman.json"))
	if err != nil && !os.IsNotExist(err) {
		return State{}, util.Wrap(util.ErrFilesystem, dataDir, err)
	}
	if err == nil {
		if err := json.Unmarshal(data, &state); err != nil {
			return State{}, util.Wrap(util.ErrParseFailed, dataDir, err)
		}
	}

	state.DataDir = dataDir
	return state, nil
}
