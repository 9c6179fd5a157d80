package minecraft

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mrnavastar/blockman/util"
	"github.com/pterm/pterm"
)

type LaunchOptions struct {
	LauncherName    string
	LauncherVersion string

	PlayerName string
	// ProfileId and Token are both empty when playing offline.
	ProfileId string
	Token     string

	UseFullscreen    bool
	EnableWindowSize bool
	WindowWidth      uint32
	WindowHeight     uint32

	EnableMemory bool
	MinMemory    uint32
	MaxMemory    uint32

	JavaExec string

	EnableJvmArgs bool
	JvmArgs       string

	EnvironmentVariables []util.EnvironmentVariable
}

func DefaultLaunchOptions() LaunchOptions {
	return LaunchOptions{
		LauncherName:    "blockman",
		LauncherVersion: util.Version,
		PlayerName:      "Steve",
		WindowWidth:     1280,
		WindowHeight:    720,
		MinMemory:       512,
		MaxMemory:       1024,
		JavaExec:        "java",
	}
}

// LaunchPlan is a fully resolved game invocation.
type LaunchPlan struct {
	Java                 string
	Args                 []string
	Dir                  string
	EnvironmentVariables []util.EnvironmentVariable
}

func (p LaunchPlan) Command() []string {
	return append([]string{p.Java}, p.Args...)
}

func (p LaunchPlan) String() string {
	parts := p.Command()
	for i, part := range parts {
		if part == "" || strings.ContainsAny(part, " \t\"'") {
			parts[i] = fmt.Sprintf("%q", part)
		}
	}
	return strings.Join(parts, " ")
}

// Environ applies the plan's variables on top of base. A variable without a
// value is removed.
func (p LaunchPlan) Environ(base []string) []string {
	if len(p.EnvironmentVariables) == 0 {
		return base
	}

	overrides := map[string]*string{}
	for _, variable := range p.EnvironmentVariables {
		overrides[variable.Name] = variable.Value
	}

	var env []string
	for _, entry := range base {
		name := entry
		if i := strings.IndexByte(entry, '='); i >= 0 {
			name = entry[:i]
		}
		if _, ok := overrides[name]; !ok {
			env = append(env, entry)
		}
	}
	for _, variable := range p.EnvironmentVariables {
		if variable.Value != nil {
			env = append(env, variable.Name+"="+*variable.Value)
		}
	}
	return env
}

// LaunchCommand plans the launch of an installed instance on this machine.
func LaunchCommand(instance util.Instance, options LaunchOptions) (LaunchPlan, error) {
	versionData, err := ReadVersionData(instance.VersionDataPath())
	if err != nil {
		return LaunchPlan{}, err
	}
	return BuildLaunchCommand(instance, versionData, options, CurrentEnvironment())
}

func BuildLaunchCommand(instance util.Instance, versionData VersionData, options LaunchOptions, env Environment) (LaunchPlan, error) {
	util.Debug("Building launch command for %s", versionData.Id)

	classpath, err := BuildClasspath(instance, versionData, env)
	if err != nil {
		return LaunchPlan{}, err
	}

	replacements := NewReplacements(
		options,
		versionData,
		classpath,
		instance.DotMinecraftPath(),
		instance.AssetsPath,
		instance.NativesPath(),
	)

	var args []string
	args = append(args, buildJvmArgs(versionData, replacements, options, env)...)
	if logging := versionData.LoggingClient(); logging != nil {
		logConfig := filepath.Join(instance.LogConfigsPath(), logging.File.Id)
		args = append(args, strings.ReplaceAll(logging.Argument, "${path}", logConfig))
	}
	args = append(args, versionData.MainClass)
	args = append(args, buildGameArgs(versionData, replacements, options, env)...)

	return LaunchPlan{
		Java:                 javaExec(instance, options),
		Args:                 args,
		Dir:                  instance.DotMinecraftPath(),
		EnvironmentVariables: options.EnvironmentVariables,
	}, nil
}

func javaExec(instance util.Instance, options LaunchOptions) string {
	if instance.EnableJavaExec && instance.JavaExec != "" {
		return instance.JavaExec
	}
	if options.JavaExec != "" {
		return options.JavaExec
	}
	return "java"
}

// BuildClasspath lists every allowed library once and the client jar last.
func BuildClasspath(instance util.Instance, versionData VersionData, env Environment) (string, error) {
	seen := map[string]bool{}
	var classes []string

	for _, library := range versionData.NeededLibraries(env) {
		path, err := library.JarPath(instance.LibrariesPath, env.Platform)
		if err != nil {
			return "", err
		}
		if seen[path] {
			continue
		}
		seen[path] = true
		classes = append(classes, path)
	}

	classes = append(classes, instance.ClientJarPath(versionData.Id))
	return strings.Join(classes, env.Platform.ClasspathSeparator()), nil
}

func buildGameArgs(versionData VersionData, replacements *Replacements, options LaunchOptions, env Environment) []string {
	var args []string

	if versionData.Arguments != nil {
		args = append(args, collect(versionData.Arguments.Game, env, replacements)...)
	}

	for _, arg := range strings.Fields(versionData.MinecraftArguments) {
		arg = replacements.Replace(arg)
		if !skippedArguments[arg] {
			args = append(args, arg)
		}
	}

	if options.UseFullscreen {
		args = append(args, "--fullscreen")
	} else if options.EnableWindowSize {
		args = append(args,
			"--width", fmt.Sprint(options.WindowWidth),
			"--height", fmt.Sprint(options.WindowHeight),
		)
	}
	return args
}

func buildJvmArgs(versionData VersionData, replacements *Replacements, options LaunchOptions, env Environment) []string {
	var args []string

	if options.EnableMemory {
		args = append(args, fmt.Sprintf("-Xms%dM", options.MinMemory), fmt.Sprintf("-Xmx%dM", options.MaxMemory))
	}

	if options.EnableJvmArgs {
		for _, arg := range strings.Fields(options.JvmArgs) {
			args = append(args, replacements.Replace(arg))
		}
	} else if versionData.Arguments != nil {
		args = append(args, collect(versionData.Arguments.Jvm, env, replacements)...)
	}

	hasLibraryPath, hasClasspath := false, false
	for _, arg := range args {
		hasLibraryPath = hasLibraryPath || strings.HasPrefix(arg, "-Djava.library.path=")
		hasClasspath = hasClasspath || strings.HasPrefix(arg, "-cp")
	}
	if !hasLibraryPath {
		args = append(args, replacements.Replace("-Djava.library.path=${natives_directory}"))
	}
	if !hasClasspath {
		args = append(args, "-cp", replacements.Replace("${classpath}"))
	}
	return args
}

// GameProcess is a launched game. It outlives the launcher unless Wait is used.
type GameProcess struct {
	Pid  int
	done chan struct{}
	code int
}

// Wait blocks until the game exits and returns its exit code.
func (p *GameProcess) Wait() int {
	<-p.done
	return p.code
}

// Launch starts the planned command detached from this process with its
// stdio on the null device.
func Launch(plan LaunchPlan) (*GameProcess, error) {
	util.Debug("Launching %s", plan.String())

	cmd := exec.Command(plan.Java, plan.Args...)
	cmd.Dir = plan.Dir
	cmd.Env = plan.Environ(os.Environ())
	cmd.Stdin, cmd.Stdout, cmd.Stderr = nil, nil, nil
	cmd.SysProcAttr = detachedAttr()

	if err := cmd.Start(); err != nil {
		return nil, util.Wrap(errLaunchFailed, plan.Java, err)
	}

	process := &GameProcess{Pid: cmd.Process.Pid, done: make(chan struct{})}
	go func() {
		defer close(process.done)
		if err := cmd.Wait(); err != nil {
			if exit, ok := err.(*exec.ExitError); ok {
				process.code = exit.ExitCode()
			} else {
				process.code = -1
			}
			pterm.Warning.Printfln("Game exited with status %d", process.code)
			return
		}
		util.Debug("Game exited successfully")
	}()
	return process, nil
}
