package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/table"
	"github.com/mrnavastar/blockman/util"
	"github.com/mrnavastar/blockman/util/fileutils"
	"github.com/urfave/cli/v2"
)

const off = "off"

// editFlags are shared by "edit" and "settings". Passing "off" disables an
// override.
func editFlags(instance bool) []cli.Flag {
	flags := []cli.Flag{
		&cli.BoolFlag{Name: "fullscreen", Usage: "Start the game in fullscreen"},
		&cli.StringFlag{Name: "window", Usage: "Window size as WIDTHxHEIGHT, or off"},
		&cli.StringFlag{Name: "memory", Usage: "Heap size in MiB as MIN:MAX, or off"},
		&cli.StringFlag{Name: "java", Usage: "Java executable, or off"},
		&cli.StringFlag{Name: "jvm-args", Usage: "Extra JVM arguments, or off"},
	}
	if instance {
		flags = append(flags,
			&cli.StringFlag{Name: "name", Usage: "Rename the instance"},
			&cli.StringFlag{Name: "description", Usage: "Free form notes"},
			&cli.StringSliceFlag{Name: "env", Usage: "Set NAME=VALUE in the game environment, or unset NAME"},
			&cli.BoolFlag{Name: "clear-env", Usage: "Stop changing the game environment"},
		)
	}
	return flags
}

func parseWindow(value string) (uint32, uint32, error) {
	parts := strings.SplitN(strings.ToLower(value), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid window size %q", value)
	}
	width, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid window size %q", value)
	}
	height, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid window size %q", value)
	}
	return uint32(width), uint32(height), nil
}

func parseMemory(value string) (uint32, uint32, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid memory range %q", value)
	}
	min, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid memory range %q", value)
	}
	max, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil || max < min {
		return 0, 0, fmt.Errorf("invalid memory range %q", value)
	}
	return uint32(min), uint32(max), nil
}

// overrides holds the flags both commands understand.
type overrides struct {
	fullscreen           *bool
	enableWindow         *bool
	width, height        uint32
	enableMemory         *bool
	minMemory, maxMemory uint32
	java, jvmArgs        *string
}

func readOverrides(c *cli.Context) (overrides, error) {
	var o overrides
	if c.IsSet("fullscreen") {
		fullscreen := c.Bool("fullscreen")
		o.fullscreen = &fullscreen
	}

	if c.IsSet("window") {
		enabled := c.String("window") != off
		o.enableWindow = &enabled
		if enabled {
			width, height, err := parseWindow(c.String("window"))
			if err != nil {
				return o, err
			}
			o.width, o.height = width, height
		}
	}

	if c.IsSet("memory") {
		enabled := c.String("memory") != off
		o.enableMemory = &enabled
		if enabled {
			min, max, err := parseMemory(c.String("memory"))
			if err != nil {
				return o, err
			}
			o.minMemory, o.maxMemory = min, max
		}
	}

	if c.IsSet("java") {
		java := c.String("java")
		o.java = &java
	}
	if c.IsSet("jvm-args") {
		jvmArgs := c.String("jvm-args")
		o.jvmArgs = &jvmArgs
	}
	return o, nil
}

func editInstance(c *cli.Context, instance *util.Instance) error {
	o, err := readOverrides(c)
	if err != nil {
		return err
	}

	if o.fullscreen != nil {
		instance.UseFullscreen = *o.fullscreen
	}
	if o.enableWindow != nil {
		instance.EnableWindowSize = *o.enableWindow
		if *o.enableWindow {
			instance.WindowWidth, instance.WindowHeight = o.width, o.height
		}
	}
	if o.enableMemory != nil {
		instance.EnableMemory = *o.enableMemory
		if *o.enableMemory {
			instance.MinMemory, instance.MaxMemory = o.minMemory, o.maxMemory
		}
	}
	if o.java != nil {
		instance.EnableJavaExec = *o.java != off
		if instance.EnableJavaExec {
			instance.JavaExec = *o.java
		}
	}
	if o.jvmArgs != nil {
		instance.EnableJvmArgs = *o.jvmArgs != off
		if instance.EnableJvmArgs {
			instance.JvmArgs = *o.jvmArgs
		}
	}

	if c.IsSet("name") {
		instance.Name = c.String("name")
	}
	if c.IsSet("description") {
		instance.Description = c.String("description")
	}
	for _, entry := range c.StringSlice("env") {
		instance.EnableEnvironment = true
		instance.EnvironmentVariables = setEnvironment(instance.EnvironmentVariables, entry)
	}
	if c.Bool("clear-env") {
		instance.EnableEnvironment = false
		instance.EnvironmentVariables = nil
	}
	return nil
}

// setEnvironment replaces any earlier entry for the same name. An entry
// without "=" unsets the variable.
func setEnvironment(vars []util.EnvironmentVariable, entry string) []util.EnvironmentVariable {
	variable := util.EnvironmentVariable{Name: entry}
	if name, value, ok := strings.Cut(entry, "="); ok {
		variable = util.EnvironmentVariable{Name: name, Value: &value}
	}

	for i, v := range vars {
		if v.Name == variable.Name {
			vars[i] = variable
			return vars
		}
	}
	return append(vars, variable)
}

func editSettings(c *cli.Context, settings *fileutils.Settings) error {
	o, err := readOverrides(c)
	if err != nil {
		return err
	}

	if o.fullscreen != nil {
		settings.UseFullscreen = *o.fullscreen
	}
	if o.enableWindow != nil {
		settings.EnableWindowSize = *o.enableWindow
		if *o.enableWindow {
			settings.WindowWidth, settings.WindowHeight = o.width, o.height
		}
	}
	if o.enableMemory != nil {
		settings.EnableMemory = *o.enableMemory
		if *o.enableMemory {
			settings.MinMemory, settings.MaxMemory = o.minMemory, o.maxMemory
		}
	}
	if o.java != nil {
		settings.JavaExec = *o.java
		if *o.java == off {
			settings.JavaExec = fileutils.DefaultSettings().JavaExec
		}
	}
	if o.jvmArgs != nil {
		settings.EnableJvmArgs = *o.jvmArgs != off
		if settings.EnableJvmArgs {
			settings.JvmArgs = *o.jvmArgs
		}
	}
	if c.IsSet("launcher-name") {
		settings.LauncherName = c.String("launcher-name")
	}
	return nil
}

func printSettings(settings fileutils.Settings) {
	enabled := func(on bool, value string) string {
		if !on {
			return off
		}
		return value
	}

	t := newTable("SETTING", "VALUE")
	t.AppendRows([]table.Row{
		{"launcher name", settings.LauncherName},
		{"fullscreen", strconv.FormatBool(settings.UseFullscreen)},
		{"window", enabled(settings.EnableWindowSize, fmt.Sprintf("%dx%d", settings.WindowWidth, settings.WindowHeight))},
		{"memory", enabled(settings.EnableMemory, fmt.Sprintf("%d:%d MiB", settings.MinMemory, settings.MaxMemory))},
		{"java", settings.JavaExec},
		{"jvm args", enabled(settings.EnableJvmArgs, settings.JvmArgs)},
	})
	fmt.Println(t.Render())
}
