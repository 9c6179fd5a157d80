package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"
	"github.com/mattn/go-runewidth"
	"github.com/mrnavastar/blockman/api"
	"github.com/mrnavastar/blockman/minecraft"
	"github.com/mrnavastar/blockman/services"
	"github.com/mrnavastar/blockman/util"
	"github.com/mrnavastar/blockman/util/fileutils"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"
	"golang.org/x/mod/semver"
)

func main() {
	app := &cli.App{
		Name:    "Blockman",
		Usage:   "Install and launch Minecraft instances",
		Version: util.Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Usage: "Print debug messages"},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				pterm.EnableDebugMessages()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "Setup blockman on your system",
				ArgsUsage: "<data dir>",
				Action: func(c *cli.Context) error {
					dir := c.Args().Get(0)
					if dir == "" {
						home, err := os.UserHomeDir()
						if err != nil {
							return err
						}
						dir = home + string(os.PathSeparator) + ".blockman"
					}
					if err := fileutils.Setup(dir); err != nil {
						return err
					}
					pterm.Success.Println("Using " + dir)
					return nil
				},
			},
			{
				Name:    "ls",
				Aliases: []string{"list"},
				Usage:   "List all instances",
				Action: func(c *cli.Context) error {
					state, err := fileutils.LoadAppState()
					if err != nil {
						return err
					}
					instances, err := services.ListInstances()
					if err != nil {
						return err
					}

					t := newTable("", "NAME", "VERSION", "DESCRIPTION")
					for _, instance := range instances {
						active := ""
						if strings.EqualFold(instance.Name, state.ActiveInstance) {
							active = "*"
						}
						t.AppendRow(table.Row{active, text.Bold.Sprint(instance.Name), instance.Version, runewidth.Truncate(instance.Description, 40, "...")})
					}
					fmt.Println(t.Render())
					return nil
				},
			},
			{
				Name:      "make",
				Usage:     "Create a new instance",
				ArgsUsage: "<name> [version]",
				Action: func(c *cli.Context) error {
					args := c.Args()
					if args.Get(0) == "" {
						return errors.New("missing instance name")
					}

					version, err := resolveVersion(args.Get(1))
					if err != nil {
						return err
					}

					pterm.Info.Println("Creating " + args.Get(0) + " (" + version + ")")
					instance, err := services.CreateInstance(args.Get(0), version)
					if errors.Is(err, services.ErrInstanceExists) {
						pterm.Warning.Println("Instance with that name already exists")
						return nil
					}
					if err != nil {
						return err
					}

					pterm.Success.Println("Done.")
					return services.SetActiveInstance(instance.Name)
				},
			},
			{
				Name:      "use",
				Usage:     "Select the active instance",
				ArgsUsage: "<name>",
				Action: func(c *cli.Context) error {
					instance, err := services.GetInstance(c.Args().Get(0))
					if err != nil {
						return err
					}

					pterm.Info.Println("Now using " + instance.Name)
					return services.SetActiveInstance(instance.Name)
				},
			},
			{
				Name:      "rm",
				Aliases:   []string{"remove"},
				Usage:     "Remove an instance",
				ArgsUsage: "<name>",
				Action: func(c *cli.Context) error {
					name := c.Args().Get(0)
					err := services.DeleteInstance(name)
					if errors.Is(err, services.ErrInstanceNotFound) {
						pterm.Warning.Println("Failed to find an instance with that name")
						return nil
					}
					if err != nil {
						return err
					}
					pterm.Success.Println("Removed " + name)
					return nil
				},
			},
			{
				Name:      "edit",
				Usage:     "Change the settings of an instance",
				ArgsUsage: "[name]",
				Flags:     editFlags(true),
				Action: func(c *cli.Context) error {
					instance, err := services.GetActiveInstance(c.Args().Get(0))
					if err != nil {
						return err
					}
					if err := editInstance(c, &instance); err != nil {
						return err
					}
					if err := services.SaveInstance(instance); err != nil {
						return err
					}
					pterm.Success.Println("Saved " + instance.Name)
					return nil
				},
			},
			{
				Name:  "settings",
				Usage: "Change the launcher wide settings",
				Flags: append(editFlags(false), &cli.StringFlag{Name: "launcher-name", Usage: "Name passed to the game as the launcher"}),
				Action: func(c *cli.Context) error {
					state, err := fileutils.LoadAppState()
					if err != nil {
						return err
					}
					if c.NumFlags() == 0 {
						printSettings(state.Settings)
						return nil
					}
					if err := editSettings(c, &state.Settings); err != nil {
						return err
					}
					return fileutils.SaveAppState(state)
				},
			},
			{
				Name:      "install",
				Usage:     "Download everything an instance needs to run",
				ArgsUsage: "[name]",
				Action: func(c *cli.Context) error {
					instance, err := services.GetActiveInstance(c.Args().Get(0))
					if err != nil {
						return err
					}
					if err := install(instance); !errors.Is(err, util.ErrCancelled) {
						return err
					}
					return nil
				},
			},
			{
				Name:      "check",
				Usage:     "Check whether an instance is installed",
				ArgsUsage: "[name]",
				Action: func(c *cli.Context) error {
					instance, err := services.GetActiveInstance(c.Args().Get(0))
					if err != nil {
						return err
					}
					installed, err := services.CheckInstalled(instance)
					if err != nil {
						return err
					}
					if installed {
						pterm.Success.Println(instance.Name + " is installed")
					} else {
						pterm.Warning.Println(instance.Name + " is not installed")
					}
					return nil
				},
			},
			{
				Name:      "launch",
				Aliases:   []string{"play"},
				Usage:     "Start the game",
				ArgsUsage: "[name]",
				Flags: append(loginFlags(),
					&cli.BoolFlag{Name: "offline", Usage: "Play without an account"},
					&cli.StringFlag{Name: "player", Usage: "Player name used offline"},
					&cli.BoolFlag{Name: "dry-run", Usage: "Print the command instead of running it"},
					&cli.BoolFlag{Name: "wait", Usage: "Wait for the game to exit"},
				),
				Action: launch,
			},
			{
				Name:  "versions",
				Usage: "List the versions available to install",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "snapshots", Usage: "Include snapshots"},
					&cli.BoolFlag{Name: "old", Usage: "Include alpha and beta versions"},
					&cli.StringFlag{Name: "since", Usage: "Only show releases from this version onward"},
				},
				Action: listVersions,
			},
			{
				Name:  "login",
				Usage: "Sign in with a Microsoft account",
				Flags: append(loginFlags(), &cli.DurationFlag{Name: "timeout", Value: 5 * time.Minute, Usage: "How long to wait for the browser"}),
				Action: func(c *cli.Context) error {
					ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
					defer cancel()

					pterm.Info.Println("Opening the browser to sign in...")
					profile, err := services.Login(ctx, credentials(c))
					if err != nil {
						return err
					}
					pterm.Success.Println("Logged in as " + profile.PlayerName())
					return nil
				},
			},
			{
				Name:  "profiles",
				Usage: "List signed in accounts",
				Action: func(c *cli.Context) error {
					state, err := fileutils.LoadAppState()
					if err != nil {
						return err
					}
					profiles, err := services.ListProfiles()
					if err != nil {
						return err
					}

					t := newTable("", "PLAYER", "UUID", "EXPIRES")
					for _, profile := range profiles {
						active := ""
						if profile.Key() == state.ActiveProfile {
							active = "*"
						}
						expires := "-"
						if profile.Minecraft != nil && profile.Minecraft.Exp != nil {
							expires = profile.Minecraft.Exp.Local().Format(time.Stamp)
						}
						t.AppendRow(table.Row{active, text.Bold.Sprint(profile.PlayerName()), profile.Key(), expires})
					}
					fmt.Println(t.Render())
					return nil
				},
			},
			{
				Name:      "switch",
				Usage:     "Select the active account",
				ArgsUsage: "<player>",
				Action: func(c *cli.Context) error {
					profile, err := services.GetProfile(c.Args().Get(0))
					if err != nil {
						return err
					}
					pterm.Info.Println("Now playing as " + profile.PlayerName())
					return services.SetActiveProfile(profile.Key())
				},
			},
			{
				Name:      "refresh",
				Usage:     "Refresh the tokens of an account",
				ArgsUsage: "[player]",
				Flags:     loginFlags(),
				Action: func(c *cli.Context) error {
					profile, err := services.GetActiveProfile(c.Args().Get(0))
					if err != nil {
						return err
					}
					if err := services.Refresh(c.Context, credentials(c), &profile); err != nil {
						return err
					}
					if err := services.SaveProfile(profile); err != nil {
						return err
					}
					pterm.Success.Println("Refreshed " + profile.PlayerName())
					return nil
				},
			},
			{
				Name:      "logout",
				Usage:     "Forget an account",
				ArgsUsage: "[player]",
				Action: func(c *cli.Context) error {
					profile, err := services.GetActiveProfile(c.Args().Get(0))
					if err != nil {
						return err
					}
					if err := services.RemoveProfile(profile.Key()); err != nil {
						return err
					}
					pterm.Success.Println("Logged out " + profile.PlayerName())
					return nil
				},
			},
		},
	}

	util.Fatal(app.Run(os.Args))
}

func newTable(headers ...interface{}) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(headers)
	return t
}

func loginFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "client-id", EnvVars: []string{"BLOCKMAN_CLIENT_ID"}, Usage: "Azure application id"},
		&cli.StringFlag{Name: "client-secret", EnvVars: []string{"BLOCKMAN_CLIENT_SECRET"}, Usage: "Azure application secret"},
	}
}

func credentials(c *cli.Context) api.Credentials {
	return api.Credentials{ClientId: c.String("client-id"), ClientSecret: c.String("client-secret")}
}

// resolveVersion accepts a version id, "latest" or "snapshot".
func resolveVersion(version string) (string, error) {
	manifest, err := api.GetManifest()
	if err != nil {
		return "", err
	}

	switch version {
	case "", "latest":
		return manifest.Latest.Release, nil
	case "snapshot":
		return manifest.Latest.Snapshot, nil
	}
	if _, ok := manifest.Versions[version]; !ok {
		return "", util.Wrap(util.ErrUnknownVersion, version, nil)
	}
	return version, nil
}

func listVersions(c *cli.Context) error {
	manifest, err := api.GetManifest()
	if err != nil {
		return err
	}

	types := []api.VersionType{api.Release}
	if c.Bool("snapshots") {
		types = append(types, api.Snapshot)
	}
	if c.Bool("old") {
		types = append(types, api.OldBeta, api.OldAlpha)
	}

	since := c.String("since")
	if since != "" && !semver.IsValid("v"+since) {
		return fmt.Errorf("invalid release %q", since)
	}

	t := newTable("VERSION", "TYPE", "RELEASED")
	for _, version := range manifest.Sorted(types...) {
		if since != "" && version.Type == api.Release && semver.Compare("v"+version.Id, "v"+since) < 0 {
			continue
		}
		t.AppendRow(table.Row{version.Id, string(version.Type), time.Time(version.ReleaseTime).Format("2006-01-02")})
	}
	fmt.Println(t.Render())
	return nil
}

// install draws one progress bar per stage. An interrupt stops the install at
// the next check and install returns util.ErrCancelled.
func install(instance util.Instance) error {
	var cancel atomic.Bool
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	stop := cancelOnInterrupt(interrupts, &cancel)
	defer func() {
		signal.Stop(interrupts)
		stop()
	}()

	return showInstall(instance.Name, services.InstallInstance(instance, &cancel))
}

// cancelOnInterrupt sets cancel on the first interrupt. stop ends the watch
// and waits for it to exit.
func cancelOnInterrupt(interrupts <-chan os.Signal, cancel *atomic.Bool) (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-interrupts:
			pterm.Warning.Println("Cancelling...")
			cancel.Store(true)
		case <-done:
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

func showInstall(name string, updates <-chan minecraft.InstallationUpdate) error {
	var bar *pterm.ProgressbarPrinter
	var stage minecraft.UpdateKind
	for update := range updates {
		switch update.Kind {
		case minecraft.LibraryUpdate, minecraft.AssetUpdate, minecraft.LogConfigUpdate, minecraft.ClientUpdate:
			if update.Progress.TotalFiles == 0 {
				util.Debug("Nothing to install for %s", stageTitle(update.Kind))
				continue
			}
			if update.Kind != stage || bar == nil {
				if bar != nil {
					bar.Stop()
				}
				stage = update.Kind
				bar, _ = pterm.DefaultProgressbar.WithTotal(update.Progress.TotalFiles).WithTitle(stageTitle(stage)).Start()
			}
			util.Debug("%s", update.Progress.CurrentFileUrl)
			bar.Increment()
		default:
			if bar != nil {
				bar.Stop()
				bar = nil
			}
			switch update.Kind {
			case minecraft.SuccessUpdate:
				pterm.Success.Println("Installed " + name)
				return nil
			case minecraft.CancelUpdate:
				pterm.Warning.Println("Installation cancelled")
				return util.ErrCancelled
			case minecraft.ErrorUpdate:
				return update.Err
			}
		}
	}
	return nil
}

func stageTitle(kind minecraft.UpdateKind) string {
	switch kind {
	case minecraft.LibraryUpdate:
		return "Libraries"
	case minecraft.AssetUpdate:
		return "Assets"
	case minecraft.LogConfigUpdate:
		return "Log config"
	default:
		return "Client"
	}
}

func launch(c *cli.Context) error {
	instance, err := services.GetActiveInstance(c.Args().Get(0))
	if err != nil {
		return err
	}

	installed, err := services.CheckInstalled(instance)
	if err != nil {
		return err
	}
	if !installed {
		err := install(instance)
		if errors.Is(err, util.ErrCancelled) {
			pterm.Warning.Println("Not launching a partial install")
			return nil
		}
		if err != nil {
			return err
		}
	}

	state, err := fileutils.LoadAppState()
	if err != nil {
		return err
	}

	var profile *util.Profile
	if !c.Bool("offline") && state.ActiveProfile != "" {
		found, err := services.FindRefreshSave(c.Context, credentials(c), state.ActiveProfile)
		if err != nil {
			return err
		}
		profile = &found
	}

	options := services.BuildLaunchOptions(instance, state.Settings, profile, c.String("player"))
	if c.Bool("dry-run") {
		plan, err := services.LaunchCommand(instance, options)
		if err != nil {
			return err
		}
		fmt.Println(plan.String())
		return nil
	}

	pterm.Info.Println("Launching " + instance.Name + " as " + options.PlayerName)
	process, err := services.Launch(instance, options)
	if err != nil {
		return err
	}
	if c.Bool("wait") {
		if code := process.Wait(); code != 0 {
			return fmt.Errorf("game exited with code %d", code)
		}
	}
	return nil
}
