package services

import (
	"github.com/mrnavastar/blockman/minecraft"
	"github.com/mrnavastar/blockman/util"
	"github.com/mrnavastar/blockman/util/fileutils"
)

// BuildLaunchOptions merges the launcher settings with the instance's own
// overrides. A nil profile, or one without a Minecraft profile, plays offline
// as playerName.
func BuildLaunchOptions(instance util.Instance, settings fileutils.Settings, profile *util.Profile, playerName string) minecraft.LaunchOptions {
	options := minecraft.DefaultLaunchOptions()
	if settings.LauncherName != "" {
		options.LauncherName = settings.LauncherName
	}
	if playerName != "" {
		options.PlayerName = playerName
	}

	if profile != nil && profile.MinecraftProfile != nil && profile.Minecraft != nil {
		options.PlayerName = profile.MinecraftProfile.Name
		options.ProfileId = profile.MinecraftProfile.Id
		options.Token = profile.Minecraft.Token
	}

	options.UseFullscreen = instance.UseFullscreen || settings.UseFullscreen

	if instance.EnableWindowSize {
		options.EnableWindowSize = true
		options.WindowWidth, options.WindowHeight = instance.WindowWidth, instance.WindowHeight
	} else if settings.EnableWindowSize {
		options.EnableWindowSize = true
		options.WindowWidth, options.WindowHeight = settings.WindowWidth, settings.WindowHeight
	}

	if instance.EnableMemory {
		options.EnableMemory = true
		options.MinMemory, options.MaxMemory = instance.MinMemory, instance.MaxMemory
	} else if settings.EnableMemory {
		options.EnableMemory = true
		options.MinMemory, options.MaxMemory = settings.MinMemory, settings.MaxMemory
	}

	if instance.EnableJvmArgs {
		options.EnableJvmArgs = true
		options.JvmArgs = instance.JvmArgs
	} else if settings.EnableJvmArgs {
		options.EnableJvmArgs = true
		options.JvmArgs = settings.JvmArgs
	}

	// The instance's own java executable is picked by the planner.
	if settings.JavaExec != "" {
		options.JavaExec = settings.JavaExec
	}

	if instance.EnableEnvironment {
		options.EnvironmentVariables = instance.EnvironmentVariables
	}
	return options
}

func LaunchCommand(instance util.Instance, options minecraft.LaunchOptions) (minecraft.LaunchPlan, error) {
	return minecraft.LaunchCommand(instance, options)
}

func Launch(instance util.Instance, options minecraft.LaunchOptions) (*minecraft.GameProcess, error) {
	plan, err := LaunchCommand(instance, options)
	if err != nil {
		return nil, err
	}
	return minecraft.Launch(plan)
}
