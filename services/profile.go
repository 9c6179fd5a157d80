package services

import (
	"context"
	"errors"
	"strings"

	"github.com/mrnavastar/blockman/api"
	"github.com/mrnavastar/blockman/util"
	"github.com/mrnavastar/blockman/util/fileutils"
)

var ErrProfileNotFound = errors.New("failed to find profile")

// Login signs a new account in through the browser and stores the profile.
func Login(ctx context.Context, creds api.Credentials) (util.Profile, error) {
	microsoft, err := api.AuthenticateMicrosoft(ctx, creds)
	if err != nil {
		return util.Profile{}, err
	}

	profile := util.NewProfile(microsoft)
	if err := Authenticate(&profile); err != nil {
		return profile, err
	}

	if err := SaveProfile(profile); err != nil {
		return profile, err
	}
	return profile, SetActiveProfile(profile.Key())
}

// Authenticate runs every stage after the Microsoft token.
func Authenticate(profile *util.Profile) error {
	stages := []func(*util.Profile) error{
		AuthenticateXboxLive,
		AuthenticateXboxLiveSecurity,
		AuthenticateMinecraft,
		SetEntitlements,
		SetMinecraftProfile,
	}
	for _, stage := range stages {
		if err := stage(profile); err != nil {
			return err
		}
	}
	return nil
}

func AuthenticateXboxLive(profile *util.Profile) error {
	token, err := api.AuthenticateXboxLive(profile.Microsoft)
	if err != nil {
		return err
	}
	profile.XboxLive = &token
	return nil
}

func AuthenticateXboxLiveSecurity(profile *util.Profile) error {
	if profile.XboxLive == nil {
		return util.Wrap(util.ErrAuthNotAuthenticated, string(util.TokenXboxLive), nil)
	}

	token, err := api.AuthenticateXboxLiveSecurity(*profile.XboxLive)
	if err != nil {
		return err
	}
	profile.XboxLiveSecurity = &token
	return nil
}

func AuthenticateMinecraft(profile *util.Profile) error {
	if profile.XboxLiveSecurity == nil {
		return util.Wrap(util.ErrAuthNotAuthenticated, string(util.TokenXboxLiveSecurity), nil)
	}

	token, err := api.AuthenticateMinecraft(*profile.XboxLiveSecurity)
	if err != nil {
		return err
	}
	profile.Minecraft = &token
	return nil
}

func SetEntitlements(profile *util.Profile) error {
	if profile.Minecraft == nil {
		return util.Wrap(util.ErrAuthNotAuthenticated, string(util.TokenMinecraft), nil)
	}

	entitlements, err := api.GetEntitlements(*profile.Minecraft)
	if err != nil {
		return err
	}
	profile.Entitlements = &entitlements
	return nil
}

func SetMinecraftProfile(profile *util.Profile) error {
	if profile.Minecraft == nil {
		return util.Wrap(util.ErrAuthNotAuthenticated, string(util.TokenMinecraft), nil)
	}
	if profile.Entitlements == nil || !profile.Entitlements.OwnsMinecraft() {
		return util.Wrap(util.ErrNotEntitled, profile.Minecraft.Username, nil)
	}

	minecraftProfile, err := api.GetMinecraftProfile(*profile.Minecraft)
	if err != nil {
		return err
	}
	profile.MinecraftProfile = &minecraftProfile
	return nil
}

// Refresh gets a new Microsoft token with the stored refresh token and
// re-runs the rest of the chain.
func Refresh(ctx context.Context, creds api.Credentials, profile *util.Profile) error {
	microsoft, err := api.RefreshMicrosoft(ctx, creds, profile.Microsoft)
	if err != nil {
		return err
	}
	profile.Microsoft = microsoft
	return Authenticate(profile)
}

// FindRefreshSave returns the stored profile, refreshing and saving it first
// when its Minecraft token has expired.
func FindRefreshSave(ctx context.Context, creds api.Credentials, id string) (util.Profile, error) {
	profile, err := GetProfile(id)
	if err != nil {
		return util.Profile{}, err
	}

	if profile.Minecraft != nil && profile.Minecraft.CheckExpired() != nil {
		util.Debug("Minecraft token of %s expired, refreshing", profile.PlayerName())
		if err := Refresh(ctx, creds, &profile); err != nil {
			return profile, err
		}
		if err := SaveProfile(profile); err != nil {
			return profile, err
		}
	}
	return profile, nil
}

func ListProfiles() ([]util.Profile, error) {
	state, err := fileutils.LoadAppState()
	if err != nil {
		return nil, err
	}
	return state.Profiles().Load()
}

// GetProfile finds a profile by uuid or by player name (case insensitive).
func GetProfile(id string) (util.Profile, error) {
	state, err := fileutils.LoadAppState()
	if err != nil {
		return util.Profile{}, err
	}

	profile, ok, err := state.Profiles().Find(id)
	if err != nil {
		return util.Profile{}, err
	}
	if ok {
		return profile, nil
	}

	profiles, err := state.Profiles().Load()
	if err != nil {
		return util.Profile{}, err
	}
	for _, profile := range profiles {
		if name := profile.PlayerName(); name != "" && strings.EqualFold(name, id) {
			return profile, nil
		}
	}
	return util.Profile{}, ErrProfileNotFound
}

// GetActiveProfile falls back to the active profile when id is empty.
func GetActiveProfile(id string) (util.Profile, error) {
	if id != "" {
		return GetProfile(id)
	}

	state, err := fileutils.LoadAppState()
	if err != nil {
		return util.Profile{}, err
	}
	if state.ActiveProfile == "" {
		return util.Profile{}, ErrProfileNotFound
	}
	return GetProfile(state.ActiveProfile)
}

func SaveProfile(profile util.Profile) error {
	state, err := fileutils.LoadAppState()
	if err != nil {
		return err
	}
	return state.Profiles().Save(profile)
}

func RemoveProfile(id string) error {
	profile, err := GetProfile(id)
	if err != nil {
		return err
	}

	state, err := fileutils.LoadAppState()
	if err != nil {
		return err
	}
	if err := state.Profiles().Remove(profile.Key()); err != nil {
		return err
	}

	if state.ActiveProfile == profile.Key() {
		state.ActiveProfile = ""
		return fileutils.SaveAppState(state)
	}
	return nil
}

func SetActiveProfile(id string) error {
	state, err := fileutils.LoadAppState()
	if err != nil {
		return err
	}
	state.ActiveProfile = id
	return fileutils.SaveAppState(state)
}
