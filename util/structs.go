package util

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EnvironmentVariable struct {
	Name  string  `json:"name"`
	Value *string `json:"value,omitempty"`
}

type Instance struct {
	UUID          uuid.UUID `json:"uuid"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Version       string    `json:"version"`
	InstancePath  string    `json:"instance_path"`
	LibrariesPath string    `json:"libraries_path"`
	AssetsPath    string    `json:"assets_path"`

	UseFullscreen    bool   `json:"use_fullscreen"`
	EnableWindowSize bool   `json:"enable_window_size"`
	WindowWidth      uint32 `json:"window_width"`
	WindowHeight     uint32 `json:"window_height"`

	EnableMemory bool   `json:"enable_memory"`
	MinMemory    uint32 `json:"min_memory"`
	MaxMemory    uint32 `json:"max_memory"`

	EnableJavaExec bool   `json:"enable_java_exec"`
	JavaExec       string `json:"java_exec"`

	EnableJvmArgs bool   `json:"enable_jvm_args"`
	JvmArgs       string `json:"jvm_args"`

	EnableEnvironment    bool                  `json:"enable_environment"`
	EnvironmentVariables []EnvironmentVariable `json:"environment_variables,omitempty"`
}

// NewInstance fills in the defaults used when a record is created. The UUID
// is generated here and never changes afterwards.
func NewInstance(name string, version string, instancePath string, librariesPath string, assetsPath string) Instance {
	return Instance{
		UUID:          uuid.New(),
		Name:          name,
		Version:       version,
		InstancePath:  instancePath,
		LibrariesPath: librariesPath,
		AssetsPath:    assetsPath,
		WindowWidth:   1280,
		WindowHeight:  720,
		MinMemory:     1024,
		MaxMemory:     2048,
	}
}

func (i Instance) Key() string {
	return i.UUID.String()
}

type TokenKind string

const (
	TokenMicrosoft        TokenKind = "Microsoft"
	TokenXboxLive         TokenKind = "XboxLive"
	TokenXboxLiveSecurity TokenKind = "XboxLiveSecurity"
	TokenMinecraft        TokenKind = "Minecraft"
)

// checkExpired treats a missing expiry as a token that never expires.
func checkExpired(kind TokenKind, exp *time.Time) error {
	if exp != nil && exp.Before(time.Now()) {
		return Wrap(ErrAuthExpired, string(kind), nil)
	}
	return nil
}

type MicrosoftToken struct {
	Token        string     `json:"token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	Exp          *time.Time `json:"exp,omitempty"`
}

func (t MicrosoftToken) CheckExpired() error {
	return checkExpired(TokenMicrosoft, t.Exp)
}

type XboxLiveToken struct {
	Token    string     `json:"token"`
	Exp      *time.Time `json:"exp,omitempty"`
	UserHash string     `json:"user_hash,omitempty"`
}

func (t XboxLiveToken) CheckExpired() error {
	return checkExpired(TokenXboxLive, t.Exp)
}

type XboxLiveSecurityToken struct {
	Token    string     `json:"token"`
	Exp      *time.Time `json:"exp,omitempty"`
	UserHash string     `json:"user_hash,omitempty"`
}

func (t XboxLiveSecurityToken) CheckExpired() error {
	return checkExpired(TokenXboxLiveSecurity, t.Exp)
}

type MinecraftToken struct {
	Username string     `json:"username"`
	Token    string     `json:"token"`
	Exp      *time.Time `json:"exp,omitempty"`
}

func (t MinecraftToken) CheckExpired() error {
	return checkExpired(TokenMinecraft, t.Exp)
}

type Entitlement struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
}

type Entitlements struct {
	Items     []Entitlement `json:"items"`
	Signature string        `json:"signature"`
	KeyId     string        `json:"keyId"`
}

func (e Entitlements) OwnsMinecraft() bool {
	return len(e.Items) > 0
}

type MinecraftProfile struct {
	Id    string            `json:"id"`
	Name  string            `json:"name"`
	Capes []json.RawMessage `json:"capes"`
	Skins []json.RawMessage `json:"skins"`
}

// Profile is an authenticated user. Every optional token is only set when
// all of the tokens before it were present and valid when it was created.
type Profile struct {
	UUID             uuid.UUID              `json:"uuid"`
	Microsoft        MicrosoftToken         `json:"microsoft"`
	XboxLive         *XboxLiveToken         `json:"xbox_live,omitempty"`
	XboxLiveSecurity *XboxLiveSecurityToken `json:"xbox_live_security,omitempty"`
	Minecraft        *MinecraftToken        `json:"minecraft,omitempty"`
	Entitlements     *Entitlements          `json:"entitlements,omitempty"`
	MinecraftProfile *MinecraftProfile      `json:"minecraft_profile,omitempty"`
}

func NewProfile(microsoft MicrosoftToken) Profile {
	return Profile{UUID: uuid.New(), Microsoft: microsoft}
}

func (p Profile) Key() string {
	return p.UUID.String()
}

// PlayerName falls back to the account name reported at login.
func (p Profile) PlayerName() string {
	if p.MinecraftProfile != nil {
		return p.MinecraftProfile.Name
	}
	if p.Minecraft != nil {
		return p.Minecraft.Username
	}
	return ""
}
