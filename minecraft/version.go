package minecraft

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/mrnavastar/blockman/api"
	"github.com/mrnavastar/blockman/util"
)

var errMissingField = errors.New("required field missing")

var (
	LIBRARIES_BASE_URL = "https://libraries.minecraft.net"
	ASSETS_BASE_URL    = "https://resources.download.minecraft.net"
)

type File struct {
	Id   string `json:"id,omitempty"`
	Sha1 string `json:"sha1"`
	Size int64  `json:"size"`
	Url  string `json:"url"`
}

type Artifact struct {
	Path string `json:"path,omitempty"`
	Sha1 string `json:"sha1"`
	Size int64  `json:"size"`
	Url  string `json:"url"`
}

type AssetIndex struct {
	Id        string `json:"id"`
	Sha1      string `json:"sha1"`
	Size      int64  `json:"size"`
	TotalSize int64  `json:"totalSize,omitempty"`
	Url       string `json:"url"`
}

type LibraryDownloads struct {
	Artifact    *Artifact       `json:"artifact,omitempty"`
	Classifiers json.RawMessage `json:"classifiers,omitempty"`
}

type Extract struct {
	Exclude []string `json:"exclude,omitempty"`
}

type Library struct {
	Name      string            `json:"name"`
	Downloads LibraryDownloads  `json:"downloads"`
	Natives   map[string]string `json:"natives,omitempty"`
	Rules     []Rule            `json:"rules,omitempty"`
	Extract   *Extract          `json:"extract,omitempty"`
}

type LoggingClient struct {
	Argument string `json:"argument"`
	File     File   `json:"file"`
	Type     string `json:"type,omitempty"`
}

type Logging struct {
	Client *LoggingClient `json:"client,omitempty"`
}

type VersionDownloads struct {
	Client         *File `json:"client,omitempty"`
	ClientMappings *File `json:"client_mappings,omitempty"`
	Server         *File `json:"server,omitempty"`
	ServerMappings *File `json:"server_mappings,omitempty"`
}

type VersionData struct {
	Id                     string           `json:"id"`
	Arguments              *Arguments       `json:"arguments,omitempty"`
	MinecraftArguments     string           `json:"minecraftArguments,omitempty"`
	Assets                 string           `json:"assets,omitempty"`
	AssetIndex             *AssetIndex      `json:"assetIndex,omitempty"`
	ComplianceLevel        int              `json:"complianceLevel,omitempty"`
	Downloads              VersionDownloads `json:"downloads"`
	JavaVersion            json.RawMessage  `json:"javaVersion,omitempty"`
	Libraries              []Library        `json:"libraries"`
	Logging                *Logging         `json:"logging,omitempty"`
	MainClass              string           `json:"mainClass"`
	MinimumLauncherVersion int              `json:"minimumLauncherVersion,omitempty"`
	ReleaseTime            strfmt.DateTime  `json:"releaseTime"`
	Time                   strfmt.DateTime  `json:"time"`
	Type                   api.VersionType  `json:"type"`
}

func ParseVersionData(data []byte) (VersionData, error) {
	var versionData VersionData
	if err := json.Unmarshal(data, &versionData); err != nil {
		return VersionData{}, util.Wrap(util.ErrParseFailed, "version data", err)
	}
	if versionData.Id == "" || versionData.MainClass == "" {
		return VersionData{}, util.Wrap(util.ErrParseFailed, "version data", errMissingField)
	}
	return versionData, nil
}

func ReadVersionData(path string) (VersionData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return VersionData{}, util.Wrap(util.ErrFilesystem, path, err)
	}
	return ParseVersionData(data)
}

// LoggingClient returns nil when the version has no client log config.
func (v VersionData) LoggingClient() *LoggingClient {
	if v.Logging == nil {
		return nil
	}
	return v.Logging.Client
}

// NeededLibraries returns the libraries whose rules allow them in env.
func (v VersionData) NeededLibraries(env Environment) []Library {
	var libraries []Library
	for _, library := range v.Libraries {
		if Allows(library.Rules, env) {
			libraries = append(libraries, library)
		}
	}
	return libraries
}

// LibraryName is the maven coordinate of a library. Package is already in
// path form (dots replaced by slashes).
type LibraryName struct {
	Package    string
	Name       string
	Version    string
	Classifier string
}

// ParseName splits "package:name:version". Newer versions list natives as
// separate libraries with a fourth classifier part.
func (l Library) ParseName() (LibraryName, error) {
	parts := strings.Split(l.Name, ":")
	if len(parts) != 3 && len(parts) != 4 {
		return LibraryName{}, util.Wrap(util.ErrLibraryNameFormat, l.Name, nil)
	}
	for _, part := range parts {
		if part == "" {
			return LibraryName{}, util.Wrap(util.ErrLibraryNameFormat, l.Name, nil)
		}
	}

	name := LibraryName{Package: strings.ReplaceAll(parts[0], ".", "/"), Name: parts[1], Version: parts[2]}
	if len(parts) == 4 {
		name.Classifier = parts[3]
	}
	return name, nil
}

// Native returns the native classifier for the platform, if the library has one.
func (l Library) Native(platform util.Platform) (string, bool) {
	var key string
	switch platform.OS {
	case util.Linux:
		key = "linux"
	case util.MacOS:
		key = "osx"
	case util.Windows:
		key = "windows"
	default:
		return "", false
	}

	native, ok := l.Natives[key]
	if !ok {
		return "", false
	}
	return strings.ReplaceAll(native, "${arch}", platform.BitsString()), true
}

func (n LibraryName) Dir(librariesPath string) string {
	return filepath.Join(librariesPath, filepath.FromSlash(n.Package), n.Name, n.Version)
}

func (n LibraryName) JarName() string {
	if n.Classifier != "" {
		return n.NativeJarName(n.Classifier)
	}
	return n.Name + "-" + n.Version + ".jar"
}

func (n LibraryName) NativeJarName(native string) string {
	return n.Name + "-" + n.Version + "-" + native + ".jar"
}

func (n LibraryName) NativeUrl(native string) string {
	return strings.Join([]string{LIBRARIES_BASE_URL, n.Package, n.Name, n.Version, n.NativeJarName(native)}, "/")
}

// JarPath is the file that goes on the classpath for this library.
func (l Library) JarPath(librariesPath string, platform util.Platform) (string, error) {
	name, err := l.ParseName()
	if err != nil {
		return "", err
	}

	if native, ok := l.Native(platform); ok {
		return filepath.Join(name.Dir(librariesPath), name.NativeJarName(native)), nil
	}
	return filepath.Join(name.Dir(librariesPath), name.JarName()), nil
}
