package util

import (
	"runtime"
	"strconv"
)

type OS string

const (
	Linux   OS = "linux"
	MacOS   OS = "osx"
	Windows OS = "windows"
	Other   OS = "other"
)

// Platform describes the host the game is installed for. Rules, natives and
// the classpath separator are all resolved against it.
type Platform struct {
	OS   OS
	Bits int
}

func CurrentPlatform() Platform {
	return Platform{OS: currentOS(runtime.GOOS), Bits: strconv.IntSize}
}

func currentOS(goos string) OS {
	switch goos {
	case "linux":
		return Linux
	case "darwin":
		return MacOS
	case "windows":
		return Windows
	default:
		return Other
	}
}

func (p Platform) ClasspathSeparator() string {
	if p.OS == Windows {
		return ";"
	}
	return ":"
}

func (p Platform) BitsString() string {
	return strconv.Itoa(p.Bits)
}

// MatchesName reports whether a rule's os.name refers to this platform.
// Mojang used "osx" historically and "macos" in newer documents.
func (p Platform) MatchesName(name string) bool {
	switch name {
	case "osx", "macos":
		return p.OS == MacOS
	default:
		return OS(name) == p.OS
	}
}

// MatchesArch reports whether a rule's os.arch refers to this platform.
func (p Platform) MatchesArch(arch string) bool {
	switch arch {
	case "x86", "i386":
		return p.Bits == 32
	case "x86_64", "amd64", "arm64", "aarch64":
		return p.Bits == 64
	default:
		return false
	}
}
