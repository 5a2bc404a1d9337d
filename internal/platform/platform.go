// Package platform maps client build targets to the native libraries they
// link: the prebuilt logic archive and the embedded SQLite engine.
package platform

import (
	"fmt"
	"path"
	"runtime"
	"strings"
)

// Platform is a client build target.
type Platform string

const (
	IOS     Platform = "IOS"
	Mac     Platform = "Mac"
	Linux   Platform = "Linux"
	Android Platform = "Android"
	Win64   Platform = "Win64"
)

// ThirdPartyDir is where prebuilt archives live, relative to the client
// module.
const ThirdPartyDir = "ThirdParty"

var logicTargets = map[Platform]string{
	IOS:     "aarch64-apple-ios",
	Mac:     "aarch64-apple-darwin",
	Linux:   "x86_64-unknown-linux-gnu",
	Android: "aarch64-linux-android",
}

// UnsupportedPlatformError aborts configuration for a platform without
// prebuilt libraries.
type UnsupportedPlatformError struct {
	Platform Platform
	Library  string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform %q for %s", string(e.Platform), e.Library)
}

// LogicArchive returns the logic archive path for p.
func LogicArchive(p Platform) (string, error) {
	target, ok := logicTargets[p]
	if !ok {
		return "", &UnsupportedPlatformError{Platform: p, Library: "liblogic"}
	}
	return path.Join(ThirdPartyDir, "liblogic-"+target+".a"), nil
}

// SQLiteKind tells where the SQLite engine comes from.
type SQLiteKind int

const (
	// VendorSDK links the SQLite shipped with the platform SDK.
	VendorSDK SQLiteKind = iota + 1
	// SystemPackage links the system installed library.
	SystemPackage
	// Bundled uses the engine plugin compiled with the client.
	Bundled
)

func (k SQLiteKind) String() string {
	switch k {
	case VendorSDK:
		return "vendor-sdk"
	case SystemPackage:
		return "system"
	case Bundled:
		return "bundled"
	default:
		return fmt.Sprintf("SQLiteKind(%d)", int(k))
	}
}

// SQLiteSource describes how SQLite is linked on a platform.
type SQLiteSource struct {
	Kind SQLiteKind
	// Library is the linker input, empty for the bundled plugin.
	Library string
}

var sqliteSources = map[Platform]SQLiteSource{
	IOS:     {Kind: VendorSDK, Library: "libsqlite3.tbd"},
	Mac:     {Kind: VendorSDK, Library: "libsqlite3.tbd"},
	Linux:   {Kind: SystemPackage, Library: "libsqlite3.so"},
	Android: {Kind: Bundled},
}

// ResolveSQLite returns the SQLite source for p. bundled forces the engine
// bundled plugin on every supported platform.
func ResolveSQLite(p Platform, bundled bool) (SQLiteSource, error) {
	src, ok := sqliteSources[p]
	if !ok {
		return SQLiteSource{}, &UnsupportedPlatformError{Platform: p, Library: "sqlite"}
	}
	if bundled {
		return SQLiteSource{Kind: Bundled}, nil
	}
	return src, nil
}

// ParsePlatform parses a platform name, ignoring case.
func ParsePlatform(s string) (Platform, error) {
	for _, p := range []Platform{IOS, Mac, Linux, Android, Win64} {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// Current returns the platform of the running binary.
func Current() Platform {
	return fromGOOS(runtime.GOOS)
}

func fromGOOS(goos string) Platform {
	switch goos {
	case "ios":
		return IOS
	case "darwin":
		return Mac
	case "linux":
		return Linux
	case "android":
		return Android
	case "windows":
		return Win64
	default:
		return Platform(goos)
	}
}
