package adapter

import (
	"context"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// Platform selects which OS command dialect the resolvers and scanners speak
type Platform string

const (
	PlatformWindows     Platform = "windows"
	PlatformLinux       Platform = "linux"
	PlatformDarwin      Platform = "darwin"
	PlatformUnsupported Platform = "unsupported"
)

// ParsePlatform maps an OS name to a Platform; unknown names are unsupported
func ParsePlatform(name string) Platform {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "windows":
		return PlatformWindows
	case "linux":
		return PlatformLinux
	case "darwin", "macos":
		return PlatformDarwin
	default:
		return PlatformUnsupported
	}
}

// DetectPlatform identifies the host OS via gopsutil, falling back to runtime.GOOS
func DetectPlatform(ctx context.Context) Platform {
	info, err := host.InfoWithContext(ctx)
	if err == nil && info.OS != "" {
		return ParsePlatform(info.OS)
	}
	return ParsePlatform(runtime.GOOS)
}
