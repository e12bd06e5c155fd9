package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// ErrGatewayNotFound means the host reported no default gateway. This is an
// expected outcome, not a fault.
var ErrGatewayNotFound = errors.New("default gateway not found")

const gatewayMarker = "Default Gateway"

var ipv4Pattern = regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+$`)

// GatewayResolver finds the host's default gateway IPv4 address
type GatewayResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// NewGatewayResolver returns the resolver for the given platform
func NewGatewayResolver(platform Platform, runner Runner) GatewayResolver {
	switch platform {
	case PlatformWindows:
		return &windowsGateway{runner: runner}
	case PlatformLinux:
		return &linuxGateway{runner: runner, routeFile: "/proc/net/route"}
	case PlatformDarwin:
		return &darwinGateway{runner: runner}
	default:
		return unsupportedGateway{}
	}
}

// ParseGateway extracts the gateway from ipconfig-style output: the first
// line containing "Default Gateway" whose text after the first colon is a
// dotted-quad IPv4 address.
func ParseGateway(lines []string) (string, bool) {
	for _, line := range lines {
		if !strings.Contains(line, gatewayMarker) {
			continue
		}
		_, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		if ipv4Pattern.MatchString(value) {
			return value, true
		}
	}
	return "", false
}

// ParseIPRouteDefault extracts the gateway from `ip route show default` output
func ParseIPRouteDefault(lines []string) (string, bool) {
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] != "default" {
			continue
		}
		for i := 1; i < len(fields)-1; i++ {
			if fields[i] == "via" && ipv4Pattern.MatchString(fields[i+1]) {
				return fields[i+1], true
			}
		}
	}
	return "", false
}

// ParseProcNetRoute extracts the gateway from /proc/net/route, where the
// default route has destination 00000000 and a little-endian hex gateway.
func ParseProcNetRoute(lines []string) (string, bool) {
	if len(lines) < 2 {
		return "", false
	}
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[1] != "00000000" {
			continue
		}
		gw := fields[2]
		if len(gw) != 8 || gw == "00000000" {
			continue
		}
		var b1, b2, b3, b4 uint8
		if _, err := fmt.Sscanf(gw, "%02x%02x%02x%02x", &b4, &b3, &b2, &b1); err != nil {
			continue
		}
		return fmt.Sprintf("%d.%d.%d.%d", b1, b2, b3, b4), true
	}
	return "", false
}

// ParseRouteGetDefault extracts the gateway from BSD `route -n get default` output
func ParseRouteGetDefault(lines []string) (string, bool) {
	for _, line := range lines {
		key, value, found := strings.Cut(strings.TrimSpace(line), ":")
		if !found || key != "gateway" {
			continue
		}
		value = strings.TrimSpace(value)
		if ipv4Pattern.MatchString(value) {
			return value, true
		}
	}
	return "", false
}

type windowsGateway struct {
	runner Runner
}

func (g *windowsGateway) Resolve(ctx context.Context) (string, error) {
	lines, err := g.runner.Run(ctx, "ipconfig")
	if err != nil {
		return "", err
	}
	if ip, ok := ParseGateway(lines); ok {
		return ip, nil
	}
	return "", ErrGatewayNotFound
}

type linuxGateway struct {
	runner    Runner
	routeFile string
}

func (g *linuxGateway) Resolve(ctx context.Context) (string, error) {
	lines, err := g.runner.Run(ctx, "ip", "route", "show", "default")
	if err == nil {
		if ip, ok := ParseIPRouteDefault(lines); ok {
			return ip, nil
		}
		return "", ErrGatewayNotFound
	}

	// ip(8) missing, typically in slim containers
	data, readErr := os.ReadFile(g.routeFile)
	if readErr != nil {
		return "", err
	}
	if ip, ok := ParseProcNetRoute(SplitLines(data)); ok {
		return ip, nil
	}
	return "", ErrGatewayNotFound
}

type darwinGateway struct {
	runner Runner
}

func (g *darwinGateway) Resolve(ctx context.Context) (string, error) {
	lines, err := g.runner.Run(ctx, "route", "-n", "get", "default")
	if err != nil {
		return "", err
	}
	if ip, ok := ParseRouteGetDefault(lines); ok {
		return ip, nil
	}
	return "", ErrGatewayNotFound
}

type unsupportedGateway struct{}

func (unsupportedGateway) Resolve(context.Context) (string, error) {
	return "", ErrGatewayNotFound
}
