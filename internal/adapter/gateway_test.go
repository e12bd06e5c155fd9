package adapter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ipconfigOutput = []string{
	"Windows IP Configuration",
	"",
	"Ethernet adapter Ethernet:",
	"",
	"   Connection-specific DNS Suffix  . : lan",
	"   IPv4 Address. . . . . . . . . . . : 192.168.1.23",
	"   Subnet Mask . . . . . . . . . . . : 255.255.255.0",
	"   Default Gateway . . . . . . . . . : 192.168.1.1",
}

func TestParseGateway(t *testing.T) {
	tests := []struct {
		name   string
		lines  []string
		want   string
		wantOK bool
	}{
		{
			name:   "single gateway line",
			lines:  []string{"Default Gateway . . . . : 192.168.1.1"},
			want:   "192.168.1.1",
			wantOK: true,
		},
		{
			name:   "full ipconfig output",
			lines:  ipconfigOutput,
			want:   "192.168.1.1",
			wantOK: true,
		},
		{
			name:   "no gateway line",
			lines:  []string{"Windows IP Configuration", "   Subnet Mask . . . : 255.255.255.0"},
			wantOK: false,
		},
		{
			name:   "empty gateway value",
			lines:  []string{"   Default Gateway . . . . . . . . . : "},
			wantOK: false,
		},
		{
			name:   "ipv6 gateway is not accepted",
			lines:  []string{"   Default Gateway . . . . . . . . . : fe80::1%12"},
			wantOK: false,
		},
		{
			name:   "marker without colon",
			lines:  []string{"Default Gateway 192.168.1.1"},
			wantOK: false,
		},
		{
			name:   "trailing garbage rejected",
			lines:  []string{"Default Gateway . . : 192.168.1.1 (preferred)"},
			wantOK: false,
		},
		{
			name: "first valid gateway wins",
			lines: []string{
				"   Default Gateway . . . . . . . . . : ",
				"   Default Gateway . . . . . . . . . : 10.0.0.1",
				"   Default Gateway . . . . . . . . . : 10.0.0.254",
			},
			want:   "10.0.0.1",
			wantOK: true,
		},
		{
			name:   "nil input",
			lines:  nil,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseGateway(tt.lines)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIPRouteDefault(t *testing.T) {
	got, ok := ParseIPRouteDefault([]string{
		"default via 192.168.1.1 dev eth0 proto dhcp src 192.168.1.23 metric 100",
	})
	require.True(t, ok)
	assert.Equal(t, "192.168.1.1", got)

	_, ok = ParseIPRouteDefault([]string{"192.168.1.0/24 dev eth0 proto kernel scope link"})
	assert.False(t, ok)

	_, ok = ParseIPRouteDefault([]string{"default dev wg0 scope link"})
	assert.False(t, ok)
}

func TestParseProcNetRoute(t *testing.T) {
	lines := []string{
		"Iface\tDestination\tGateway \tFlags\tRefCnt\tUse\tMetric\tMask\t\tMTU\tWindow\tIRTT",
		"eth0\t0001A8C0\t00000000\t0001\t0\t0\t100\t00FFFFFF\t0\t0\t0",
		"eth0\t00000000\t0101A8C0\t0003\t0\t0\t100\t00000000\t0\t0\t0",
	}

	got, ok := ParseProcNetRoute(lines)
	require.True(t, ok)
	assert.Equal(t, "192.168.1.1", got)

	_, ok = ParseProcNetRoute(lines[:2])
	assert.False(t, ok)
}

func TestParseRouteGetDefault(t *testing.T) {
	lines := []string{
		"   route to: default",
		"destination: default",
		"       mask: default",
		"    gateway: 10.0.0.1",
		"  interface: en0",
	}

	got, ok := ParseRouteGetDefault(lines)
	require.True(t, ok)
	assert.Equal(t, "10.0.0.1", got)
}

func TestGatewayResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("windows parses ipconfig", func(t *testing.T) {
		runner := &StaticRunner{Outputs: map[string][]string{"ipconfig": ipconfigOutput}}
		ip, err := NewGatewayResolver(PlatformWindows, runner).Resolve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "192.168.1.1", ip)
	})

	t.Run("windows without gateway is not found", func(t *testing.T) {
		runner := &StaticRunner{Outputs: map[string][]string{"ipconfig": {"Windows IP Configuration"}}}
		_, err := NewGatewayResolver(PlatformWindows, runner).Resolve(ctx)
		assert.ErrorIs(t, err, ErrGatewayNotFound)
	})

	t.Run("command failure surfaces execution error", func(t *testing.T) {
		runner := &StaticRunner{Errors: map[string]error{"ipconfig": ErrExecution}}
		_, err := NewGatewayResolver(PlatformWindows, runner).Resolve(ctx)
		assert.ErrorIs(t, err, ErrExecution)
	})

	t.Run("linux uses ip route", func(t *testing.T) {
		runner := &StaticRunner{Outputs: map[string][]string{
			"ip": {"default via 172.17.0.1 dev eth0"},
		}}
		ip, err := NewGatewayResolver(PlatformLinux, runner).Resolve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "172.17.0.1", ip)
		assert.Equal(t, []string{"ip route show default"}, runner.Calls())
	})

	t.Run("linux falls back to route table file", func(t *testing.T) {
		routeFile := filepath.Join(t.TempDir(), "route")
		content := "Iface\tDestination\tGateway\n" +
			"eth0\t00000000\t0100000A\t0003\n"
		require.NoError(t, os.WriteFile(routeFile, []byte(content), 0644))

		runner := &StaticRunner{}
		resolver := &linuxGateway{runner: runner, routeFile: routeFile}
		ip, err := resolver.Resolve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.1", ip)
	})

	t.Run("darwin uses route get", func(t *testing.T) {
		runner := &StaticRunner{Outputs: map[string][]string{
			"route": {"    gateway: 192.168.0.1"},
		}}
		ip, err := NewGatewayResolver(PlatformDarwin, runner).Resolve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "192.168.0.1", ip)
	})

	t.Run("unsupported is always not found", func(t *testing.T) {
		runner := &StaticRunner{}
		_, err := NewGatewayResolver(PlatformUnsupported, runner).Resolve(ctx)
		assert.True(t, errors.Is(err, ErrGatewayNotFound))
		assert.Empty(t, runner.Calls(), "unsupported resolver must not run commands")
	})
}
