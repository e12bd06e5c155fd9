package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"netdash/internal/adapter"
	"netdash/internal/domain"
	"netdash/internal/logger"
	"netdash/internal/repository"
	"netdash/internal/repository/sqlite"
)

var errDatabaseDown = errors.New("database is down")

func newTestRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

// fakeSNMP answers queries from a fixed value map, or fails with err
type fakeSNMP struct {
	mu     sync.Mutex
	values map[string]any
	err    error
	calls  []string
}

func (f *fakeSNMP) Query(_ context.Context, address string, _ []string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, address)
	if f.err != nil {
		return nil, f.err
	}
	return f.values, nil
}

func (f *fakeSNMP) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func healthySNMP() *fakeSNMP {
	return &fakeSNMP{values: map[string]any{
		adapter.OIDProcessorLoad: int64(17),
		adapter.OIDStorageUsed:   int64(2048),
		adapter.OIDIfOperStatus:  int64(1),
	}}
}

// brokenRepo fails every read while delegating writes
type brokenRepo struct {
	repository.DeviceRepository
}

func (brokenRepo) FindAll(context.Context) ([]domain.Device, error) {
	return nil, errDatabaseDown
}

func newMetricsService(repo repository.DeviceRepository, snmp adapter.SNMPQuerier, history *History) *MetricsService {
	return NewMetricsService(repo, snmp, NewSimulator(42), history, NewEventBus(), logger.NewTestLogger())
}

func windowsRunner() *adapter.StaticRunner {
	return &adapter.StaticRunner{
		Outputs: map[string][]string{
			"ipconfig": {
				"Windows IP Configuration",
				"",
				"   IPv4 Address. . . . . . . . . . . : 192.168.1.50",
				"   Default Gateway . . . . . . . . . : 192.168.1.1",
			},
			"arp": {
				"Interface: 192.168.1.50 --- 0x4",
				"  Internet Address      Physical Address      Type",
				"192.168.1.10 aa:bb:cc:dd:ee:01 dynamic",
				"192.168.1.11 static",
			},
			"powershell": {
				"USB Root Hub",
				"Logitech USB Receiver",
			},
		},
	}
}

func countType(devices []domain.Device, deviceType domain.DeviceType) int {
	n := 0
	for _, d := range devices {
		if d.Type == deviceType {
			n++
		}
	}
	return n
}
