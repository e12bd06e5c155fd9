package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"netdash/internal/adapter"
	"netdash/internal/domain"
	"netdash/internal/logger"
	"netdash/internal/metrics"
	"netdash/internal/repository"
)

// DiscoveryOption configures a DiscoveryService
type DiscoveryOption func(*DiscoveryService)

// WithRefreshConcurrency bounds the number of neighbor refreshes in flight
func WithRefreshConcurrency(n int) DiscoveryOption {
	return func(s *DiscoveryService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithSweeper adds an active sweep whose results join the neighbor table
func WithSweeper(sweeper adapter.Sweeper) DiscoveryOption {
	return func(s *DiscoveryService) {
		s.sweeper = sweeper
	}
}

// WithoutPeripherals skips the attached hardware inventory
func WithoutPeripherals() DiscoveryOption {
	return func(s *DiscoveryService) {
		s.skipPeripherals = true
	}
}

// WithInterfaceRefresh also reads interface state for each neighbor
func WithInterfaceRefresh() DiscoveryOption {
	return func(s *DiscoveryService) {
		s.refreshInterface = true
	}
}

// DiscoveryService runs discovery passes: peripherals, the local gateway and
// link-layer neighbors, followed by an initial metrics refresh per neighbor
type DiscoveryService struct {
	repo     repository.DeviceRepository
	toolkit  adapter.Toolkit
	sweeper  adapter.Sweeper
	metrics  *MetricsService
	eventBus *EventBus
	log      logger.Logger
	now      func() time.Time

	// passes read the stored set once and match against it, so they must
	// not overlap
	passMu sync.Mutex

	concurrency      int
	skipPeripherals  bool
	refreshInterface bool
}

// NewDiscoveryService creates a discovery service
func NewDiscoveryService(repo repository.DeviceRepository, toolkit adapter.Toolkit, metricsSvc *MetricsService, eventBus *EventBus, log logger.Logger, opts ...DiscoveryOption) *DiscoveryService {
	s := &DiscoveryService{
		repo:        repo,
		toolkit:     toolkit,
		metrics:     metricsSvc,
		eventBus:    eventBus,
		log:         log.WithComponent("discovery"),
		now:         time.Now,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DiscoveryResult summarizes a pass for event payloads
type DiscoveryResult struct {
	Peripherals int     `json:"peripherals"`
	Gateway     bool    `json:"gateway"`
	Neighbors   int     `json:"neighbors"`
	Refreshed   int     `json:"refreshed"`
	Duration    float64 `json:"duration_seconds"`
	Error       string  `json:"error,omitempty"`
}

// Discover runs one discovery pass and returns every device it touched.
// Gateway, neighbor and peripheral failures are logged and skipped. When
// the stored device set cannot be loaded, peripherals and neighbors cannot
// be merged safely; the pass then registers only the gateway and returns
// it together with the error. Overlapping calls run one after another.
func (s *DiscoveryService) Discover(ctx context.Context) ([]domain.Device, error) {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	start := time.Now()
	seenAt := s.now().UTC()
	s.eventBus.Publish(Event{Type: EventDiscoveryStarted, Payload: map[string]string{"platform": string(s.toolkit.Platform)}})
	s.log.Info().Str("platform", string(s.toolkit.Platform)).Msg("discovery started")

	if _, err := s.repo.DeleteByID(ctx, domain.GatewayID); err != nil {
		s.log.Warn().Err(err).Msg("failed to remove previous gateway")
	}

	existing, loadErr := s.repo.FindAll(ctx)
	if loadErr != nil {
		loadErr = fmt.Errorf("failed to load devices: %w", loadErr)
		s.log.Error().Err(loadErr).Msg("discovery continues with gateway only")
	}

	result := DiscoveryResult{}
	devices := make([]domain.Device, 0)

	if loadErr == nil && !s.skipPeripherals {
		peripherals := s.registerPeripherals(ctx, existing, seenAt)
		result.Peripherals = len(peripherals)
		devices = append(devices, peripherals...)
	}

	gateway := s.registerGateway(ctx, seenAt)
	gatewayIP := ""
	if gateway != nil {
		result.Gateway = true
		gatewayIP = gateway.IPAddress
		devices = append(devices, *gateway)
	}

	if loadErr == nil {
		neighbors := s.registerNeighbors(ctx, existing, gatewayIP, seenAt)
		result.Neighbors = len(neighbors)
		result.Refreshed = s.refreshAll(ctx, neighbors)
		for _, d := range neighbors {
			devices = append(devices, *d)
		}
	}

	outcome := "ok"
	if loadErr != nil {
		outcome = "partial"
		result.Error = loadErr.Error()
	}
	result.Duration = time.Since(start).Seconds()
	s.recordMetrics(outcome, devices, time.Since(start))
	s.eventBus.Publish(Event{Type: EventDiscoveryComplete, Payload: result})

	s.log.Info().
		Int("peripherals", result.Peripherals).
		Bool("gateway", result.Gateway).
		Int("neighbors", result.Neighbors).
		Int("refreshed", result.Refreshed).
		Dur("duration", time.Since(start)).
		Msg("discovery complete")

	return devices, loadErr
}

// registerPeripherals stores attached hardware, reusing stored peripherals
// with the same name so their ids and edits survive
func (s *DiscoveryService) registerPeripherals(ctx context.Context, existing []domain.Device, seenAt time.Time) []domain.Device {
	if s.toolkit.Peripherals == nil {
		return nil
	}

	found, err := s.toolkit.Peripherals.ListAttachedPeripherals(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("peripheral inventory failed")
		return nil
	}

	byName := make(map[string][]domain.Device)
	for _, d := range existing {
		if d.Type == domain.DeviceTypePeripheral {
			byName[d.Name] = append(byName[d.Name], d)
		}
	}

	out := make([]domain.Device, 0, len(found))
	for _, p := range found {
		var device *domain.Device
		if matches := byName[p.Name]; len(matches) > 0 {
			device = &matches[0]
			byName[p.Name] = matches[1:]
			device.Status = domain.StatusConnected
		} else {
			device = domain.NewDevice(uuid.New().String(), p.Name, domain.AddressNotApplicable,
				domain.DeviceTypePeripheral, domain.StatusConnected)
		}
		device.MarkSeen(seenAt)

		saved, err := s.repo.Save(ctx, device)
		if err != nil {
			s.log.Warn().Err(err).Str("name", p.Name).Msg("failed to save peripheral")
			continue
		}
		out = append(out, *saved)
	}
	return out
}

// registerGateway stores a fresh local gateway row under the fixed id
func (s *DiscoveryService) registerGateway(ctx context.Context, seenAt time.Time) *domain.Device {
	if s.toolkit.Gateway == nil {
		return nil
	}

	ip, err := s.toolkit.Gateway.Resolve(ctx)
	if errors.Is(err, adapter.ErrGatewayNotFound) {
		s.log.Info().Msg("no default gateway found")
		return nil
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("gateway resolution failed")
		return nil
	}

	gateway := domain.NewDevice(domain.GatewayID, domain.GatewayName, ip, domain.DeviceTypeRouter, domain.StatusOnline)
	gateway.Protocol = domain.ProtocolSNMP
	gateway.MarkSeen(seenAt)

	saved, err := s.repo.Save(ctx, gateway)
	if err != nil {
		s.log.Warn().Err(err).Str("ip", ip).Msg("failed to save gateway")
		return nil
	}
	return saved
}

// registerNeighbors stores neighbor table entries. Entries are matched to
// stored network devices by IP; a match keeps its id, name, protocol and
// creation time. The gateway address and repeated IPs are skipped.
func (s *DiscoveryService) registerNeighbors(ctx context.Context, existing []domain.Device, gatewayIP string, seenAt time.Time) []*domain.Device {
	neighbors := s.collectNeighbors(ctx)

	byIP := make(map[string]domain.Device)
	for _, d := range existing {
		if d.Type == domain.DeviceTypePeripheral || d.IsGateway() || !d.HasAddress() {
			continue
		}
		if _, ok := byIP[d.IPAddress]; !ok {
			byIP[d.IPAddress] = d
		}
	}

	seen := make(map[string]bool, len(neighbors))
	out := make([]*domain.Device, 0, len(neighbors))
	for _, n := range neighbors {
		if n.IP == "" || n.IP == gatewayIP || seen[n.IP] {
			continue
		}
		seen[n.IP] = true

		var device *domain.Device
		if stored, ok := byIP[n.IP]; ok {
			device = &stored
			device.Status = domain.StatusOnline
			if n.MAC != "" {
				device.MACAddress = n.MAC
			}
		} else {
			device = domain.NewDevice(uuid.New().String(), domain.NetworkDeviceName(n.IP), n.IP,
				domain.DeviceTypeNetwork, domain.StatusOnline)
			device.MACAddress = n.MAC
			device.Protocol = domain.ProtocolSNMP
		}
		device.MarkSeen(seenAt)

		saved, err := s.repo.Save(ctx, device)
		if err != nil {
			s.log.Warn().Err(err).Str("ip", n.IP).Msg("failed to save neighbor")
			continue
		}
		out = append(out, saved)
	}
	return out
}

// collectNeighbors merges the passive neighbor table with the optional sweep
func (s *DiscoveryService) collectNeighbors(ctx context.Context) []domain.Neighbor {
	var neighbors []domain.Neighbor

	if s.sweeper != nil {
		swept, err := s.sweeper.Sweep(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("neighbor sweep failed")
		}
		neighbors = append(neighbors, swept...)
	}

	if s.toolkit.Neighbors != nil {
		scanned, err := s.toolkit.Neighbors.Scan(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("neighbor table scan failed")
		}
		// The passive table goes first so its order wins on duplicates
		neighbors = append(scanned, neighbors...)
	}

	return neighbors
}

// refreshAll refreshes each device in place, at most concurrency at a time
func (s *DiscoveryService) refreshAll(ctx context.Context, devices []*domain.Device) int {
	if s.metrics == nil || len(devices) == 0 {
		return 0
	}

	refreshed := make([]bool, len(devices))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, device := range devices {
		g.Go(func() error {
			refreshed[i] = s.metrics.Refresh(ctx, device)
			if s.refreshInterface {
				s.metrics.RefreshInterface(ctx, device)
			}
			return nil
		})
	}
	_ = g.Wait()

	count := 0
	for _, ok := range refreshed {
		if ok {
			count++
		}
	}
	return count
}

func (s *DiscoveryService) recordMetrics(outcome string, devices []domain.Device, elapsed time.Duration) {
	metrics.DiscoveryRunsTotal.With(prometheus.Labels{"outcome": outcome}).Inc()
	metrics.DiscoveryRunTimeSummary.With(prometheus.Labels{"outcome": outcome}).Observe(elapsed.Seconds())
	for _, d := range devices {
		metrics.DevicesDiscovered.With(prometheus.Labels{"type": string(d.Type)}).Inc()
	}
}
