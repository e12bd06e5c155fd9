package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"netdash/internal/adapter"
	"netdash/internal/domain"
	"netdash/internal/logger"
	"netdash/internal/metrics"
	"netdash/internal/repository"
)

const (
	refreshSuccess = "success"
	refreshFailure = "failure"
	refreshSkipped = "skipped"
)

// MetricsService refreshes device metrics from the device's management
// protocol, or from the simulator when the protocol has no real client
type MetricsService struct {
	repo     repository.DeviceRepository
	snmp     adapter.SNMPQuerier
	sim      *Simulator
	history  *History
	eventBus *EventBus
	log      logger.Logger
	now      func() time.Time
}

// NewMetricsService creates a metrics refresh service. history and
// eventBus may be nil.
func NewMetricsService(repo repository.DeviceRepository, snmp adapter.SNMPQuerier, sim *Simulator, history *History, eventBus *EventBus, log logger.Logger) *MetricsService {
	return &MetricsService{
		repo:     repo,
		snmp:     snmp,
		sim:      sim,
		history:  history,
		eventBus: eventBus,
		log:      log.WithComponent("metrics"),
		now:      time.Now,
	}
}

// Refresh updates CPU and memory for the device and persists it. It reports
// whether new values were stored. On failure the device keeps its previous
// values and the error is logged, never returned.
func (s *MetricsService) Refresh(ctx context.Context, device *domain.Device) bool {
	if device == nil {
		return false
	}

	var (
		cpu, mem float64
		err      error
	)

	switch device.Protocol {
	case domain.ProtocolSNMP:
		cpu, mem, err = s.querySNMP(ctx, device.IPAddress)
	case domain.ProtocolNETCONF:
		cpu, mem = s.sim.NETCONF()
	default:
		s.count(device.Protocol, refreshSkipped)
		return false
	}

	if err != nil {
		s.log.Warn().Err(err).
			Str("device_id", device.ID).
			Str("ip", device.IPAddress).
			Msg("metrics refresh failed")
		s.count(device.Protocol, refreshFailure)
		return false
	}

	updated := *device
	updated.SetMetrics(cpu, mem, s.now().UTC())
	saved, err := s.repo.Save(ctx, &updated)
	if err != nil {
		s.log.Error().Err(err).Str("device_id", device.ID).Msg("failed to persist refreshed metrics")
		s.count(device.Protocol, refreshFailure)
		return false
	}

	*device = *saved
	s.count(device.Protocol, refreshSuccess)

	s.history.Record(device.ID, domain.MetricSample{
		Timestamp:   *device.MetricsUpdatedAt,
		CPUUsage:    device.CPUUsage,
		MemoryUsage: device.MemoryUsage,
	})
	s.eventBus.Publish(Event{Type: EventMetricsRefreshed, Payload: device})

	s.log.Debug().
		Str("device_id", device.ID).
		Float64("cpu", device.CPUUsage).
		Float64("memory", device.MemoryUsage).
		Msg("metrics refreshed")
	return true
}

// RefreshInterface reads the operational status of the first interface of
// an SNMP device and stores Up or Down. Non-SNMP devices are left alone.
func (s *MetricsService) RefreshInterface(ctx context.Context, device *domain.Device) bool {
	if device == nil || device.Protocol != domain.ProtocolSNMP {
		return false
	}

	values, err := s.timedQuery(ctx, device.IPAddress, []string{adapter.OIDIfOperStatus})
	if err != nil {
		s.log.Warn().Err(err).Str("device_id", device.ID).Msg("interface status query failed")
		return false
	}

	status := domain.InterfaceDown
	if v, ok := adapter.ToFloat(values[adapter.OIDIfOperStatus]); ok && v == 1 {
		status = domain.InterfaceUp
	}

	updated := *device
	updated.InterfaceStatus = status
	saved, err := s.repo.Save(ctx, &updated)
	if err != nil {
		s.log.Error().Err(err).Str("device_id", device.ID).Msg("failed to persist interface status")
		return false
	}

	*device = *saved
	return true
}

// querySNMP reads processor load and storage used. Storage is reported in
// allocation units and scaled down by 1024.
func (s *MetricsService) querySNMP(ctx context.Context, address string) (float64, float64, error) {
	values, err := s.timedQuery(ctx, address, []string{adapter.OIDProcessorLoad, adapter.OIDStorageUsed})
	if err != nil {
		return 0, 0, err
	}

	cpu, ok := adapter.ToFloat(values[adapter.OIDProcessorLoad])
	if !ok {
		return 0, 0, fmt.Errorf("%w: missing processor load", adapter.ErrSNMPResponse)
	}
	used, ok := adapter.ToFloat(values[adapter.OIDStorageUsed])
	if !ok {
		return 0, 0, fmt.Errorf("%w: missing storage used", adapter.ErrSNMPResponse)
	}

	return cpu, used / 1024, nil
}

func (s *MetricsService) timedQuery(ctx context.Context, address string, oids []string) (map[string]any, error) {
	if s.snmp == nil {
		return nil, fmt.Errorf("%w: no client configured", adapter.ErrSNMPTransport)
	}

	start := time.Now()
	values, err := s.snmp.Query(ctx, address, oids)

	result := refreshSuccess
	if err != nil {
		result = refreshFailure
	}
	metrics.SNMPQueryDuration.With(prometheus.Labels{"result": result}).Observe(time.Since(start).Seconds())

	return values, err
}

func (s *MetricsService) count(protocol domain.Protocol, result string) {
	metrics.RefreshTotal.With(
		prometheus.Labels{
			"protocol": string(protocol),
			"result":   result,
		},
	).Inc()
}
