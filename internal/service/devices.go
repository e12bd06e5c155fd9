package service

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"netdash/internal/domain"
	"netdash/internal/logger"
	"netdash/internal/repository"
)

// ConfigPush is the configuration a user pushes to a device
type ConfigPush struct {
	Hostname    string `json:"hostname,omitempty"`
	InterfaceIP string `json:"interfaceIp,omitempty"`
}

// DeviceService provides the device operations behind the HTTP API
type DeviceService struct {
	repo     repository.DeviceRepository
	metrics  *MetricsService
	sim      *Simulator
	history  *History
	eventBus *EventBus
	log      logger.Logger
}

// NewDeviceService creates a new device service
func NewDeviceService(repo repository.DeviceRepository, metricsSvc *MetricsService, sim *Simulator, history *History, eventBus *EventBus, log logger.Logger) *DeviceService {
	return &DeviceService{
		repo:     repo,
		metrics:  metricsSvc,
		sim:      sim,
		history:  history,
		eventBus: eventBus,
		log:      log.WithComponent("devices"),
	}
}

// List returns all devices
func (s *DeviceService) List(ctx context.Context) ([]domain.Device, error) {
	return s.repo.FindAll(ctx)
}

// Get retrieves a single device by ID
func (s *DeviceService) Get(ctx context.Context, id string) (*domain.Device, error) {
	device, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrDeviceNotFound, id)
	}
	return device, nil
}

// Create stores a user-defined device under a new id
func (s *DeviceService) Create(ctx context.Context, device *domain.Device) (*domain.Device, error) {
	if err := device.Validate(); err != nil {
		return nil, err
	}

	device.ID = uuid.New().String()
	device.CreatedAt = time.Now()
	if device.Status == "" {
		device.Status = domain.StatusOnline
	}
	if device.Type == "" {
		device.Type = domain.DeviceTypeOther
	}
	device.MetricsUpdatedAt = nil
	device.LastSeen = nil

	saved, err := s.repo.Save(ctx, device)
	if err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	s.eventBus.Publish(Event{Type: EventDeviceCreated, Payload: saved})
	return saved, nil
}

// Update replaces the user-editable fields of a device. The id, creation
// time and metrics are kept.
func (s *DeviceService) Update(ctx context.Context, id string, changes *domain.Device) (*domain.Device, error) {
	device, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	device.Name = changes.Name
	device.IPAddress = changes.IPAddress
	if changes.Type != "" {
		device.Type = changes.Type
	}
	if changes.Status != "" {
		device.Status = changes.Status
	}
	device.MACAddress = changes.MACAddress
	device.InterfaceStatus = changes.InterfaceStatus
	device.Protocol = changes.Protocol

	if err := device.Validate(); err != nil {
		return nil, err
	}

	saved, err := s.repo.Save(ctx, device)
	if err != nil {
		return nil, fmt.Errorf("failed to update device: %w", err)
	}

	s.eventBus.Publish(Event{Type: EventDeviceUpdated, Payload: saved})
	return saved, nil
}

// Delete removes a device and its metrics window
func (s *DeviceService) Delete(ctx context.Context, id string) error {
	found, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", domain.ErrDeviceNotFound, id)
	}

	s.history.Forget(id)
	s.eventBus.Publish(Event{Type: EventDeviceDeleted, Payload: map[string]string{"id": id}})
	return nil
}

// Status returns the device with freshly simulated CPU and memory for live
// polling. The values are recorded in the metrics window but not persisted.
func (s *DeviceService) Status(ctx context.Context, id string) (*domain.Device, error) {
	device, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	cpu, mem := s.sim.Status()
	device.CPUUsage = cpu
	device.MemoryUsage = mem

	s.history.Record(id, domain.MetricSample{
		Timestamp:   time.Now().UTC(),
		CPUUsage:    cpu,
		MemoryUsage: mem,
	})
	return device, nil
}

// History returns the rolling metrics window of a device
func (s *DeviceService) History(ctx context.Context, id string) ([]domain.MetricSample, error) {
	exists, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrDeviceNotFound, id)
	}
	return s.history.Samples(id), nil
}

// PushConfig applies a hostname and interface address locally and marks the
// device as managed over NETCONF
func (s *DeviceService) PushConfig(ctx context.Context, id string, push ConfigPush) (*domain.Device, error) {
	if push.InterfaceIP != "" && net.ParseIP(push.InterfaceIP) == nil {
		return nil, fmt.Errorf("%w: invalid interfaceIp %q", domain.ErrInvalidDevice, push.InterfaceIP)
	}

	device, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if push.Hostname != "" {
		device.Name = push.Hostname
	}
	if push.InterfaceIP != "" {
		device.IPAddress = push.InterfaceIP
	}
	device.Protocol = domain.ProtocolNETCONF
	device.Status = domain.StatusConfigured

	saved, err := s.repo.Save(ctx, device)
	if err != nil {
		return nil, fmt.Errorf("failed to save configuration: %w", err)
	}

	s.log.Info().Str("device_id", id).Str("hostname", saved.Name).Msg("configuration applied")
	s.eventBus.Publish(Event{Type: EventDeviceUpdated, Payload: saved})
	return saved, nil
}

// Refresh runs a metrics refresh for a stored device. The bool reports
// whether new metrics were stored.
func (s *DeviceService) Refresh(ctx context.Context, id string) (*domain.Device, bool, error) {
	device, err := s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}

	ok := s.metrics.Refresh(ctx, device)
	return device, ok, nil
}
