package domain

import (
	"errors"
	"fmt"
	"time"
)

// DeviceType represents the category of a managed device
type DeviceType string

const (
	DeviceTypePeripheral DeviceType = "peripheral"
	DeviceTypeRouter     DeviceType = "router"
	DeviceTypeNetwork    DeviceType = "network"
	DeviceTypeOther      DeviceType = "other"
)

// Protocol names the management protocol used to refresh a device
type Protocol string

const (
	ProtocolNone    Protocol = ""
	ProtocolSNMP    Protocol = "SNMP"
	ProtocolNETCONF Protocol = "NETCONF"
)

// Well-known lifecycle states. Status is free text; these are the values
// the discovery and configuration paths write.
const (
	StatusOnline     = "Online"
	StatusConnected  = "Connected"
	StatusConfigured = "Configured"
)

// Interface operational states
const (
	InterfaceUp   = "Up"
	InterfaceDown = "Down"
)

const (
	// GatewayID is the fixed identifier of the singleton local gateway row
	GatewayID = "local-router"
	// GatewayName is the display name given to the local gateway
	GatewayName = "Local Router"
	// AddressNotApplicable is the address recorded for non-network devices
	AddressNotApplicable = "N/A"
)

var (
	// ErrDeviceNotFound is returned when a device id has no persisted row
	ErrDeviceNotFound = errors.New("device not found")
	// ErrInvalidDevice is returned when a device fails validation
	ErrInvalidDevice = errors.New("invalid device")
)

// Device is a peripheral, router or network neighbor tracked by the dashboard
type Device struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	IPAddress       string     `json:"ip_address"`
	Type            DeviceType `json:"type"`
	Status          string     `json:"status"`
	CPUUsage        float64    `json:"cpu_usage"`
	MemoryUsage     float64    `json:"memory_usage"`
	CreatedAt       time.Time  `json:"created_at"`
	MACAddress      string     `json:"mac_address,omitempty"`
	InterfaceStatus string     `json:"interface_status,omitempty"`
	Protocol        Protocol   `json:"protocol,omitempty"`

	// MetricsUpdatedAt is stamped only when a refresh actually produced values
	MetricsUpdatedAt *time.Time `json:"metrics_updated_at,omitempty"`
	// LastSeen is the time of the last discovery pass that observed the device
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

// NewDevice creates a device with the creation timestamp set
func NewDevice(id, name, ip string, deviceType DeviceType, status string) *Device {
	return &Device{
		ID:        id,
		Name:      name,
		IPAddress: ip,
		Type:      deviceType,
		Status:    status,
		CreatedAt: time.Now(),
	}
}

// NetworkDeviceName returns the display name given to a discovered neighbor
func NetworkDeviceName(ip string) string {
	return "Network Device - " + ip
}

// IsGateway reports whether the device is the singleton local gateway row
func (d *Device) IsGateway() bool {
	return d.ID == GatewayID
}

// HasAddress reports whether the device carries a usable network address
func (d *Device) HasAddress() bool {
	return d.IPAddress != "" && d.IPAddress != AddressNotApplicable
}

// SetMetrics records a CPU/memory sample and stamps its freshness
func (d *Device) SetMetrics(cpu, memory float64, at time.Time) {
	d.CPUUsage = cpu
	d.MemoryUsage = memory
	d.MetricsUpdatedAt = &at
}

// MarkSeen records that discovery observed the device
func (d *Device) MarkSeen(at time.Time) {
	d.LastSeen = &at
}

// Validate checks the fields required for a user-created device
func (d *Device) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDevice)
	}
	if d.IPAddress == "" {
		return fmt.Errorf("%w: ip_address is required", ErrInvalidDevice)
	}
	return nil
}

// Peripheral is a locally attached piece of hardware reported by the OS
type Peripheral struct {
	Name string `json:"name"`
}

// Neighbor is an IP/MAC pair learned from the link-layer neighbor table
type Neighbor struct {
	IP  string `json:"ip"`
	MAC string `json:"mac"`
}

// MetricSample is one entry of a device's rolling metrics window
type MetricSample struct {
	Timestamp   time.Time `json:"timestamp"`
	CPUUsage    float64   `json:"cpu_usage"`
	MemoryUsage float64   `json:"memory_usage"`
}
