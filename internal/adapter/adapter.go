package adapter

import (
	"context"

	"netdash/internal/domain"
)

// EventPublisher allows adapters to publish progress events
type EventPublisher interface {
	PublishDiscoveryEvent(eventType string, payload interface{})
}

// Sweeper actively probes target ranges for live neighbors. The result is
// merged with the passive neighbor table.
type Sweeper interface {
	Sweep(ctx context.Context) ([]domain.Neighbor, error)
}

// Toolkit bundles the platform-specific collaborators used by discovery
type Toolkit struct {
	Platform    Platform
	Gateway     GatewayResolver
	Neighbors   NeighborScanner
	Peripherals PeripheralLister
}

// NewToolkit selects every platform variant from a single platform tag
func NewToolkit(platform Platform, runner Runner) Toolkit {
	return Toolkit{
		Platform:    platform,
		Gateway:     NewGatewayResolver(platform, runner),
		Neighbors:   NewNeighborScanner(platform, runner),
		Peripherals: NewPeripheralLister(platform, runner),
	}
}
