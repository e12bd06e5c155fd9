package adapter

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"

	"netdash/internal/domain"
	"netdash/internal/logger"
)

// SweepOption is a functional option for configuring NeighborSweep
type SweepOption func(*NeighborSweep)

// WithSweepTimeout sets the timeout for the entire nmap run
func WithSweepTimeout(d time.Duration) SweepOption {
	return func(s *NeighborSweep) {
		s.timeout = d
	}
}

// WithSweepPublisher sets the event publisher for progress updates
func WithSweepPublisher(pub EventPublisher) SweepOption {
	return func(s *NeighborSweep) {
		s.publisher = pub
	}
}

// NeighborSweep runs an nmap ping scan (-sn) across the configured targets.
// The scan populates the OS neighbor cache as a side effect, and on a local
// segment nmap also reports each live host's MAC address.
type NeighborSweep struct {
	targets   []string
	timeout   time.Duration
	publisher EventPublisher
	log       logger.Logger
}

// NewNeighborSweep creates a ping sweep over targets (CIDR ranges or single IPs)
func NewNeighborSweep(targets []string, log logger.Logger, opts ...SweepOption) (*NeighborSweep, error) {
	expanded, err := expandTargets(targets)
	if err != nil {
		return nil, err
	}

	s := &NeighborSweep{
		targets: expanded,
		timeout: 30 * time.Second,
		log:     log.WithComponent("sweep"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Targets returns the normalized target list
func (s *NeighborSweep) Targets() []string {
	return s.targets
}

// Sweep pings every target and returns the live hosts as neighbor pairs
func (s *NeighborSweep) Sweep(ctx context.Context) ([]domain.Neighbor, error) {
	if len(s.targets) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.publishProgress("sweep_started", map[string]interface{}{
		"targets": s.targets,
	})

	scanner, err := nmap.NewScanner(ctx,
		nmap.WithTargets(s.targets...),
		nmap.WithPingScan(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("ping sweep failed: %w", err)
	}
	if warnings != nil && len(*warnings) > 0 {
		s.log.Warn().Strs("warnings", *warnings).Msg("nmap reported warnings")
	}

	neighbors := NeighborsFromRun(result)

	s.publishProgress("sweep_complete", map[string]interface{}{
		"targets": s.targets,
		"hosts":   len(neighbors),
	})
	s.log.Info().Int("hosts", len(neighbors)).Msg("ping sweep complete")

	return neighbors, nil
}

func (s *NeighborSweep) publishProgress(eventType string, payload interface{}) {
	if s.publisher != nil {
		s.publisher.PublishDiscoveryEvent(eventType, payload)
	}
}

// NeighborsFromRun converts nmap results into neighbor pairs. Hosts that are
// not up or carry no IPv4 address are dropped; the MAC is empty when nmap
// did not see one (e.g. the scanning host itself or an off-link target).
func NeighborsFromRun(result *nmap.Run) []domain.Neighbor {
	if result == nil {
		return nil
	}

	var neighbors []domain.Neighbor
	for _, host := range result.Hosts {
		if host.Status.State != "up" {
			continue
		}

		var ip, mac string
		for _, addr := range host.Addresses {
			switch addr.AddrType {
			case "ipv4":
				if ip == "" {
					ip = addr.Addr
				}
			case "mac":
				mac = strings.ToLower(addr.Addr)
			}
		}
		if ip == "" {
			continue
		}

		neighbors = append(neighbors, domain.Neighbor{IP: ip, MAC: mac})
	}
	return neighbors
}

// expandTargets validates CIDR targets; nmap performs the actual expansion
func expandTargets(targets []string) ([]string, error) {
	var expanded []string
	for _, target := range targets {
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if strings.Contains(target, "/") {
			_, ipNet, err := net.ParseCIDR(target)
			if err != nil {
				return nil, fmt.Errorf("invalid CIDR %s: %w", target, err)
			}
			expanded = append(expanded, ipNet.String())
		} else {
			expanded = append(expanded, target)
		}
	}
	return expanded, nil
}
