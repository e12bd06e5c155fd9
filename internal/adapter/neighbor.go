package adapter

import (
	"context"
	"strings"

	"netdash/internal/domain"
)

const dynamicMarker = "dynamic"

// NeighborScanner lists the link-layer neighbor table as (IP, MAC) pairs
type NeighborScanner interface {
	Scan(ctx context.Context) ([]domain.Neighbor, error)
}

// NewNeighborScanner returns the scanner for the given platform
func NewNeighborScanner(platform Platform, runner Runner) NeighborScanner {
	switch platform {
	case PlatformWindows:
		return &commandScanner{runner: runner, name: "arp", args: []string{"-a"}, parse: ParseNeighborTable}
	case PlatformLinux:
		return &commandScanner{runner: runner, name: "ip", args: []string{"neigh", "show"}, parse: ParseIPNeigh}
	case PlatformDarwin:
		return &commandScanner{runner: runner, name: "arp", args: []string{"-an"}, parse: ParseDarwinARP}
	default:
		return unsupportedScanner{}
	}
}

// ParseNeighborTable parses `arp -a` output. A line is a candidate only when
// it contains "dynamic" and a dot; its first token is the IP and its second
// the MAC. Lines with fewer than two tokens are skipped. Input order is kept
// and duplicates are not removed.
func ParseNeighborTable(lines []string) []domain.Neighbor {
	var neighbors []domain.Neighbor
	for _, line := range lines {
		if !strings.Contains(line, dynamicMarker) || !strings.Contains(line, ".") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		neighbors = append(neighbors, domain.Neighbor{IP: fields[0], MAC: fields[1]})
	}
	return neighbors
}

// dynamic neighbor states in `ip neigh` output
var ipNeighStates = map[string]bool{
	"REACHABLE": true,
	"STALE":     true,
	"DELAY":     true,
	"PROBE":     true,
}

// ParseIPNeigh parses Linux `ip neigh show` output, e.g.
//
//	192.168.1.10 dev eth0 lladdr aa:bb:cc:dd:ee:01 REACHABLE
//
// Only IPv4 entries in a learned state with a link-layer address are kept.
func ParseIPNeigh(lines []string) []domain.Neighbor {
	var neighbors []domain.Neighbor
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 || !ipv4Pattern.MatchString(fields[0]) {
			continue
		}
		if !ipNeighStates[fields[len(fields)-1]] {
			continue
		}
		mac := ""
		for i := 1; i < len(fields)-1; i++ {
			if fields[i] == "lladdr" {
				mac = fields[i+1]
				break
			}
		}
		if mac == "" {
			continue
		}
		neighbors = append(neighbors, domain.Neighbor{IP: fields[0], MAC: mac})
	}
	return neighbors
}

// ParseDarwinARP parses BSD `arp -an` output, e.g.
//
//	? (192.168.1.10) at aa:bb:cc:dd:ee:1 on en0 ifscope [ethernet]
//
// Incomplete and permanent entries are skipped.
func ParseDarwinARP(lines []string) []domain.Neighbor {
	var neighbors []domain.Neighbor
	for _, line := range lines {
		if strings.Contains(line, "permanent") || strings.Contains(line, "incomplete") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[2] != "at" {
			continue
		}
		ip := strings.Trim(fields[1], "()")
		if !ipv4Pattern.MatchString(ip) {
			continue
		}
		neighbors = append(neighbors, domain.Neighbor{IP: ip, MAC: fields[3]})
	}
	return neighbors
}

type commandScanner struct {
	runner Runner
	name   string
	args   []string
	parse  func([]string) []domain.Neighbor
}

func (s *commandScanner) Scan(ctx context.Context) ([]domain.Neighbor, error) {
	lines, err := s.runner.Run(ctx, s.name, s.args...)
	if err != nil {
		return nil, err
	}
	return s.parse(lines), nil
}

type unsupportedScanner struct{}

func (unsupportedScanner) Scan(context.Context) ([]domain.Neighbor, error) {
	return nil, nil
}
