package adapter

import (
	"context"
	"strings"

	"netdash/internal/domain"
)

// PeripheralLister enumerates locally attached hardware (USB and similar)
type PeripheralLister interface {
	ListAttachedPeripherals(ctx context.Context) ([]domain.Peripheral, error)
}

// NewPeripheralLister returns the inventory source for the given platform
func NewPeripheralLister(platform Platform, runner Runner) PeripheralLister {
	switch platform {
	case PlatformLinux:
		return &lsusbLister{runner: runner}
	case PlatformWindows:
		return &pnpLister{runner: runner}
	default:
		return noPeripherals{}
	}
}

// ParseLSUSB parses `lsusb` output lines of the form
//
//	Bus 001 Device 003: ID 046d:c52b Logitech, Inc. Unifying Receiver
//
// returning the product description. Lines without a description fall back
// to the vendor:product id.
func ParseLSUSB(lines []string) []domain.Peripheral {
	var peripherals []domain.Peripheral
	for _, line := range lines {
		_, rest, found := strings.Cut(line, " ID ")
		if !found {
			continue
		}
		id, name, _ := strings.Cut(strings.TrimSpace(rest), " ")
		name = strings.TrimSpace(name)
		if name == "" {
			name = id
		}
		if name == "" {
			continue
		}
		peripherals = append(peripherals, domain.Peripheral{Name: name})
	}
	return peripherals
}

// ParsePnPDevices parses one friendly name per line as printed by
// Get-PnpDevice | Select-Object -ExpandProperty FriendlyName
func ParsePnPDevices(lines []string) []domain.Peripheral {
	var peripherals []domain.Peripheral
	for _, line := range lines {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		peripherals = append(peripherals, domain.Peripheral{Name: name})
	}
	return peripherals
}

type lsusbLister struct {
	runner Runner
}

func (l *lsusbLister) ListAttachedPeripherals(ctx context.Context) ([]domain.Peripheral, error) {
	lines, err := l.runner.Run(ctx, "lsusb")
	if err != nil {
		return nil, err
	}
	return ParseLSUSB(lines), nil
}

type pnpLister struct {
	runner Runner
}

func (l *pnpLister) ListAttachedPeripherals(ctx context.Context) ([]domain.Peripheral, error) {
	lines, err := l.runner.Run(ctx, "powershell", "-NoProfile", "-Command",
		"Get-PnpDevice -PresentOnly -Class USB | Select-Object -ExpandProperty FriendlyName")
	if err != nil {
		return nil, err
	}
	return ParsePnPDevices(lines), nil
}

type noPeripherals struct{}

func (noPeripherals) ListAttachedPeripherals(context.Context) ([]domain.Peripheral, error) {
	return nil, nil
}
