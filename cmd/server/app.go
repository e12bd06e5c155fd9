package main

import (
	"context"
	"fmt"

	"netdash/internal/adapter"
	"netdash/internal/config"
	"netdash/internal/logger"
	"netdash/internal/repository/sqlite"
	"netdash/internal/service"
)

// app holds the wired collaborators shared by serve and discover
type app struct {
	repo      *sqlite.Repository
	eventBus  *service.EventBus
	history   *service.History
	sim       *service.Simulator
	metrics   *service.MetricsService
	discovery *service.DiscoveryService
	devices   *service.DeviceService
}

func newApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*app, error) {
	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	log.Info().Str("path", cfg.Database.Path).Msg("database opened")

	platform := adapter.ParsePlatform(cfg.Discovery.Platform)
	if cfg.Discovery.Platform == "" {
		platform = adapter.DetectPlatform(ctx)
	}
	log.Info().Str("platform", string(platform)).Msg("platform selected")

	runner := adapter.NewExecRunner(cfg.Discovery.CommandTimeout.Duration())
	toolkit := adapter.NewToolkit(platform, runner)

	snmp := adapter.NewSNMPClient(adapter.SNMPConfig{
		Port:      cfg.SNMP.Port,
		Community: cfg.SNMP.Community,
		Timeout:   cfg.SNMP.Timeout.Duration(),
		Retries:   cfg.SNMP.Retries,
	})

	a := &app{
		repo:     repo,
		eventBus: service.NewEventBus(),
		history:  service.NewHistory(cfg.History.Size),
		sim:      service.NewSimulator(cfg.Simulation.Seed),
	}
	a.metrics = service.NewMetricsService(repo, snmp, a.sim, a.history, a.eventBus, log)
	a.devices = service.NewDeviceService(repo, a.metrics, a.sim, a.history, a.eventBus, log)

	opts := []service.DiscoveryOption{
		service.WithRefreshConcurrency(cfg.Discovery.RefreshConcurrency),
	}
	if cfg.Discovery.SkipPeripherals {
		opts = append(opts, service.WithoutPeripherals())
	}
	if cfg.Discovery.RefreshInterface {
		opts = append(opts, service.WithInterfaceRefresh())
	}
	if cfg.Discovery.Sweep.Enabled {
		sweep, err := adapter.NewNeighborSweep(cfg.Discovery.Sweep.Targets, log,
			adapter.WithSweepTimeout(cfg.Discovery.Sweep.Timeout.Duration()),
			adapter.WithSweepPublisher(a.eventBus),
		)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("failed to configure sweep: %w", err)
		}
		opts = append(opts, service.WithSweeper(sweep))
	}
	a.discovery = service.NewDiscoveryService(repo, toolkit, a.metrics, a.eventBus, log, opts...)

	return a, nil
}

func (a *app) Close() error {
	return a.repo.Close()
}
