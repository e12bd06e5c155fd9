package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run one discovery pass and print the devices found as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDiscover(orBackground(cmd.Context()))
	},
}

func runDiscover(ctx context.Context) error {
	cfg, log, err := setup(true)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	devices, err := a.discovery.Discover(ctx)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(devices); encErr != nil {
		return encErr
	}
	return err
}
