package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"netdash/internal/config"
	"netdash/internal/logger"
)

var (
	configFile string
	logLevel   string
	dbPath     string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "netdash",
	Short:         "netdash discovers local network devices and tracks their metrics",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "configuration file (default searches $NETDASH_CONFIG, ./netdash.yaml, ~/.config/netdash)")

	rootCmd.PersistentFlags().
		StringVar(&logLevel, "log-level", "", "override the configured log level (trace, debug, info, warn, error)")

	rootCmd.PersistentFlags().
		StringVar(&dbPath, "db", "", "override the configured SQLite database path")

	rootCmd.AddCommand(serveCmd, discoverCmd)
}

// loadConfig loads the config file and applies command line overrides
func loadConfig() (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if configFile != "" {
		cfg, path, err = config.LoadFromPath(configFile)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, path, err
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	return cfg, path, nil
}

// setup loads configuration and builds the logger shared by all commands.
// Commands that print results on stdout log to stderr.
func setup(stdoutIsData bool) (*config.Config, logger.Logger, error) {
	cfg, path, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if stdoutIsData {
		cfg.Log.Output = "stderr"
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	if path == "" {
		log.Info().Msg("no config file found, using defaults")
	} else {
		log.Info().Str("path", path).Msg("config loaded")
	}
	log.Debug().Msg(cfg.Summary())

	return cfg, log, nil
}
