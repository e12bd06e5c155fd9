// Package logger provides structured logging using zerolog.
//
// Components receive a Logger at construction time instead of reaching for
// a global, which keeps tests quiet through NewTestLogger.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls log level and output
type Config struct {
	Level      string `yaml:"level"`
	Debug      bool   `yaml:"debug"`
	Output     string `yaml:"output"` // stdout, stderr
	Format     string `yaml:"format"` // json, console
	TimeFormat string `yaml:"time_format"`
}

// Logger is the logging collaborator handed to every component
type Logger interface {
	Trace() *zerolog.Event
	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
	Fatal() *zerolog.Event
	With() zerolog.Context
	WithComponent(component string) Logger
	SetLevel(level zerolog.Level)
	SetDebug(debug bool)
}

type zeroLogger struct {
	logger zerolog.Logger
}

// New builds a Logger from config
func New(config Config) (Logger, error) {
	var output io.Writer = os.Stdout
	if config.Output == "stderr" {
		output = os.Stderr
	}

	return NewWithWriter(config, output)
}

// NewWithWriter builds a Logger that writes to w
func NewWithWriter(config Config, w io.Writer) (Logger, error) {
	level := zerolog.InfoLevel
	if config.Debug {
		level = zerolog.DebugLevel
	} else if config.Level != "" {
		var err error

		level, err = zerolog.ParseLevel(config.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", config.Level, err)
		}
	}

	timeFormat := time.RFC3339
	if config.TimeFormat != "" {
		timeFormat = config.TimeFormat
	}

	if config.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: timeFormat}
	} else {
		zerolog.TimeFieldFormat = timeFormat
	}

	zl := zerolog.New(w).Level(level).With().Timestamp().Logger()

	return &zeroLogger{logger: zl}, nil
}

// NewTestLogger creates a no-op logger for testing that discards all output
func NewTestLogger() Logger {
	return &zeroLogger{logger: zerolog.New(io.Discard).Level(zerolog.Disabled)}
}

func (l *zeroLogger) Trace() *zerolog.Event { return l.logger.Trace() }
func (l *zeroLogger) Debug() *zerolog.Event { return l.logger.Debug() }
func (l *zeroLogger) Info() *zerolog.Event  { return l.logger.Info() }
func (l *zeroLogger) Warn() *zerolog.Event  { return l.logger.Warn() }
func (l *zeroLogger) Error() *zerolog.Event { return l.logger.Error() }
func (l *zeroLogger) Fatal() *zerolog.Event { return l.logger.Fatal() }
func (l *zeroLogger) With() zerolog.Context { return l.logger.With() }

// WithComponent returns a child logger tagged with the component name
func (l *zeroLogger) WithComponent(component string) Logger {
	return &zeroLogger{logger: l.logger.With().Str("component", component).Logger()}
}

func (l *zeroLogger) SetLevel(level zerolog.Level) {
	l.logger = l.logger.Level(level)
}

func (l *zeroLogger) SetDebug(debug bool) {
	if debug {
		l.SetLevel(zerolog.DebugLevel)
	} else {
		l.SetLevel(zerolog.InfoLevel)
	}
}
