// Package logging builds the zap logger used across the pipeline.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls log output.
type Config struct {
	// Level is one of: debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is "console" or "json".
	Format string `koanf:"format"`
}

// DefaultConfig returns console logging at info level.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "console"}
}

// Validate checks the config fields.
func (c Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	switch strings.ToLower(c.Format) {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("invalid log format %q (want console or json)", c.Format)
	}
}

// New creates a zap logger from config.
func New(cfg Config) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, _ := zapcore.ParseLevel(cfg.Level)

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if strings.ToLower(cfg.Format) == "console" {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
	return zap.New(core), nil
}
