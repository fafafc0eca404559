// Package logging builds the zap logger shared by every command.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls logger construction.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level"`

	// Development switches to the console encoder with stack traces on warn.
	Development bool `mapstructure:"development" yaml:"development"`

	// File, when set, receives all log output instead of stderr. The TUI
	// sets it because the terminal belongs to the program.
	File string `mapstructure:"file" yaml:"file"`
}

// New returns a configured logger.
func New(cfg Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}

	if cfg.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		zc.OutputPaths = []string{cfg.File}
		zc.ErrorOutputPaths = []string{cfg.File}
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
