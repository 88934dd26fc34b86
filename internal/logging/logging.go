// Package logging builds the zap logger used across the storefront.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns a logger for level ("debug", "info", ...) and format ("json" or
// "console").
func New(level, format string) (*zap.Logger, error) {
	var cfg zap.Config
	switch format {
	case "console":
		cfg = zap.NewDevelopmentConfig()
	case "json", "":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	cfg.Level = lvl

	return cfg.Build()
}
