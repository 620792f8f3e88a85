// Package logging constructs the process-wide zap logger and provides
// sanitization helpers for values that may carry credentials.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds a zap logger for the given environment: human-readable
// development output for "local", JSON production output otherwise.
func New(env string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "local" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
