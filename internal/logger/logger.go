package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// Init installs the global zap logger. Production environments get JSON
// output with sampling, everything else the development console format.
func Init(environment string) error {
	var (
		logger *zap.Logger
		err    error
	)

	switch environment {
	case "production":
		logger, err = zap.NewProduction()
	default:
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return fmt.Errorf("zap.New -> %w", err)
	}

	zap.ReplaceGlobals(logger)

	return nil
}
