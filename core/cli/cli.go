package cli

import (
	"github.com/hyperterse/hyperbench/core/cli/cmd"
	"github.com/hyperterse/hyperbench/core/logger"
)

// Execute runs the CLI
func Execute() error {
	defer func() { _ = logger.CloseLogFile() }()

	if err := cmd.Execute(); err != nil {
		logger.ErrorLogger(err).Error(err.Error())
		return err
	}
	return nil
}
