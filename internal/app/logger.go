package app

import "github.com/eirikhm/tripfellows/pkg/logger"

// ConfigureLogging initialises the global logger from configuration.
func ConfigureLogging(level string) error {
	return logger.Init(level)
}
