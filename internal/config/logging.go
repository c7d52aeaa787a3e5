package config

import "tablechat/internal/logging"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	File   string `yaml:"file"`   // empty logs to stderr
}

// Options converts the section into logging.Initialize options.
func (c LoggingConfig) Options() logging.Options {
	return logging.Options{Level: c.Level, Format: c.Format, File: c.File}
}
