package config

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// CreateLogger builds a development logger when debug is set, either by the
// caller or the config, and a production logger otherwise.
func (c *Config) CreateLogger(debug bool) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error
	if debug || c.Logger.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}

	return logger, errors.Wrap(err, "create logger")
}
