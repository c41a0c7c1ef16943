// Package logging builds the root lager logger from configuration.
package logging

import (
	"io"

	"code.cloudfoundry.org/lager"

	"github.com/adamscao/lotcert/internal/config"
)

// New returns a logger writing to w at the configured level and format
func New(component string, cfg config.LoggingConfig, w io.Writer) lager.Logger {
	logger := lager.NewLogger(component)

	level := Level(cfg.Level)
	if cfg.Format == "text" {
		logger.RegisterSink(lager.NewPrettySink(w, level))
	} else {
		logger.RegisterSink(lager.NewWriterSink(w, level))
	}

	return logger
}

// Level maps a configured level name onto a lager level. Unknown names map to info.
func Level(name string) lager.LogLevel {
	switch name {
	case "debug":
		return lager.DEBUG
	case "error":
		return lager.ERROR
	case "fatal":
		return lager.FATAL
	default:
		return lager.INFO
	}
}
