// Package logging configures the global zerolog logger for the binaries.
package logging

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/garagedesk/internal/config"
)

// Setup installs a global logger writing to w in the configured format and
// sets the global level.
func Setup(cfg config.LogConfig, w io.Writer) {
	zerolog.SetGlobalLevel(cfg.ZerologLevel())

	if cfg.Format == "json" {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
}
