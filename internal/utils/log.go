package utils

import (
	"os"

	"github.com/lanzaboote/lanzatool/internal/constants"
	"github.com/rs/zerolog"
)

// Log is the logger shared by the commands and the menu builder.
var Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

// SetLogger configures Log. Debug output is enabled by the flag or by
// LANZATOOL_DEBUG being set.
func SetLogger(debug bool) {
	level := zerolog.InfoLevel

	debugFromEnv := os.Getenv(constants.EnvDebug) != ""
	if debug || debugFromEnv {
		level = zerolog.DebugLevel
	}

	Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(level)
}
