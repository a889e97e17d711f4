// Package logger provides the process-wide zerolog initialization.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// InitLog sets the global time format and returns a timestamping stderr logger.
func InitLog() *zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	Logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	return &Logger
}
