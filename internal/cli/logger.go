package cli

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// NewLogger builds the client logger. Output goes to w, prefixed "tada".
func NewLogger(w io.Writer, level string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLogLevel(level),
		Formatter:       log.TextFormatter,
		ReportTimestamp: true,
		Prefix:          "tada",
	})
}

// ParseLogLevel maps a config string to a log level; unknown means info.
func ParseLogLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
