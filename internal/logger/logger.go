package logger

import (
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu           sync.Mutex
	globalLogger zerolog.Logger
	configured   bool
)

// GetLogger returns the global logger instance
func GetLogger() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if !configured {
		// Default to console output with info level
		globalLogger = consoleLogger(os.Stdout).Level(zerolog.InfoLevel)
		configured = true
	}
	return globalLogger
}

// New constructs a zerolog logger based on level and format configuration
// and installs it as the global logger.
func New(level, format string) (zerolog.Logger, error) {
	return NewWithWriter(os.Stdout, level, format)
}

// NewWithWriter is New with an explicit destination. The chat client sends
// its logs to stderr so they do not interleave with the transcript.
func NewWithWriter(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Logger{}, err
	}

	var l zerolog.Logger
	switch strings.ToLower(format) {
	case "json":
		l = zerolog.New(w).With().Timestamp().Logger()
	case "console", "":
		l = consoleLogger(w)
	default:
		return zerolog.Logger{}, errors.New("unsupported log format")
	}

	zerolog.SetGlobalLevel(lvl)

	mu.Lock()
	globalLogger = l.Level(lvl)
	configured = true
	mu.Unlock()

	return l.Level(lvl), nil
}

func consoleLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
}
