package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger configures the global logger. Output goes to a console writer
// on stderr and, when logFile is set, to that file as JSON lines. The returned
// closer releases the log file.
func SetupLogger(level, logFile string) (io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(lvl)

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
	}

	writers := []io.Writer{consoleWriter}
	var closer io.Closer = nopCloser{}

	if logFile != "" {
		f, err := openLogFile(logFile)
		if err != nil {
			log.Logger = zerolog.New(consoleWriter).With().Timestamp().Logger()
			log.Warn().Err(err).Str("path", logFile).Msg("Failed to open log file, logging to console only")
			return closer, nil
		}
		writers = append(writers, f)
		closer = f
	}

	log.Logger = zerolog.New(io.MultiWriter(writers...)).With().Timestamp().Logger()
	if lvl <= zerolog.DebugLevel {
		log.Logger = log.Logger.With().Caller().Logger()
	}

	log.Debug().Str("level", lvl.String()).Str("logFile", logFile).Msg("Logger initialized")
	return closer, nil
}

// ParseLevel accepts zerolog level names; the empty string means warn.
func ParseLevel(level string) (zerolog.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return zerolog.WarnLevel, nil
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// VerbosityLevel maps repeated -v flags onto a level, starting from base.
func VerbosityLevel(base string, verbosity int) string {
	switch {
	case verbosity <= 0:
		return base
	case verbosity == 1:
		return zerolog.InfoLevel.String()
	case verbosity == 2:
		return zerolog.DebugLevel.String()
	default:
		return zerolog.TraceLevel.String()
	}
}

// GetLogger returns a logger tagged with the given component name.
func GetLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// LogCommand logs an external command invocation.
func LogCommand(logger zerolog.Logger, cmd string, args []string) {
	logger.Debug().
		Str("command", cmd).
		Strs("args", args).
		Msg("Executing command")
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
