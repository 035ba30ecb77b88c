package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

var (
	defaultMu      sync.RWMutex
	defaultLevel   = zerolog.InfoLevel
	defaultConsole bool
)

// Configure sets the level and format ("json" or "console") used by loggers
// created afterwards. APP_ENV and LOG_LEVEL still take precedence.
func Configure(level, format string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	switch format {
	case "", "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	defaultMu.Lock()
	defaultLevel = lvl
	defaultConsole = format == "console"
	defaultMu.Unlock()
	return nil
}

// NewZerologLogger creates a ZerologLogger writing to stderr so that command
// output on stdout stays machine readable. APP_ENV=dev selects a console
// writer; LOG_LEVEL sets the minimum level. All logs include the provided
// component field.
func NewZerologLogger(component string) Logger {
	return NewZerologLoggerTo(os.Stderr, component)
}

// NewZerologLoggerTo is like NewZerologLogger but writes to w.
func NewZerologLoggerTo(w io.Writer, component string) Logger {
	defaultMu.RLock()
	level, console := defaultLevel, defaultConsole
	defaultMu.RUnlock()

	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		console = true
	}
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	if env, err := zerolog.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL"))); err == nil && env != zerolog.NoLevel {
		level = env
	}
	z := zerolog.New(w).Level(level).With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	l.log.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Infow(msg string, fields map[string]any) {
	l.log.Info().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
