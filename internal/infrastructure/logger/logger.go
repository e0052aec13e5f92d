package logger

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/OctavianTocan/ai-nexus/internal/config"
)

var (
	global     zerolog.Logger
	globalOnce sync.Once
	globalMu   sync.RWMutex
)

// New creates a zerolog.Logger configured for the chat service and installs it as the global logger.
func New(cfg *config.Config) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	base := log.Output(output).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Logger().
		Level(parseLevel(cfg.LogLevel))

	SetLogger(base)
	SetSanitizer(NewSanitizer(PIILevel(strings.ToLower(cfg.LogPIILevel)), cfg.ServiceName))
	return base
}

// SetLogger replaces the logger returned by GetLogger.
func SetLogger(l zerolog.Logger) {
	globalOnce.Do(func() {})
	globalMu.Lock()
	global = l
	globalMu.Unlock()
}

// GetLogger returns the process wide logger for code without an injected one.
func GetLogger() zerolog.Logger {
	globalOnce.Do(func() {
		global = zerolog.New(os.Stdout).With().Timestamp().Logger()
	})
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
