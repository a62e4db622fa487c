// Package logger builds the process-wide zap logger.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// L is the process logger. It discards everything until Init is called.
var L = zap.NewNop()

// Formats
const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
)

// ParseLevel maps debug/info/warn/error to a zap level. Unknown values are info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds a logger writing to stderr
func New(level, format string) (*zap.Logger, error) {
	var cfg zap.Config

	switch resolveFormat(format) {
	case FormatJSON:
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cfg.DisableStacktrace = true
	}

	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return log, nil
}

// Init replaces L
func Init(level, format string) error {
	log, err := New(level, format)
	if err != nil {
		return err
	}
	L = log
	return nil
}

// Sync flushes L, ignoring the errors stderr returns on some platforms
func Sync() {
	_ = L.Sync()
}

func resolveFormat(format string) string {
	switch strings.ToLower(format) {
	case FormatJSON:
		return FormatJSON
	case FormatConsole:
		return FormatConsole
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return FormatConsole
	}
	return FormatJSON
}
