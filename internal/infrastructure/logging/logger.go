package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Name is the root logger name.
const Name = "mirrordeck"

// Logger wraps zap.Logger so the server can own a single root logger.
type Logger struct {
	*zap.Logger
}

// Config defines logger configuration.
type Config struct {
	Level       string // "debug", "info", "warn", "error"
	Development bool
	// File, when set, receives a copy of every line.
	File string
}

// New builds the root logger. Production mode writes JSON lines,
// development mode writes colored console lines with stack traces.
func New(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		if cfg.File == "" {
			zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
	} else {
		zc = zap.NewProductionConfig()
		zc.Sampling = nil
		zc.DisableStacktrace = true
		zc.EncoderConfig.TimeKey = "ts"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zc.EncoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	if cfg.File != "" {
		zc.OutputPaths = append(zc.OutputPaths, cfg.File)
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &Logger{Logger: logger.Named(Name)}, nil
}

// FromSettings builds the root logger from the LOG_* settings. When the
// settings cannot be honoured it falls back to stderr at info level, or
// debug in development mode.
func FromSettings(level string, development bool, file string) *Logger {
	logger, err := New(Config{Level: level, Development: development, File: file})
	if err == nil {
		return logger
	}

	fallback := Config{Level: "info", Development: development}
	if development {
		fallback.Level = "debug"
	}
	logger, ferr := New(fallback)
	if ferr != nil {
		return &Logger{Logger: zap.NewNop()}
	}
	logger.Warn("logging settings rejected, using defaults", zap.Error(err))
	return logger
}
