package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Option tweaks the logger built by NewLogger.
type Option func(*options)

type options struct {
	level  string
	fields []zap.Field
}

// WithLevel overrides the environment's default level (debug, info, warn, error).
// An empty string keeps the default.
func WithLevel(level string) Option {
	return func(o *options) { o.level = level }
}

// WithFields attaches fields to every entry, e.g. service name and build version.
func WithFields(fields ...zap.Field) Option {
	return func(o *options) { o.fields = append(o.fields, fields...) }
}

// NewLogger creates a zap logger for the given environment.
// prod writes sampled JSON with ISO8601 timestamps, local/dev write colored console output.
func NewLogger(env string, opts ...Option) (*zap.Logger, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var cfg zap.Config
	switch env {
	case "prod":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "local", "dev":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown environment %q for logger", env)
	}

	if o.level != "" {
		level, err := zapcore.ParseLevel(o.level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", o.level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel), zap.Fields(o.fields...))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}
