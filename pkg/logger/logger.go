package logger

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"projecthub/pkg/trace"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger() *zap.Logger {
	l, err := buildConfig(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT")).Build()
	if err != nil {
		panic(err)
	}
	return l
}

// buildConfig defaults to production JSON at info. "console" switches to the
// human readable development encoder; unknown levels are ignored.
func buildConfig(level, format string) zap.Config {
	cfg := zap.NewProductionConfig()
	if strings.EqualFold(format, "console") {
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if level != "" {
		if lvl, err := zapcore.ParseLevel(level); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}
	}
	return cfg
}

// WithTrace attaches the trace_id carried by ctx, if any.
func WithTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if traceID := trace.FromContext(ctx); traceID != "" {
		return logger.With(zap.String("trace_id", traceID))
	}
	return logger
}
