package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger writes console logs to stdout and ./logs/app.log in development
// and JSON to stdout otherwise.
func NewLogger(level string, development bool) *zap.Logger {
	atomicLevel := zap.NewAtomicLevelAt(zap.InfoLevel)
	if err := atomicLevel.UnmarshalText([]byte(level)); err != nil {
		atomicLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	cfg := zap.Config{
		Encoding:         "json",
		Level:            atomicLevel,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    zap.NewProductionEncoderConfig(),
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if development {
		cfg.Encoding = "console"
		if err := os.MkdirAll("./logs", 0o755); err == nil {
			cfg.OutputPaths = append(cfg.OutputPaths, "./logs/app.log")
		}
	}

	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return l
}
