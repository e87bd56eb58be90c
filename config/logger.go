package config

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the logger for the mode: human readable in development,
// JSON in production and silent in test. A log file, when set, receives a JSON
// copy of every entry and is rotated by size.
func NewLogger(c *Config) (*zap.Logger, error) {
	if c.Mode == Test {
		return zap.NewNop(), nil
	}

	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}

	var encoder zapcore.Encoder
	if c.Mode == Development {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(ec)
	} else {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level),
	}

	if c.Log.File != "" {
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   c.Log.File,
			MaxSize:    c.Log.MaxSize,
			MaxBackups: c.Log.MaxBackups,
			MaxAge:     c.Log.MaxAge,
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			writer,
			level,
		))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	if c.Mode == Development {
		logger = logger.WithOptions(zap.Development())
	}

	return logger.With(
		zap.String("version", c.Version),
		zap.String("environment", c.Environment),
	), nil
}
