// Package logger builds the process-wide zap logger.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New. File is optional; when set, JSON logs are also
// written to a size-rotated file.
type Options struct {
	Level       string
	Development bool
	File        string
	MaxSizeMB   int
	MaxBackups  int
	MaxAgeDays  int
}

func New(opts Options) (*zap.Logger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var encCfg zapcore.EncoderConfig
	var consoleEnc zapcore.Encoder
	if opts.Development {
		encCfg = zap.NewDevelopmentEncoderConfig()
		consoleEnc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		consoleEnc = zapcore.NewJSONEncoder(encCfg)
	}

	cores := []zapcore.Core{zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stderr), level)}
	if opts.File != "" {
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig()), zapcore.AddSync(rotatingFile(opts)), level))
	}

	zopts := []zap.Option{zap.AddCaller()}
	if opts.Development {
		zopts = append(zopts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	} else {
		zopts = append(zopts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return zap.New(zapcore.NewTee(cores...), zopts...), nil
}

func rotatingFile(opts Options) *lumberjack.Logger {
	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 100
	}
	return &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    maxSize,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
}

func fileEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func parseLevel(raw string) (zap.AtomicLevel, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return zap.NewAtomicLevelAt(zapcore.InfoLevel), nil
	}
	level, err := zap.ParseAtomicLevel(strings.ToLower(raw))
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("parse log level %q: %w", raw, err)
	}
	return level, nil
}
