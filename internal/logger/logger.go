// Package logger builds the zap logger used by the tortoise command.
package logger

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level returns the configured level lowered by one step per -v flag,
// never going below debug.
func Level(configured string, verbosity int) (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(configured)
	if err != nil {
		return zapcore.InfoLevel, errors.Wrapf(err, "invalid log level %q", configured)
	}
	level -= zapcore.Level(verbosity)
	if level < zapcore.DebugLevel {
		level = zapcore.DebugLevel
	}
	return level, nil
}

// New builds a console or JSON logger writing to stderr so that command
// output on stdout stays clean.
func New(json bool, configured string, verbosity int) (*zap.Logger, error) {
	return NewWithWriter(os.Stderr, json, configured, verbosity)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, json bool, configured string, verbosity int) (*zap.Logger, error) {
	level, err := Level(configured, verbosity)
	if err != nil {
		return nil, err
	}

	var encoder zapcore.Encoder
	if json {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		encoder = zapcore.NewConsoleEncoder(minimalEncoderConfig())
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	return zap.New(core), nil
}

// minimalEncoderConfig drops timestamps and callers for terminal use.
func minimalEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = ""
	cfg.CallerKey = ""
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}
