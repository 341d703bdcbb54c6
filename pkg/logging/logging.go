// Package logging backs ectologger with a zap core.
package logging

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/Gobusters/ectologger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	ServiceName string
	Level       string
	// Pretty switches to zap's console encoder
	Pretty bool
}

// New builds the zap logger and an ectologger that writes through it. Sync the zap logger on shutdown.
func New(cfg Config) (ectologger.Logger, *zap.Logger, error) {
	level := ParseLevel(cfg.Level)

	zcfg := zap.NewProductionConfig()
	if cfg.Pretty {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.TimeKey = "timestamp"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.OutputPaths = []string{"stdout"}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	zl, err := zcfg.Build()
	if err != nil {
		return nil, nil, err
	}
	if cfg.ServiceName != "" {
		zl = zl.With(zap.String("service_name", cfg.ServiceName))
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		zl = zl.With(zap.String("hostname", hostname))
	}

	write := Sink(zl)
	return ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) { write(msg) }), zl, nil
}

func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "trace":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal", "panic":
		// never let a log line exit the process
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

// Sink writes a log message to zl. The message is read through its JSON form: the level and
// message keys pick the zap level and text, every other key becomes a field.
func Sink(zl *zap.Logger) func(msg any) {
	return func(msg any) {
		raw, err := json.Marshal(msg)
		if err != nil {
			zl.Warn("unencodable log message", zap.Error(err))
			return
		}

		var entry map[string]any
		if err := json.Unmarshal(raw, &entry); err != nil {
			zl.Info(string(raw))
			return
		}

		level := zapcore.InfoLevel
		text := ""
		fields := make([]zap.Field, 0, len(entry))
		for k, v := range entry {
			switch strings.ToLower(k) {
			case "level":
				if s, ok := v.(string); ok {
					level = ParseLevel(s)
				}
			case "message", "msg":
				if s, ok := v.(string); ok {
					text = s
				}
			case "time", "timestamp":
			default:
				if v != nil {
					fields = append(fields, zap.Any(k, v))
				}
			}
		}

		if ce := zl.Check(level, text); ce != nil {
			ce.Write(fields...)
		}
	}
}
