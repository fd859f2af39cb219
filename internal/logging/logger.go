// Package logging builds the zap logger shared by both services.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a logger that writes JSON to a rotated file at path and to
// stdout. Production mode logs JSON to the console too; development mode
// uses the colored console encoder. An empty path disables the file sink.
func New(path string, isProd bool) *zap.Logger {
	cores := []zapcore.Core{consoleCore(isProd)}
	if path != "" {
		cores = append(cores, fileCore(path))
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

func fileCore(path string) zapcore.Core {
	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	})
	return zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), writer, zap.InfoLevel)
}

func consoleCore(isProd bool) zapcore.Core {
	var encoder zapcore.Encoder
	if isProd {
		encoder = zapcore.NewJSONEncoder(encoderConfig())
	} else {
		devCfg := zap.NewDevelopmentEncoderConfig()
		devCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(devCfg)
	}

	level := zap.DebugLevel
	if isProd {
		level = zap.InfoLevel
	}
	return zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)
}
