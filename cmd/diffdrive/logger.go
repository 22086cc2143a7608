package main

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger builds the program logger. Extra cores are teed in, and
// --log-file adds a rotating JSON file. Without extra cores logs go to stderr.
func newLogger(extra ...zapcore.Core) *zap.SugaredLogger {
	level := logLevel()

	cores := extra
	if len(cores) == 0 {
		enc := zap.NewDevelopmentEncoderConfig()
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), level))
	}
	if opts.LogFile != "" {
		file := &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(file),
			level,
		))
	}
	return zap.New(zapcore.NewTee(cores...)).Sugar()
}

func logLevel() zapcore.Level {
	if opts.Verbose {
		return zap.DebugLevel
	}
	return zap.InfoLevel
}
