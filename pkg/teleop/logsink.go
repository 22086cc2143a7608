package teleop

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogSink is a zap write target that hands each log line to a channel, for
// display in a terminal UI. Lines are dropped when nobody keeps up.
type LogSink struct {
	lines chan string
}

// NewLogSink returns a sink buffering up to size lines.
func NewLogSink(size int) *LogSink {
	return &LogSink{lines: make(chan string, size)}
}

// Write implements io.Writer.
func (s *LogSink) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}
		select {
		case s.lines <- line:
		default:
			// Drop if channel full
		}
	}
	return len(p), nil
}

// Sync implements zapcore.WriteSyncer.
func (s *LogSink) Sync() error { return nil }

// Lines returns a channel that receives log lines.
func (s *LogSink) Lines() <-chan string {
	return s.lines
}

// Core returns a zap core writing short console lines into the sink.
func (s *LogSink) Core(level zapcore.LevelEnabler) zapcore.Core {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = "T"
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	enc.CallerKey = ""
	enc.StacktraceKey = ""
	return zapcore.NewCore(zapcore.NewConsoleEncoder(enc), s, level)
}
