// Package steplog writes the diagnostic step log: one timestamped line per
// scenario step, plus raw page snapshots, appended to a plain-text file.
package steplog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

type Log struct {
	z       *zap.Logger
	console *zap.Logger
	out     zapcore.WriteSyncer
	closer  io.Closer
}

// Open appends to the file at path, creating it and its directory if needed.
func Open(path string, console *zap.Logger) (*Log, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	l := New(f, console)
	l.closer = f
	return l, nil
}

// New writes step lines to w. console, when non-nil, also receives each
// step at debug level.
func New(w io.Writer, console *zap.Logger) *Log {
	out := zapcore.Lock(zapcore.AddSync(w))
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "ts",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       utcTime,
		ConsoleSeparator: " - ",
	})
	core := zapcore.NewCore(enc, out, zapcore.DebugLevel)
	if console == nil {
		console = zap.NewNop()
	}
	return &Log{z: zap.New(core), console: console, out: out}
}

// Nop discards everything.
func Nop() *Log { return New(io.Discard, nil) }

func utcTime(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(timeLayout))
}

// Step records one line.
func (l *Log) Step(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.z.Info(msg)
	l.console.Debug(msg)
}

// Snapshot appends raw page HTML under label without a timestamp.
func (l *Log) Snapshot(label, html string) {
	_, _ = fmt.Fprintf(l.out, "\n%s:\n%s\n", label, html)
}

func (l *Log) Close() error {
	_ = l.z.Sync()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
