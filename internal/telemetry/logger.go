package telemetry

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger writes one JSON object per line. Event names are dotted
// ("engine.room_completed") and extra fields are attached as keys.
type Logger struct {
	zl zerolog.Logger
	c  io.Closer
}

// New opens path for writing. An empty path discards everything.
func New(path string, level string) (*Logger, error) {
	if path == "" {
		return Nop(), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	l := NewWriter(f, level)
	l.c = f
	return l, nil
}

func NewWriter(w io.Writer, level string) *Logger {
	zl := zerolog.New(w).With().Timestamp().Logger().Level(ParseLevel(level))
	return &Logger{zl: zl}
}

func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// ParseLevel falls back to info for empty or unknown values.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) Debug(msg string, fields map[string]any) {
	l.log(zerolog.DebugLevel, msg, fields)
}

func (l *Logger) Info(msg string, fields map[string]any) {
	l.log(zerolog.InfoLevel, msg, fields)
}

func (l *Logger) Warn(msg string, fields map[string]any) {
	l.log(zerolog.WarnLevel, msg, fields)
}

func (l *Logger) Error(msg string, fields map[string]any) {
	l.log(zerolog.ErrorLevel, msg, fields)
}

func (l *Logger) log(level zerolog.Level, msg string, fields map[string]any) {
	if l == nil {
		return
	}
	ev := l.zl.WithLevel(level)
	if ev == nil {
		return
	}
	for k, v := range fields {
		if err, ok := v.(error); ok {
			ev = ev.AnErr(k, err)
			continue
		}
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (l *Logger) Close() error {
	if l == nil || l.c == nil {
		return nil
	}
	return l.c.Close()
}
