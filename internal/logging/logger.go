package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// LevelSuccess sits between Info and Warn so success confirmations are never
// filtered out alongside debug chatter.
const LevelSuccess = slog.Level(2)

type Logger struct {
	debugEnabled atomic.Bool
	mu           sync.RWMutex
	out          io.Writer
	pretty       bool
	fileSink     *fileSink
	nextID       int
	subscribers  map[int]func(Event)
}

type Event struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Fields  map[string]any
}

func New(debug bool) *Logger {
	logger := &Logger{
		out:         os.Stderr,
		pretty:      shouldPrettyPrint(),
		subscribers: map[int]func(Event){},
	}
	logger.debugEnabled.Store(debug)
	return logger
}

func Field(key string, value any) slog.Attr {
	return slog.Any(key, value)
}

// SetOutput redirects terminal output to w using plain formatting.
// A nil writer disables terminal output.
func (l *Logger) SetOutput(w io.Writer) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.out = w
	l.pretty = false
	l.mu.Unlock()
}

func (l *Logger) SetDebugEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.debugEnabled.Store(enabled)
}

// EnableFilePersistence mirrors every event, including hidden debug events,
// to a JSONL file at path.
func (l *Logger) EnableFilePersistence(path string, maxBytes int64) error {
	if l == nil {
		return nil
	}
	sink, err := newFileSink(path, maxBytes)
	if err != nil {
		return err
	}
	l.mu.Lock()
	old := l.fileSink
	l.fileSink = sink
	l.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return nil
}

func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	sink := l.fileSink
	l.fileSink = nil
	l.mu.Unlock()
	return sink.Close()
}

func (l *Logger) Debugf(format string, args ...any) {
	l.Debug(fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(msg string, fields ...slog.Attr) {
	if l == nil {
		return
	}
	l.log(slog.LevelDebug, msg, fields, l.debugEnabled.Load())
}

func (l *Logger) Info(msg string, fields ...slog.Attr) {
	if l == nil {
		return
	}
	l.log(slog.LevelInfo, msg, fields, true)
}

func (l *Logger) Success(msg string, fields ...slog.Attr) {
	if l == nil {
		return
	}
	l.log(LevelSuccess, msg, fields, true)
}

func (l *Logger) Warn(msg string, fields ...slog.Attr) {
	if l == nil {
		return
	}
	l.log(slog.LevelWarn, msg, fields, true)
}

func (l *Logger) Error(msg string, fields ...slog.Attr) {
	if l == nil {
		return
	}
	l.log(slog.LevelError, msg, fields, true)
}

func (l *Logger) Subscribe(fn func(Event)) func() {
	if l == nil {
		panic("logging.Logger.Subscribe: logger must not be nil")
	}
	if fn == nil {
		panic("logging.Logger.Subscribe: callback must not be nil")
	}
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.subscribers[id] = fn
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		delete(l.subscribers, id)
		l.mu.Unlock()
	}
}

func (l *Logger) log(level slog.Level, msg string, attrs []slog.Attr, visible bool) {
	event := Event{
		Time:    time.Now(),
		Level:   level,
		Message: msg,
		Fields:  attrsToMap(attrs),
	}

	l.mu.RLock()
	sink := l.fileSink
	out := l.out
	pretty := l.pretty
	callbacks := make([]func(Event), 0, len(l.subscribers))
	if visible {
		for _, cb := range l.subscribers {
			callbacks = append(callbacks, cb)
		}
	}
	l.mu.RUnlock()

	// Hidden debug events still reach the file for post-mortem.
	if sink != nil {
		_ = sink.WriteEvent(event)
	}
	if !visible {
		return
	}
	if out != nil {
		if pretty {
			_, _ = io.WriteString(out, FormatEventANSI(event))
		} else {
			_, _ = io.WriteString(out, FormatEventLine(event))
		}
	}
	for _, cb := range callbacks {
		cb(event)
	}
}

func attrsToMap(attrs []slog.Attr) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	values := make(map[string]any, len(attrs))
	for _, attr := range attrs {
		if attr.Key == "" {
			continue
		}
		values[attr.Key] = resolveValue(attr.Value)
	}
	if len(values) == 0 {
		return nil
	}
	return values
}

func resolveValue(value slog.Value) any {
	value = value.Resolve()
	if value.Kind() != slog.KindGroup {
		return value.Any()
	}
	group := map[string]any{}
	for _, attr := range value.Group() {
		if attr.Key != "" {
			group[attr.Key] = resolveValue(attr.Value)
		}
	}
	return group
}

// LevelName renders the short label used in terminal and file output.
func LevelName(level slog.Level) string {
	switch {
	case level <= slog.LevelDebug:
		return "DEBUG"
	case level < LevelSuccess:
		return "INFO"
	case level < slog.LevelWarn:
		return "OK"
	case level < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}
