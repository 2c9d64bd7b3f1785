package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLevelName(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{level: slog.LevelDebug, want: "DEBUG"},
		{level: slog.LevelInfo, want: "INFO"},
		{level: LevelSuccess, want: "OK"},
		{level: slog.LevelWarn, want: "WARN"},
		{level: slog.LevelError, want: "ERROR"},
	}
	for _, tt := range tests {
		if got := LevelName(tt.level); got != tt.want {
			t.Fatalf("LevelName(%v) = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestLoggerPlainOutputAndDebugGate(t *testing.T) {
	var buf bytes.Buffer
	logger := New(false)
	logger.SetOutput(&buf)

	logger.Debug("hidden detail")
	logger.Success("Uploaded file to Slack", Field("file_id", "F1"))
	logger.Error("upload failed", Field("error", errors.New("boom")))

	out := buf.String()
	if strings.Contains(out, "hidden detail") {
		t.Fatalf("debug event leaked with debug disabled: %q", out)
	}
	if !strings.Contains(out, "[OK] Uploaded file to Slack file_id=F1") {
		t.Fatalf("missing success line: %q", out)
	}
	if !strings.Contains(out, "[ERROR] upload failed error=boom") {
		t.Fatalf("missing error line: %q", out)
	}

	buf.Reset()
	logger.SetDebugEnabled(true)
	logger.Debugf("GET %s -> %s", "https://slack.com/api", "200 OK")
	if !strings.Contains(buf.String(), "[DEBUG] GET https://slack.com/api -> 200 OK") {
		t.Fatalf("missing debug line: %q", buf.String())
	}
}

func TestLoggerSubscribeReceivesVisibleEvents(t *testing.T) {
	logger := New(false)
	logger.SetOutput(nil)

	var got []Event
	unsubscribe := logger.Subscribe(func(e Event) { got = append(got, e) })
	logger.Debug("hidden")
	logger.Success("done", Field("file_id", "F1"))
	unsubscribe()
	logger.Error("after unsubscribe")

	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if got[0].Level != LevelSuccess || got[0].Fields["file_id"] != "F1" {
		t.Fatalf("unexpected event %#v", got[0])
	}
}

func TestFileSinkWritesJSONLAndRotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "upload.jsonl")
	sink, err := newFileSink(path, 180)
	if err != nil {
		t.Fatalf("newFileSink() error = %v", err)
	}

	event := Event{
		Time:    time.Unix(1700000000, 123456789),
		Level:   LevelSuccess,
		Message: "upload step finished",
		Fields: map[string]any{
			"stage":    "Uploading bytes",
			"duration": 1500 * time.Millisecond,
		},
	}
	for i := 0; i < 6; i++ {
		if err := sink.WriteEvent(event); err != nil {
			t.Fatalf("WriteEvent() error = %v", err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := sink.WriteEvent(event); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("WriteEvent() after Close error = %v, want os.ErrClosed", err)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected rotation to create multiple files, got %d", len(entries))
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(path), "upload.2.jsonl")); err != nil {
		t.Fatalf("expected second part: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	first := strings.SplitN(strings.TrimSpace(string(data)), "\n", 2)[0]
	var decoded jsonLogLine
	if err := json.Unmarshal([]byte(first), &decoded); err != nil {
		t.Fatalf("invalid json line %q: %v", first, err)
	}
	if decoded.Level != "OK" || decoded.Fields["duration"] != "1.5s" {
		t.Fatalf("decoded = %#v", decoded)
	}
}

func TestLoggerCloseStopsFilePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.jsonl")
	logger := New(false)
	logger.SetOutput(nil)
	if err := logger.EnableFilePersistence(path, 0); err != nil {
		t.Fatalf("EnableFilePersistence() error = %v", err)
	}

	logger.Debug("hidden but persisted")
	logger.Info("before close")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	logger.Info("after close")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	text := string(content)
	if !strings.Contains(text, "hidden but persisted") || !strings.Contains(text, "before close") {
		t.Fatalf("expected pre-close events in log content: %q", text)
	}
	if strings.Contains(text, "after close") {
		t.Fatalf("did not expect post-close event in log content")
	}
}
