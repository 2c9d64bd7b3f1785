package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"slack-upload/internal/app"
	"slack-upload/internal/config"
	"slack-upload/internal/logging"
	"slack-upload/internal/slack"
)

type fakeSlack struct {
	mu         sync.Mutex
	calls      []string
	slotOK     bool
	partType   string
	completion map[string]string
}

func (f *fakeSlack) handler(t *testing.T, serverURL func() string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.URL.Path {
		case "/api/files.getUploadURLExternal":
			f.calls = append(f.calls, "slot")
			if r.Header.Get("Authorization") != "Bearer xyz" {
				t.Errorf("slot Authorization = %q", r.Header.Get("Authorization"))
			}
			w.Header().Set("Content-Type", "application/json")
			if !f.slotOK {
				_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "invalid_auth"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ok":         true,
				"file_id":    "F1",
				"upload_url": serverURL() + "/upload/F1",
			})
		case "/upload/F1":
			f.calls = append(f.calls, "upload")
			_, params, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
			part, err := multipart.NewReader(r.Body, params["boundary"]).NextPart()
			if err != nil {
				t.Errorf("NextPart() error = %v", err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.partType = part.Header.Get("Content-Type")
			_, _ = io.Copy(io.Discard, part)
			_, _ = io.WriteString(w, "OK")
		case "/api/files.completeUploadExternal":
			f.calls = append(f.calls, "complete")
			q := r.URL.Query()
			f.completion = map[string]string{
				"files":      q.Get("files"),
				"channel_id": q.Get("channel_id"),
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"ok":true}`)
		default:
			http.NotFound(w, r)
		}
	})
}

func runService(t *testing.T, f *fakeSlack, mutate func(*config.Options)) ([]logging.Event, error) {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(f.handler(t, func() string { return server.URL }))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(path, make([]byte, 10240), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	opts := config.Options{
		Token:      "xyz",
		Title:      "My File",
		Channel:    "C123",
		FilePath:   path,
		APIBaseURL: server.URL + "/api",
	}
	if mutate != nil {
		mutate(&opts)
	}

	logger := logging.New(false)
	logger.SetOutput(nil)
	var events []logging.Event
	logger.Subscribe(func(e logging.Event) {
		if e.Level == logging.LevelSuccess || e.Level == slog.LevelError {
			events = append(events, e)
		}
	})

	service, err := NewService(opts, logger)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return events, service.RunContext(context.Background())
}

func TestService_UploadsFileEndToEnd(t *testing.T) {
	f := &fakeSlack{slotOK: true}
	var stages []string
	var server *httptest.Server
	server = httptest.NewServer(f.handler(t, func() string { return server.URL }))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(path, make([]byte, 10240), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	logger := logging.New(false)
	logger.SetOutput(nil)
	service, err := NewServiceWithHooks(config.Options{
		Token:      "xyz",
		Title:      "My File",
		Channel:    "C123",
		FilePath:   path,
		APIBaseURL: server.URL,
	}, logger, StartHooks{OnStage: func(s string) { stages = append(stages, s) }})
	if err != nil {
		t.Fatalf("NewServiceWithHooks() error = %v", err)
	}
	if err := service.RunContext(context.Background()); err != nil {
		t.Fatalf("RunContext() error = %v", err)
	}

	if got := strings.Join(f.calls, ","); got != "slot,upload,complete" {
		t.Fatalf("calls = %s", got)
	}
	if f.partType != "png" {
		t.Fatalf("part Content-Type = %q, want png", f.partType)
	}
	if f.completion["files"] != `[{"id":"F1","title":"My File"}]` || f.completion["channel_id"] != "C123" {
		t.Fatalf("completion = %#v", f.completion)
	}
	if len(stages) != 5 {
		t.Fatalf("stages = %v", stages)
	}
}

func TestService_SlotRejectedReturnsError(t *testing.T) {
	f := &fakeSlack{slotOK: false}
	events, err := runService(t, f, nil)

	if !slack.IsRemoteAPIError(err) {
		t.Fatalf("RunContext() error = %v, want RemoteAPIError", err)
	}
	if got := strings.Join(f.calls, ","); got != "slot" {
		t.Fatalf("calls = %s", got)
	}
	for _, e := range events {
		if e.Level == logging.LevelSuccess {
			t.Fatalf("unexpected success event %q", e.Message)
		}
	}
}

func TestService_AlwaysReportSuccessPreservesLegacyBehaviour(t *testing.T) {
	f := &fakeSlack{slotOK: false}
	events, err := runService(t, f, func(o *config.Options) { o.AlwaysReportSuccess = true })

	if err != nil {
		t.Fatalf("RunContext() error = %v, want nil in legacy mode", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %#v, want error then success", events)
	}
	if events[0].Level != slog.LevelError || events[0].Message != app.MsgFailed {
		t.Fatalf("first event = %#v", events[0])
	}
	if events[1].Level != logging.LevelSuccess || events[1].Message != app.MsgSent {
		t.Fatalf("last event = %#v", events[1])
	}
}

func TestService_ConnectionRefusedDoesNotCrash(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	path := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	logger := logging.New(false)
	logger.SetOutput(nil)
	service, err := NewService(config.Options{
		Token: "xyz", Title: "t", Channel: "C1", FilePath: path, APIBaseURL: baseURL,
	}, logger)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	runErr := service.RunContext(context.Background())
	if !slack.IsNetworkError(runErr) {
		t.Fatalf("RunContext() error = %v, want NetworkError", runErr)
	}
}

func TestNewService_RejectsInvalidOptions(t *testing.T) {
	logger := logging.New(false)
	logger.SetOutput(nil)
	if _, err := NewService(config.Options{Title: "t", Channel: "C1", FilePath: "a"}, logger); err == nil {
		t.Fatalf("expected error for missing token")
	}
	_, err := NewService(config.Options{Token: "x", Title: "t", Channel: "C1", FilePath: "a", APIBaseURL: "ftp://x"}, logger)
	if err == nil {
		t.Fatalf("expected error for bad base URL")
	}
	if errors.Is(err, app.ErrMissingToken) {
		t.Fatalf("unexpected error kind: %v", err)
	}
}
