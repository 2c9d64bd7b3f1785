package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"slack-upload/internal/logging"
	"slack-upload/internal/runstatus"
	"slack-upload/internal/slack"
)

// Messages reported to the Sink when a run ends.
const (
	MsgUploaded = "Uploaded file to Slack"
	MsgSent     = "Successfully sent file to Slack"
	MsgFailed   = "Failed to send file to Slack"
)

// Sink receives the user-facing outcome of an upload.
type Sink interface {
	Success(msg string, fields ...slog.Attr)
	Error(msg string, fields ...slog.Attr)
}

// API is the remote side of the upload sequence.
type API interface {
	GetUploadURL(ctx context.Context, filename string, length int64) (slack.UploadSlot, error)
	UploadFile(ctx context.Context, slot slack.UploadSlot, part slack.UploadPart) error
	CompleteUpload(ctx context.Context, completion slack.CompletionRequest) (slack.APIResult, error)
}

// Options tunes retrying and how failures are reported.
type Options struct {
	// Retries is the number of extra attempts per remote call after a
	// network failure. Zero disables retrying.
	Retries              int
	RetryInitialInterval time.Duration
	// ReportAlways emits the final success message even after a failed
	// step, for pipelines that must never fail on a notification.
	ReportAlways bool
}

// Callbacks are optional observers. OnStageChange is called with the new
// stage name each time the run moves to another stage.
type Callbacks struct {
	OnStageChange func(string)
}

// StepResult is the outcome of one stage of the sequence.
type StepResult struct {
	Stage    string
	Err      error
	Duration time.Duration
	stack    []byte
}

// Outcome aggregates a whole run. Err is the first failing step's error.
type Outcome struct {
	RunID  string
	FileID string
	Stage  string
	Steps  []StepResult
	Err    error
}

// Succeeded reports whether every step ran and none failed.
func (o Outcome) Succeeded() bool {
	return o.Err == nil && o.Stage == runstatus.Done
}

// Orchestrator runs the three-call upload sequence against an API and
// reports the result to a Sink.
type Orchestrator struct {
	api    API
	sink   Sink
	logger *logging.Logger
	opts   Options
	hooks  Callbacks
	status stageState
}

// New returns an Orchestrator. It panics if api, sink or logger is nil.
func New(api API, sink Sink, logger *logging.Logger, opts Options, hooks Callbacks) *Orchestrator {
	if api == nil {
		panic("app.New: api must not be nil")
	}
	if sink == nil {
		panic("app.New: sink must not be nil")
	}
	if logger == nil {
		panic("app.New: logger must not be nil")
	}
	return &Orchestrator{api: api, sink: sink, logger: logger, opts: opts, hooks: hooks}
}

type fileMetadata struct {
	Name string
	Type string
	Size int64
}

// Upload runs the four upload stages in order. Failures never escape as
// errors or panics: they are reported to the sink and returned in Outcome.
func (o *Orchestrator) Upload(ctx context.Context, req Request) Outcome {
	outcome := Outcome{RunID: uuid.NewString()}
	o.status.reset()
	o.logger.Debug("upload requested",
		logging.Field("run_id", outcome.RunID),
		logging.Field("file_path", req.FilePath),
		logging.Field("channel_id", req.ChannelID),
		logging.Field("token", logging.MaskSecret(req.APIToken)),
	)

	var meta fileMetadata
	var slot slack.UploadSlot
	steps := []struct {
		stage string
		run   func(context.Context) error
	}{
		{runstatus.ResolvingMetadata, func(context.Context) error {
			resolved, err := resolveMetadata(req)
			meta = resolved
			return err
		}},
		{runstatus.RequestingSlot, func(ctx context.Context) error {
			issued, err := withRetry(ctx, o, runstatus.RequestingSlot, func() (slack.UploadSlot, error) {
				return o.api.GetUploadURL(ctx, meta.Name, meta.Size)
			})
			slot = issued
			return err
		}},
		{runstatus.UploadingBytes, func(ctx context.Context) error {
			_, err := withRetry(ctx, o, runstatus.UploadingBytes, func() (struct{}, error) {
				return struct{}{}, o.uploadBytes(ctx, req.FilePath, slot, meta)
			})
			if err == nil {
				o.sink.Success(fmt.Sprintf("%s: id=%s", MsgUploaded, slot.FileID),
					logging.Field("run_id", outcome.RunID),
					logging.Field("file_id", slot.FileID),
				)
			}
			return err
		}},
		{runstatus.CompletingUpload, func(ctx context.Context) error {
			completion := slack.CompletionRequest{
				FileID:         slot.FileID,
				Title:          req.Title,
				ChannelID:      req.ChannelID,
				InitialComment: req.InitialComment,
			}
			_, err := withRetry(ctx, o, runstatus.CompletingUpload, func() (slack.APIResult, error) {
				return o.api.CompleteUpload(ctx, completion)
			})
			return err
		}},
	}

	for _, step := range steps {
		o.setStage(step.stage)
		result := runStep(ctx, step.stage, step.run)
		outcome.Steps = append(outcome.Steps, result)
		outcome.Stage = step.stage
		o.logger.Debug("upload step finished",
			logging.Field("run_id", outcome.RunID),
			logging.Field("stage", step.stage),
			logging.Field("duration", result.Duration),
			logging.Field("ok", result.Err == nil),
		)
		if result.Err != nil {
			outcome.Err = result.Err
			o.reportFailure(outcome.RunID, result)
			break
		}
	}

	if outcome.Err == nil {
		outcome.FileID = slot.FileID
		outcome.Stage = runstatus.Done
		o.setStage(runstatus.Done)
		o.sink.Success(MsgSent,
			logging.Field("run_id", outcome.RunID),
			logging.Field("file_id", slot.FileID),
			logging.Field("channel_id", req.ChannelID),
		)
		return outcome
	}

	if o.opts.ReportAlways {
		o.setStage(runstatus.Done)
		o.sink.Success(MsgSent, logging.Field("run_id", outcome.RunID))
	}
	return outcome
}

func runStep(ctx context.Context, stage string, run func(context.Context) error) (result StepResult) {
	started := time.Now()
	result.Stage = stage
	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("%w: %s: %v", ErrStepPanicked, stage, r)
			result.stack = debug.Stack()
		}
		result.Duration = time.Since(started)
	}()
	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}
	result.Err = run(ctx)
	return result
}

func (o *Orchestrator) reportFailure(runID string, result StepResult) {
	fields := []slog.Attr{
		logging.Field("run_id", runID),
		logging.Field("stage", result.Stage),
		logging.Field("kind", ErrorKind(result.Err)),
		logging.Field("error", result.Err),
	}
	if chain := errorChain(result.Err); len(chain) > 1 {
		fields = append(fields, logging.Field("cause", chain[len(chain)-1]))
	}
	if len(result.stack) > 0 {
		fields = append(fields, logging.Field("stack", strings.TrimSpace(string(result.stack))))
	}
	o.sink.Error(MsgFailed, fields...)
}

func resolveMetadata(req Request) (fileMetadata, error) {
	info, err := os.Stat(req.FilePath)
	if err != nil {
		return fileMetadata{}, &FileAccessError{Path: req.FilePath, Err: err}
	}
	if !info.Mode().IsRegular() {
		return fileMetadata{}, &FileAccessError{Path: req.FilePath, Err: ErrNotRegularFile}
	}
	f, err := os.Open(req.FilePath)
	if err != nil {
		return fileMetadata{}, &FileAccessError{Path: req.FilePath, Err: err}
	}
	_ = f.Close()

	return fileMetadata{
		Name: req.ResolvedFileName(),
		Type: req.ResolvedFileType(),
		Size: info.Size(),
	}, nil
}

// uploadBytes opens the file for the duration of one upload attempt.
func (o *Orchestrator) uploadBytes(ctx context.Context, path string, slot slack.UploadSlot, meta fileMetadata) error {
	f, err := os.Open(path)
	if err != nil {
		return &FileAccessError{Path: path, Err: err}
	}
	defer f.Close()

	o.logger.Info("Uploading file",
		logging.Field("file_name", meta.Name),
		logging.Field("file_type", meta.Type),
		logging.Field("size", humanize.IBytes(uint64(meta.Size))),
	)
	err = o.api.UploadFile(ctx, slot, slack.UploadPart{
		FileName:    meta.Name,
		ContentType: meta.Type,
		Content:     f,
	})
	var readErr *slack.ContentReadError
	if errors.As(err, &readErr) {
		return &FileAccessError{Path: path, Err: readErr.Err}
	}
	return err
}

type stageState struct {
	mu      sync.Mutex
	current string
}

func (s *stageState) update(stage string) (string, string, bool) {
	trimmed := strings.TrimSpace(stage)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == trimmed {
		return s.current, trimmed, false
	}
	previous := s.current
	s.current = trimmed
	return previous, trimmed, true
}

func (s *stageState) reset() {
	s.mu.Lock()
	s.current = ""
	s.mu.Unlock()
}

func (o *Orchestrator) setStage(stage string) {
	previous, next, changed := o.status.update(stage)
	if !changed {
		return
	}
	o.logger.Debug("upload stage transition",
		logging.Field("from", previous),
		logging.Field("to", next),
	)
	if o.hooks.OnStageChange != nil {
		o.hooks.OnStageChange(stage)
	}
}
