package runtime

import (
	"context"
	"net/http"
	"time"

	"slack-upload/internal/app"
	"slack-upload/internal/config"
	"slack-upload/internal/logging"
	"slack-upload/internal/slack"
)

const defaultHTTPTimeout = 5 * time.Minute

type Service interface {
	RunContext(ctx context.Context) error
}

type StartHooks struct {
	OnStage func(string)
}

type uploadService struct {
	orchestrator *app.Orchestrator
	request      app.Request
	reportAlways bool
}

func NewService(opts config.Options, logger *logging.Logger) (Service, error) {
	return NewServiceWithHooks(opts, logger, StartHooks{})
}

func NewServiceWithHooks(opts config.Options, logger *logging.Logger, hooks StartHooks) (Service, error) {
	if logger == nil {
		panic("runtime.NewServiceWithHooks: logger must not be nil")
	}
	if err := config.ValidateRequired(opts); err != nil {
		return nil, err
	}
	request, err := RequestFromOptions(opts)
	if err != nil {
		return nil, err
	}

	endpoints, err := config.BuildEndpoints(opts.APIBaseURL)
	if err != nil {
		return nil, err
	}
	logger.Debug("constructed API endpoints",
		logging.Field("get_upload_url", endpoints.GetUploadURL),
		logging.Field("complete_upload_url", endpoints.CompleteUploadURL),
	)

	timeout := opts.HTTPTimeout
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}
	httpClient := &http.Client{Timeout: timeout}
	slackClient := slack.New(httpClient, request.APIToken, endpoints, logger)
	orchestrator := app.New(slackClient, logger, logger, app.Options{
		Retries:      opts.Retries,
		ReportAlways: opts.AlwaysReportSuccess,
	}, app.Callbacks{OnStageChange: hooks.OnStage})

	return &uploadService{
		orchestrator: orchestrator,
		request:      request,
		reportAlways: opts.AlwaysReportSuccess,
	}, nil
}

// RunContext uploads the configured file. The failure is returned so the
// caller can set an exit code, unless success is always reported.
func (s *uploadService) RunContext(ctx context.Context) error {
	outcome := s.orchestrator.Upload(ctx, s.request)
	if s.reportAlways {
		return nil
	}
	return outcome.Err
}

func RequestFromOptions(opts config.Options) (app.Request, error) {
	return app.NewRequest(app.Request{
		APIToken:       opts.Token,
		Title:          opts.Title,
		ChannelID:      opts.Channel,
		FilePath:       opts.FilePath,
		FileName:       opts.FileName,
		FileType:       opts.FileType,
		InitialComment: opts.InitialComment,
	})
}
