package config

import (
	"errors"
	"net/url"
	"strings"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

const DefaultAPIBaseURL = "https://slack.com/api"

type Options struct {
	Token          string `long:"slack-api-token" env:"SLACK_API_TOKEN" description:"Slack API token (bot or user token with files:write)"`
	Title          string `long:"title" env:"SLACK_UPLOAD_TITLE" description:"Title of the file"`
	Channel        string `long:"channel" env:"SLACK_UPLOAD_CHANNEL" description:"Channel ID"`
	FilePath       string `long:"file-path" env:"SLACK_UPLOAD_FILE_PATH" description:"Path to the file"`
	FileType       string `long:"file-type" env:"SLACK_UPLOAD_FILE_TYPE" description:"A file type identifier (inferred from the file extension when empty)"`
	FileName       string `long:"file-name" env:"SLACK_UPLOAD_FILE_NAME" description:"Filename of file (defaults to the base name of --file-path)"`
	InitialComment string `long:"initial-comment" env:"SLACK_UPLOAD_INITIAL_COMMENT" description:"Initial comment to add to file"`

	APIBaseURL          string        `long:"api-base-url" env:"SLACK_API_BASE_URL" default:"https://slack.com/api" description:"Slack Web API base URL"`
	Retries             int           `long:"retries" env:"SLACK_UPLOAD_RETRIES" default:"0" description:"Retry attempts per call on network failures"`
	HTTPTimeout         time.Duration `long:"http-timeout" env:"SLACK_UPLOAD_HTTP_TIMEOUT" default:"5m" description:"Timeout for each HTTP request"`
	AlwaysReportSuccess bool          `long:"always-report-success" env:"SLACK_UPLOAD_ALWAYS_REPORT_SUCCESS" description:"Report success and exit 0 even when a step failed"`
	LogFile             string        `long:"log-file" env:"SLACK_UPLOAD_LOG_FILE" description:"Also write JSONL log events to this file"`
	Debug               bool          `long:"debug" env:"SLACK_UPLOAD_DEBUG" description:"Enable verbose debug output"`
}

type APIEndpoints struct {
	BaseURL           string
	GetUploadURL      string
	CompleteUploadURL string
}

const (
	getUploadURLMethod   = "files.getUploadURLExternal"
	completeUploadMethod = "files.completeUploadExternal"
)

// ParseOptions loads .env (if present) and parses args. A nil args slice
// parses os.Args[1:].
func ParseOptions(args []string) (Options, error) {
	_ = godotenv.Load()
	opts := Options{}
	parser := flags.NewParser(&opts, flags.Default)
	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		return Options{}, err
	}
	return opts, nil
}

func ValidateRequired(opts Options) error {
	if strings.TrimSpace(opts.Token) == "" {
		return errors.New("slack API token is required")
	}
	if strings.TrimSpace(opts.Title) == "" {
		return errors.New("title is required")
	}
	if strings.TrimSpace(opts.Channel) == "" {
		return errors.New("channel is required")
	}
	if strings.TrimSpace(opts.FilePath) == "" {
		return errors.New("file path is required")
	}
	if opts.Retries < 0 {
		return errors.New("retries must not be negative")
	}
	if opts.HTTPTimeout < 0 {
		return errors.New("http timeout must not be negative")
	}
	return nil
}

func BuildEndpoints(rawBaseURL string) (APIEndpoints, error) {
	if strings.TrimSpace(rawBaseURL) == "" {
		rawBaseURL = DefaultAPIBaseURL
	}
	apiBaseURL, err := buildAPIBaseURL(rawBaseURL)
	if err != nil {
		return APIEndpoints{}, err
	}
	return APIEndpoints{
		BaseURL:           apiBaseURL,
		GetUploadURL:      apiBaseURL + "/" + getUploadURLMethod,
		CompleteUploadURL: apiBaseURL + "/" + completeUploadMethod,
	}, nil
}

func buildAPIBaseURL(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	parsed, err := url.Parse(value)
	if err != nil {
		return "", err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", errors.New("expected absolute URL like https://slack.com/api")
	}
	if !strings.EqualFold(parsed.Scheme, "http") && !strings.EqualFold(parsed.Scheme, "https") {
		return "", errors.New("API base URL scheme must be http or https")
	}

	// A pasted method URL is trimmed back to the API root.
	path := strings.TrimRight(parsed.Path, "/")
	for _, method := range []string{getUploadURLMethod, completeUploadMethod} {
		path = strings.TrimSuffix(path, "/"+method)
	}
	if path == "" {
		path = "/api"
	}
	parsed.Path = path
	parsed.RawPath = ""
	parsed.RawQuery = ""
	parsed.Fragment = ""

	return strings.TrimRight(parsed.String(), "/"), nil
}
