package slack

import (
	"errors"
	"net/http"
	"net/url"

	"slack-upload/internal/config"
	"slack-upload/internal/logging"
)

const (
	maxResponseBytes = 1 << 20
	maxErrorBytes    = 2048
)

// Client issues the Slack Web API calls that make up an external upload.
// It holds no per-upload state; every call returns its own result.
type Client struct {
	http      *http.Client
	token     string
	endpoints config.APIEndpoints
	logger    *logging.Logger
}

func New(httpClient *http.Client, token string, endpoints config.APIEndpoints, logger *logging.Logger) *Client {
	if logger == nil {
		panic("slack.New: logger must not be nil")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient, token: token, endpoints: endpoints, logger: logger}
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
}

func (c *Client) do(req *http.Request, method string) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		// url.Error repeats the full URL, query string included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, &NetworkError{Method: method, URL: redactQuery(req.URL), Err: err}
	}
	c.logger.Debugf("%s %s -> %s", req.Method, redactQuery(req.URL), resp.Status)
	return resp, nil
}
