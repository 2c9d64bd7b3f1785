package slack

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"slack-upload/internal/logging"
)

const unknownError = "unknown_error"

// decodeAPIResult reads a Web API response into the uniform envelope. A
// non-JSON body is a RemoteAPIError carrying the status and body.
func (c *Client) decodeAPIResult(method string, resp *http.Response) (APIResult, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return APIResult{}, &NetworkError{Method: method, URL: responseURL(resp), Err: err}
	}

	payload := map[string]any{}
	if err := json.Unmarshal(data, &payload); err != nil {
		body := logging.FormatHTTPPayload(data)
		c.logger.Warn("invalid API response",
			logging.Field("method", method),
			logging.Field("status", resp.Status),
			logging.Field("content_type", resp.Header.Get("Content-Type")),
			logging.Field("response", body),
		)
		return APIResult{}, &RemoteAPIError{Method: method, StatusCode: resp.StatusCode, Detail: logging.Truncate(body)}
	}

	result := APIResult{Payload: payload}
	result.OK, _ = payload["ok"].(bool)
	result.Error, _ = payload["error"].(string)
	if !result.OK && strings.TrimSpace(result.Error) == "" {
		result.Error = unknownError
	}
	if !result.OK {
		c.logger.Warn("API call rejected",
			logging.Field("method", method),
			logging.Field("status", resp.Status),
			logging.Field("response", logging.FormatHTTPPayload(data)),
		)
	}
	return result, nil
}

// Err converts a not-ok envelope into a RemoteAPIError.
func (r APIResult) Err(method string) error {
	if r.OK {
		return nil
	}
	detail := r.Error
	if detail == "" {
		detail = unknownError
	}
	return &RemoteAPIError{Method: method, Detail: detail}
}

func responseURL(resp *http.Response) string {
	if resp.Request == nil {
		return ""
	}
	return redactQuery(resp.Request.URL)
}
