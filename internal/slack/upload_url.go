package slack

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"slack-upload/internal/logging"
)

const MethodGetUploadURL = "files.getUploadURLExternal"

// GetUploadURL requests an upload slot for a file of length bytes.
func (c *Client) GetUploadURL(ctx context.Context, filename string, length int64) (UploadSlot, error) {
	query := url.Values{}
	query.Set("filename", filename)
	query.Set("length", strconv.FormatInt(length, 10))
	endpoint := c.endpoints.GetUploadURL + "?" + query.Encode()

	c.logger.Debug("requesting upload URL",
		logging.Field("url", c.endpoints.GetUploadURL),
		logging.Field("filename", filename),
		logging.Field("length", length),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return UploadSlot{}, err
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req, MethodGetUploadURL)
	if err != nil {
		return UploadSlot{}, err
	}
	defer resp.Body.Close()

	result, err := c.decodeAPIResult(MethodGetUploadURL, resp)
	if err != nil {
		return UploadSlot{}, err
	}
	if err := result.Err(MethodGetUploadURL); err != nil {
		return UploadSlot{}, err
	}

	slot := UploadSlot{
		FileID:    strings.TrimSpace(result.Text("file_id")),
		UploadURL: strings.TrimSpace(result.Text("upload_url")),
	}
	if slot.FileID == "" || slot.UploadURL == "" {
		return UploadSlot{}, &RemoteAPIError{Method: MethodGetUploadURL, Detail: "response missing file_id or upload_url"}
	}
	c.logger.Debug("upload URL issued", logging.Field("file_id", slot.FileID))
	return slot, nil
}
