package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"slack-upload/internal/logging"
)

const MethodCompleteUpload = "files.completeUploadExternal"

// CompleteUpload shares an uploaded file to a channel.
func (c *Client) CompleteUpload(ctx context.Context, completion CompletionRequest) (APIResult, error) {
	files, err := EncodeFiles(completion.FileID, completion.Title)
	if err != nil {
		return APIResult{}, err
	}
	c.logger.Info("Completing upload", logging.Field("files", files))

	query := url.Values{}
	query.Set("files", files)
	query.Set("channel_id", completion.ChannelID)
	if strings.TrimSpace(completion.InitialComment) != "" {
		query.Set("initial_comment", completion.InitialComment)
	}
	endpoint := c.endpoints.CompleteUploadURL + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return APIResult{}, err
	}
	c.authorize(req)

	resp, err := c.do(req, MethodCompleteUpload)
	if err != nil {
		return APIResult{}, err
	}
	defer resp.Body.Close()

	result, err := c.decodeAPIResult(MethodCompleteUpload, resp)
	if err != nil {
		return APIResult{}, err
	}
	if err := result.Err(MethodCompleteUpload); err != nil {
		return result, err
	}
	c.logger.Debug("upload completed",
		logging.Field("file_id", completion.FileID),
		logging.Field("channel_id", completion.ChannelID),
	)
	return result, nil
}

// EncodeFiles renders the files parameter: a JSON array holding one
// {"id","title"} object. HTML characters in the title are kept as-is.
func EncodeFiles(fileID, title string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode([]completedFile{{ID: fileID, Title: title}}); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
