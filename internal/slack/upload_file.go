package slack

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"slack-upload/internal/logging"
)

const (
	MethodUploadFile   = "upload"
	DefaultContentType = "application/octet-stream"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// UploadFile streams part to the slot's upload URL as a multipart form. Only
// a 200 response counts as success.
func (c *Client) UploadFile(ctx context.Context, slot UploadSlot, part UploadPart) error {
	if part.Content == nil {
		return fmt.Errorf("upload part %q has no content", part.FileName)
	}
	contentType := strings.TrimSpace(part.ContentType)
	if contentType == "" {
		contentType = DefaultContentType
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	source := &sourceReader{r: part.Content}
	done := make(chan struct{})
	go func() {
		defer close(done)
		pw.CloseWithError(writeFilePart(form, part.FileName, contentType, source))
	}()
	// finish waits until the writer goroutine is done with part.Content and
	// reports a local read failure, which the transport would otherwise
	// surface as a network error.
	finish := func() error {
		_ = pr.Close()
		<-done
		if source.err != nil {
			return &ContentReadError{FileName: part.FileName, Err: source.err}
		}
		return nil
	}
	defer finish()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, slot.UploadURL, pr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	c.logger.Debug("uploading file bytes",
		logging.Field("file_id", slot.FileID),
		logging.Field("filename", part.FileName),
		logging.Field("content_type", contentType),
	)
	resp, err := c.do(req, MethodUploadFile)
	if err != nil {
		if readErr := finish(); readErr != nil {
			return readErr
		}
		return err
	}
	defer resp.Body.Close()
	if readErr := finish(); readErr != nil {
		return readErr
	}

	if resp.StatusCode != http.StatusOK {
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		if err != nil {
			return &NetworkError{Method: MethodUploadFile, URL: redactQuery(req.URL), Err: err}
		}
		body := logging.FormatHTTPPayload(data)
		c.logger.Warn("file upload rejected",
			logging.Field("status", resp.Status),
			logging.Field("file_id", slot.FileID),
			logging.Field("response", body),
		)
		return &RemoteAPIError{Method: MethodUploadFile, StatusCode: resp.StatusCode, Detail: body}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	return nil
}

// sourceReader remembers the first non-EOF error from the upload content.
// It is read only after the writer goroutine has exited.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF && s.err == nil {
		s.err = err
	}
	return n, err
}

func writeFilePart(form *multipart.Writer, filename, contentType string, content io.Reader) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	header.Set("Content-Type", contentType)
	w, err := form.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, content); err != nil {
		return err
	}
	return form.Close()
}
