package slack

import "io"

// UploadSlot is the one-time destination issued by files.getUploadURLExternal.
type UploadSlot struct {
	FileID    string
	UploadURL string
}

type CompletionRequest struct {
	FileID         string
	Title          string
	ChannelID      string
	InitialComment string
}

// UploadPart describes the single multipart "file" part sent to an upload slot.
type UploadPart struct {
	FileName    string
	ContentType string
	Content     io.Reader
}

// APIResult is the envelope every Slack Web API method responds with.
type APIResult struct {
	OK      bool
	Error   string
	Payload map[string]any
}

type completedFile struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (r APIResult) Text(key string) string {
	value, _ := r.Payload[key].(string)
	return value
}
