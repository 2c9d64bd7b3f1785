package app

import (
	"path/filepath"
	"strings"
)

// Request holds the validated inputs for a single upload. Build it with
// NewRequest.
type Request struct {
	APIToken       string
	Title          string
	ChannelID      string
	FilePath       string
	FileName       string
	FileType       string
	InitialComment string
}

func NewRequest(in Request) (Request, error) {
	req := Request{
		APIToken:       strings.TrimSpace(in.APIToken),
		Title:          in.Title,
		ChannelID:      strings.TrimSpace(in.ChannelID),
		FilePath:       strings.TrimSpace(in.FilePath),
		FileName:       strings.TrimSpace(in.FileName),
		FileType:       strings.TrimSpace(in.FileType),
		InitialComment: in.InitialComment,
	}
	switch {
	case req.APIToken == "":
		return Request{}, ErrMissingToken
	case strings.TrimSpace(req.Title) == "":
		return Request{}, ErrMissingTitle
	case req.ChannelID == "":
		return Request{}, ErrMissingChannel
	case req.FilePath == "":
		return Request{}, ErrMissingFilePath
	}
	return req, nil
}

// ResolvedFileName is the explicit file name, or the base name of FilePath.
func (r Request) ResolvedFileName() string {
	if r.FileName != "" {
		return r.FileName
	}
	return filepath.Base(r.FilePath)
}

// ResolvedFileType is the explicit file type, or the extension of FilePath
// without its dot and with case preserved. Names without an extension, and
// dotfiles such as ".env", resolve to "".
func (r Request) ResolvedFileType() string {
	if r.FileType != "" {
		return r.FileType
	}
	return extensionOf(r.FilePath)
}

func extensionOf(path string) string {
	base := filepath.Base(path)
	idx := strings.LastIndex(base, ".")
	if idx <= 0 || idx == len(base)-1 {
		return ""
	}
	return base[idx+1:]
}
