package chat

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var errFileTooLarge = errors.New("file too large")

// readAttachment returns the optional "file" part of a parsed multipart
// request, or nil when none was sent.
func readAttachment(r *http.Request, maxBytes int64) (*Attachment, error) {
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	if maxBytes > 0 && header.Size > maxBytes {
		return nil, errFileTooLarge
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	// Drop parameters such as "; charset=utf-8" so the data URI stays clean
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}

	return &Attachment{
		Name:        header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}
