package conversation

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

// Attachment is the single document bound to a chat session. Its bytes are
// read when a request is built, not when the attachment is created.
type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`

	path string
	data []byte
}

// NewAttachmentFromBytes wraps an in-memory document. An empty mimeType is
// sniffed from the content.
func NewAttachmentFromBytes(name string, mimeType string, data []byte) *Attachment {
	if mimeType == "" {
		mimeType = getMediaTypeFromExtension(filepath.Ext(name))
	}
	if mimeType == "" {
		mimeType = baseMediaType(mimetype.Detect(data).String())
	}
	return &Attachment{
		Name:     name,
		MimeType: mimeType,
		data:     data,
	}
}

// NewAttachmentFromFile binds a document on disk. The file must exist; its
// content is read on every Read call. No size limit is applied here.
func NewAttachmentFromFile(path string) (*Attachment, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not stat %s", path)
	}
	if fileInfo.IsDir() {
		return nil, errors.Errorf("%s is a directory", path)
	}

	mediaType := getMediaTypeFromExtension(filepath.Ext(path))
	if mediaType == "" {
		m, err := mimetype.DetectFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "could not detect media type of %s", path)
		}
		mediaType = baseMediaType(m.String())
	}

	return &Attachment{
		Name:     fileInfo.Name(),
		MimeType: mediaType,
		path:     path,
	}, nil
}

// Read returns the full content of the attachment.
func (a *Attachment) Read(ctx context.Context) ([]byte, error) {
	if a == nil {
		return nil, errors.New("no attachment")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.path == "" {
		return a.data, nil
	}

	content, err := os.ReadFile(a.path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read attachment %s", a.Name)
	}
	return content, nil
}

func getMediaTypeFromExtension(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	case ".md", ".markdown":
		return "text/markdown"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return ""
	}
}

// baseMediaType strips parameters such as "; charset=utf-8".
func baseMediaType(s string) string {
	base, _, _ := strings.Cut(s, ";")
	return strings.TrimSpace(base)
}
