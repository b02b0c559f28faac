package wordpress

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/eringen/newsdesk/markup"
)

const maxFilenameLen = 50

// Upload is one image to add to the media library.
type Upload struct {
	Filename    string
	ContentType string // sniffed from Data when empty
	Data        []byte
}

// Media is an item in the WordPress media library.
type Media struct {
	ID        int64  `json:"id"`
	SourceURL string `json:"source_url"`
}

// UploadMedia posts the raw image bytes to /media.
func (c *Client) UploadMedia(ctx context.Context, up Upload) (Media, error) {
	ct := up.ContentType
	if ct == "" {
		ct = http.DetectContentType(up.Data)
	}
	if len(up.Data) == 0 || !strings.HasPrefix(ct, "image/") {
		return Media{}, fmt.Errorf("%w: %q has content type %q", ErrInvalidMedia, up.Filename, ct)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/media", nil, bytes.NewReader(up.Data))
	if err != nil {
		return Media{}, err
	}
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", up.Filename))

	var m Media
	if err := c.do(req, "image upload", &m); err != nil {
		return Media{}, err
	}
	if m.ID == 0 {
		return Media{}, malformed("image upload", nil)
	}
	c.log.Infof("uploaded media %d (%s)", m.ID, up.Filename)
	return m, nil
}

// MediaFilename derives an upload filename from an article title.
// index 0 is the featured image; later images get a -2, -3... suffix.
func MediaFilename(title string, index int) string {
	base := markup.Slugify(title)
	if len(base) > maxFilenameLen {
		base = strings.TrimRight(base[:maxFilenameLen], "-")
	}
	if base == "" {
		base = "article"
	}
	if index > 0 {
		base = fmt.Sprintf("%s-%d", base, index+1)
	}
	return base + ".jpg"
}
