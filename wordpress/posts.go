package wordpress

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Status is the publication status of a post.
type Status string

const (
	StatusDraft   Status = "draft"
	StatusPublish Status = "publish"
)

// ParseStatus accepts "draft" or "publish" in any case.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusDraft:
		return StatusDraft, nil
	case StatusPublish:
		return StatusPublish, nil
	}
	return "", fmt.Errorf("wordpress: unknown status %q", s)
}

// dateLayout is the format of date_gmt in the REST API.
const dateLayout = "2006-01-02T15:04:05"

// PostRequest is the body sent to POST /posts.
type PostRequest struct {
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	Excerpt       string  `json:"excerpt,omitempty"`
	Status        Status  `json:"status"`
	FeaturedMedia int64   `json:"featured_media,omitempty"`
	Categories    []int64 `json:"categories,omitempty"`
	Tags          []int64 `json:"tags,omitempty"`
	DateGMT       string  `json:"date_gmt,omitempty"`
}

// Schedule sets the post date. With StatusPublish and a future time
// WordPress holds the post until then.
func (r *PostRequest) Schedule(t time.Time) {
	if t.IsZero() {
		r.DateGMT = ""
		return
	}
	r.DateGMT = t.UTC().Format(dateLayout)
}

// Post is the subset of the created post the console needs.
type Post struct {
	ID     int64  `json:"id"`
	Link   string `json:"link"`
	Status string `json:"status"`
}

// CreatePost submits a post.
func (c *Client) CreatePost(ctx context.Context, pr PostRequest) (Post, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/posts", pr)
	if err != nil {
		return Post{}, err
	}
	var p Post
	if err := c.do(req, "posting", &p); err != nil {
		return Post{}, err
	}
	if p.Link == "" {
		return Post{}, malformed("posting", nil)
	}
	return p, nil
}
