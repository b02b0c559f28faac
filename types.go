package newsdesk

import (
	"time"

	"github.com/eringen/newsdesk/generate"
	"github.com/eringen/newsdesk/markup"
	"github.com/eringen/newsdesk/wordpress"
)

// PostStatus tracks a publish from the operator's point of view.
type PostStatus string

const (
	PostIdle           PostStatus = "Idle"
	PostUploadingImage PostStatus = "UploadingImage"
	PostPosting        PostStatus = "Posting"
	PostSuccess        PostStatus = "Success"
	PostError          PostStatus = "Error"
)

// InFlight reports whether a publish is running.
func (s PostStatus) InFlight() bool {
	return s == PostUploadingImage || s == PostPosting
}

// Draft is a generated article with its composited images. Drafts are
// kept in the Store so a restart does not lose generated work.
type Draft struct {
	ID        string           `json:"id"`
	Topic     string           `json:"topic"`
	Tone      generate.Tone    `json:"tone"`
	Article   generate.Article `json:"article"`
	Images    [][]byte         `json:"-"` // composited JPEGs, featured image first
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Publication records one publish attempt.
type Publication struct {
	ID        int64            `json:"id"`
	DraftID   string           `json:"draft_id"`
	Title     string           `json:"title"`
	Status    wordpress.Status `json:"status"`
	Link      string           `json:"link,omitempty"`
	Error     string           `json:"error,omitempty"`
	MediaIDs  []int64          `json:"media_ids,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Succeeded reports whether the attempt produced a post.
func (p Publication) Succeeded() bool {
	return p.Error == "" && p.Link != ""
}

// wordpressArticle converts a generated article for publishing.
func wordpressArticle(a generate.Article) wordpress.Article {
	out := wordpress.Article{
		Title:      a.Title,
		Paragraphs: a.Paragraphs,
		Excerpt:    a.MetaDescription,
		Tags:       a.Tags,
	}
	for _, s := range a.Sources {
		out.Sources = append(out.Sources, markup.Link{URL: s.URI, Title: s.Title})
	}
	return out
}
