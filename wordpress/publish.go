package wordpress

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eringen/newsdesk/markup"
)

// maxParallel bounds concurrent uploads and term lookups per publish.
const maxParallel = 4

// Article is the content to publish.
type Article struct {
	Title      string
	Paragraphs []string
	Excerpt    string
	Tags       []string
	Sources    []markup.Link
}

// Stage names a step of the publish pipeline.
type Stage string

const (
	StageUpload   Stage = "upload"
	StageBody     Stage = "body"
	StageCategory Stage = "category"
	StageTags     Stage = "tags"
	StageSubmit   Stage = "submit"
)

// PublishInput is everything one publish needs.
type PublishInput struct {
	Article  Article
	Images   []Upload // first becomes the featured image
	Category string   // looked up or created; empty for none
	Status   Status
	Schedule time.Time // zero for "now"

	// Progress, when set, is called as each stage starts.
	Progress func(Stage)
}

// Result describes a successful publish.
type Result struct {
	Post       Post
	Media      []Media
	Categories []int64
	Tags       []int64
}

// Publisher runs the publish pipeline against one site. Callers must
// not run two publishes for the same draft at once; nothing here
// guards against duplicate posts.
type Publisher struct {
	client *Client
}

// NewPublisher returns a Publisher using c.
func NewPublisher(c *Client) *Publisher {
	return &Publisher{client: c}
}

// pending is the request under construction. It is owned by a single
// Publish call.
type pending struct {
	in     PublishInput
	media  []Media
	req    PostRequest
	result Result
}

type stage struct {
	name Stage
	run  func(context.Context, *pending) error
}

// Publish uploads the images, resolves taxonomy, submits the post and
// returns its permalink. Upload and submit failures abort the run;
// media already uploaded stays in the library. Category and tag
// failures are logged and the term is left out.
func (p *Publisher) Publish(ctx context.Context, in PublishInput) (string, error) {
	res, err := p.Run(ctx, in)
	if err != nil {
		return "", err
	}
	return res.Post.Link, nil
}

// Run is Publish returning the full Result.
func (p *Publisher) Run(ctx context.Context, in PublishInput) (Result, error) {
	if in.Status == "" {
		in.Status = StatusDraft
	}
	st := &pending{in: in}
	for _, s := range p.stages() {
		if in.Progress != nil {
			in.Progress(s.name)
		}
		if err := s.run(ctx, st); err != nil {
			return Result{}, err
		}
	}
	return st.result, nil
}

func (p *Publisher) stages() []stage {
	return []stage{
		{StageUpload, p.uploadStage},
		{StageBody, p.bodyStage},
		{StageCategory, p.categoryStage},
		{StageTags, p.tagStage},
		{StageSubmit, p.submitStage},
	}
}

func (p *Publisher) uploadStage(ctx context.Context, st *pending) error {
	images := st.in.Images
	if len(images) == 0 {
		return nil
	}
	media := make([]Media, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, up := range images {
		if up.Filename == "" {
			up.Filename = MediaFilename(st.in.Article.Title, i)
		}
		g.Go(func() error {
			m, err := p.client.UploadMedia(gctx, up)
			if err != nil {
				return err
			}
			media[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ExplainPermission(err)
	}
	st.media = media
	st.req.FeaturedMedia = media[0].ID
	st.result.Media = media
	return nil
}

func (p *Publisher) bodyStage(_ context.Context, st *pending) error {
	a := st.in.Article
	body := markup.Paragraphs(a.Paragraphs)
	if len(st.media) > 1 {
		figures := make([]string, 0, len(st.media)-1)
		for _, m := range st.media[1:] {
			figures = append(figures, markup.Figure(m.ID, m.SourceURL, a.Title))
		}
		body = markup.InsertAfterFirstParagraph(body, figures...)
	}
	if sources := markup.SourceList("Sources", a.Sources); sources != "" {
		body += "\n\n" + sources
	}

	st.req.Title = a.Title
	st.req.Content = body
	st.req.Excerpt = a.Excerpt
	st.req.Status = st.in.Status
	st.req.Schedule(st.in.Schedule)
	return nil
}

func (p *Publisher) categoryStage(ctx context.Context, st *pending) error {
	name := strings.TrimSpace(st.in.Category)
	if name == "" {
		return nil
	}
	id, err := p.client.ResolveTerm(ctx, Categories, name)
	if err != nil {
		p.client.log.Warnf("category %q skipped: %v", name, err)
		return nil
	}
	st.req.Categories = []int64{id}
	st.result.Categories = st.req.Categories
	return nil
}

// tagStage resolves tags concurrently. Ids keep the order of the
// input names; a failed tag is dropped without affecting the others.
func (p *Publisher) tagStage(ctx context.Context, st *pending) error {
	names := uniqueNames(st.in.Article.Tags)
	if len(names) == 0 {
		return nil
	}
	ids := make([]int64, len(names))
	var g errgroup.Group
	g.SetLimit(maxParallel)
	for i, name := range names {
		g.Go(func() error {
			id, err := p.client.ResolveTerm(ctx, Tags, name)
			if err != nil {
				p.client.log.Warnf("tag %q skipped: %v", name, err)
				return nil
			}
			ids[i] = id
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		st.req.Tags = append(st.req.Tags, id)
	}
	st.result.Tags = st.req.Tags
	return nil
}

func (p *Publisher) submitStage(ctx context.Context, st *pending) error {
	post, err := p.client.CreatePost(ctx, st.req)
	if err != nil {
		return ExplainPermission(err)
	}
	p.client.log.Infof("created post %d (%s) at %s", post.ID, post.Status, post.Link)
	st.result.Post = post
	return nil
}

// uniqueNames trims names and drops blanks and case-insensitive
// duplicates, keeping first occurrences in order.
func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

// String implements fmt.Stringer for log lines.
func (in PublishInput) String() string {
	return fmt.Sprintf("%q (%s, %d images, %d tags)", in.Article.Title, in.Status, len(in.Images), len(in.Article.Tags))
}
