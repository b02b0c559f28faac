package newsdesk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/newsdesk/generate"
	"github.com/eringen/newsdesk/wordpress"
)

const publishTimeout = 3 * time.Minute

// Messages shown in the console. Errors from the WordPress client are
// already written for people and are shown as they are.
const (
	msgRegenFailed   = "Could not regenerate image. The AI service might be unavailable."
	msgGenerateLimit = "Too many generation requests. Try again in a minute."
)

// operatorMessage turns a generation error into console text.
func operatorMessage(err error) string {
	switch {
	case errors.Is(err, generate.ErrInvalidKey):
		return "The Gemini API key is missing or not valid."
	case errors.Is(err, generate.ErrQuotaOrSafety):
		return "The AI service refused the request. The quota may be used up or the topic may be restricted."
	case errors.Is(err, generate.ErrMalformedResponse):
		return "The AI returned an invalid data format. Please try again."
	case errors.Is(err, generate.ErrNetwork):
		return "Could not reach the AI service. Check the network connection."
	case errors.Is(err, generate.ErrUnavailable):
		return "Failed to generate content. The AI service may be unavailable."
	case errors.Is(err, context.DeadlineExceeded):
		return "The request took too long. Please try again."
	}
	return err.Error()
}

// optionsRequest is the console form. Empty enum fields keep the
// current value.
type optionsRequest struct {
	Topic         string `json:"topic" form:"topic"`
	Tone          string `json:"tone" form:"tone"`
	Grounded      bool   `json:"grounded" form:"grounded"`
	IncludeImage  bool   `json:"include_image" form:"include_image"`
	ImageStyle    string `json:"image_style" form:"image_style"`
	ImageCount    int    `json:"image_count" form:"image_count"`
	ImageCredit   string `json:"image_credit" form:"image_credit"`
	IncludeTags   bool   `json:"include_tags" form:"include_tags"`
	UseCategory   bool   `json:"use_category" form:"use_category"`
	PublishStatus string `json:"publish_status" form:"publish_status"`
	Schedule      string `json:"schedule" form:"schedule"`
}

func (r optionsRequest) apply(cur Options) (Options, error) {
	opts := Options{
		Topic:         strings.TrimSpace(r.Topic),
		Tone:          cur.Tone,
		Grounded:      r.Grounded,
		IncludeImage:  r.IncludeImage,
		ImageStyle:    cur.ImageStyle,
		ImageCount:    r.ImageCount,
		ImageCredit:   strings.TrimSpace(r.ImageCredit),
		IncludeTags:   r.IncludeTags,
		UseCategory:   r.UseCategory,
		PublishStatus: cur.PublishStatus,
	}
	var err error
	if r.Tone != "" {
		if opts.Tone, err = generate.ParseTone(r.Tone); err != nil {
			return Options{}, err
		}
	}
	if r.ImageStyle != "" {
		if opts.ImageStyle, err = generate.ParseImageStyle(r.ImageStyle); err != nil {
			return Options{}, err
		}
	}
	if r.PublishStatus != "" {
		if opts.PublishStatus, err = wordpress.ParseStatus(r.PublishStatus); err != nil {
			return Options{}, err
		}
	}
	if opts.Schedule, err = parseSchedule(r.Schedule); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// parseSchedule accepts RFC 3339 or the value of a datetime-local input,
// which is read in the server's zone.
func parseSchedule(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("newsdesk: bad schedule %q", s)
}

func badRequest(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

func queryLimit(c echo.Context) int {
	n, _ := strconv.Atoi(c.QueryParam("limit"))
	return n
}

func (a *App) handleState(c echo.Context) error {
	return a.respondState(c, http.StatusOK, a.Work.Snapshot())
}

func (a *App) handleOptions(c echo.Context) error {
	var req optionsRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	opts, err := req.apply(a.Work.Snapshot().Options)
	if err != nil {
		return badRequest(err)
	}
	return a.respondState(c, http.StatusOK, a.Work.Dispatch(SetOptions{Options: opts}))
}

type siteRequest struct {
	SiteURL  string `json:"site_url" form:"site_url"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// handleSite stores the WordPress credentials typed into the console.
// An empty password keeps the current one so the page never has to
// echo it back.
func (a *App) handleSite(c echo.Context) error {
	var req siteRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	site := wordpress.Credentials{
		SiteURL:  strings.TrimSpace(req.SiteURL),
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
	}
	if site.Password == "" {
		site.Password = a.Work.Snapshot().Site.Password
	}
	return a.respondState(c, http.StatusOK, a.Work.Dispatch(SetSite{Site: site}))
}

func (a *App) handleSiteCheck(c echo.Context) error {
	creds := a.Work.Snapshot().Site
	if !creds.Complete() {
		return apiError(c, wordpress.ErrMissingCredentials)
	}
	user, err := a.Publisher.Check(c.Request().Context(), creds)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (a *App) handlePickTopic(c echo.Context) error {
	var req struct {
		Topic string `json:"topic" form:"topic"`
	}
	if err := c.Bind(&req); err != nil {
		return err
	}
	return a.respondState(c, http.StatusOK, a.Work.Dispatch(PickTopic{Topic: req.Topic}))
}

// handleTopics fetches a trending-topic list. ?refresh=1 skips the cache.
func (a *App) handleTopics(c echo.Context) error {
	cat, err := generate.ParseTopicCategory(c.Param("category"))
	if err != nil {
		return badRequest(err)
	}
	_, err = a.Work.TryDispatch(TopicsStarted{Category: cat}, func(s State) error {
		if s.FetchingTopics {
			return ErrBusy
		}
		return nil
	})
	if err != nil {
		return apiError(c, err)
	}

	ctx := c.Request().Context()
	var topics []string
	if c.QueryParam("refresh") == "1" {
		topics, err = a.Topics.Refresh(ctx, cat)
	} else {
		topics, err = a.Topics.Topics(ctx, cat)
	}
	if err != nil {
		c.Logger().Warnf("topics %s: %v", cat, err)
		st := a.Work.Dispatch(TopicsFailed{Err: operatorMessage(err)})
		return a.respondState(c, statusFor(err), st)
	}
	return a.respondState(c, http.StatusOK, a.Work.Dispatch(TopicsLoaded{Topics: topics}))
}

// handleGenerate writes a new draft for the current topic. A request
// body, when present, replaces the form options first.
func (a *App) handleGenerate(c echo.Context) error {
	if !a.generateLimiter.Allow(c.RealIP()) {
		return c.JSON(http.StatusTooManyRequests, apiErrorBody{Error: msgGenerateLimit})
	}
	if c.Request().ContentLength > 0 {
		var req optionsRequest
		if err := c.Bind(&req); err != nil {
			return err
		}
		opts, err := req.apply(a.Work.Snapshot().Options)
		if err != nil {
			return badRequest(err)
		}
		a.Work.Dispatch(SetOptions{Options: opts})
	}

	st, err := a.Work.BeginGenerate()
	switch {
	case errors.Is(err, ErrNoTopic):
		return a.respondState(c, http.StatusBadRequest, st)
	case err != nil:
		return apiError(c, err)
	}
	opts := st.Options
	ctx := c.Request().Context()

	art, err := a.Gen.Article(ctx, generate.ArticleRequest{
		Topic:       opts.Topic,
		Tone:        opts.Tone,
		IncludeTags: opts.IncludeTags,
		Grounded:    opts.Grounded,
	})
	if err != nil {
		c.Logger().Warnf("generate %q: %v", opts.Topic, err)
		st = a.Work.Dispatch(GenerateFailed{Err: operatorMessage(err)})
		return a.respondState(c, statusFor(err), st)
	}

	d := Draft{Topic: opts.Topic, Tone: opts.Tone, Article: art}
	if opts.IncludeImage {
		raws := a.Gen.Images(ctx, generate.ImageRequest{
			Headline: art.Title,
			Style:    opts.ImageStyle,
			Count:    opts.ImageCount,
		})
		d.Images = a.composite(c.Logger(), raws, art.Title, a.creditFor(opts))
	}
	if saved, err := a.Store.SaveDraft(d); err != nil {
		c.Logger().Errorf("save draft: %v", err)
	} else {
		d = saved
	}
	return a.respondState(c, http.StatusOK, a.Work.Dispatch(GenerateSucceeded{Draft: &d}))
}

// handleRegenerateImages replaces the images of the current draft.
func (a *App) handleRegenerateImages(c echo.Context) error {
	st, err := a.Work.BeginImageRegen()
	if err != nil {
		return apiError(c, err)
	}
	d := st.Draft
	raws := a.Gen.Images(c.Request().Context(), generate.ImageRequest{
		Headline: d.Article.Title,
		Style:    st.Options.ImageStyle,
		Count:    st.Options.ImageCount,
	})
	images := a.composite(c.Logger(), raws, d.Article.Title, a.creditFor(st.Options))
	if len(images) == 0 {
		st = a.Work.Dispatch(ImageRegenFailed{Err: msgRegenFailed})
		return a.respondState(c, http.StatusBadGateway, st)
	}

	st, err = a.Work.TryDispatch(ImagesReplaced{Images: images}, func(s State) error {
		if s.Draft == nil || s.Draft.ID != d.ID {
			return ErrBusy
		}
		return nil
	})
	if err != nil {
		return apiError(c, err)
	}
	if st.Draft.ID != "" {
		if _, err := a.Store.SaveDraft(*st.Draft); err != nil {
			c.Logger().Errorf("save draft %s: %v", st.Draft.ID, err)
		}
	}
	return a.respondState(c, http.StatusOK, st)
}

// handlePublish sends the current draft to WordPress. The publish runs
// to completion even if the browser goes away.
func (a *App) handlePublish(c echo.Context) error {
	st, err := a.Work.BeginPublish()
	if err != nil {
		return apiError(c, err)
	}
	if !st.Site.Complete() {
		err := wordpress.ErrMissingCredentials
		st = a.Work.Dispatch(PublishFailed{Err: "WordPress credentials are not complete."})
		return a.respondState(c, statusFor(err), st)
	}

	d, opts := st.Draft, st.Options
	in := wordpress.PublishInput{
		Article:  wordpressArticle(d.Article),
		Status:   opts.PublishStatus,
		Schedule: opts.Schedule,
	}
	if opts.IncludeImage {
		for _, img := range d.Images {
			in.Images = append(in.Images, wordpress.Upload{ContentType: "image/jpeg", Data: img})
		}
	}
	if opts.UseCategory {
		in.Category = a.Category()
	}
	in.Progress = func(stage wordpress.Stage) {
		if stage == wordpress.StageUpload && len(in.Images) == 0 {
			return
		}
		a.Work.Dispatch(PublishProgress{Stage: stage})
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), publishTimeout)
	defer cancel()
	c.Logger().Infof("publishing %s", in)
	res, err := a.Publisher.Publish(ctx, st.Site, in)

	pub := Publication{DraftID: d.ID, Title: d.Article.Title, Status: opts.PublishStatus}
	if err != nil {
		pub.Error = err.Error()
	} else {
		pub.Link = res.Post.Link
		for _, m := range res.Media {
			pub.MediaIDs = append(pub.MediaIDs, m.ID)
		}
	}
	if _, rerr := a.Store.RecordPublication(pub); rerr != nil {
		c.Logger().Errorf("record publication: %v", rerr)
	}

	if err != nil {
		c.Logger().Warnf("publish %q: %v", d.Article.Title, err)
		st = a.Work.Dispatch(PublishFailed{Err: err.Error()})
		return a.respondState(c, statusFor(err), st)
	}
	return a.respondState(c, http.StatusOK, a.Work.Dispatch(PublishSucceeded{Link: res.Post.Link}))
}

func (a *App) handleDrafts(c echo.Context) error {
	drafts, err := a.Store.ListDrafts(queryLimit(c))
	if err != nil {
		return err
	}
	if drafts == nil {
		drafts = []DraftSummary{}
	}
	return c.JSON(http.StatusOK, drafts)
}

// handleLoadDraft makes a stored draft the current one.
func (a *App) handleLoadDraft(c echo.Context) error {
	d, err := a.Store.GetDraft(c.Param("id"))
	if err != nil {
		return apiError(c, err)
	}
	st, err := a.Work.TryDispatch(LoadDraft{Draft: &d}, func(s State) error {
		if s.Generating || s.RegeneratingImage || s.PostStatus.InFlight() {
			return ErrBusy
		}
		return nil
	})
	if err != nil {
		return apiError(c, err)
	}
	return a.respondState(c, http.StatusOK, st)
}

func (a *App) handleDeleteDraft(c echo.Context) error {
	if err := a.Store.DeleteDraft(c.Param("id")); err != nil {
		return apiError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *App) handlePublications(c echo.Context) error {
	pubs, err := a.Store.ListPublications(c.QueryParam("draft"), queryLimit(c))
	if err != nil {
		return err
	}
	if pubs == nil {
		pubs = []Publication{}
	}
	return c.JSON(http.StatusOK, pubs)
}

func (a *App) creditFor(opts Options) string {
	if opts.ImageCredit != "" {
		return opts.ImageCredit
	}
	return a.defaultCredit()
}
