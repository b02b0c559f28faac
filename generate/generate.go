// Package generate drafts articles, images and trending topics with the
// Gemini API.
package generate

import (
	"context"
	"errors"
	"fmt"

	"github.com/labstack/gommon/log"
	"google.golang.org/genai"
)

// Default model names.
const (
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultImageModel = "imagen-3.0-generate-002"
)

// Backend is the part of the genai client used here. *genai.Models
// satisfies it; tests substitute a fake.
type Backend interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// Logger is the subset of echo.Logger the client writes to.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// Client generates content through a Backend.
type Client struct {
	backend    Backend
	textModel  string
	imageModel string
	language   string
	log        Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTextModel overrides DefaultTextModel.
func WithTextModel(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.textModel = name
		}
	}
}

// WithImageModel overrides DefaultImageModel.
func WithImageModel(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.imageModel = name
		}
	}
}

// WithLanguage sets the language articles and topics are written in.
// The default is Turkish.
func WithLanguage(lang string) Option {
	return func(c *Client) {
		if lang != "" {
			c.language = lang
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// New returns a Client over b.
func New(b Backend, opts ...Option) *Client {
	c := &Client{
		backend:    b,
		textModel:  DefaultTextModel,
		imageModel: DefaultImageModel,
		language:   "Turkish",
		log:        log.New("generate"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClient connects to the Gemini API with apiKey.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrInvalidKey
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("generate: create client: %w", err)
	}
	return New(gc.Models, opts...), nil
}

// Language returns the configured output language.
func (c *Client) Language() string {
	return c.language
}

// text runs a text generation and returns the first candidate's text,
// mapping API errors and safety blocks to package errors.
func (c *Client) text(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, string, error) {
	if c.backend == nil {
		return nil, "", errNoBackend
	}
	res, err := c.backend.GenerateContent(ctx, c.textModel, genai.Text(prompt), cfg)
	if err != nil {
		return nil, "", classify(err)
	}
	if err := blocked(res); err != nil {
		return nil, "", err
	}
	text := res.Text()
	if text == "" {
		return nil, "", fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}
	return res, text, nil
}

// blocked reports a safety block on the prompt or the first candidate.
func blocked(res *genai.GenerateContentResponse) error {
	if res == nil {
		return fmt.Errorf("%w: no response", ErrMalformedResponse)
	}
	if pf := res.PromptFeedback; pf != nil && pf.BlockReason != "" && pf.BlockReason != genai.BlockedReasonUnspecified {
		msg := pf.BlockReasonMessage
		if msg == "" {
			msg = string(pf.BlockReason)
		}
		return fmt.Errorf("%w: prompt blocked: %s", ErrQuotaOrSafety, msg)
	}
	if len(res.Candidates) == 0 || res.Candidates[0] == nil {
		return fmt.Errorf("%w: no candidates", ErrMalformedResponse)
	}
	switch res.Candidates[0].FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent, genai.FinishReasonBlocklist:
		return fmt.Errorf("%w: response blocked (%s)", ErrQuotaOrSafety, res.Candidates[0].FinishReason)
	}
	return nil
}

// sources collects web grounding references from the first candidate,
// without duplicates.
func sources(res *genai.GenerateContentResponse) []Source {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0] == nil {
		return nil
	}
	gm := res.Candidates[0].GroundingMetadata
	if gm == nil {
		return nil
	}
	var out []Source
	seen := map[string]bool{}
	for _, ch := range gm.GroundingChunks {
		if ch == nil || ch.Web == nil || ch.Web.URI == "" || seen[ch.Web.URI] {
			continue
		}
		seen[ch.Web.URI] = true
		out = append(out, Source{URI: ch.Web.URI, Title: ch.Web.Title})
	}
	return out
}

var errNoBackend = errors.New("generate: no backend configured")
