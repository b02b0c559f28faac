// Package newsdesk is a content-generation console built with Go, Echo and
// templ. An operator picks a topic, the Gemini API drafts an article and
// images, the images get the headline composited onto them, and the
// result is published to a WordPress site.
//
// The console keeps one shared workspace (see State and Reduce), stores
// drafts and the publication log in SQLite, and exposes a JSON API under
// /api for the page served at /.
package newsdesk

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/newsdesk/compositor"
	"github.com/eringen/newsdesk/generate"
)

// Generator drafts articles, images and topic lists. *generate.Client
// implements it.
type Generator interface {
	Article(ctx context.Context, req generate.ArticleRequest) (generate.Article, error)
	Images(ctx context.Context, req generate.ImageRequest) [][]byte
	Topics(ctx context.Context, cat generate.TopicCategory) ([]string, error)
}

// App is the central newsdesk application. It wires together the store,
// caches, generation and publishing clients, handlers and middleware.
type App struct {
	Config     Config
	Echo       *echo.Echo
	Store      *Store
	Topics     *TopicCache
	Work       *Workspace
	Gen        Generator
	Publisher  Publisher
	Compositor *compositor.Compositor

	loginLimiter    *RateLimiter
	generateLimiter *RateLimiter
	customRoutes    []func(*App)
	configPath      string
	ownsStore       bool

	settingsMu sync.RWMutex
	category   string
	credit     string
}

// New creates a newsdesk App with the given configuration.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:   cfg,
		Echo:     echo.New(),
		category: cfg.DefaultCategory,
		credit:   cfg.ImageCredit,
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup initializes the store, clients, middleware and routes without
// starting the server.
func (a *App) Setup(ctx context.Context) error {
	if err := a.Config.Validate(); err != nil {
		return err
	}

	if a.Store == nil {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("newsdesk: init store: %w", err)
		}
		a.Store = store
		a.ownsStore = true
	}

	if a.Gen == nil {
		gen, err := generate.NewClient(ctx, a.Config.GeminiAPIKey,
			generate.WithTextModel(a.Config.TextModel),
			generate.WithImageModel(a.Config.ImageModel),
			generate.WithLanguage(a.Config.Language),
			generate.WithLogger(a.Echo.Logger),
		)
		if err != nil {
			return fmt.Errorf("newsdesk: init generator: %w", err)
		}
		a.Gen = gen
	}

	if a.Publisher == nil {
		a.Publisher = newWordPressPublisher(a.Echo.Logger, a.Config.TermCacheTTL)
	}

	comp, err := compositor.New(compositor.WithQuality(a.Config.JPEGQuality))
	if err != nil {
		return fmt.Errorf("newsdesk: init compositor: %w", err)
	}
	a.Compositor = comp

	a.Topics = NewTopicCache(a.Gen.Topics, a.Config.TopicCacheTTL)
	a.Work = NewWorkspace(NewState(a.Config.WordPress, a.Config.ImageCredit))
	a.loginLimiter = NewRateLimiter(a.Config.LoginLimit, time.Minute)
	a.generateLimiter = NewRateLimiter(a.Config.GenerateLimit, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start sets the app up, watches the config file if one was given, and
// serves until the server is shut down.
func (a *App) Start(ctx context.Context) error {
	if err := a.Setup(ctx); err != nil {
		return err
	}
	if a.configPath != "" {
		stop, err := a.watchConfig(a.configPath)
		if err != nil {
			return fmt.Errorf("newsdesk: watch config: %w", err)
		}
		defer stop()
	}

	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	assets, _ := fs.Sub(EmbeddedAssets, "embedded")
	e.GET("/public/*", echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(assets)))))

	e.GET("/", a.handleConsole)
	e.POST("/login/", a.handleLogin)
	e.POST("/logout/", handleLogout)

	api := e.Group("/api", requireAuth)
	api.GET("/state", a.handleState)
	api.POST("/options", a.handleOptions)
	api.POST("/site", a.handleSite)
	api.POST("/site/check", a.handleSiteCheck)
	api.POST("/topics/pick", a.handlePickTopic)
	api.POST("/topics/:category", a.handleTopics)
	api.POST("/generate", a.handleGenerate)
	api.POST("/images/regenerate", a.handleRegenerateImages)
	api.GET("/images/:index", a.handleImage)
	api.POST("/compose", a.handleCompose)
	api.POST("/publish", a.handlePublish)
	api.GET("/drafts", a.handleDrafts)
	api.POST("/drafts/:id/load", a.handleLoadDraft)
	api.DELETE("/drafts/:id", a.handleDeleteDraft)
	api.GET("/publications", a.handlePublications)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.generateLimiter != nil {
		a.generateLimiter.Stop()
	}
	if a.Store != nil && a.ownsStore {
		return a.Store.Close()
	}
	return nil
}

// Category returns the WordPress category new posts are filed under.
func (a *App) Category() string {
	a.settingsMu.RLock()
	defer a.settingsMu.RUnlock()
	return a.category
}

func (a *App) defaultCredit() string {
	a.settingsMu.RLock()
	defer a.settingsMu.RUnlock()
	return a.credit
}
