package newsdesk

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/eringen/newsdesk/wordpress"
)

// Config holds all configuration for a newsdesk console.
type Config struct {
	Name         string `yaml:"name"`          // Console title (default "Newsdesk")
	Addr         string `yaml:"addr"`          // Listen address (default ":3000")
	DatabasePath string `yaml:"database_path"` // SQLite path (default "data/newsdesk.db")

	AdminPassword string `yaml:"admin_password"` // Required: console login password
	SessionSecret string `yaml:"session_secret"` // Required: session encryption secret
	CookieSecure  bool   `yaml:"cookie_secure"`  // Set true for HTTPS

	GeminiAPIKey string `yaml:"gemini_api_key"`
	TextModel    string `yaml:"text_model"`  // default generate.DefaultTextModel
	ImageModel   string `yaml:"image_model"` // default generate.DefaultImageModel
	Language     string `yaml:"language"`    // Article language (default "Turkish")

	WordPress       wordpress.Credentials `yaml:"wordpress"`
	DefaultCategory string                `yaml:"default_category"` // default "Haber"
	ImageCredit     string                `yaml:"image_credit"`
	JPEGQuality     int                   `yaml:"jpeg_quality"` // default 92

	TopicCacheTTL time.Duration `yaml:"topic_cache_ttl"` // default 15m
	TermCacheTTL  time.Duration `yaml:"term_cache_ttl"`  // default 10m
	GenerateLimit int           `yaml:"generate_limit"`  // generations per IP per minute (default 10)
	LoginLimit    int           `yaml:"login_limit"`     // failed logins per IP per minute (default 5)
}

func (c *Config) setDefaults() {
	if c.Name == "" {
		c.Name = "Newsdesk"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/newsdesk.db"
	}
	if c.Language == "" {
		c.Language = "Turkish"
	}
	if c.DefaultCategory == "" {
		c.DefaultCategory = "Haber"
	}
	if c.JPEGQuality <= 0 || c.JPEGQuality > 100 {
		c.JPEGQuality = 92
	}
	if c.TopicCacheTTL == 0 {
		c.TopicCacheTTL = 15 * time.Minute
	}
	if c.TermCacheTTL == 0 {
		c.TermCacheTTL = 10 * time.Minute
	}
	if c.GenerateLimit <= 0 {
		c.GenerateLimit = 10
	}
	if c.LoginLimit <= 0 {
		c.LoginLimit = 5
	}
}

// Validate reports the first missing setting the server needs. The
// Gemini key is checked when the client is created.
func (c *Config) Validate() error {
	if c.AdminPassword == "" {
		return errors.New("newsdesk: admin_password is required")
	}
	if c.SessionSecret == "" {
		return errors.New("newsdesk: session_secret is required")
	}
	return nil
}

// envOverrides maps environment variables onto config fields. They win
// over the YAML file.
var envOverrides = []struct {
	key string
	set func(*Config, string) error
}{
	{"NEWSDESK_ADDR", func(c *Config, v string) error { c.Addr = v; return nil }},
	{"DATABASE_PATH", func(c *Config, v string) error { c.DatabasePath = v; return nil }},
	{"ADMIN_PASSWORD", func(c *Config, v string) error { c.AdminPassword = v; return nil }},
	{"SESSION_SECRET", func(c *Config, v string) error { c.SessionSecret = v; return nil }},
	{"COOKIE_SECURE", func(c *Config, v string) (err error) { c.CookieSecure, err = strconv.ParseBool(v); return }},
	{"API_KEY", func(c *Config, v string) error { c.GeminiAPIKey = v; return nil }},
	{"GEMINI_API_KEY", func(c *Config, v string) error { c.GeminiAPIKey = v; return nil }},
	{"WP_SITE_URL", func(c *Config, v string) error { c.WordPress.SiteURL = v; return nil }},
	{"WP_USERNAME", func(c *Config, v string) error { c.WordPress.Username = v; return nil }},
	{"WP_APP_PASSWORD", func(c *Config, v string) error { c.WordPress.Password = v; return nil }},
	{"IMAGE_CREDIT", func(c *Config, v string) error { c.ImageCredit = v; return nil }},
}

// LoadConfig reads path (YAML; skipped when empty), then a .env file in
// the working directory if present, then environment overrides, and
// fills defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	for _, o := range envOverrides {
		v := strings.TrimSpace(os.Getenv(o.key))
		if v == "" {
			continue
		}
		if err := o.set(&cfg, v); err != nil {
			return Config{}, fmt.Errorf("env %s: %w", o.key, err)
		}
	}

	cfg.setDefaults()
	return cfg, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithGenerator replaces the Gemini client.
func WithGenerator(g Generator) Option {
	return func(a *App) {
		a.Gen = g
	}
}

// WithPublisher replaces the WordPress publish pipeline.
func WithPublisher(p Publisher) Option {
	return func(a *App) {
		a.Publisher = p
	}
}

// WithStore uses an already opened Store instead of DatabasePath.
func WithStore(s *Store) Option {
	return func(a *App) {
		a.Store = s
	}
}

// WithConfigFile watches path and applies publishing settings from it
// while the server runs.
func WithConfigFile(path string) Option {
	return func(a *App) {
		a.configPath = path
	}
}
