package newsdesk

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv makes sure none of the override variables leak in from the
// machine running the tests. t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, o := range envOverrides {
		t.Setenv(o.key, "")
		os.Unsetenv(o.key)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

const testYAML = `
name: Gazete
admin_password: secret
session_secret: 0123456789abcdef
wordpress:
  site_url: https://news.example.com
  username: editor
  password: app pass
default_category: Gündem
image_credit: Gazete
topic_cache_ttl: 5m
`

func TestLoadConfigYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "newsdesk.yaml")
	writeFile(t, path, testYAML)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Name != "Gazete" {
		t.Errorf("Name = %q, want Gazete", cfg.Name)
	}
	if cfg.WordPress.SiteURL != "https://news.example.com" || cfg.WordPress.Password != "app pass" {
		t.Errorf("WordPress = %+v", cfg.WordPress)
	}
	if cfg.DefaultCategory != "Gündem" {
		t.Errorf("DefaultCategory = %q, want Gündem", cfg.DefaultCategory)
	}
	if cfg.TopicCacheTTL != 5*time.Minute {
		t.Errorf("TopicCacheTTL = %v, want 5m", cfg.TopicCacheTTL)
	}
	// defaults fill the rest
	if cfg.Addr != ":3000" || cfg.Language != "Turkish" || cfg.JPEGQuality != 92 || cfg.TermCacheTTL != 10*time.Minute {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "newsdesk.yaml")
	writeFile(t, path, testYAML)

	t.Setenv("WP_USERNAME", "other")
	t.Setenv("GEMINI_API_KEY", "key-1")
	t.Setenv("COOKIE_SECURE", "true")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.WordPress.Username != "other" {
		t.Errorf("Username = %q, want other", cfg.WordPress.Username)
	}
	if cfg.GeminiAPIKey != "key-1" || !cfg.CookieSecure {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadConfigBadEnvValue(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("COOKIE_SECURE", "maybe")
	if _, err := LoadConfig(""); err == nil {
		t.Fatal("expected error for COOKIE_SECURE=maybe")
	}
}

func TestLoadConfigDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, ".env"), "ADMIN_PASSWORD=fromdotenv\nSESSION_SECRET=s3cret\n")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.AdminPassword != "fromdotenv" || cfg.SessionSecret != "s3cret" {
		t.Errorf("cfg = %+v, want values from .env", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "name: [unclosed")
	if _, err := LoadConfig(bad); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"complete", Config{AdminPassword: "a", SessionSecret: "b"}, true},
		{"no password", Config{SessionSecret: "b"}, false},
		{"no secret", Config{AdminPassword: "a"}, false},
	}
	for _, tt := range tests {
		err := tt.cfg.Validate()
		if (err == nil) != tt.ok {
			t.Errorf("%s: Validate() = %v", tt.name, err)
		}
	}
}
