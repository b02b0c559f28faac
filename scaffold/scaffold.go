// Package scaffold writes a starter configuration for a new newsdesk
// install.
package scaffold

import (
	"crypto/rand"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// Templates contains all scaffold template files.
// Files use Go text/template syntax and have a .tmpl suffix.
//
//go:embed all:templates
var Templates embed.FS

// Data holds the template variables passed to every scaffold template.
type Data struct {
	Name          string
	SiteURL       string
	Username      string
	Category      string
	ImageCredit   string
	SessionSecret string
}

// NewSecret returns a random hex string for session_secret.
func NewSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Write renders every template into dir and returns the created paths.
// Existing files are never overwritten.
func Write(dir string, data Data) ([]string, error) {
	if data.SessionSecret == "" {
		secret, err := NewSecret()
		if err != nil {
			return nil, fmt.Errorf("session secret: %w", err)
		}
		data.SessionSecret = secret
	}

	const root = "templates"
	var created []string
	err := fs.WalkDir(Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out := strings.TrimSuffix(filepath.Join(dir, rel), ".tmpl")
		// dotenv becomes .env.example
		if filepath.Base(out) == "dotenv" {
			out = filepath.Join(filepath.Dir(out), ".env.example")
		}
		if d.IsDir() {
			return os.MkdirAll(out, 0o755)
		}
		if _, err := os.Stat(out); err == nil {
			return fmt.Errorf("%s already exists", out)
		}

		content, err := Templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		tmpl, err := template.New(filepath.Base(path)).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		f, err := os.OpenFile(out, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		defer f.Close()
		if err := tmpl.Execute(f, data); err != nil {
			return fmt.Errorf("execute template %s: %w", path, err)
		}
		created = append(created, out)
		return nil
	})
	return created, err
}
