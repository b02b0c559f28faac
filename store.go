package newsdesk

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/eringen/newsdesk/generate"
	"github.com/eringen/newsdesk/wordpress"
)

// timeLayout keeps a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when a requested draft does not exist.
var ErrNotFound = errors.New("newsdesk: not found")

// Store wraps a SQLite database holding drafts and the publication log.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the publication log be written while drafts are read;
	// writers wait up to busy_timeout instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS drafts (
    id TEXT PRIMARY KEY,
    topic TEXT NOT NULL,
    tone TEXT NOT NULL,
    title TEXT NOT NULL,
    article TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS draft_images (
    draft_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    data BLOB NOT NULL,
    PRIMARY KEY (draft_id, position)
);
CREATE TABLE IF NOT EXISTS publications (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    draft_id TEXT NOT NULL,
    title TEXT NOT NULL,
    status TEXT NOT NULL,
    link TEXT NOT NULL DEFAULT '',
    error TEXT NOT NULL DEFAULT '',
    media_ids TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS publications_draft ON publications(draft_id);
`)
	return err
}

// SaveDraft inserts or replaces d together with its images. A draft
// without an ID gets a new one; the saved draft is returned.
func (s *Store) SaveDraft(d Draft) (Draft, error) {
	now := time.Now().UTC()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	article, err := json.Marshal(d.Article)
	if err != nil {
		return Draft{}, fmt.Errorf("encode article: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Draft{}, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO drafts (id, topic, tone, title, article, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Topic, string(d.Tone), d.Article.Title, string(article),
		d.CreatedAt.Format(timeLayout), d.UpdatedAt.Format(timeLayout)); err != nil {
		return Draft{}, err
	}
	if _, err := tx.Exec(`DELETE FROM draft_images WHERE draft_id = ?`, d.ID); err != nil {
		return Draft{}, err
	}
	for i, img := range d.Images {
		if _, err := tx.Exec(`INSERT INTO draft_images (draft_id, position, data) VALUES (?, ?, ?)`, d.ID, i, img); err != nil {
			return Draft{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return Draft{}, err
	}
	return d, nil
}

// GetDraft returns a draft with its images.
func (s *Store) GetDraft(id string) (Draft, error) {
	var d Draft
	var tone, article, created, updated string
	err := s.db.QueryRow(`SELECT id, topic, tone, article, created_at, updated_at FROM drafts WHERE id = ?`, id).
		Scan(&d.ID, &d.Topic, &tone, &article, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Draft{}, ErrNotFound
	}
	if err != nil {
		return Draft{}, err
	}
	d.Tone = generate.Tone(tone)
	if err := json.Unmarshal([]byte(article), &d.Article); err != nil {
		return Draft{}, fmt.Errorf("decode draft %s: %w", id, err)
	}
	d.CreatedAt, _ = time.Parse(timeLayout, created)
	d.UpdatedAt, _ = time.Parse(timeLayout, updated)

	rows, err := s.db.Query(`SELECT data FROM draft_images WHERE draft_id = ? ORDER BY position`, id)
	if err != nil {
		return Draft{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var img []byte
		if err := rows.Scan(&img); err != nil {
			return Draft{}, err
		}
		d.Images = append(d.Images, img)
	}
	return d, rows.Err()
}

// DraftSummary is a draft listing row.
type DraftSummary struct {
	ID        string        `json:"id"`
	Topic     string        `json:"topic"`
	Tone      generate.Tone `json:"tone"`
	Title     string        `json:"title"`
	Images    int           `json:"images"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ListDrafts returns up to limit drafts, most recently updated first.
func (s *Store) ListDrafts(limit int) ([]DraftSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
SELECT d.id, d.topic, d.tone, d.title, d.updated_at,
       (SELECT COUNT(*) FROM draft_images i WHERE i.draft_id = d.id)
FROM drafts d ORDER BY d.updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DraftSummary
	for rows.Next() {
		var ds DraftSummary
		var tone, updated string
		if err := rows.Scan(&ds.ID, &ds.Topic, &tone, &ds.Title, &updated, &ds.Images); err != nil {
			return nil, err
		}
		ds.Tone = generate.Tone(tone)
		ds.UpdatedAt, _ = time.Parse(timeLayout, updated)
		out = append(out, ds)
	}
	return out, rows.Err()
}

// DeleteDraft removes a draft and its images. Publications keep their
// reference. A missing draft is ErrNotFound.
func (s *Store) DeleteDraft(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM draft_images WHERE draft_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM drafts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// RecordPublication appends p to the publication log and returns it
// with its ID and timestamp set.
func (s *Store) RecordPublication(p Publication) (Publication, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(`INSERT INTO publications (draft_id, title, status, link, error, media_ids, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.DraftID, p.Title, string(p.Status), p.Link, p.Error, joinIDs(p.MediaIDs), p.CreatedAt.Format(timeLayout))
	if err != nil {
		return Publication{}, err
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return Publication{}, err
	}
	return p, nil
}

// ListPublications returns up to limit log rows, newest first. A
// non-empty draftID restricts the list to that draft.
func (s *Store) ListPublications(draftID string, limit int) ([]Publication, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows *sql.Rows
	var err error
	const cols = `SELECT id, draft_id, title, status, link, error, media_ids, created_at FROM publications`
	if draftID == "" {
		rows, err = s.db.Query(cols+` ORDER BY id DESC LIMIT ?`, limit)
	} else {
		rows, err = s.db.Query(cols+` WHERE draft_id = ? ORDER BY id DESC LIMIT ?`, draftID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Publication
	for rows.Next() {
		var p Publication
		var status, ids, created string
		if err := rows.Scan(&p.ID, &p.DraftID, &p.Title, &status, &p.Link, &p.Error, &ids, &created); err != nil {
			return nil, err
		}
		p.Status = wordpress.Status(status)
		p.MediaIDs = ParseIDs(ids)
		p.CreatedAt, _ = time.Parse(timeLayout, created)
		out = append(out, p)
	}
	return out, rows.Err()
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// ParseIDs splits a comma-delimited id list (e.g. "10,11") into a slice,
// skipping anything that is not a number.
func ParseIDs(s string) []int64 {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err == nil {
			out = append(out, id)
		}
	}
	return out
}
