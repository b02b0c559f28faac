package wordpress

import (
	"context"
	"errors"
	"html"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Taxonomy is a WordPress term collection.
type Taxonomy string

const (
	Categories Taxonomy = "categories"
	Tags       Taxonomy = "tags"
)

// Term is a category or tag.
type Term struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TermCache remembers resolved term ids for a while. The site is the
// source of truth; entries only save repeated lookups.
type TermCache struct {
	mu      sync.RWMutex
	entries map[string]termEntry
	ttl     time.Duration
}

type termEntry struct {
	id      int64
	fetched time.Time
}

// NewTermCache creates a cache whose entries expire after ttl.
// A zero ttl disables caching.
func NewTermCache(ttl time.Duration) *TermCache {
	return &TermCache{entries: make(map[string]termEntry), ttl: ttl}
}

func termKey(tax Taxonomy, name string) string {
	return string(tax) + "\x00" + strings.ToLower(strings.TrimSpace(name))
}

// Get returns the cached id for name, if still fresh.
func (c *TermCache) Get(tax Taxonomy, name string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[termKey(tax, name)]
	if !ok || time.Since(e.fetched) >= c.ttl {
		return 0, false
	}
	return e.id, true
}

// Put records the id the site returned for name.
func (c *TermCache) Put(tax Taxonomy, name string, id int64) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[termKey(tax, name)] = termEntry{id: id, fetched: time.Now()}
	c.mu.Unlock()
}

// Invalidate clears the cache so the next lookup goes to the site.
func (c *TermCache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]termEntry)
	c.mu.Unlock()
}

// FindTerm searches tax for a term named name, ignoring case. It
// returns ok=false when the site has no such term.
func (c *Client) FindTerm(ctx context.Context, tax Taxonomy, name string) (Term, bool, error) {
	q := url.Values{"search": {name}, "per_page": {"100"}}
	req, err := c.newRequest(ctx, http.MethodGet, "/"+string(tax), q, nil)
	if err != nil {
		return Term{}, false, err
	}
	var found []Term
	if err := c.do(req, string(tax)+" lookup", &found); err != nil {
		return Term{}, false, err
	}
	for _, t := range found {
		// Term names come back HTML-escaped ("Arts &amp; Culture").
		if strings.EqualFold(html.UnescapeString(t.Name), name) && t.ID != 0 {
			return t, true, nil
		}
	}
	return Term{}, false, nil
}

// CreateTerm adds a term to tax. When the site reports the term already
// exists, the existing id is returned.
func (c *Client) CreateTerm(ctx context.Context, tax Taxonomy, name string) (Term, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/"+string(tax), map[string]string{"name": name})
	if err != nil {
		return Term{}, err
	}
	var t Term
	if err := c.do(req, string(tax)+" creation", &t); err != nil {
		var wpErr *Error
		if errors.As(err, &wpErr) && wpErr.Code == "term_exists" && wpErr.TermID != 0 {
			return Term{ID: wpErr.TermID, Name: name}, nil
		}
		return Term{}, err
	}
	if t.ID == 0 {
		return Term{}, malformed(string(tax)+" creation", nil)
	}
	return t, nil
}

// ResolveTerm returns the id of the term named name in tax, creating
// the term when the site does not have it yet.
func (c *Client) ResolveTerm(ctx context.Context, tax Taxonomy, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if id, ok := c.terms.Get(tax, name); ok {
		return id, nil
	}

	t, ok, err := c.FindTerm(ctx, tax, name)
	if err != nil {
		return 0, err
	}
	if !ok {
		if t, err = c.CreateTerm(ctx, tax, name); err != nil {
			return 0, err
		}
		c.log.Infof("created %s term %q (%d)", tax, name, t.ID)
	}
	c.terms.Put(tax, name, t.ID)
	return t.ID, nil
}
