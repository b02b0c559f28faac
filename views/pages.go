package views

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

func layout(p Page, body string) string {
	var b strings.Builder
	b.WriteString(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
	b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	b.WriteString(`<meta name="csrf-token" content="` + esc(p.CSRF) + `">`)
	b.WriteString(`<title>` + esc(p.Name) + `</title>`)
	b.WriteString(`<link rel="stylesheet" href="/public/console.css">`)
	b.WriteString(`</head><body>`)
	b.WriteString(body)
	b.WriteString(`</body></html>`)
	return b.String()
}

func write(w io.Writer, s string) error {
	_, err := io.WriteString(w, s)
	return err
}

// LoginPage is the password form shown to signed-out visitors.
func LoginPage(p Page, failed bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<main class="login"><h1>` + esc(p.Name) + `</h1>`)
		if failed {
			b.WriteString(`<p class="error" role="alert">Wrong password.</p>`)
		}
		b.WriteString(`<form method="post" action="/login/">`)
		b.WriteString(`<input type="hidden" name="_csrf" value="` + esc(p.CSRF) + `">`)
		b.WriteString(`<label>Password <input type="password" name="password" autofocus required></label>`)
		b.WriteString(`<button type="submit">Sign in</button></form></main>`)
		return write(w, layout(p, b.String()))
	})
}

// ConsolePage is the operator console.
func ConsolePage(c Console) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<header><h1>` + esc(c.Name) + `</h1>`)
		b.WriteString(`<form method="post" action="/logout/"><input type="hidden" name="_csrf" value="` + esc(c.CSRF) + `"><button type="submit">Sign out</button></form></header>`)

		b.WriteString(`<main><section id="compose"><form id="options">`)
		b.WriteString(`<label>Topic <input type="text" name="topic" required></label>`)
		writeSelect(&b, "tone", "Tone", c.Tones)
		b.WriteString(`<label><input type="checkbox" name="grounded"> Use web search</label>`)
		b.WriteString(`<label><input type="checkbox" name="include_image"> Generate images</label>`)
		writeSelect(&b, "image_style", "Style", c.Styles)
		b.WriteString(`<label>Images <input type="number" name="image_count" min="1" max="4"></label>`)
		b.WriteString(`<label>Credit <input type="text" name="image_credit"></label>`)
		b.WriteString(`<label><input type="checkbox" name="include_tags"> Tags</label>`)
		b.WriteString(`<label><input type="checkbox" name="use_category"> Category</label>`)
		writeSelect(&b, "publish_status", "Status", c.Statuses)
		b.WriteString(`<label>Schedule <input type="datetime-local" name="schedule"></label>`)
		b.WriteString(`<button type="submit" data-action="generate">Generate</button></form>`)

		b.WriteString(`<div id="topics">`)
		for _, cat := range c.Categories {
			b.WriteString(`<button type="button" data-category="` + esc(cat.Value) + `">` + esc(cat.Label) + `</button>`)
		}
		b.WriteString(`<ul id="topic-list"></ul></div></section>`)

		b.WriteString(`<section id="site"><form id="site-form">`)
		b.WriteString(`<label>Site URL <input type="url" name="site_url"></label>`)
		b.WriteString(`<label>Username <input type="text" name="username"></label>`)
		b.WriteString(`<label>Application password <input type="password" name="password" autocomplete="off"></label>`)
		b.WriteString(`<button type="submit">Save</button><button type="button" data-action="check">Test</button></form></section>`)

		b.WriteString(`<section id="draft">`)
		if a := c.Article; a != nil {
			for i, src := range a.Images {
				alt := a.Title
				if i > 0 {
					alt = ""
				}
				b.WriteString(`<img src="` + esc(src) + `" alt="` + esc(alt) + `">`)
			}
			b.WriteString(`<h2>` + esc(a.Title) + `</h2>`)
			for _, p := range a.Paragraphs {
				b.WriteString(`<p>` + p + `</p>`)
			}
			if a.Meta != "" {
				b.WriteString(`<p class="meta">` + esc(a.Meta) + `</p>`)
			}
			if len(a.Tags) > 0 {
				b.WriteString(`<ul class="tags">`)
				for _, t := range a.Tags {
					b.WriteString(`<li>` + esc(t) + `</li>`)
				}
				b.WriteString(`</ul>`)
			}
		}
		b.WriteString(`</section>`)
		b.WriteString(`<div id="actions"><button type="button" data-action="regenerate">New images</button>`)
		b.WriteString(`<button type="button" data-action="publish">Publish</button><p id="status" role="status"></p></div>`)
		b.WriteString(`<section id="drafts"><h2>Drafts</h2><ul id="draft-list"></ul></section></main>`)

		b.WriteString(`<script type="application/json" id="initial-state">` + scriptJSON(c.StateJSON) + `</script>`)
		b.WriteString(`<script src="/public/console.js" defer></script>`)
		return write(w, layout(c.Page, b.String()))
	})
}
