// Package markup turns generated article text into the HTML stored in a
// WordPress post body.
package markup

import (
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	reBold             = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBoldUnderscore   = regexp.MustCompile(`__(.+?)__`)
	reItalic           = regexp.MustCompile(`\*([^*]+)\*`)
	reItalicUnderscore = regexp.MustCompile(`_([^_]+)_`)
	reLink             = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
)

// Link is an external reference listed under an article.
type Link struct {
	URL   string
	Title string
}

// Paragraphs renders each non-empty paragraph as <p>...</p>, separated
// by blank lines the way the WordPress classic editor stores them.
func Paragraphs(paras []string) string {
	out := make([]string, 0, len(paras))
	for _, p := range paras {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, "<p>"+FormatInline(p)+"</p>")
	}
	return strings.Join(out, "\n\n")
}

// Figure returns a WordPress image block for an uploaded media item.
func Figure(mediaID int64, src, alt string) string {
	id := strconv.FormatInt(mediaID, 10)
	return `<!-- wp:image {"id":` + id + `} -->` +
		`<figure class="wp-block-image"><img src="` + SafeURL(src) + `" alt="` + html.EscapeString(alt) + `" class="wp-image-` + id + `"/></figure>` +
		`<!-- /wp:image -->`
}

// InsertAfterFirstParagraph places blocks directly after the first
// closing </p> in body. Without one, the blocks are prepended.
func InsertAfterFirstParagraph(body string, blocks ...string) string {
	if len(blocks) == 0 {
		return body
	}
	joined := strings.Join(blocks, "\n")
	const closeTag = "</p>"
	i := strings.Index(body, closeTag)
	if i < 0 {
		return joined + "\n" + body
	}
	cut := i + len(closeTag)
	return body[:cut] + "\n" + joined + body[cut:]
}

// SourceList renders references as a short list. It returns "" when
// none of the links has a usable URL.
func SourceList(heading string, links []Link) string {
	var items []string
	for _, l := range links {
		href := SafeURL(l.URL)
		if href == "" {
			continue
		}
		title := strings.TrimSpace(l.Title)
		if title == "" {
			title = l.URL
		}
		items = append(items, `<li><a href="`+href+`" target="_blank" rel="noopener noreferrer">`+html.EscapeString(title)+`</a></li>`)
	}
	if len(items) == 0 {
		return ""
	}
	return "<h3>" + html.EscapeString(heading) + "</h3>\n<ul>" + strings.Join(items, "") + "</ul>"
}

// ApplyOutsideTags applies fn only to text segments outside HTML tags,
// so that formatting regexes never touch URLs inside href attributes, etc.
func ApplyOutsideTags(s string, fn func(string) string) string {
	var buf strings.Builder
	for len(s) > 0 {
		lt := strings.Index(s, "<")
		if lt < 0 {
			buf.WriteString(fn(s))
			break
		}
		if lt > 0 {
			buf.WriteString(fn(s[:lt]))
		}
		gt := strings.Index(s[lt:], ">")
		if gt < 0 {
			buf.WriteString(s[lt:])
			break
		}
		buf.WriteString(s[lt : lt+gt+1])
		s = s[lt+gt+1:]
	}
	return buf.String()
}

// FormatInline escapes s and applies the inline formatting language
// models tend to emit even when asked for plain text: bold, italic and
// links.
func FormatInline(s string) string {
	escaped := html.EscapeString(s)
	escaped = reLink.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reLink.FindStringSubmatch(m)
		if len(match) < 3 {
			return m
		}
		href := SafeURL(match[2])
		if href == "" {
			return match[1]
		}
		return `<a href="` + href + `">` + match[1] + `</a>`
	})
	return ApplyOutsideTags(escaped, func(seg string) string {
		seg = reBold.ReplaceAllString(seg, "<strong>$1</strong>")
		seg = reBoldUnderscore.ReplaceAllString(seg, "<strong>$1</strong>")
		seg = reItalic.ReplaceAllString(seg, "<em>$1</em>")
		seg = reItalicUnderscore.ReplaceAllString(seg, "<em>$1</em>")
		return seg
	})
}

// SafeURL validates and sanitizes a URL for use in HTML attributes.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
