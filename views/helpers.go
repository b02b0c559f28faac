package views

import (
	"html"
	"strings"
)

// esc is shorthand for attribute and text escaping.
func esc(s string) string {
	return html.EscapeString(s)
}

// Choices builds select options whose labels equal their values.
func Choices[T ~string](vals []T) []Choice {
	out := make([]Choice, 0, len(vals))
	for _, v := range vals {
		out = append(out, Choice{Value: string(v), Label: string(v)})
	}
	return out
}

// Title upper-cases the first letter of s, for labels built from ids.
func Title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// scriptJSON makes JSON safe to embed in a <script> element.
func scriptJSON(s string) string {
	return strings.NewReplacer("<", `\u003c`, ">", `\u003e`, "&", `\u0026`).Replace(s)
}

func writeSelect(b *strings.Builder, name, label string, choices []Choice) {
	b.WriteString(`<label>` + esc(label) + ` <select name="` + esc(name) + `">`)
	for _, c := range choices {
		b.WriteString(`<option value="` + esc(c.Value) + `">` + esc(c.Label) + `</option>`)
	}
	b.WriteString(`</select></label>`)
}
