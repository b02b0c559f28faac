package markup

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Slugify converts a title to a URL-safe slug. Latin letters with
// diacritics are folded to their base letter; dotless i and the like
// are mapped explicitly since they have no decomposition.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = foldReplacer.Replace(norm.NFD.String(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		case r >= 0x0300 && r <= 0x036f:
			// combining mark left over from NFD
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

var foldReplacer = strings.NewReplacer(
	"ı", "i",
	"ß", "ss",
	"æ", "ae",
	"ø", "o",
	"œ", "oe",
	"đ", "d",
	"ł", "l",
)
