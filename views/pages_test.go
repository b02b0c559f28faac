package views

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	if err := c.Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	return b.String()
}

func TestLoginPage(t *testing.T) {
	html := render(t, LoginPage(Page{Name: "Gazete <Test>", CSRF: "tok"}, false))
	if !strings.Contains(html, "Gazete &lt;Test&gt;") {
		t.Error("name not escaped")
	}
	if !strings.Contains(html, `name="_csrf" value="tok"`) || !strings.Contains(html, `content="tok"`) {
		t.Error("csrf token missing")
	}
	if strings.Contains(html, "Wrong password") {
		t.Error("error shown without a failed attempt")
	}
	if !strings.Contains(render(t, LoginPage(Page{}, true)), "Wrong password") {
		t.Error("error missing after a failed attempt")
	}
}

func TestConsolePage(t *testing.T) {
	html := render(t, ConsolePage(Console{
		Page:       Page{Name: "Gazete", CSRF: "tok"},
		StateJSON:  `{"topic":"</script><script>alert(1)</script>"}`,
		Tones:      Choices([]string{"Neutral", "Formal"}),
		Categories: []Choice{{Value: "tech", Label: Title("tech")}},
		Article: &Article{
			Title:      "Başlık & more",
			Paragraphs: []string{"<strong>bold</strong> text"},
			Tags:       []string{"park"},
			Images:     []string{"/api/images/0"},
		},
	}))
	if strings.Contains(html, "</script><script>alert(1)") {
		t.Fatal("state JSON can close the script element")
	}
	for _, want := range []string{
		`<option value="Formal">Formal</option>`,
		`data-category="tech">Tech</button>`,
		`<h2>Başlık &amp; more</h2>`,
		`<p><strong>bold</strong> text</p>`,
		`<img src="/api/images/0" alt="Başlık &amp; more">`,
		`<li>park</li>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestTitle(t *testing.T) {
	if got := Title("horoscope"); got != "Horoscope" {
		t.Errorf("Title = %q, want Horoscope", got)
	}
	if got := Title(""); got != "" {
		t.Errorf("Title(\"\") = %q", got)
	}
}
