package newsdesk

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/newsdesk/generate"
	"github.com/eringen/newsdesk/markup"
	"github.com/eringen/newsdesk/views"
	"github.com/eringen/newsdesk/wordpress"
)

func (a *App) page(c echo.Context) views.Page {
	return views.Page{Name: a.Config.Name, CSRF: CsrfToken(c)}
}

func (a *App) consoleData(c echo.Context, s State) (views.Console, error) {
	v := a.view(s)
	raw, err := json.Marshal(v)
	if err != nil {
		return views.Console{}, err
	}
	cats := make([]views.Choice, 0, len(generate.TopicCategories))
	for _, cat := range generate.TopicCategories {
		cats = append(cats, views.Choice{Value: string(cat), Label: views.Title(string(cat))})
	}
	data := views.Console{
		Page:       a.page(c),
		StateJSON:  string(raw),
		Tones:      views.Choices(generate.Tones),
		Styles:     views.Choices(generate.ImageStyles),
		Categories: cats,
		Statuses:   views.Choices([]wordpress.Status{wordpress.StatusPublish, wordpress.StatusDraft}),
	}
	if d := s.Draft; d != nil {
		art := &views.Article{
			Title:  d.Article.Title,
			Meta:   d.Article.MetaDescription,
			Tags:   d.Article.Tags,
			Images: v.Images,
		}
		for _, p := range d.Article.Paragraphs {
			art.Paragraphs = append(art.Paragraphs, markup.FormatInline(p))
		}
		data.Article = art
	}
	return data, nil
}

func (a *App) handleConsole(c echo.Context) error {
	if !IsOperator(c) {
		return Render(c, views.LoginPage(a.page(c), false))
	}
	data, err := a.consoleData(c, a.Work.Snapshot())
	if err != nil {
		return err
	}
	return Render(c, views.ConsolePage(data))
}

func (a *App) handleLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := signIn(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/")
	}
	a.loginLimiter.Record(ip)
	c.Logger().Warnf("failed login from %s", ip)
	return RenderStatus(c, http.StatusUnauthorized, views.LoginPage(a.page(c), true))
}

func handleLogout(c echo.Context) error {
	if err := signOut(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}
