package newsdesk

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

// browser keeps the cookies a real browser would send back.
type browser struct {
	t       *testing.T
	a       *App
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, a *App) *browser {
	return &browser{t: t, a: a, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	for _, ck := range b.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	b.a.Echo.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(b.cookies, ck.Name)
			continue
		}
		b.cookies[ck.Name] = ck
	}
	return rec
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (b *browser) postForm(target string, form url.Values) *httptest.ResponseRecorder {
	if ck := b.cookies[csrfCookieName]; ck != nil {
		form.Set(csrfCookieName, ck.Value)
	}
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return b.do(req)
}

func TestLogoutEndsSession(t *testing.T) {
	a := newTestApp(t, &fakeGen{}, &fakePub{})
	b := newBrowser(t, a)

	b.get("/")
	if rec := b.postForm("/login/", url.Values{"password": {"secret"}}); rec.Code != http.StatusSeeOther {
		t.Fatalf("login status = %d, want 303", rec.Code)
	}
	if rec := b.get("/api/state"); rec.Code != http.StatusOK {
		t.Fatalf("state after login = %d, want 200", rec.Code)
	}

	if rec := b.postForm("/logout/", url.Values{}); rec.Code != http.StatusSeeOther {
		t.Fatalf("logout status = %d, want 303", rec.Code)
	}
	if _, ok := b.cookies[sessionName]; ok {
		t.Error("session cookie still set after logout")
	}
	if rec := b.get("/api/state"); rec.Code != http.StatusUnauthorized {
		t.Errorf("state after logout = %d, want 401", rec.Code)
	}
}

func TestCSRFRejectsAPIWithoutToken(t *testing.T) {
	a := newTestApp(t, &fakeGen{}, &fakePub{})
	b := newBrowser(t, a)
	b.get("/")
	b.postForm("/login/", url.Values{"password": {"secret"}})

	rec := b.do(httptest.NewRequest(http.MethodPost, "/api/publish", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, echo.MIMEApplicationJSON) {
		t.Errorf("content type = %q, want JSON", ct)
	}
	if !strings.Contains(rec.Body.String(), "CSRF") {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestResponseHeaders(t *testing.T) {
	a := newTestApp(t, &fakeGen{}, &fakePub{})
	b := newBrowser(t, a)

	rec := b.get("/")
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("console Cache-Control = %q, want %q", got, "no-store")
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Error("missing request id")
	}
	if got := rec.Header().Get(echo.HeaderContentSecurityPolicy); got != consoleCSP {
		t.Errorf("CSP = %q, want %q", got, consoleCSP)
	}

	rec = b.get("/public/console.css")
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=3600" {
		t.Errorf("asset Cache-Control = %q, want %q", got, "public, max-age=3600")
	}
}

func TestServesJPEG(t *testing.T) {
	a := newTestApp(t, &fakeGen{}, &fakePub{})
	tests := map[string]bool{
		"/api/images/0":          true,
		"/api/images/2?thumb=1":  true,
		"/api/compose":           true,
		"/api/images/regenerate": false,
		"/api/state":             false,
		"/":                      false,
	}
	for target, want := range tests {
		c := a.Echo.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		if got := servesJPEG(c); got != want {
			t.Errorf("servesJPEG(%s) = %v, want %v", target, got, want)
		}
	}
}
