package newsdesk

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	sessionName    = "newsdesk_session"
	sessionKey     = "operator"
	sessionTTL     = 12 * time.Hour
	csrfCookieName = "_csrf"
)

// consoleCSP allows only the console's own script, stylesheet and the
// blob URLs the compose preview creates.
const consoleCSP = "default-src 'self'; script-src 'self'; style-src 'self'; img-src 'self' blob: data:; connect-src 'self'"

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)
	e.HTTPErrorHandler = a.httpErrorHandler

	e.Use(
		middleware.RequestID(),
		requestLogger(),
		middleware.Recover(),
		middleware.GzipWithConfig(middleware.GzipConfig{
			Level:   5,
			Skipper: servesJPEG,
		}),
		middleware.SecureWithConfig(middleware.SecureConfig{
			XSSProtection:         "1; mode=block",
			ContentTypeNosniff:    "nosniff",
			XFrameOptions:         "DENY",
			ReferrerPolicy:        "same-origin",
			ContentSecurityPolicy: consoleCSP,
			HSTSMaxAge:            31536000,
		}),
		// maxUploadSize plus the multipart envelope.
		middleware.BodyLimit("12M"),
		session.Middleware(a.newSessionStore()),
		a.csrfGuard(),
		middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
			RedirectCode: http.StatusMovedPermanently,
			Skipper:      skipPrefixes("/public/", "/api/"),
		}),
		cacheControlMiddleware,
	)
}

// requestLogger logs one line per request, at error level for 5xx.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Status >= http.StatusInternalServerError {
				c.Logger().Errorf("[%s] %s %s -> %d (%s)", v.RequestID, v.Method, v.URI, v.Status, v.Latency)
				return nil
			}
			c.Logger().Infof("[%s] %s %s -> %d (%s)", v.RequestID, v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	})
}

// servesJPEG reports whether the response is an already compressed image.
func servesJPEG(c echo.Context) bool {
	path := c.Request().URL.Path
	return (strings.HasPrefix(path, "/api/images/") && path != "/api/images/regenerate") ||
		path == "/api/compose"
}

func skipPrefixes(prefixes ...string) middleware.Skipper {
	return func(c echo.Context) bool {
		path := c.Request().URL.Path
		for _, p := range prefixes {
			if strings.HasPrefix(path, p) {
				return true
			}
		}
		return false
	}
}

// csrfGuard accepts the token from the X-CSRF-Token header sent by the
// console script or from the _csrf field of the login and logout forms.
func (a *App) csrfGuard() echo.MiddlewareFunc {
	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:X-CSRF-Token,form:" + csrfCookieName,
		CookieName:     csrfCookieName,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
		CookieSecure:   a.Config.CookieSecure,
		ErrorHandler: func(err error, c echo.Context) error {
			if isAPI(c) {
				return c.JSON(http.StatusForbidden, apiErrorBody{Error: "Invalid or missing CSRF token."})
			}
			return c.String(http.StatusForbidden, "Forbidden")
		},
	})
}

func isAPI(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}

// cacheControlMiddleware lets browsers cache the embedded assets for an
// hour. Everything else reflects live workspace state.
func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		policy := "no-store"
		if strings.HasPrefix(c.Request().URL.Path, "/public/") {
			policy = "public, max-age=3600"
		}
		c.Response().Header().Set("Cache-Control", policy)
		return next(c)
	}
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(sessionTTL / time.Second),
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// requireAuth rejects API calls without an operator session.
func requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !IsOperator(c) {
			return c.JSON(http.StatusUnauthorized, apiErrorBody{Error: "Not signed in."})
		}
		return next(c)
	}
}

// IsOperator reports whether the request carries a signed-in session.
func IsOperator(c echo.Context) bool {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return false
	}
	signedIn, _ := sess.Values[sessionKey].(bool)
	return signedIn
}

func signIn(c echo.Context) error {
	return saveSession(c, func(sess *sessions.Session) {
		sess.Values[sessionKey] = true
	})
}

func signOut(c echo.Context) error {
	return saveSession(c, func(sess *sessions.Session) {
		delete(sess.Values, sessionKey)
		sess.Options.MaxAge = -1
	})
}

func saveSession(c echo.Context, update func(*sessions.Session)) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	update(sess)
	return sess.Save(c.Request(), c.Response())
}

// CsrfToken returns the token the CSRF middleware issued for c.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
