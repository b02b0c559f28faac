package newsdesk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/newsdesk/compositor"
	"github.com/eringen/newsdesk/generate"
	"github.com/eringen/newsdesk/wordpress"
)

type apiErrorBody struct {
	Error string `json:"error"`
}

// stateView is State as the console page consumes it.
type stateView struct {
	State
	Images   []string `json:"images"`
	Postable bool     `json:"postable"`
	Category string   `json:"category"`
}

func (a *App) view(s State) stateView {
	v := stateView{State: s, Images: []string{}, Postable: s.Postable(), Category: a.Category()}
	if s.Draft != nil {
		for i := range s.Draft.Images {
			v.Images = append(v.Images, fmt.Sprintf("/api/images/%d?v=%d", i, s.Draft.UpdatedAt.UnixNano()))
		}
	}
	return v
}

func (a *App) respondState(c echo.Context, code int, s State) error {
	return c.JSON(code, a.view(s))
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, context.Canceled):
		return 499
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrPublishInFlight), errors.Is(err, ErrBusy):
		return http.StatusConflict
	case errors.Is(err, ErrNoDraft),
		errors.Is(err, compositor.ErrDecode),
		errors.Is(err, wordpress.ErrMissingCredentials),
		errors.Is(err, wordpress.ErrInvalidMedia):
		return http.StatusBadRequest
	case errors.Is(err, wordpress.ErrAuth), errors.Is(err, generate.ErrInvalidKey):
		return http.StatusUnauthorized
	case errors.Is(err, wordpress.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, generate.ErrQuotaOrSafety):
		return http.StatusTooManyRequests
	case errors.Is(err, wordpress.ErrNetwork),
		errors.Is(err, wordpress.ErrMalformedResponse),
		errors.Is(err, wordpress.ErrRejected),
		errors.Is(err, generate.ErrNetwork),
		errors.Is(err, generate.ErrMalformedResponse),
		errors.Is(err, generate.ErrUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// apiError writes err as a JSON error body.
func apiError(c echo.Context, err error) error {
	code := statusFor(err)
	if code >= 500 && code != http.StatusBadGateway && code != http.StatusGatewayTimeout {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	return c.JSON(code, apiErrorBody{Error: err.Error()})
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	} else {
		code = statusFor(err)
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
	}

	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		msg := http.StatusText(code)
		if ok {
			msg = fmt.Sprint(he.Message)
		} else if code < 500 {
			msg = err.Error()
		}
		_ = c.JSON(code, apiErrorBody{Error: msg})
		return
	}
	if ok {
		a.Echo.DefaultHTTPErrorHandler(err, c)
		return
	}
	_ = c.String(code, http.StatusText(code))
}
