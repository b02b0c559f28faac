package wordpress

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Error kinds. Every error returned by the client wraps exactly one of
// them, so callers can branch with errors.Is.
var (
	ErrMissingCredentials = errors.New("wordpress: credentials are not complete")
	ErrAuth               = errors.New("wordpress: authentication failed")
	ErrPermission         = errors.New("wordpress: permission denied")
	ErrNetwork            = errors.New("wordpress: network error")
	ErrMalformedResponse  = errors.New("wordpress: malformed response")
	ErrRejected           = errors.New("wordpress: request rejected")
	ErrInvalidMedia       = errors.New("wordpress: invalid media")
)

// Error is a failed WordPress request. Message is meant for humans and
// is what Error returns.
type Error struct {
	Kind    error
	Status  int    // HTTP status, 0 for transport failures
	Code    string // WordPress error code such as rest_cannot_create
	Message string
	TermID  int64 // set by term_exists conflicts
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// errorBody is the JSON shape of WordPress REST errors.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Status int   `json:"status"`
		TermID int64 `json:"term_id"`
	} `json:"data"`
}

var authCodes = map[string]bool{
	"rest_not_logged_in":             true,
	"invalid_username":               true,
	"incorrect_password":             true,
	"invalid_email":                  true,
	"rest_authentication_error":      true,
	"application_passwords_disabled": true,
}

// decodeError turns a non-2xx response into an *Error.
func decodeError(resp *http.Response) *Error {
	e := &Error{
		Kind:    ErrRejected,
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("Request failed with status: %s", resp.Status),
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		e.Kind = ErrAuth
	case http.StatusForbidden:
		e.Kind = ErrPermission
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return e
	}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		return e
	}

	e.Code = body.Code
	e.Message = body.Message
	e.TermID = body.Data.TermID

	switch {
	case authCodes[body.Code]:
		e.Kind = ErrAuth
	case body.Code == "rest_cannot_create" && strings.Contains(strings.ToLower(body.Message), "not allowed to upload files"):
		e.Kind = ErrPermission
		e.Message = "WordPress Permission Error: The specified user does not have permissions to upload files. Please check the user role in your WordPress dashboard."
	case body.Code == "rest_cannot_publish":
		e.Kind = ErrPermission
		e.Message = `WordPress Permission Error: The specified user does not have permission to publish posts. Please use the "Save as Draft" option or check that the user has the "Editor" or "Administrator" role.`
	case strings.HasPrefix(body.Code, "rest_cannot_") || body.Code == "rest_forbidden":
		e.Kind = ErrPermission
	}
	return e
}

// permissionPatterns are substrings of WordPress (and security plugin)
// messages that mean the account lacks a role, in English and Turkish.
var permissionPatterns = []string{
	"izin verilmiyor",
	"not allowed to create",
	"not allowed to edit",
	"cannot create",
	"forbidden",
	"unauthorized",
}

// ExplainPermission rewrites errors whose message matches a permission
// pattern into one actionable message that still quotes the original.
// Other errors are returned unchanged.
func ExplainPermission(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	for _, p := range permissionPatterns {
		if strings.Contains(lower, p) {
			return &Error{
				Kind: ErrPermission,
				Message: "WordPress Permission Error: The specified user cannot create or edit posts. " +
					"Please check that the user has the 'Author', 'Editor', or 'Administrator' role assigned in your WordPress dashboard. " +
					"Also, verify that no security plugins are blocking REST API requests. (Original error: " + msg + ")",
				Err: err,
			}
		}
	}
	return err
}

func networkError(op string, err error) *Error {
	return &Error{
		Kind:    ErrNetwork,
		Message: fmt.Sprintf("A network error occurred during %s. Please check your Site URL and internet connection.", op),
		Err:     err,
	}
}

func malformed(op string, err error) *Error {
	msg := fmt.Sprintf("Unexpected response from WordPress during %s.", op)
	if err != nil {
		msg = fmt.Sprintf("Unexpected response from WordPress during %s: %v", op, err)
	}
	return &Error{Kind: ErrMalformedResponse, Message: msg, Err: err}
}
