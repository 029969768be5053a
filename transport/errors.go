package transport

import (
	"errors"
	"fmt"

	"github.com/jrsteele09/go-auth-client/oauth2"
)

const maxErrorBody = 512

// StatusError is returned for a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	body := string(e.Body)
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	if body == "" {
		return fmt.Sprintf("http status %d", e.StatusCode)
	}
	return fmt.Sprintf("http status %d: %s", e.StatusCode, body)
}

// OAuthError parses the body as an OAuth error response.
func (e *StatusError) OAuthError() (*oauth2.ErrorResponse, bool) {
	return oauth2.ParseErrorResponse(e.Body)
}

// StatusCode returns the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode, true
	}
	return 0, false
}
