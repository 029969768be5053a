package oauth2

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Error codes a token endpoint returns in the error field.
const (
	ErrorInvalidRequest       = "invalid_request"
	ErrorInvalidClient        = "invalid_client"
	ErrorInvalidGrant         = "invalid_grant"
	ErrorUnauthorizedClient   = "unauthorized_client"
	ErrorUnsupportedGrantType = "unsupported_grant_type"
	ErrorInvalidScope         = "invalid_scope"
	ErrorAccessDenied         = "access_denied"
)

// ErrorResponse is the error body of a failed token request.
type ErrorResponse struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	URI         string `json:"error_uri,omitempty"`
}

func (e *ErrorResponse) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// ParseErrorResponse reads a JSON or form encoded error body. It returns false
// when body carries no error code.
func ParseErrorResponse(body []byte) (*ErrorResponse, bool) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, false
	}

	var e ErrorResponse
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal([]byte(trimmed), &e); err != nil {
			return nil, false
		}
	} else {
		form, err := url.ParseQuery(trimmed)
		if err != nil {
			return nil, false
		}
		e = ErrorResponse{
			Code:        form.Get(ParamError),
			Description: form.Get(ParamErrorDescription),
			URI:         form.Get("error_uri"),
		}
	}
	if e.Code == "" {
		return nil, false
	}
	return &e, true
}
