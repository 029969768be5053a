package oauth2_test

import (
	"testing"

	"github.com/jrsteele09/go-auth-client/oauth2"
	"github.com/stretchr/testify/require"
)

func TestParseErrorResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *oauth2.ErrorResponse
	}{
		{"json", `{"error":"invalid_grant","error_description":"Token is not active"}`,
			&oauth2.ErrorResponse{Code: oauth2.ErrorInvalidGrant, Description: "Token is not active"}},
		{"form", `error=invalid_client&error_uri=https%3A%2F%2Fexample.com`,
			&oauth2.ErrorResponse{Code: oauth2.ErrorInvalidClient, URI: "https://example.com"}},
		{"empty", ``, nil},
		{"no code", `{"error_description":"??"}`, nil},
		{"html", `<html>bad gateway</html>`, nil},
		{"broken json", `{"error":`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := oauth2.ParseErrorResponse([]byte(tt.body))
			require.Equal(t, tt.want != nil, ok)
			require.Equal(t, tt.want, got)
		})
	}

	e := &oauth2.ErrorResponse{Code: "invalid_grant", Description: "expired"}
	require.Equal(t, "invalid_grant: expired", e.Error())
}
