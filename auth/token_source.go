package auth

import (
	"context"
	"net/http"

	xoauth2 "golang.org/x/oauth2"
)

var _ xoauth2.TokenSource = (*Flow)(nil)

// Token implements oauth2.TokenSource so a Flow can back an oauth2 HTTP client.
// It may start an interactive authorization.
func (f *Flow) Token() (*xoauth2.Token, error) {
	accessToken, err := f.RequestAccess(context.Background())
	if err != nil {
		return nil, err
	}
	tokens := f.session.Tokens()
	token := &xoauth2.Token{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		RefreshToken: tokens.RefreshToken,
	}
	if tokens.AccessToken == accessToken && tokens.AccessTokenExpiration != nil {
		token.Expiry = *tokens.AccessTokenExpiration
	}
	if tokens.IDToken != "" {
		token = token.WithExtra(map[string]any{"id_token": tokens.IDToken})
	}
	return token, nil
}

// HTTPClient returns a client that authorizes every request with this flow's
// access token.
func (f *Flow) HTTPClient(ctx context.Context) *http.Client {
	return xoauth2.NewClient(ctx, f)
}
