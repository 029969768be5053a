package oauth2

// ResponseType is the OAuth 2.0 response_type requested from the authorization endpoint.
type ResponseType string

const (
	// CodeResponseType requests an authorization code, the only flow this client drives.
	CodeResponseType ResponseType = "code"
)

// CodeMethodType is the PKCE code_challenge_method.
type CodeMethodType string

const (
	// CodeMethodTypeS256 sends BASE64URL(SHA256(code_verifier)) as the challenge.
	CodeMethodTypeS256 CodeMethodType = "S256"
)

// GrantType is the grant_type sent to the token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges the code returned on the redirect.
	// Request: code, client_id, redirect_uri, [client_secret], [audience], [code_verifier]
	AuthorizationCodeGrant GrantType = "authorization_code"

	// RefreshTokenGrant mints a new access token from a stored refresh token.
	// Request: refresh_token, client_id, [client_secret]
	RefreshTokenGrant GrantType = "refresh_token"
)

// Wire parameter names used on authorization, token and revocation requests.
const (
	ParamAccessToken         = "access_token"
	ParamAudience            = "audience"
	ParamClaims              = "claims"
	ParamClientID            = "client_id"
	ParamClientSecret        = "client_secret"
	ParamCode                = "code"
	ParamCodeChallenge       = "code_challenge"
	ParamCodeChallengeMethod = "code_challenge_method"
	ParamCodeVerifier        = "code_verifier"
	ParamError               = "error"
	ParamErrorDescription    = "error_description"
	ParamGrantType           = "grant_type"
	ParamNonce               = "nonce"
	ParamPrompt              = "prompt"
	ParamRedirectURI         = "redirect_uri"
	ParamRefreshToken        = "refresh_token"
	ParamResponseType        = "response_type"
	ParamScope               = "scope"
	ParamState               = "state"
	ParamToken               = "token"
)
