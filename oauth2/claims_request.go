package oauth2

import "encoding/json"

// ClaimsRequest builds the value of the claims authorization parameter, asking
// for every listed claim to be returned from userinfo as essential. It returns
// "" for an empty list.
func ClaimsRequest(claims []string) (string, error) {
	if len(claims) == 0 {
		return "", nil
	}
	type essential struct {
		Essential bool `json:"essential"`
	}
	userinfo := make(map[string]essential, len(claims))
	for _, c := range claims {
		userinfo[c] = essential{Essential: true}
	}
	b, err := json.Marshal(map[string]any{"userinfo": userinfo})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
