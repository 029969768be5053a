package idtoken

import (
	"strconv"
	"time"

	"github.com/jrsteele09/go-auth-client/internal/utils"
)

// IdentityClaims is the OpenID Connect standard claim set of a user.
type IdentityClaims struct {
	Subject             string
	Name                string
	GivenName           string
	FamilyName          string
	MiddleName          string
	Nickname            string
	PreferredUsername   string
	Profile             string
	Picture             string
	Website             string
	Email               string
	EmailVerified       bool
	Gender              string
	Birthdate           string
	Zoneinfo            string
	Locale              string
	PhoneNumber         string
	PhoneNumberVerified bool
	Address             map[string]any
	UpdatedAt           *time.Time
	HostedDomain        string // Google "hd"
	AuthMethods         []string
	Raw                 map[string]any
}

// ClaimsFrom projects a userinfo response or token payload onto the standard
// claim names.
func ClaimsFrom(m map[string]any) *IdentityClaims {
	c := &IdentityClaims{
		Subject:             str(m, "sub"),
		Name:                str(m, "name"),
		GivenName:           str(m, "given_name"),
		FamilyName:          str(m, "family_name"),
		MiddleName:          str(m, "middle_name"),
		Nickname:            str(m, "nickname"),
		PreferredUsername:   str(m, "preferred_username"),
		Profile:             str(m, "profile"),
		Picture:             str(m, "picture"),
		Website:             str(m, "website"),
		Email:               str(m, "email"),
		EmailVerified:       boolean(m["email_verified"]),
		Gender:              str(m, "gender"),
		Birthdate:           str(m, "birthdate"),
		Zoneinfo:            str(m, "zoneinfo"),
		Locale:              str(m, "locale"),
		PhoneNumber:         str(m, "phone_number"),
		PhoneNumberVerified: boolean(m["phone_number_verified"]),
		HostedDomain:        str(m, "hd"),
		Raw:                 m,
	}
	if addr, ok := m["address"].(map[string]any); ok {
		c.Address = addr
	}
	if ts, ok := utils.Int64(m["updated_at"]); ok {
		t := time.Unix(ts, 0).UTC()
		c.UpdatedAt = &t
	}
	if amr, ok := m["amr"].([]any); ok {
		c.AuthMethods = utils.ToStringSlice(amr)
	}
	return c
}

// FacebookClaimsFrom maps a Graph API /me response, which uses its own field
// names, onto the standard claims.
func FacebookClaimsFrom(m map[string]any) *IdentityClaims {
	c := ClaimsFrom(m)
	if c.Subject == "" {
		c.Subject = str(m, "id")
	}
	c.GivenName = str(m, "first_name")
	c.FamilyName = str(m, "last_name")
	if c.Zoneinfo == "" {
		if tz, ok := m["timezone"]; ok && tz != nil {
			if n, ok := utils.Int64(tz); ok {
				c.Zoneinfo = strconv.FormatInt(n, 10)
			} else {
				c.Zoneinfo, _ = tz.(string)
			}
		}
	}
	if c.Picture == "" {
		if pic, ok := m["picture"].(map[string]any); ok {
			if data, ok := pic["data"].(map[string]any); ok {
				c.Picture = str(data, "url")
			}
		}
	}
	return c
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func boolean(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, _ := strconv.ParseBool(b)
		return parsed
	}
	return false
}
