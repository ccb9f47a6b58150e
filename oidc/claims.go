package oidc

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Claims is the bundle of assertions the provider makes about the user,
// keyed by claim name. A bundle is an immutable snapshot: it is sourced
// either from the validated id_token or, after a supplementary userinfo
// lookup, replaced entirely by the lookup's response - it is never mutated
// in place.
type Claims map[string]interface{}

// Subject returns the "sub" claim, the provider's unique identifier for the
// user.
func (c Claims) Subject() string { return c.StringClaim("sub") }

// Name returns the "name" claim.
func (c Claims) Name() string { return c.StringClaim("name") }

// PreferredUsername returns the "preferred_username" claim.
func (c Claims) PreferredUsername() string { return c.StringClaim("preferred_username") }

// Email returns the "email" claim.
func (c Claims) Email() string { return c.StringClaim("email") }

// StringClaim returns the named claim if it's present and a string, and ""
// otherwise.
func (c Claims) StringClaim(name string) string {
	s, _ := c[name].(string)
	return s
}

// Has reports whether the named claim is present, whatever its value.
func (c Claims) Has(name string) bool {
	_, ok := c[name]
	return ok
}

// StringListClaim returns the named claim as a list of strings. A plain
// string value is treated as a comma-separated list (some providers return a
// single string where a list is expected).
func (c Claims) StringListClaim(name string) ([]string, bool) {
	switch v := c[name].(type) {
	case []interface{}:
		list := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				list = append(list, s)
			}
		}
		return list, true
	case []string:
		return v, true
	case string:
		if v == "" {
			return []string{}, true
		}
		parts := strings.Split(v, ",")
		list := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				list = append(list, p)
			}
		}
		return list, true
	default:
		return nil, false
	}
}

// parseIDTokenClaims extracts the claim set from an id_token's payload
// without verifying anything. Signature verification, when configured, has
// already happened by the time this is called; decoding by hand (instead of
// go-jose) also accepts unsigned tokens from deployments that disabled
// validation.
func parseIDTokenClaims(t IDToken) (Claims, error) {
	const op = "oidc.parseIDTokenClaims"
	parts := strings.Split(string(t), ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%s: id_token is not a compact JWT: %w", op, ErrInvalidIDToken)
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%s: unable to decode id_token payload: %v: %w", op, err, ErrInvalidIDToken)
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%s: unable to unmarshal id_token claims: %v: %w", op, err, ErrInvalidIDToken)
	}
	return claims, nil
}
