package oidc

import (
	"encoding/json"
	"time"
)

// IDToken is an oidc id_token
type IDToken string

// RedactedIDToken is the redacted string or json for an oidc id_token
const RedactedIDToken = "[REDACTED: id_token]"

// String will redact the token
func (t IDToken) String() string {
	return RedactedIDToken
}

// MarshalJSON will redact the token
func (t IDToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedIDToken)
}

// AccessToken is an oauth access_token
type AccessToken string

// RedactedAccessToken is the redacted string or json for an oauth access_token
const RedactedAccessToken = "[REDACTED: access_token]"

// String will redact the token
func (t AccessToken) String() string {
	return RedactedAccessToken
}

// MarshalJSON will redact the token
func (t AccessToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedAccessToken)
}

// Token is the set of tokens returned by the provider's token endpoint for
// one authorization code. The refresh token is carried but unused: this
// package authenticates a user once per login attempt and never refreshes.
type Token struct {
	AccessToken  AccessToken
	RefreshToken string
	Expiry       time.Time
	IDToken      IDToken
}

const tokenExpirySkew = 10 * time.Second

// Expired reports whether the access token is past its expiry (with a small
// skew). A zero expiry means the provider didn't report one.
func (t *Token) Expired() bool {
	if t.Expiry.IsZero() {
		return false
	}
	return t.Expiry.Round(0).Before(time.Now().Add(tokenExpirySkew))
}

// Valid reports whether the token set is usable for the rest of the flow.
func (t *Token) Valid() bool {
	if t == nil {
		return false
	}
	if t.AccessToken == "" {
		return false
	}
	return !t.Expired()
}
