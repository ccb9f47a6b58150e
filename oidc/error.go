package oidc

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidParameter       = errors.New("invalid parameter")
	ErrNilParameter           = errors.New("nil parameter")
	ErrInvalidCACert          = errors.New("invalid CA certificate")
	ErrAuthDisabled           = errors.New("authentication is disabled")
	ErrProviderUnreachable    = errors.New("identity provider not reachable - check the network proxy configuration")
	ErrIssuerMismatch         = errors.New("issuer in provider metadata doesn't match the configured issuer URI")
	ErrAuthorizationFailed    = errors.New("authentication request failed")
	ErrCallbackParse          = errors.New("unable to parse callback request")
	ErrTokenExchangeFailed    = errors.New("token request failed")
	ErrUserInfoFailed         = errors.New("userinfo request failed")
	ErrInvalidIDToken         = errors.New("invalid id_token")
	ErrMissingIDToken         = errors.New("id_token is missing")
	ErrInvalidRedirectURI     = errors.New("invalid redirect URI")
	ErrMissingClaim           = errors.New("missing claim")
	ErrUnsupportedStrategy    = errors.New("login strategy not supported")
	ErrCSRFVerificationFailed = errors.New("state verification failed")
)

// AuthenticationError is an explicit error returned by the provider during the
// redirect-back to the callback endpoint.
type AuthenticationError struct {
	// Code is the provider's error code, for example "access_denied".
	Code string

	// Description is the provider's optional human readable description.
	Description string
}

func (e *AuthenticationError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("%s: %s", ErrAuthorizationFailed.Error(), e.Code)
	}
	return fmt.Sprintf("%s: %s (%s)", ErrAuthorizationFailed.Error(), e.Code, e.Description)
}

func (e *AuthenticationError) Unwrap() error { return ErrAuthorizationFailed }

// TokenError is an explicit rejection from the provider's token endpoint
// carrying an oauth2 error code.
type TokenError struct {
	// Code is the oauth2 error code, for example "invalid_grant".
	Code string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("%s: %s", ErrTokenExchangeFailed.Error(), e.Code)
}

func (e *TokenError) Unwrap() error { return ErrTokenExchangeFailed }

// UserInfoError is an explicit rejection from the provider's userinfo
// endpoint carrying an error code.
type UserInfoError struct {
	// Code is the provider's error code, for example "invalid_token".
	Code string
}

func (e *UserInfoError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUserInfoFailed.Error(), e.Code)
}

func (e *UserInfoError) Unwrap() error { return ErrUserInfoFailed }
