package oidc

import (
	"fmt"
	"net/url"

	strutil "github.com/vaulttec/oidcauth/oidc/internal/strutils"
	"golang.org/x/oauth2"
)

// AuthURL builds the URL of the authentication request the user is redirected
// to. The response type is always "code" (no other grant is supported), the
// scope list is space-delimited with the required "openid" scope always
// included, and the opaque state value supplied by the host's anti-forgery
// mechanism is carried verbatim. The function is deterministic given
// identical inputs and has no side effects.
func AuthURL(callbackURL string, state string, md *ProviderMetadata, clientID string, scopes []string) (string, error) {
	const op = "oidc.AuthURL"
	if md == nil {
		return "", fmt.Errorf("%s: provider metadata is nil: %w", op, ErrNilParameter)
	}
	if state == "" {
		return "", fmt.Errorf("%s: state is empty: %w", op, ErrInvalidParameter)
	}
	u, err := url.Parse(callbackURL)
	if err != nil {
		return "", fmt.Errorf("%s: callback URL %q: %v: %w", op, callbackURL, err, ErrInvalidRedirectURI)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("%s: callback URL %q is not absolute: %w", op, callbackURL, ErrInvalidRedirectURI)
	}

	// The "openid" scope is required for oidc flows
	if !strutil.StrListContains(scopes, "openid") {
		scopes = append([]string{"openid"}, scopes...)
	}

	oauth2Config := oauth2.Config{
		ClientID:    clientID,
		RedirectURL: callbackURL,
		Endpoint: oauth2.Endpoint{
			AuthURL: md.AuthorizationEndpoint,
		},
		Scopes: scopes,
	}
	return oauth2Config.AuthCodeURL(state), nil
}
