package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// UserClaims resolves the claim bundle describing the authenticated user.
//
// It starts from the id_token's claim set. A supplementary lookup at the
// provider's userinfo endpoint is performed when the id_token carries neither
// a "name" nor a "preferred_username" claim, or when group synchronization is
// enabled and the configured groups claim is absent. A successful lookup
// replaces the bundle entirely.
func (c *Client) UserClaims(ctx context.Context, t *Token, md *ProviderMetadata) (Claims, error) {
	const op = "Client.UserClaims"
	if t == nil {
		return nil, fmt.Errorf("%s: token is nil: %w", op, ErrNilParameter)
	}
	if md == nil {
		return nil, fmt.Errorf("%s: provider metadata is nil: %w", op, ErrNilParameter)
	}

	claims, err := parseIDTokenClaims(t.IDToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	missingName := claims.Name() == "" && claims.PreferredUsername() == ""
	missingGroups := c.config.SyncGroups && !claims.Has(c.config.GroupsClaim)
	if !missingName && !missingGroups {
		return claims, nil
	}

	c.logger.Debug("id_token claims incomplete, falling back to userinfo endpoint",
		"missing_name", missingName, "missing_groups", missingGroups)
	looked, err := c.userInfo(ctx, md.UserInfoEndpoint, t.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return looked, nil
}

// userInfo performs the bearer-authenticated userinfo lookup. A provider
// rejection with an error code fails with *UserInfoError; a rejection
// carrying no code is interpreted as provider unreachability (typically a
// proxy answering in the provider's place).
func (c *Client) userInfo(ctx context.Context, endpoint string, accessToken AccessToken) (Claims, error) {
	const op = "Client.userInfo"
	if endpoint == "" {
		return nil, fmt.Errorf("%s: provider metadata has no userinfo endpoint: %w", op, ErrUserInfoFailed)
	}
	c.logger.Debug("retrieving user info", "userinfo_endpoint", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create userinfo request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+string(accessToken))
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: retrieving user information failed: %v: %w", op, err, ErrProviderUnreachable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		code := userInfoErrorCode(resp)
		if code == "" {
			return nil, fmt.Errorf("%s: userinfo request failed with status %d and no error code: %w",
				op, resp.StatusCode, ErrProviderUnreachable)
		}
		return nil, &UserInfoError{Code: code}
	}

	var claims Claims
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("%s: unable to decode userinfo response: %v: %w", op, err, ErrUserInfoFailed)
	}
	return claims, nil
}

// userInfoErrorCode extracts the provider's error code from a failed
// userinfo response: either from a JSON error object in the body or from the
// WWW-Authenticate challenge (RFC 6750 bearer token errors).
func userInfoErrorCode(resp *http.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return body.Error
	}
	challenge := resp.Header.Get("WWW-Authenticate")
	for _, part := range strings.Split(challenge, ",") {
		part = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), "Bearer"))
		if value, ok := strings.CutPrefix(part, "error="); ok {
			return strings.Trim(value, `"`)
		}
	}
	return ""
}
