package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// WellKnownPath is the well-known path of the provider's metadata document,
// relative to the issuer URI.
const WellKnownPath = "/.well-known/openid-configuration"

// ProviderMetadata is the provider's endpoint set, resolved from its
// well-known metadata document. It is immutable per resolution; a fresh
// document is fetched for every flow and correctness never depends on
// caching.
type ProviderMetadata struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserInfoEndpoint      string `json:"userinfo_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
}

// ResolveProviderMetadata fetches the metadata document for the given issuer
// and verifies the issuer declared in the document equals the requested one.
// It fails with ErrProviderUnreachable when the document cannot be retrieved
// and with ErrIssuerMismatch when the issuers disagree. No retries are made.
func ResolveProviderMetadata(ctx context.Context, client *http.Client, issuer string) (*ProviderMetadata, error) {
	const op = "oidc.ResolveProviderMetadata"
	if client == nil {
		return nil, fmt.Errorf("%s: http client is nil: %w", op, ErrNilParameter)
	}
	if issuer == "" {
		return nil, fmt.Errorf("%s: issuer is empty: %w", op, ErrInvalidParameter)
	}

	wellKnown := strings.TrimSuffix(issuer, "/") + WellKnownPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wellKnown, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create metadata request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: retrieving provider metadata failed: %v: %w", op, err, ErrProviderUnreachable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: metadata endpoint returned status %d: %w", op, resp.StatusCode, ErrProviderUnreachable)
	}

	var md ProviderMetadata
	if err := json.NewDecoder(resp.Body).Decode(&md); err != nil {
		return nil, fmt.Errorf("%s: unable to decode provider metadata: %v: %w", op, err, ErrProviderUnreachable)
	}
	if md.Issuer != issuer {
		return nil, fmt.Errorf("%s: got issuer %q, expected %q: %w", op, md.Issuer, issuer, ErrIssuerMismatch)
	}
	return &md, nil
}
