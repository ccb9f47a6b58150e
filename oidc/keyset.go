package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	strutil "github.com/vaulttec/oidcauth/oidc/internal/strutils"
	"gopkg.in/square/go-jose.v2"
)

// audience is an id_token "aud" claim, which providers return as either a
// single string or a list of strings.
type audience []string

func (a *audience) UnmarshalJSON(b []byte) error {
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		*a = audience{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*a = audience(list)
	return nil
}

// verifyIDToken validates the id_token against the provider's key set:
// required signing algorithm, signature, issuer, audience and (when present)
// expiry. Only called when the config requires a signing algorithm.
func (c *Client) verifyIDToken(ctx context.Context, md *ProviderMetadata, t IDToken) error {
	const op = "Client.verifyIDToken"
	c.logger.Debug("validating id_token", "alg", c.config.SigningAlg, "jwks_uri", md.JWKSURI)

	jws, err := jose.ParseSigned(string(t))
	if err != nil {
		return fmt.Errorf("%s: malformed id_token: %v: %w", op, err, ErrInvalidIDToken)
	}
	if len(jws.Signatures) != 1 {
		return fmt.Errorf("%s: id_token has %d signatures, expected one: %w", op, len(jws.Signatures), ErrInvalidIDToken)
	}
	if alg := jws.Signatures[0].Header.Algorithm; alg != string(c.config.SigningAlg) {
		return fmt.Errorf("%s: id_token signed with %s, %s required: %w", op, alg, c.config.SigningAlg, ErrInvalidIDToken)
	}

	keySet, err := c.fetchKeySet(ctx, md.JWKSURI)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	keys := keySet.Keys
	if kid := jws.Signatures[0].Header.KeyID; kid != "" {
		if matched := keySet.Key(kid); len(matched) > 0 {
			keys = matched
		}
	}
	var payload []byte
	var verified bool
	for _, key := range keys {
		if p, err := jws.Verify(key); err == nil {
			payload = p
			verified = true
			break
		}
	}
	if !verified {
		return fmt.Errorf("%s: no key in the provider's key set validated the id_token signature: %w", op, ErrInvalidIDToken)
	}

	var claims struct {
		Issuer   string   `json:"iss"`
		Audience audience `json:"aud"`
		Expiry   float64  `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return fmt.Errorf("%s: malformed id_token claims: %v: %w", op, err, ErrInvalidIDToken)
	}
	if claims.Issuer != md.Issuer {
		return fmt.Errorf("%s: id_token issued by %q, expected %q: %w", op, claims.Issuer, md.Issuer, ErrInvalidIDToken)
	}
	if !strutil.StrListContains(claims.Audience, c.config.ClientID) {
		return fmt.Errorf("%s: id_token audience %v doesn't include the client id: %w", op, []string(claims.Audience), ErrInvalidIDToken)
	}
	if claims.Expiry != 0 && time.Now().After(time.Unix(int64(claims.Expiry), 0)) {
		return fmt.Errorf("%s: id_token is expired: %w", op, ErrInvalidIDToken)
	}
	return nil
}

// fetchKeySet retrieves the provider's JSON Web Key Set from the metadata's
// jwks_uri. Retrieval failures are provider unreachability, distinct from a
// key set that doesn't validate the token.
func (c *Client) fetchKeySet(ctx context.Context, jwksURI string) (*jose.JSONWebKeySet, error) {
	const op = "Client.fetchKeySet"
	if jwksURI == "" {
		return nil, fmt.Errorf("%s: provider metadata has no jwks_uri: %w", op, ErrInvalidIDToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURI, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create key set request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: retrieving provider key set failed: %v: %w", op, err, ErrProviderUnreachable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: key set endpoint returned status %d: %w", op, resp.StatusCode, ErrProviderUnreachable)
	}
	var keySet jose.JSONWebKeySet
	if err := json.NewDecoder(resp.Body).Decode(&keySet); err != nil {
		return nil, fmt.Errorf("%s: unable to decode provider key set: %v: %w", op, err, ErrProviderUnreachable)
	}
	return &keySet, nil
}
