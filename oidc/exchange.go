package oidc

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// Exchange redeems the single-use authorization code at the provider's token
// endpoint, authenticating as a confidential client with HTTP Basic
// credentials. A rejection carrying an oauth2 error code fails with a
// *TokenError; a rejection without a code and any transport failure fail
// with ErrProviderUnreachable, with distinct diagnostics for the two cases.
//
// When the config requires an id_token signing algorithm, the returned
// id_token is validated (signature against the metadata's key set, issuer,
// audience and expiry) before any of its claims may be trusted; any
// violation fails with ErrInvalidIDToken. When no algorithm is configured
// validation is skipped entirely (see Config.SigningAlg).
func (c *Client) Exchange(ctx context.Context, code string, callbackURL string, md *ProviderMetadata) (*Token, error) {
	const op = "Client.Exchange"
	if md == nil {
		return nil, fmt.Errorf("%s: provider metadata is nil: %w", op, ErrNilParameter)
	}
	if code == "" {
		return nil, fmt.Errorf("%s: authorization code is empty: %w", op, ErrInvalidParameter)
	}
	c.logger.Debug("retrieving tokens", "token_endpoint", md.TokenEndpoint)

	oauth2Config := oauth2.Config{
		ClientID:     c.config.ClientID,
		ClientSecret: string(c.config.ClientSecret),
		RedirectURL:  callbackURL,
		Endpoint: oauth2.Endpoint{
			TokenURL: md.TokenEndpoint,
			// confidential client: always authenticate with HTTP Basic
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	oauth2Token, err := oauth2Config.Exchange(ClientContext(ctx, c.client), code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			if retrieveErr.ErrorCode == "" {
				return nil, fmt.Errorf("%s: token request failed with status %d and no error code: %w",
					op, retrieveErr.Response.StatusCode, ErrProviderUnreachable)
			}
			return nil, &TokenError{Code: retrieveErr.ErrorCode}
		}
		return nil, fmt.Errorf("%s: unable to reach token endpoint: %v: %w", op, err, ErrProviderUnreachable)
	}

	idToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok || idToken == "" {
		return nil, fmt.Errorf("%s: id_token is missing from token response: %w", op, ErrMissingIDToken)
	}

	t := &Token{
		AccessToken:  AccessToken(oauth2Token.AccessToken),
		RefreshToken: oauth2Token.RefreshToken,
		Expiry:       oauth2Token.Expiry,
		IDToken:      IDToken(idToken),
	}
	if c.config.SigningAlg != "" {
		if err := c.verifyIDToken(ctx, md, t.IDToken); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return t, nil
}
