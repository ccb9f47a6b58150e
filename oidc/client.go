package oidc

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-hclog"
)

// Client implements the relying party side of the oidc authorization code
// flow against one provider: metadata resolution, authentication request
// construction, code-for-token exchange with id_token validation, and user
// claim resolution.
//
// A Client holds no per-attempt state; all per-login data is local to each
// method call, so a single Client is safe for concurrent login attempts.
type Client struct {
	config *Config
	client *http.Client
	logger hclog.Logger
}

// NewClient creates a Client from the given config. No network calls are
// made; the provider's metadata is resolved fresh per flow.
func NewClient(c *Config) (*Client, error) {
	const op = "oidc.NewClient"
	if c == nil {
		return nil, fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	client, err := c.HTTPClient()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger := c.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Client{
		config: c,
		client: client,
		logger: logger,
	}, nil
}

// ProviderMetadata resolves the provider's endpoint set from its well-known
// metadata document.
func (c *Client) ProviderMetadata(ctx context.Context) (*ProviderMetadata, error) {
	c.logger.Debug("retrieving provider metadata", "issuer", c.config.Issuer)
	return ResolveProviderMetadata(ctx, c.client, c.config.Issuer)
}

// AuthenticationRequestURL resolves the provider's metadata and builds the
// URL of the authentication request for one login attempt. The state value
// comes from the host's anti-forgery mechanism and is carried verbatim.
func (c *Client) AuthenticationRequestURL(ctx context.Context, callbackURL string, state string) (string, error) {
	const op = "Client.AuthenticationRequestURL"
	md, err := c.ProviderMetadata(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	u, err := AuthURL(callbackURL, state, md, c.config.ClientID, c.config.Scopes)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	c.logger.Debug("created authentication request", "authorization_endpoint", md.AuthorizationEndpoint)
	return u, nil
}
