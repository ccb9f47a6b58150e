package oidc

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-hclog"
)

// ProviderKey identifies this authentication mechanism at the host, for
// example in the host's login routes (/sessions/init/<key>).
const ProviderKey = "oidc"

// InitContext is the host collaborator for the first phase of a login
// attempt. The host owns anti-forgery state issuance and the outgoing
// response.
type InitContext interface {
	// GenerateCSRFState returns an opaque, single-use state value bound to
	// this login attempt.
	GenerateCSRFState() (string, error)

	// CallbackURL is the absolute URL the provider redirects back to.
	CallbackURL() string

	// Redirect sends the user agent to the given URL.
	Redirect(url string)
}

// CallbackContext is the host collaborator for the second phase of a login
// attempt: the provider's redirect back. The host owns anti-forgery state
// verification, the final authentication commit and the outgoing response.
type CallbackContext interface {
	// VerifyCSRFState checks the state of the callback request against the
	// state issued for this attempt. A non-nil error is fatal for the whole
	// attempt.
	VerifyCSRFState() error

	// CallbackURL is the absolute URL the provider redirected back to; it
	// must equal the URL the authorization code was issued for.
	CallbackURL() string

	// Request is the callback request as received from the provider.
	Request() *http.Request

	// Authenticate commits the identity at the host.
	Authenticate(identity *Identity) error

	// RedirectToRequestedPage sends the user agent to the page originally
	// requested before the login started. The target is host-tracked.
	RedirectToRequestedPage()
}

// Display customizes how the host renders this mechanism's login button.
type Display struct {
	IconPath        string
	BackgroundColor string
}

// Provider orchestrates the two-phase login flow and is the surface the host
// plugs in. Each login attempt is handled synchronously on the goroutine
// serving the request; the Provider itself holds no per-attempt state and is
// safe for concurrent attempts.
type Provider struct {
	config *Config
	client *Client
	logger hclog.Logger
}

// NewProvider creates a Provider for the given config.
func NewProvider(c *Config) (*Provider, error) {
	const op = "oidc.NewProvider"
	if c == nil {
		return nil, fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	client, err := NewClient(c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger := c.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if c.Enabled && c.SigningAlg == "" {
		// configuration-gated reduced security, make it visible in the logs
		logger.Warn("no id_token signing algorithm configured: signature validation is disabled " +
			"and the id_token returned by the provider is trusted as-is")
	}
	return &Provider{
		config: c,
		client: client,
		logger: logger,
	}, nil
}

// Config returns the provider's configuration.
func (p *Provider) Config() *Config { return p.config }

// Key returns the mechanism key used in the host's login routes.
func (p *Provider) Key() string { return ProviderKey }

// Name returns the human readable name of the mechanism (the login button
// text).
func (p *Provider) Name() string { return p.config.LoginButtonText }

// Display returns the login button customization.
func (p *Provider) Display() Display {
	return Display{
		IconPath:        p.config.IconPath,
		BackgroundColor: p.config.BackgroundColor,
	}
}

// IsEnabled reports whether this mechanism is active.
func (p *Provider) IsEnabled() bool { return p.config.Enabled }

// AllowsUsersToSignUp reports whether unknown users may create an account on
// first login.
func (p *Provider) AllowsUsersToSignUp() bool { return p.config.AllowSignUp }

// Init begins a login attempt: it obtains an anti-forgery state value from
// the host, builds the authentication request and redirects the user agent
// to the provider's authorization endpoint. No server-side flow state is
// retained beyond what the host's anti-forgery service owns.
func (p *Provider) Init(ctx context.Context, ic InitContext) error {
	const op = "Provider.Init"
	if !p.config.Enabled {
		return fmt.Errorf("%s: %w", op, ErrAuthDisabled)
	}
	p.logger.Debug("starting authentication workflow")

	state, err := ic.GenerateCSRFState()
	if err != nil {
		return fmt.Errorf("%s: unable to generate state: %w", op, err)
	}
	u, err := p.client.AuthenticationRequestURL(ctx, ic.CallbackURL(), state)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	p.logger.Debug("redirecting to authorization endpoint")
	ic.Redirect(u)
	return nil
}

// Callback completes a login attempt from the provider's redirect back:
// verify the anti-forgery state, extract the authorization code, exchange it
// for validated tokens, resolve the user's claims, map them to the canonical
// identity, commit it at the host and send the user agent on to the page it
// originally requested. Every step is single-shot; the first failure aborts
// the whole attempt.
func (p *Provider) Callback(ctx context.Context, cc CallbackContext) error {
	const op = "Provider.Callback"
	if !p.config.Enabled {
		return fmt.Errorf("%s: %w", op, ErrAuthDisabled)
	}
	p.logger.Debug("handling authentication response")

	if err := cc.VerifyCSRFState(); err != nil {
		return fmt.Errorf("%s: %v: %w", op, err, ErrCSRFVerificationFailed)
	}
	code, err := ParseAuthorizationResponse(cc.Request().URL.RawQuery)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	md, err := p.client.ProviderMetadata(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	token, err := p.client.Exchange(ctx, code, cc.CallbackURL(), md)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	claims, err := p.client.UserClaims(ctx, token, md)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	identity, err := MapIdentity(claims, p.config)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.logger.Debug("authenticating user", "login", identity.Login, "groups", identity.Groups)
	if err := cc.Authenticate(identity); err != nil {
		return fmt.Errorf("%s: unable to authenticate user: %w", op, err)
	}
	p.logger.Debug("redirecting to requested page")
	cc.RedirectToRequestedPage()
	return nil
}
