package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	strutil "github.com/vaulttec/oidcauth/oidc/internal/strutils"
	sdkHttp "github.com/vaulttec/oidcauth/sdk/http"
)

type ClientSecret string

// RedactedClientSecret is the redacted string or json for an oauth client secret
const RedactedClientSecret = "[REDACTED: client secret]"

// String will redact the client secret
func (t ClientSecret) String() string {
	return RedactedClientSecret
}

// MarshalJSON will redact the client secret
func (t ClientSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedClientSecret)
}

// Alg represents asymmetric signing algorithms
type Alg string

const (
	RS256 Alg = "RS256"
	RS384 Alg = "RS384"
	RS512 Alg = "RS512"
	ES256 Alg = "ES256"
	ES384 Alg = "ES384"
	ES512 Alg = "ES512"
	PS256 Alg = "PS256"
	PS384 Alg = "PS384"
	PS512 Alg = "PS512"
)

var supportedAlgorithms = map[Alg]bool{
	RS256: true, RS384: true, RS512: true,
	ES256: true, ES384: true, ES512: true,
	PS256: true, PS384: true, PS512: true,
}

// DefaultScopes are requested from the provider when the host doesn't
// configure any.
var DefaultScopes = []string{"openid", "email", "profile"}

// DefaultGroupsClaim is the claim read for group synchronization when the
// host doesn't configure one.
const DefaultGroupsClaim = "groups"

// Config represents the host-supplied configuration for authenticating
// against one OpenID Connect identity provider.
type Config struct {
	// Enabled reports whether this authentication mechanism is active.
	Enabled bool

	// Issuer is a case-sensitive URL using the https (or http) scheme with no
	// query or fragment components. Provider metadata is resolved from its
	// well-known endpoint and the issuer declared there must equal this
	// value.
	Issuer string

	// ClientID is the relying party id
	ClientID string

	// ClientSecret is the relying party secret
	ClientSecret ClientSecret

	// Scopes is the list of oidc scopes to request of the provider. The
	// required "openid" scope is always requested, whether listed or not.
	Scopes []string

	// SigningAlg is the signing algorithm the provider is required to use
	// for id_tokens. When empty, id_token signature/issuer/audience
	// validation is skipped entirely: the token returned by the provider is
	// trusted as-is. That is a deployment-level trust decision (for example
	// a provider only reachable over a private network), not a default worth
	// having - set an algorithm whenever the provider supports one.
	SigningAlg Alg

	// LoginStrategy selects the claim used as the canonical login.
	LoginStrategy LoginStrategy

	// CustomClaimName is the claim read by LoginStrategyCustomClaim.
	CustomClaimName string

	// SyncGroups enables mapping of the GroupsClaim to host-side group
	// memberships.
	SyncGroups bool

	// GroupsClaim is the claim holding the user's group memberships.
	GroupsClaim string

	// AutoLogin redirects requests for the host's login page straight into
	// the oidc flow (see AutoLoginHandler).
	AutoLogin bool

	// AllowSignUp lets unknown users create an account on first login.
	AllowSignUp bool

	// BaseURL is the host server's externally visible base URL, used by the
	// auto-login redirect.
	BaseURL string

	// ContextPath is the host server's context path ("" when served from
	// the root), used by the auto-login redirect.
	ContextPath string

	// LoginButtonText, IconPath and BackgroundColor customize the login
	// button rendered by the host. Presentation only.
	LoginButtonText string
	IconPath        string
	BackgroundColor string

	// ProviderCA is an optional CA cert to use when sending requests to the provider.
	ProviderCA string

	// Logger is an optional logger; hclog.NewNullLogger() is used when nil.
	Logger hclog.Logger

	// client is an optional http client override (WithHTTPClient), used by
	// tests.
	client *http.Client
}

// NewConfig composes a new config for a provider. The config is enabled by
// default.
// Supported options: WithScopes, WithSigningAlg, WithLoginStrategy,
// WithCustomClaimName, WithGroupSync, WithAutoLogin, WithAllowSignUp,
// WithHostURLs, WithDisplay, WithProviderCA, WithLogger, WithHTTPClient,
// WithDisabled
func NewConfig(issuer string, clientID string, clientSecret ClientSecret, opt ...Option) (*Config, error) {
	const op = "oidc.NewConfig"
	opts := getConfigOpts(opt...)
	c := &Config{
		Enabled:         !opts.withDisabled,
		Issuer:          issuer,
		ClientID:        clientID,
		ClientSecret:    clientSecret,
		Scopes:          opts.withScopes,
		SigningAlg:      opts.withSigningAlg,
		LoginStrategy:   opts.withLoginStrategy,
		CustomClaimName: opts.withCustomClaimName,
		SyncGroups:      opts.withSyncGroups,
		GroupsClaim:     opts.withGroupsClaim,
		AutoLogin:       opts.withAutoLogin,
		AllowSignUp:     opts.withAllowSignUp,
		BaseURL:         opts.withBaseURL,
		ContextPath:     opts.withContextPath,
		LoginButtonText: opts.withLoginButtonText,
		IconPath:        opts.withIconPath,
		BackgroundColor: opts.withBackgroundColor,
		ProviderCA:      opts.withProviderCA,
		Logger:          opts.withLogger,
		client:          opts.withHTTPClient,
	}
	if len(c.Scopes) == 0 {
		c.Scopes = append([]string{}, DefaultScopes...)
	}
	c.Scopes = strutil.RemoveDuplicatesStable(c.Scopes, false)
	if c.LoginStrategy == "" {
		c.LoginStrategy = DefaultLoginStrategy
	}
	if c.GroupsClaim == "" {
		c.GroupsClaim = DefaultGroupsClaim
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid config: %w", op, err)
	}
	return c, nil
}

// Validate the configuration. All problems are reported, not just the first
// one found. Among other validations it verifies the issuer is a well-formed
// URL, but it doesn't verify the issuer is discoverable via an http request.
func (c *Config) Validate() error {
	const op = "Config.Validate"
	if c == nil {
		return fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	var result *multierror.Error
	if c.ClientID == "" {
		result = multierror.Append(result, fmt.Errorf("client id is empty: %w", ErrInvalidParameter))
	}
	if c.ClientSecret == "" {
		result = multierror.Append(result, fmt.Errorf("client secret is empty: %w", ErrInvalidParameter))
	}
	switch u, err := url.Parse(c.Issuer); {
	case c.Issuer == "":
		result = multierror.Append(result, fmt.Errorf("issuer is empty: %w", ErrInvalidParameter))
	case err != nil:
		result = multierror.Append(result, fmt.Errorf("issuer %s is invalid: %v: %w", c.Issuer, err, ErrInvalidParameter))
	case u.Scheme != "https" && u.Scheme != "http":
		result = multierror.Append(result, fmt.Errorf("issuer %s scheme is not http or https: %w", c.Issuer, ErrInvalidParameter))
	}
	if c.SigningAlg != "" && !supportedAlgorithms[c.SigningAlg] {
		result = multierror.Append(result, fmt.Errorf("unsupported signing algorithm %s: %w", c.SigningAlg, ErrInvalidParameter))
	}
	if !supportedStrategies[c.LoginStrategy] {
		result = multierror.Append(result, fmt.Errorf("%q: %w", c.LoginStrategy, ErrUnsupportedStrategy))
	}
	if c.LoginStrategy == LoginStrategyCustomClaim && c.CustomClaimName == "" {
		result = multierror.Append(result, fmt.Errorf("custom claim name is empty: %w", ErrInvalidParameter))
	}
	if c.SyncGroups && c.GroupsClaim == "" {
		result = multierror.Append(result, fmt.Errorf("groups claim name is empty: %w", ErrInvalidParameter))
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// HTTPClient is a helper function that creates a new http client for the
// provider configured
func (c *Config) HTTPClient() (*http.Client, error) {
	const op = "Config.HTTPClient"
	if c.client != nil {
		return c.client, nil
	}
	client, err := sdkHttp.NewClient(c.ProviderCA)
	if err != nil {
		if errors.Is(err, sdkHttp.ErrInvalidCertificatePem) {
			return nil, fmt.Errorf("%s: could not parse CA PEM value: %w", op, ErrInvalidCACert)
		}
		return nil, fmt.Errorf("%s: could not get an http client: %w", op, err)
	}
	return client, nil
}

// ClientContext is a helper function that returns a new Context that carries
// the provided HTTP client. This method sets the same context key used by the
// github.com/coreos/go-oidc and golang.org/x/oauth2 packages, so the returned
// context works for those packages as well.
func ClientContext(ctx context.Context, client *http.Client) context.Context {
	// simple to implement as a wrapper for the coreos package
	return gooidc.ClientContext(ctx, client)
}

// configOptions is the set of available options
type configOptions struct {
	withDisabled        bool
	withScopes          []string
	withSigningAlg      Alg
	withLoginStrategy   LoginStrategy
	withCustomClaimName string
	withSyncGroups      bool
	withGroupsClaim     string
	withAutoLogin       bool
	withAllowSignUp     bool
	withBaseURL         string
	withContextPath     string
	withLoginButtonText string
	withIconPath        string
	withBackgroundColor string
	withProviderCA      string
	withLogger          hclog.Logger
	withHTTPClient      *http.Client
}

// configDefaults is a handy way to get the defaults at runtime and during
// unit tests.
func configDefaults() configOptions {
	return configOptions{
		withLoginButtonText: "OpenID Connect",
	}
}

// getConfigOpts gets the defaults and applies the opt overrides passed in.
func getConfigOpts(opt ...Option) configOptions {
	opts := configDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithDisabled composes a config for a mechanism the host has switched off.
func WithDisabled() Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withDisabled = true
		}
	}
}

// WithScopes provides an optional list of scopes to request of the provider
func WithScopes(scopes ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withScopes = scopes
		}
	}
}

// WithSigningAlg requires id_tokens to be signed with the given algorithm and
// enables signature validation against the provider's key set.
func WithSigningAlg(a Alg) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withSigningAlg = a
		}
	}
}

// WithLoginStrategy selects the claim used as the canonical login.
func WithLoginStrategy(s LoginStrategy) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withLoginStrategy = s
		}
	}
}

// WithCustomClaimName names the claim read by LoginStrategyCustomClaim.
func WithCustomClaimName(name string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withCustomClaimName = name
		}
	}
}

// WithGroupSync enables group synchronization from the given claim (pass ""
// for the default "groups" claim).
func WithGroupSync(claim string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withSyncGroups = true
			o.withGroupsClaim = claim
		}
	}
}

// WithAutoLogin redirects requests for the host's login page straight into
// the oidc flow.
func WithAutoLogin() Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withAutoLogin = true
		}
	}
}

// WithAllowSignUp lets unknown users create an account on first login.
func WithAllowSignUp() Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withAllowSignUp = true
		}
	}
}

// WithHostURLs provides the host server's base URL and context path, used by
// the auto-login redirect.
func WithHostURLs(baseURL, contextPath string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withBaseURL = baseURL
			o.withContextPath = contextPath
		}
	}
}

// WithDisplay customizes the login button rendered by the host.
func WithDisplay(buttonText, iconPath, backgroundColor string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			if buttonText != "" {
				o.withLoginButtonText = buttonText
			}
			o.withIconPath = iconPath
			o.withBackgroundColor = backgroundColor
		}
	}
}

// WithProviderCA provides an optional CA cert to trust when sending requests
// to the provider.
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withProviderCA = cert
		}
	}
}

// WithLogger provides an optional logger
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withLogger = l
		}
	}
}

// WithHTTPClient overrides the http client built from the config. Intended
// for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withHTTPClient = client
		}
	}
}
