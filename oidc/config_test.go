package oidc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		issuer       string
		clientID     string
		clientSecret ClientSecret
		opt          []Option
		wantErr      bool
		wantIsErr    error
	}{
		{
			name:         "valid-with-defaults",
			issuer:       "https://accounts.example.com",
			clientID:     "client-id",
			clientSecret: "client-secret",
		},
		{
			name:         "valid-with-everything",
			issuer:       "https://accounts.example.com",
			clientID:     "client-id",
			clientSecret: "client-secret",
			opt: []Option{
				WithScopes("openid", "profile"),
				WithSigningAlg(RS256),
				WithLoginStrategy(LoginStrategyEmail),
				WithGroupSync("roles"),
				WithAutoLogin(),
				WithAllowSignUp(),
				WithHostURLs("https://sonar.example.com", ""),
				WithDisplay("Corp Login", "/static/icon.svg", "#205081"),
			},
		},
		{
			name:         "http-issuer-is-allowed",
			issuer:       "http://localhost:8080/auth/realms/dev",
			clientID:     "client-id",
			clientSecret: "client-secret",
		},
		{
			name:         "empty-client-id",
			issuer:       "https://accounts.example.com",
			clientID:     "",
			clientSecret: "client-secret",
			wantErr:      true,
			wantIsErr:    ErrInvalidParameter,
		},
		{
			name:         "empty-client-secret",
			issuer:       "https://accounts.example.com",
			clientID:     "client-id",
			clientSecret: "",
			wantErr:      true,
			wantIsErr:    ErrInvalidParameter,
		},
		{
			name:         "empty-issuer",
			issuer:       "",
			clientID:     "client-id",
			clientSecret: "client-secret",
			wantErr:      true,
			wantIsErr:    ErrInvalidParameter,
		},
		{
			name:         "bad-issuer-scheme",
			issuer:       "ldap://accounts.example.com",
			clientID:     "client-id",
			clientSecret: "client-secret",
			wantErr:      true,
			wantIsErr:    ErrInvalidParameter,
		},
		{
			name:         "unsupported-signing-alg",
			issuer:       "https://accounts.example.com",
			clientID:     "client-id",
			clientSecret: "client-secret",
			opt:          []Option{WithSigningAlg("none")},
			wantErr:      true,
			wantIsErr:    ErrInvalidParameter,
		},
		{
			name:         "unsupported-login-strategy",
			issuer:       "https://accounts.example.com",
			clientID:     "client-id",
			clientSecret: "client-secret",
			opt:          []Option{WithLoginStrategy("first_name")},
			wantErr:      true,
			wantIsErr:    ErrUnsupportedStrategy,
		},
		{
			name:         "custom-claim-strategy-without-claim-name",
			issuer:       "https://accounts.example.com",
			clientID:     "client-id",
			clientSecret: "client-secret",
			opt:          []Option{WithLoginStrategy(LoginStrategyCustomClaim)},
			wantErr:      true,
			wantIsErr:    ErrInvalidParameter,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			c, err := NewConfig(tt.issuer, tt.clientID, tt.clientSecret, tt.opt...)
			if tt.wantErr {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				assert.Nil(c)
				return
			}
			require.NoError(err)
			require.NotNil(c)
			assert.Equal(tt.issuer, c.Issuer)
			assert.Equal(tt.clientID, c.ClientID)
		})
	}
	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		c, err := NewConfig("https://accounts.example.com", "client-id", "client-secret")
		require.NoError(err)
		assert.True(c.Enabled)
		assert.Equal(DefaultScopes, c.Scopes)
		assert.Equal(DefaultLoginStrategy, c.LoginStrategy)
		assert.Equal(DefaultGroupsClaim, c.GroupsClaim)
		assert.Equal("OpenID Connect", c.LoginButtonText)
		assert.Empty(c.SigningAlg)
		assert.False(c.SyncGroups)
		assert.False(c.AutoLogin)
		assert.False(c.AllowSignUp)
	})
	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		c, err := NewConfig("https://accounts.example.com", "client-id", "client-secret", WithDisabled())
		require.NoError(err)
		assert.False(c.Enabled)
	})
	t.Run("duplicate-scopes-removed", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		c, err := NewConfig("https://accounts.example.com", "client-id", "client-secret",
			WithScopes("openid", "email", "openid"))
		require.NoError(err)
		assert.Equal([]string{"openid", "email"}, c.Scopes)
	})
	t.Run("all-problems-reported", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		_, err := NewConfig("", "", "")
		require.Error(err)
		assert.Contains(err.Error(), "client id is empty")
		assert.Contains(err.Error(), "client secret is empty")
		assert.Contains(err.Error(), "issuer is empty")
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()
	t.Run("nil-config", func(t *testing.T) {
		t.Parallel()
		var c *Config
		err := c.Validate()
		assert.ErrorIs(t, err, ErrNilParameter)
	})
	t.Run("group-sync-without-claim", func(t *testing.T) {
		t.Parallel()
		c := &Config{
			Issuer:        "https://accounts.example.com",
			ClientID:      "client-id",
			ClientSecret:  "client-secret",
			LoginStrategy: DefaultLoginStrategy,
			SyncGroups:    true,
		}
		assert.ErrorIs(t, c.Validate(), ErrInvalidParameter)
	})
}

func TestConfig_HTTPClient(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	c, err := NewConfig("https://accounts.example.com", "client-id", "client-secret",
		WithProviderCA("not a pem"))
	require.NoError(err)
	client, err := c.HTTPClient()
	require.Error(err)
	assert.ErrorIs(err, ErrInvalidCACert)
	assert.Nil(client)
}

func TestClientSecret_redaction(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	secret := ClientSecret("super-secret")
	assert.Equal(RedactedClientSecret, secret.String())
	b, err := json.Marshal(secret)
	require.NoError(err)
	assert.Equal(`"`+RedactedClientSecret+`"`, string(b))
	assert.NotContains(string(b), "super-secret")
}
