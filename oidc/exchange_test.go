package oidc

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCallbackURL = "https://sonar.example.com/oauth2/callback/oidc"

// testProviderClient creates a Client wired to the given TestProvider.
func testProviderClient(t *testing.T, tp *TestProvider, opt ...Option) *Client {
	t.Helper()
	opt = append([]Option{WithProviderCA(tp.CACert())}, opt...)
	c, err := NewConfig(tp.Addr(), tp.ClientID(), ClientSecret(tp.ClientSecret()), opt...)
	require.NoError(t, err)
	client, err := NewClient(c)
	require.NoError(t, err)
	return client
}

func TestClient_Exchange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		client := testProviderClient(t, tp, WithSigningAlg(ES256))
		md, err := client.ProviderMetadata(ctx)
		require.NoError(err)

		token, err := client.Exchange(ctx, tp.AuthCode(), testCallbackURL, md)
		require.NoError(err)
		require.NotNil(token)
		assert.True(token.Valid())
		assert.NotEmpty(string(token.IDToken))

		claims, err := parseIDTokenClaims(token.IDToken)
		require.NoError(err)
		assert.Equal("8f63a486-6e75-4f6a-a343-6f7f4f2a6e75", claims.Subject())
	})
	t.Run("empty-code", func(t *testing.T) {
		t.Parallel()
		tp := StartTestProvider(t)
		client := testProviderClient(t, tp)
		md, err := client.ProviderMetadata(ctx)
		require.NoError(t, err)
		_, err = client.Exchange(ctx, "", testCallbackURL, md)
		require.ErrorIs(t, err, ErrInvalidParameter)
	})
	t.Run("nil-metadata", func(t *testing.T) {
		t.Parallel()
		tp := StartTestProvider(t)
		client := testProviderClient(t, tp)
		_, err := client.Exchange(ctx, tp.AuthCode(), testCallbackURL, nil)
		require.ErrorIs(t, err, ErrNilParameter)
	})
	t.Run("rejected-code", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		client := testProviderClient(t, tp)
		md, err := client.ProviderMetadata(ctx)
		require.NoError(err)

		_, err = client.Exchange(ctx, "stolen_code", testCallbackURL, md)
		require.Error(err)
		var tokenErr *TokenError
		require.True(errors.As(err, &tokenErr))
		assert.Equal("invalid_grant", tokenErr.Code)
		assert.ErrorIs(err, ErrTokenExchangeFailed)
	})
	t.Run("rejected-with-error-code", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		tp := StartTestProvider(t)
		client := testProviderClient(t, tp)
		md, err := client.ProviderMetadata(ctx)
		require.NoError(err)
		tp.SetTokenError("temporarily_unavailable", http.StatusServiceUnavailable)

		_, err = client.Exchange(ctx, tp.AuthCode(), testCallbackURL, md)
		var tokenErr *TokenError
		require.True(errors.As(err, &tokenErr))
		assert.Equal("temporarily_unavailable", tokenErr.Code)
	})
	t.Run("rejected-without-error-code", func(t *testing.T) {
		t.Parallel()
		tp := StartTestProvider(t)
		client := testProviderClient(t, tp)
		md, err := client.ProviderMetadata(ctx)
		require.NoError(t, err)
		tp.SetTokenError("", http.StatusBadGateway)

		// a proxy answering in the provider's place has no oauth2 error code
		_, err = client.Exchange(ctx, tp.AuthCode(), testCallbackURL, md)
		require.ErrorIs(t, err, ErrProviderUnreachable)
	})
	t.Run("token-endpoint-unreachable", func(t *testing.T) {
		t.Parallel()
		tp := StartTestProvider(t)
		client := testProviderClient(t, tp)
		md, err := client.ProviderMetadata(ctx)
		require.NoError(t, err)
		md.TokenEndpoint = "https://localhost:1/token"

		_, err = client.Exchange(ctx, tp.AuthCode(), testCallbackURL, md)
		require.ErrorIs(t, err, ErrProviderUnreachable)
	})
	t.Run("missing-id-token", func(t *testing.T) {
		t.Parallel()
		tp := StartTestProvider(t)
		client := testProviderClient(t, tp)
		md, err := client.ProviderMetadata(ctx)
		require.NoError(t, err)
		tp.SetOmitIDToken(true)

		_, err = client.Exchange(ctx, tp.AuthCode(), testCallbackURL, md)
		require.ErrorIs(t, err, ErrMissingIDToken)
	})
}

func TestClient_Exchange_idTokenValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	exchange := func(t *testing.T, tp *TestProvider, opt ...Option) error {
		t.Helper()
		client := testProviderClient(t, tp, opt...)
		md, err := client.ProviderMetadata(ctx)
		require.NoError(t, err)
		_, err = client.Exchange(ctx, tp.AuthCode(), testCallbackURL, md)
		return err
	}

	t.Run("wrong-signing-alg", func(t *testing.T) {
		t.Parallel()
		tp := StartTestProvider(t)
		err := exchange(t, tp, WithSigningAlg(RS256))
		require.ErrorIs(t, err, ErrInvalidIDToken)
	})
	t.Run("wrong-issuer-claim", func(t *testing.T) {
		t.Parallel()
		tp := StartTestProvider(t)
		tp.SetClaimIssuer("https://somebody-else.example.com")
		err := exchange(t, tp, WithSigningAlg(ES256))
		require.ErrorIs(t, err, ErrInvalidIDToken)
	})
	t.Run("wrong-audience-claim", func(t *testing.T) {
		t.Parallel()
		tp := StartTestProvider(t)
		tp.SetClaimAudience("some-other-rp")
		err := exchange(t, tp, WithSigningAlg(ES256))
		require.ErrorIs(t, err, ErrInvalidIDToken)
	})
	t.Run("audience-list-including-client", func(t *testing.T) {
		t.Parallel()
		tp := StartTestProvider(t)
		tp.SetClaimAudience("some-other-rp", tp.ClientID())
		err := exchange(t, tp, WithSigningAlg(ES256))
		require.NoError(t, err)
	})
	t.Run("expired-id-token", func(t *testing.T) {
		t.Parallel()
		tp := StartTestProvider(t)
		tp.SetExpectedExpiry(time.Now().Add(-1 * time.Hour))
		err := exchange(t, tp, WithSigningAlg(ES256))
		require.ErrorIs(t, err, ErrInvalidIDToken)
	})
	t.Run("signature-by-unknown-key", func(t *testing.T) {
		t.Parallel()
		tp := StartTestProvider(t)
		tp.SetInvalidJWKS(true)
		err := exchange(t, tp, WithSigningAlg(ES256))
		require.ErrorIs(t, err, ErrInvalidIDToken)
	})
	t.Run("key-set-unreachable", func(t *testing.T) {
		t.Parallel()
		tp := StartTestProvider(t)
		tp.SetDisableJWKS(true)
		err := exchange(t, tp, WithSigningAlg(ES256))
		require.ErrorIs(t, err, ErrProviderUnreachable)
	})
	t.Run("validation-skipped-without-configured-alg", func(t *testing.T) {
		t.Parallel()
		// no signing algorithm configured: the id_token is trusted as-is,
		// even with an issuer claim that would never validate
		tp := StartTestProvider(t)
		tp.SetClaimIssuer("https://somebody-else.example.com")
		err := exchange(t, tp)
		require.NoError(t, err)
	})
}
