package oidc

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"encoding/pem"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

// TestProvider is a local http server that stands in for an OpenID Connect
// identity provider in tests. It implements the subset of provider behavior
// this package relies on:
//
//   - GET /.well-known/openid-configuration
//   - GET /authorize
//   - POST /token (HTTP Basic client authentication)
//   - GET /certs (the provider's key set)
//   - GET /userinfo (bearer authentication)
//
// The zero-configuration happy path issues an ES256-signed id_token for the
// subject "8f63a486-6e75-4f6a-a343-6f7f4f2a6e75" when the authorization code
// "valid_code" is redeemed with the right client credentials. The Set*
// methods bend individual endpoints out of shape so the error paths can be
// exercised.
type TestProvider struct {
	httpServer *httptest.Server
	caCert     string

	clientID     string
	clientSecret string
	authCode     string
	accessToken  string

	jwks       *jose.JSONWebKeySet
	signingKey *ecdsa.PrivateKey

	mu               sync.Mutex
	invalidJWKS      bool
	discoveryIssuer  string
	claimIssuer      string
	claimAudience    []string
	expiry           time.Time
	customClaims     map[string]interface{}
	omitIDToken      bool
	tokenErrorCode   string
	tokenErrorStatus int
	disableJWKS      bool
	replyUserinfo    map[string]interface{}
	userinfoError    string
	disableUserinfo  bool

	t *testing.T
}

// StartTestProvider creates and starts a running TestProvider http server.
// The server's TLS CA cert is available via CACert for client configuration,
// and the server is stopped when the test and all its subtests complete.
func StartTestProvider(t *testing.T) *TestProvider {
	t.Helper()
	require := require.New(t)

	signingKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(err)

	p := &TestProvider{
		t:            t,
		clientID:     "test-rp-id",
		clientSecret: "fido-secret",
		authCode:     "valid_code",
		accessToken:  "notreallyanaccesstoken",
		signingKey:   signingKey,
		jwks: &jose.JSONWebKeySet{
			Keys: []jose.JSONWebKey{
				{Key: signingKey.Public(), KeyID: "test-key", Algorithm: string(ES256), Use: "sig"},
			},
		},
		expiry: time.Now().Add(5 * time.Minute),
		replyUserinfo: map[string]interface{}{
			"sub":   "8f63a486-6e75-4f6a-a343-6f7f4f2a6e75",
			"name":  "John Doo",
			"email": "john.doo@acme.com",
		},
	}

	p.httpServer = httptest.NewUnstartedServer(p)
	p.httpServer.Config.ErrorLog = log.New(io.Discard, "", 0)
	p.httpServer.StartTLS()
	t.Cleanup(p.httpServer.Close)

	cert := p.httpServer.Certificate()
	pemBuf := pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: cert.Raw,
	})
	p.caCert = string(pemBuf)

	return p
}

// Addr returns the provider's url, which is also its issuer.
func (p *TestProvider) Addr() string { return p.httpServer.URL }

// CACert returns the pem-encoded CA certificate used by the provider's
// HTTPS service.
func (p *TestProvider) CACert() string { return p.caCert }

// ClientID returns the client id the provider accepts at the token endpoint.
func (p *TestProvider) ClientID() string { return p.clientID }

// ClientSecret returns the client secret the provider accepts at the token
// endpoint.
func (p *TestProvider) ClientSecret() string { return p.clientSecret }

// AuthCode returns the one authorization code the provider will redeem.
func (p *TestProvider) AuthCode() string { return p.authCode }

// SetDiscoveryIssuer overrides the issuer announced in the discovery
// document, without moving the server.
func (p *TestProvider) SetDiscoveryIssuer(issuer string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.discoveryIssuer = issuer
}

// SetClaimIssuer overrides the iss claim written into issued id_tokens.
func (p *TestProvider) SetClaimIssuer(issuer string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.claimIssuer = issuer
}

// SetClaimAudience overrides the aud claim written into issued id_tokens.
func (p *TestProvider) SetClaimAudience(aud ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.claimAudience = aud
}

// SetExpectedExpiry overrides the exp claim written into issued id_tokens.
func (p *TestProvider) SetExpectedExpiry(exp time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expiry = exp
}

// SetCustomClaims adds claims to issued id_tokens.
func (p *TestProvider) SetCustomClaims(claims map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customClaims = claims
}

// SetOmitIDToken makes the token endpoint reply without an id_token.
func (p *TestProvider) SetOmitIDToken(omit bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.omitIDToken = omit
}

// SetTokenError makes the token endpoint reject every request with the given
// http status. An empty code produces a bare rejection with no oauth2 error
// body.
func (p *TestProvider) SetTokenError(code string, status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenErrorCode = code
	p.tokenErrorStatus = status
}

// SetDisableJWKS makes the key set endpoint reply 404, so signature
// validation cannot fetch the provider's keys.
func (p *TestProvider) SetDisableJWKS(disable bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disableJWKS = disable
}

// SetInvalidJWKS makes the key set endpoint publish a key unrelated to the
// one id_tokens are signed with.
func (p *TestProvider) SetInvalidJWKS(invalid bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidJWKS = invalid
}

// SetUserInfoReply sets the claims returned by the userinfo endpoint.
func (p *TestProvider) SetUserInfoReply(claims map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replyUserinfo = claims
}

// SetUserInfoError makes the userinfo endpoint reject every request with the
// given bearer error code.
func (p *TestProvider) SetUserInfoError(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userinfoError = code
}

// SetDisableUserInfo makes the userinfo endpoint reply 404 with no error
// code, the way a proxy answering in the provider's place would.
func (p *TestProvider) SetDisableUserInfo(disable bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disableUserinfo = disable
}

// signIDTokenLocked issues an id_token signed with the provider's key,
// carrying the current issuer/audience/expiry knobs. Callers hold p.mu.
func (p *TestProvider) signIDTokenLocked() string {
	require := require.New(p.t)

	issuer := p.httpServer.URL
	if p.claimIssuer != "" {
		issuer = p.claimIssuer
	}
	aud := jwt.Audience{p.clientID}
	if p.claimAudience != nil {
		aud = jwt.Audience(p.claimAudience)
	}
	claims := jwt.Claims{
		Subject:  "8f63a486-6e75-4f6a-a343-6f7f4f2a6e75",
		Issuer:   issuer,
		Audience: aud,
		Expiry:   jwt.NewNumericDate(p.expiry),
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}

	sig, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.ES256, Key: p.signingKey},
		(&jose.SignerOptions{}).WithType("JWT").WithHeader("kid", "test-key"),
	)
	require.NoError(err)

	builder := jwt.Signed(sig).Claims(claims)
	if p.customClaims != nil {
		builder = builder.Claims(p.customClaims)
	}
	raw, err := builder.CompactSerialize()
	require.NoError(err)
	return raw
}

func (p *TestProvider) writeJSON(w http.ResponseWriter, out interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		p.t.Errorf("unable to encode response: %v", err)
	}
}

// ServeHTTP implements the provider's endpoints; see TestProvider.
func (p *TestProvider) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch req.URL.Path {
	case "/.well-known/openid-configuration":
		issuer := p.httpServer.URL
		if p.discoveryIssuer != "" {
			issuer = p.discoveryIssuer
		}
		p.writeJSON(w, map[string]string{
			"issuer":                 issuer,
			"authorization_endpoint": p.httpServer.URL + "/authorize",
			"token_endpoint":         p.httpServer.URL + "/token",
			"userinfo_endpoint":      p.httpServer.URL + "/userinfo",
			"jwks_uri":               p.httpServer.URL + "/certs",
		})

	case "/authorize":
		// interactive login isn't modeled; tests drive the callback directly
		w.WriteHeader(http.StatusNotImplemented)

	case "/token":
		if p.tokenErrorStatus != 0 {
			if p.tokenErrorCode == "" {
				w.WriteHeader(p.tokenErrorStatus)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(p.tokenErrorStatus)
			if err := json.NewEncoder(w).Encode(map[string]string{"error": p.tokenErrorCode}); err != nil {
				p.t.Errorf("unable to encode response: %v", err)
			}
			return
		}
		id, secret, ok := req.BasicAuth()
		if !ok || id != p.clientID || secret != p.clientSecret {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			if err := json.NewEncoder(w).Encode(map[string]string{"error": "invalid_client"}); err != nil {
				p.t.Errorf("unable to encode response: %v", err)
			}
			return
		}
		if err := req.ParseForm(); err != nil || req.FormValue("grant_type") != "authorization_code" || req.FormValue("code") != p.authCode {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			if err := json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"}); err != nil {
				p.t.Errorf("unable to encode response: %v", err)
			}
			return
		}
		reply := map[string]interface{}{
			"access_token": p.accessToken,
			"token_type":   "Bearer",
			"expires_in":   3600,
		}
		if !p.omitIDToken {
			reply["id_token"] = p.signIDTokenLocked()
		}
		p.writeJSON(w, reply)

	case "/certs":
		if p.disableJWKS {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if p.invalidJWKS {
			unrelated, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
			if err != nil {
				p.t.Errorf("unable to generate key: %v", err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			p.writeJSON(w, &jose.JSONWebKeySet{
				Keys: []jose.JSONWebKey{
					{Key: unrelated.Public(), KeyID: "test-key", Algorithm: string(ES256), Use: "sig"},
				},
			})
			return
		}
		p.writeJSON(w, p.jwks)

	case "/userinfo":
		if p.disableUserinfo {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if p.userinfoError != "" {
			w.Header().Set("WWW-Authenticate", `Bearer error="`+p.userinfoError+`"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if req.Header.Get("Authorization") != "Bearer "+p.accessToken {
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		p.writeJSON(w, p.replyUserinfo)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
