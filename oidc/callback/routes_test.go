package callback

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaulttec/oidcauth/oidc"
)

func TestRoutes(t *testing.T) {
	t.Parallel()

	mount := func(t *testing.T, opt ...oidc.Option) (*oidc.TestProvider, chi.Router) {
		t.Helper()
		tp, p := testLoginProvider(t, opt...)
		loginPage := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("login page"))
		})
		commit := func(*oidc.Identity, http.ResponseWriter, *http.Request) error { return nil }
		r := chi.NewRouter()
		Routes(r, p, NewMemoryStateStore(0), loginPage, commit, DefaultErrorFunc(nil))
		return tp, r
	}

	t.Run("init-route", func(t *testing.T) {
		t.Parallel()
		_, r := mount(t)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/init/oidc", nil))
		assert.Equal(t, http.StatusFound, rec.Code)
	})
	t.Run("other-mechanism-is-not-ours", func(t *testing.T) {
		t.Parallel()
		_, r := mount(t)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/init/saml", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth2/callback/saml?code=x", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
	t.Run("callback-route", func(t *testing.T) {
		t.Parallel()
		tp, r := mount(t)
		// forged state: the route is reachable, the attempt fails
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/oauth2/callback/oidc?code="+tp.AuthCode()+"&state=never-issued", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
	t.Run("login-page-without-auto-login", func(t *testing.T) {
		t.Parallel()
		assert := assert.New(t)
		_, r := mount(t)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, oidc.LoginPath, nil))
		assert.Equal(http.StatusOK, rec.Code)
		assert.Equal("login page", rec.Body.String())
	})
	t.Run("login-page-with-auto-login", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		_, r := mount(t, oidc.WithAutoLogin())
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, oidc.LoginPath, nil))
		require.Equal(http.StatusFound, rec.Code)
		assert.Contains(rec.Header().Get("Location"), oidc.InitPathPrefix+oidc.ProviderKey)
	})
}
