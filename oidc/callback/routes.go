package callback

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vaulttec/oidcauth/oidc"
)

// Routes mounts the login endpoints on the given router:
//
//	GET /sessions/init/{provider}    - begin a login attempt
//	GET /oauth2/callback/{provider}  - the provider's redirect back
//	GET /sessions/new                - the host's login page, wrapped with
//	                                   the auto-login interception
//
// loginPage is the host's own login page handler; it is served unmodified
// when auto-login is off or opted out of.
func Routes(r chi.Router, p *oidc.Provider, store StateStore, loginPage http.Handler, cFn CommitFunc, eFn ErrorFunc) {
	callbackURL := CallbackURL(p.Config())

	r.Get(oidc.InitPathPrefix+"{provider}", forProvider(p, Init(p, store, callbackURL, eFn)))
	r.Get("/oauth2/callback/{provider}", forProvider(p, AuthCode(p, store, callbackURL, cFn, eFn)))
	r.Method(http.MethodGet, oidc.LoginPath, oidc.AutoLoginHandler(p.Config(), loginPage))
}

// forProvider serves next only when the route's provider key matches this
// mechanism, so hosts can mount several mechanisms on the same pattern.
func forProvider(p *oidc.Provider, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if chi.URLParam(req, "provider") != p.Key() {
			http.NotFound(w, req)
			return
		}
		next(w, req)
	}
}
