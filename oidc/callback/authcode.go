package callback

import (
	"net/http"
	"strings"

	"github.com/vaulttec/oidcauth/oidc"
)

// returnToCookie tracks the page the user originally requested across the
// redirect round-trip to the provider.
const returnToCookie = "oidcauth_return_to"

// CallbackURL returns the absolute URL of the callback endpoint mounted by
// Routes, derived from the config's base URL.
func CallbackURL(c *oidc.Config) string {
	return strings.TrimSuffix(c.BaseURL, "/") + "/oauth2/callback/" + oidc.ProviderKey
}

// initContext adapts one http request/response pair to oidc.InitContext.
type initContext struct {
	store       StateStore
	callbackURL string
	w           http.ResponseWriter
	req         *http.Request
}

func (c *initContext) GenerateCSRFState() (string, error) {
	return c.store.Generate(c.req.Context())
}

func (c *initContext) CallbackURL() string { return c.callbackURL }

func (c *initContext) Redirect(url string) {
	http.Redirect(c.w, c.req, url, http.StatusFound)
}

// Init creates the handler for the initiate endpoint. A return_to query
// parameter, when present, is remembered in a cookie so the callback can
// send the user back to the page they originally requested.
func Init(p *oidc.Provider, store StateStore, callbackURL string, eFn ErrorFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if returnTo := req.URL.Query().Get("return_to"); returnTo != "" && strings.HasPrefix(returnTo, "/") {
			http.SetCookie(w, &http.Cookie{
				Name:     returnToCookie,
				Value:    returnTo,
				Path:     "/",
				HttpOnly: true,
			})
		}
		if err := p.Init(req.Context(), &initContext{
			store:       store,
			callbackURL: callbackURL,
			w:           w,
			req:         req,
		}); err != nil {
			eFn(err, w, req)
		}
	}
}

// callbackContext adapts one http request/response pair to
// oidc.CallbackContext.
type callbackContext struct {
	store       StateStore
	callbackURL string
	commit      CommitFunc
	w           http.ResponseWriter
	req         *http.Request
}

func (c *callbackContext) VerifyCSRFState() error {
	return c.store.Verify(c.req.Context(), c.req.FormValue("state"))
}

func (c *callbackContext) CallbackURL() string { return c.callbackURL }

func (c *callbackContext) Request() *http.Request { return c.req }

func (c *callbackContext) Authenticate(identity *oidc.Identity) error {
	return c.commit(identity, c.w, c.req)
}

func (c *callbackContext) RedirectToRequestedPage() {
	target := "/"
	if cookie, err := c.req.Cookie(returnToCookie); err == nil && strings.HasPrefix(cookie.Value, "/") {
		target = cookie.Value
	}
	http.SetCookie(c.w, &http.Cookie{
		Name:     returnToCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(c.w, c.req, target, http.StatusFound)
}

// AuthCode creates the handler for the provider's redirect back to the
// callback endpoint. On success the identity is committed via cFn and the
// user agent is redirected to the originally requested page; on failure eFn
// renders the response and nothing is committed.
func AuthCode(p *oidc.Provider, store StateStore, callbackURL string, cFn CommitFunc, eFn ErrorFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := p.Callback(req.Context(), &callbackContext{
			store:       store,
			callbackURL: callbackURL,
			commit:      cFn,
			w:           w,
			req:         req,
		}); err != nil {
			eFn(err, w, req)
		}
	}
}
