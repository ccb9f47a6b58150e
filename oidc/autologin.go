package oidc

import (
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"
)

const (
	// LoginPath is the host's login page, the path AutoLoginHandler is meant
	// to be mounted on.
	LoginPath = "/sessions/new"

	// InitPathPrefix is the host's route prefix for starting a login with a
	// given mechanism.
	InitPathPrefix = "/sessions/init/"

	// autoLoginSkipMarker opts a request out of auto-login when the referrer
	// ends with it.
	autoLoginSkipMarker = "auto-login=false"
)

// AutoLoginHandler intercepts requests for the host's login page and, when
// the mechanism is enabled with auto-login on, redirects them straight into
// the oidc flow with the host's projects page as the return target. A
// request whose Referer header ends with "auto-login=false" opts out and is
// passed through to next unmodified. Pure redirect logic, no protocol state.
func AutoLoginHandler(c *Config, next http.Handler) http.Handler {
	logger := hclog.NewNullLogger()
	if c != nil && c.Logger != nil {
		logger = c.Logger
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if c != nil && c.Enabled && c.AutoLogin {
			referrer := req.Header.Get("Referer")
			logger.Debug("auto-login check", "referrer", referrer)

			// Skip if disabled via request parameter
			if !strings.HasSuffix(referrer, autoLoginSkipMarker) {
				target := c.BaseURL + InitPathPrefix + ProviderKey + "?return_to=" + c.ContextPath + "/projects"
				logger.Debug("redirecting to oidc login", "url", target)
				http.Redirect(w, req, target, http.StatusFound)
				return
			}
		}
		next.ServeHTTP(w, req)
	})
}
