package callback

import (
	"net/http"

	"github.com/hashicorp/go-hclog"
	"github.com/vaulttec/oidcauth/oidc"
)

// CommitFunc commits a successfully mapped identity at the host (create the
// session, persist the account, etc). A non-nil error aborts the attempt.
type CommitFunc func(identity *oidc.Identity, w http.ResponseWriter, req *http.Request) error

// ErrorFunc creates the response for a failed login attempt.
type ErrorFunc func(err error, w http.ResponseWriter, req *http.Request)

// DefaultErrorFunc responds with a generic failure page and keeps the
// diagnostic detail in the server-side logs only.
func DefaultErrorFunc(logger hclog.Logger) ErrorFunc {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return func(err error, w http.ResponseWriter, req *http.Request) {
		logger.Error("authentication failed", "path", req.URL.Path, "error", err)
		http.Error(w, "authentication failed", http.StatusUnauthorized)
	}
}
