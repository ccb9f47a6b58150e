/*
Package callback provides net/http adapters for hosts that route the oidc
login endpoints on a plain Go HTTP server: a handler for the initiate
endpoint (/sessions/init/<key>), a handler for the provider's redirect back
(/oauth2/callback/<key>), a single-use anti-forgery state store, and a chi
mount helper wiring all of them plus the auto-login interception of the
host's login page.

Hosts with their own request plumbing can ignore this package and implement
the oidc.InitContext and oidc.CallbackContext interfaces directly.
*/
package callback
