/*
Package oidc authenticates end users of a host application against an external
OpenID Connect identity provider using the 3-legged authorization code flow,
and maps the provider's claims onto the host's identity model.

Primary types provided by the package:

* Config: the configuration surface consumed from the host (issuer, client
credentials, requested scopes, required id_token signing algorithm, login
strategy, group synchronization, auto-login and display settings).

* Client: the protocol client. It resolves provider metadata, builds
authentication requests, exchanges authorization codes for tokens, validates
id_tokens and resolves user claims (with a fallback userinfo lookup).

* Identity: the canonical identity handed back to the host: provider login,
display name, optional email and optional group memberships.

* Provider: the flow orchestrator. It sequences the two-phase protocol
(initiate / callback) and delegates anti-forgery state handling and the final
authentication commit to host collaborators via the InitContext and
CallbackContext interfaces.

The oidc/callback package provides net/http adapters for hosts that route the
initiate and callback endpoints on a plain Go HTTP server.
*/
package oidc
