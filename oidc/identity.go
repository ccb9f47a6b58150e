package oidc

import (
	"fmt"
)

// Identity is the canonical identity handed back to the host after a
// successful login. Login is never empty. Groups is nil unless group
// synchronization is enabled, in which case it is always well-defined (and
// empty only when the provider explicitly returned an empty group claim).
type Identity struct {
	// Login is the user's unique key at the host, derived per the configured
	// login strategy.
	Login string

	// Name is the user's display name.
	Name string

	// Email is optional.
	Email string

	// Groups are the host-side group memberships derived from the groups
	// claim.
	Groups []string
}

// loginFunc derives the canonical login from a claim bundle. One function
// per login strategy.
type loginFunc func(claims Claims, c *Config) (string, error)

var loginFuncs = map[LoginStrategy]loginFunc{
	LoginStrategyPreferredUsername: loginFromPreferredUsername,
	LoginStrategyProviderID:        loginFromProviderID,
	LoginStrategyEmail:             loginFromEmail,
	LoginStrategyUnique:            loginUnique,
	LoginStrategyCustomClaim:       loginFromCustomClaim,
}

func loginFromPreferredUsername(claims Claims, _ *Config) (string, error) {
	if login := claims.PreferredUsername(); login != "" {
		return login, nil
	}
	return "", missingClaimErr("preferred_username")
}

func loginFromProviderID(claims Claims, _ *Config) (string, error) {
	return claims.Subject(), nil
}

func loginFromEmail(claims Claims, _ *Config) (string, error) {
	if login := claims.Email(); login != "" {
		return login, nil
	}
	return "", missingClaimErr("email")
}

func loginUnique(claims Claims, _ *Config) (string, error) {
	return fmt.Sprintf("%s@%s", claims.Subject(), ProviderKey), nil
}

func loginFromCustomClaim(claims Claims, c *Config) (string, error) {
	if login := claims.StringClaim(c.CustomClaimName); login != "" {
		return login, nil
	}
	return "", missingClaimErr(c.CustomClaimName)
}

// MapIdentity converts a resolved claim bundle into the host's canonical
// identity, applying the configured login strategy and, when enabled, group
// synchronization. A claim required by the configuration but absent from the
// bundle fails with ErrMissingClaim naming that claim; absence is never
// silently substituted.
func MapIdentity(claims Claims, c *Config) (*Identity, error) {
	const op = "oidc.MapIdentity"
	if c == nil {
		return nil, fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	derive, ok := loginFuncs[c.LoginStrategy]
	if !ok {
		return nil, fmt.Errorf("%s: %q: %w", op, c.LoginStrategy, ErrUnsupportedStrategy)
	}
	login, err := derive(claims, c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	name := claims.Name()
	if name == "" {
		name = claims.PreferredUsername()
	}
	if name == "" {
		return nil, fmt.Errorf("%s: claims 'name' and 'preferred_username' are missing in user info - "+
			"make sure your provider supports these claims in the id token or at the userinfo endpoint: %w",
			op, ErrMissingClaim)
	}

	identity := &Identity{
		Login: login,
		Name:  name,
		Email: claims.Email(),
	}
	if c.SyncGroups {
		groups, ok := claims.StringListClaim(c.GroupsClaim)
		if !ok {
			return nil, fmt.Errorf("%s: groups %w", op, missingClaimErr(c.GroupsClaim))
		}
		identity.Groups = groups
	}
	return identity, nil
}

func missingClaimErr(name string) error {
	return fmt.Errorf("claim %q is missing in user info - make sure your provider supports "+
		"this claim in the id token or at the userinfo endpoint: %w", name, ErrMissingClaim)
}
