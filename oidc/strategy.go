package oidc

import "fmt"

// LoginStrategy selects which claim becomes the canonical login identifier of
// the authenticated user. The set of strategies is closed: unknown
// configuration values are rejected by Config.Validate at startup, not at
// request time.
type LoginStrategy string

const (
	// LoginStrategyPreferredUsername uses the "preferred_username" claim.
	LoginStrategyPreferredUsername LoginStrategy = "preferred_username"

	// LoginStrategyProviderID uses the "sub" claim, which is always present
	// in a valid claim set.
	LoginStrategyProviderID LoginStrategy = "provider_id"

	// LoginStrategyEmail uses the "email" claim.
	LoginStrategyEmail LoginStrategy = "email"

	// LoginStrategyUnique derives a login unique across identity providers
	// in the form "{sub}@oidc".
	LoginStrategyUnique LoginStrategy = "unique"

	// LoginStrategyCustomClaim uses the claim named by
	// Config.CustomClaimName.
	LoginStrategyCustomClaim LoginStrategy = "custom_claim"
)

// DefaultLoginStrategy is used when the host doesn't configure one.
const DefaultLoginStrategy = LoginStrategyPreferredUsername

var supportedStrategies = map[LoginStrategy]bool{
	LoginStrategyPreferredUsername: true,
	LoginStrategyProviderID:        true,
	LoginStrategyEmail:             true,
	LoginStrategyUnique:            true,
	LoginStrategyCustomClaim:       true,
}

// ParseLoginStrategy converts a host configuration value into a
// LoginStrategy.
func ParseLoginStrategy(s string) (LoginStrategy, error) {
	const op = "oidc.ParseLoginStrategy"
	strategy := LoginStrategy(s)
	if !supportedStrategies[strategy] {
		return "", fmt.Errorf("%s: %q: %w", op, s, ErrUnsupportedStrategy)
	}
	return strategy, nil
}
