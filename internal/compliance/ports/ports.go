// Package ports declares what compliance modules need from the rest of the
// system without importing the identity or token packages.
package ports

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/pkg/domain"
)

// IdentityLookup is the read side of an identity registry.
// Absence is reported as false / CountryUnknown / zero address, never as an error.
type IdentityLookup interface {
	Contains(ctx context.Context, wallet common.Address) (bool, error)
	InvestorCountry(ctx context.Context, wallet common.Address) (domain.CountryCode, error)
	Identity(ctx context.Context, wallet common.Address) (common.Address, error)
}

// RegistryResolver finds the identity registry currently bound to a token.
type RegistryResolver interface {
	IdentityRegistryOf(ctx context.Context, token common.Address) (IdentityLookup, error)
}
