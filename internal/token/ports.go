package token

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/pkg/domain"
)

// IdentityRegistry is the identity gate a token is bound to. The token calls
// mutations with itself as the caller, so the registry must grant the token
// the registrar role for recovery to succeed.
type IdentityRegistry interface {
	Address() common.Address
	Contains(ctx context.Context, wallet common.Address) (bool, error)
	InvestorCountry(ctx context.Context, wallet common.Address) (domain.CountryCode, error)
	Identity(ctx context.Context, wallet common.Address) (common.Address, error)
	IsVerified(ctx context.Context, wallet common.Address, topics []domain.ClaimTopic) (bool, error)
	RegisterIdentity(ctx context.Context, wallet, identity common.Address, country domain.CountryCode) error
	DeleteIdentity(ctx context.Context, wallet common.Address) error
}
