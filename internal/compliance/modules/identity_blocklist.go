package modules

import (
	"context"
	"fmt"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/internal/compliance"
	"tokengate/internal/compliance/ports"
	"tokengate/pkg/domain"
)

const ReasonIdentityBlocked = "Receiver identity blocked"

// IdentityBlockList rejects recipients whose identity contract is on the
// token's list (params: address[]). Blocking the identity rather than the
// wallet follows the investor across wallet recoveries.
type IdentityBlockList struct {
	Base
	registries ports.RegistryResolver
}

func NewIdentityBlockList(registries ports.RegistryResolver) (*IdentityBlockList, error) {
	if registries == nil {
		return nil, fmt.Errorf("registry resolver is required")
	}
	return &IdentityBlockList{registries: registries}, nil
}

func (m *IdentityBlockList) Name() string { return "IdentityBlockListModule" }

func (m *IdentityBlockList) ValidateParameters(params []byte) error {
	_, err := DecodeAddresses(params)
	return err
}

func (m *IdentityBlockList) CanTransfer(ctx context.Context, token, _, to common.Address, _ *big.Int, params []byte) error {
	blocked, err := DecodeAddresses(params)
	if err != nil {
		return err
	}
	if len(blocked) == 0 {
		return nil
	}
	registry, err := m.registries.IdentityRegistryOf(ctx, token)
	if err != nil {
		return fmt.Errorf("resolve identity registry: %w", err)
	}
	identity, err := registry.Identity(ctx, to)
	if err != nil {
		return fmt.Errorf("lookup recipient identity: %w", err)
	}
	if !domain.IsZero(identity) && slices.Contains(blocked, identity) {
		return compliance.Reject(ReasonIdentityBlocked)
	}
	return nil
}
