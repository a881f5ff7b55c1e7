package modules

import (
	"context"
	"fmt"
	"math/big"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/internal/access"
	"tokengate/internal/compliance"
	"tokengate/pkg/domain"
)

const (
	ReasonSenderBlocked    = "Sender address blocked"
	ReasonRecipientBlocked = "Receiver address blocked"
)

// AddressBlockList rejects transfers from or to wallets on the global list
// or on the token's own list (params: address[]).
type AddressBlockList struct {
	Base
	access *access.Controller

	mu      sync.RWMutex
	blocked map[common.Address]struct{}
}

func NewAddressBlockList(ctrl *access.Controller) (*AddressBlockList, error) {
	if ctrl == nil {
		return nil, fmt.Errorf("access controller is required")
	}
	return &AddressBlockList{access: ctrl, blocked: make(map[common.Address]struct{})}, nil
}

func (m *AddressBlockList) Name() string { return "AddressBlockListModule" }

func (m *AddressBlockList) ValidateParameters(params []byte) error {
	_, err := DecodeAddresses(params)
	return err
}

func (m *AddressBlockList) CanTransfer(_ context.Context, _, from, to common.Address, _ *big.Int, params []byte) error {
	tokenList, err := DecodeAddresses(params)
	if err != nil {
		return err
	}
	if !domain.IsZero(from) && m.isBlocked(from, tokenList) {
		return compliance.Reject(ReasonSenderBlocked)
	}
	if m.isBlocked(to, tokenList) {
		return compliance.Reject(ReasonRecipientBlocked)
	}
	return nil
}

func (m *AddressBlockList) isBlocked(addr common.Address, tokenList []common.Address) bool {
	m.mu.RLock()
	_, ok := m.blocked[addr]
	m.mu.RUnlock()
	return ok || slices.Contains(tokenList, addr)
}

// BlockAddresses requires the manager role.
func (m *AddressBlockList) BlockAddresses(ctx context.Context, addrs ...common.Address) error {
	if err := m.access.Require(ctx, access.RoleManager); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range addrs {
		m.blocked[a] = struct{}{}
	}
	return nil
}

// UnblockAddresses requires the manager role.
func (m *AddressBlockList) UnblockAddresses(ctx context.Context, addrs ...common.Address) error {
	if err := m.access.Require(ctx, access.RoleManager); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range addrs {
		delete(m.blocked, a)
	}
	return nil
}
