package modules

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/internal/compliance"
	"tokengate/pkg/domain"
)

const ReasonSupplyLimitExceeded = "Supply limit exceeded"

// SupplyLimit caps the supply minted while the module is registered
// (params: uint256 cap). It tracks supply through its lifecycle hooks, so
// tokens minted before registration are not counted. Removal from a token
// resets the count.
type SupplyLimit struct {
	mu     sync.Mutex
	supply map[common.Address]*big.Int
}

func NewSupplyLimit() *SupplyLimit {
	return &SupplyLimit{supply: make(map[common.Address]*big.Int)}
}

func (m *SupplyLimit) Name() string { return "SupplyLimitModule" }

func (m *SupplyLimit) ValidateParameters(params []byte) error {
	limit, err := DecodeUint256(params)
	if err != nil {
		return err
	}
	if limit.Sign() == 0 {
		return fmt.Errorf("supply limit must be positive")
	}
	return nil
}

func (m *SupplyLimit) CanTransfer(_ context.Context, token, from, _ common.Address, value *big.Int, params []byte) error {
	if !domain.IsZero(from) {
		return nil
	}
	limit, err := DecodeUint256(params)
	if err != nil {
		return err
	}
	next := new(big.Int).Add(m.Supply(token), value)
	if next.Cmp(limit) > 0 {
		return compliance.Reject(ReasonSupplyLimitExceeded)
	}
	return nil
}

func (m *SupplyLimit) Created(_ context.Context, token, _ common.Address, value *big.Int, _ []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.supply[token] = new(big.Int).Add(m.current(token), value)
	return nil
}

func (m *SupplyLimit) Transferred(context.Context, common.Address, common.Address, common.Address, *big.Int, []byte) error {
	return nil
}

func (m *SupplyLimit) Destroyed(_ context.Context, token, _ common.Address, value *big.Int, _ []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := new(big.Int).Sub(m.current(token), value)
	if next.Sign() < 0 {
		next.SetInt64(0)
	}
	m.supply[token] = next
	return nil
}

// Supply is the tracked supply for token.
func (m *SupplyLimit) Supply(token common.Address) *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return new(big.Int).Set(m.current(token))
}

func (m *SupplyLimit) current(token common.Address) *big.Int {
	if v, ok := m.supply[token]; ok {
		return v
	}
	return new(big.Int)
}

func (m *SupplyLimit) Snapshot(token common.Address) any {
	return m.Supply(token)
}

func (m *SupplyLimit) Restore(token common.Address, state any) {
	v, ok := state.(*big.Int)
	if !ok {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.supply[token] = new(big.Int).Set(v)
}

// Unbound forgets the tracked supply of token.
func (m *SupplyLimit) Unbound(token common.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.supply, token)
}

var (
	_ compliance.Snapshotter = (*SupplyLimit)(nil)
	_ compliance.Unbinder    = (*SupplyLimit)(nil)
)
