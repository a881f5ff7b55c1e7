// Package ledger holds per-token balances and custodian state behind a
// transactional overlay. An operation reads and writes through a Tx; only
// Commit makes its writes visible, so a failed operation leaves no trace.
package ledger

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/pkg/domain"
	dErrors "tokengate/pkg/domain-errors"
)

// InsufficientBalanceError mirrors ERC20InsufficientBalance.
type InsufficientBalanceError struct {
	Holder  common.Address
	Balance *big.Int
	Needed  *big.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %s: balance %s, needed %s", e.Holder.Hex(), e.Balance, e.Needed)
}
func (e *InsufficientBalanceError) ErrorCode() dErrors.Code { return dErrors.CodeInvariantViolation }
func (e *InsufficientBalanceError) Reason() string          { return "ERC20InsufficientBalance" }

// HolderState is the persisted per-holder record.
type HolderState struct {
	Address      common.Address `json:"address"`
	Balance      *big.Int       `json:"balance"`
	Frozen       bool           `json:"frozen"`
	FrozenTokens *big.Int       `json:"frozen_tokens"`
}

// Ledger is the committed state of one token. It is not safe for concurrent
// use; the owning token serializes access.
type Ledger struct {
	balances     map[common.Address]*big.Int
	frozen       map[common.Address]bool
	frozenTokens map[common.Address]*big.Int
	supply       *big.Int
}

func New() *Ledger {
	return &Ledger{
		balances:     make(map[common.Address]*big.Int),
		frozen:       make(map[common.Address]bool),
		frozenTokens: make(map[common.Address]*big.Int),
		supply:       new(big.Int),
	}
}

func (l *Ledger) BalanceOf(holder common.Address) *big.Int {
	return domain.CloneAmount(l.balances[holder])
}

func (l *Ledger) IsFrozen(holder common.Address) bool {
	return l.frozen[holder]
}

func (l *Ledger) FrozenTokens(holder common.Address) *big.Int {
	return domain.CloneAmount(l.frozenTokens[holder])
}

func (l *Ledger) TotalSupply() *big.Int {
	return domain.CloneAmount(l.supply)
}

// Holders returns every address with non-default state, sorted by address.
func (l *Ledger) Holders() []HolderState {
	seen := make(map[common.Address]struct{})
	for a := range l.balances {
		seen[a] = struct{}{}
	}
	for a := range l.frozen {
		seen[a] = struct{}{}
	}
	for a := range l.frozenTokens {
		seen[a] = struct{}{}
	}
	out := make([]HolderState, 0, len(seen))
	for a := range seen {
		out = append(out, HolderState{
			Address:      a,
			Balance:      l.BalanceOf(a),
			Frozen:       l.frozen[a],
			FrozenTokens: l.FrozenTokens(a),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address.Cmp(out[j].Address) < 0 })
	return out
}

// Load replaces the state with persisted holders. Supply is recomputed from
// balances and must match the recorded supply.
func (l *Ledger) Load(holders []HolderState, supply *big.Int) error {
	fresh := New()
	for _, h := range holders {
		bal := domain.CloneAmount(h.Balance)
		ft := domain.CloneAmount(h.FrozenTokens)
		if ft.Cmp(bal) > 0 {
			return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("holder %s frozen tokens exceed balance", h.Address.Hex()))
		}
		fresh.write(h.Address, bal, h.Frozen, ft)
		fresh.supply.Add(fresh.supply, bal)
	}
	if supply != nil && fresh.supply.Cmp(supply) != 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "recorded supply does not match balances")
	}
	*l = *fresh
	return nil
}

// write stores a holder, dropping entries that went back to zero.
func (l *Ledger) write(a common.Address, balance *big.Int, frozen bool, frozenTokens *big.Int) {
	if balance.Sign() == 0 {
		delete(l.balances, a)
	} else {
		l.balances[a] = balance
	}
	if frozen {
		l.frozen[a] = true
	} else {
		delete(l.frozen, a)
	}
	if frozenTokens.Sign() == 0 {
		delete(l.frozenTokens, a)
	} else {
		l.frozenTokens[a] = frozenTokens
	}
}
