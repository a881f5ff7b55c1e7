package ledger

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/pkg/domain"
	dErrors "tokengate/pkg/domain-errors"
	"tokengate/pkg/platform/events"
)

// ErrTxClosed is returned when a committed or discarded Tx is used.
var ErrTxClosed = dErrors.New(dErrors.CodeInternal, "ledger transaction already closed")

type holderDelta struct {
	balance      *big.Int
	frozen       bool
	frozenTokens *big.Int
}

// Tx is an overlay over a Ledger. Reads see the Tx's own writes.
type Tx struct {
	base    *Ledger
	touched map[common.Address]*holderDelta
	order   []common.Address
	supply  *big.Int
	events  []events.Event
	closed  bool
}

// Begin opens a transaction.
func (l *Ledger) Begin() *Tx {
	return &Tx{
		base:    l,
		touched: make(map[common.Address]*holderDelta),
		supply:  l.TotalSupply(),
	}
}

func (tx *Tx) holder(a common.Address) *holderDelta {
	if d, ok := tx.touched[a]; ok {
		return d
	}
	d := &holderDelta{
		balance:      tx.base.BalanceOf(a),
		frozen:       tx.base.IsFrozen(a),
		frozenTokens: tx.base.FrozenTokens(a),
	}
	tx.touched[a] = d
	tx.order = append(tx.order, a)
	return d
}

func (tx *Tx) BalanceOf(a common.Address) *big.Int {
	return new(big.Int).Set(tx.holder(a).balance)
}

func (tx *Tx) IsFrozen(a common.Address) bool {
	return tx.holder(a).frozen
}

func (tx *Tx) FrozenTokens(a common.Address) *big.Int {
	return new(big.Int).Set(tx.holder(a).frozenTokens)
}

// Available is balance minus frozen tokens, floored at zero.
func (tx *Tx) Available(a common.Address) *big.Int {
	d := tx.holder(a)
	out := new(big.Int).Sub(d.balance, d.frozenTokens)
	if out.Sign() < 0 {
		out.SetInt64(0)
	}
	return out
}

func (tx *Tx) TotalSupply() *big.Int {
	return new(big.Int).Set(tx.supply)
}

func (tx *Tx) SetFrozen(a common.Address, frozen bool) {
	tx.holder(a).frozen = frozen
}

func (tx *Tx) SetFrozenTokens(a common.Address, amount *big.Int) {
	tx.holder(a).frozenTokens = domain.CloneAmount(amount)
}

// Mint credits to and grows supply.
func (tx *Tx) Mint(to common.Address, amount *big.Int) error {
	next := new(big.Int).Add(tx.supply, amount)
	if next.Cmp(domain.MaxUint256) > 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "total supply overflows uint256")
	}
	d := tx.holder(to)
	d.balance = new(big.Int).Add(d.balance, amount)
	tx.supply = next
	return nil
}

// Burn debits from and shrinks supply. It does not look at frozen tokens;
// callers decide how frozen amounts interact with the burn.
func (tx *Tx) Burn(from common.Address, amount *big.Int) error {
	d := tx.holder(from)
	if d.balance.Cmp(amount) < 0 {
		return &InsufficientBalanceError{Holder: from, Balance: new(big.Int).Set(d.balance), Needed: new(big.Int).Set(amount)}
	}
	d.balance = new(big.Int).Sub(d.balance, amount)
	tx.supply = new(big.Int).Sub(tx.supply, amount)
	return nil
}

// Move transfers amount from one holder to another.
func (tx *Tx) Move(from, to common.Address, amount *big.Int) error {
	src := tx.holder(from)
	if src.balance.Cmp(amount) < 0 {
		return &InsufficientBalanceError{Holder: from, Balance: new(big.Int).Set(src.balance), Needed: new(big.Int).Set(amount)}
	}
	src.balance = new(big.Int).Sub(src.balance, amount)
	dst := tx.holder(to)
	dst.balance = new(big.Int).Add(dst.balance, amount)
	return nil
}

// Emit buffers an event until the operation commits.
func (tx *Tx) Emit(evs ...events.Event) {
	tx.events = append(tx.events, evs...)
}

// Events returns the buffered events.
func (tx *Tx) Events() []events.Event {
	out := make([]events.Event, len(tx.events))
	copy(out, tx.events)
	return out
}

// Touched lists holders read or written by the transaction in first-touch order.
func (tx *Tx) Touched() []common.Address {
	out := make([]common.Address, len(tx.order))
	copy(out, tx.order)
	return out
}

// Validate checks frozenTokens <= balance for every touched holder.
func (tx *Tx) Validate() error {
	for _, a := range tx.order {
		d := tx.touched[a]
		if d.frozenTokens.Cmp(d.balance) > 0 {
			return dErrors.New(dErrors.CodeInvariantViolation,
				fmt.Sprintf("frozen tokens %s exceed balance %s for %s", d.frozenTokens, d.balance, a.Hex()))
		}
	}
	return nil
}

// Preview returns the committed ledger this transaction would produce
// without changing the base.
func (tx *Tx) Preview() *Ledger {
	next := New()
	for a, v := range tx.base.balances {
		next.balances[a] = v
	}
	for a := range tx.base.frozen {
		next.frozen[a] = true
	}
	for a, v := range tx.base.frozenTokens {
		next.frozenTokens[a] = v
	}
	for _, a := range tx.order {
		d := tx.touched[a]
		next.write(a, new(big.Int).Set(d.balance), d.frozen, new(big.Int).Set(d.frozenTokens))
	}
	next.supply = new(big.Int).Set(tx.supply)
	return next
}

// Commit validates and applies the overlay to the base ledger.
func (tx *Tx) Commit() error {
	if tx.closed {
		return ErrTxClosed
	}
	if err := tx.Validate(); err != nil {
		return err
	}
	for _, a := range tx.order {
		d := tx.touched[a]
		tx.base.write(a, d.balance, d.frozen, d.frozenTokens)
	}
	tx.base.supply = tx.supply
	tx.closed = true
	return nil
}

// Discard drops the overlay. Safe to call after Commit.
func (tx *Tx) Discard() {
	tx.closed = true
	tx.touched = nil
	tx.order = nil
	tx.events = nil
}
