// Package custodian implements the custodian override state of a token:
// whole-address freezes, partial token freezes, the shortfall thaw used by
// forced transfers and burns, and wallet recovery. Every operation works on
// a ledger transaction; authorization is the caller's concern.
package custodian

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/internal/custodian/metrics"
	"tokengate/internal/ledger"
	"tokengate/pkg/domain"
	dErrors "tokengate/pkg/domain-errors"
	"tokengate/pkg/platform/events"
	"tokengate/pkg/requestcontext"
)

// Custodian applies custodian rules for one token.
type Custodian struct {
	token   common.Address
	metrics *metrics.Metrics
}

type Option func(*Custodian)

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Custodian) {
		c.metrics = m
	}
}

func New(token common.Address, opts ...Option) (*Custodian, error) {
	if domain.IsZero(token) {
		return nil, fmt.Errorf("token address is required")
	}
	c := &Custodian{token: token}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Custodian) emit(ctx context.Context, tx *ledger.Tx, typ events.Type, kv ...string) {
	tx.Emit(events.New(typ, c.token, requestcontext.Caller(ctx), kv...))
}

// -----------------------------------------------------------------------------
// Freeze operations
// -----------------------------------------------------------------------------

// SetAddressFrozen sets or clears the whole-address freeze. It is idempotent
// and emits AddressFrozen every time.
func (c *Custodian) SetAddressFrozen(ctx context.Context, tx *ledger.Tx, holder common.Address, freeze bool) error {
	if domain.IsZero(holder) {
		return dErrors.New(dErrors.CodeInvalidInput, "holder address is required")
	}
	tx.SetFrozen(holder, freeze)
	c.metrics.IncAction("set_address_frozen")
	c.emit(ctx, tx, events.TypeAddressFrozen,
		events.AttrHolder, holder.Hex(),
		events.AttrFrozen, strconv.FormatBool(freeze),
	)
	return nil
}

// FreezePartialTokens freezes amount out of the holder's available balance.
func (c *Custodian) FreezePartialTokens(ctx context.Context, tx *ledger.Tx, holder common.Address, amount *big.Int) error {
	if err := validateHolderAmount(holder, amount); err != nil {
		return err
	}
	available := tx.Available(holder)
	if amount.Cmp(available) > 0 {
		return &FreezeAmountExceedsAvailableBalanceError{Holder: holder, Available: available, Requested: domain.CloneAmount(amount)}
	}
	tx.SetFrozenTokens(holder, new(big.Int).Add(tx.FrozenTokens(holder), amount))
	c.metrics.IncAction("freeze_partial")
	c.emit(ctx, tx, events.TypeTokensFrozen,
		events.AttrHolder, holder.Hex(),
		events.AttrAmount, amount.String(),
	)
	return nil
}

// UnfreezePartialTokens releases amount of the holder's frozen tokens.
func (c *Custodian) UnfreezePartialTokens(ctx context.Context, tx *ledger.Tx, holder common.Address, amount *big.Int) error {
	if err := validateHolderAmount(holder, amount); err != nil {
		return err
	}
	frozen := tx.FrozenTokens(holder)
	if amount.Cmp(frozen) > 0 {
		return &InsufficientFrozenTokensError{Holder: holder, Frozen: frozen, Requested: domain.CloneAmount(amount)}
	}
	tx.SetFrozenTokens(holder, new(big.Int).Sub(frozen, amount))
	c.metrics.IncAction("unfreeze_partial")
	c.emit(ctx, tx, events.TypeTokensUnfrozen,
		events.AttrHolder, holder.Hex(),
		events.AttrAmount, amount.String(),
	)
	return nil
}

// ThawShortfall makes amount spendable for from by unfreezing exactly the
// part of it not covered by the unfrozen balance. It fails when amount
// exceeds the total balance.
func (c *Custodian) ThawShortfall(ctx context.Context, tx *ledger.Tx, from common.Address, amount *big.Int) error {
	balance := tx.BalanceOf(from)
	if amount.Cmp(balance) > 0 {
		return &InsufficientBalanceError{Holder: from, Balance: balance, Needed: domain.CloneAmount(amount)}
	}
	available := tx.Available(from)
	if amount.Cmp(available) <= 0 {
		return nil
	}
	shortfall := new(big.Int).Sub(amount, available)
	tx.SetFrozenTokens(from, new(big.Int).Sub(tx.FrozenTokens(from), shortfall))
	c.metrics.IncThaw()
	c.emit(ctx, tx, events.TypeTokensUnfrozen,
		events.AttrHolder, from.Hex(),
		events.AttrAmount, shortfall.String(),
	)
	return nil
}

// -----------------------------------------------------------------------------
// Recovery
// -----------------------------------------------------------------------------

// CheckRecovery reports the ledger-side recovery preconditions.
func (c *Custodian) CheckRecovery(tx *ledger.Tx, lost, newWallet common.Address) error {
	if domain.IsZero(lost) || domain.IsZero(newWallet) {
		return dErrors.New(dErrors.CodeInvalidInput, "wallet addresses are required")
	}
	if lost == newWallet {
		return dErrors.New(dErrors.CodeInvalidInput, "recovery target must differ from the lost wallet")
	}
	if tx.BalanceOf(lost).Sign() == 0 {
		return &NoTokensToRecoverError{Wallet: lost}
	}
	if tx.IsFrozen(newWallet) {
		return &RecoveryTargetAddressFrozenError{Wallet: newWallet}
	}
	return nil
}

// Recover moves the whole balance of lost to newWallet together with its
// freeze flag and frozen tokens. lost ends unfrozen and empty.
func (c *Custodian) Recover(ctx context.Context, tx *ledger.Tx, lost, newWallet common.Address) (*big.Int, error) {
	if err := c.CheckRecovery(tx, lost, newWallet); err != nil {
		return nil, err
	}
	balance := tx.BalanceOf(lost)
	frozenTokens := tx.FrozenTokens(lost)
	wasFrozen := tx.IsFrozen(lost)

	tx.SetFrozenTokens(lost, new(big.Int))
	tx.SetFrozen(lost, false)
	if err := tx.Move(lost, newWallet, balance); err != nil {
		return nil, err
	}
	if frozenTokens.Sign() > 0 {
		tx.SetFrozenTokens(newWallet, new(big.Int).Add(tx.FrozenTokens(newWallet), frozenTokens))
		c.emit(ctx, tx, events.TypeTokensFrozen,
			events.AttrHolder, newWallet.Hex(),
			events.AttrAmount, frozenTokens.String(),
		)
	}
	if wasFrozen {
		tx.SetFrozen(newWallet, true)
		c.emit(ctx, tx, events.TypeAddressFrozen,
			events.AttrHolder, newWallet.Hex(),
			events.AttrFrozen, "true",
		)
	}
	c.metrics.IncAction("recover")
	return balance, nil
}

// -----------------------------------------------------------------------------
// Before-hooks for standard operations
// -----------------------------------------------------------------------------

// MintCheck blocks minting to a frozen address.
func (c *Custodian) MintCheck(tx *ledger.Tx, to common.Address) error {
	if tx.IsFrozen(to) {
		return &RecipientAddressFrozenError{Holder: to}
	}
	return nil
}

// TransferCheck blocks frozen parties and spending of frozen tokens.
func (c *Custodian) TransferCheck(tx *ledger.Tx, from, to common.Address, amount *big.Int) error {
	if tx.IsFrozen(from) {
		return &SenderAddressFrozenError{Holder: from}
	}
	if tx.IsFrozen(to) {
		return &RecipientAddressFrozenError{Holder: to}
	}
	return spendable(tx, from, amount)
}

// BurnThaw lets an administrative burn dip into frozen tokens.
func (c *Custodian) BurnThaw(ctx context.Context, tx *ledger.Tx, from common.Address, amount *big.Int) error {
	return c.ThawShortfall(ctx, tx, from, amount)
}

// RedeemCheck never thaws: a holder redeeming their own tokens is limited to
// the unfrozen balance.
func (c *Custodian) RedeemCheck(tx *ledger.Tx, from common.Address, amount *big.Int) error {
	if tx.IsFrozen(from) {
		return &SenderAddressFrozenError{Holder: from}
	}
	return spendable(tx, from, amount)
}

func spendable(tx *ledger.Tx, from common.Address, amount *big.Int) error {
	balance := tx.BalanceOf(from)
	if amount.Cmp(balance) > 0 {
		return &InsufficientBalanceError{Holder: from, Balance: balance, Needed: domain.CloneAmount(amount)}
	}
	available := tx.Available(from)
	if amount.Cmp(available) > 0 {
		return &UnfrozenBalanceExceededError{Holder: from, Available: available, Requested: domain.CloneAmount(amount)}
	}
	return nil
}

func validateHolderAmount(holder common.Address, amount *big.Int) error {
	if domain.IsZero(holder) {
		return dErrors.New(dErrors.CodeInvalidInput, "holder address is required")
	}
	return domain.ValidateAmount(amount)
}
