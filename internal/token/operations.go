package token

import (
	"context"
	"errors"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/internal/access"
	"tokengate/internal/custodian"
	"tokengate/pkg/domain"
	dErrors "tokengate/pkg/domain-errors"
	"tokengate/pkg/platform/events"
	"tokengate/pkg/requestcontext"
)

var errDryRun = errors.New("dry run")

// -----------------------------------------------------------------------------
// Supply
// -----------------------------------------------------------------------------

// Mint creates amount tokens for to. Caller needs the supply role.
func (t *Token) Mint(ctx context.Context, to common.Address, amount *big.Int) error {
	return t.BatchMint(ctx, []common.Address{to}, []*big.Int{amount})
}

// BatchMint mints every pair or none.
func (t *Token) BatchMint(ctx context.Context, tos []common.Address, amounts []*big.Int) error {
	if err := t.access.Require(ctx, access.RoleSupply); err != nil {
		return err
	}
	if err := checkLengths(len(tos), len(amounts)); err != nil {
		return err
	}
	err := t.execute(ctx, "mint", func(ctx context.Context, st *opState) error {
		for i := range tos {
			if err := t.mint(ctx, st, tos[i], amounts[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	t.logAudit(ctx, "tokens_minted", "recipients", len(tos))
	return nil
}

func (t *Token) mint(ctx context.Context, st *opState, to common.Address, amount *big.Int) error {
	if err := validateTarget(to, amount); err != nil {
		return err
	}
	op := Operation{Kind: KindMint, Operator: requestcontext.Caller(ctx), To: to, Amount: amount}
	return t.chain.run(ctx, st, op, func(ctx context.Context) error {
		if err := st.tx.Mint(to, amount); err != nil {
			return err
		}
		t.emit(ctx, st, events.TypeMintCompleted,
			events.AttrTo, to.Hex(),
			events.AttrAmount, amount.String(),
		)
		return nil
	})
}

// Burn destroys amount tokens of from. Frozen tokens are thawed for the
// part the unfrozen balance cannot cover. Caller needs the supply role.
func (t *Token) Burn(ctx context.Context, from common.Address, amount *big.Int) error {
	return t.BatchBurn(ctx, []common.Address{from}, []*big.Int{amount})
}

// BatchBurn burns every pair or none.
func (t *Token) BatchBurn(ctx context.Context, froms []common.Address, amounts []*big.Int) error {
	if err := t.access.Require(ctx, access.RoleSupply); err != nil {
		return err
	}
	if err := checkLengths(len(froms), len(amounts)); err != nil {
		return err
	}
	err := t.execute(ctx, "burn", func(ctx context.Context, st *opState) error {
		for i := range froms {
			if err := t.destroy(ctx, st, KindBurn, froms[i], amounts[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	t.logAudit(ctx, "tokens_burned", "holders", len(froms))
	return nil
}

// Redeem burns amount of the caller's own unfrozen balance.
func (t *Token) Redeem(ctx context.Context, amount *big.Int) error {
	from := requestcontext.Caller(ctx)
	return t.execute(ctx, "redeem", func(ctx context.Context, st *opState) error {
		return t.destroy(ctx, st, KindRedeem, from, amount)
	})
}

func (t *Token) destroy(ctx context.Context, st *opState, kind Kind, from common.Address, amount *big.Int) error {
	if err := validateTarget(from, amount); err != nil {
		return err
	}
	op := Operation{Kind: kind, Operator: requestcontext.Caller(ctx), From: from, Amount: amount}
	return t.chain.run(ctx, st, op, func(ctx context.Context) error {
		if err := st.tx.Burn(from, amount); err != nil {
			return err
		}
		t.emit(ctx, st, events.TypeBurnCompleted,
			events.AttrFrom, from.Hex(),
			events.AttrAmount, amount.String(),
			events.AttrOperation, kind.String(),
		)
		return nil
	})
}

// -----------------------------------------------------------------------------
// Transfers
// -----------------------------------------------------------------------------

// Transfer moves amount from the caller to to.
func (t *Token) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	return t.BatchTransfer(ctx, []common.Address{to}, []*big.Int{amount})
}

// BatchTransfer moves every pair from the caller or none.
func (t *Token) BatchTransfer(ctx context.Context, tos []common.Address, amounts []*big.Int) error {
	if err := checkLengths(len(tos), len(amounts)); err != nil {
		return err
	}
	from := requestcontext.Caller(ctx)
	return t.execute(ctx, "transfer", func(ctx context.Context, st *opState) error {
		for i := range tos {
			if err := t.transfer(ctx, st, ModeStandard, from, tos[i], amounts[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// ForcedTransfer moves amount from from to to without the freeze, identity
// or compliance gates. Caller needs the custodian role.
func (t *Token) ForcedTransfer(ctx context.Context, from, to common.Address, amount *big.Int) error {
	return t.BatchForcedTransfer(ctx, []common.Address{from}, []common.Address{to}, []*big.Int{amount})
}

// BatchForcedTransfer performs every forced transfer or none.
func (t *Token) BatchForcedTransfer(ctx context.Context, froms, tos []common.Address, amounts []*big.Int) error {
	if err := t.access.Require(ctx, access.RoleCustodian); err != nil {
		return err
	}
	if err := checkLengths(len(froms), len(tos), len(amounts)); err != nil {
		return err
	}
	err := t.execute(ctx, "forced_transfer", func(ctx context.Context, st *opState) error {
		for i := range froms {
			if err := t.transfer(ctx, st, ModeForced, froms[i], tos[i], amounts[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	t.logAudit(ctx, "forced_transfer", "transfers", len(froms))
	return nil
}

func (t *Token) transfer(ctx context.Context, st *opState, mode Mode, from, to common.Address, amount *big.Int) error {
	if domain.IsZero(from) {
		return dErrors.New(dErrors.CodeInvalidInput, "sender address is required")
	}
	if err := validateTarget(to, amount); err != nil {
		return err
	}
	op := Operation{Kind: KindTransfer, Mode: mode, Operator: requestcontext.Caller(ctx), From: from, To: to, Amount: amount}
	return t.chain.run(ctx, st, op, func(ctx context.Context) error {
		if err := st.tx.Move(from, to, amount); err != nil {
			return err
		}
		t.emit(ctx, st, events.TypeTransferCompleted,
			events.AttrFrom, from.Hex(),
			events.AttrTo, to.Hex(),
			events.AttrAmount, amount.String(),
			events.AttrForced, strconv.FormatBool(mode == ModeForced),
		)
		return nil
	})
}

// CheckTransfer reports whether a standard transfer would pass every
// before-hook right now. Nothing is written.
func (t *Token) CheckTransfer(ctx context.Context, from, to common.Address, amount *big.Int) error {
	if domain.IsZero(from) {
		return dErrors.New(dErrors.CodeInvalidInput, "sender address is required")
	}
	if err := validateTarget(to, amount); err != nil {
		return err
	}
	if inOperation(ctx, t.address) {
		return &ReentrantCallError{Token: t.address}
	}
	ctx = enterOperation(ctx, t.address)

	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.begin()
	defer st.tx.Discard()

	op := Operation{Kind: KindTransfer, Mode: ModeStandard, Operator: requestcontext.Caller(ctx), From: from, To: to, Amount: amount}
	err := t.chain.run(ctx, st, op, func(context.Context) error { return errDryRun })
	if errors.Is(err, errDryRun) {
		return nil
	}
	return err
}

// -----------------------------------------------------------------------------
// Recovery
// -----------------------------------------------------------------------------

// RecoveryAddress moves the whole position of lost to newWallet and rebinds
// the identity registry entry. At least one of the wallets must be
// registered. Caller needs the custodian role; the identity registry must
// grant this token the registrar role. The registry rebind is visible to
// other tokens sharing the registry before this operation commits; a rollback
// undoes it with compensating registry writes.
func (t *Token) RecoveryAddress(ctx context.Context, lost, newWallet, identity common.Address) error {
	if err := t.access.Require(ctx, access.RoleCustodian); err != nil {
		return err
	}
	if domain.IsZero(identity) {
		return dErrors.New(dErrors.CodeInvalidInput, "identity address is required")
	}
	err := t.execute(ctx, "recovery", func(ctx context.Context, st *opState) error {
		if err := t.custodian.CheckRecovery(st.tx, lost, newWallet); err != nil {
			return err
		}
		lostKnown, err := st.registry.Contains(ctx, lost)
		if err != nil {
			return err
		}
		newKnown, err := st.registry.Contains(ctx, newWallet)
		if err != nil {
			return err
		}
		if !lostKnown && !newKnown {
			return &custodian.RecoveryWalletsNotVerifiedError{Lost: lost, New: newWallet}
		}

		op := Operation{
			Kind:     KindTransfer,
			Mode:     ModeForced,
			Operator: requestcontext.Caller(ctx),
			From:     lost,
			To:       newWallet,
			Amount:   st.tx.BalanceOf(lost),
			Recovery: true,
		}
		err = t.chain.run(ctx, st, op, func(ctx context.Context) error {
			moved, err := t.custodian.Recover(ctx, st.tx, lost, newWallet)
			if err != nil {
				return err
			}
			t.emit(ctx, st, events.TypeTransferCompleted,
				events.AttrFrom, lost.Hex(),
				events.AttrTo, newWallet.Hex(),
				events.AttrAmount, moved.String(),
				events.AttrForced, "true",
			)
			return nil
		})
		if err != nil {
			return err
		}

		if err := t.rebindIdentity(ctx, st, lost, newWallet, identity, lostKnown, newKnown); err != nil {
			return err
		}
		t.emit(ctx, st, events.TypeRecoverySuccess,
			events.AttrLost, lost.Hex(),
			events.AttrNew, newWallet.Hex(),
			events.AttrIdentity, identity.Hex(),
		)
		return nil
	})
	if err != nil {
		return err
	}
	t.logAudit(ctx, "wallet_recovered",
		"lost_wallet", lost.Hex(),
		"new_wallet", newWallet.Hex(),
		"identity", identity.Hex(),
	)
	return nil
}

// rebindIdentity registers newWallet with the lost wallet's country when it
// is unknown and removes the lost wallet's entry. Each step registers its
// undo with the operation.
func (t *Token) rebindIdentity(ctx context.Context, st *opState, lost, newWallet, identity common.Address, lostKnown, newKnown bool) error {
	asToken := requestcontext.WithCaller(ctx, t.address)
	if !lostKnown {
		return nil
	}
	country, err := st.registry.InvestorCountry(ctx, lost)
	if err != nil {
		return err
	}
	lostIdentity, err := st.registry.Identity(ctx, lost)
	if err != nil {
		return err
	}

	if !newKnown {
		if err := st.registry.RegisterIdentity(asToken, newWallet, identity, country); err != nil {
			return err
		}
		st.onRollback(func(ctx context.Context) error {
			return st.registry.DeleteIdentity(requestcontext.WithCaller(ctx, t.address), newWallet)
		})
	}
	if err := st.registry.DeleteIdentity(asToken, lost); err != nil {
		return err
	}
	st.onRollback(func(ctx context.Context) error {
		return st.registry.RegisterIdentity(requestcontext.WithCaller(ctx, t.address), lost, lostIdentity, country)
	})
	return nil
}

func validateTarget(holder common.Address, amount *big.Int) error {
	if domain.IsZero(holder) {
		return dErrors.New(dErrors.CodeInvalidInput, "holder address is required")
	}
	return domain.ValidateAmount(amount)
}
