package token

import (
	"context"
	"fmt"
	"math/big"
)

// Hook is a custom after-hook. It runs inside the operation; an error rolls
// the whole operation back. Calls back into a token must use the supplied
// ctx: it carries the operation marker, and a detached context blocks on the
// token lock instead of failing with ReentrantCallError.
type Hook func(ctx context.Context, op Operation) error

func (t *Token) buildChain() *Chain {
	c := newChain(t.tracer)

	c.addBefore(KindMint, "pause", gating, t.checkNotPaused)
	c.addBefore(KindMint, "custodian.recipient-frozen", gating, func(_ context.Context, st *opState, op Operation) error {
		return t.custodian.MintCheck(st.tx, op.To)
	})
	c.addBefore(KindMint, "cap", always, t.checkCap)
	c.addBefore(KindMint, "identity+compliance", gating, t.checkRecipient)
	c.addAfter(KindMint, "compliance.created", func(ctx context.Context, st *opState, op Operation) error {
		return st.engine.NotifyCreated(ctx, op.To, op.Amount)
	})

	c.addBefore(KindTransfer, "pause", gating, t.checkNotPaused)
	c.addBefore(KindTransfer, "custodian.freeze-and-balance", gating, func(_ context.Context, st *opState, op Operation) error {
		return t.custodian.TransferCheck(st.tx, op.From, op.To, op.Amount)
	})
	c.addBefore(KindTransfer, "custodian.forced-thaw", forcedMove, func(ctx context.Context, st *opState, op Operation) error {
		return t.custodian.ThawShortfall(ctx, st.tx, op.From, op.Amount)
	})
	c.addBefore(KindTransfer, "identity+compliance", gating, t.checkRecipient)
	c.addAfter(KindTransfer, "compliance.transferred", func(ctx context.Context, st *opState, op Operation) error {
		return st.engine.NotifyTransferred(ctx, op.From, op.To, op.Amount)
	})

	c.addBefore(KindBurn, "pause", gating, t.checkNotPaused)
	c.addBefore(KindBurn, "custodian.auto-thaw", always, func(ctx context.Context, st *opState, op Operation) error {
		return t.custodian.BurnThaw(ctx, st.tx, op.From, op.Amount)
	})
	c.addAfter(KindBurn, "compliance.destroyed", func(ctx context.Context, st *opState, op Operation) error {
		return st.engine.NotifyDestroyed(ctx, op.From, op.Amount)
	})

	c.addBefore(KindRedeem, "pause", gating, t.checkNotPaused)
	c.addBefore(KindRedeem, "custodian.strict-balance", gating, func(_ context.Context, st *opState, op Operation) error {
		return t.custodian.RedeemCheck(st.tx, op.From, op.Amount)
	})
	c.addAfter(KindRedeem, "compliance.destroyed", func(ctx context.Context, st *opState, op Operation) error {
		return st.engine.NotifyDestroyed(ctx, op.From, op.Amount)
	})
	return c
}

// AddAfterHook appends a custom after-hook for kind. Names must be unique
// within the kind.
func (t *Token) AddAfterHook(kind Kind, name string, fn Hook) error {
	if name == "" || fn == nil {
		return fmt.Errorf("hook name and function are required")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, existing := range t.chain.Describe(kind) {
		if existing == name {
			return fmt.Errorf("hook %q already registered for %s", name, kind)
		}
	}
	t.chain.addAfter(kind, name, func(ctx context.Context, _ *opState, op Operation) error {
		return fn(ctx, op)
	})
	return nil
}

func (t *Token) checkNotPaused(_ context.Context, st *opState, _ Operation) error {
	if st.paused {
		return &EnforcedPauseError{}
	}
	return nil
}

func (t *Token) checkCap(_ context.Context, st *opState, op Operation) error {
	if t.cap == nil {
		return nil
	}
	increased := new(big.Int).Add(st.tx.TotalSupply(), op.Amount)
	if increased.Cmp(t.cap) > 0 {
		return &ExceededCapError{Increased: increased, Cap: new(big.Int).Set(t.cap)}
	}
	return nil
}

// checkRecipient is the identity gate followed by the compliance engine.
func (t *Token) checkRecipient(ctx context.Context, st *opState, op Operation) error {
	verified, err := st.registry.IsVerified(ctx, op.To, st.topics)
	if err != nil {
		return err
	}
	if !verified {
		return &RecipientNotVerifiedError{Recipient: op.To}
	}
	return st.engine.CanTransfer(ctx, op.From, op.To, op.Amount)
}
