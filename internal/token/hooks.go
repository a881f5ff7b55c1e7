package token

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Kind is the lifecycle operation a chain runs for.
type Kind int

const (
	KindMint Kind = iota + 1
	KindTransfer
	KindBurn
	KindRedeem
)

func (k Kind) String() string {
	switch k {
	case KindMint:
		return "mint"
	case KindTransfer:
		return "transfer"
	case KindBurn:
		return "burn"
	case KindRedeem:
		return "redeem"
	default:
		return "unknown"
	}
}

// Mode selects whether gating before-hooks run.
type Mode int

const (
	ModeStandard Mode = iota
	// ModeForced skips the gating before-hooks (pause, custodian checks,
	// identity and compliance). After-hooks still run.
	ModeForced
)

func (m Mode) String() string {
	if m == ModeForced {
		return "forced"
	}
	return "standard"
}

// Operation is what a chain run carries.
type Operation struct {
	Kind     Kind
	Mode     Mode
	Operator common.Address
	From     common.Address
	To       common.Address
	Amount   *big.Int
	// Recovery marks the forced transfer performed by wallet recovery.
	Recovery bool
}

// MutationStep is the placeholder Describe prints between before- and after-hooks.
const MutationStep = "[mutation]"

type hookFunc func(ctx context.Context, st *opState, op Operation) error

type hook struct {
	name string
	when func(Operation) bool
	run  hookFunc
}

func always(Operation) bool { return true }

// gating hooks only run in standard mode.
func gating(op Operation) bool { return op.Mode == ModeStandard }

// forcedMove hooks run for forced transfers that are not recoveries.
func forcedMove(op Operation) bool { return op.Mode == ModeForced && !op.Recovery }

// Chain is the ordered before/after pipeline per operation kind.
type Chain struct {
	before map[Kind][]hook
	after  map[Kind][]hook
	tracer trace.Tracer
}

func newChain(tracer trace.Tracer) *Chain {
	return &Chain{
		before: make(map[Kind][]hook),
		after:  make(map[Kind][]hook),
		tracer: tracer,
	}
}

func (c *Chain) addBefore(kind Kind, name string, when func(Operation) bool, run hookFunc) {
	c.before[kind] = append(c.before[kind], hook{name: name, when: when, run: run})
}

func (c *Chain) addAfter(kind Kind, name string, run hookFunc) {
	c.after[kind] = append(c.after[kind], hook{name: name, when: always, run: run})
}

// Describe lists the hook names for kind in execution order.
func (c *Chain) Describe(kind Kind) []string {
	out := make([]string, 0, len(c.before[kind])+len(c.after[kind])+1)
	for _, h := range c.before[kind] {
		out = append(out, h.name)
	}
	out = append(out, MutationStep)
	for _, h := range c.after[kind] {
		out = append(out, h.name)
	}
	return out
}

// run executes before-hooks, mutate, then after-hooks. The first error
// stops the chain; the caller rolls the operation back.
func (c *Chain) run(ctx context.Context, st *opState, op Operation, mutate func(context.Context) error) error {
	for _, h := range c.before[op.Kind] {
		if !h.when(op) {
			continue
		}
		if err := c.step(ctx, h, st, op); err != nil {
			return err
		}
	}
	if err := mutate(ctx); err != nil {
		return err
	}
	for _, h := range c.after[op.Kind] {
		if err := c.step(ctx, h, st, op); err != nil {
			return err
		}
	}
	return nil
}

func (c *Chain) step(ctx context.Context, h hook, st *opState, op Operation) error {
	ctx, span := c.tracer.Start(ctx, "hook."+h.name, trace.WithAttributes(
		attribute.String("hook", h.name),
		attribute.String("kind", op.Kind.String()),
	))
	defer span.End()
	if err := h.run(ctx, st, op); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
