// Package compliance holds the per-token compliance engine and the contract
// every compliance module implements. Concrete modules live in
// compliance/modules.
package compliance

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Module is a pluggable transfer policy. One module instance serves many
// tokens; token-specific configuration arrives as params on every call.
//
// CanTransfer must not mutate state. It rejects by returning an error built
// with Reject; any other error is treated as an infrastructure failure.
// The lifecycle hooks run after the ledger mutation inside the same
// operation, so an error from them aborts the operation. Every method runs
// while the token holds its lock; a module that reads the token must pass
// the ctx it was given, since a detached context deadlocks on that lock.
type Module interface {
	Name() string
	CanTransfer(ctx context.Context, token, from, to common.Address, value *big.Int, params []byte) error
	ValidateParameters(params []byte) error
	Created(ctx context.Context, token, to common.Address, value *big.Int, params []byte) error
	Transferred(ctx context.Context, token, from, to common.Address, value *big.Int, params []byte) error
	Destroyed(ctx context.Context, token, from common.Address, value *big.Int, params []byte) error
}

// Snapshotter is implemented by modules that keep per-token state in their
// lifecycle hooks. The engine snapshots them before an operation and
// restores them when the operation rolls back.
type Snapshotter interface {
	Snapshot(token common.Address) any
	Restore(token common.Address, state any)
}

// Unbinder is implemented by modules that drop their per-token state when
// they are removed from a token, so a later re-add starts clean. The drop
// happens immediately; Checkpoint brings the state back if the removing
// operation rolls back.
type Unbinder interface {
	Unbound(token common.Address)
}

// RejectedError is a policy rejection raised by a module's CanTransfer.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string { return e.Reason }

// Reject builds the rejection a module returns from CanTransfer.
func Reject(reason string) error {
	return &RejectedError{Reason: reason}
}

// ModuleParams is a registered (module, params) pair.
type ModuleParams struct {
	Module common.Address `json:"module"`
	Params []byte         `json:"params"`
}
