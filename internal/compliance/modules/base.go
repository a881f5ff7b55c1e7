// Package modules contains the compliance modules a token can register.
package modules

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Base gives modules no-op lifecycle hooks.
type Base struct{}

func (Base) Created(context.Context, common.Address, common.Address, *big.Int, []byte) error {
	return nil
}

func (Base) Transferred(context.Context, common.Address, common.Address, common.Address, *big.Int, []byte) error {
	return nil
}

func (Base) Destroyed(context.Context, common.Address, common.Address, *big.Int, []byte) error {
	return nil
}
