package custodian

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/internal/ledger"
	dErrors "tokengate/pkg/domain-errors"
)

// InsufficientBalanceError is raised when an amount exceeds the total balance.
type InsufficientBalanceError = ledger.InsufficientBalanceError

type FreezeAmountExceedsAvailableBalanceError struct {
	Holder    common.Address
	Available *big.Int
	Requested *big.Int
}

func (e *FreezeAmountExceedsAvailableBalanceError) Error() string {
	return fmt.Sprintf("freeze amount %s exceeds available balance %s", e.Requested, e.Available)
}
func (e *FreezeAmountExceedsAvailableBalanceError) ErrorCode() dErrors.Code {
	return dErrors.CodeInvariantViolation
}
func (e *FreezeAmountExceedsAvailableBalanceError) Reason() string {
	return "FreezeAmountExceedsAvailableBalance"
}

type InsufficientFrozenTokensError struct {
	Holder    common.Address
	Frozen    *big.Int
	Requested *big.Int
}

func (e *InsufficientFrozenTokensError) Error() string {
	return fmt.Sprintf("unfreeze amount %s exceeds frozen tokens %s", e.Requested, e.Frozen)
}
func (e *InsufficientFrozenTokensError) ErrorCode() dErrors.Code {
	return dErrors.CodeInvariantViolation
}
func (e *InsufficientFrozenTokensError) Reason() string { return "InsufficientFrozenTokens" }

// UnfrozenBalanceExceededError is raised when a standard transfer or redeem
// needs more than the holder's unfrozen balance.
type UnfrozenBalanceExceededError struct {
	Holder    common.Address
	Available *big.Int
	Requested *big.Int
}

func (e *UnfrozenBalanceExceededError) Error() string {
	return fmt.Sprintf("amount %s exceeds unfrozen balance %s of %s", e.Requested, e.Available, e.Holder.Hex())
}
func (e *UnfrozenBalanceExceededError) ErrorCode() dErrors.Code {
	return dErrors.CodeInvariantViolation
}
func (e *UnfrozenBalanceExceededError) Reason() string { return "UnfrozenBalanceExceeded" }

type SenderAddressFrozenError struct {
	Holder common.Address
}

func (e *SenderAddressFrozenError) Error() string {
	return fmt.Sprintf("sender %s is frozen", e.Holder.Hex())
}
func (e *SenderAddressFrozenError) ErrorCode() dErrors.Code { return dErrors.CodeConflict }
func (e *SenderAddressFrozenError) Reason() string          { return "SenderAddressFrozen" }

type RecipientAddressFrozenError struct {
	Holder common.Address
}

func (e *RecipientAddressFrozenError) Error() string {
	return fmt.Sprintf("recipient %s is frozen", e.Holder.Hex())
}
func (e *RecipientAddressFrozenError) ErrorCode() dErrors.Code { return dErrors.CodeConflict }
func (e *RecipientAddressFrozenError) Reason() string          { return "RecipientAddressFrozen" }

type NoTokensToRecoverError struct {
	Wallet common.Address
}

func (e *NoTokensToRecoverError) Error() string {
	return fmt.Sprintf("wallet %s holds no tokens to recover", e.Wallet.Hex())
}
func (e *NoTokensToRecoverError) ErrorCode() dErrors.Code { return dErrors.CodeInvariantViolation }
func (e *NoTokensToRecoverError) Reason() string          { return "NoTokensToRecover" }

type RecoveryTargetAddressFrozenError struct {
	Wallet common.Address
}

func (e *RecoveryTargetAddressFrozenError) Error() string {
	return fmt.Sprintf("recovery target %s is frozen", e.Wallet.Hex())
}
func (e *RecoveryTargetAddressFrozenError) ErrorCode() dErrors.Code { return dErrors.CodeConflict }
func (e *RecoveryTargetAddressFrozenError) Reason() string          { return "RecoveryTargetAddressFrozen" }

type RecoveryWalletsNotVerifiedError struct {
	Lost common.Address
	New  common.Address
}

func (e *RecoveryWalletsNotVerifiedError) Error() string {
	return fmt.Sprintf("neither %s nor %s has a registered identity", e.Lost.Hex(), e.New.Hex())
}
func (e *RecoveryWalletsNotVerifiedError) ErrorCode() dErrors.Code { return dErrors.CodeValidation }
func (e *RecoveryWalletsNotVerifiedError) Reason() string          { return "RecoveryWalletsNotVerified" }
