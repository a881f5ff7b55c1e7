package token

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	dErrors "tokengate/pkg/domain-errors"
)

type EnforcedPauseError struct{}

func (e *EnforcedPauseError) Error() string           { return "token is paused" }
func (e *EnforcedPauseError) ErrorCode() dErrors.Code { return dErrors.CodeConflict }
func (e *EnforcedPauseError) Reason() string          { return "EnforcedPause" }

type ExpectedPauseError struct{}

func (e *ExpectedPauseError) Error() string           { return "token is not paused" }
func (e *ExpectedPauseError) ErrorCode() dErrors.Code { return dErrors.CodeConflict }
func (e *ExpectedPauseError) Reason() string          { return "ExpectedPause" }

type ExceededCapError struct {
	Increased *big.Int
	Cap       *big.Int
}

func (e *ExceededCapError) Error() string {
	return fmt.Sprintf("supply %s would exceed cap %s", e.Increased, e.Cap)
}
func (e *ExceededCapError) ErrorCode() dErrors.Code { return dErrors.CodeInvariantViolation }
func (e *ExceededCapError) Reason() string          { return "ERC20ExceededCap" }

// RecipientNotVerifiedError means the recipient is unregistered or lacks a
// valid claim for a required topic.
type RecipientNotVerifiedError struct {
	Recipient common.Address
}

func (e *RecipientNotVerifiedError) Error() string {
	return fmt.Sprintf("recipient %s is not verified", e.Recipient.Hex())
}
func (e *RecipientNotVerifiedError) ErrorCode() dErrors.Code { return dErrors.CodeValidation }
func (e *RecipientNotVerifiedError) Reason() string          { return "RecipientNotVerified" }

// ReentrantCallError is returned when a hook calls back into a
// state-changing operation of the token it runs in.
type ReentrantCallError struct {
	Token common.Address
}

func (e *ReentrantCallError) Error() string {
	return fmt.Sprintf("reentrant call into token %s", e.Token.Hex())
}
func (e *ReentrantCallError) ErrorCode() dErrors.Code { return dErrors.CodeConflict }
func (e *ReentrantCallError) Reason() string          { return "ReentrancyGuardReentrantCall" }

type ArrayLengthMismatchError struct {
	Lengths []int
}

func (e *ArrayLengthMismatchError) Error() string {
	return fmt.Sprintf("batch arrays have different lengths %v", e.Lengths)
}
func (e *ArrayLengthMismatchError) ErrorCode() dErrors.Code { return dErrors.CodeInvalidInput }
func (e *ArrayLengthMismatchError) Reason() string          { return "ArrayLengthMismatch" }

// checkLengths fails unless every batch argument has the same length.
func checkLengths(lengths ...int) error {
	for _, l := range lengths[1:] {
		if l != lengths[0] {
			return &ArrayLengthMismatchError{Lengths: lengths}
		}
	}
	if lengths[0] == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "batch is empty")
	}
	return nil
}
