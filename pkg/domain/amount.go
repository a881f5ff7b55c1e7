package domain

import (
	"math/big"
	"strings"

	dErrors "tokengate/pkg/domain-errors"
)

// MaxUint256 bounds every token amount.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// ParseAmount parses a base-10 amount in [0, 2^256-1].
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "amount is required")
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "amount must be a base-10 integer")
	}
	if err := ValidateAmount(v); err != nil {
		return nil, err
	}
	return v, nil
}

// ValidateAmount enforces the uint256 range.
func ValidateAmount(v *big.Int) error {
	if v == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "amount is required")
	}
	if v.Sign() < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "amount must not be negative")
	}
	if v.Cmp(MaxUint256) > 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "amount exceeds uint256")
	}
	return nil
}

// CloneAmount returns a copy of v, treating nil as zero.
func CloneAmount(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

// Amount is a convenience constructor used heavily by tests and fixtures.
func Amount(v int64) *big.Int {
	return big.NewInt(v)
}
