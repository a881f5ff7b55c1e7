package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	dErrors "tokengate/pkg/domain-errors"
)

// ZeroAddress is the "no account" address. Mint originates from it and
// burns send to it; it is never a valid holder.
var ZeroAddress = common.Address{}

// ParseAddress validates and returns a non-zero hex address.
// Accepts checksummed or lower-case input, with or without the 0x prefix.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ZeroAddress, dErrors.New(dErrors.CodeInvalidInput, "address is required")
	}
	if !common.IsHexAddress(s) {
		return ZeroAddress, dErrors.New(dErrors.CodeInvalidInput, "invalid address format")
	}
	addr := common.HexToAddress(s)
	if addr == ZeroAddress {
		return ZeroAddress, dErrors.New(dErrors.CodeInvalidInput, "zero address is not allowed")
	}
	return addr, nil
}

// ParseAddresses parses every entry, failing on the first invalid one.
func ParseAddresses(values []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(values))
	for _, v := range values {
		addr, err := ParseAddress(v)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// IsZero reports whether addr is the zero address.
func IsZero(addr common.Address) bool {
	return addr == ZeroAddress
}
