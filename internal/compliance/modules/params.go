package modules

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"tokengate/pkg/domain"
)

// Module parameters are ABI-encoded so a parameter blob produced by any
// Ethereum tooling (cast abi-encode, ethers) round-trips unchanged.
var (
	countryListArgs = mustArgs("uint16[]")
	addressListArgs = mustArgs("address[]")
	uint256Args     = mustArgs("uint256")
	stringArgs      = mustArgs("string")
)

func mustArgs(typ string) abi.Arguments {
	t, err := abi.NewType(typ, "", nil)
	if err != nil {
		panic(fmt.Sprintf("abi type %s: %v", typ, err))
	}
	return abi.Arguments{{Type: t}}
}

func unpackOne(args abi.Arguments, params []byte) (any, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("empty parameters")
	}
	vals, err := args.Unpack(params)
	if err != nil {
		return nil, fmt.Errorf("decode parameters: %w", err)
	}
	if len(vals) != 1 {
		return nil, fmt.Errorf("decode parameters: expected 1 value, got %d", len(vals))
	}
	return vals[0], nil
}

// EncodeCountries ABI-encodes a uint16[] country list.
func EncodeCountries(codes ...domain.CountryCode) []byte {
	raw := make([]uint16, len(codes))
	for i, c := range codes {
		raw[i] = uint16(c)
	}
	out, err := countryListArgs.Pack(raw)
	if err != nil {
		panic(err)
	}
	return out
}

// DecodeCountries decodes a uint16[] country list.
func DecodeCountries(params []byte) ([]domain.CountryCode, error) {
	v, err := unpackOne(countryListArgs, params)
	if err != nil {
		return nil, err
	}
	raw, ok := v.([]uint16)
	if !ok {
		return nil, fmt.Errorf("decode parameters: unexpected %T", v)
	}
	out := make([]domain.CountryCode, len(raw))
	for i, c := range raw {
		out[i] = domain.CountryCode(c)
	}
	return out, nil
}

// EncodeAddresses ABI-encodes an address[] list.
func EncodeAddresses(addrs ...common.Address) []byte {
	if addrs == nil {
		addrs = []common.Address{}
	}
	out, err := addressListArgs.Pack(addrs)
	if err != nil {
		panic(err)
	}
	return out
}

// DecodeAddresses decodes an address[] list.
func DecodeAddresses(params []byte) ([]common.Address, error) {
	v, err := unpackOne(addressListArgs, params)
	if err != nil {
		return nil, err
	}
	addrs, ok := v.([]common.Address)
	if !ok {
		return nil, fmt.Errorf("decode parameters: unexpected %T", v)
	}
	return addrs, nil
}

// EncodeUint256 ABI-encodes a single uint256.
func EncodeUint256(v *big.Int) ([]byte, error) {
	if err := domain.ValidateAmount(v); err != nil {
		return nil, err
	}
	return uint256Args.Pack(v)
}

// DecodeUint256 decodes a single uint256.
func DecodeUint256(params []byte) (*big.Int, error) {
	v, err := unpackOne(uint256Args, params)
	if err != nil {
		return nil, err
	}
	n, ok := v.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("decode parameters: unexpected %T", v)
	}
	return n, nil
}

// EncodeString ABI-encodes a single string.
func EncodeString(s string) []byte {
	out, err := stringArgs.Pack(s)
	if err != nil {
		panic(err)
	}
	return out
}

// DecodeString decodes a single string.
func DecodeString(params []byte) (string, error) {
	v, err := unpackOne(stringArgs, params)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("decode parameters: unexpected %T", v)
	}
	return s, nil
}
