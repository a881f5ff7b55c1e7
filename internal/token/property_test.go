//go:build property

package token_test

import (
	"context"
	"math/big"
	"slices"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"tokengate/internal/deployment"
	"tokengate/internal/token"
	"tokengate/pkg/testutil"
)

const (
	propAdmin    = "0x00000000000000000000000000000000000000ad"
	propAgent    = "0x00000000000000000000000000000000000000a6"
	propRegistry = "0x0000000000000000000000000000000000001d1d"
	propIssuer   = "0x00000000000000000000000000000000000000c1"
	propAlice    = "0x00000000000000000000000000000000000a11ce"
	propBob      = "0x0000000000000000000000000000000000000b0b"
	propToken    = "0x00000000000000000000000000000000000070c0"
	propAllow    = "0x0000000000000000000000000000000000003001"
	propBlock    = "0x0000000000000000000000000000000000003003"
)

func propertySpec(allowed []int, blocked []string) *deployment.Spec {
	claim := []deployment.ClaimSpec{{Issuer: propIssuer, Topic: 1}}
	return &deployment.Spec{
		Admin:      propAdmin,
		Registries: []deployment.RegistrySpec{{Address: propRegistry}},
		Issuers:    []deployment.IssuerSpec{{Address: propIssuer, Topics: []uint64{1}}},
		Identities: []deployment.IdentitySpec{
			{Wallet: propAlice, Registry: propRegistry, Country: 250, Claims: claim},
			{Wallet: propBob, Registry: propRegistry, Country: 276, Claims: claim},
		},
		Modules: []deployment.ModuleSpec{
			{Address: propAllow, Kind: deployment.KindCountryAllowList},
			{Address: propBlock, Kind: deployment.KindAddressBlockList},
		},
		Tokens: []deployment.TokenSpec{{
			Address:  propToken,
			Name:     "Property Bond",
			Symbol:   "PROP",
			Registry: propRegistry,
			Topics:   []uint64{1},
			Roles: map[string][]string{
				"supply":    {propAgent},
				"custodian": {propAgent},
			},
			Modules: []deployment.TokenModuleSpec{
				{Module: propAllow, Countries: allowed},
				{Module: propBlock, Addresses: blocked},
			},
		}},
	}
}

func deploy(t *testing.T, spec *deployment.Spec) *token.Token {
	t.Helper()
	d, err := deployment.Build(context.Background(), spec, deployment.Options{})
	if err != nil {
		t.Fatalf("build deployment: %v", err)
	}
	tok, err := d.Directory.Token(common.HexToAddress(propToken))
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return tok
}

func parameters() *gopter.TestParameters {
	p := gopter.DefaultTestParameters()
	p.MinSuccessfulTests = 50
	return p
}

// Every op is encoded in one int: kind, holder and amount.
func applyOp(ctx context.Context, tok *token.Token, op int) {
	holders := []common.Address{common.HexToAddress(propAlice), common.HexToAddress(propBob)}
	agent := testutil.AsCaller(common.HexToAddress(propAgent))
	holder := holders[(op/7)%2]
	other := holders[(op/7+1)%2]
	amount := big.NewInt(int64(op / 14))

	switch op % 7 {
	case 0:
		_ = tok.Mint(agent, holder, amount)
	case 1:
		_ = tok.Transfer(testutil.AsCaller(holder), other, amount)
	case 2:
		_ = tok.Burn(agent, holder, amount)
	case 3:
		_ = tok.FreezePartialTokens(agent, holder, amount)
	case 4:
		_ = tok.UnfreezePartialTokens(agent, holder, amount)
	case 5:
		_ = tok.ForcedTransfer(agent, holder, other, amount)
	case 6:
		_ = tok.SetAddressFrozen(agent, holder, amount.Bit(0) == 1)
	}
}

func TestLedgerProperties(t *testing.T) {
	properties := gopter.NewProperties(parameters())

	properties.Property("frozen tokens never exceed balance and balances sum to supply", prop.ForAll(
		func(ops []int) bool {
			ctx := context.Background()
			tok := deploy(t, propertySpec([]int{250, 276}, nil))
			for _, op := range ops {
				applyOp(ctx, tok, op)

				sum := new(big.Int)
				for _, h := range tok.Holders(ctx) {
					if h.FrozenTokens.Cmp(h.Balance) > 0 || h.Balance.Sign() < 0 {
						return false
					}
					sum.Add(sum, h.Balance)
				}
				if sum.Cmp(tok.TotalSupply(ctx)) != 0 {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(40, gen.IntRange(0, 14_000)),
	))

	properties.TestingRun(t)
}

func TestComplianceProperties(t *testing.T) {
	properties := gopter.NewProperties(parameters())

	properties.Property("a transfer passes only when every module allows it", prop.ForAll(
		func(allowGermany, allowUS, blockBob bool) bool {
			allowed := []int{250}
			if allowGermany {
				allowed = append(allowed, 276)
			}
			if allowUS {
				allowed = append(allowed, 840)
			}
			var blocked []string
			if blockBob {
				blocked = []string{propBob}
			}
			tok := deploy(t, propertySpec(allowed, blocked))

			alice := common.HexToAddress(propAlice)
			bob := common.HexToAddress(propBob)
			if err := tok.Mint(testutil.AsCaller(common.HexToAddress(propAgent)), alice, big.NewInt(10)); err != nil {
				return false
			}
			err := tok.CheckTransfer(context.Background(), alice, bob, big.NewInt(1))
			want := slices.Contains(allowed, 276) && !blockBob
			return (err == nil) == want
		},
		gen.Bool(), gen.Bool(), gen.Bool(),
	))

	properties.TestingRun(t)
}
