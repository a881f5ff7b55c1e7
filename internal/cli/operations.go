package cli

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/internal/deployment"
	idservice "tokengate/internal/identity/service"
	"tokengate/internal/token"
	"tokengate/pkg/domain"
)

// simEnv is what a step runs against.
type simEnv struct {
	deployment *deployment.Deployment
}

type operation func(ctx context.Context, env *simEnv, st Step) error

var operations = map[string]operation{
	"mint": withToken(func(ctx context.Context, tok *token.Token, st Step) error {
		to, amount, err := addressAmount(st.To, st.Amount)
		if err != nil {
			return err
		}
		return tok.Mint(ctx, to, amount)
	}),
	"burn": withToken(func(ctx context.Context, tok *token.Token, st Step) error {
		from, amount, err := addressAmount(st.From, st.Amount)
		if err != nil {
			return err
		}
		return tok.Burn(ctx, from, amount)
	}),
	"redeem": withToken(func(ctx context.Context, tok *token.Token, st Step) error {
		amount, err := domain.ParseAmount(st.Amount)
		if err != nil {
			return err
		}
		return tok.Redeem(ctx, amount)
	}),
	"transfer": withToken(func(ctx context.Context, tok *token.Token, st Step) error {
		to, amount, err := addressAmount(st.To, st.Amount)
		if err != nil {
			return err
		}
		return tok.Transfer(ctx, to, amount)
	}),
	"forced-transfer": withToken(func(ctx context.Context, tok *token.Token, st Step) error {
		from, err := domain.ParseAddress(st.From)
		if err != nil {
			return err
		}
		to, amount, err := addressAmount(st.To, st.Amount)
		if err != nil {
			return err
		}
		return tok.ForcedTransfer(ctx, from, to, amount)
	}),
	"check-transfer": withToken(func(ctx context.Context, tok *token.Token, st Step) error {
		from, err := domain.ParseAddress(st.From)
		if err != nil {
			return err
		}
		to, amount, err := addressAmount(st.To, st.Amount)
		if err != nil {
			return err
		}
		return tok.CheckTransfer(ctx, from, to, amount)
	}),
	"recover": withToken(func(ctx context.Context, tok *token.Token, st Step) error {
		addrs, err := domain.ParseAddresses([]string{st.Lost, st.New, st.Identity})
		if err != nil {
			return err
		}
		return tok.RecoveryAddress(ctx, addrs[0], addrs[1], addrs[2])
	}),
	"freeze": withToken(func(ctx context.Context, tok *token.Token, st Step) error {
		holder, err := domain.ParseAddress(st.Holder)
		if err != nil {
			return err
		}
		return tok.SetAddressFrozen(ctx, holder, st.Frozen)
	}),
	"freeze-partial": withToken(func(ctx context.Context, tok *token.Token, st Step) error {
		holder, amount, err := addressAmount(st.Holder, st.Amount)
		if err != nil {
			return err
		}
		return tok.FreezePartialTokens(ctx, holder, amount)
	}),
	"unfreeze-partial": withToken(func(ctx context.Context, tok *token.Token, st Step) error {
		holder, amount, err := addressAmount(st.Holder, st.Amount)
		if err != nil {
			return err
		}
		return tok.UnfreezePartialTokens(ctx, holder, amount)
	}),
	"add-module": func(ctx context.Context, env *simEnv, st Step) error {
		tok, module, params, err := env.moduleCall(st)
		if err != nil {
			return err
		}
		return tok.AddComplianceModule(ctx, module, params)
	},
	"set-module-params": func(ctx context.Context, env *simEnv, st Step) error {
		tok, module, params, err := env.moduleCall(st)
		if err != nil {
			return err
		}
		return tok.SetParametersForComplianceModule(ctx, module, params)
	},
	"remove-module": withToken(func(ctx context.Context, tok *token.Token, st Step) error {
		module, err := domain.ParseAddress(st.Module)
		if err != nil {
			return err
		}
		return tok.RemoveComplianceModule(ctx, module)
	}),
	"set-topics": withToken(func(ctx context.Context, tok *token.Token, st Step) error {
		topics := make([]domain.ClaimTopic, len(st.Topics))
		for i, t := range st.Topics {
			topics[i] = domain.ClaimTopic(t)
		}
		return tok.SetRequiredClaimTopics(ctx, topics)
	}),
	"set-registry": withToken(func(ctx context.Context, tok *token.Token, st Step) error {
		registry, err := domain.ParseAddress(st.Registry)
		if err != nil {
			return err
		}
		return tok.SetIdentityRegistry(ctx, registry)
	}),
	"pause": withToken(func(ctx context.Context, tok *token.Token, _ Step) error {
		return tok.Pause(ctx)
	}),
	"unpause": withToken(func(ctx context.Context, tok *token.Token, _ Step) error {
		return tok.Unpause(ctx)
	}),
	"register-identity": withRegistry(func(ctx context.Context, reg *idservice.Registry, wallet common.Address, st Step) error {
		identity, err := domain.ParseAddress(st.Identity)
		if err != nil {
			return err
		}
		country, err := domain.ParseCountryCode(st.Country)
		if err != nil {
			return err
		}
		return reg.RegisterIdentity(ctx, wallet, identity, country)
	}),
	"update-country": withRegistry(func(ctx context.Context, reg *idservice.Registry, wallet common.Address, st Step) error {
		country, err := domain.ParseCountryCode(st.Country)
		if err != nil {
			return err
		}
		return reg.UpdateCountry(ctx, wallet, country)
	}),
	"delete-identity": withRegistry(func(ctx context.Context, reg *idservice.Registry, wallet common.Address, _ Step) error {
		return reg.DeleteIdentity(ctx, wallet)
	}),
}

func withToken(fn func(ctx context.Context, tok *token.Token, st Step) error) operation {
	return func(ctx context.Context, env *simEnv, st Step) error {
		tok, err := env.token(st.Token)
		if err != nil {
			return err
		}
		return fn(ctx, tok, st)
	}
}

func withRegistry(fn func(ctx context.Context, reg *idservice.Registry, wallet common.Address, st Step) error) operation {
	return func(ctx context.Context, env *simEnv, st Step) error {
		addr, err := domain.ParseAddress(st.Registry)
		if err != nil {
			return err
		}
		reg, ok := env.deployment.Registries[addr]
		if !ok {
			return fmt.Errorf("registry %s is not deployed", addr.Hex())
		}
		wallet, err := domain.ParseAddress(st.Holder)
		if err != nil {
			return err
		}
		return fn(ctx, reg, wallet, st)
	}
}

func (env *simEnv) token(raw string) (*token.Token, error) {
	addr, err := domain.ParseAddress(raw)
	if err != nil {
		return nil, err
	}
	return env.deployment.Directory.Token(addr)
}

func (env *simEnv) moduleCall(st Step) (*token.Token, common.Address, []byte, error) {
	tok, err := env.token(st.Token)
	if err != nil {
		return nil, common.Address{}, nil, err
	}
	module, err := domain.ParseAddress(st.Module)
	if err != nil {
		return nil, common.Address{}, nil, err
	}
	params, err := env.deployment.ModuleParams(module, deployment.TokenModuleSpec{
		Module:     st.Module,
		Countries:  st.Countries,
		Addresses:  st.Addresses,
		Limit:      st.Limit,
		Expression: st.Expression,
	})
	if err != nil {
		return nil, common.Address{}, nil, err
	}
	return tok, module, params, nil
}

func addressAmount(rawAddr, rawAmount string) (common.Address, *big.Int, error) {
	addr, err := domain.ParseAddress(rawAddr)
	if err != nil {
		return common.Address{}, nil, err
	}
	amount, err := domain.ParseAmount(rawAmount)
	if err != nil {
		return common.Address{}, nil, err
	}
	return addr, amount, nil
}
