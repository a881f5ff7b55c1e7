package modules

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/cel-go/cel"

	"tokengate/internal/compliance"
	"tokengate/internal/compliance/ports"
	"tokengate/pkg/domain"
)

const ReasonExpressionRejected = "Transfer rejected by rule"

const (
	expressionCostLimit      = 10000
	expressionInterruptEvery = 100
)

// Expression evaluates a per-token CEL rule (params: string). The rule sees
//
//	from_country, to_country  int   (0 when unknown)
//	from_known, to_known      bool  (wallet registered)
//	value                     double
//	is_mint                   bool
//
// and must return bool. value is a float64 view of the amount and loses
// precision above 2^53.
type Expression struct {
	Base
	registries ports.RegistryResolver
	env        *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

func NewExpression(registries ports.RegistryResolver) (*Expression, error) {
	if registries == nil {
		return nil, fmt.Errorf("registry resolver is required")
	}
	env, err := cel.NewEnv(
		cel.Variable("from_country", cel.IntType),
		cel.Variable("to_country", cel.IntType),
		cel.Variable("from_known", cel.BoolType),
		cel.Variable("to_known", cel.BoolType),
		cel.Variable("value", cel.DoubleType),
		cel.Variable("is_mint", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	return &Expression{
		registries: registries,
		env:        env,
		programs:   make(map[string]cel.Program),
	}, nil
}

func (m *Expression) Name() string { return "ExpressionModule" }

func (m *Expression) ValidateParameters(params []byte) error {
	expr, err := DecodeString(params)
	if err != nil {
		return err
	}
	_, err = m.program(expr)
	return err
}

func (m *Expression) CanTransfer(ctx context.Context, token, from, to common.Address, value *big.Int, params []byte) error {
	expr, err := DecodeString(params)
	if err != nil {
		return err
	}
	prg, err := m.program(expr)
	if err != nil {
		return err
	}
	registry, err := m.registries.IdentityRegistryOf(ctx, token)
	if err != nil {
		return fmt.Errorf("resolve identity registry: %w", err)
	}
	fromCountry, fromKnown, err := walletFacts(ctx, registry, from)
	if err != nil {
		return err
	}
	toCountry, toKnown, err := walletFacts(ctx, registry, to)
	if err != nil {
		return err
	}
	amount, _ := new(big.Float).SetInt(value).Float64()

	out, _, err := prg.Eval(map[string]any{
		"from_country": int64(fromCountry),
		"to_country":   int64(toCountry),
		"from_known":   fromKnown,
		"to_known":     toKnown,
		"value":        amount,
		"is_mint":      domain.IsZero(from),
	})
	if err != nil {
		return fmt.Errorf("evaluate rule: %w", err)
	}
	allowed, ok := out.Value().(bool)
	if !ok {
		return fmt.Errorf("evaluate rule: result is %T, not bool", out.Value())
	}
	if !allowed {
		return compliance.Reject(ReasonExpressionRejected)
	}
	return nil
}

func walletFacts(ctx context.Context, registry ports.IdentityLookup, wallet common.Address) (domain.CountryCode, bool, error) {
	if domain.IsZero(wallet) {
		return domain.CountryUnknown, false, nil
	}
	known, err := registry.Contains(ctx, wallet)
	if err != nil || !known {
		return domain.CountryUnknown, false, err
	}
	country, err := registry.InvestorCountry(ctx, wallet)
	if err != nil {
		return domain.CountryUnknown, false, err
	}
	return country, true, nil
}

// program compiles expr once and caches the result.
func (m *Expression) program(expr string) (cel.Program, error) {
	m.mu.RLock()
	prg, hit := m.programs[expr]
	m.mu.RUnlock()
	if hit {
		return prg, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if prg, hit = m.programs[expr]; hit {
		return prg, nil
	}
	ast, issues := m.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile rule: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("rule must return bool, got %s", ast.OutputType())
	}
	prg, err := m.env.Program(ast,
		cel.InterruptCheckFrequency(expressionInterruptEvery),
		cel.CostLimit(expressionCostLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("build rule program: %w", err)
	}
	m.programs[expr] = prg
	return prg, nil
}
