package compliance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/internal/compliance/metrics"
	"tokengate/pkg/domain"
)

type entry struct {
	module common.Address
	params []byte
	impl   Module
}

// Engine is the ordered (module, params) list of one token. It is not safe
// for concurrent use; the owning token serializes access.
type Engine struct {
	token   common.Address
	catalog *Catalog
	entries []entry
	index   map[common.Address]int
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates an empty engine for token.
func NewEngine(token common.Address, catalog *Catalog, opts ...EngineOption) (*Engine, error) {
	if domain.IsZero(token) {
		return nil, fmt.Errorf("token address is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("module catalog is required")
	}
	e := &Engine{
		token:   token,
		catalog: catalog,
		index:   make(map[common.Address]int),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Clone returns an independent copy sharing the catalog, logger and metrics.
// Module management mutates a clone that replaces the original on commit.
func (e *Engine) Clone() *Engine {
	c := &Engine{
		token:   e.token,
		catalog: e.catalog,
		entries: make([]entry, len(e.entries)),
		index:   make(map[common.Address]int, len(e.index)),
		logger:  e.logger,
		metrics: e.metrics,
	}
	for i, en := range e.entries {
		c.entries[i] = entry{module: en.module, params: bytes.Clone(en.params), impl: en.impl}
		c.index[en.module] = i
	}
	return c
}

// -----------------------------------------------------------------------------
// Module management
// -----------------------------------------------------------------------------

// AddModule resolves module through the catalog, validates params and
// appends the pair.
func (e *Engine) AddModule(module common.Address, params []byte) error {
	if _, exists := e.index[module]; exists {
		return &ModuleAlreadyAddedError{Module: module}
	}
	impl, err := e.catalog.Resolve(module)
	if err != nil {
		return err
	}
	if err := impl.ValidateParameters(params); err != nil {
		return &InvalidParametersError{Module: module, Err: err}
	}
	e.index[module] = len(e.entries)
	e.entries = append(e.entries, entry{module: module, params: bytes.Clone(params), impl: impl})
	return nil
}

// RemoveModule drops module by moving the last entry into its slot.
// Iteration order of the remaining modules is unspecified after a removal.
// Modules implementing Unbinder forget the token.
func (e *Engine) RemoveModule(module common.Address) error {
	i, ok := e.index[module]
	if !ok {
		return &ModuleNotFoundError{Module: module}
	}
	if u, ok := e.entries[i].impl.(Unbinder); ok {
		u.Unbound(e.token)
	}
	last := len(e.entries) - 1
	if i != last {
		e.entries[i] = e.entries[last]
		e.index[e.entries[i].module] = i
	}
	e.entries[last] = entry{}
	e.entries = e.entries[:last]
	delete(e.index, module)
	return nil
}

// SetModuleParameters re-validates params before replacing them.
func (e *Engine) SetModuleParameters(module common.Address, params []byte) error {
	i, ok := e.index[module]
	if !ok {
		return &ModuleNotFoundError{Module: module}
	}
	if err := e.entries[i].impl.ValidateParameters(params); err != nil {
		return &InvalidParametersError{Module: module, Err: err}
	}
	e.entries[i].params = bytes.Clone(params)
	return nil
}

// Modules returns a copy of the registered pairs in iteration order.
func (e *Engine) Modules() []ModuleParams {
	out := make([]ModuleParams, len(e.entries))
	for i, en := range e.entries {
		out[i] = ModuleParams{Module: en.module, Params: bytes.Clone(en.params)}
	}
	return out
}

// HasModule reports whether module is registered.
func (e *Engine) HasModule(module common.Address) bool {
	_, ok := e.index[module]
	return ok
}

// Load replaces the module list, re-running the capability check and
// parameter validation for every pair.
func (e *Engine) Load(pairs []ModuleParams) error {
	fresh := e.Clone()
	fresh.entries = nil
	fresh.index = make(map[common.Address]int, len(pairs))
	for _, p := range pairs {
		if err := fresh.AddModule(p.Module, p.Params); err != nil {
			return err
		}
	}
	e.entries, e.index = fresh.entries, fresh.index
	return nil
}

// -----------------------------------------------------------------------------
// Evaluation
// -----------------------------------------------------------------------------

// CanTransfer asks every module in order; the first rejection wins.
func (e *Engine) CanTransfer(ctx context.Context, from, to common.Address, value *big.Int) error {
	for _, en := range e.entries {
		err := en.impl.CanTransfer(ctx, e.token, from, to, value, en.params)
		if err == nil {
			continue
		}
		var rejected *RejectedError
		if errors.As(err, &rejected) {
			e.metrics.IncCheck("rejected")
			e.metrics.IncRejection(en.impl.Name())
			e.logger.InfoContext(ctx, "compliance rejected transfer",
				"token", e.token.Hex(),
				"module", en.module.Hex(),
				"module_name", en.impl.Name(),
				"reason", rejected.Reason,
			)
			return &ComplianceCheckFailedError{Module: en.module, Name: en.impl.Name(), Message: rejected.Reason}
		}
		e.metrics.IncCheck("error")
		e.logger.ErrorContext(ctx, "compliance module failed",
			"token", e.token.Hex(),
			"module", en.module.Hex(),
			"error", err,
		)
		return fmt.Errorf("module %s can transfer: %w", en.impl.Name(), err)
	}
	e.metrics.IncCheck("approved")
	return nil
}

// NotifyCreated runs every module's Created hook after a mint.
func (e *Engine) NotifyCreated(ctx context.Context, to common.Address, value *big.Int) error {
	return e.notify(ctx, "created", func(en entry) error {
		return en.impl.Created(ctx, e.token, to, value, en.params)
	})
}

// NotifyTransferred runs every module's Transferred hook after a transfer.
func (e *Engine) NotifyTransferred(ctx context.Context, from, to common.Address, value *big.Int) error {
	return e.notify(ctx, "transferred", func(en entry) error {
		return en.impl.Transferred(ctx, e.token, from, to, value, en.params)
	})
}

// NotifyDestroyed runs every module's Destroyed hook after a burn or redeem.
func (e *Engine) NotifyDestroyed(ctx context.Context, from common.Address, value *big.Int) error {
	return e.notify(ctx, "destroyed", func(en entry) error {
		return en.impl.Destroyed(ctx, e.token, from, value, en.params)
	})
}

func (e *Engine) notify(ctx context.Context, hook string, call func(entry) error) error {
	for _, en := range e.entries {
		if err := call(en); err != nil {
			e.metrics.IncHookError(hook)
			e.logger.ErrorContext(ctx, "compliance hook failed",
				"token", e.token.Hex(),
				"module", en.module.Hex(),
				"hook", hook,
				"error", err,
			)
			return &HookFailedError{Module: en.module, Hook: hook, Err: err}
		}
	}
	return nil
}

// Checkpoint captures the per-token state of every stateful module. The
// returned function restores it and is used when an operation rolls back.
func (e *Engine) Checkpoint() func() {
	type saved struct {
		s     Snapshotter
		state any
	}
	var snaps []saved
	for _, en := range e.entries {
		if s, ok := en.impl.(Snapshotter); ok {
			snaps = append(snaps, saved{s: s, state: s.Snapshot(e.token)})
		}
	}
	return func() {
		for _, sv := range snaps {
			sv.s.Restore(e.token, sv.state)
		}
	}
}
