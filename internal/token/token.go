// Package token implements the permissioned token aggregate: balances under
// custodian control, an identity gate and a compliance engine composed by an
// explicit hook chain. Every state-changing operation runs under a per-token
// lock against a ledger transaction and either commits whole or leaves no
// trace.
package token

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tokengate/internal/access"
	"tokengate/internal/compliance"
	"tokengate/internal/custodian"
	"tokengate/internal/ledger"
	"tokengate/internal/token/metrics"
	"tokengate/internal/token/store"
	"tokengate/pkg/domain"
	dErrors "tokengate/pkg/domain-errors"
	"tokengate/pkg/platform/events"
	"tokengate/pkg/platform/tx"
	"tokengate/pkg/requestcontext"
)

const tracerName = "tokengate/internal/token"

// Config describes a token at deployment.
type Config struct {
	Address             common.Address
	Name                string
	Symbol              string
	Decimals            uint8
	Cap                 *big.Int
	IdentityRegistry    common.Address
	RequiredClaimTopics []domain.ClaimTopic
	Admin               common.Address
}

type registryRef struct {
	registry IdentityRegistry
}

// Token is one permissioned token.
type Token struct {
	address   common.Address
	name      string
	symbol    string
	decimals  uint8
	cap       *big.Int
	access    *access.Controller
	directory *Directory
	custodian *custodian.Custodian
	chain     *Chain

	mu       sync.RWMutex
	ledger   *ledger.Ledger
	engine   *compliance.Engine
	registry atomic.Pointer[registryRef]
	topics   []domain.ClaimTopic
	paused   bool
	sequence uint64

	store            store.Store
	runner           tx.Runner
	publisher        events.Publisher
	listeners        []events.Listener
	logger           *slog.Logger
	metrics          *metrics.Metrics
	tracer           trace.Tracer
	engineOptions    []compliance.EngineOption
	custodianOptions []custodian.Option
}

// Option configures a Token.
type Option func(*Token)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Token) {
		t.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Token) {
		t.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(t *Token) {
		t.tracer = tracer
	}
}

// WithStore persists a snapshot inside every committed operation.
func WithStore(s store.Store) Option {
	return func(t *Token) {
		t.store = s
	}
}

// WithTxRunner sets the unit of work that snapshot and outbox writes share.
func WithTxRunner(r tx.Runner) Option {
	return func(t *Token) {
		t.runner = r
	}
}

// WithPublisher writes operation events to an outbox before commit. A
// publish failure aborts the operation.
func WithPublisher(p events.Publisher) Option {
	return func(t *Token) {
		t.publisher = p
	}
}

// WithListeners are told about events after commit.
func WithListeners(ls ...events.Listener) Option {
	return func(t *Token) {
		t.listeners = append(t.listeners, ls...)
	}
}

func WithComplianceOptions(opts ...compliance.EngineOption) Option {
	return func(t *Token) {
		t.engineOptions = append(t.engineOptions, opts...)
	}
}

func WithCustodianOptions(opts ...custodian.Option) Option {
	return func(t *Token) {
		t.custodianOptions = append(t.custodianOptions, opts...)
	}
}

// New deploys a token. The identity registry is resolved through directory;
// compliance modules through catalog.
func New(cfg Config, directory *Directory, catalog *compliance.Catalog, opts ...Option) (*Token, error) {
	if domain.IsZero(cfg.Address) {
		return nil, fmt.Errorf("token address is required")
	}
	if cfg.Name == "" || cfg.Symbol == "" {
		return nil, fmt.Errorf("token name and symbol are required")
	}
	if domain.IsZero(cfg.Admin) {
		return nil, fmt.Errorf("token admin is required")
	}
	if directory == nil {
		return nil, fmt.Errorf("directory is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("module catalog is required")
	}
	if cfg.Cap != nil {
		if err := domain.ValidateAmount(cfg.Cap); err != nil {
			return nil, fmt.Errorf("token cap: %w", err)
		}
		if cfg.Cap.Sign() == 0 {
			return nil, fmt.Errorf("token cap must be positive")
		}
	}
	registry, err := directory.Registry(cfg.IdentityRegistry)
	if err != nil {
		return nil, err
	}

	t := &Token{
		address:   cfg.Address,
		name:      cfg.Name,
		symbol:    cfg.Symbol,
		decimals:  cfg.Decimals,
		access:    access.NewController(cfg.Admin),
		directory: directory,
		ledger:    ledger.New(),
		topics:    domain.UniqueTopics(cfg.RequiredClaimTopics),
		runner:    tx.NoopRunner{},
		logger:    slog.Default(),
	}
	if cfg.Cap != nil {
		t.cap = new(big.Int).Set(cfg.Cap)
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.tracer == nil {
		t.tracer = otel.Tracer(tracerName)
	}
	t.registry.Store(&registryRef{registry: registry})

	if t.engine, err = compliance.NewEngine(t.address, catalog, t.engineOptions...); err != nil {
		return nil, err
	}
	if t.custodian, err = custodian.New(t.address, t.custodianOptions...); err != nil {
		return nil, err
	}
	t.chain = t.buildChain()
	return t, nil
}

// -----------------------------------------------------------------------------
// Operation plumbing
// -----------------------------------------------------------------------------

// opState is the working copy an operation mutates. Nothing in it is visible
// to other operations until commit.
type opState struct {
	tx           *ledger.Tx
	engine       *compliance.Engine
	engineCloned bool
	registry     IdentityRegistry
	topics       []domain.ClaimTopic
	paused       bool
	compensate   []func(context.Context) error
}

func (st *opState) mutableEngine() *compliance.Engine {
	if !st.engineCloned {
		st.engine = st.engine.Clone()
		st.engineCloned = true
	}
	return st.engine
}

// onRollback registers an undo step for a side effect outside the ledger.
func (st *opState) onRollback(fn func(context.Context) error) {
	st.compensate = append(st.compensate, fn)
}

func (t *Token) begin() *opState {
	return &opState{
		tx:       t.ledger.Begin(),
		engine:   t.engine,
		registry: t.IdentityRegistry(),
		topics:   slices.Clone(t.topics),
		paused:   t.paused,
	}
}

// execute runs fn as one all-or-nothing operation.
func (t *Token) execute(ctx context.Context, op string, fn func(ctx context.Context, st *opState) error) (err error) {
	if inOperation(ctx, t.address) {
		return &ReentrantCallError{Token: t.address}
	}
	ctx = enterOperation(ctx, t.address)
	ctx, span := t.tracer.Start(ctx, "token."+op, trace.WithAttributes(
		attribute.String("token", t.address.Hex()),
		attribute.String("operation", op),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = string(dErrors.CodeOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		t.metrics.ObserveOperation(op, outcome, time.Since(start))
	}()

	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.begin()
	restoreModules := t.engine.Checkpoint()
	evs, err := t.run(ctx, st, fn)
	if err != nil {
		restoreModules()
		t.rollback(ctx, st)
		st.tx.Discard()
		return err
	}

	if err := st.tx.Commit(); err != nil {
		restoreModules()
		t.rollback(ctx, st)
		return err
	}
	t.engine = st.engine
	t.registry.Store(&registryRef{registry: st.registry})
	t.topics = st.topics
	t.paused = st.paused
	t.sequence++

	for _, l := range t.listeners {
		l.Notify(ctx, evs)
	}
	return nil
}

// run executes fn, checks ledger invariants and persists the result.
func (t *Token) run(ctx context.Context, st *opState, fn func(ctx context.Context, st *opState) error) ([]events.Event, error) {
	if err := fn(ctx, st); err != nil {
		return nil, err
	}
	if err := st.tx.Validate(); err != nil {
		return nil, err
	}
	evs := t.stamp(ctx, st.tx.Events())
	if t.store == nil && t.publisher == nil {
		return evs, nil
	}
	err := t.runner.RunInTx(ctx, func(ctx context.Context) error {
		if t.store != nil {
			if err := t.store.Save(ctx, t.snapshotOf(ctx, st)); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "persist token snapshot")
			}
		}
		if t.publisher != nil && len(evs) > 0 {
			if err := t.publisher.Publish(ctx, evs...); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "publish token events")
			}
		}
		return nil
	})
	if err != nil {
		t.logger.ErrorContext(ctx, "token operation persistence failed",
			"token", t.address.Hex(),
			"error", err,
		)
		return nil, err
	}
	return evs, nil
}

func (t *Token) rollback(ctx context.Context, st *opState) {
	for i := len(st.compensate) - 1; i >= 0; i-- {
		if err := st.compensate[i](ctx); err != nil {
			t.logger.ErrorContext(ctx, "token rollback step failed",
				"token", t.address.Hex(),
				"error", err,
			)
		}
	}
}

func (t *Token) stamp(ctx context.Context, evs []events.Event) []events.Event {
	now := requestcontext.Now(ctx)
	requestID := requestcontext.RequestID(ctx)
	for i := range evs {
		if evs[i].Timestamp.IsZero() {
			evs[i].Timestamp = now
		}
		if evs[i].RequestID == "" {
			evs[i].RequestID = requestID
		}
	}
	return evs
}

func (t *Token) emit(ctx context.Context, st *opState, typ events.Type, kv ...string) {
	st.tx.Emit(events.New(typ, t.address, requestcontext.Caller(ctx), kv...))
}

// logAudit emits an audit log line for a committed privileged operation.
func (t *Token) logAudit(ctx context.Context, event string, attrs ...any) {
	if t.logger == nil {
		return
	}
	attrs = append(attrs, "token", t.address.Hex(), "caller", requestcontext.Caller(ctx).Hex())
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attrs = append(attrs, "request_id", requestID)
	}
	args := append(attrs, "event", event, "log_type", "audit")
	t.logger.InfoContext(ctx, event, args...)
}

// readLock takes the read lock unless ctx is already inside an operation of
// this token, which holds the write lock on the same call path.
func (t *Token) readLock(ctx context.Context) func() {
	if inOperation(ctx, t.address) {
		return func() {}
	}
	t.mu.RLock()
	return t.mu.RUnlock
}

// -----------------------------------------------------------------------------
// Views
// -----------------------------------------------------------------------------

func (t *Token) Address() common.Address    { return t.address }
func (t *Token) Name() string               { return t.name }
func (t *Token) Symbol() string             { return t.symbol }
func (t *Token) Decimals() uint8            { return t.decimals }
func (t *Token) Access() *access.Controller { return t.access }
func (t *Token) Chain() *Chain              { return t.chain }

// Cap returns the supply cap, or nil when uncapped.
func (t *Token) Cap() *big.Int {
	if t.cap == nil {
		return nil
	}
	return new(big.Int).Set(t.cap)
}

// IdentityRegistry returns the committed registry binding. It never blocks,
// so compliance modules may call it while an operation holds the lock.
func (t *Token) IdentityRegistry() IdentityRegistry {
	return t.registry.Load().registry
}

func (t *Token) RequiredClaimTopics(ctx context.Context) []domain.ClaimTopic {
	defer t.readLock(ctx)()
	return slices.Clone(t.topics)
}

func (t *Token) Paused(ctx context.Context) bool {
	defer t.readLock(ctx)()
	return t.paused
}

func (t *Token) ComplianceModules(ctx context.Context) []compliance.ModuleParams {
	defer t.readLock(ctx)()
	return t.engine.Modules()
}

func (t *Token) BalanceOf(ctx context.Context, holder common.Address) *big.Int {
	defer t.readLock(ctx)()
	return t.ledger.BalanceOf(holder)
}

func (t *Token) TotalSupply(ctx context.Context) *big.Int {
	defer t.readLock(ctx)()
	return t.ledger.TotalSupply()
}

func (t *Token) IsFrozen(ctx context.Context, holder common.Address) bool {
	defer t.readLock(ctx)()
	return t.ledger.IsFrozen(holder)
}

func (t *Token) FrozenTokens(ctx context.Context, holder common.Address) *big.Int {
	defer t.readLock(ctx)()
	return t.ledger.FrozenTokens(holder)
}

// AvailableBalance is balance minus frozen tokens.
func (t *Token) AvailableBalance(ctx context.Context, holder common.Address) *big.Int {
	defer t.readLock(ctx)()
	return new(big.Int).Sub(t.ledger.BalanceOf(holder), t.ledger.FrozenTokens(holder))
}

// Holder returns the custodian view of one holder.
func (t *Token) Holder(ctx context.Context, holder common.Address) ledger.HolderState {
	defer t.readLock(ctx)()
	return ledger.HolderState{
		Address:      holder,
		Balance:      t.ledger.BalanceOf(holder),
		Frozen:       t.ledger.IsFrozen(holder),
		FrozenTokens: t.ledger.FrozenTokens(holder),
	}
}

// Holders lists every holder with non-default state.
func (t *Token) Holders(ctx context.Context) []ledger.HolderState {
	defer t.readLock(ctx)()
	return t.ledger.Holders()
}

// -----------------------------------------------------------------------------
// Snapshots
// -----------------------------------------------------------------------------

func (t *Token) snapshotOf(ctx context.Context, st *opState) *store.Snapshot {
	next := st.tx.Preview()
	return &store.Snapshot{
		Version:             store.SchemaVersion,
		Token:               t.address,
		Sequence:            t.sequence + 1,
		Name:                t.name,
		Symbol:              t.symbol,
		Decimals:            t.decimals,
		Cap:                 t.Cap(),
		TotalSupply:         next.TotalSupply(),
		Holders:             next.Holders(),
		Modules:             st.engine.Modules(),
		IdentityRegistry:    st.registry.Address(),
		RequiredClaimTopics: slices.Clone(st.topics),
		Paused:              st.paused,
		UpdatedAt:           requestcontext.Now(ctx),
	}
}

// Snapshot returns the committed state.
func (t *Token) Snapshot(ctx context.Context) *store.Snapshot {
	defer t.readLock(ctx)()
	return &store.Snapshot{
		Version:             store.SchemaVersion,
		Token:               t.address,
		Sequence:            t.sequence,
		Name:                t.name,
		Symbol:              t.symbol,
		Decimals:            t.decimals,
		Cap:                 t.Cap(),
		TotalSupply:         t.ledger.TotalSupply(),
		Holders:             t.ledger.Holders(),
		Modules:             t.engine.Modules(),
		IdentityRegistry:    t.IdentityRegistry().Address(),
		RequiredClaimTopics: slices.Clone(t.topics),
		Paused:              t.paused,
		UpdatedAt:           requestcontext.Now(ctx),
	}
}

// Restore replaces the token state with a persisted snapshot. Modules are
// re-resolved and their parameters re-validated.
func (t *Token) Restore(ctx context.Context, snap *store.Snapshot) error {
	if snap == nil || snap.Token != t.address {
		return dErrors.New(dErrors.CodeInvalidInput, "snapshot does not belong to this token")
	}
	if snap.Version != store.SchemaVersion {
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unsupported snapshot version %d", snap.Version))
	}
	registry, err := t.directory.Registry(snap.IdentityRegistry)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	next := ledger.New()
	if err := next.Load(snap.Holders, snap.TotalSupply); err != nil {
		return err
	}
	engine := t.engine.Clone()
	if err := engine.Load(snap.Modules); err != nil {
		return err
	}
	t.ledger = next
	t.engine = engine
	t.registry.Store(&registryRef{registry: registry})
	t.topics = domain.UniqueTopics(snap.RequiredClaimTopics)
	t.paused = snap.Paused
	t.sequence = snap.Sequence
	t.logger.InfoContext(ctx, "token state restored",
		"token", t.address.Hex(),
		"sequence", snap.Sequence,
		"holders", len(snap.Holders),
	)
	return nil
}
