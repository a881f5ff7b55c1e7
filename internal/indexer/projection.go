// Package indexer maintains a queryable read model of token and identity
// registry state built purely from published events. It never reads the
// token itself, so it can run in another process behind Kafka.
package indexer

import (
	"context"
	"log/slog"
	"math/big"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"tokengate/internal/indexer/metrics"
	"tokengate/pkg/platform/events"
)

// defaultDedupeWindow bounds how many event IDs are remembered to absorb
// broker redeliveries.
const defaultDedupeWindow = 100_000

// HolderView is the projected state of one holder.
type HolderView struct {
	Address      common.Address
	Balance      *big.Int
	Frozen       bool
	FrozenTokens *big.Int
}

// TokenView is the projected state of one token.
type TokenView struct {
	Address          common.Address
	TotalSupply      *big.Int
	Paused           bool
	IdentityRegistry common.Address
	ClaimTopics      string
	Modules          map[common.Address]string
	Holders          int
	Events           int
	LastEventAt      time.Time
}

// IdentityView is the projected registry entry of one wallet.
type IdentityView struct {
	Wallet   common.Address
	Identity common.Address
	Country  uint16
}

type tokenState struct {
	view    TokenView
	holders map[common.Address]*HolderView
}

type Projection struct {
	mu         sync.RWMutex
	tokens     map[common.Address]*tokenState
	registries map[common.Address]map[common.Address]IdentityView

	seen   map[uuid.UUID]struct{}
	order  []uuid.UUID
	window int

	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Projection)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Projection) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Projection) { p.metrics = m }
}

// WithDedupeWindow sets how many recent event IDs are remembered.
func WithDedupeWindow(n int) Option {
	return func(p *Projection) {
		if n > 0 {
			p.window = n
		}
	}
}

func New(opts ...Option) *Projection {
	p := &Projection{
		tokens:     make(map[common.Address]*tokenState),
		registries: make(map[common.Address]map[common.Address]IdentityView),
		seen:       make(map[uuid.UUID]struct{}),
		window:     defaultDedupeWindow,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Notify implements events.Listener. Redelivered events are ignored.
func (p *Projection) Notify(ctx context.Context, evs []events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range evs {
		if p.remember(e.ID) {
			p.metrics.IncDuplicate()
			continue
		}
		if err := p.apply(e); err != nil {
			p.metrics.IncMalformed(string(e.Type))
			p.logger.WarnContext(ctx, "skipping malformed event",
				"event_id", e.ID.String(),
				"type", string(e.Type),
				"emitter", e.Emitter.Hex(),
				"error", err,
			)
			continue
		}
		p.metrics.IncProjected(string(e.Type))
	}
}

// remember reports whether id was already seen and records it otherwise.
func (p *Projection) remember(id uuid.UUID) bool {
	if _, ok := p.seen[id]; ok {
		return true
	}
	p.seen[id] = struct{}{}
	p.order = append(p.order, id)
	if len(p.order) > p.window {
		delete(p.seen, p.order[0])
		p.order = p.order[1:]
	}
	return false
}

// Token returns the projected token view.
func (p *Projection) Token(addr common.Address) (TokenView, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	st, ok := p.tokens[addr]
	if !ok {
		return TokenView{}, false
	}
	view := st.view
	view.TotalSupply = new(big.Int).Set(st.view.TotalSupply)
	view.Modules = make(map[common.Address]string, len(st.view.Modules))
	for k, v := range st.view.Modules {
		view.Modules[k] = v
	}
	view.Holders = len(st.holders)
	return view, true
}

// Holder returns the projected holder view; unknown holders are zero.
func (p *Projection) Holder(token, holder common.Address) HolderView {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if st, ok := p.tokens[token]; ok {
		if h, ok := st.holders[holder]; ok {
			return copyHolder(h)
		}
	}
	return HolderView{Address: holder, Balance: new(big.Int), FrozenTokens: new(big.Int)}
}

// Holders lists non-empty holders ordered by address.
func (p *Projection) Holders(token common.Address) []HolderView {
	p.mu.RLock()
	defer p.mu.RUnlock()
	st, ok := p.tokens[token]
	if !ok {
		return nil
	}
	out := make([]HolderView, 0, len(st.holders))
	for _, h := range st.holders {
		out = append(out, copyHolder(h))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address.Cmp(out[j].Address) < 0 })
	return out
}

// Identity returns the projected registry entry of wallet.
func (p *Projection) Identity(registry, wallet common.Address) (IdentityView, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.registries[registry][wallet]
	return v, ok
}

func copyHolder(h *HolderView) HolderView {
	return HolderView{
		Address:      h.Address,
		Balance:      new(big.Int).Set(h.Balance),
		Frozen:       h.Frozen,
		FrozenTokens: new(big.Int).Set(h.FrozenTokens),
	}
}

func (p *Projection) token(addr common.Address) *tokenState {
	st, ok := p.tokens[addr]
	if !ok {
		st = &tokenState{
			view: TokenView{
				Address:     addr,
				TotalSupply: new(big.Int),
				Modules:     make(map[common.Address]string),
			},
			holders: make(map[common.Address]*HolderView),
		}
		p.tokens[addr] = st
	}
	return st
}

func (st *tokenState) holder(addr common.Address) *HolderView {
	h, ok := st.holders[addr]
	if !ok {
		h = &HolderView{Address: addr, Balance: new(big.Int), FrozenTokens: new(big.Int)}
		st.holders[addr] = h
	}
	return h
}

// prune drops holders that carry no state.
func (st *tokenState) prune(addr common.Address) {
	h, ok := st.holders[addr]
	if ok && h.Balance.Sign() == 0 && h.FrozenTokens.Sign() == 0 && !h.Frozen {
		delete(st.holders, addr)
	}
}

func (p *Projection) registry(addr common.Address) map[common.Address]IdentityView {
	r, ok := p.registries[addr]
	if !ok {
		r = make(map[common.Address]IdentityView)
		p.registries[addr] = r
	}
	return r
}

func parseCountry(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	return uint16(v), err
}
