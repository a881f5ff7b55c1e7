package token

import (
	"context"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/internal/compliance/ports"
	dErrors "tokengate/pkg/domain-errors"
)

// Directory knows the identity registries and tokens of one deployment.
// Compliance modules resolve a token's registry through it.
type Directory struct {
	mu         sync.RWMutex
	registries map[common.Address]IdentityRegistry
	tokens     map[common.Address]*Token
}

func NewDirectory() *Directory {
	return &Directory{
		registries: make(map[common.Address]IdentityRegistry),
		tokens:     make(map[common.Address]*Token),
	}
}

func (d *Directory) AddRegistry(r IdentityRegistry) error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "registry is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.registries[r.Address()]; ok {
		return dErrors.New(dErrors.CodeConflict, "registry already known")
	}
	d.registries[r.Address()] = r
	return nil
}

func (d *Directory) Registry(addr common.Address) (IdentityRegistry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.registries[addr]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "identity registry not found")
	}
	return r, nil
}

func (d *Directory) Add(t *Token) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.tokens[t.Address()]; ok {
		return dErrors.New(dErrors.CodeConflict, "token already deployed")
	}
	d.tokens[t.Address()] = t
	return nil
}

func (d *Directory) Token(addr common.Address) (*Token, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.tokens[addr]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "token not found")
	}
	return t, nil
}

// Tokens lists deployed tokens ordered by address.
func (d *Directory) Tokens() []*Token {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Token, 0, len(d.tokens))
	for _, t := range d.tokens {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address().Cmp(out[j].Address()) < 0
	})
	return out
}

// IdentityRegistryOf implements ports.RegistryResolver.
func (d *Directory) IdentityRegistryOf(_ context.Context, token common.Address) (ports.IdentityLookup, error) {
	t, err := d.Token(token)
	if err != nil {
		return nil, err
	}
	return t.IdentityRegistry(), nil
}
