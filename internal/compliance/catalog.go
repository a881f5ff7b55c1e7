package compliance

import (
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/pkg/domain"
	dErrors "tokengate/pkg/domain-errors"
)

// Catalog maps deployed contract addresses to their implementations. Any
// value may be deployed; only values implementing Module can be added to an
// engine.
type Catalog struct {
	mu       sync.RWMutex
	deployed map[common.Address]any
}

func NewCatalog() *Catalog {
	return &Catalog{deployed: make(map[common.Address]any)}
}

// Deploy registers impl at addr.
func (c *Catalog) Deploy(addr common.Address, impl any) error {
	if domain.IsZero(addr) {
		return dErrors.New(dErrors.CodeInvalidInput, "module address is required")
	}
	if impl == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "module implementation is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.deployed[addr]; exists {
		return dErrors.New(dErrors.CodeConflict, "address already deployed")
	}
	c.deployed[addr] = impl
	return nil
}

// Resolve performs the capability check for addr.
func (c *Catalog) Resolve(addr common.Address) (Module, error) {
	c.mu.RLock()
	impl, ok := c.deployed[addr]
	c.mu.RUnlock()
	if !ok {
		return nil, &InvalidModuleImplementationError{Module: addr}
	}
	m, ok := impl.(Module)
	if !ok {
		return nil, &InvalidModuleImplementationError{Module: addr}
	}
	return m, nil
}

// Lookup returns the raw deployment at addr.
func (c *Catalog) Lookup(addr common.Address) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	impl, ok := c.deployed[addr]
	return impl, ok
}

// Addresses lists deployed addresses in byte order.
func (c *Catalog) Addresses() []common.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]common.Address, 0, len(c.deployed))
	for addr := range c.deployed {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}
