package claims

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Directory is an in-memory Resolver.
type Directory struct {
	mu         sync.RWMutex
	identities map[common.Address]Identity
	issuers    map[common.Address]Issuer
}

func NewDirectory() *Directory {
	return &Directory{
		identities: make(map[common.Address]Identity),
		issuers:    make(map[common.Address]Issuer),
	}
}

func (d *Directory) AddIdentity(id Identity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.identities[id.Address()] = id
}

func (d *Directory) AddIssuer(is Issuer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.issuers[is.Address()] = is
}

func (d *Directory) Identity(_ context.Context, addr common.Address) (Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.identities[addr]
	if !ok {
		return nil, fmt.Errorf("identity %s: %w", addr.Hex(), ErrUnknownContract)
	}
	return id, nil
}

func (d *Directory) Issuer(_ context.Context, addr common.Address) (Issuer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	is, ok := d.issuers[addr]
	if !ok {
		return nil, fmt.Errorf("issuer %s: %w", addr.Hex(), ErrUnknownContract)
	}
	return is, nil
}
