package claims

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/pkg/domain"
)

// Holder is an in-process identity contract.
type Holder struct {
	address common.Address

	mu     sync.RWMutex
	claims map[common.Hash]Claim
}

// NewHolder creates an identity at addr with no claims.
func NewHolder(addr common.Address) *Holder {
	return &Holder{address: addr, claims: make(map[common.Hash]Claim)}
}

func (h *Holder) Address() common.Address { return h.address }

// AddClaim stores or replaces the claim for (issuer, topic).
func (h *Holder) AddClaim(c Claim) common.Hash {
	c.ID = ClaimID(c.Issuer, c.Topic)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.claims[c.ID] = c
	return c.ID
}

// RemoveClaim deletes a claim; unknown ids are ignored.
func (h *Holder) RemoveClaim(id common.Hash) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.claims, id)
}

func (h *Holder) ClaimsByTopic(_ context.Context, topic domain.ClaimTopic) ([]Claim, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []Claim
	for _, c := range h.claims {
		if c.Topic == topic {
			out = append(out, c)
		}
	}
	return out, nil
}
