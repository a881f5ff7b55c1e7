package claims

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"tokengate/pkg/domain"
)

// SigningIssuer is an in-process claim issuer. It signs with its own key,
// accepts signatures from any registered claim key and keeps a revocation
// set keyed by signature hash.
type SigningIssuer struct {
	address common.Address
	key     *ecdsa.PrivateKey

	mu      sync.RWMutex
	keys    map[common.Address]struct{}
	revoked map[common.Hash]struct{}
}

// NewSigningIssuer creates an issuer at addr whose claim key is key.
func NewSigningIssuer(addr common.Address, key *ecdsa.PrivateKey) *SigningIssuer {
	return &SigningIssuer{
		address: addr,
		key:     key,
		keys:    map[common.Address]struct{}{crypto.PubkeyToAddress(key.PublicKey): {}},
		revoked: make(map[common.Hash]struct{}),
	}
}

// GenerateIssuer creates an issuer with a fresh key.
func GenerateIssuer(addr common.Address) (*SigningIssuer, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate issuer key: %w", err)
	}
	return NewSigningIssuer(addr, key), nil
}

func (i *SigningIssuer) Address() common.Address { return i.address }

// AddClaimKey authorizes another signer address.
func (i *SigningIssuer) AddClaimKey(signer common.Address) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.keys[signer] = struct{}{}
}

// RemoveClaimKey drops a signer; claims it signed stop validating.
func (i *SigningIssuer) RemoveClaimKey(signer common.Address) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.keys, signer)
}

// Sign produces a claim signature for identity.
func (i *SigningIssuer) Sign(identity common.Address, topic domain.ClaimTopic, data []byte) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash(Digest(identity, topic, data)), i.key)
	if err != nil {
		return nil, fmt.Errorf("sign claim: %w", err)
	}
	return sig, nil
}

// Issue signs a claim and stores it on the holder.
func (i *SigningIssuer) Issue(holder *Holder, topic domain.ClaimTopic, data []byte) (Claim, error) {
	sig, err := i.Sign(holder.Address(), topic, data)
	if err != nil {
		return Claim{}, err
	}
	c := Claim{Topic: topic, Issuer: i.address, Signature: sig, Data: data}
	c.ID = holder.AddClaim(c)
	return c, nil
}

// Revoke invalidates a previously issued signature.
func (i *SigningIssuer) Revoke(sig []byte) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.revoked[crypto.Keccak256Hash(sig)] = struct{}{}
}

// IsRevoked reports whether sig has been revoked.
func (i *SigningIssuer) IsRevoked(sig []byte) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.revoked[crypto.Keccak256Hash(sig)]
	return ok
}

// IsClaimValid recovers the signer and checks it holds a claim key and the
// signature has not been revoked. Malformed signatures are invalid, not errors.
func (i *SigningIssuer) IsClaimValid(_ context.Context, identity common.Address, topic domain.ClaimTopic, sig, data []byte) (bool, error) {
	signer, err := RecoverSigner(identity, topic, sig, data)
	if err != nil {
		return false, nil
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	if _, ok := i.keys[signer]; !ok {
		return false, nil
	}
	if _, revoked := i.revoked[crypto.Keccak256Hash(sig)]; revoked {
		return false, nil
	}
	return true, nil
}
