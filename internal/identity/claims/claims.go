// Package claims models the identity collaborators the gate consults: an
// identity holding topic-tagged claims and the issuers that signed them.
// The default implementations sign claims with secp256k1 keys the same way
// on-chain claim issuers do, so signatures are portable.
package claims

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"tokengate/pkg/domain"
)

// ErrUnknownContract is returned when a resolver has no collaborator at an address.
var ErrUnknownContract = errors.New("no contract at address")

// Claim is an attestation stored on an identity.
type Claim struct {
	ID        common.Hash
	Topic     domain.ClaimTopic
	Issuer    common.Address
	Signature []byte
	Data      []byte
	URI       string
}

// Identity is the identity contract as seen by the gate.
type Identity interface {
	Address() common.Address
	ClaimsByTopic(ctx context.Context, topic domain.ClaimTopic) ([]Claim, error)
}

// Issuer validates claims it signed.
type Issuer interface {
	Address() common.Address
	IsClaimValid(ctx context.Context, identity common.Address, topic domain.ClaimTopic, sig, data []byte) (bool, error)
}

// Resolver finds collaborators by address.
type Resolver interface {
	Identity(ctx context.Context, addr common.Address) (Identity, error)
	Issuer(ctx context.Context, addr common.Address) (Issuer, error)
}

// ClaimID is keccak256(issuer ‖ topic), one claim per issuer and topic.
func ClaimID(issuer common.Address, topic domain.ClaimTopic) common.Hash {
	return crypto.Keccak256Hash(issuer.Bytes(), topic.Bytes32())
}

// Digest is the message an issuer signs for a claim.
func Digest(identity common.Address, topic domain.ClaimTopic, data []byte) []byte {
	return crypto.Keccak256(identity.Bytes(), topic.Bytes32(), data)
}

// RecoverSigner returns the address that produced sig over the claim digest,
// using the Ethereum signed-message prefix.
func RecoverSigner(identity common.Address, topic domain.ClaimTopic, sig, data []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, errors.New("invalid signature length")
	}
	normalized := make([]byte, len(sig))
	copy(normalized, sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash(Digest(identity, topic, data)), normalized)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}
