package service

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/internal/access"
	"tokengate/pkg/domain"
	dErrors "tokengate/pkg/domain-errors"
)

// maxTopicsPerIssuer bounds the per-issuer scan in IssuersForTopic.
const maxTopicsPerIssuer = 15

// TrustedIssuers records which issuers are trusted for which claim topics.
// Trust is topic-scoped: an issuer trusted for KYC is not trusted for AML.
type TrustedIssuers struct {
	access *access.Controller

	mu     sync.RWMutex
	topics map[common.Address][]domain.ClaimTopic
	order  []common.Address
}

// NewTrustedIssuers creates an empty registry. Mutations require the
// governance role on ctrl.
func NewTrustedIssuers(ctrl *access.Controller) *TrustedIssuers {
	return &TrustedIssuers{
		access: ctrl,
		topics: make(map[common.Address][]domain.ClaimTopic),
	}
}

// AddTrustedIssuer trusts issuer for the given topics.
func (t *TrustedIssuers) AddTrustedIssuer(ctx context.Context, issuer common.Address, topics []domain.ClaimTopic) error {
	if err := t.access.Require(ctx, access.RoleGovernance); err != nil {
		return err
	}
	topics, err := validateIssuerTopics(issuer, topics)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.topics[issuer]; ok {
		return dErrors.New(dErrors.CodeConflict, "trusted issuer already exists")
	}
	t.topics[issuer] = topics
	t.order = append(t.order, issuer)
	return nil
}

// RemoveTrustedIssuer revokes all trust in issuer.
func (t *TrustedIssuers) RemoveTrustedIssuer(ctx context.Context, issuer common.Address) error {
	if err := t.access.Require(ctx, access.RoleGovernance); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.topics[issuer]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "trusted issuer not found")
	}
	delete(t.topics, issuer)
	for i, a := range t.order {
		if a == issuer {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

// UpdateIssuerClaimTopics replaces the topic set of an existing issuer.
func (t *TrustedIssuers) UpdateIssuerClaimTopics(ctx context.Context, issuer common.Address, topics []domain.ClaimTopic) error {
	if err := t.access.Require(ctx, access.RoleGovernance); err != nil {
		return err
	}
	topics, err := validateIssuerTopics(issuer, topics)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.topics[issuer]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "trusted issuer not found")
	}
	t.topics[issuer] = topics
	return nil
}

// IssuersForTopic lists issuers trusted for topic, in trust order.
func (t *TrustedIssuers) IssuersForTopic(topic domain.ClaimTopic) []common.Address {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []common.Address
	for _, issuer := range t.order {
		for _, tp := range t.topics[issuer] {
			if tp == topic {
				out = append(out, issuer)
				break
			}
		}
	}
	return out
}

// IsTrustedFor reports whether issuer may attest topic.
func (t *TrustedIssuers) IsTrustedFor(issuer common.Address, topic domain.ClaimTopic) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, tp := range t.topics[issuer] {
		if tp == topic {
			return true
		}
	}
	return false
}

// Issuers lists every trusted issuer in trust order.
func (t *TrustedIssuers) Issuers() []common.Address {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]common.Address(nil), t.order...)
}

func validateIssuerTopics(issuer common.Address, topics []domain.ClaimTopic) ([]domain.ClaimTopic, error) {
	if domain.IsZero(issuer) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "issuer address is required")
	}
	topics = domain.UniqueTopics(topics)
	if len(topics) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "trusted claim topics cannot be empty")
	}
	if len(topics) > maxTopicsPerIssuer {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "too many claim topics for one issuer")
	}
	return topics, nil
}
