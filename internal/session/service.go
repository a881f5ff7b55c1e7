// Package session issues and revokes the bearer tokens that authenticate a
// wallet against the token API. Issuance is an operator action.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/pkg/domain"
	dErrors "tokengate/pkg/domain-errors"
	"tokengate/pkg/requestcontext"
)

const (
	DefaultTTL = 15 * time.Minute
	MaxTTL     = 24 * time.Hour
)

// Issuer signs access tokens for a wallet.
type Issuer interface {
	GenerateAccessToken(wallet common.Address, expiresIn time.Duration) (token string, jti string, err error)
}

// Revoker records revoked token IDs.
type Revoker interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
}

// Issued is a freshly signed token.
type Issued struct {
	AccessToken string
	JTI         string
	Wallet      common.Address
	ExpiresAt   time.Time
}

type Service struct {
	issuer  Issuer
	revoker Revoker
	logger  *slog.Logger
}

func NewService(issuer Issuer, revoker Revoker, logger *slog.Logger) (*Service, error) {
	if issuer == nil {
		return nil, fmt.Errorf("issuer is required")
	}
	if revoker == nil {
		return nil, fmt.Errorf("revoker is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{issuer: issuer, revoker: revoker, logger: logger}, nil
}

// Issue signs a token acting as wallet. A zero ttl uses DefaultTTL.
func (s *Service) Issue(ctx context.Context, wallet common.Address, ttl time.Duration) (*Issued, error) {
	if domain.IsZero(wallet) {
		return nil, dErrors.New(dErrors.CodeValidation, "wallet is required")
	}
	ttl, err := normalizeTTL(ttl)
	if err != nil {
		return nil, err
	}

	token, jti, err := s.issuer.GenerateAccessToken(wallet, ttl)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign access token")
	}
	s.logAudit(ctx, "session_issued",
		"wallet", wallet.Hex(),
		"jti", jti,
		"ttl", ttl.String(),
	)
	return &Issued{
		AccessToken: token,
		JTI:         jti,
		Wallet:      wallet,
		ExpiresAt:   requestcontext.Now(ctx).Add(ttl),
	}, nil
}

// Revoke blocks jti until its remaining lifetime has passed. Callers pass
// the original ttl; revoking for longer than needed is harmless.
func (s *Service) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return dErrors.New(dErrors.CodeValidation, "jti is required")
	}
	ttl, err := normalizeTTL(ttl)
	if err != nil {
		return err
	}
	if err := s.revoker.RevokeToken(ctx, jti, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	s.logAudit(ctx, "session_revoked", "jti", jti)
	return nil
}

func normalizeTTL(ttl time.Duration) (time.Duration, error) {
	switch {
	case ttl == 0:
		return DefaultTTL, nil
	case ttl < 0 || ttl > MaxTTL:
		return 0, dErrors.New(dErrors.CodeValidation, "ttl must be between 0 and 24h")
	default:
		return ttl, nil
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attrs ...any) {
	args := append(attrs,
		"request_id", requestcontext.RequestID(ctx),
		"event", event,
		"log_type", "audit",
	)
	s.logger.InfoContext(ctx, event, args...)
}
