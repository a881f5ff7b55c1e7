package session

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"tokengate/pkg/domain"
	dErrors "tokengate/pkg/domain-errors"
	"tokengate/pkg/platform/httputil"
	"tokengate/pkg/requestcontext"
)

// Sessions is the service surface used by the handler.
type Sessions interface {
	Issue(ctx context.Context, wallet common.Address, ttl time.Duration) (*Issued, error)
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

type IssueRequest struct {
	Wallet string `json:"wallet"`
	TTL    string `json:"ttl"`

	wallet common.Address
	ttl    time.Duration
}

func (r *IssueRequest) Validate() error {
	var err error
	if r.wallet, err = domain.ParseAddress(r.Wallet); err != nil {
		return err
	}
	r.ttl, err = parseTTL(r.TTL)
	return err
}

type RevokeRequest struct {
	JTI string `json:"jti"`
	TTL string `json:"ttl"`

	ttl time.Duration
}

func (r *RevokeRequest) Validate() error {
	if r.JTI == "" {
		return dErrors.New(dErrors.CodeValidation, "jti is required")
	}
	var err error
	r.ttl, err = parseTTL(r.TTL)
	return err
}

type IssueResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	JTI         string    `json:"jti"`
	Wallet      string    `json:"wallet"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func parseTTL(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeValidation, "ttl must be a duration such as 15m")
	}
	return d, nil
}

type Handler struct {
	sessions Sessions
	logger   *slog.Logger
}

func NewHandler(sessions Sessions, logger *slog.Logger) *Handler {
	return &Handler{sessions: sessions, logger: logger}
}

// Register mounts the session routes. Callers wrap the router with the
// admin token middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/sessions", h.HandleIssue)
	r.Post("/admin/sessions/revoke", h.HandleRevoke)
}

// HandleIssue handles POST /admin/sessions.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[IssueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	issued, err := h.sessions.Issue(ctx, req.wallet, req.ttl)
	if err != nil {
		h.logger.ErrorContext(ctx, "session issue failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, IssueResponse{
		AccessToken: issued.AccessToken,
		TokenType:   "Bearer",
		JTI:         issued.JTI,
		Wallet:      issued.Wallet.Hex(),
		ExpiresAt:   issued.ExpiresAt,
	})
}

// HandleRevoke handles POST /admin/sessions/revoke.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RevokeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.sessions.Revoke(ctx, req.JTI, req.ttl); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
