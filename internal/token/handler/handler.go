// Package handler exposes token operations over HTTP. Every route acts as
// the authenticated caller; role checks happen inside the token.
package handler

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"tokengate/internal/compliance"
	"tokengate/internal/ledger"
	"tokengate/internal/token"
	"tokengate/pkg/domain"
	dErrors "tokengate/pkg/domain-errors"
	"tokengate/pkg/platform/httputil"
	"tokengate/pkg/requestcontext"
)

// Token is the subset of *token.Token served over HTTP.
type Token interface {
	Address() common.Address
	Name() string
	Symbol() string
	Decimals() uint8
	Cap() *big.Int
	TotalSupply(ctx context.Context) *big.Int
	Paused(ctx context.Context) bool
	RequiredClaimTopics(ctx context.Context) []domain.ClaimTopic
	IdentityRegistryAddress() common.Address
	ComplianceModules(ctx context.Context) []compliance.ModuleParams
	Holder(ctx context.Context, holder common.Address) ledger.HolderState
	Holders(ctx context.Context) []ledger.HolderState

	BatchMint(ctx context.Context, tos []common.Address, amounts []*big.Int) error
	BatchBurn(ctx context.Context, froms []common.Address, amounts []*big.Int) error
	Redeem(ctx context.Context, amount *big.Int) error
	BatchTransfer(ctx context.Context, tos []common.Address, amounts []*big.Int) error
	BatchForcedTransfer(ctx context.Context, froms, tos []common.Address, amounts []*big.Int) error
	CheckTransfer(ctx context.Context, from, to common.Address, amount *big.Int) error
	RecoveryAddress(ctx context.Context, lost, newWallet, identity common.Address) error

	BatchSetAddressFrozen(ctx context.Context, holders []common.Address, freeze []bool) error
	BatchFreezePartialTokens(ctx context.Context, holders []common.Address, amounts []*big.Int) error
	BatchUnfreezePartialTokens(ctx context.Context, holders []common.Address, amounts []*big.Int) error

	AddComplianceModule(ctx context.Context, module common.Address, params []byte) error
	RemoveComplianceModule(ctx context.Context, module common.Address) error
	SetParametersForComplianceModule(ctx context.Context, module common.Address, params []byte) error
	SetIdentityRegistry(ctx context.Context, registry common.Address) error
	SetRequiredClaimTopics(ctx context.Context, topics []domain.ClaimTopic) error
	Pause(ctx context.Context) error
	Unpause(ctx context.Context) error
}

// Directory resolves token addresses.
type Directory interface {
	Token(addr common.Address) (Token, error)
}

// Handler wires token endpoints to the token directory.
type Handler struct {
	tokens Directory
	logger *slog.Logger
}

// New constructs a token handler.
func New(tokens Directory, logger *slog.Logger) *Handler {
	return &Handler{tokens: tokens, logger: logger}
}

// FromDirectory adapts a *token.Directory.
func FromDirectory(d *token.Directory) Directory {
	return directoryAdapter{d: d}
}

type directoryAdapter struct{ d *token.Directory }

func (a directoryAdapter) Token(addr common.Address) (Token, error) {
	t, err := a.d.Token(addr)
	if err != nil {
		return nil, err
	}
	return tokenAdapter{Token: t}, nil
}

// tokenAdapter flattens the registry handle into its address.
type tokenAdapter struct{ *token.Token }

func (a tokenAdapter) IdentityRegistryAddress() common.Address {
	return a.Token.IdentityRegistry().Address()
}

// Register mounts token endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/tokens/{token}", func(r chi.Router) {
		r.Get("/", h.HandleGetToken)
		r.Get("/holders", h.HandleListHolders)
		r.Get("/holders/{holder}", h.HandleGetHolder)
		r.Get("/compliance/modules", h.HandleListModules)

		r.Post("/mint", h.HandleMint)
		r.Post("/burn", h.HandleBurn)
		r.Post("/redeem", h.HandleRedeem)
		r.Post("/transfer", h.HandleTransfer)
		r.Post("/forced-transfer", h.HandleForcedTransfer)
		r.Post("/check-transfer", h.HandleCheckTransfer)
		r.Post("/recovery", h.HandleRecovery)

		r.Post("/freeze", h.HandleFreeze)
		r.Post("/freeze-partial", h.HandleFreezePartial)
		r.Post("/unfreeze-partial", h.HandleUnfreezePartial)

		r.Post("/compliance/modules", h.HandleAddModule)
		r.Put("/compliance/modules/{module}", h.HandleSetModuleParams)
		r.Delete("/compliance/modules/{module}", h.HandleRemoveModule)
		r.Put("/identity-registry", h.HandleSetIdentityRegistry)
		r.Put("/claim-topics", h.HandleSetClaimTopics)
		r.Post("/pause", h.HandlePause)
		r.Post("/unpause", h.HandleUnpause)
	})
}

// HandleGetToken handles GET /tokens/{token}.
func (h *Handler) HandleGetToken(w http.ResponseWriter, r *http.Request) {
	t, ok := h.resolve(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTokenResponse(r.Context(), t))
}

// HandleListHolders handles GET /tokens/{token}/holders.
func (h *Handler) HandleListHolders(w http.ResponseWriter, r *http.Request) {
	t, ok := h.resolve(w, r)
	if !ok {
		return
	}
	states := t.Holders(r.Context())
	resp := HoldersResponse{Holders: make([]HolderResponse, 0, len(states))}
	for _, s := range states {
		resp.Holders = append(resp.Holders, toHolderResponse(s))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleGetHolder handles GET /tokens/{token}/holders/{holder}.
func (h *Handler) HandleGetHolder(w http.ResponseWriter, r *http.Request) {
	t, ok := h.resolve(w, r)
	if !ok {
		return
	}
	holder, err := domain.ParseAddress(chi.URLParam(r, "holder"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toHolderResponse(t.Holder(r.Context(), holder)))
}

// HandleListModules handles GET /tokens/{token}/compliance/modules.
func (h *Handler) HandleListModules(w http.ResponseWriter, r *http.Request) {
	t, ok := h.resolve(w, r)
	if !ok {
		return
	}
	bound := t.ComplianceModules(r.Context())
	resp := ModulesResponse{Modules: make([]ModuleResponse, 0, len(bound))}
	for _, m := range bound {
		resp.Modules = append(resp.Modules, toModuleResponse(m))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleMint handles POST /tokens/{token}/mint.
func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	h.amountBatch(w, r, "mint", func(ctx context.Context, t Token, req *AmountBatchRequest) error {
		return t.BatchMint(ctx, req.addresses, req.amounts)
	})
}

// HandleBurn handles POST /tokens/{token}/burn.
func (h *Handler) HandleBurn(w http.ResponseWriter, r *http.Request) {
	h.amountBatch(w, r, "burn", func(ctx context.Context, t Token, req *AmountBatchRequest) error {
		return t.BatchBurn(ctx, req.addresses, req.amounts)
	})
}

// HandleTransfer handles POST /tokens/{token}/transfer. The caller is the
// sender of every item.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	h.amountBatch(w, r, "transfer", func(ctx context.Context, t Token, req *AmountBatchRequest) error {
		return t.BatchTransfer(ctx, req.addresses, req.amounts)
	})
}

// HandleFreezePartial handles POST /tokens/{token}/freeze-partial.
func (h *Handler) HandleFreezePartial(w http.ResponseWriter, r *http.Request) {
	h.amountBatch(w, r, "freeze_partial", func(ctx context.Context, t Token, req *AmountBatchRequest) error {
		return t.BatchFreezePartialTokens(ctx, req.addresses, req.amounts)
	})
}

// HandleUnfreezePartial handles POST /tokens/{token}/unfreeze-partial.
func (h *Handler) HandleUnfreezePartial(w http.ResponseWriter, r *http.Request) {
	h.amountBatch(w, r, "unfreeze_partial", func(ctx context.Context, t Token, req *AmountBatchRequest) error {
		return t.BatchUnfreezePartialTokens(ctx, req.addresses, req.amounts)
	})
}

// HandleRedeem handles POST /tokens/{token}/redeem.
func (h *Handler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	withBody(h, w, r, "redeem", func(ctx context.Context, t Token, req *RedeemRequest) error {
		return t.Redeem(ctx, req.amount)
	})
}

// HandleForcedTransfer handles POST /tokens/{token}/forced-transfer.
func (h *Handler) HandleForcedTransfer(w http.ResponseWriter, r *http.Request) {
	withBody(h, w, r, "forced_transfer", func(ctx context.Context, t Token, req *ForcedTransferRequest) error {
		return t.BatchForcedTransfer(ctx, req.froms, req.tos, req.amounts)
	})
}

// HandleRecovery handles POST /tokens/{token}/recovery.
func (h *Handler) HandleRecovery(w http.ResponseWriter, r *http.Request) {
	withBody(h, w, r, "recovery", func(ctx context.Context, t Token, req *RecoveryRequest) error {
		return t.RecoveryAddress(ctx, req.lost, req.newWallet, req.identity)
	})
}

// HandleFreeze handles POST /tokens/{token}/freeze.
func (h *Handler) HandleFreeze(w http.ResponseWriter, r *http.Request) {
	withBody(h, w, r, "freeze", func(ctx context.Context, t Token, req *FreezeRequest) error {
		return t.BatchSetAddressFrozen(ctx, req.holders, req.frozen)
	})
}

// HandleAddModule handles POST /tokens/{token}/compliance/modules.
func (h *Handler) HandleAddModule(w http.ResponseWriter, r *http.Request) {
	withBody(h, w, r, "add_module", func(ctx context.Context, t Token, req *ModuleRequest) error {
		return t.AddComplianceModule(ctx, req.module, req.params)
	})
}

// HandleSetModuleParams handles PUT /tokens/{token}/compliance/modules/{module}.
func (h *Handler) HandleSetModuleParams(w http.ResponseWriter, r *http.Request) {
	module, err := domain.ParseAddress(chi.URLParam(r, "module"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	withBody(h, w, r, "set_module_params", func(ctx context.Context, t Token, req *ModuleParamsRequest) error {
		return t.SetParametersForComplianceModule(ctx, module, req.params)
	})
}

// HandleRemoveModule handles DELETE /tokens/{token}/compliance/modules/{module}.
func (h *Handler) HandleRemoveModule(w http.ResponseWriter, r *http.Request) {
	module, err := domain.ParseAddress(chi.URLParam(r, "module"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.noBody(w, r, "remove_module", func(ctx context.Context, t Token) error {
		return t.RemoveComplianceModule(ctx, module)
	})
}

// HandleSetIdentityRegistry handles PUT /tokens/{token}/identity-registry.
func (h *Handler) HandleSetIdentityRegistry(w http.ResponseWriter, r *http.Request) {
	withBody(h, w, r, "set_identity_registry", func(ctx context.Context, t Token, req *IdentityRegistryRequest) error {
		return t.SetIdentityRegistry(ctx, req.registry)
	})
}

// HandleSetClaimTopics handles PUT /tokens/{token}/claim-topics.
func (h *Handler) HandleSetClaimTopics(w http.ResponseWriter, r *http.Request) {
	withBody(h, w, r, "set_claim_topics", func(ctx context.Context, t Token, req *ClaimTopicsRequest) error {
		return t.SetRequiredClaimTopics(ctx, req.topics())
	})
}

// HandlePause handles POST /tokens/{token}/pause.
func (h *Handler) HandlePause(w http.ResponseWriter, r *http.Request) {
	h.noBody(w, r, "pause", func(ctx context.Context, t Token) error { return t.Pause(ctx) })
}

// HandleUnpause handles POST /tokens/{token}/unpause.
func (h *Handler) HandleUnpause(w http.ResponseWriter, r *http.Request) {
	h.noBody(w, r, "unpause", func(ctx context.Context, t Token) error { return t.Unpause(ctx) })
}

// HandleCheckTransfer handles POST /tokens/{token}/check-transfer. A
// rejected transfer is a successful check: the verdict is in the body.
func (h *Handler) HandleCheckTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	t, ok := h.resolve(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CheckTransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	err := t.CheckTransfer(ctx, req.from, req.to, req.amount)
	if err != nil && dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "check transfer failed",
			"request_id", requestID,
			"token", t.Address().Hex(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCheckResponse(err))
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (Token, bool) {
	addr, err := domain.ParseAddress(chi.URLParam(r, "token"))
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	t, err := h.tokens.Token(addr)
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	return t, true
}

func (h *Handler) amountBatch(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, Token, *AmountBatchRequest) error) {
	withBody(h, w, r, op, fn)
}

func (h *Handler) noBody(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, Token) error) {
	t, ok := h.resolve(w, r)
	if !ok {
		return
	}
	h.finish(w, r, t, op, fn(r.Context(), t))
}

// withBody decodes a request, runs op and writes the outcome. It is a
// function because methods cannot carry type parameters.
func withBody[T any, PT interface {
	*T
	httputil.Validatable
}](h *Handler, w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, Token, PT) error) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	t, ok := h.resolve(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[T, PT](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	h.finish(w, r, t, op, fn(ctx, t, req))
}

func (h *Handler) finish(w http.ResponseWriter, r *http.Request, t Token, op string, err error) {
	ctx := r.Context()
	if err != nil {
		h.logger.WarnContext(ctx, "token operation rejected",
			"request_id", requestcontext.RequestID(ctx),
			"token", t.Address().Hex(),
			"caller", requestcontext.Caller(ctx).Hex(),
			"operation", op,
			"reason", dErrors.ReasonOf(err),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, OperationResponse{
		Token:     t.Address().Hex(),
		Operation: op,
		Status:    "ok",
	})
}
