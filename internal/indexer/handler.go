package indexer

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"tokengate/pkg/domain"
	dErrors "tokengate/pkg/domain-errors"
	"tokengate/pkg/platform/httputil"
)

type HolderResponse struct {
	Address      string `json:"address"`
	Balance      string `json:"balance"`
	Frozen       bool   `json:"frozen"`
	FrozenTokens string `json:"frozen_tokens"`
}

type ModuleResponse struct {
	Module string `json:"module"`
	Params string `json:"params"`
}

type TokenResponse struct {
	Address          string           `json:"address"`
	TotalSupply      string           `json:"total_supply"`
	Paused           bool             `json:"paused"`
	IdentityRegistry string           `json:"identity_registry,omitempty"`
	ClaimTopics      string           `json:"claim_topics,omitempty"`
	Modules          []ModuleResponse `json:"modules"`
	Holders          []HolderResponse `json:"holders"`
	Events           int              `json:"events"`
	LastEventAt      *time.Time       `json:"last_event_at,omitempty"`
}

type IdentityResponse struct {
	Wallet   string `json:"wallet"`
	Identity string `json:"identity"`
	Country  string `json:"country"`
}

// Handler serves the read model.
type Handler struct {
	projection *Projection
}

func NewHandler(p *Projection) *Handler {
	return &Handler{projection: p}
}

// Register mounts the index routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/index/tokens/{token}", h.HandleToken)
	r.Get("/index/tokens/{token}/holders/{holder}", h.HandleHolder)
	r.Get("/index/registries/{registry}/identities/{wallet}", h.HandleIdentity)
}

// HandleToken handles GET /index/tokens/{token}.
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	token, ok := pathAddress(w, r, "token")
	if !ok {
		return
	}
	view, found := h.projection.Token(token)
	if !found {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "token has no indexed events"))
		return
	}

	resp := TokenResponse{
		Address:     view.Address.Hex(),
		TotalSupply: view.TotalSupply.String(),
		Paused:      view.Paused,
		ClaimTopics: view.ClaimTopics,
		Modules:     make([]ModuleResponse, 0, len(view.Modules)),
		Holders:     []HolderResponse{},
		Events:      view.Events,
	}
	if !domain.IsZero(view.IdentityRegistry) {
		resp.IdentityRegistry = view.IdentityRegistry.Hex()
	}
	if !view.LastEventAt.IsZero() {
		last := view.LastEventAt
		resp.LastEventAt = &last
	}
	for module, params := range view.Modules {
		resp.Modules = append(resp.Modules, ModuleResponse{Module: module.Hex(), Params: params})
	}
	sort.Slice(resp.Modules, func(i, j int) bool { return resp.Modules[i].Module < resp.Modules[j].Module })
	for _, holder := range h.projection.Holders(token) {
		resp.Holders = append(resp.Holders, toHolderResponse(holder))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleHolder handles GET /index/tokens/{token}/holders/{holder}.
func (h *Handler) HandleHolder(w http.ResponseWriter, r *http.Request) {
	token, ok := pathAddress(w, r, "token")
	if !ok {
		return
	}
	holder, ok := pathAddress(w, r, "holder")
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toHolderResponse(h.projection.Holder(token, holder)))
}

// HandleIdentity handles GET /index/registries/{registry}/identities/{wallet}.
func (h *Handler) HandleIdentity(w http.ResponseWriter, r *http.Request) {
	registry, ok := pathAddress(w, r, "registry")
	if !ok {
		return
	}
	wallet, ok := pathAddress(w, r, "wallet")
	if !ok {
		return
	}
	view, found := h.projection.Identity(registry, wallet)
	if !found {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "identity not indexed"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, IdentityResponse{
		Wallet:   view.Wallet.Hex(),
		Identity: view.Identity.Hex(),
		Country:  strconv.Itoa(int(view.Country)),
	})
}

func toHolderResponse(v HolderView) HolderResponse {
	return HolderResponse{
		Address:      v.Address.Hex(),
		Balance:      v.Balance.String(),
		Frozen:       v.Frozen,
		FrozenTokens: v.FrozenTokens.String(),
	}
}

func pathAddress(w http.ResponseWriter, r *http.Request, param string) (common.Address, bool) {
	addr, err := domain.ParseAddress(chi.URLParam(r, param))
	if err != nil {
		httputil.WriteError(w, err)
		return common.Address{}, false
	}
	return addr, true
}
