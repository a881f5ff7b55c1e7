package handler

import (
	"context"
	"encoding/hex"
	"math/big"
	"strconv"

	"tokengate/internal/compliance"
	"tokengate/internal/ledger"
	dErrors "tokengate/pkg/domain-errors"
)

// OperationResponse acknowledges a committed state change.
type OperationResponse struct {
	Token     string `json:"token"`
	Operation string `json:"operation"`
	Status    string `json:"status"`
}

type TokenResponse struct {
	Address             string   `json:"address"`
	Name                string   `json:"name"`
	Symbol              string   `json:"symbol"`
	Decimals            uint8    `json:"decimals"`
	Cap                 string   `json:"cap"`
	TotalSupply         string   `json:"total_supply"`
	Paused              bool     `json:"paused"`
	IdentityRegistry    string   `json:"identity_registry"`
	RequiredClaimTopics []string `json:"required_claim_topics"`
}

type HolderResponse struct {
	Address      string `json:"address"`
	Balance      string `json:"balance"`
	Frozen       bool   `json:"frozen"`
	FrozenTokens string `json:"frozen_tokens"`
}

type HoldersResponse struct {
	Holders []HolderResponse `json:"holders"`
}

type ModuleResponse struct {
	Module string `json:"module"`
	Params string `json:"params"`
}

type ModulesResponse struct {
	Modules []ModuleResponse `json:"modules"`
}

// CheckTransferResponse is the verdict of a dry-run transfer.
type CheckTransferResponse struct {
	Allowed bool   `json:"allowed"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

func toTokenResponse(ctx context.Context, t Token) TokenResponse {
	topics := t.RequiredClaimTopics(ctx)
	formatted := make([]string, len(topics))
	for i, topic := range topics {
		formatted[i] = strconv.FormatUint(uint64(topic), 10)
	}
	return TokenResponse{
		Address:             t.Address().Hex(),
		Name:                t.Name(),
		Symbol:              t.Symbol(),
		Decimals:            t.Decimals(),
		Cap:                 amountString(t.Cap()),
		TotalSupply:         amountString(t.TotalSupply(ctx)),
		Paused:              t.Paused(ctx),
		IdentityRegistry:    t.IdentityRegistryAddress().Hex(),
		RequiredClaimTopics: formatted,
	}
}

func toHolderResponse(s ledger.HolderState) HolderResponse {
	return HolderResponse{
		Address:      s.Address.Hex(),
		Balance:      amountString(s.Balance),
		Frozen:       s.Frozen,
		FrozenTokens: amountString(s.FrozenTokens),
	}
}

func toModuleResponse(m compliance.ModuleParams) ModuleResponse {
	return ModuleResponse{Module: m.Module.Hex(), Params: "0x" + hex.EncodeToString(m.Params)}
}

func toCheckResponse(err error) CheckTransferResponse {
	if err == nil {
		return CheckTransferResponse{Allowed: true}
	}
	return CheckTransferResponse{
		Code:    string(dErrors.CodeOf(err)),
		Reason:  dErrors.ReasonOf(err),
		Message: err.Error(),
	}
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
