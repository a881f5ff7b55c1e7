package handler

import (
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/pkg/domain"
	dErrors "tokengate/pkg/domain-errors"
)

const maxBatchItems = 500

// AmountItem is one (address, amount) pair of a batch.
type AmountItem struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

// AmountBatchRequest is the body of mint, transfer, burn and partial
// freeze requests.
type AmountBatchRequest struct {
	Items []AmountItem `json:"items"`

	addresses []common.Address
	amounts   []*big.Int
}

// Validate implements httputil.Validatable.
func (r *AmountBatchRequest) Validate() error {
	if err := checkBatchSize(len(r.Items)); err != nil {
		return err
	}
	r.addresses = make([]common.Address, len(r.Items))
	r.amounts = make([]*big.Int, len(r.Items))
	for i, item := range r.Items {
		addr, err := domain.ParseAddress(item.Address)
		if err != nil {
			return err
		}
		amount, err := domain.ParseAmount(item.Amount)
		if err != nil {
			return err
		}
		r.addresses[i], r.amounts[i] = addr, amount
	}
	return nil
}

// ForcedTransferItem moves value between two holders.
type ForcedTransferItem struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type ForcedTransferRequest struct {
	Items []ForcedTransferItem `json:"items"`

	froms   []common.Address
	tos     []common.Address
	amounts []*big.Int
}

func (r *ForcedTransferRequest) Validate() error {
	if err := checkBatchSize(len(r.Items)); err != nil {
		return err
	}
	for _, item := range r.Items {
		from, err := domain.ParseAddress(item.From)
		if err != nil {
			return err
		}
		to, err := domain.ParseAddress(item.To)
		if err != nil {
			return err
		}
		amount, err := domain.ParseAmount(item.Amount)
		if err != nil {
			return err
		}
		r.froms = append(r.froms, from)
		r.tos = append(r.tos, to)
		r.amounts = append(r.amounts, amount)
	}
	return nil
}

type RedeemRequest struct {
	Amount string `json:"amount"`

	amount *big.Int
}

func (r *RedeemRequest) Validate() error {
	amount, err := domain.ParseAmount(r.Amount)
	if err != nil {
		return err
	}
	r.amount = amount
	return nil
}

type CheckTransferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`

	from, to common.Address
	amount   *big.Int
}

func (r *CheckTransferRequest) Validate() error {
	var err error
	if r.from, err = domain.ParseAddress(r.From); err != nil {
		return err
	}
	if r.to, err = domain.ParseAddress(r.To); err != nil {
		return err
	}
	r.amount, err = domain.ParseAmount(r.Amount)
	return err
}

type RecoveryRequest struct {
	LostWallet string `json:"lost_wallet"`
	NewWallet  string `json:"new_wallet"`
	Identity   string `json:"identity"`

	lost, newWallet, identity common.Address
}

func (r *RecoveryRequest) Validate() error {
	var err error
	if r.lost, err = domain.ParseAddress(r.LostWallet); err != nil {
		return err
	}
	if r.newWallet, err = domain.ParseAddress(r.NewWallet); err != nil {
		return err
	}
	r.identity, err = domain.ParseAddress(r.Identity)
	return err
}

type FreezeItem struct {
	Address string `json:"address"`
	Frozen  bool   `json:"frozen"`
}

type FreezeRequest struct {
	Items []FreezeItem `json:"items"`

	holders []common.Address
	frozen  []bool
}

func (r *FreezeRequest) Validate() error {
	if err := checkBatchSize(len(r.Items)); err != nil {
		return err
	}
	for _, item := range r.Items {
		addr, err := domain.ParseAddress(item.Address)
		if err != nil {
			return err
		}
		r.holders = append(r.holders, addr)
		r.frozen = append(r.frozen, item.Frozen)
	}
	return nil
}

// ModuleRequest binds a module. Params are 0x-prefixed hex of the module's
// ABI-encoded parameters.
type ModuleRequest struct {
	Module string `json:"module"`
	Params string `json:"params"`

	module common.Address
	params []byte
}

func (r *ModuleRequest) Validate() error {
	var err error
	if r.module, err = domain.ParseAddress(r.Module); err != nil {
		return err
	}
	r.params, err = decodeHex(r.Params)
	return err
}

type ModuleParamsRequest struct {
	Params string `json:"params"`

	params []byte
}

func (r *ModuleParamsRequest) Validate() error {
	var err error
	r.params, err = decodeHex(r.Params)
	return err
}

type IdentityRegistryRequest struct {
	Registry string `json:"registry"`

	registry common.Address
}

func (r *IdentityRegistryRequest) Validate() error {
	var err error
	r.registry, err = domain.ParseAddress(r.Registry)
	return err
}

type ClaimTopicsRequest struct {
	Topics []uint64 `json:"topics"`
}

func (r *ClaimTopicsRequest) Validate() error {
	if len(r.Topics) > maxBatchItems {
		return dErrors.New(dErrors.CodeValidation, "too many topics")
	}
	return nil
}

func (r *ClaimTopicsRequest) topics() []domain.ClaimTopic {
	out := make([]domain.ClaimTopic, len(r.Topics))
	for i, t := range r.Topics {
		out[i] = domain.ClaimTopic(t)
	}
	return out
}

func checkBatchSize(n int) error {
	if n == 0 {
		return dErrors.New(dErrors.CodeValidation, "items are required")
	}
	if n > maxBatchItems {
		return dErrors.New(dErrors.CodeValidation, "too many items")
	}
	return nil
}

func decodeHex(s string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "params must be hex")
	}
	return raw, nil
}
