package indexer

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/pkg/platform/events"
)

// apply folds one event into the read model. Balances and frozen amounts
// are deltas, so events of different categories may arrive interleaved.
func (p *Projection) apply(e events.Event) error {
	if e.Type.Category() == events.CategoryIdentity {
		return p.applyIdentity(e)
	}

	st := p.token(e.Emitter)
	st.view.Events++
	if e.Timestamp.After(st.view.LastEventAt) {
		st.view.LastEventAt = e.Timestamp
	}

	switch e.Type {
	case events.TypeMintCompleted:
		to, amount, err := addressAmount(e, events.AttrTo)
		if err != nil {
			return err
		}
		st.holder(to).Balance.Add(st.holder(to).Balance, amount)
		st.view.TotalSupply.Add(st.view.TotalSupply, amount)

	case events.TypeBurnCompleted:
		from, amount, err := addressAmount(e, events.AttrFrom)
		if err != nil {
			return err
		}
		h := st.holder(from)
		h.Balance.Sub(h.Balance, amount)
		st.view.TotalSupply.Sub(st.view.TotalSupply, amount)
		st.prune(from)

	case events.TypeTransferCompleted:
		from, amount, err := addressAmount(e, events.AttrFrom)
		if err != nil {
			return err
		}
		to, err := address(e, events.AttrTo)
		if err != nil {
			return err
		}
		st.holder(from).Balance.Sub(st.holder(from).Balance, amount)
		st.holder(to).Balance.Add(st.holder(to).Balance, amount)
		st.prune(from)

	case events.TypeTokensFrozen, events.TypeTokensUnfrozen:
		holder, amount, err := addressAmount(e, events.AttrHolder)
		if err != nil {
			return err
		}
		h := st.holder(holder)
		if e.Type == events.TypeTokensUnfrozen {
			amount.Neg(amount)
		}
		h.FrozenTokens.Add(h.FrozenTokens, amount)
		st.prune(holder)

	case events.TypeAddressFrozen:
		holder, err := address(e, events.AttrHolder)
		if err != nil {
			return err
		}
		frozen, err := strconv.ParseBool(e.Attr(events.AttrFrozen))
		if err != nil {
			return fmt.Errorf("%s: %w", events.AttrFrozen, err)
		}
		st.holder(holder).Frozen = frozen
		st.prune(holder)

	case events.TypeRecoverySuccess:
		// The lost wallet's freeze state moves with its balance without
		// an event of its own.
		lost, err := address(e, events.AttrLost)
		if err != nil {
			return err
		}
		if h, ok := st.holders[lost]; ok {
			h.Frozen = false
			h.FrozenTokens.SetInt64(0)
			st.prune(lost)
		}

	case events.TypeComplianceModuleAdded, events.TypeModuleParametersUpdated:
		module, err := address(e, events.AttrModule)
		if err != nil {
			return err
		}
		st.view.Modules[module] = e.Attr(events.AttrParams)

	case events.TypeComplianceModuleRemoved:
		module, err := address(e, events.AttrModule)
		if err != nil {
			return err
		}
		delete(st.view.Modules, module)

	case events.TypePaused:
		st.view.Paused = true
	case events.TypeUnpaused:
		st.view.Paused = false

	case events.TypeIdentityRegistryUpdated:
		registry, err := address(e, events.AttrRegistry)
		if err != nil {
			return err
		}
		st.view.IdentityRegistry = registry

	case events.TypeRequiredClaimTopicsUpdated:
		st.view.ClaimTopics = e.Attr(events.AttrTopics)

	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil
}

func (p *Projection) applyIdentity(e events.Event) error {
	wallet, err := address(e, events.AttrHolder)
	if err != nil {
		return err
	}
	reg := p.registry(e.Emitter)
	entry := reg[wallet]
	entry.Wallet = wallet

	switch e.Type {
	case events.TypeIdentityRegistered:
		identity, err := address(e, events.AttrIdentity)
		if err != nil {
			return err
		}
		country, err := parseCountry(e.Attr(events.AttrCountry))
		if err != nil {
			return fmt.Errorf("%s: %w", events.AttrCountry, err)
		}
		entry.Identity, entry.Country = identity, country
	case events.TypeIdentityRemoved:
		delete(reg, wallet)
		return nil
	case events.TypeIdentityUpdated:
		identity, err := address(e, events.AttrIdentity)
		if err != nil {
			return err
		}
		entry.Identity = identity
	case events.TypeCountryUpdated:
		country, err := parseCountry(e.Attr(events.AttrCountry))
		if err != nil {
			return fmt.Errorf("%s: %w", events.AttrCountry, err)
		}
		entry.Country = country
	default:
		return fmt.Errorf("unknown identity event %q", e.Type)
	}
	reg[wallet] = entry
	return nil
}

func address(e events.Event, key string) (common.Address, error) {
	v := e.Attr(key)
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", key, v)
	}
	return common.HexToAddress(v), nil
}

func addressAmount(e events.Event, key string) (common.Address, *big.Int, error) {
	addr, err := address(e, key)
	if err != nil {
		return common.Address{}, nil, err
	}
	amount, ok := new(big.Int).SetString(e.Attr(events.AttrAmount), 10)
	if !ok || amount.Sign() < 0 {
		return common.Address{}, nil, fmt.Errorf("%s: invalid amount %q", events.AttrAmount, e.Attr(events.AttrAmount))
	}
	return addr, amount, nil
}
