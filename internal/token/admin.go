package token

import (
	"context"
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/internal/access"
	"tokengate/pkg/domain"
	"tokengate/pkg/platform/events"
)

// -----------------------------------------------------------------------------
// Custodian surface
// -----------------------------------------------------------------------------

func (t *Token) SetAddressFrozen(ctx context.Context, holder common.Address, freeze bool) error {
	return t.BatchSetAddressFrozen(ctx, []common.Address{holder}, []bool{freeze})
}

func (t *Token) BatchSetAddressFrozen(ctx context.Context, holders []common.Address, freeze []bool) error {
	if err := t.access.Require(ctx, access.RoleCustodian); err != nil {
		return err
	}
	if err := checkLengths(len(holders), len(freeze)); err != nil {
		return err
	}
	err := t.execute(ctx, "set_address_frozen", func(ctx context.Context, st *opState) error {
		for i := range holders {
			if err := t.custodian.SetAddressFrozen(ctx, st.tx, holders[i], freeze[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	t.logAudit(ctx, "address_freeze_set", "holders", len(holders))
	return nil
}

func (t *Token) FreezePartialTokens(ctx context.Context, holder common.Address, amount *big.Int) error {
	return t.BatchFreezePartialTokens(ctx, []common.Address{holder}, []*big.Int{amount})
}

func (t *Token) BatchFreezePartialTokens(ctx context.Context, holders []common.Address, amounts []*big.Int) error {
	return t.partialFreeze(ctx, "freeze_partial_tokens", holders, amounts, true)
}

func (t *Token) UnfreezePartialTokens(ctx context.Context, holder common.Address, amount *big.Int) error {
	return t.BatchUnfreezePartialTokens(ctx, []common.Address{holder}, []*big.Int{amount})
}

func (t *Token) BatchUnfreezePartialTokens(ctx context.Context, holders []common.Address, amounts []*big.Int) error {
	return t.partialFreeze(ctx, "unfreeze_partial_tokens", holders, amounts, false)
}

func (t *Token) partialFreeze(ctx context.Context, op string, holders []common.Address, amounts []*big.Int, freeze bool) error {
	if err := t.access.Require(ctx, access.RoleCustodian); err != nil {
		return err
	}
	if err := checkLengths(len(holders), len(amounts)); err != nil {
		return err
	}
	err := t.execute(ctx, op, func(ctx context.Context, st *opState) error {
		for i := range holders {
			var err error
			if freeze {
				err = t.custodian.FreezePartialTokens(ctx, st.tx, holders[i], amounts[i])
			} else {
				err = t.custodian.UnfreezePartialTokens(ctx, st.tx, holders[i], amounts[i])
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	t.logAudit(ctx, op, "holders", len(holders))
	return nil
}

// -----------------------------------------------------------------------------
// Compliance modules
// -----------------------------------------------------------------------------

// AddComplianceModule binds a deployed module with its parameters. Caller
// needs the governance role.
func (t *Token) AddComplianceModule(ctx context.Context, module common.Address, params []byte) error {
	if err := t.access.Require(ctx, access.RoleGovernance); err != nil {
		return err
	}
	err := t.execute(ctx, "add_compliance_module", func(ctx context.Context, st *opState) error {
		if err := st.mutableEngine().AddModule(module, params); err != nil {
			return err
		}
		t.emit(ctx, st, events.TypeComplianceModuleAdded,
			events.AttrModule, module.Hex(),
			events.AttrParams, hexParams(params),
		)
		return nil
	})
	if err != nil {
		return err
	}
	t.logAudit(ctx, "compliance_module_added", "module", module.Hex())
	return nil
}

// RemoveComplianceModule unbinds a module. Module order afterwards is
// unspecified.
func (t *Token) RemoveComplianceModule(ctx context.Context, module common.Address) error {
	if err := t.access.Require(ctx, access.RoleGovernance); err != nil {
		return err
	}
	err := t.execute(ctx, "remove_compliance_module", func(ctx context.Context, st *opState) error {
		if err := st.mutableEngine().RemoveModule(module); err != nil {
			return err
		}
		t.emit(ctx, st, events.TypeComplianceModuleRemoved,
			events.AttrModule, module.Hex(),
		)
		return nil
	})
	if err != nil {
		return err
	}
	t.logAudit(ctx, "compliance_module_removed", "module", module.Hex())
	return nil
}

func (t *Token) SetParametersForComplianceModule(ctx context.Context, module common.Address, params []byte) error {
	if err := t.access.Require(ctx, access.RoleGovernance); err != nil {
		return err
	}
	err := t.execute(ctx, "set_module_parameters", func(ctx context.Context, st *opState) error {
		if err := st.mutableEngine().SetModuleParameters(module, params); err != nil {
			return err
		}
		t.emit(ctx, st, events.TypeModuleParametersUpdated,
			events.AttrModule, module.Hex(),
			events.AttrParams, hexParams(params),
		)
		return nil
	})
	if err != nil {
		return err
	}
	t.logAudit(ctx, "module_parameters_updated", "module", module.Hex())
	return nil
}

// -----------------------------------------------------------------------------
// Governance
// -----------------------------------------------------------------------------

// SetIdentityRegistry rebinds the token to another registry known to the
// directory.
func (t *Token) SetIdentityRegistry(ctx context.Context, registry common.Address) error {
	if err := t.access.Require(ctx, access.RoleGovernance); err != nil {
		return err
	}
	next, err := t.directory.Registry(registry)
	if err != nil {
		return err
	}
	err = t.execute(ctx, "set_identity_registry", func(ctx context.Context, st *opState) error {
		st.registry = next
		t.emit(ctx, st, events.TypeIdentityRegistryUpdated,
			events.AttrRegistry, registry.Hex(),
		)
		return nil
	})
	if err != nil {
		return err
	}
	t.logAudit(ctx, "identity_registry_updated", "registry", registry.Hex())
	return nil
}

// SetRequiredClaimTopics replaces the topics a recipient must hold valid
// claims for. Duplicates are dropped; an empty list disables the claim check.
func (t *Token) SetRequiredClaimTopics(ctx context.Context, topics []domain.ClaimTopic) error {
	if err := t.access.Require(ctx, access.RoleGovernance); err != nil {
		return err
	}
	unique := domain.UniqueTopics(topics)
	err := t.execute(ctx, "set_required_claim_topics", func(ctx context.Context, st *opState) error {
		st.topics = unique
		t.emit(ctx, st, events.TypeRequiredClaimTopicsUpdated,
			events.AttrTopics, formatTopics(unique),
		)
		return nil
	})
	if err != nil {
		return err
	}
	t.logAudit(ctx, "required_claim_topics_updated", "topics", formatTopics(unique))
	return nil
}

// Pause stops standard mints, transfers, burns and redemptions. Forced
// custodian operations still run. Caller needs the emergency role.
func (t *Token) Pause(ctx context.Context) error {
	return t.setPaused(ctx, true)
}

func (t *Token) Unpause(ctx context.Context) error {
	return t.setPaused(ctx, false)
}

func (t *Token) setPaused(ctx context.Context, paused bool) error {
	if err := t.access.Require(ctx, access.RoleEmergency); err != nil {
		return err
	}
	op, typ := "pause", events.TypePaused
	if !paused {
		op, typ = "unpause", events.TypeUnpaused
	}
	err := t.execute(ctx, op, func(ctx context.Context, st *opState) error {
		if paused && st.paused {
			return &EnforcedPauseError{}
		}
		if !paused && !st.paused {
			return &ExpectedPauseError{}
		}
		st.paused = paused
		t.emit(ctx, st, typ)
		return nil
	})
	if err != nil {
		return err
	}
	t.logAudit(ctx, op)
	return nil
}

func hexParams(params []byte) string {
	return "0x" + hex.EncodeToString(params)
}

func formatTopics(topics []domain.ClaimTopic) string {
	parts := make([]string, len(topics))
	for i, topic := range topics {
		parts[i] = strconv.FormatUint(uint64(topic), 10)
	}
	return strings.Join(parts, ",")
}
