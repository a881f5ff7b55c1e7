// Package events defines the token event envelope published to indexers.
//
// Events are buffered inside an operation and only leave the process once
// the operation commits. They are written to an outbox first and relayed to
// Kafka from there; nothing is retried back to the original caller.
package events

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Category groups event types for routing. Each category maps to its own
// Kafka topic so consumers can subscribe to only what they project.
type Category string

const (
	// CategoryCustody covers freezes, thaws, forced transfers and recoveries.
	CategoryCustody Category = "custody"
	// CategoryCompliance covers compliance module configuration.
	CategoryCompliance Category = "compliance"
	// CategorySupply covers mints, transfers and burns.
	CategorySupply Category = "supply"
	// CategoryIdentity covers identity registry mutations.
	CategoryIdentity Category = "identity"
	// CategoryGovernance covers token configuration changes.
	CategoryGovernance Category = "governance"
)

// Type names an event.
type Type string

const (
	TypeAddressFrozen              Type = "AddressFrozen"
	TypeTokensFrozen               Type = "TokensFrozen"
	TypeTokensUnfrozen             Type = "TokensUnfrozen"
	TypeRecoverySuccess            Type = "RecoverySuccess"
	TypeComplianceModuleAdded      Type = "ComplianceModuleAdded"
	TypeComplianceModuleRemoved    Type = "ComplianceModuleRemoved"
	TypeModuleParametersUpdated    Type = "ModuleParametersUpdated"
	TypeMintCompleted              Type = "MintCompleted"
	TypeTransferCompleted          Type = "TransferCompleted"
	TypeBurnCompleted              Type = "BurnCompleted"
	TypePaused                     Type = "Paused"
	TypeUnpaused                   Type = "Unpaused"
	TypeIdentityRegistryUpdated    Type = "IdentityRegistryUpdated"
	TypeRequiredClaimTopicsUpdated Type = "RequiredClaimTopicsUpdated"
	TypeIdentityRegistered         Type = "IdentityRegistered"
	TypeIdentityRemoved            Type = "IdentityRemoved"
	TypeIdentityUpdated            Type = "IdentityUpdated"
	TypeCountryUpdated             Type = "CountryUpdated"
)

var typeCategories = map[Type]Category{
	TypeAddressFrozen:   CategoryCustody,
	TypeTokensFrozen:    CategoryCustody,
	TypeTokensUnfrozen:  CategoryCustody,
	TypeRecoverySuccess: CategoryCustody,

	TypeComplianceModuleAdded:   CategoryCompliance,
	TypeComplianceModuleRemoved: CategoryCompliance,
	TypeModuleParametersUpdated: CategoryCompliance,

	TypeMintCompleted:     CategorySupply,
	TypeTransferCompleted: CategorySupply,
	TypeBurnCompleted:     CategorySupply,

	TypeIdentityRegistered: CategoryIdentity,
	TypeIdentityRemoved:    CategoryIdentity,
	TypeIdentityUpdated:    CategoryIdentity,
	TypeCountryUpdated:     CategoryIdentity,

	TypePaused:                     CategoryGovernance,
	TypeUnpaused:                   CategoryGovernance,
	TypeIdentityRegistryUpdated:    CategoryGovernance,
	TypeRequiredClaimTopicsUpdated: CategoryGovernance,
}

// Category returns the routing category. Unknown types fall back to governance.
func (t Type) Category() Category {
	if c, ok := typeCategories[t]; ok {
		return c
	}
	return CategoryGovernance
}

// Categories lists every routing category in a stable order.
func Categories() []Category {
	return []Category{CategorySupply, CategoryCustody, CategoryCompliance, CategoryGovernance, CategoryIdentity}
}

// Attribute keys shared by emitters and projections.
const (
	AttrHolder    = "holder"
	AttrFrom      = "from"
	AttrTo        = "to"
	AttrAmount    = "amount"
	AttrFrozen    = "frozen"
	AttrModule    = "module"
	AttrParams    = "params"
	AttrLost      = "lost_wallet"
	AttrNew       = "new_wallet"
	AttrIdentity  = "identity"
	AttrCountry   = "country"
	AttrRegistry  = "registry"
	AttrTopics    = "topics"
	AttrForced    = "forced"
	AttrOperation = "operation"
)

// Event is the transport-agnostic envelope. Emitter is the contract that
// produced it (a token or an identity registry); Actor is the caller.
type Event struct {
	ID         uuid.UUID
	Type       Type
	Emitter    common.Address
	Actor      common.Address
	Attributes map[string]string
	RequestID  string
	Timestamp  time.Time
}

// New builds an event from alternating key/value attribute pairs.
func New(typ Type, emitter, actor common.Address, kv ...string) Event {
	attrs := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		attrs[kv[i]] = kv[i+1]
	}
	return Event{
		ID:         uuid.New(),
		Type:       typ,
		Emitter:    emitter,
		Actor:      actor,
		Attributes: attrs,
	}
}

// Attr returns an attribute or "".
func (e Event) Attr(key string) string {
	return e.Attributes[key]
}

// Record is an outbox row.
type Record struct {
	Event       Event
	CreatedAt   time.Time
	PublishedAt *time.Time
}

// Outbox persists events until they are relayed.
type Outbox interface {
	Append(ctx context.Context, events ...Event) error
	Pending(ctx context.Context, limit int) ([]Record, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Publisher accepts committed-operation events.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// Listener observes events after the operation that produced them committed.
type Listener interface {
	Notify(ctx context.Context, events []Event)
}
