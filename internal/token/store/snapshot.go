// Package store persists token state as schema-versioned snapshots.
package store

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/internal/compliance"
	"tokengate/internal/ledger"
	"tokengate/pkg/domain"
)

// SchemaVersion is bumped whenever Snapshot changes shape. Loaders reject
// versions they do not know.
const SchemaVersion = 1

// Snapshot is the full persisted state of one token.
type Snapshot struct {
	Version             int                       `json:"version"`
	Token               common.Address            `json:"token"`
	Sequence            uint64                    `json:"sequence"`
	Name                string                    `json:"name"`
	Symbol              string                    `json:"symbol"`
	Decimals            uint8                     `json:"decimals"`
	Cap                 *big.Int                  `json:"cap,omitempty"`
	TotalSupply         *big.Int                  `json:"total_supply"`
	Holders             []ledger.HolderState      `json:"holders"`
	Modules             []compliance.ModuleParams `json:"modules"`
	IdentityRegistry    common.Address            `json:"identity_registry"`
	RequiredClaimTopics []domain.ClaimTopic       `json:"required_claim_topics"`
	Paused              bool                      `json:"paused"`
	UpdatedAt           time.Time                 `json:"updated_at"`
}

// Store saves and loads snapshots. Save joins the SQL transaction carried
// by ctx when there is one.
type Store interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context, token common.Address) (*Snapshot, error)
	List(ctx context.Context) ([]common.Address, error)
}
