// Package store persists identity registry entries. Every backend is scoped
// to one registry and returns sentinel.ErrNotFound for unknown wallets.
package store

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/internal/identity/models"
)

// Store is the storage port used by the registry service.
type Store interface {
	Get(ctx context.Context, wallet common.Address) (*models.Entry, error)
	Save(ctx context.Context, entry *models.Entry) error
	Delete(ctx context.Context, wallet common.Address) error
}
