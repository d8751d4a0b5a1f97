package store

import (
	"context"

	"fileuploader-backend/internal/domain"
)

// Store defines persistence behavior for file assets. Implementations must
// enforce uniqueness of (name, extension) and surface violations as
// ErrDuplicateName; the upload coordinator relies on the insert conflict as
// the authoritative duplicate check.
type Store interface {
	ExistsByName(ctx context.Context, name, extension string) (bool, error)
	Insert(ctx context.Context, asset *domain.Asset) (int64, error)
	FindByName(ctx context.Context, name, extension string) (*domain.Asset, error)
	UpdateStatusAndSize(ctx context.Context, id int64, status domain.AssetStatus, size int64) error
	Delete(ctx context.Context, id int64) error
	ListByStatus(ctx context.Context, status domain.AssetStatus) ([]domain.Asset, error)
	Close() error
}
