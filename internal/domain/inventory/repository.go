package inventory

import (
	"context"

	"github.com/goldshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductRepository is the inventory store contract. It is the only component
// allowed to write product status, and ApplyTransition is the single
// concurrency guard: the update must fail with shared.ErrConflict when the
// current status no longer matches from.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Create persists a new unit. The unit enters the store in the status
	// set by its factory (Available or OrderedFromManufacturer).
	Create(ctx context.Context, product *Product) error

	// ApplyTransition atomically moves a unit from one status to another,
	// applying flag updates in the same write. Returns shared.ErrConflict
	// if the stored status does not equal from, shared.ErrNotFound if the
	// unit does not exist.
	ApplyTransition(ctx context.Context, id uuid.UUID, from, to ProductStatus, flags TransitionFlags) error

	// FindPendingManufacturer returns units created by a customer deposit
	// that have no outstanding manufacturer order (is_ordered = false).
	FindPendingManufacturer(ctx context.Context) ([]Product, error)
}
