package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QueryFilter narrows a ledger query. Results are always ordered by
// occurred_at ascending with ties broken by sequence ascending; the ordering
// is load-bearing for period reports and must be stable across repeated
// queries against the same data.
type QueryFilter struct {
	From       *time.Time
	To         *time.Time
	Type       *TransactionType
	CustomerID *uuid.UUID
	StoreID    *uuid.UUID
	Limit      int
	Offset     int
}

// SwapLink is one edge of a swap relink chain: in the swap with ledger
// sequence Seq, ProductID took over OriginalProductID's role.
type SwapLink struct {
	ProductID         uuid.UUID
	OriginalProductID uuid.UUID
	Seq               int64
}

// TransactionRepository is the append-only ledger contract. Append is atomic
// including all items: readers never observe a half-written transaction.
type TransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// Append writes a new transaction and its items as one unit and
	// assigns the monotonic sequence.
	Append(ctx context.Context, t *Transaction) error

	// Query returns matching transactions with items, ordered by
	// occurred_at asc, seq asc.
	Query(ctx context.Context, filter QueryFilter) ([]Transaction, error)

	// Stream walks matching transactions in the same stable order without
	// materializing the full result. The walk stops at the first error.
	Stream(ctx context.Context, filter QueryFilter, fn func(*Transaction) error) error

	// ProgressOrderStatus moves an open deposit to a terminal order status.
	// Fails with shared.ErrConflict if the deposit is no longer open.
	ProgressOrderStatus(ctx context.Context, id uuid.UUID, status OrderStatus) error

	// Amend applies the administrative re-date / re-code correction to a
	// deposit or manufacturer order. Items are never touched.
	Amend(ctx context.Context, id uuid.UUID, code string, occurredAt time.Time) error

	// FindSwapLinksByOriginals returns swap links whose original product is
	// one of ids. Used to chase relink chains forward.
	FindSwapLinksByOriginals(ctx context.Context, ids []uuid.UUID) ([]SwapLink, error)

	// FindSwapLinksByProducts returns swap links whose product is one of
	// ids. Used to chase relink chains backward.
	FindSwapLinksByProducts(ctx context.Context, ids []uuid.UUID) ([]SwapLink, error)

	// FindOpenDepositByProduct returns the open deposit that directly pins
	// productID through a non-swap item, or shared.ErrNotFound.
	FindOpenDepositByProduct(ctx context.Context, productID uuid.UUID) (*Transaction, error)

	// FindDepositOriginProducts filters ids down to those whose first
	// ledger appearance is a deposit item.
	FindDepositOriginProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error)

	// LatestPinnedPrice returns the price of the product's most recent
	// ownership-pinning item (see TransactionType.PinsOwnership); found is
	// false if no deposit or swap has ever pinned the product.
	LatestPinnedPrice(ctx context.Context, productID uuid.UUID) (price decimal.Decimal, found bool, err error)
}
