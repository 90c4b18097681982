package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/goldshop/backend/internal/domain/ledger"
	"github.com/goldshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// streamBatchSize bounds how many transactions a ledger walk loads at once.
const streamBatchSize = 200

// GormTransactionRepository implements the append-only ledger on GORM. The
// sequence column is database-assigned; ordering guarantees come from the
// (occurred_at, seq) sort in every query.
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByID finds a transaction with its items
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	var t ledger.Transaction
	if err := r.db.WithContext(ctx).Preload("Items").First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Append writes the transaction and its items in one insert. GORM persists
// the association rows in the same statement batch, and the caller's
// transaction scope makes the write atomic with the product transitions.
func (r *GormTransactionRepository) Append(ctx context.Context, t *ledger.Transaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// Query returns matching transactions with items in stable business order.
func (r *GormTransactionRepository) Query(ctx context.Context, filter ledger.QueryFilter) ([]ledger.Transaction, error) {
	var txs []ledger.Transaction
	query := r.applyFilter(r.db.WithContext(ctx).Model(&ledger.Transaction{}), filter).
		Preload("Items").
		Order("occurred_at ASC, seq ASC")
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// Stream walks matching transactions in stable order in bounded batches.
func (r *GormTransactionRepository) Stream(ctx context.Context, filter ledger.QueryFilter, fn func(*ledger.Transaction) error) error {
	batch := filter
	batch.Limit = streamBatchSize
	batch.Offset = filter.Offset
	for {
		txs, err := r.Query(ctx, batch)
		if err != nil {
			return err
		}
		for i := range txs {
			if err := fn(&txs[i]); err != nil {
				return err
			}
		}
		if len(txs) < streamBatchSize {
			return nil
		}
		batch.Offset += streamBatchSize
	}
}

// ProgressOrderStatus closes an open deposit. The UPDATE is guarded on the
// order status still being NULL; a closed deposit touches zero rows and
// surfaces as shared.ErrConflict.
func (r *GormTransactionRepository) ProgressOrderStatus(ctx context.Context, id uuid.UUID, status ledger.OrderStatus) error {
	if !status.IsValid() {
		return shared.NewValidationError("INVALID_ORDER_STATUS", "Unknown order status: "+status.String())
	}

	result := r.db.WithContext(ctx).
		Model(&ledger.Transaction{}).
		Where("id = ? AND type = ? AND order_status IS NULL", id, ledger.TypeDeposit).
		Updates(map[string]interface{}{
			"order_status": status,
			"updated_at":   time.Now(),
			"version":      gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&ledger.Transaction{}).
			Where("id = ? AND type = ?", id, ledger.TypeDeposit).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConflict
	}
	return nil
}

// Amend applies the administrative re-date / re-code correction to a deposit
// or manufacturer order. Items and amounts are never touched.
func (r *GormTransactionRepository) Amend(ctx context.Context, id uuid.UUID, code string, occurredAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&ledger.Transaction{}).
		Where("id = ? AND type IN ?", id, []ledger.TransactionType{ledger.TypeDeposit, ledger.TypeManufacturerOrder}).
		Updates(map[string]interface{}{
			"code":        code,
			"occurred_at": occurredAt,
			"updated_at":  time.Now(),
			"version":     gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindSwapLinksByOriginals returns swap links whose original product is one of ids.
func (r *GormTransactionRepository) FindSwapLinksByOriginals(ctx context.Context, ids []uuid.UUID) ([]ledger.SwapLink, error) {
	return r.swapLinks(ctx, "transaction_items.original_product_id IN ?", ids)
}

// FindSwapLinksByProducts returns swap links whose product is one of ids.
func (r *GormTransactionRepository) FindSwapLinksByProducts(ctx context.Context, ids []uuid.UUID) ([]ledger.SwapLink, error) {
	return r.swapLinks(ctx, "transaction_items.product_id IN ?", ids)
}

func (r *GormTransactionRepository) swapLinks(ctx context.Context, cond string, ids []uuid.UUID) ([]ledger.SwapLink, error) {
	if len(ids) == 0 {
		return []ledger.SwapLink{}, nil
	}
	var links []ledger.SwapLink
	err := r.db.WithContext(ctx).
		Table("transaction_items").
		Select("transaction_items.product_id, transaction_items.original_product_id, transactions.seq").
		Joins("JOIN transactions ON transactions.id = transaction_items.transaction_id").
		Where("transactions.type = ? AND transaction_items.swapped = ?", ledger.TypeSwap, true).
		Where(cond, ids).
		Order("transactions.seq ASC").
		Scan(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

// FindOpenDepositByProduct returns the open deposit directly pinning productID.
func (r *GormTransactionRepository) FindOpenDepositByProduct(ctx context.Context, productID uuid.UUID) (*ledger.Transaction, error) {
	var t ledger.Transaction
	err := r.db.WithContext(ctx).
		Preload("Items").
		Joins("JOIN transaction_items ON transaction_items.transaction_id = transactions.id").
		Where("transactions.type = ? AND transactions.order_status IS NULL AND transaction_items.product_id = ?",
			ledger.TypeDeposit, productID).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindDepositOriginProducts filters ids down to those whose first ledger
// appearance is a deposit item.
func (r *GormTransactionRepository) FindDepositOriginProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]bool{}, nil
	}

	var rows []struct {
		ProductID uuid.UUID
		Type      ledger.TransactionType
	}
	// DISTINCT ON keeps the earliest ledger appearance per product.
	err := r.db.WithContext(ctx).
		Table("transaction_items").
		Select("DISTINCT ON (transaction_items.product_id) transaction_items.product_id, transactions.type").
		Joins("JOIN transactions ON transactions.id = transaction_items.transaction_id").
		Where("transaction_items.product_id IN ?", ids).
		Order("transaction_items.product_id, transactions.occurred_at ASC, transactions.seq ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]bool, len(rows))
	for _, row := range rows {
		out[row.ProductID] = row.Type == ledger.TypeDeposit
	}
	return out, nil
}

// LatestPinnedPrice returns the price of the product's most recent
// ownership-pinning item. Manufacturer and payout entries are skipped so a
// later re-order cost never displaces the customer agreement price.
func (r *GormTransactionRepository) LatestPinnedPrice(ctx context.Context, productID uuid.UUID) (decimal.Decimal, bool, error) {
	var row struct {
		PriceAtTime decimal.Decimal
	}
	result := r.db.WithContext(ctx).
		Table("transaction_items").
		Select("transaction_items.price_at_time").
		Joins("JOIN transactions ON transactions.id = transaction_items.transaction_id").
		Where("transaction_items.product_id = ?", productID).
		Where("transactions.type IN ?", ledger.OwnershipPinningTypes()).
		Order("transactions.occurred_at DESC, transactions.seq DESC").
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return decimal.Zero, false, result.Error
	}
	if result.RowsAffected == 0 {
		return decimal.Zero, false, nil
	}
	return row.PriceAtTime, true, nil
}

func (r *GormTransactionRepository) applyFilter(query *gorm.DB, filter ledger.QueryFilter) *gorm.DB {
	if filter.From != nil {
		query = query.Where("occurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("occurred_at < ?", *filter.To)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.StoreID != nil {
		query = query.Where("store_id = ?", *filter.StoreID)
	}
	return query
}

// Ensure GormTransactionRepository implements TransactionRepository
var _ ledger.TransactionRepository = (*GormTransactionRepository)(nil)
