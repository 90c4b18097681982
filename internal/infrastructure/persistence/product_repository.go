package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goldshop/backend/internal/domain/inventory"
	"github.com/goldshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM. The status
// transition is a conditional UPDATE keyed on the current status; a lost race
// touches zero rows and surfaces as shared.ErrConflict.
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a unit by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Product, error) {
	var product inventory.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByIDs finds multiple units by their IDs
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]inventory.Product, error) {
	if len(ids) == 0 {
		return []inventory.Product{}, nil
	}
	var products []inventory.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindAll returns a page of units
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.Product, error) {
	var products []inventory.Product
	query := r.applyFilter(r.db.WithContext(ctx).Model(&inventory.Product{}), filter)
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Count counts units matching the filter
func (r *GormProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&inventory.Product{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create persists a new unit
func (r *GormProductRepository) Create(ctx context.Context, product *inventory.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// ApplyTransition atomically moves a unit between statuses. The UPDATE is
// guarded on the expected current status, so concurrent transitions cannot
// both win; the loser gets shared.ErrConflict.
func (r *GormProductRepository) ApplyTransition(ctx context.Context, id uuid.UUID, from, to inventory.ProductStatus, flags inventory.TransitionFlags) error {
	if !from.CanTransitionTo(to) {
		return shared.NewEligibilityError("ILLEGAL_TRANSITION",
			"Product cannot move from "+from.String()+" to "+to.String())
	}

	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
		"version":    gorm.Expr("version + 1"),
	}
	if flags.SetOrdered != nil {
		updates["is_ordered"] = *flags.SetOrdered
	}
	if flags.SetDelivered != nil {
		updates["is_delivered"] = *flags.SetDelivered
	}
	if flags.LastPrice != nil {
		updates["last_price"] = *flags.LastPrice
	}

	result := r.db.WithContext(ctx).
		Model(&inventory.Product{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Distinguish a missing row from a lost race.
		var count int64
		if err := r.db.WithContext(ctx).Model(&inventory.Product{}).
			Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConflict
	}
	return nil
}

// FindPendingManufacturer returns Sold units with no outstanding order. The
// caller cross-checks deposit origin against the ledger.
func (r *GormProductRepository) FindPendingManufacturer(ctx context.Context) ([]inventory.Product, error) {
	var products []inventory.Product
	err := r.db.WithContext(ctx).
		Where("status = ? AND is_ordered = ?", inventory.StatusSold, false).
		Order("created_at ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormProductRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}
	return query
}

func (r *GormProductRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "store_id":
			query = query.Where("store_id = ?", value)
		case "product_type":
			query = query.Where("product_type = ?", value)
		case "is_ordered":
			query = query.Where("is_ordered = ?", value)
		case "is_delivered":
			query = query.Where("is_delivered = ?", value)
		}
	}
	return query
}

// Ensure GormProductRepository implements ProductRepository
var _ inventory.ProductRepository = (*GormProductRepository)(nil)
