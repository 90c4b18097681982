package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/goldshop/backend/internal/domain/inventory"
	"github.com/goldshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductStore is a mutex-guarded in-memory inventory store. Each call is
// atomic on its own but calls do not compose into transactions, so it suits
// tests and single-process tools rather than production serving.
type ProductStore struct {
	mu       sync.RWMutex
	products map[uuid.UUID]*inventory.Product
}

// NewProductStore creates an empty in-memory inventory store.
func NewProductStore() *ProductStore {
	return &ProductStore{products: make(map[uuid.UUID]*inventory.Product)}
}

// FindByID returns a copy of the unit.
func (s *ProductStore) FindByID(_ context.Context, id uuid.UUID) (*inventory.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

// FindByIDs returns copies of the units that exist; missing ids are skipped.
func (s *ProductStore) FindByIDs(_ context.Context, ids []uuid.UUID) ([]inventory.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]inventory.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

// FindAll returns a page of units ordered by creation time.
func (s *ProductStore) FindAll(_ context.Context, filter shared.Filter) ([]inventory.Product, error) {
	s.mu.RLock()
	matched := s.match(filter)
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		return matched, nil
	}
	start := (page - 1) * size
	if start >= len(matched) {
		return []inventory.Product{}, nil
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

// Count returns the number of units matching the filter.
func (s *ProductStore) Count(_ context.Context, filter shared.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.match(filter))), nil
}

func (s *ProductStore) match(filter shared.Filter) []inventory.Product {
	out := make([]inventory.Product, 0, len(s.products))
	for _, p := range s.products {
		if v, ok := filter.Filters["status"]; ok && string(p.Status) != v {
			continue
		}
		if v, ok := filter.Filters["store_id"]; ok && p.StoreID.String() != v {
			continue
		}
		if v, ok := filter.Filters["product_type"]; ok && p.ProductType != v {
			continue
		}
		out = append(out, *p)
	}
	return out
}

// Create persists a new unit.
func (s *ProductStore) Create(_ context.Context, product *inventory.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.products[product.ID]; exists {
		return shared.NewValidationError("DUPLICATE_PRODUCT", "Product already exists")
	}
	clone := *product
	s.products[product.ID] = &clone
	return nil
}

// ApplyTransition performs the compare-and-swap transition under the store
// lock: if the current status no longer equals from, the caller lost the race
// and gets shared.ErrConflict.
func (s *ProductStore) ApplyTransition(_ context.Context, id uuid.UUID, from, to inventory.ProductStatus, flags inventory.TransitionFlags) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return shared.ErrNotFound
	}
	if p.Status != from {
		return shared.ErrConflict
	}
	if !from.CanTransitionTo(to) {
		return shared.NewEligibilityError("ILLEGAL_TRANSITION",
			"Product cannot move from "+from.String()+" to "+to.String())
	}
	p.Status = to
	p.ApplyFlags(flags)
	p.IncrementVersion()
	return nil
}

// FindPendingManufacturer returns Sold units with no outstanding order. The
// caller cross-checks deposit origin against the ledger.
func (s *ProductStore) FindPendingManufacturer(_ context.Context) ([]inventory.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]inventory.Product, 0)
	for _, p := range s.products {
		if p.Status == inventory.StatusSold && !p.IsOrdered {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

var _ inventory.ProductRepository = (*ProductStore)(nil)
