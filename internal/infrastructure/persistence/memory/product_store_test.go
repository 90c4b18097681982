package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/goldshop/backend/internal/domain/inventory"
	"github.com/goldshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSoldProduct(t *testing.T, store *ProductStore) *inventory.Product {
	t.Helper()
	p, err := inventory.NewProduct(uuid.New(), "ring", decimal.NewFromInt(5000000))
	require.NoError(t, err)
	p.Status = inventory.StatusSold
	require.NoError(t, store.Create(context.Background(), p))
	return p
}

func TestProductStore_ApplyTransition(t *testing.T) {
	t.Run("applies status and flags", func(t *testing.T) {
		store := NewProductStore()
		p := newSoldProduct(t, store)

		price := decimal.NewFromInt(4500000)
		err := store.ApplyTransition(context.Background(), p.ID,
			inventory.StatusSold, inventory.StatusAvailable,
			inventory.TransitionFlags{}.WithLastPrice(price))
		require.NoError(t, err)

		got, err := store.FindByID(context.Background(), p.ID)
		require.NoError(t, err)
		assert.Equal(t, inventory.StatusAvailable, got.Status)
		assert.True(t, got.LastPrice.Equal(price))
		assert.Equal(t, p.Version+1, got.Version)
	})

	t.Run("fails with conflict on stale from status", func(t *testing.T) {
		store := NewProductStore()
		p := newSoldProduct(t, store)

		err := store.ApplyTransition(context.Background(), p.ID,
			inventory.StatusAvailable, inventory.StatusSold, inventory.TransitionFlags{})
		require.Error(t, err)
		assert.True(t, shared.IsConflict(err))
	})

	t.Run("rejects an illegal transition", func(t *testing.T) {
		store := NewProductStore()
		p := newSoldProduct(t, store)

		err := store.ApplyTransition(context.Background(), p.ID,
			inventory.StatusSold, inventory.StatusOrderedFromManufacturer, inventory.TransitionFlags{})
		require.Error(t, err)
		assert.True(t, shared.IsEligibility(err))
	})

	t.Run("fails with not found for an unknown unit", func(t *testing.T) {
		store := NewProductStore()
		err := store.ApplyTransition(context.Background(), uuid.New(),
			inventory.StatusSold, inventory.StatusAvailable, inventory.TransitionFlags{})
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("exactly one concurrent transition wins", func(t *testing.T) {
		store := NewProductStore()
		p := newSoldProduct(t, store)

		const racers = 8
		errs := make([]error, racers)
		var wg sync.WaitGroup
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = store.ApplyTransition(context.Background(), p.ID,
					inventory.StatusSold, inventory.StatusAvailable, inventory.TransitionFlags{})
			}(i)
		}
		wg.Wait()

		wins, conflicts := 0, 0
		for _, err := range errs {
			switch {
			case err == nil:
				wins++
			case shared.IsConflict(err):
				conflicts++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, wins)
		assert.Equal(t, racers-1, conflicts)
	})
}

func TestProductStore_FindPendingManufacturer(t *testing.T) {
	store := NewProductStore()

	sold := newSoldProduct(t, store)

	ordered, err := inventory.NewOrderedProduct(uuid.New(), "ring", decimal.NewFromInt(4000000))
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), ordered))

	available, err := inventory.NewProduct(uuid.New(), "ring", decimal.NewFromInt(4000000))
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), available))

	pending, err := store.FindPendingManufacturer(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, sold.ID, pending[0].ID)
}

func TestProductStore_FindAll(t *testing.T) {
	store := NewProductStore()
	for i := 0; i < 5; i++ {
		p, err := inventory.NewProduct(uuid.New(), "ring", decimal.NewFromInt(1000))
		require.NoError(t, err)
		require.NoError(t, store.Create(context.Background(), p))
	}

	filter := shared.DefaultFilter()
	filter.PageSize = 2

	page1, err := store.FindAll(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, page1, 2)

	filter.Page = 3
	page3, err := store.FindAll(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, page3, 1)

	count, err := store.Count(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}
