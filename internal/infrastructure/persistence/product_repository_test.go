package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/goldshop/backend/internal/domain/inventory"
	"github.com/goldshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockProductRepository creates a GormProductRepository with a mocked SQL connection
func newMockProductRepository(t *testing.T) (*GormProductRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormProductRepository(gormDB), mock, mockDB
}

func productRows(id, storeID uuid.UUID, status inventory.ProductStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "product_type", "status", "store_id",
		"is_ordered", "is_delivered", "last_price", "version",
	}).AddRow(
		id, "gold_ring", status, storeID,
		false, false, decimal.NewFromInt(5000000), 1,
	)
}

func TestGormProductRepository_FindByID(t *testing.T) {
	t.Run("finds existing unit", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		productID := uuid.New()
		storeID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE id = \$1`).
			WithArgs(productID, 1).
			WillReturnRows(productRows(productID, storeID, inventory.StatusAvailable))

		product, err := repo.FindByID(context.Background(), productID)

		assert.NoError(t, err)
		assert.NotNil(t, product)
		assert.Equal(t, productID, product.ID)
		assert.Equal(t, inventory.StatusAvailable, product.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing unit", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		productID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE id = \$1`).
			WithArgs(productID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		product, err := repo.FindByID(context.Background(), productID)

		assert.Error(t, err)
		assert.Nil(t, product)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_ApplyTransition(t *testing.T) {
	t.Run("applies transition when expected status matches", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		productID := uuid.New()

		mock.ExpectExec(`UPDATE "products" SET .+ WHERE id = \$\d+ AND status = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.ApplyTransition(context.Background(), productID,
			inventory.StatusAvailable, inventory.StatusSold,
			inventory.TransitionFlags{}.WithLastPrice(decimal.NewFromInt(5000000)))

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrConflict when the row exists but the status moved", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		productID := uuid.New()

		mock.ExpectExec(`UPDATE "products" SET .+ WHERE id = \$\d+ AND status = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "products" WHERE id = \$1`).
			WithArgs(productID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		err := repo.ApplyTransition(context.Background(), productID,
			inventory.StatusAvailable, inventory.StatusSold, inventory.TransitionFlags{})

		assert.Error(t, err)
		assert.Equal(t, shared.ErrConflict, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound when the row does not exist", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		productID := uuid.New()

		mock.ExpectExec(`UPDATE "products" SET .+ WHERE id = \$\d+ AND status = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "products" WHERE id = \$1`).
			WithArgs(productID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		err := repo.ApplyTransition(context.Background(), productID,
			inventory.StatusAvailable, inventory.StatusSold, inventory.TransitionFlags{})

		assert.Error(t, err)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects an illegal transition without touching the database", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		err := repo.ApplyTransition(context.Background(), uuid.New(),
			inventory.StatusSoldBackToManufacturer, inventory.StatusAvailable,
			inventory.TransitionFlags{})

		assert.Error(t, err)
		assert.True(t, shared.IsEligibility(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_FindPendingManufacturer(t *testing.T) {
	t.Run("queries sold units with no outstanding order", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		productID := uuid.New()
		storeID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE status = \$1 AND is_ordered = \$2`).
			WithArgs(inventory.StatusSold, false).
			WillReturnRows(productRows(productID, storeID, inventory.StatusSold))

		products, err := repo.FindPendingManufacturer(context.Background())

		assert.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, productID, products[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_FindAll(t *testing.T) {
	t.Run("applies status filter and pagination", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		productID := uuid.New()
		storeID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE status = \$1 ORDER BY created_at DESC LIMIT \$2`).
			WithArgs(inventory.StatusAvailable, 20).
			WillReturnRows(productRows(productID, storeID, inventory.StatusAvailable))

		filter := shared.Filter{
			Page:     1,
			PageSize: 20,
			Filters:  map[string]interface{}{"status": inventory.StatusAvailable},
		}
		products, err := repo.FindAll(context.Background(), filter)

		assert.NoError(t, err)
		require.Len(t, products, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
