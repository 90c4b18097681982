package report

import (
	"context"
	"testing"
	"time"

	"github.com/goldshop/backend/internal/application/workflow"
	"github.com/goldshop/backend/internal/domain/inventory"
	"github.com/goldshop/backend/internal/domain/ledger"
	"github.com/goldshop/backend/internal/domain/shared"
	"github.com/goldshop/backend/internal/domain/shared/valueobject"
	"github.com/goldshop/backend/internal/infrastructure/cache"
	"github.com/goldshop/backend/internal/infrastructure/persistence/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reportEnv struct {
	products *memory.ProductStore
	txs      *memory.TransactionStore

	deposits      *workflow.DepositService
	manufacturers *workflow.ManufacturerService
	swaps         *workflow.SwapService
	reports       *Service

	storeID    uuid.UUID
	customerID uuid.UUID
	staffID    uuid.UUID
	now        time.Time
}

func newReportEnv(t *testing.T) *reportEnv {
	t.Helper()
	products := memory.NewProductStore()
	txs := memory.NewTransactionStore()
	scope := workflow.NewNoOpTransactionScope(products, txs)
	return &reportEnv{
		products:      products,
		txs:           txs,
		deposits:      workflow.NewDepositService(scope),
		manufacturers: workflow.NewManufacturerService(scope),
		swaps:         workflow.NewSwapService(scope),
		reports:       NewService(products, txs, nil, nil),
		storeID:       uuid.New(),
		customerID:    uuid.New(),
		staffID:       uuid.New(),
		now:           time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (e *reportEnv) tick() time.Time {
	e.now = e.now.Add(time.Minute)
	return e.now
}

func (e *reportEnv) mintDeposit(t *testing.T, prices ...int64) *workflow.TransactionResponse {
	t.Helper()
	items := make([]workflow.DepositItemInput, 0, len(prices))
	total := decimal.Zero
	for _, p := range prices {
		items = append(items, workflow.DepositItemInput{ProductType: "ring", Price: decimal.NewFromInt(p)})
		total = total.Add(decimal.NewFromInt(p))
	}
	resp, err := e.deposits.CreateDeposit(context.Background(), workflow.CreateDepositRequest{
		StoreID:    e.storeID,
		CustomerID: e.customerID,
		StaffID:    e.staffID,
		OccurredAt: e.tick(),
		Items:      items,
		Payment:    workflow.PaymentInput{Method: valueobject.PaymentMethodCash, Cash: total, Bank: decimal.Zero},
	})
	require.NoError(t, err)
	return resp
}

func (e *reportEnv) buyback(t *testing.T, depositID, productID uuid.UUID, price int64) {
	t.Helper()
	_, err := e.deposits.Buyback(context.Background(), workflow.BuybackRequest{
		DepositID:  depositID,
		StaffID:    e.staffID,
		OccurredAt: e.tick(),
		Items:      []workflow.PricedItemInput{{ProductID: productID, Price: decimal.NewFromInt(price)}},
	})
	require.NoError(t, err)
}

func TestService_FinancialStats(t *testing.T) {
	t.Run("folds the period into totals, type breakdown and daily flow", func(t *testing.T) {
		env := newReportEnv(t)

		dep := env.mintDeposit(t, 5000000, 3000000)
		env.buyback(t, dep.ID, dep.Items[0].ProductID, 2000000)

		stats, err := env.reports.FinancialStats(context.Background(), PeriodFilter{})
		require.NoError(t, err)

		assert.Equal(t, int64(2), stats.TransactionCount)
		assert.True(t, stats.MoneyIn.Equals(valueobject.NewMoneyVND(decimal.NewFromInt(8000000))), "money in %s", stats.MoneyIn)
		assert.True(t, stats.MoneyOut.Equals(valueobject.NewMoneyVND(decimal.NewFromInt(2000000))), "money out %s", stats.MoneyOut)
		assert.True(t, stats.Net.Equals(valueobject.NewMoneyVND(decimal.NewFromInt(6000000))))
		assert.Equal(t, valueobject.VND, stats.Net.Currency())

		assert.Equal(t, int64(1), stats.ByType[ledger.TypeDeposit].Count)
		assert.Equal(t, int64(1), stats.ByType[ledger.TypeBuyback].Count)
		assert.True(t, stats.ByType[ledger.TypeBuyback].Total.Equals(valueobject.NewMoneyVND(decimal.NewFromInt(2000000))))

		require.Len(t, stats.Daily, 1)
		assert.Equal(t, "2026-04-01", stats.Daily[0].Date)
		assert.True(t, stats.Daily[0].Net.Equals(valueobject.NewMoneyVND(decimal.NewFromInt(6000000))))
	})

	t.Run("counts forced fulfillments", func(t *testing.T) {
		env := newReportEnv(t)

		dep := env.mintDeposit(t, 5000000)
		productID := dep.Items[0].ProductID

		_, err := env.manufacturers.CreateOrder(context.Background(), workflow.CreateOrderRequest{
			StoreID:    env.storeID,
			StaffID:    env.staffID,
			OccurredAt: env.tick(),
			Items:      []workflow.OrderItemInput{{ProductID: &productID, Quantity: 1, Price: decimal.NewFromInt(4000000)}},
		})
		require.NoError(t, err)

		_, err = env.deposits.Fulfill(context.Background(), workflow.FulfillmentRequest{
			DepositID:  dep.ID,
			StaffID:    env.staffID,
			OccurredAt: env.tick(),
			ProductIDs: []uuid.UUID{productID},
			Force:      true,
		})
		require.NoError(t, err)

		stats, err := env.reports.FinancialStats(context.Background(), PeriodFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats.ForcedFulfillments)
	})

	t.Run("window excludes transactions at the upper bound", func(t *testing.T) {
		env := newReportEnv(t)

		first := env.mintDeposit(t, 1000000)
		env.mintDeposit(t, 2000000)

		second := env.now
		stats, err := env.reports.FinancialStats(context.Background(), PeriodFilter{
			From: &first.OccurredAt,
			To:   &second,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats.TransactionCount)
		assert.True(t, stats.MoneyIn.Equals(valueobject.NewMoneyVND(decimal.NewFromInt(1000000))))
	})
}

func TestService_ProductHistory(t *testing.T) {
	t.Run("returns every ledger entry pinning the unit, oldest first", func(t *testing.T) {
		env := newReportEnv(t)

		dep := env.mintDeposit(t, 5000000)
		productID := dep.Items[0].ProductID
		env.buyback(t, dep.ID, productID, 5000000)

		history, err := env.reports.ProductHistory(context.Background(), productID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, ledger.TypeDeposit, history[0].Type)
		assert.Equal(t, ledger.TypeBuyback, history[1].Type)
		assert.Less(t, history[0].Seq, history[1].Seq)
	})
}

func TestService_PendingManufacturer(t *testing.T) {
	t.Run("lists deposit-created sold units with no order", func(t *testing.T) {
		env := newReportEnv(t)

		dep := env.mintDeposit(t, 5000000, 3000000)
		ordered := dep.Items[0].ProductID
		pending := dep.Items[1].ProductID

		_, err := env.manufacturers.CreateOrder(context.Background(), workflow.CreateOrderRequest{
			StoreID:    env.storeID,
			StaffID:    env.staffID,
			OccurredAt: env.tick(),
			Items:      []workflow.OrderItemInput{{ProductID: &ordered, Quantity: 1, Price: decimal.NewFromInt(4000000)}},
		})
		require.NoError(t, err)

		list, err := env.reports.PendingManufacturer(context.Background())
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, pending, list[0].ID)
	})

	t.Run("excludes new stock minted by a manufacturer order", func(t *testing.T) {
		env := newReportEnv(t)

		_, err := env.manufacturers.CreateOrder(context.Background(), workflow.CreateOrderRequest{
			StoreID:    env.storeID,
			StaffID:    env.staffID,
			OccurredAt: env.tick(),
			Items:      []workflow.OrderItemInput{{ProductType: "necklace", Quantity: 2, Price: decimal.NewFromInt(1500000)}},
		})
		require.NoError(t, err)

		list, err := env.reports.PendingManufacturer(context.Background())
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestService_VerifyInventory(t *testing.T) {
	t.Run("a full workflow run leaves no drift", func(t *testing.T) {
		env := newReportEnv(t)

		dep := env.mintDeposit(t, 5000000, 3000000)
		first := dep.Items[0].ProductID
		second := dep.Items[1].ProductID

		order, err := env.manufacturers.CreateOrder(context.Background(), workflow.CreateOrderRequest{
			StoreID:    env.storeID,
			StaffID:    env.staffID,
			OccurredAt: env.tick(),
			Items: []workflow.OrderItemInput{
				{ProductID: &first, Quantity: 1, Price: decimal.NewFromInt(4000000)},
				{ProductType: "bracelet", Quantity: 1, Price: decimal.NewFromInt(2500000)},
			},
		})
		require.NoError(t, err)

		_, err = env.manufacturers.Receive(context.Background(), workflow.ReceiveRequest{
			OrderID:    order.ID,
			StaffID:    env.staffID,
			OccurredAt: env.tick(),
			Items:      []workflow.PricedItemInput{{ProductID: first, Price: decimal.NewFromInt(4100000)}},
		})
		require.NoError(t, err)

		_, err = env.deposits.Fulfill(context.Background(), workflow.FulfillmentRequest{
			DepositID:  dep.ID,
			StaffID:    env.staffID,
			OccurredAt: env.tick(),
			ProductIDs: []uuid.UUID{first, second},
			Force:      true,
		})
		require.NoError(t, err)

		audit, err := env.reports.VerifyInventory(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, audit.Checked)
		assert.Empty(t, audit.Drifted)
	})

	t.Run("detects a stored status the ledger cannot explain", func(t *testing.T) {
		env := newReportEnv(t)

		dep := env.mintDeposit(t, 5000000)
		productID := dep.Items[0].ProductID

		// Corrupt the stored state behind the ledger's back.
		require.NoError(t, env.products.ApplyTransition(context.Background(), productID,
			inventory.StatusSold, inventory.StatusDelivered, inventory.TransitionFlags{}))

		audit, err := env.reports.VerifyInventory(context.Background())
		require.NoError(t, err)
		require.Len(t, audit.Drifted, 1)
		drift := audit.Drifted[0]
		assert.Equal(t, productID, drift.ProductID)
		assert.Equal(t, inventory.StatusDelivered, drift.Stored.Status)
		assert.Equal(t, inventory.StatusSold, drift.Derived.Status)
		assert.True(t, drift.HasHistory)
		assert.False(t, drift.Consistent)
	})

	t.Run("flags a unit with no ledger history", func(t *testing.T) {
		env := newReportEnv(t)

		orphan, err := inventory.NewProduct(env.storeID, "ring", decimal.NewFromInt(100))
		require.NoError(t, err)
		require.NoError(t, env.products.Create(context.Background(), orphan))

		audit, err := env.reports.VerifyInventory(context.Background())
		require.NoError(t, err)
		require.Len(t, audit.Drifted, 1)
		assert.False(t, audit.Drifted[0].HasHistory)
	})
}

func TestService_VerifyProduct(t *testing.T) {
	t.Run("reuses the cached replay snapshot", func(t *testing.T) {
		env := newReportEnv(t)
		snapshots := cache.NewInMemorySnapshotCache()
		defer snapshots.Close()
		env.reports = NewService(env.products, env.txs, snapshots, nil)

		dep := env.mintDeposit(t, 5000000)
		productID := dep.Items[0].ProductID

		prov, err := env.reports.VerifyProduct(context.Background(), productID)
		require.NoError(t, err)
		assert.True(t, prov.Consistent)

		// A second verification within the TTL reads the snapshot instead of
		// replaying, so a ledger append after the first call is invisible.
		_, found, err := snapshots.Get(context.Background(), "report:replay-snapshot")
		require.NoError(t, err)
		assert.True(t, found)

		prov, err = env.reports.VerifyProduct(context.Background(), productID)
		require.NoError(t, err)
		assert.True(t, prov.Consistent)
	})

	t.Run("returns ErrNotFound for an unknown unit", func(t *testing.T) {
		env := newReportEnv(t)

		_, err := env.reports.VerifyProduct(context.Background(), uuid.New())
		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestService_ListProducts(t *testing.T) {
	t.Run("pages and counts", func(t *testing.T) {
		env := newReportEnv(t)
		env.mintDeposit(t, 1000000, 2000000, 3000000)

		filter := shared.DefaultFilter()
		filter.PageSize = 2
		page, err := env.reports.ListProducts(context.Background(), filter)
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.Total)
		assert.Len(t, page.Items, 2)
	})
}
