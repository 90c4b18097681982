package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/goldshop/backend/internal/domain/inventory"
	"github.com/goldshop/backend/internal/domain/ledger"
	"github.com/goldshop/backend/internal/domain/shared/valueobject"
	"github.com/goldshop/backend/internal/infrastructure/persistence/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	products *memory.ProductStore
	txs      *memory.TransactionStore
	scope    TransactionScope

	storeID    uuid.UUID
	customerID uuid.UUID
	staffID    uuid.UUID
	now        time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	products := memory.NewProductStore()
	txs := memory.NewTransactionStore()
	return &testEnv{
		products:   products,
		txs:        txs,
		scope:      NewNoOpTransactionScope(products, txs),
		storeID:    uuid.New(),
		customerID: uuid.New(),
		staffID:    uuid.New(),
		now:        time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
	}
}

func (e *testEnv) depositService() *DepositService {
	return NewDepositService(e.scope)
}

func (e *testEnv) manufacturerService() *ManufacturerService {
	return NewManufacturerService(e.scope)
}

func (e *testEnv) swapService() *SwapService {
	return NewSwapService(e.scope)
}

// mintDeposit opens a deposit over freshly minted units, one per price, and
// returns the response. Payment is all cash.
func (e *testEnv) mintDeposit(t *testing.T, prices ...int64) *TransactionResponse {
	t.Helper()
	items := make([]DepositItemInput, 0, len(prices))
	total := decimal.Zero
	for _, p := range prices {
		items = append(items, DepositItemInput{ProductType: "ring", Price: decimal.NewFromInt(p)})
		total = total.Add(decimal.NewFromInt(p))
	}
	resp, err := e.depositService().CreateDeposit(context.Background(), CreateDepositRequest{
		StoreID:    e.storeID,
		CustomerID: e.customerID,
		StaffID:    e.staffID,
		OccurredAt: e.tick(),
		Items:      items,
		Payment:    PaymentInput{Method: valueobject.PaymentMethodCash, Cash: total, Bank: decimal.Zero},
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, len(prices))
	return resp
}

// availableUnit puts a fresh unit into the store in the Available state by
// depositing and immediately buying it back.
func (e *testEnv) availableUnit(t *testing.T, price int64) uuid.UUID {
	t.Helper()
	dep := e.mintDeposit(t, price)
	id := dep.Items[0].ProductID
	_, err := e.depositService().Buyback(context.Background(), BuybackRequest{
		DepositID:  dep.ID,
		StaffID:    e.staffID,
		OccurredAt: e.tick(),
		Items:      []PricedItemInput{{ProductID: id, Price: decimal.NewFromInt(price)}},
	})
	require.NoError(t, err)
	return id
}

func (e *testEnv) product(t *testing.T, id uuid.UUID) *inventory.Product {
	t.Helper()
	p, err := e.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (e *testEnv) transaction(t *testing.T, id uuid.UUID) *ledger.Transaction {
	t.Helper()
	tx, err := e.txs.FindByID(context.Background(), id)
	require.NoError(t, err)
	return tx
}

// tick returns strictly increasing business timestamps.
func (e *testEnv) tick() time.Time {
	e.now = e.now.Add(time.Minute)
	return e.now
}
