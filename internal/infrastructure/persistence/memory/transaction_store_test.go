package memory

import (
	"context"
	"testing"
	"time"

	"github.com/goldshop/backend/internal/domain/ledger"
	"github.com/goldshop/backend/internal/domain/shared"
	"github.com/goldshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDeposit(t *testing.T, productID uuid.UUID, occurredAt time.Time) *ledger.Transaction {
	t.Helper()
	amount := decimal.NewFromInt(5000000)
	split, err := valueobject.NewPaymentSplit(valueobject.PaymentMethodCash, amount, decimal.Zero, amount)
	require.NoError(t, err)
	tx, err := ledger.NewDeposit(uuid.New(), uuid.New(), uuid.New(), "DC-001", occurredAt, split)
	require.NoError(t, err)
	_, err = tx.AddItem(productID, amount)
	require.NoError(t, err)
	return tx
}

func TestTransactionStore_Append(t *testing.T) {
	store := NewTransactionStore()
	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	first := newTestDeposit(t, uuid.New(), at)
	second := newTestDeposit(t, uuid.New(), at.Add(time.Minute))
	require.NoError(t, store.Append(context.Background(), first))
	require.NoError(t, store.Append(context.Background(), second))

	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)

	got, err := store.FindByID(context.Background(), first.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)

	err = store.Append(context.Background(), first)
	require.Error(t, err)
}

func TestTransactionStore_QueryOrdering(t *testing.T) {
	store := NewTransactionStore()
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	// Appended out of business order on purpose.
	late := newTestDeposit(t, uuid.New(), base.Add(time.Hour))
	early := newTestDeposit(t, uuid.New(), base)
	require.NoError(t, store.Append(context.Background(), late))
	require.NoError(t, store.Append(context.Background(), early))

	got, err := store.Query(context.Background(), ledger.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, early.ID, got[0].ID)
	assert.Equal(t, late.ID, got[1].ID)

	// Window: From inclusive, To exclusive.
	from := base.Add(time.Minute)
	windowed, err := store.Query(context.Background(), ledger.QueryFilter{From: &from})
	require.NoError(t, err)
	require.Len(t, windowed, 1)
	assert.Equal(t, late.ID, windowed[0].ID)

	to := base.Add(time.Hour)
	windowed, err = store.Query(context.Background(), ledger.QueryFilter{To: &to})
	require.NoError(t, err)
	require.Len(t, windowed, 1)
	assert.Equal(t, early.ID, windowed[0].ID)
}

func TestTransactionStore_ProgressOrderStatus(t *testing.T) {
	store := NewTransactionStore()
	tx := newTestDeposit(t, uuid.New(), time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))
	require.NoError(t, store.Append(context.Background(), tx))

	err := store.ProgressOrderStatus(context.Background(), tx.ID, ledger.OrderStatusBoughtBack)
	require.NoError(t, err)

	got, err := store.FindByID(context.Background(), tx.ID)
	require.NoError(t, err)
	require.NotNil(t, got.OrderStatus)
	assert.Equal(t, ledger.OrderStatusBoughtBack, *got.OrderStatus)

	// The second progression loses the compare-and-swap.
	err = store.ProgressOrderStatus(context.Background(), tx.ID, ledger.OrderStatusDelivered)
	require.Error(t, err)
	assert.True(t, shared.IsConflict(err))
}

func TestTransactionStore_SwapLinks(t *testing.T) {
	store := NewTransactionStore()
	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	original := uuid.New()
	replacement := uuid.New()

	swap, err := ledger.NewTransaction(ledger.TypeSwap, uuid.New(), uuid.New(), at)
	require.NoError(t, err)
	_, err = swap.AddSwappedItem(replacement, original, decimal.NewFromInt(5000000))
	require.NoError(t, err)
	_, err = swap.AddSwappedItem(original, replacement, decimal.NewFromInt(4000000))
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), swap))

	forward, err := store.FindSwapLinksByOriginals(context.Background(), []uuid.UUID{original})
	require.NoError(t, err)
	require.Len(t, forward, 1)
	assert.Equal(t, replacement, forward[0].ProductID)
	assert.Equal(t, swap.Seq, forward[0].Seq)

	backward, err := store.FindSwapLinksByProducts(context.Background(), []uuid.UUID{replacement})
	require.NoError(t, err)
	require.Len(t, backward, 1)
	assert.Equal(t, original, backward[0].OriginalProductID)
}

func TestTransactionStore_DepositOriginAndPinnedPrice(t *testing.T) {
	store := NewTransactionStore()
	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	depositBorn := uuid.New()
	orderBorn := uuid.New()

	dep := newTestDeposit(t, depositBorn, at)
	require.NoError(t, store.Append(context.Background(), dep))

	order, err := ledger.NewTransaction(ledger.TypeManufacturerOrder, uuid.New(), uuid.New(), at.Add(time.Minute))
	require.NoError(t, err)
	_, err = order.AddItem(orderBorn, decimal.NewFromInt(4000000))
	require.NoError(t, err)
	_, err = order.AddItem(depositBorn, decimal.NewFromInt(4200000))
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), order))

	origin, err := store.FindDepositOriginProducts(context.Background(), []uuid.UUID{depositBorn, orderBorn})
	require.NoError(t, err)
	assert.True(t, origin[depositBorn])
	assert.False(t, origin[orderBorn])

	// The manufacturer re-order cost never displaces the deposit pin.
	price, found, err := store.LatestPinnedPrice(context.Background(), depositBorn)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, price.Equal(decimal.NewFromInt(5000000)))

	// A swap item carries the pin onto the replacement unit.
	replacement := uuid.New()
	swap, err := ledger.NewTransaction(ledger.TypeSwap, uuid.New(), uuid.New(), at.Add(2*time.Minute))
	require.NoError(t, err)
	_, err = swap.AddSwappedItem(replacement, depositBorn, decimal.NewFromInt(5000000))
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), swap))

	price, found, err = store.LatestPinnedPrice(context.Background(), replacement)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, price.Equal(decimal.NewFromInt(5000000)))

	// A unit only the manufacturer order names has no pin at all.
	_, found, err = store.LatestPinnedPrice(context.Background(), orderBorn)
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = store.LatestPinnedPrice(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, found)

	openDep, err := store.FindOpenDepositByProduct(context.Background(), depositBorn)
	require.NoError(t, err)
	assert.Equal(t, dep.ID, openDep.ID)
}
