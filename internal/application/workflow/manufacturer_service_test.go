package workflow

import (
	"context"
	"testing"

	"github.com/goldshop/backend/internal/domain/inventory"
	"github.com/goldshop/backend/internal/domain/ledger"
	"github.com/goldshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManufacturerService_CreateOrder(t *testing.T) {
	t.Run("mints new stock in the ordered status", func(t *testing.T) {
		env := newTestEnv(t)
		resp, err := env.manufacturerService().CreateOrder(context.Background(), CreateOrderRequest{
			StoreID:    env.storeID,
			StaffID:    env.staffID,
			Code:       "MO-001",
			OccurredAt: env.tick(),
			Items:      []OrderItemInput{{ProductType: "necklace", Quantity: 3, Price: decimal.NewFromInt(4000000)}},
		})
		require.NoError(t, err)
		require.Len(t, resp.Items, 3)

		for _, item := range resp.Items {
			p := env.product(t, item.ProductID)
			assert.Equal(t, inventory.StatusOrderedFromManufacturer, p.Status)
			assert.True(t, p.IsOrdered)
			assert.False(t, p.IsDelivered)
		}
	})

	t.Run("orders a deposited unit without losing its reservation", func(t *testing.T) {
		env := newTestEnv(t)
		dep := env.mintDeposit(t, 5000000)
		id := dep.Items[0].ProductID

		price := decimal.NewFromInt(4000000)
		_, err := env.manufacturerService().CreateOrder(context.Background(), CreateOrderRequest{
			StoreID:    env.storeID,
			StaffID:    env.staffID,
			OccurredAt: env.tick(),
			Items:      []OrderItemInput{{ProductID: &id, Quantity: 1, Price: price}},
		})
		require.NoError(t, err)

		p := env.product(t, id)
		assert.Equal(t, inventory.StatusSold, p.Status)
		assert.True(t, p.IsOrdered)
		assert.True(t, p.LastPrice.Equal(price))
	})

	t.Run("rejects quantity other than one for an existing unit", func(t *testing.T) {
		env := newTestEnv(t)
		dep := env.mintDeposit(t, 5000000)
		id := dep.Items[0].ProductID

		_, err := env.manufacturerService().CreateOrder(context.Background(), CreateOrderRequest{
			StoreID:    env.storeID,
			StaffID:    env.staffID,
			OccurredAt: env.tick(),
			Items:      []OrderItemInput{{ProductID: &id, Quantity: 2, Price: decimal.NewFromInt(4000000)}},
		})
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("rejects a unit that is already on order", func(t *testing.T) {
		env := newTestEnv(t)
		dep := env.mintDeposit(t, 5000000)
		id := dep.Items[0].ProductID

		req := CreateOrderRequest{
			StoreID:    env.storeID,
			StaffID:    env.staffID,
			OccurredAt: env.tick(),
			Items:      []OrderItemInput{{ProductID: &id, Quantity: 1, Price: decimal.NewFromInt(4000000)}},
		}
		_, err := env.manufacturerService().CreateOrder(context.Background(), req)
		require.NoError(t, err)

		_, err = env.manufacturerService().CreateOrder(context.Background(), req)
		require.Error(t, err)
		assert.True(t, shared.IsEligibility(err))
	})

	t.Run("rejects a unit that did not originate from a deposit", func(t *testing.T) {
		env := newTestEnv(t)
		minted, err := env.manufacturerService().CreateOrder(context.Background(), CreateOrderRequest{
			StoreID:    env.storeID,
			StaffID:    env.staffID,
			OccurredAt: env.tick(),
			Items:      []OrderItemInput{{ProductType: "ring", Quantity: 1, Price: decimal.NewFromInt(4000000)}},
		})
		require.NoError(t, err)
		id := minted.Items[0].ProductID

		_, err = env.manufacturerService().CreateOrder(context.Background(), CreateOrderRequest{
			StoreID:    env.storeID,
			StaffID:    env.staffID,
			OccurredAt: env.tick(),
			Items:      []OrderItemInput{{ProductID: &id, Quantity: 1, Price: decimal.NewFromInt(4000000)}},
		})
		require.Error(t, err)
		assert.True(t, shared.IsEligibility(err))
	})
}

func TestManufacturerService_Receive(t *testing.T) {
	t.Run("marks units delivered with the received price", func(t *testing.T) {
		env := newTestEnv(t)
		order, err := env.manufacturerService().CreateOrder(context.Background(), CreateOrderRequest{
			StoreID:    env.storeID,
			StaffID:    env.staffID,
			OccurredAt: env.tick(),
			Items:      []OrderItemInput{{ProductType: "ring", Quantity: 1, Price: decimal.NewFromInt(4000000)}},
		})
		require.NoError(t, err)
		id := order.Items[0].ProductID

		received := decimal.NewFromInt(4100000)
		resp, err := env.manufacturerService().Receive(context.Background(), ReceiveRequest{
			OrderID:    order.ID,
			StaffID:    env.staffID,
			OccurredAt: env.tick(),
			Items:      []PricedItemInput{{ProductID: id, Price: received}},
		})
		require.NoError(t, err)
		assert.Equal(t, ledger.TypeManufacturerReceive, resp.Type)

		p := env.product(t, id)
		assert.Equal(t, inventory.StatusOrderedFromManufacturer, p.Status)
		assert.True(t, p.IsDelivered)
		assert.True(t, p.LastPrice.Equal(received))
	})

	t.Run("rejects a unit outside the order", func(t *testing.T) {
		env := newTestEnv(t)
		order, err := env.manufacturerService().CreateOrder(context.Background(), CreateOrderRequest{
			StoreID:    env.storeID,
			StaffID:    env.staffID,
			OccurredAt: env.tick(),
			Items:      []OrderItemInput{{ProductType: "ring", Quantity: 1, Price: decimal.NewFromInt(4000000)}},
		})
		require.NoError(t, err)

		_, err = env.manufacturerService().Receive(context.Background(), ReceiveRequest{
			OrderID:    order.ID,
			StaffID:    env.staffID,
			OccurredAt: env.tick(),
			Items:      []PricedItemInput{{ProductID: uuid.New(), Price: decimal.NewFromInt(4000000)}},
		})
		require.Error(t, err)
		assert.True(t, shared.IsEligibility(err))
	})

	t.Run("rejects a non-order transaction", func(t *testing.T) {
		env := newTestEnv(t)
		dep := env.mintDeposit(t, 5000000)

		_, err := env.manufacturerService().Receive(context.Background(), ReceiveRequest{
			OrderID:    dep.ID,
			StaffID:    env.staffID,
			OccurredAt: env.tick(),
			Items:      []PricedItemInput{{ProductID: dep.Items[0].ProductID, Price: decimal.NewFromInt(4000000)}},
		})
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	})
}

func TestManufacturerService_SellBack(t *testing.T) {
	t.Run("moves units to the terminal status", func(t *testing.T) {
		env := newTestEnv(t)
		order, err := env.manufacturerService().CreateOrder(context.Background(), CreateOrderRequest{
			StoreID:    env.storeID,
			StaffID:    env.staffID,
			OccurredAt: env.tick(),
			Items:      []OrderItemInput{{ProductType: "ring", Quantity: 1, Price: decimal.NewFromInt(4000000)}},
		})
		require.NoError(t, err)
		id := order.Items[0].ProductID

		resp, err := env.manufacturerService().SellBack(context.Background(), SellBackRequest{
			OrderID:    order.ID,
			StaffID:    env.staffID,
			OccurredAt: env.tick(),
			Items:      []PricedItemInput{{ProductID: id, Price: decimal.NewFromInt(3900000)}},
		})
		require.NoError(t, err)
		assert.Equal(t, ledger.TypeSellBack, resp.Type)
		assert.Equal(t, inventory.StatusSoldBackToManufacturer, env.product(t, id).Status)
	})

	t.Run("closes the open deposit holding the unit", func(t *testing.T) {
		env := newTestEnv(t)
		dep := env.mintDeposit(t, 5000000)
		id := dep.Items[0].ProductID

		order, err := env.manufacturerService().CreateOrder(context.Background(), CreateOrderRequest{
			StoreID:    env.storeID,
			StaffID:    env.staffID,
			OccurredAt: env.tick(),
			Items:      []OrderItemInput{{ProductID: &id, Quantity: 1, Price: decimal.NewFromInt(4000000)}},
		})
		require.NoError(t, err)

		_, err = env.manufacturerService().SellBack(context.Background(), SellBackRequest{
			OrderID:    order.ID,
			StaffID:    env.staffID,
			OccurredAt: env.tick(),
			Items:      []PricedItemInput{{ProductID: id, Price: decimal.NewFromInt(3900000)}},
		})
		require.NoError(t, err)

		stored := env.transaction(t, dep.ID)
		require.NotNil(t, stored.OrderStatus)
		assert.Equal(t, ledger.OrderStatusSoldBack, *stored.OrderStatus)
	})

	t.Run("rejects a unit already sold back", func(t *testing.T) {
		env := newTestEnv(t)
		order, err := env.manufacturerService().CreateOrder(context.Background(), CreateOrderRequest{
			StoreID:    env.storeID,
			StaffID:    env.staffID,
			OccurredAt: env.tick(),
			Items:      []OrderItemInput{{ProductType: "ring", Quantity: 1, Price: decimal.NewFromInt(4000000)}},
		})
		require.NoError(t, err)
		id := order.Items[0].ProductID

		req := SellBackRequest{
			OrderID:    order.ID,
			StaffID:    env.staffID,
			OccurredAt: env.tick(),
			Items:      []PricedItemInput{{ProductID: id, Price: decimal.NewFromInt(3900000)}},
		}
		_, err = env.manufacturerService().SellBack(context.Background(), req)
		require.NoError(t, err)

		_, err = env.manufacturerService().SellBack(context.Background(), req)
		require.Error(t, err)
		assert.True(t, shared.IsEligibility(err))
	})
}
