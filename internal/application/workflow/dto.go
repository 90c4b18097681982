package workflow

import (
	"time"

	"github.com/goldshop/backend/internal/domain/ledger"
	"github.com/goldshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositItemInput describes one unit a customer pays a deposit on. When
// ProductID is nil the unit does not exist yet and is created on the spot.
type DepositItemInput struct {
	ProductID   *uuid.UUID      `json:"product_id"`
	ProductType string          `json:"product_type"`
	Price       decimal.Decimal `json:"price"`
}

// PaymentInput is the client-declared payment split for a deposit.
type PaymentInput struct {
	Method valueobject.PaymentMethod `json:"method" binding:"required,payment_method"`
	Cash   decimal.Decimal           `json:"cash_amount"`
	Bank   decimal.Decimal           `json:"bank_amount"`
}

// CreateDepositRequest opens a customer deposit over one or more units.
type CreateDepositRequest struct {
	StoreID    uuid.UUID          `json:"store_id" binding:"required"`
	CustomerID uuid.UUID          `json:"customer_id" binding:"required"`
	StaffID    uuid.UUID          `json:"staff_id"`
	Code       string             `json:"code"`
	OccurredAt time.Time          `json:"occurred_at" binding:"required"`
	Items      []DepositItemInput `json:"items" binding:"required"`
	Payment    PaymentInput       `json:"payment" binding:"required"`
}

// PricedItemInput names a unit together with the price negotiated for this
// operation.
type PricedItemInput struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Price     decimal.Decimal `json:"price"`
}

// BuybackRequest buys units of an open deposit back from the customer.
// DepositID comes from the URL path, not the body.
type BuybackRequest struct {
	DepositID  uuid.UUID         `json:"-"`
	StaffID    uuid.UUID         `json:"staff_id"`
	OccurredAt time.Time         `json:"occurred_at" binding:"required"`
	Items      []PricedItemInput `json:"items" binding:"required"`
}

// FulfillmentRequest hands the units of an open deposit to the customer.
// Force lets staff proceed although some units have not arrived yet.
type FulfillmentRequest struct {
	DepositID  uuid.UUID   `json:"-"`
	StaffID    uuid.UUID   `json:"staff_id"`
	OccurredAt time.Time   `json:"occurred_at" binding:"required"`
	ProductIDs []uuid.UUID `json:"product_ids" binding:"required"`
	Force      bool        `json:"force"`
}

// OrderItemInput describes one line of a manufacturer order. An existing unit
// is named by ProductID with quantity fixed at one; new stock omits the id and
// mints Quantity fresh units of ProductType.
type OrderItemInput struct {
	ProductID   *uuid.UUID      `json:"product_id"`
	ProductType string          `json:"product_type"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// CreateOrderRequest places a manufacturer order.
type CreateOrderRequest struct {
	StoreID    uuid.UUID        `json:"store_id" binding:"required"`
	StaffID    uuid.UUID        `json:"staff_id"`
	Code       string           `json:"code"`
	OccurredAt time.Time        `json:"occurred_at" binding:"required"`
	Items      []OrderItemInput `json:"items" binding:"required"`
}

// ReceiveRequest records units of a manufacturer order arriving at the shop.
type ReceiveRequest struct {
	OrderID    uuid.UUID         `json:"-"`
	StaffID    uuid.UUID         `json:"staff_id"`
	OccurredAt time.Time         `json:"occurred_at" binding:"required"`
	Items      []PricedItemInput `json:"items" binding:"required"`
}

// SellBackRequest returns units of a manufacturer order to the manufacturer.
type SellBackRequest struct {
	OrderID    uuid.UUID         `json:"-"`
	StaffID    uuid.UUID         `json:"staff_id"`
	OccurredAt time.Time         `json:"occurred_at" binding:"required"`
	Items      []PricedItemInput `json:"items" binding:"required"`
}

// SwapRequest exchanges the roles of two product sets pairwise by position.
type SwapRequest struct {
	StoreID    uuid.UUID   `json:"store_id" binding:"required"`
	StaffID    uuid.UUID   `json:"staff_id"`
	OccurredAt time.Time   `json:"occurred_at" binding:"required"`
	Set1       []uuid.UUID `json:"set1" binding:"required"`
	Set2       []uuid.UUID `json:"set2" binding:"required"`
}

// AmendRequest is the administrative re-date / re-code correction.
type AmendRequest struct {
	TransactionID uuid.UUID `json:"-"`
	Code          string    `json:"code"`
	OccurredAt    time.Time `json:"occurred_at" binding:"required"`
}

// TransactionItemResponse is one pinned line of a ledger entry.
type TransactionItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	ProductID         uuid.UUID       `json:"product_id"`
	PriceAtTime       decimal.Decimal `json:"price_at_time"`
	Swapped           bool            `json:"swapped"`
	OriginalProductID *uuid.UUID      `json:"original_product_id,omitempty"`
}

// TransactionResponse is the API view of a ledger entry.
type TransactionResponse struct {
	ID          uuid.UUID                 `json:"id"`
	Seq         int64                     `json:"seq"`
	Type        ledger.TransactionType    `json:"type"`
	Code        string                    `json:"code,omitempty"`
	OccurredAt  time.Time                 `json:"occurred_at"`
	CustomerID  *uuid.UUID                `json:"customer_id,omitempty"`
	StoreID     uuid.UUID                 `json:"store_id"`
	StaffID     uuid.UUID                 `json:"staff_id"`
	OrderStatus *ledger.OrderStatus       `json:"order_status,omitempty"`
	Forced      bool                      `json:"forced,omitempty"`
	CashAmount  decimal.Decimal           `json:"cash_amount"`
	BankAmount  decimal.Decimal           `json:"bank_amount"`
	TotalAmount decimal.Decimal           `json:"total_amount"`
	Items       []TransactionItemResponse `json:"items"`
	CreatedAt   time.Time                 `json:"created_at"`
}

// ToTransactionResponse converts a ledger entry to its API view.
func ToTransactionResponse(t *ledger.Transaction) *TransactionResponse {
	items := make([]TransactionItemResponse, 0, len(t.Items))
	for i := range t.Items {
		it := t.Items[i]
		items = append(items, TransactionItemResponse{
			ID:                it.ID,
			ProductID:         it.ProductID,
			PriceAtTime:       it.PriceAtTime,
			Swapped:           it.Swapped,
			OriginalProductID: it.OriginalProductID,
		})
	}
	return &TransactionResponse{
		ID:          t.ID,
		Seq:         t.Seq,
		Type:        t.Type,
		Code:        t.Code,
		OccurredAt:  t.OccurredAt,
		CustomerID:  t.CustomerID,
		StoreID:     t.StoreID,
		StaffID:     t.StaffID,
		OrderStatus: t.OrderStatus,
		Forced:      t.Forced,
		CashAmount:  t.CashAmount,
		BankAmount:  t.BankAmount,
		TotalAmount: t.TotalAmount(),
		Items:       items,
		CreatedAt:   t.CreatedAt,
	}
}
