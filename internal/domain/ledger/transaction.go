package ledger

import (
	"time"

	"github.com/goldshop/backend/internal/domain/shared"
	"github.com/goldshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType identifies which workflow operation produced a transaction.
type TransactionType string

const (
	TypeDeposit             TransactionType = "DEPOSIT"
	TypeManufacturerOrder   TransactionType = "MANUFACTURER_ORDER"
	TypeBuyback             TransactionType = "BUYBACK"
	TypeSellBack            TransactionType = "SELL_BACK"
	TypeFulfillment         TransactionType = "FULFILLMENT"
	TypeManufacturerReceive TransactionType = "MANUFACTURER_RECEIVE"
	TypeSwap                TransactionType = "SWAP"
)

// IsValid checks if the type is a known TransactionType
func (t TransactionType) IsValid() bool {
	switch t {
	case TypeDeposit, TypeManufacturerOrder, TypeBuyback, TypeSellBack,
		TypeFulfillment, TypeManufacturerReceive, TypeSwap:
		return true
	}
	return false
}

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// PinsOwnership reports whether items of this type pin the price a customer
// agreement holds a unit at. Deposit items pin it directly; swap items carry
// it onto the replacement unit. Manufacturer costs and buyback payouts are
// itemized too but never displace the agreement price.
func (t TransactionType) PinsOwnership() bool {
	return t == TypeDeposit || t == TypeSwap
}

// OwnershipPinningTypes lists the types for which PinsOwnership holds.
func OwnershipPinningTypes() []TransactionType {
	return []TransactionType{TypeDeposit, TypeSwap}
}

// OrderStatus is the secondary status attached to a Deposit transaction as it
// progresses. A nil OrderStatus means the deposit is still open; every
// non-nil value is terminal.
type OrderStatus string

const (
	OrderStatusBoughtBack OrderStatus = "BOUGHT_BACK"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusSoldBack   OrderStatus = "SOLD_BACK_TO_MANUFACTURER"
)

// IsValid checks if the status is a known OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusBoughtBack, OrderStatusDelivered, OrderStatusSoldBack:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// TransactionItem pins one product to a transaction at a fixed price. The
// price is always the price at operation time, never derived live from the
// product's last price. Swap operations create items with Swapped set and
// OriginalProductID pointing at the unit the product replaced.
type TransactionItem struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TransactionID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	PriceAtTime       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Swapped           bool            `gorm:"not null;default:false"`
	OriginalProductID *uuid.UUID      `gorm:"type:uuid;index"`
	CreatedAt         time.Time
}

// TableName returns the table name for GORM
func (TransactionItem) TableName() string {
	return "transaction_items"
}

// Transaction is one immutable ledger entry: the record of a single workflow
// operation. Corrections are new transactions, never edits. The only writes
// an existing row may receive are the deposit order-status progression and
// the two administrative amendments (re-date / re-code).
type Transaction struct {
	shared.BaseAggregateRoot
	// Seq is a monotonic append sequence assigned by the store. Together
	// with OccurredAt it gives reports a stable, restartable ordering.
	Seq         int64           `gorm:"autoIncrement;uniqueIndex"`
	Type        TransactionType `gorm:"size:30;not null;index"`
	Code        string          `gorm:"size:50;index"`
	OccurredAt  time.Time       `gorm:"not null;index"`
	CustomerID  *uuid.UUID      `gorm:"type:uuid;index"`
	StoreID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	StaffID     uuid.UUID       `gorm:"type:uuid;not null"`
	OrderStatus *OrderStatus    `gorm:"size:40;index"`
	// Forced records a fulfillment that proceeded although some units had
	// not yet arrived from the manufacturer.
	Forced      bool              `gorm:"not null;default:false"`
	CashAmount  decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	BankAmount  decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	Items       []TransactionItem `gorm:"foreignKey:TransactionID;references:ID"`
}

// TableName returns the table name for GORM
func (Transaction) TableName() string {
	return "transactions"
}

// NewTransaction creates a ledger entry of the given type. OccurredAt is the
// business timestamp supplied by the caller, distinct from the system clock.
func NewTransaction(txType TransactionType, storeID, staffID uuid.UUID, occurredAt time.Time) (*Transaction, error) {
	if !txType.IsValid() {
		return nil, shared.NewValidationError("INVALID_TYPE", "Unknown transaction type: "+txType.String())
	}
	if storeID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_STORE", "Store ID cannot be empty")
	}
	if staffID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_STAFF", "Staff ID cannot be empty")
	}
	if occurredAt.IsZero() {
		return nil, shared.NewValidationError("INVALID_TIMESTAMP", "Business timestamp cannot be empty")
	}

	return &Transaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Type:              txType,
		OccurredAt:        occurredAt,
		StoreID:           storeID,
		StaffID:           staffID,
		Items:             make([]TransactionItem, 0),
	}, nil
}

// NewDeposit creates a customer deposit transaction with its payment split
// already verified against the item total.
func NewDeposit(storeID, customerID, staffID uuid.UUID, code string, occurredAt time.Time, split valueobject.PaymentSplit) (*Transaction, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	t, err := NewTransaction(TypeDeposit, storeID, staffID, occurredAt)
	if err != nil {
		return nil, err
	}
	t.CustomerID = &customerID
	t.Code = code
	t.CashAmount = split.Cash()
	t.BankAmount = split.Bank()
	return t, nil
}

// AddItem pins a product to the transaction at the given price.
func (t *Transaction) AddItem(productID uuid.UUID, price decimal.Decimal) (*TransactionItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if price.IsNegative() {
		return nil, shared.NewValidationError("INVALID_PRICE", "Item price cannot be negative")
	}
	if t.HasProduct(productID) {
		return nil, shared.NewValidationError("DUPLICATE_PRODUCT", "Product already appears in this transaction")
	}

	item := TransactionItem{
		ID:            uuid.New(),
		TransactionID: t.ID,
		ProductID:     productID,
		PriceAtTime:   price,
		CreatedAt:     time.Now(),
	}
	t.Items = append(t.Items, item)
	return &t.Items[len(t.Items)-1], nil
}

// AddSwappedItem pins a product that took over another unit's role in a swap,
// preserving the replaced unit's pinned price.
func (t *Transaction) AddSwappedItem(productID, originalProductID uuid.UUID, price decimal.Decimal) (*TransactionItem, error) {
	if originalProductID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_PRODUCT", "Original product ID cannot be empty")
	}
	item, err := t.AddItem(productID, price)
	if err != nil {
		return nil, err
	}
	item.Swapped = true
	orig := originalProductID
	item.OriginalProductID = &orig
	return item, nil
}

// HasProduct reports whether the transaction carries an item for productID.
func (t *Transaction) HasProduct(productID uuid.UUID) bool {
	for i := range t.Items {
		if t.Items[i].ProductID == productID {
			return true
		}
	}
	return false
}

// ItemFor returns the item for productID, or nil.
func (t *Transaction) ItemFor(productID uuid.UUID) *TransactionItem {
	for i := range t.Items {
		if t.Items[i].ProductID == productID {
			return &t.Items[i]
		}
	}
	return nil
}

// TotalAmount returns the sum of all item prices.
func (t *Transaction) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for i := range t.Items {
		total = total.Add(t.Items[i].PriceAtTime)
	}
	return total
}

// IsOpen reports whether a deposit has not yet reached a terminal order
// status. Non-deposit transactions have no order status and are never open.
func (t *Transaction) IsOpen() bool {
	return t.Type == TypeDeposit && t.OrderStatus == nil
}

// Progress moves an open deposit to a terminal order status.
func (t *Transaction) Progress(status OrderStatus) error {
	if t.Type != TypeDeposit {
		return shared.NewValidationError("NOT_A_DEPOSIT", "Order status applies only to deposits")
	}
	if !status.IsValid() {
		return shared.NewValidationError("INVALID_ORDER_STATUS", "Unknown order status: "+status.String())
	}
	if t.OrderStatus != nil {
		return shared.NewEligibilityError("DEPOSIT_CLOSED",
			"Deposit already closed with status "+t.OrderStatus.String())
	}
	s := status
	t.OrderStatus = &s
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
	return nil
}

// Amend applies the administrative re-date / re-code correction. Items and
// amounts are untouchable; only deposits and manufacturer orders qualify.
func (t *Transaction) Amend(code string, occurredAt time.Time) error {
	if t.Type != TypeDeposit && t.Type != TypeManufacturerOrder {
		return shared.NewValidationError("NOT_AMENDABLE",
			"Only deposits and manufacturer orders can be amended")
	}
	if occurredAt.IsZero() {
		return shared.NewValidationError("INVALID_TIMESTAMP", "Business timestamp cannot be empty")
	}
	t.Code = code
	t.OccurredAt = occurredAt
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
	return nil
}

// CashFlow returns the money-in and money-out this transaction contributes
// to a financial report. Deposits bring in their payment split, sell-backs
// their proceeds; buybacks pay out to customers and manufacturer orders to
// the supplier.
func (t *Transaction) CashFlow() (moneyIn, moneyOut decimal.Decimal) {
	switch t.Type {
	case TypeDeposit:
		return t.CashAmount.Add(t.BankAmount), decimal.Zero
	case TypeSellBack:
		return t.TotalAmount(), decimal.Zero
	case TypeBuyback:
		return decimal.Zero, t.TotalAmount()
	case TypeManufacturerOrder:
		return decimal.Zero, t.TotalAmount()
	}
	return decimal.Zero, decimal.Zero
}
