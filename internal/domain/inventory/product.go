package inventory

import (
	"time"

	"github.com/goldshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the lifecycle status of a physical inventory unit.
// It is the single closed enum shared by every operation and filter; raw
// status strings must never be compared anywhere else.
type ProductStatus string

const (
	StatusAvailable                ProductStatus = "AVAILABLE"
	StatusSold                     ProductStatus = "SOLD"
	StatusOrderedFromManufacturer  ProductStatus = "ORDERED_FROM_MANUFACTURER"
	StatusDelivered                ProductStatus = "DELIVERED"
	StatusSoldBackToManufacturer   ProductStatus = "SOLD_BACK_TO_MANUFACTURER"
	StatusReceivedFromManufacturer ProductStatus = "RECEIVED_FROM_MANUFACTURER"
)

// IsValid checks if the status is a valid ProductStatus
func (s ProductStatus) IsValid() bool {
	switch s {
	case StatusAvailable, StatusSold, StatusOrderedFromManufacturer,
		StatusDelivered, StatusSoldBackToManufacturer, StatusReceivedFromManufacturer:
		return true
	}
	return false
}

// String returns the string representation of ProductStatus
func (s ProductStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition can leave this status.
func (s ProductStatus) IsTerminal() bool {
	return s == StatusSoldBackToManufacturer
}

// CanTransitionTo checks if the status can transition to the target status.
// A transition to the same status is legal: ManufacturerReceive updates the
// delivery flag while leaving the status untouched.
func (s ProductStatus) CanTransitionTo(target ProductStatus) bool {
	if s == target {
		return !s.IsTerminal()
	}
	switch s {
	case StatusAvailable:
		return target == StatusSold ||
			target == StatusOrderedFromManufacturer ||
			target == StatusSoldBackToManufacturer
	case StatusSold:
		return target == StatusAvailable ||
			target == StatusDelivered ||
			target == StatusSoldBackToManufacturer
	case StatusOrderedFromManufacturer, StatusReceivedFromManufacturer, StatusDelivered:
		return target == StatusSoldBackToManufacturer
	case StatusSoldBackToManufacturer:
		return false
	}
	return false
}

// Product represents a unique physical inventory unit. Its status is a cached
// projection of the unit's ledger history; only workflow operations may
// mutate the status/is_ordered/is_delivered triple, and only through the
// store's compare-and-swap transition.
type Product struct {
	shared.BaseAggregateRoot
	ProductType string          `gorm:"size:100;not null;index"`
	Status      ProductStatus   `gorm:"size:40;not null;index"`
	StoreID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	IsOrdered   bool            `gorm:"not null;default:false"`
	IsDelivered bool            `gorm:"not null;default:false"`
	LastPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new unit in the Available state.
func NewProduct(storeID uuid.UUID, productType string, lastPrice decimal.Decimal) (*Product, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_STORE", "Store ID cannot be empty")
	}
	if productType == "" {
		return nil, shared.NewValidationError("INVALID_PRODUCT_TYPE", "Product type cannot be empty")
	}
	if lastPrice.IsNegative() {
		return nil, shared.NewValidationError("INVALID_PRICE", "Price cannot be negative")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductType:       productType,
		Status:            StatusAvailable,
		StoreID:           storeID,
		LastPrice:         lastPrice,
	}, nil
}

// NewOrderedProduct creates a new-stock unit minted by a manufacturer order.
func NewOrderedProduct(storeID uuid.UUID, productType string, lastPrice decimal.Decimal) (*Product, error) {
	p, err := NewProduct(storeID, productType, lastPrice)
	if err != nil {
		return nil, err
	}
	p.Status = StatusOrderedFromManufacturer
	p.IsOrdered = true
	return p, nil
}

// TransitionTo moves the product to the target status, enforcing the
// transition table. Used by in-memory stores; the SQL store enforces the same
// rule with a compare-and-swap update.
func (p *Product) TransitionTo(target ProductStatus) error {
	if !target.IsValid() {
		return shared.NewValidationError("INVALID_STATUS", "Unknown product status: "+target.String())
	}
	if !p.Status.CanTransitionTo(target) {
		return shared.NewEligibilityError("ILLEGAL_TRANSITION",
			"Product cannot move from "+p.Status.String()+" to "+target.String())
	}
	p.Status = target
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// ApplyFlags applies the side-band flag updates of a transition.
func (p *Product) ApplyFlags(flags TransitionFlags) {
	if flags.SetOrdered != nil {
		p.IsOrdered = *flags.SetOrdered
	}
	if flags.SetDelivered != nil {
		p.IsDelivered = *flags.SetDelivered
	}
	if flags.LastPrice != nil {
		p.LastPrice = *flags.LastPrice
	}
	p.UpdatedAt = time.Now()
}

// TransitionFlags carries the optional field updates that ride along with a
// status transition. Nil fields are left untouched.
type TransitionFlags struct {
	SetOrdered   *bool
	SetDelivered *bool
	LastPrice    *decimal.Decimal
}

// MarkOrdered returns flags that set is_ordered.
func MarkOrdered() TransitionFlags {
	v := true
	return TransitionFlags{SetOrdered: &v}
}

// MarkDelivered returns flags that set is_delivered.
func MarkDelivered() TransitionFlags {
	v := true
	return TransitionFlags{SetDelivered: &v}
}

// WithLastPrice attaches a last-price update to the flags.
func (f TransitionFlags) WithLastPrice(price decimal.Decimal) TransitionFlags {
	f.LastPrice = &price
	return f
}
