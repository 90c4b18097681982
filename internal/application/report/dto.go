package report

import (
	"time"

	"github.com/goldshop/backend/internal/domain/inventory"
	"github.com/goldshop/backend/internal/domain/ledger"
	"github.com/goldshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PeriodFilter narrows a report to a time window and optionally one store.
type PeriodFilter struct {
	From    *time.Time `form:"from" time_format:"2006-01-02"`
	To      *time.Time `form:"to" time_format:"2006-01-02"`
	StoreID *uuid.UUID `form:"store_id"`
}

// TypeBreakdown aggregates one transaction type within a report period.
type TypeBreakdown struct {
	Count int64             `json:"count"`
	Total valueobject.Money `json:"total"`
}

// DailyCashFlow is the cash movement of a single business day.
type DailyCashFlow struct {
	Date     string            `json:"date"`
	MoneyIn  valueobject.Money `json:"money_in"`
	MoneyOut valueobject.Money `json:"money_out"`
	Net      valueobject.Money `json:"net"`
}

// FinancialStatsResponse is the period financial report folded from the
// ledger in one pass. Amounts carry the shop's currency.
type FinancialStatsResponse struct {
	TransactionCount   int64                                    `json:"transaction_count"`
	MoneyIn            valueobject.Money                        `json:"money_in"`
	MoneyOut           valueobject.Money                        `json:"money_out"`
	Net                valueobject.Money                        `json:"net"`
	ForcedFulfillments int64                                    `json:"forced_fulfillments"`
	ByType             map[ledger.TransactionType]TypeBreakdown `json:"by_type"`
	Daily              []DailyCashFlow                          `json:"daily"`
}

// ProductResponse is the API view of an inventory unit.
type ProductResponse struct {
	ID          uuid.UUID               `json:"id"`
	ProductType string                  `json:"product_type"`
	Status      inventory.ProductStatus `json:"status"`
	StoreID     uuid.UUID               `json:"store_id"`
	IsOrdered   bool                    `json:"is_ordered"`
	IsDelivered bool                    `json:"is_delivered"`
	LastPrice   decimal.Decimal         `json:"last_price"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// ToProductResponse converts a unit to its API view.
func ToProductResponse(p *inventory.Product) *ProductResponse {
	return &ProductResponse{
		ID:          p.ID,
		ProductType: p.ProductType,
		Status:      p.Status,
		StoreID:     p.StoreID,
		IsOrdered:   p.IsOrdered,
		IsDelivered: p.IsDelivered,
		LastPrice:   p.LastPrice,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ProductStateView is the status/flag/price tuple compared by the audit.
type ProductStateView struct {
	Status      inventory.ProductStatus `json:"status"`
	IsOrdered   bool                    `json:"is_ordered"`
	IsDelivered bool                    `json:"is_delivered"`
	LastPrice   decimal.Decimal         `json:"last_price"`
}

// StatusProvenanceResponse pairs a unit's stored state with the state derived
// by replaying its ledger history. The two must agree; Consistent is false
// when a workflow operation let them drift.
type StatusProvenanceResponse struct {
	ProductID  uuid.UUID        `json:"product_id"`
	Stored     ProductStateView `json:"stored"`
	Derived    ProductStateView `json:"derived"`
	HasHistory bool             `json:"has_history"`
	Consistent bool             `json:"consistent"`
}

// InventoryAuditResponse summarizes a full stored-versus-derived sweep.
type InventoryAuditResponse struct {
	Checked int                        `json:"checked"`
	Drifted []StatusProvenanceResponse `json:"drifted"`
}
