package ledger

import (
	"sort"

	"github.com/goldshop/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DerivedState is the product state obtained by folding ledger history
// through the transition table. The cached columns on the product row must
// always equal this fold; any divergence is a bug in a workflow operation.
type DerivedState struct {
	Status      inventory.ProductStatus
	IsOrdered   bool
	IsDelivered bool
	LastPrice   decimal.Decimal
	Exists      bool
}

// Replay folds a ledger slice into per-product derived state. Transactions
// are applied in business order (occurred_at ascending, sequence ascending),
// the same ordering the query surface guarantees.
func Replay(txs []Transaction) map[uuid.UUID]DerivedState {
	ordered := make([]Transaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].OccurredAt.Equal(ordered[j].OccurredAt) {
			return ordered[i].Seq < ordered[j].Seq
		}
		return ordered[i].OccurredAt.Before(ordered[j].OccurredAt)
	})

	states := make(map[uuid.UUID]DerivedState)
	for i := range ordered {
		applyTransaction(states, &ordered[i])
	}
	return states
}

func applyTransaction(states map[uuid.UUID]DerivedState, t *Transaction) {
	switch t.Type {
	case TypeDeposit:
		for _, item := range t.Items {
			s := states[item.ProductID]
			s.Exists = true
			s.Status = inventory.StatusSold
			s.LastPrice = item.PriceAtTime
			states[item.ProductID] = s
		}
	case TypeManufacturerOrder:
		for _, item := range t.Items {
			s, known := states[item.ProductID]
			if !known {
				// New-stock unit minted by the order itself.
				s = DerivedState{Exists: true, Status: inventory.StatusOrderedFromManufacturer}
			} else if s.Status == inventory.StatusAvailable {
				s.Status = inventory.StatusOrderedFromManufacturer
			}
			s.IsOrdered = true
			s.LastPrice = item.PriceAtTime
			states[item.ProductID] = s
		}
	case TypeBuyback:
		for _, item := range t.Items {
			s := states[item.ProductID]
			s.Status = inventory.StatusAvailable
			s.LastPrice = item.PriceAtTime
			states[item.ProductID] = s
		}
	case TypeFulfillment:
		for _, item := range t.Items {
			s := states[item.ProductID]
			s.Status = inventory.StatusDelivered
			states[item.ProductID] = s
		}
	case TypeSellBack:
		for _, item := range t.Items {
			s := states[item.ProductID]
			s.Status = inventory.StatusSoldBackToManufacturer
			s.LastPrice = item.PriceAtTime
			states[item.ProductID] = s
		}
	case TypeManufacturerReceive:
		for _, item := range t.Items {
			s := states[item.ProductID]
			s.IsDelivered = true
			s.LastPrice = item.PriceAtTime
			states[item.ProductID] = s
		}
	case TypeSwap:
		// Statuses exchange between counterparts. Read every prior status
		// before writing any, so pairs swap simultaneously.
		prior := make(map[uuid.UUID]inventory.ProductStatus, len(t.Items))
		for _, item := range t.Items {
			if item.OriginalProductID != nil {
				prior[*item.OriginalProductID] = states[*item.OriginalProductID].Status
			}
		}
		for _, item := range t.Items {
			if item.OriginalProductID == nil {
				continue
			}
			s := states[item.ProductID]
			s.Status = prior[*item.OriginalProductID]
			states[item.ProductID] = s
		}
	}
}
