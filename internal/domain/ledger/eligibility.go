package ledger

import (
	"github.com/goldshop/backend/internal/domain/inventory"
	"github.com/goldshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Reason codes returned by the eligibility filters. The filters are pure and
// advisory: every workflow operation re-evaluates them against fresh state
// before mutating anything, so a stale client-side filter result can never
// authorize an operation.
const (
	ReasonEligible         = "ELIGIBLE"
	ReasonNotSold          = "NOT_SOLD"
	ReasonNotInDeposit     = "NOT_IN_DEPOSIT"
	ReasonDepositClosed    = "DEPOSIT_CLOSED"
	ReasonAlreadySoldBack  = "ALREADY_SOLD_BACK"
	ReasonNotInOrder       = "NOT_IN_ORDER"
	ReasonNotReceivable    = "NOT_RECEIVABLE"
	ReasonAlreadyOrdered   = "ALREADY_ORDERED"
	ReasonNotDepositOrigin = "NOT_DEPOSIT_ORIGIN"
)

// Eligibility is the outcome of a single-product filter.
type Eligibility struct {
	Eligible bool
	Reason   string
}

func eligible() Eligibility {
	return Eligibility{Eligible: true, Reason: ReasonEligible}
}

func ineligible(reason string) Eligibility {
	return Eligibility{Reason: reason}
}

// Err converts an ineligible result into an eligibility error.
func (e Eligibility) Err(message string) error {
	if e.Eligible {
		return nil
	}
	return shared.NewEligibilityError(e.Reason, message)
}

// ProductSet is the set of product ids currently backing a deposit, after
// swap relinking has been resolved.
type ProductSet map[uuid.UUID]struct{}

// NewProductSet builds a set from ids.
func NewProductSet(ids ...uuid.UUID) ProductSet {
	s := make(ProductSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports set membership.
func (s ProductSet) Contains(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

// BuybackEligibility: the unit must currently be Sold and must be one of the
// deposit's current units.
func BuybackEligibility(p *inventory.Product, deposit *Transaction, currentUnits ProductSet) Eligibility {
	if p.Status != inventory.StatusSold {
		return ineligible(ReasonNotSold)
	}
	if !currentUnits.Contains(p.ID) {
		return ineligible(ReasonNotInDeposit)
	}
	return eligible()
}

// FulfillmentEligibility: the unit must be Sold under a deposit that is still
// open (no terminal order status).
func FulfillmentEligibility(p *inventory.Product, deposit *Transaction, currentUnits ProductSet) Eligibility {
	if !deposit.IsOpen() {
		return ineligible(ReasonDepositClosed)
	}
	if p.Status != inventory.StatusSold {
		return ineligible(ReasonNotSold)
	}
	if !currentUnits.Contains(p.ID) {
		return ineligible(ReasonNotInDeposit)
	}
	return eligible()
}

// SellBackEligibility: the unit must belong to the named manufacturer order
// and must not already be sold back.
func SellBackEligibility(p *inventory.Product, order *Transaction) Eligibility {
	if p.Status == inventory.StatusSoldBackToManufacturer {
		return ineligible(ReasonAlreadySoldBack)
	}
	if !order.HasProduct(p.ID) {
		return ineligible(ReasonNotInOrder)
	}
	return eligible()
}

// ReceiveEligibility: a unit is receivable while its manufacturer order is
// outstanding - either it sits in OrderedFromManufacturer, or it kept its
// Sold/Available status when the order was placed and carries the ordered
// flag.
func ReceiveEligibility(p *inventory.Product) Eligibility {
	if p.Status == inventory.StatusOrderedFromManufacturer {
		return eligible()
	}
	if (p.Status == inventory.StatusSold || p.Status == inventory.StatusAvailable) && p.IsOrdered {
		return eligible()
	}
	return ineligible(ReasonNotReceivable)
}

// PendingManufacturerEligibility: a unit is a manufacturer-order candidate
// when it originated from a customer deposit and has no outstanding order.
func PendingManufacturerEligibility(p *inventory.Product, depositOrigin bool) Eligibility {
	if !depositOrigin {
		return ineligible(ReasonNotDepositOrigin)
	}
	if p.IsOrdered {
		return ineligible(ReasonAlreadyOrdered)
	}
	return eligible()
}

// SwapEligibility validates the two product sets of a swap: non-empty, equal
// size (units exchange pairwise), disjoint, each side homogeneous in status,
// and the status combination must be Sold-Available or Sold-Sold.
func SwapEligibility(set1, set2 []*inventory.Product) error {
	if len(set1) == 0 || len(set2) == 0 {
		return shared.NewValidationError("EMPTY_SWAP_SET", "Both swap sets must contain at least one product")
	}
	if len(set1) != len(set2) {
		return shared.NewValidationError("UNBALANCED_SWAP_SETS", "Swap sets must be the same size")
	}

	seen := make(map[uuid.UUID]struct{}, len(set1)+len(set2))
	for _, p := range set1 {
		if _, dup := seen[p.ID]; dup {
			return shared.NewValidationError("OVERLAPPING_SWAP_SETS", "Swap sets must not share products")
		}
		seen[p.ID] = struct{}{}
	}
	for _, p := range set2 {
		if _, dup := seen[p.ID]; dup {
			return shared.NewValidationError("OVERLAPPING_SWAP_SETS", "Swap sets must not share products")
		}
		seen[p.ID] = struct{}{}
	}

	status1, err := homogeneousStatus(set1)
	if err != nil {
		return err
	}
	status2, err := homogeneousStatus(set2)
	if err != nil {
		return err
	}

	if !swapComboAllowed(status1, status2) {
		return shared.NewEligibilityError("INCOMPATIBLE_SWAP_STATUSES",
			"Swap requires Sold-Available or Sold-Sold sets, got "+status1.String()+" and "+status2.String())
	}
	return nil
}

func homogeneousStatus(set []*inventory.Product) (inventory.ProductStatus, error) {
	status := set[0].Status
	for _, p := range set[1:] {
		if p.Status != status {
			return "", shared.NewEligibilityError("MIXED_SWAP_SET",
				"Each swap set must be internally homogeneous in status")
		}
	}
	return status, nil
}

func swapComboAllowed(a, b inventory.ProductStatus) bool {
	if a == inventory.StatusSold && b == inventory.StatusSold {
		return true
	}
	if a == inventory.StatusSold && b == inventory.StatusAvailable {
		return true
	}
	if a == inventory.StatusAvailable && b == inventory.StatusSold {
		return true
	}
	return false
}
