package workflow

import (
	"context"

	"github.com/goldshop/backend/internal/domain/inventory"
	"github.com/goldshop/backend/internal/domain/ledger"
	"github.com/goldshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SwapService exchanges the lifecycle roles of two product sets pairwise by
// position. Statuses swap simultaneously and each unit inherits the pinned
// price of the unit whose role it takes over, so the deposit it joins keeps
// its original financial terms.
type SwapService struct {
	scope TransactionScope
}

// NewSwapService creates a swap service on the given scope.
func NewSwapService(scope TransactionScope) *SwapService {
	return &SwapService{scope: scope}
}

// Swap performs the pairwise exchange.
func (s *SwapService) Swap(ctx context.Context, req SwapRequest) (*TransactionResponse, error) {
	var resp *TransactionResponse
	err := withConflictRetry(ctx, s.scope, func(repos TransactionalRepositories) error {
		set1, err := loadOrdered(ctx, repos.Products(), req.Set1)
		if err != nil {
			return err
		}
		set2, err := loadOrdered(ctx, repos.Products(), req.Set2)
		if err != nil {
			return err
		}
		if err = ledger.SwapEligibility(set1, set2); err != nil {
			return err
		}

		tx, err := ledger.NewTransaction(ledger.TypeSwap, req.StoreID, req.StaffID, req.OccurredAt)
		if err != nil {
			return err
		}

		for i := range set1 {
			a, b := set1[i], set2[i]
			priceA, err := pinnedOrLastPrice(ctx, repos.Ledger(), a)
			if err != nil {
				return err
			}
			priceB, err := pinnedOrLastPrice(ctx, repos.Ledger(), b)
			if err != nil {
				return err
			}

			// b steps into a's role at a's pinned price, and vice versa.
			if _, err = tx.AddSwappedItem(b.ID, a.ID, priceA); err != nil {
				return err
			}
			if _, err = tx.AddSwappedItem(a.ID, b.ID, priceB); err != nil {
				return err
			}

			statusA, statusB := a.Status, b.Status
			err = repos.Products().ApplyTransition(ctx, a.ID, statusA, statusB, inventory.TransitionFlags{})
			if err != nil {
				return err
			}
			err = repos.Products().ApplyTransition(ctx, b.ID, statusB, statusA, inventory.TransitionFlags{})
			if err != nil {
				return err
			}
		}

		if err = repos.Ledger().Append(ctx, tx); err != nil {
			return err
		}
		resp = ToTransactionResponse(tx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// loadOrdered loads products preserving the request order. Every id must
// resolve to a unit.
func loadOrdered(ctx context.Context, products inventory.ProductRepository, ids []uuid.UUID) ([]*inventory.Product, error) {
	if len(ids) == 0 {
		return nil, shared.NewValidationError("EMPTY_SWAP_SET", "Both swap sets must contain at least one product")
	}
	found, err := products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*inventory.Product, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}
	out := make([]*inventory.Product, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, shared.NewNotFoundError("PRODUCT_NOT_FOUND", "Product "+id.String()+" does not exist")
		}
		out = append(out, p)
	}
	return out, nil
}
