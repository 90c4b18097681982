package workflow

import (
	"context"

	"github.com/goldshop/backend/internal/domain/inventory"
	"github.com/goldshop/backend/internal/domain/ledger"
	"github.com/goldshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ManufacturerService drives the manufacturer side of the lifecycle: placing
// orders, receiving arrivals, and selling units back. Ordering an existing
// unit never changes a Sold reservation; the order rides along on the
// is_ordered flag so the customer's deposit keeps its claim.
type ManufacturerService struct {
	scope TransactionScope
}

// NewManufacturerService creates a manufacturer service on the given scope.
func NewManufacturerService(scope TransactionScope) *ManufacturerService {
	return &ManufacturerService{scope: scope}
}

// CreateOrder places a manufacturer order. A line naming an existing unit
// orders that specific piece (quantity is fixed at one); a line without a
// product id mints Quantity fresh units in OrderedFromManufacturer.
func (s *ManufacturerService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*TransactionResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewValidationError("EMPTY_ITEMS", "A manufacturer order must contain at least one item")
	}
	for _, in := range req.Items {
		if in.Price.IsNegative() {
			return nil, shared.NewValidationError("INVALID_PRICE", "Item price cannot be negative")
		}
		if in.ProductID != nil && in.Quantity != 1 {
			return nil, shared.NewValidationError("INVALID_QUANTITY",
				"An existing unit is ordered individually; quantity must be 1")
		}
		if in.ProductID == nil && in.Quantity < 1 {
			return nil, shared.NewValidationError("INVALID_QUANTITY", "Quantity must be at least 1")
		}
	}

	existing := make([]uuid.UUID, 0, len(req.Items))
	for _, in := range req.Items {
		if in.ProductID != nil {
			existing = append(existing, *in.ProductID)
		}
	}

	var resp *TransactionResponse
	err := withConflictRetry(ctx, s.scope, func(repos TransactionalRepositories) error {
		tx, err := ledger.NewTransaction(ledger.TypeManufacturerOrder, req.StoreID, req.StaffID, req.OccurredAt)
		if err != nil {
			return err
		}
		tx.Code = req.Code

		depositOrigin := map[uuid.UUID]bool{}
		if len(existing) > 0 {
			depositOrigin, err = repos.Ledger().FindDepositOriginProducts(ctx, existing)
			if err != nil {
				return err
			}
		}

		for _, in := range req.Items {
			if in.ProductID == nil {
				for i := 0; i < in.Quantity; i++ {
					p, err := inventory.NewOrderedProduct(req.StoreID, in.ProductType, in.Price)
					if err != nil {
						return err
					}
					if err = repos.Products().Create(ctx, p); err != nil {
						return err
					}
					if _, err = tx.AddItem(p.ID, in.Price); err != nil {
						return err
					}
				}
				continue
			}

			p, err := repos.Products().FindByID(ctx, *in.ProductID)
			if err != nil {
				return err
			}
			if elig := ledger.PendingManufacturerEligibility(p, depositOrigin[p.ID]); !elig.Eligible {
				return elig.Err("Product " + p.ID.String() + " cannot be ordered from the manufacturer")
			}

			// A Sold unit keeps its reservation; an Available unit moves
			// into the ordered status outright.
			target := p.Status
			switch p.Status {
			case inventory.StatusAvailable:
				target = inventory.StatusOrderedFromManufacturer
			case inventory.StatusSold:
				// status unchanged
			default:
				return shared.NewEligibilityError("NOT_ORDERABLE",
					"Product "+p.ID.String()+" is "+p.Status.String()+" and cannot be ordered")
			}
			err = repos.Products().ApplyTransition(ctx, p.ID, p.Status, target,
				inventory.MarkOrdered().WithLastPrice(in.Price))
			if err != nil {
				return err
			}
			if _, err = tx.AddItem(p.ID, in.Price); err != nil {
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

// Receive records units of a manufacturer order arriving at the shop. The
// unit's status is untouched; the arrival rides on the is_delivered flag and
// the received price is cached on the unit.
func (s *ManufacturerService) Receive(ctx context.Context, req ReceiveRequest) (*TransactionResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewValidationError("EMPTY_ITEMS", "A receive must contain at least one item")
	}

	var resp *TransactionResponse
	err := withConflictRetry(ctx, s.scope, func(repos TransactionalRepositories) error {
		order, err := s.manufacturerOrder(ctx, repos, req.OrderID)
		if err != nil {
			return err
		}

		tx, err := ledger.NewTransaction(ledger.TypeManufacturerReceive, order.StoreID, req.StaffID, req.OccurredAt)
		if err != nil {
			return err
		}

		for _, in := range req.Items {
			if in.Price.IsNegative() {
				return shared.NewValidationError("INVALID_PRICE", "Item price cannot be negative")
			}
			if !order.HasProduct(in.ProductID) {
				return shared.NewEligibilityError(ledger.ReasonNotInOrder,
					"Product "+in.ProductID.String()+" is not part of this order")
			}
			p, err := repos.Products().FindByID(ctx, in.ProductID)
			if err != nil {
				return err
			}
			if elig := ledger.ReceiveEligibility(p); !elig.Eligible {
				return elig.Err("Product " + p.ID.String() + " cannot be received")
			}
			err = repos.Products().ApplyTransition(ctx, p.ID, p.Status, p.Status,
				inventory.MarkDelivered().WithLastPrice(in.Price))
			if err != nil {
				return err
			}
			if _, err = tx.AddItem(p.ID, in.Price); err != nil {
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

// SellBack returns units of a manufacturer order to the manufacturer. The
// units enter the terminal SoldBackToManufacturer status; any open deposit
// still holding an affected unit closes as SoldBack.
func (s *ManufacturerService) SellBack(ctx context.Context, req SellBackRequest) (*TransactionResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewValidationError("EMPTY_ITEMS", "A sell-back must contain at least one item")
	}

	var resp *TransactionResponse
	err := withConflictRetry(ctx, s.scope, func(repos TransactionalRepositories) error {
		order, err := s.manufacturerOrder(ctx, repos, req.OrderID)
		if err != nil {
			return err
		}

		tx, err := ledger.NewTransaction(ledger.TypeSellBack, order.StoreID, req.StaffID, req.OccurredAt)
		if err != nil {
			return err
		}

		affected := make([]uuid.UUID, 0, len(req.Items))
		for _, in := range req.Items {
			if in.Price.IsNegative() {
				return shared.NewValidationError("INVALID_PRICE", "Item price cannot be negative")
			}
			p, err := repos.Products().FindByID(ctx, in.ProductID)
			if err != nil {
				return err
			}
			if elig := ledger.SellBackEligibility(p, order); !elig.Eligible {
				return elig.Err("Product " + p.ID.String() + " cannot be sold back")
			}
			err = repos.Products().ApplyTransition(ctx, p.ID,
				p.Status, inventory.StatusSoldBackToManufacturer,
				inventory.TransitionFlags{}.WithLastPrice(in.Price))
			if err != nil {
				return err
			}
			if _, err = tx.AddItem(p.ID, in.Price); err != nil {
				return err
			}
			affected = append(affected, p.ID)
		}

		if err = repos.Ledger().Append(ctx, tx); err != nil {
			return err
		}
		if err = s.closeAffectedDeposits(ctx, repos, affected); err != nil {
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

// closeAffectedDeposits closes every open deposit whose current units include
// one of the sold-back products.
func (s *ManufacturerService) closeAffectedDeposits(ctx context.Context, repos TransactionalRepositories, productIDs []uuid.UUID) error {
	closed := make(map[uuid.UUID]struct{})
	for _, id := range productIDs {
		deposit, err := OwningOpenDeposit(ctx, repos.Ledger(), id)
		if shared.IsNotFound(err) {
			continue
		}
		if err != nil {
			return err
		}
		if _, done := closed[deposit.ID]; done {
			continue
		}
		if err = repos.Ledger().ProgressOrderStatus(ctx, deposit.ID, ledger.OrderStatusSoldBack); err != nil {
			return err
		}
		closed[deposit.ID] = struct{}{}
	}
	return nil
}

func (s *ManufacturerService) manufacturerOrder(ctx context.Context, repos TransactionalRepositories, id uuid.UUID) (*ledger.Transaction, error) {
	order, err := repos.Ledger().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Type != ledger.TypeManufacturerOrder {
		return nil, shared.NewValidationError("NOT_AN_ORDER", "Transaction "+id.String()+" is not a manufacturer order")
	}
	return order, nil
}
