package workflow

import (
	"context"

	"github.com/goldshop/backend/internal/domain/inventory"
	"github.com/goldshop/backend/internal/domain/ledger"
	"github.com/goldshop/backend/internal/domain/shared"
	"github.com/goldshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositService drives the customer-facing deposit lifecycle: opening a
// deposit, buying units back, and handing units over. Every operation runs in
// one transaction scope and re-validates eligibility against fresh state; the
// store's compare-and-swap transition is the only concurrency guard.
type DepositService struct {
	scope TransactionScope
}

// NewDepositService creates a deposit service on the given scope.
func NewDepositService(scope TransactionScope) *DepositService {
	return &DepositService{scope: scope}
}

// CreateDeposit opens a deposit over the requested units. Existing units must
// be Available and move to Sold; items without a product id mint a new unit on
// the spot. The payment split must match the item total exactly.
func (s *DepositService) CreateDeposit(ctx context.Context, req CreateDepositRequest) (*TransactionResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewValidationError("EMPTY_ITEMS", "A deposit must contain at least one item")
	}
	total := decimal.Zero
	for _, in := range req.Items {
		if in.Price.IsNegative() {
			return nil, shared.NewValidationError("INVALID_PRICE", "Item price cannot be negative")
		}
		total = total.Add(in.Price)
	}
	split, err := valueobject.NewPaymentSplit(req.Payment.Method, req.Payment.Cash, req.Payment.Bank, total)
	if err != nil {
		return nil, shared.NewValidationError("INVALID_PAYMENT_SPLIT", err.Error())
	}

	var resp *TransactionResponse
	err = withConflictRetry(ctx, s.scope, func(repos TransactionalRepositories) error {
		tx, err := ledger.NewDeposit(req.StoreID, req.CustomerID, req.StaffID, req.Code, req.OccurredAt, split)
		if err != nil {
			return err
		}

		for _, in := range req.Items {
			var p *inventory.Product
			if in.ProductID != nil {
				p, err = repos.Products().FindByID(ctx, *in.ProductID)
				if err != nil {
					return err
				}
				if p.Status != inventory.StatusAvailable {
					return shared.NewEligibilityError("NOT_AVAILABLE",
						"Product "+p.ID.String()+" is not available for deposit")
				}
			} else {
				p, err = inventory.NewProduct(req.StoreID, in.ProductType, in.Price)
				if err != nil {
					return err
				}
				if err = repos.Products().Create(ctx, p); err != nil {
					return err
				}
			}

			err = repos.Products().ApplyTransition(ctx, p.ID,
				inventory.StatusAvailable, inventory.StatusSold,
				inventory.TransitionFlags{}.WithLastPrice(in.Price))
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

// Buyback buys deposited units back from the customer at freshly negotiated
// prices. The units return to Available and the deposit closes as BoughtBack.
func (s *DepositService) Buyback(ctx context.Context, req BuybackRequest) (*TransactionResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewValidationError("EMPTY_ITEMS", "A buyback must contain at least one item")
	}

	var resp *TransactionResponse
	err := withConflictRetry(ctx, s.scope, func(repos TransactionalRepositories) error {
		deposit, err := s.openDeposit(ctx, repos, req.DepositID)
		if err != nil {
			return err
		}
		units, err := CurrentDepositUnits(ctx, repos.Ledger(), deposit)
		if err != nil {
			return err
		}

		tx, err := ledger.NewTransaction(ledger.TypeBuyback, deposit.StoreID, req.StaffID, req.OccurredAt)
		if err != nil {
			return err
		}
		tx.CustomerID = deposit.CustomerID

		for _, in := range req.Items {
			if in.Price.IsNegative() {
				return shared.NewValidationError("INVALID_PRICE", "Item price cannot be negative")
			}
			p, err := repos.Products().FindByID(ctx, in.ProductID)
			if err != nil {
				return err
			}
			if elig := ledger.BuybackEligibility(p, deposit, units); !elig.Eligible {
				return elig.Err("Product " + p.ID.String() + " cannot be bought back")
			}
			err = repos.Products().ApplyTransition(ctx, p.ID,
				inventory.StatusSold, inventory.StatusAvailable,
				inventory.TransitionFlags{}.WithLastPrice(in.Price))
			if err != nil {
				return err
			}
			if _, err = tx.AddItem(in.ProductID, in.Price); err != nil {
				return err
			}
		}

		if err = repos.Ledger().Append(ctx, tx); err != nil {
			return err
		}
		if err = repos.Ledger().ProgressOrderStatus(ctx, deposit.ID, ledger.OrderStatusBoughtBack); err != nil {
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

// Fulfill hands deposited units over to the customer. Units still outstanding
// at the manufacturer block the handover unless Force is set; a forced
// handover is recorded on the ledger entry. Prices are the deposit-pinned
// prices, never re-read from the units.
func (s *DepositService) Fulfill(ctx context.Context, req FulfillmentRequest) (*TransactionResponse, error) {
	if len(req.ProductIDs) == 0 {
		return nil, shared.NewValidationError("EMPTY_ITEMS", "A fulfillment must name at least one product")
	}

	var resp *TransactionResponse
	err := withConflictRetry(ctx, s.scope, func(repos TransactionalRepositories) error {
		deposit, err := s.openDeposit(ctx, repos, req.DepositID)
		if err != nil {
			return err
		}
		units, err := CurrentDepositUnits(ctx, repos.Ledger(), deposit)
		if err != nil {
			return err
		}

		tx, err := ledger.NewTransaction(ledger.TypeFulfillment, deposit.StoreID, req.StaffID, req.OccurredAt)
		if err != nil {
			return err
		}
		tx.CustomerID = deposit.CustomerID

		forced := false
		for _, id := range req.ProductIDs {
			p, err := repos.Products().FindByID(ctx, id)
			if err != nil {
				return err
			}
			if elig := ledger.FulfillmentEligibility(p, deposit, units); !elig.Eligible {
				return elig.Err("Product " + p.ID.String() + " cannot be fulfilled")
			}
			if p.IsOrdered && !p.IsDelivered {
				if !req.Force {
					return shared.NewEligibilityError("UNDELIVERED_ITEMS",
						"Product "+p.ID.String()+" has not arrived from the manufacturer")
				}
				forced = true
			}

			price, err := pinnedOrLastPrice(ctx, repos.Ledger(), p)
			if err != nil {
				return err
			}
			err = repos.Products().ApplyTransition(ctx, p.ID,
				inventory.StatusSold, inventory.StatusDelivered, inventory.TransitionFlags{})
			if err != nil {
				return err
			}
			if _, err = tx.AddItem(p.ID, price); err != nil {
				return err
			}
		}
		tx.Forced = forced

		if err = repos.Ledger().Append(ctx, tx); err != nil {
			return err
		}
		if err = repos.Ledger().ProgressOrderStatus(ctx, deposit.ID, ledger.OrderStatusDelivered); err != nil {
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

// Amend applies the administrative re-date / re-code correction to a deposit
// or manufacturer order. Items and amounts are never touched.
func (s *DepositService) Amend(ctx context.Context, req AmendRequest) (*TransactionResponse, error) {
	var resp *TransactionResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		tx, err := repos.Ledger().FindByID(ctx, req.TransactionID)
		if err != nil {
			return err
		}
		if err = tx.Amend(req.Code, req.OccurredAt); err != nil {
			return err
		}
		if err = repos.Ledger().Amend(ctx, tx.ID, req.Code, req.OccurredAt); err != nil {
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

func (s *DepositService) openDeposit(ctx context.Context, repos TransactionalRepositories, id uuid.UUID) (*ledger.Transaction, error) {
	deposit, err := repos.Ledger().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if deposit.Type != ledger.TypeDeposit {
		return nil, shared.NewValidationError("NOT_A_DEPOSIT", "Transaction "+id.String()+" is not a deposit")
	}
	if !deposit.IsOpen() {
		return nil, shared.NewEligibilityError(ledger.ReasonDepositClosed,
			"Deposit already closed with status "+deposit.OrderStatus.String())
	}
	return deposit, nil
}
