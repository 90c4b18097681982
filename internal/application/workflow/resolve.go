package workflow

import (
	"context"
	"math"

	"github.com/goldshop/backend/internal/domain/inventory"
	"github.com/goldshop/backend/internal/domain/ledger"
	"github.com/goldshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CurrentDepositUnits resolves which physical units currently back a deposit.
// Each pinned product is walked forward through the swap links recorded after
// the deposit: whenever a later swap put another unit in its place, that unit
// takes over. The walk is anchored on the ledger sequence so a unit swapped
// out and later swapped back in resolves correctly.
func CurrentDepositUnits(ctx context.Context, txs ledger.TransactionRepository, deposit *ledger.Transaction) (ledger.ProductSet, error) {
	units := make(ledger.ProductSet, len(deposit.Items))
	for i := range deposit.Items {
		current, err := walkForward(ctx, txs, deposit.Items[i].ProductID, deposit.Seq)
		if err != nil {
			return nil, err
		}
		units[current] = struct{}{}
	}
	return units, nil
}

func walkForward(ctx context.Context, txs ledger.TransactionRepository, start uuid.UUID, afterSeq int64) (uuid.UUID, error) {
	current := start
	bound := afterSeq
	for {
		links, err := txs.FindSwapLinksByOriginals(ctx, []uuid.UUID{current})
		if err != nil {
			return uuid.Nil, err
		}
		next, ok := earliestAfter(links, bound)
		if !ok {
			return current, nil
		}
		current = next.ProductID
		bound = next.Seq
	}
}

// DepositAncestor walks a unit backward through the swap links to the product
// a deposit originally pinned. Returns the unit itself when it was never
// swapped in.
func DepositAncestor(ctx context.Context, txs ledger.TransactionRepository, productID uuid.UUID) (uuid.UUID, error) {
	current := productID
	bound := int64(math.MaxInt64)
	for {
		links, err := txs.FindSwapLinksByProducts(ctx, []uuid.UUID{current})
		if err != nil {
			return uuid.Nil, err
		}
		prev, ok := latestBefore(links, bound)
		if !ok {
			return current, nil
		}
		current = prev.OriginalProductID
		bound = prev.Seq
	}
}

// OwningOpenDeposit finds the open deposit a unit currently backs, following
// swap chains backward to the originally pinned product. Returns
// shared.ErrNotFound when no open deposit holds the unit.
func OwningOpenDeposit(ctx context.Context, txs ledger.TransactionRepository, productID uuid.UUID) (*ledger.Transaction, error) {
	ancestor, err := DepositAncestor(ctx, txs, productID)
	if err != nil {
		return nil, err
	}
	deposit, err := txs.FindOpenDepositByProduct(ctx, ancestor)
	if err != nil {
		return nil, err
	}
	if !deposit.IsOpen() {
		return nil, shared.ErrNotFound
	}
	return deposit, nil
}

// pinnedOrLastPrice returns the price the unit is currently held at: the most
// recent deposit- or swap-pinned ledger price, falling back to the cached last
// price for units no agreement has ever pinned.
func pinnedOrLastPrice(ctx context.Context, txs ledger.TransactionRepository, p *inventory.Product) (decimal.Decimal, error) {
	price, found, err := txs.LatestPinnedPrice(ctx, p.ID)
	if err != nil {
		return decimal.Zero, err
	}
	if !found {
		return p.LastPrice, nil
	}
	return price, nil
}

func earliestAfter(links []ledger.SwapLink, bound int64) (ledger.SwapLink, bool) {
	var best ledger.SwapLink
	found := false
	for _, l := range links {
		if l.Seq <= bound {
			continue
		}
		if !found || l.Seq < best.Seq {
			best = l
			found = true
		}
	}
	return best, found
}

func latestBefore(links []ledger.SwapLink, bound int64) (ledger.SwapLink, bool) {
	var best ledger.SwapLink
	found := false
	for _, l := range links {
		if l.Seq >= bound {
			continue
		}
		if !found || l.Seq > best.Seq {
			best = l
			found = true
		}
	}
	return best, found
}
