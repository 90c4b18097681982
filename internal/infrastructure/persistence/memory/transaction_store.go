package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goldshop/backend/internal/domain/ledger"
	"github.com/goldshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStore is a mutex-guarded in-memory ledger. Appends are atomic
// with their items and the sequence is monotonic, matching the SQL store's
// contract closely enough for workflow tests.
type TransactionStore struct {
	mu  sync.RWMutex
	txs map[uuid.UUID]*ledger.Transaction
	seq int64
}

// NewTransactionStore creates an empty in-memory ledger.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{txs: make(map[uuid.UUID]*ledger.Transaction)}
}

// FindByID returns a copy of the transaction with its items.
func (s *TransactionStore) FindByID(_ context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.txs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneTransaction(t), nil
}

// Append writes the transaction and assigns the next sequence.
func (s *TransactionStore) Append(_ context.Context, t *ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.txs[t.ID]; exists {
		return shared.NewValidationError("DUPLICATE_TRANSACTION", "Transaction already exists")
	}
	s.seq++
	t.Seq = s.seq
	s.txs[t.ID] = cloneTransaction(t)
	return nil
}

// Query returns matching transactions ordered by occurred_at asc, seq asc.
func (s *TransactionStore) Query(_ context.Context, filter ledger.QueryFilter) ([]ledger.Transaction, error) {
	s.mu.RLock()
	matched := s.match(filter)
	s.mu.RUnlock()

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []ledger.Transaction{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// Stream walks matching transactions in stable order.
func (s *TransactionStore) Stream(_ context.Context, filter ledger.QueryFilter, fn func(*ledger.Transaction) error) error {
	s.mu.RLock()
	matched := s.match(filter)
	s.mu.RUnlock()
	for i := range matched {
		if err := fn(&matched[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *TransactionStore) match(filter ledger.QueryFilter) []ledger.Transaction {
	out := make([]ledger.Transaction, 0, len(s.txs))
	for _, t := range s.txs {
		if filter.From != nil && t.OccurredAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !t.OccurredAt.Before(*filter.To) {
			continue
		}
		if filter.Type != nil && t.Type != *filter.Type {
			continue
		}
		if filter.CustomerID != nil && (t.CustomerID == nil || *t.CustomerID != *filter.CustomerID) {
			continue
		}
		if filter.StoreID != nil && t.StoreID != *filter.StoreID {
			continue
		}
		out = append(out, *cloneTransaction(t))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].Seq < out[j].Seq
		}
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	return out
}

// ProgressOrderStatus closes an open deposit with a compare-and-swap on the
// nil order status.
func (s *TransactionStore) ProgressOrderStatus(_ context.Context, id uuid.UUID, status ledger.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok {
		return shared.ErrNotFound
	}
	if t.Type != ledger.TypeDeposit {
		return shared.NewValidationError("NOT_A_DEPOSIT", "Order status applies only to deposits")
	}
	if !status.IsValid() {
		return shared.NewValidationError("INVALID_ORDER_STATUS", "Unknown order status: "+status.String())
	}
	if t.OrderStatus != nil {
		return shared.ErrConflict
	}
	v := status
	t.OrderStatus = &v
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
	return nil
}

// Amend applies the administrative re-date / re-code correction.
func (s *TransactionStore) Amend(_ context.Context, id uuid.UUID, code string, occurredAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok {
		return shared.ErrNotFound
	}
	return t.Amend(code, occurredAt)
}

// FindSwapLinksByOriginals returns swap links whose original product is one of ids.
func (s *TransactionStore) FindSwapLinksByOriginals(_ context.Context, ids []uuid.UUID) ([]ledger.SwapLink, error) {
	return s.swapLinks(func(item *ledger.TransactionItem) bool {
		return containsID(ids, *item.OriginalProductID)
	}), nil
}

// FindSwapLinksByProducts returns swap links whose product is one of ids.
func (s *TransactionStore) FindSwapLinksByProducts(_ context.Context, ids []uuid.UUID) ([]ledger.SwapLink, error) {
	return s.swapLinks(func(item *ledger.TransactionItem) bool {
		return containsID(ids, item.ProductID)
	}), nil
}

func (s *TransactionStore) swapLinks(match func(*ledger.TransactionItem) bool) []ledger.SwapLink {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ledger.SwapLink
	for _, t := range s.txs {
		if t.Type != ledger.TypeSwap {
			continue
		}
		for i := range t.Items {
			item := &t.Items[i]
			if !item.Swapped || item.OriginalProductID == nil {
				continue
			}
			if match(item) {
				out = append(out, ledger.SwapLink{
					ProductID:         item.ProductID,
					OriginalProductID: *item.OriginalProductID,
					Seq:               t.Seq,
				})
			}
		}
	}
	return out
}

// FindOpenDepositByProduct returns the open deposit directly pinning productID.
func (s *TransactionStore) FindOpenDepositByProduct(_ context.Context, productID uuid.UUID) (*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.txs {
		if t.Type == ledger.TypeDeposit && t.OrderStatus == nil && t.HasProduct(productID) {
			return cloneTransaction(t), nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindDepositOriginProducts filters ids down to those whose first ledger
// appearance is a deposit item.
func (s *TransactionStore) FindDepositOriginProducts(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	s.mu.RLock()
	ordered := s.match(ledger.QueryFilter{})
	s.mu.RUnlock()

	out := make(map[uuid.UUID]bool, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for i := range ordered {
		t := &ordered[i]
		for j := range t.Items {
			id := t.Items[j].ProductID
			if !containsID(ids, id) || seen[id] {
				continue
			}
			seen[id] = true
			out[id] = t.Type == ledger.TypeDeposit
		}
	}
	return out, nil
}

// LatestPinnedPrice returns the price of the product's most recent
// ownership-pinning item. Manufacturer and payout entries are skipped.
func (s *TransactionStore) LatestPinnedPrice(_ context.Context, productID uuid.UUID) (decimal.Decimal, bool, error) {
	s.mu.RLock()
	ordered := s.match(ledger.QueryFilter{})
	s.mu.RUnlock()

	price := decimal.Zero
	found := false
	for i := range ordered {
		if !ordered[i].Type.PinsOwnership() {
			continue
		}
		if item := ordered[i].ItemFor(productID); item != nil {
			price = item.PriceAtTime
			found = true
		}
	}
	return price, found, nil
}

func cloneTransaction(t *ledger.Transaction) *ledger.Transaction {
	clone := *t
	if t.OrderStatus != nil {
		v := *t.OrderStatus
		clone.OrderStatus = &v
	}
	if t.CustomerID != nil {
		v := *t.CustomerID
		clone.CustomerID = &v
	}
	clone.Items = make([]ledger.TransactionItem, len(t.Items))
	copy(clone.Items, t.Items)
	for i := range clone.Items {
		if orig := t.Items[i].OriginalProductID; orig != nil {
			v := *orig
			clone.Items[i].OriginalProductID = &v
		}
	}
	return &clone
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

var _ ledger.TransactionRepository = (*TransactionStore)(nil)
