package report

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/goldshop/backend/internal/application/workflow"
	"github.com/goldshop/backend/internal/domain/inventory"
	"github.com/goldshop/backend/internal/domain/ledger"
	"github.com/goldshop/backend/internal/domain/shared"
	"github.com/goldshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	replaySnapshotKey = "report:replay-snapshot"
	replaySnapshotTTL = 30 * time.Second
	auditPageSize     = 500
)

// Service answers the read side: financial reports, ledger queries, the
// pending-manufacturer worklist, and the stored-versus-derived status audit.
// Everything here is a pure fold over the ledger; nothing is mutated.
type Service struct {
	products    inventory.ProductRepository
	txs         ledger.TransactionRepository
	cache       shared.SnapshotCache
	logger      *zap.Logger
	snapshotTTL time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithSnapshotTTL overrides how long a replayed ledger snapshot stays fresh.
func WithSnapshotTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.snapshotTTL = ttl
		}
	}
}

// NewService creates a report service. The cache holds the replayed ledger
// snapshot between audits; cache failures degrade to recomputation.
func NewService(products inventory.ProductRepository, txs ledger.TransactionRepository, cache shared.SnapshotCache, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		products:    products,
		txs:         txs,
		cache:       cache,
		logger:      logger,
		snapshotTTL: replaySnapshotTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FinancialStats folds the period's ledger into totals, per-type breakdowns
// and a per-day cash flow. The fold streams in stable ledger order, so the
// same period always yields the same report.
func (s *Service) FinancialStats(ctx context.Context, filter PeriodFilter) (*FinancialStatsResponse, error) {
	resp := &FinancialStatsResponse{ByType: make(map[ledger.TransactionType]TypeBreakdown)}
	moneyIn, moneyOut := decimal.Zero, decimal.Zero
	typeTotals := make(map[ledger.TransactionType]decimal.Decimal)
	type dayFlow struct{ in, out decimal.Decimal }
	daily := make(map[string]*dayFlow)

	q := ledger.QueryFilter{From: filter.From, To: filter.To, StoreID: filter.StoreID}
	err := s.txs.Stream(ctx, q, func(t *ledger.Transaction) error {
		resp.TransactionCount++

		in, out := t.CashFlow()
		moneyIn = moneyIn.Add(in)
		moneyOut = moneyOut.Add(out)
		if t.Type == ledger.TypeFulfillment && t.Forced {
			resp.ForcedFulfillments++
		}

		bt := resp.ByType[t.Type]
		bt.Count++
		resp.ByType[t.Type] = bt
		typeTotals[t.Type] = typeTotals[t.Type].Add(t.TotalAmount())

		day := t.OccurredAt.UTC().Format("2006-01-02")
		d, ok := daily[day]
		if !ok {
			d = &dayFlow{in: decimal.Zero, out: decimal.Zero}
			daily[day] = d
		}
		d.in = d.in.Add(in)
		d.out = d.out.Add(out)
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp.MoneyIn = valueobject.NewMoneyVND(moneyIn)
	resp.MoneyOut = valueobject.NewMoneyVND(moneyOut)
	resp.Net = valueobject.NewMoneyVND(moneyIn.Sub(moneyOut))
	for txType, bt := range resp.ByType {
		bt.Total = valueobject.NewMoneyVND(typeTotals[txType])
		resp.ByType[txType] = bt
	}

	days := make([]string, 0, len(daily))
	for day := range daily {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		d := daily[day]
		resp.Daily = append(resp.Daily, DailyCashFlow{
			Date:     day,
			MoneyIn:  valueobject.NewMoneyVND(d.in),
			MoneyOut: valueobject.NewMoneyVND(d.out),
			Net:      valueobject.NewMoneyVND(d.in.Sub(d.out)),
		})
	}
	return resp, nil
}

// ListTransactions returns ledger entries matching the filter in stable
// business order.
func (s *Service) ListTransactions(ctx context.Context, filter ledger.QueryFilter) ([]*workflow.TransactionResponse, error) {
	txs, err := s.txs.Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]*workflow.TransactionResponse, 0, len(txs))
	for i := range txs {
		out = append(out, workflow.ToTransactionResponse(&txs[i]))
	}
	return out, nil
}

// GetTransaction returns a single ledger entry.
func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID) (*workflow.TransactionResponse, error) {
	t, err := s.txs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return workflow.ToTransactionResponse(t), nil
}

// ProductHistory returns every ledger entry that pins the product, oldest
// first. This is the provenance trail behind the unit's current status.
func (s *Service) ProductHistory(ctx context.Context, productID uuid.UUID) ([]*workflow.TransactionResponse, error) {
	var out []*workflow.TransactionResponse
	err := s.txs.Stream(ctx, ledger.QueryFilter{}, func(t *ledger.Transaction) error {
		if t.HasProduct(productID) {
			out = append(out, workflow.ToTransactionResponse(t))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListProducts returns a page of inventory units.
func (s *Service) ListProducts(ctx context.Context, filter shared.Filter) (*shared.Paginated[ProductResponse], error) {
	items, err := s.products.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.products.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]ProductResponse, 0, len(items))
	for i := range items {
		out = append(out, *ToProductResponse(&items[i]))
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.PageSize)
	return &page, nil
}

// PendingManufacturer returns deposit-created units that still lack a
// manufacturer order. This is the shop's to-order worklist.
func (s *Service) PendingManufacturer(ctx context.Context) ([]*ProductResponse, error) {
	candidates, err := s.products.FindPendingManufacturer(ctx)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []*ProductResponse{}, nil
	}

	ids := make([]uuid.UUID, 0, len(candidates))
	for i := range candidates {
		ids = append(ids, candidates[i].ID)
	}
	depositOrigin, err := s.txs.FindDepositOriginProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*ProductResponse, 0, len(candidates))
	for i := range candidates {
		p := &candidates[i]
		if elig := ledger.PendingManufacturerEligibility(p, depositOrigin[p.ID]); elig.Eligible {
			out = append(out, ToProductResponse(p))
		}
	}
	return out, nil
}

// VerifyProduct compares a unit's stored state with the state derived by
// replaying its ledger history.
func (s *Service) VerifyProduct(ctx context.Context, productID uuid.UUID) (*StatusProvenanceResponse, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	states, err := s.derivedStates(ctx)
	if err != nil {
		return nil, err
	}
	return s.provenance(p, states[p.ID]), nil
}

// VerifyInventory sweeps the whole inventory against the replayed ledger and
// reports every drifted unit. A non-empty drift list means some workflow
// operation wrote a status the ledger cannot explain.
func (s *Service) VerifyInventory(ctx context.Context) (*InventoryAuditResponse, error) {
	states, err := s.derivedStates(ctx)
	if err != nil {
		return nil, err
	}

	resp := &InventoryAuditResponse{Drifted: []StatusProvenanceResponse{}}
	filter := shared.DefaultFilter()
	filter.PageSize = auditPageSize
	filter.OrderBy = "created_at"
	filter.OrderDir = "asc"
	for page := 1; ; page++ {
		filter.Page = page
		items, err := s.products.FindAll(ctx, filter)
		if err != nil {
			return nil, err
		}
		for i := range items {
			p := &items[i]
			resp.Checked++
			if prov := s.provenance(p, states[p.ID]); !prov.Consistent {
				resp.Drifted = append(resp.Drifted, *prov)
			}
		}
		if len(items) < auditPageSize {
			break
		}
	}
	return resp, nil
}

func (s *Service) provenance(p *inventory.Product, derived ledger.DerivedState) *StatusProvenanceResponse {
	prov := &StatusProvenanceResponse{
		ProductID: p.ID,
		Stored: ProductStateView{
			Status:      p.Status,
			IsOrdered:   p.IsOrdered,
			IsDelivered: p.IsDelivered,
			LastPrice:   p.LastPrice,
		},
		Derived: ProductStateView{
			Status:      derived.Status,
			IsOrdered:   derived.IsOrdered,
			IsDelivered: derived.IsDelivered,
			LastPrice:   derived.LastPrice,
		},
		HasHistory: derived.Exists,
	}
	prov.Consistent = derived.Exists &&
		prov.Stored.Status == prov.Derived.Status &&
		prov.Stored.IsOrdered == prov.Derived.IsOrdered &&
		prov.Stored.IsDelivered == prov.Derived.IsDelivered &&
		prov.Stored.LastPrice.Equal(prov.Derived.LastPrice)
	return prov
}

// derivedStates returns the replayed ledger projection, reusing a cached
// snapshot when one is fresh. Cache failures are logged and fall through to
// recomputation.
func (s *Service) derivedStates(ctx context.Context) (map[uuid.UUID]ledger.DerivedState, error) {
	if s.cache != nil {
		if data, found, err := s.cache.Get(ctx, replaySnapshotKey); err != nil {
			s.logger.Warn("replay snapshot cache read failed", zap.Error(err))
		} else if found {
			var states map[uuid.UUID]ledger.DerivedState
			if err := json.Unmarshal(data, &states); err == nil {
				return states, nil
			}
			s.logger.Warn("discarding undecodable replay snapshot")
		}
	}

	txs, err := s.txs.Query(ctx, ledger.QueryFilter{})
	if err != nil {
		return nil, err
	}
	states := ledger.Replay(txs)

	if s.cache != nil {
		if data, err := json.Marshal(states); err == nil {
			if err := s.cache.Set(ctx, replaySnapshotKey, data, s.snapshotTTL); err != nil {
				s.logger.Warn("replay snapshot cache write failed", zap.Error(err))
			}
		}
	}
	return states, nil
}
