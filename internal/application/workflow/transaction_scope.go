package workflow

import (
	"context"

	"github.com/goldshop/backend/internal/domain/inventory"
	"github.com/goldshop/backend/internal/domain/ledger"
)

// TransactionScope provides transactional access to the inventory store and
// the ledger. A workflow operation runs entirely inside one scope execution:
// the ledger append and every product transition commit or roll back as one
// unit.
type TransactionScope interface {
	// Execute runs the given function within a storage transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to both repositories within a
// transaction. Repositories returned here share one underlying storage
// transaction.
type TransactionalRepositories interface {
	// Products returns the inventory store scoped to the current transaction
	Products() inventory.ProductRepository
	// Ledger returns the transaction ledger scoped to the current transaction
	Ledger() ledger.TransactionRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for tests or backends that are atomic by themselves.
type NoOpTransactionScope struct {
	products inventory.ProductRepository
	txs      ledger.TransactionRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(products inventory.ProductRepository, txs ledger.TransactionRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{products: products, txs: txs}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Products returns the product repository.
func (s *NoOpTransactionScope) Products() inventory.ProductRepository {
	return s.products
}

// Ledger returns the transaction repository.
func (s *NoOpTransactionScope) Ledger() ledger.TransactionRepository {
	return s.txs
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
