package workflow

import (
	"context"

	"github.com/goldshop/backend/internal/domain/shared"
)

// maxConflictRetries bounds the optimistic retry loop. A lost race rolls the
// whole operation back, so re-running the closure re-reads fresh state; after
// the budget is spent the conflict surfaces to the caller.
const maxConflictRetries = 3

func withConflictRetry(ctx context.Context, scope TransactionScope, fn func(repos TransactionalRepositories) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = scope.Execute(ctx, fn)
		if !shared.IsConflict(err) {
			return err
		}
	}
	return err
}
