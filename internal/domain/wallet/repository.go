package wallet

import (
	"context"

	"github.com/google/uuid"
)

// TransactionRepository defines persistence operations for recharges.
type TransactionRepository interface {
	Save(ctx context.Context, tx *Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*Transaction, int64, error)
	// Update persists a settlement. It fails with a conflict if the row was
	// settled concurrently.
	Update(ctx context.Context, tx *Transaction) error
}
