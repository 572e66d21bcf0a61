package user

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, page, limit int) ([]*User, int64, error)
	Save(ctx context.Context, user *User) error
	// Update persists the balance with optimistic locking on version.
	Update(ctx context.Context, user *User) error
}
