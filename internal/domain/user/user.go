package user

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campus-shuttle/service-shuttle/internal/platform/auth"
	"github.com/campus-shuttle/service-shuttle/internal/platform/domain"
)

// Starting balances granted at signup.
const (
	StudentSignupPoints = 500
	AdminSignupPoints   = 1000
)

// User is the aggregate root for a rider or administrator account.
type User struct {
	id           uuid.UUID
	email        string
	fullName     string
	passwordHash string
	role         auth.Role
	points       int
	version      int64
	createdAt    time.Time
	updatedAt    time.Time
}

// NewUser creates an account with the starting balance for its role. The
// password must already be hashed.
func NewUser(email, fullName, passwordHash string, role auth.Role) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.NewValidationError("a valid email is required")
	}
	if passwordHash == "" {
		return nil, domain.NewValidationError("password is required")
	}

	var points int
	switch role {
	case auth.RoleStudent:
		points = StudentSignupPoints
	case auth.RoleAdmin:
		points = AdminSignupPoints
	default:
		return nil, domain.NewValidationError(fmt.Sprintf("invalid role: %s", role))
	}

	now := time.Now().UTC()
	return &User{
		id:           uuid.New(),
		email:        email,
		fullName:     strings.TrimSpace(fullName),
		passwordHash: passwordHash,
		role:         role,
		points:       points,
		version:      1,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct rebuilds a User from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	email, fullName, passwordHash string,
	role auth.Role,
	points int,
	version int64,
	createdAt, updatedAt time.Time,
) *User {
	return &User{
		id:           id,
		email:        email,
		fullName:     fullName,
		passwordHash: passwordHash,
		role:         role,
		points:       points,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// --- Getters ---

func (u *User) ID() uuid.UUID { return u.id }
func (u *User) Email() string { return u.email }
func (u *User) FullName() string { return u.fullName }
func (u *User) PasswordHash() string { return u.passwordHash }
func (u *User) Role() auth.Role { return u.role }
func (u *User) Points() int { return u.points }
func (u *User) Version() int64 { return u.version }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

// --- Behavior ---

// DeductPoints removes n points, failing when the balance is too low.
func (u *User) DeductPoints(n int) error {
	if n < 0 {
		return domain.NewValidationError("points to deduct must not be negative")
	}
	if u.points < n {
		return domain.NewValidationError(fmt.Sprintf("insufficient points: have %d, need %d", u.points, n))
	}
	u.points -= n
	u.touch()
	return nil
}

// CreditPoints adds n points.
func (u *User) CreditPoints(n int) error {
	if n < 0 {
		return domain.NewValidationError("points to credit must not be negative")
	}
	u.points += n
	u.touch()
	return nil
}

// AdjustPoints applies a signed delta without letting the balance go negative.
func (u *User) AdjustPoints(delta int) error {
	if delta < 0 {
		return u.DeductPoints(-delta)
	}
	return u.CreditPoints(delta)
}

// SetPoints overwrites the balance.
func (u *User) SetPoints(n int) error {
	if n < 0 {
		return domain.NewValidationError("points must not be negative")
	}
	u.points = n
	u.touch()
	return nil
}

func (u *User) touch() {
	u.version++
	u.updatedAt = time.Now().UTC()
}
