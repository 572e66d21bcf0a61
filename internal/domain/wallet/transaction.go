package wallet

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campus-shuttle/service-shuttle/internal/platform/domain"
)

// PaymentMethod is how a recharge is paid for.
type PaymentMethod string

const PaymentMethodUPI PaymentMethod = "UPI"

// IsValid returns true if the payment method is accepted.
func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodUPI
}

// TransactionStatus is the settlement state of a recharge.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// MaxRechargePoints caps a single recharge.
const MaxRechargePoints = 10000

// Transaction is a points recharge awaiting or past settlement.
type Transaction struct {
	id            uuid.UUID
	userID        uuid.UUID
	amount        int
	paymentMethod PaymentMethod
	status        TransactionStatus
	failureReason string
	settledAt     *time.Time
	createdAt     time.Time
	updatedAt     time.Time
}

// NewRecharge creates a pending recharge of amount points.
func NewRecharge(userID uuid.UUID, amount int, method PaymentMethod) (*Transaction, error) {
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user ID is required")
	}
	if amount <= 0 {
		return nil, domain.NewValidationError("recharge amount must be positive")
	}
	if amount > MaxRechargePoints {
		return nil, domain.NewValidationError(fmt.Sprintf("recharge amount must not exceed %d", MaxRechargePoints))
	}
	if !method.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("unsupported payment method: %s", method))
	}

	now := time.Now().UTC()
	return &Transaction{
		id:            uuid.New(),
		userID:        userID,
		amount:        amount,
		paymentMethod: method,
		status:        TransactionPending,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// Reconstruct rebuilds a Transaction from persistence.
func Reconstruct(
	id, userID uuid.UUID,
	amount int,
	method PaymentMethod,
	status TransactionStatus,
	failureReason string,
	settledAt *time.Time,
	createdAt, updatedAt time.Time,
) *Transaction {
	return &Transaction{
		id:            id,
		userID:        userID,
		amount:        amount,
		paymentMethod: method,
		status:        status,
		failureReason: failureReason,
		settledAt:     settledAt,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// Getters.
func (t *Transaction) ID() uuid.UUID { return t.id }
func (t *Transaction) UserID() uuid.UUID { return t.userID }
func (t *Transaction) Amount() int { return t.amount }
func (t *Transaction) PaymentMethod() PaymentMethod { return t.paymentMethod }
func (t *Transaction) Status() TransactionStatus { return t.status }
func (t *Transaction) FailureReason() string { return t.failureReason }
func (t *Transaction) SettledAt() *time.Time { return t.settledAt }
func (t *Transaction) CreatedAt() time.Time { return t.createdAt }
func (t *Transaction) UpdatedAt() time.Time { return t.updatedAt }

// IsPending reports whether the transaction still awaits settlement.
func (t *Transaction) IsPending() bool { return t.status == TransactionPending }

// Complete marks the recharge as paid.
func (t *Transaction) Complete() error {
	if !t.IsPending() {
		return domain.NewInvalidStateError(string(t.status), string(TransactionCompleted))
	}
	now := time.Now().UTC()
	t.status = TransactionCompleted
	t.settledAt = &now
	t.updatedAt = now
	return nil
}

// Fail marks the recharge as declined.
func (t *Transaction) Fail(reason string) error {
	if !t.IsPending() {
		return domain.NewInvalidStateError(string(t.status), string(TransactionFailed))
	}
	now := time.Now().UTC()
	t.status = TransactionFailed
	t.failureReason = reason
	t.settledAt = &now
	t.updatedAt = now
	return nil
}
