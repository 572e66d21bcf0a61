package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	walletDomain "github.com/campus-shuttle/service-shuttle/internal/domain/wallet"
	"github.com/campus-shuttle/service-shuttle/internal/platform/domain"
)

// TransactionModel is the GORM model for the transactions table.
type TransactionModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	Amount        int        `gorm:"not null"`
	PaymentMethod string     `gorm:"type:varchar(20);not null"`
	Status        string     `gorm:"type:varchar(20);not null;default:'pending'"`
	FailureReason string     `gorm:"type:varchar(500)"`
	SettledAt     *time.Time `gorm:"type:timestamptz"`
	CreatedAt     time.Time  `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt     time.Time  `gorm:"type:timestamptz;not null;default:now()"`
}

func (TransactionModel) TableName() string { return "transactions" }

// GormTransactionRepository implements TransactionRepository using GORM.
type GormTransactionRepository struct {
	db *gorm.DB
}

func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) Save(ctx context.Context, t *walletDomain.Transaction) error {
	if err := conn(ctx, r.db).Create(toTransactionModel(t)).Error; err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}

func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*walletDomain.Transaction, error) {
	var model TransactionModel
	if err := forUpdate(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Transaction", id.String())
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return toTransactionDomain(&model), nil
}

func (r *GormTransactionRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*walletDomain.Transaction, int64, error) {
	var total int64
	if err := conn(ctx, r.db).Model(&TransactionModel{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	var models []TransactionModel
	if err := conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}

	txs := make([]*walletDomain.Transaction, len(models))
	for i := range models {
		txs[i] = toTransactionDomain(&models[i])
	}
	return txs, total, nil
}

// Update settles a pending transaction. Only pending rows are touched.
func (r *GormTransactionRepository) Update(ctx context.Context, t *walletDomain.Transaction) error {
	result := conn(ctx, r.db).
		Model(&TransactionModel{}).
		Where("id = ? AND status = ?", t.ID(), string(walletDomain.TransactionPending)).
		Updates(map[string]interface{}{
			"status":         string(t.Status()),
			"failure_reason": t.FailureReason(),
			"settled_at":     t.SettledAt(),
			"updated_at":     t.UpdatedAt(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update transaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("transaction was already settled")
	}
	return nil
}

func toTransactionModel(t *walletDomain.Transaction) *TransactionModel {
	return &TransactionModel{
		ID:            t.ID(),
		UserID:        t.UserID(),
		Amount:        t.Amount(),
		PaymentMethod: string(t.PaymentMethod()),
		Status:        string(t.Status()),
		FailureReason: t.FailureReason(),
		SettledAt:     t.SettledAt(),
		CreatedAt:     t.CreatedAt(),
		UpdatedAt:     t.UpdatedAt(),
	}
}

func toTransactionDomain(m *TransactionModel) *walletDomain.Transaction {
	return walletDomain.Reconstruct(
		m.ID, m.UserID, m.Amount,
		walletDomain.PaymentMethod(m.PaymentMethod),
		walletDomain.TransactionStatus(m.Status),
		m.FailureReason, m.SettledAt,
		m.CreatedAt, m.UpdatedAt,
	)
}
