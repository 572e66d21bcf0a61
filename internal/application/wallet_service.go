package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	userDomain "github.com/campus-shuttle/service-shuttle/internal/domain/user"
	walletDomain "github.com/campus-shuttle/service-shuttle/internal/domain/wallet"
	"github.com/campus-shuttle/service-shuttle/internal/platform/auth"
	"github.com/campus-shuttle/service-shuttle/internal/platform/domain"
	"github.com/campus-shuttle/service-shuttle/internal/proto/events"
)

// RechargeRequest asks for amount points paid with PaymentMethod.
type RechargeRequest struct {
	Amount        int    `json:"amount" binding:"required"`
	PaymentMethod string `json:"payment_method"`
}

// TransactionDTO is the response representation of a recharge.
type TransactionDTO struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	Amount        int        `json:"amount"`
	PaymentMethod string     `json:"payment_method"`
	Status        string     `json:"status"`
	FailureReason string     `json:"failure_reason,omitempty"`
	SettledAt     *time.Time `json:"settled_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// WalletService handles point recharges.
type WalletService struct {
	repo     walletDomain.TransactionRepository
	users    userDomain.UserRepository
	tx       Transactor
	producer EventPublisher
	logger   *zap.Logger
}

// NewWalletService creates a new WalletService.
func NewWalletService(
	repo walletDomain.TransactionRepository,
	users userDomain.UserRepository,
	tx Transactor,
	producer EventPublisher,
	logger *zap.Logger,
) *WalletService {
	return &WalletService{repo: repo, users: users, tx: tx, producer: producer, logger: logger}
}

// RequestRecharge records a pending recharge and asks the payment
// collaborator to collect it. Points are credited on settlement.
func (s *WalletService) RequestRecharge(ctx context.Context, sess auth.Session, req RechargeRequest) (*TransactionDTO, error) {
	method := walletDomain.PaymentMethod(req.PaymentMethod)
	if method == "" {
		method = walletDomain.PaymentMethodUPI
	}

	t, err := walletDomain.NewRecharge(sess.UserID, req.Amount, method)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	publishEvent(ctx, s.producer, s.logger, events.TopicWalletEvents, events.WalletRechargeRequested, events.RechargeRequestedEvent{
		TransactionID: t.ID(),
		UserID:        t.UserID(),
		Amount:        t.Amount(),
		PaymentMethod: string(t.PaymentMethod()),
		OccurredAt:    time.Now().UTC(),
	})

	dto := toTransactionDTO(t)
	return &dto, nil
}

// SettleRecharge applies the payment outcome. Settling an already settled
// transaction is a no-op so redelivered events are harmless.
func (s *WalletService) SettleRecharge(ctx context.Context, transactionID uuid.UUID, succeeded bool, reason string) (*TransactionDTO, error) {
	var t *walletDomain.Transaction
	var changed bool

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.repo.FindByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if !t.IsPending() {
			return nil
		}
		changed = true

		if !succeeded {
			if err := t.Fail(reason); err != nil {
				return err
			}
			return s.repo.Update(ctx, t)
		}

		if err := t.Complete(); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, t); err != nil {
			return err
		}

		u, err := s.users.FindByID(ctx, t.UserID())
		if err != nil {
			return err
		}
		if err := u.CreditPoints(t.Amount()); err != nil {
			return err
		}
		return s.users.Update(ctx, u)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		eventType := events.WalletRechargeCompleted
		if !succeeded {
			eventType = events.WalletRechargeFailed
		}
		publishEvent(ctx, s.producer, s.logger, events.TopicWalletEvents, eventType, events.RechargeSettledEvent{
			TransactionID: t.ID(),
			UserID:        t.UserID(),
			Amount:        t.Amount(),
			Status:        string(t.Status()),
			Reason:        t.FailureReason(),
			OccurredAt:    time.Now().UTC(),
		})
	} else {
		s.logger.Info("ignoring settlement of already settled transaction",
			zap.String("transaction_id", transactionID.String()),
			zap.String("status", string(t.Status())),
		)
	}

	dto := toTransactionDTO(t)
	return &dto, nil
}

// ListTransactions returns a rider's recharges, newest first.
func (s *WalletService) ListTransactions(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedResult[TransactionDTO], error) {
	txs, total, err := s.repo.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]TransactionDTO, len(txs))
	for i, t := range txs {
		dtos[i] = toTransactionDTO(t)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

func toTransactionDTO(t *walletDomain.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:            t.ID(),
		UserID:        t.UserID(),
		Amount:        t.Amount(),
		PaymentMethod: string(t.PaymentMethod()),
		Status:        string(t.Status()),
		FailureReason: t.FailureReason(),
		SettledAt:     t.SettledAt(),
		CreatedAt:     t.CreatedAt(),
	}
}
