package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	userDomain "github.com/campus-shuttle/service-shuttle/internal/domain/user"
	"github.com/campus-shuttle/service-shuttle/internal/platform/domain"
)

// AdjustPointsRequest changes a balance by a signed delta.
type AdjustPointsRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// SetPointsRequest overwrites a balance.
type SetPointsRequest struct {
	Points *int `json:"points" binding:"required"`
}

// AdminService manages accounts on behalf of administrators.
type AdminService struct {
	users  userDomain.UserRepository
	logger *zap.Logger
}

// NewAdminService creates a new AdminService.
func NewAdminService(users userDomain.UserRepository, logger *zap.Logger) *AdminService {
	return &AdminService{users: users, logger: logger}
}

// ListUsers returns every account, newest first.
func (s *AdminService) ListUsers(ctx context.Context, page, limit int) (*domain.PaginatedResult[UserDTO], error) {
	users, total, err := s.users.List(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// AdjustPoints adds delta to a user's balance. The balance may not go negative.
func (s *AdminService) AdjustPoints(ctx context.Context, adminID, userID uuid.UUID, delta int) (*UserDTO, error) {
	return s.update(ctx, adminID, userID, func(u *userDomain.User) error {
		return u.AdjustPoints(delta)
	})
}

// SetPoints overwrites a user's balance.
func (s *AdminService) SetPoints(ctx context.Context, adminID, userID uuid.UUID, points int) (*UserDTO, error) {
	return s.update(ctx, adminID, userID, func(u *userDomain.User) error {
		return u.SetPoints(points)
	})
}

func (s *AdminService) update(ctx context.Context, adminID, userID uuid.UUID, apply func(*userDomain.User) error) (*UserDTO, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	before := u.Points()
	if err := apply(u); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user points changed by admin",
		zap.String("admin_id", adminID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("before", before),
		zap.Int("after", u.Points()),
	)

	dto := toUserDTO(u)
	return &dto, nil
}
