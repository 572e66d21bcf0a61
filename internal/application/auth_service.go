package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	userDomain "github.com/campus-shuttle/service-shuttle/internal/domain/user"
	"github.com/campus-shuttle/service-shuttle/internal/platform/auth"
	"github.com/campus-shuttle/service-shuttle/internal/platform/domain"
)

// SignupRequest creates a rider account, or an admin account when AdminCode
// matches the configured signup code.
type SignupRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	FullName  string `json:"full_name"`
	AdminCode string `json:"admin_code"`
}

// LoginRequest holds credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest exchanges a refresh token for a new pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UserDTO is the response representation of an account.
type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse is returned by signup, login and refresh.
type AuthResponse struct {
	User   UserDTO         `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

// AuthService handles account creation and token issuance.
type AuthService struct {
	users     userDomain.UserRepository
	jwt       *auth.JWTManager
	adminCode string
	logger    *zap.Logger
}

// NewAuthService creates a new AuthService. An empty adminCode disables
// admin signup.
func NewAuthService(users userDomain.UserRepository, jwt *auth.JWTManager, adminCode string, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, jwt: jwt, adminCode: adminCode, logger: logger}
}

// Signup registers a new account and signs it in.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	if len(req.Password) < auth.MinPasswordLength {
		return nil, domain.NewValidationError(fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
	}

	role := auth.RoleStudent
	if req.AdminCode != "" {
		if s.adminCode == "" || subtle.ConstantTimeCompare([]byte(req.AdminCode), []byte(s.adminCode)) != 1 {
			return nil, domain.NewForbiddenError("invalid admin signup code")
		}
		role = auth.RoleAdmin
	}

	exists, err := s.users.ExistsByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, domain.NewConflictError("email is already registered")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u, err := userDomain.NewUser(req.Email, req.FullName, hash, role)
	if err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	s.logger.Info("user registered",
		zap.String("user_id", u.ID().String()),
		zap.String("role", string(role)),
	)
	return s.issue(u)
}

// Login verifies credentials and issues tokens.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewUnauthorizedError("invalid email or password")
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash(), req.Password) {
		return nil, domain.NewUnauthorizedError("invalid email or password")
	}
	return s.issue(u)
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	claims, err := s.jwt.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return nil, domain.NewUnauthorizedError("invalid refresh token")
		}
		return nil, err
	}

	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewUnauthorizedError("account no longer exists")
		}
		return nil, err
	}
	return s.issue(u)
}

// Me returns the signed-in account with its current balance.
func (s *AuthService) Me(ctx context.Context, sess auth.Session) (*UserDTO, error) {
	u, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	dto := toUserDTO(u)
	return &dto, nil
}

func (s *AuthService) issue(u *userDomain.User) (*AuthResponse, error) {
	tokens, err := s.jwt.GenerateTokenPair(u.ID(), u.Email(), u.Role())
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return &AuthResponse{User: toUserDTO(u), Tokens: tokens}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserDTO(u *userDomain.User) UserDTO {
	return UserDTO{
		ID:        u.ID(),
		Email:     u.Email(),
		FullName:  u.FullName(),
		Role:      string(u.Role()),
		Points:    u.Points(),
		CreatedAt: u.CreatedAt(),
	}
}
