package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-shuttle/service-shuttle/internal/platform/auth"
	"github.com/campus-shuttle/service-shuttle/internal/platform/domain"
)

func newAuthService(users *fakeUserRepo) (*AuthService, *auth.JWTManager) {
	jwt := auth.NewJWTManager("test-secret", time.Hour, 24*time.Hour)
	return NewAuthService(users, jwt, "let-me-in", testLogger), jwt
}

func TestAuthService_Signup(t *testing.T) {
	svc, jwt := newAuthService(newFakeUserRepo())

	resp, err := svc.Signup(context.Background(), SignupRequest{
		Email:    "Student@Campus.edu",
		Password: "password123",
		FullName: "Student One",
	})
	require.NoError(t, err)
	assert.Equal(t, "student@campus.edu", resp.User.Email)
	assert.Equal(t, string(auth.RoleStudent), resp.User.Role)
	assert.Equal(t, 500, resp.User.Points)

	claims, err := jwt.ValidateAccessToken(resp.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, auth.RoleStudent, claims.Role)
}

func TestAuthService_SignupAdmin(t *testing.T) {
	svc, _ := newAuthService(newFakeUserRepo())

	resp, err := svc.Signup(context.Background(), SignupRequest{
		Email: "ops@campus.edu", Password: "password123", AdminCode: "let-me-in",
	})
	require.NoError(t, err)
	assert.Equal(t, string(auth.RoleAdmin), resp.User.Role)
	assert.Equal(t, 1000, resp.User.Points)

	_, err = svc.Signup(context.Background(), SignupRequest{
		Email: "intruder@campus.edu", Password: "password123", AdminCode: "guess",
	})
	var forbidden *domain.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)
}

func TestAuthService_SignupRejects(t *testing.T) {
	svc, _ := newAuthService(newFakeUserRepo())

	_, err := svc.Signup(context.Background(), SignupRequest{Email: "a@campus.edu", Password: "short"})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Signup(context.Background(), SignupRequest{Email: "not-an-email", Password: "password123"})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Signup(context.Background(), SignupRequest{Email: "a@campus.edu", Password: "password123"})
	require.NoError(t, err)
	_, err = svc.Signup(context.Background(), SignupRequest{Email: "A@campus.edu", Password: "password123"})
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestAuthService_LoginAndRefresh(t *testing.T) {
	svc, _ := newAuthService(newFakeUserRepo())
	signup, err := svc.Signup(context.Background(), SignupRequest{Email: "rider@campus.edu", Password: "password123"})
	require.NoError(t, err)

	login, err := svc.Login(context.Background(), LoginRequest{Email: "Rider@campus.edu", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, signup.User.ID, login.User.ID)

	var unauthorized *domain.UnauthorizedError
	_, err = svc.Login(context.Background(), LoginRequest{Email: "rider@campus.edu", Password: "wrong-password"})
	assert.ErrorAs(t, err, &unauthorized)
	_, err = svc.Login(context.Background(), LoginRequest{Email: "ghost@campus.edu", Password: "password123"})
	assert.ErrorAs(t, err, &unauthorized)

	refreshed, err := svc.Refresh(context.Background(), RefreshRequest{RefreshToken: login.Tokens.RefreshToken})
	require.NoError(t, err)
	assert.Equal(t, signup.User.ID, refreshed.User.ID)

	_, err = svc.Refresh(context.Background(), RefreshRequest{RefreshToken: login.Tokens.AccessToken})
	assert.ErrorAs(t, err, &unauthorized)

	me, err := svc.Me(context.Background(), auth.Session{UserID: signup.User.ID})
	require.NoError(t, err)
	assert.Equal(t, 500, me.Points)
}
