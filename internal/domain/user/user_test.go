package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-shuttle/service-shuttle/internal/platform/auth"
	"github.com/campus-shuttle/service-shuttle/internal/platform/domain"
)

func TestNewUser_StartingBalance(t *testing.T) {
	student, err := NewUser(" Riya@Campus.edu ", "Riya", "hash", auth.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, "riya@campus.edu", student.Email())
	assert.Equal(t, StudentSignupPoints, student.Points())

	admin, err := NewUser("ops@campus.edu", "Ops", "hash", auth.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, AdminSignupPoints, admin.Points())
}

func TestNewUser_Validation(t *testing.T) {
	_, err := NewUser("not-an-email", "x", "hash", auth.RoleStudent)
	assert.True(t, domain.IsValidation(err))

	_, err = NewUser("a@b.co", "x", "", auth.RoleStudent)
	assert.True(t, domain.IsValidation(err))

	_, err = NewUser("a@b.co", "x", "hash", auth.Role("driver"))
	assert.True(t, domain.IsValidation(err))
}

func TestUser_Points(t *testing.T) {
	u, err := NewUser("a@b.co", "A", "hash", auth.RoleStudent)
	require.NoError(t, err)
	v := u.Version()

	require.NoError(t, u.DeductPoints(4))
	assert.Equal(t, 496, u.Points())
	assert.Equal(t, v+1, u.Version())

	err = u.DeductPoints(1000)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, 496, u.Points())

	require.NoError(t, u.CreditPoints(4))
	assert.Equal(t, 500, u.Points())

	require.NoError(t, u.AdjustPoints(-100))
	assert.Equal(t, 400, u.Points())
	assert.Error(t, u.AdjustPoints(-401))

	require.NoError(t, u.SetPoints(0))
	assert.Zero(t, u.Points())
	assert.Error(t, u.SetPoints(-1))
	assert.Error(t, u.CreditPoints(-1))
}
