package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	userDomain "github.com/campus-shuttle/service-shuttle/internal/domain/user"
	"github.com/campus-shuttle/service-shuttle/internal/platform/auth"
	"github.com/campus-shuttle/service-shuttle/internal/platform/domain"
	"github.com/campus-shuttle/service-shuttle/internal/proto/events"
)

func newWalletFixture(t *testing.T) (*WalletService, *userDomain.User, *recordingPublisher, auth.Session) {
	t.Helper()
	rider, err := userDomain.NewUser("rider@campus.edu", "Rider", "hash", auth.RoleStudent)
	require.NoError(t, err)

	pub := &recordingPublisher{}
	svc := NewWalletService(newFakeTransactionRepo(), newFakeUserRepo(rider), &inlineTransactor{}, pub, testLogger)
	return svc, rider, pub, auth.Session{UserID: rider.ID(), Role: auth.RoleStudent}
}

func TestWalletService_RechargeSucceeds(t *testing.T) {
	svc, rider, pub, sess := newWalletFixture(t)

	tx, err := svc.RequestRecharge(context.Background(), sess, RechargeRequest{Amount: 200})
	require.NoError(t, err)
	assert.Equal(t, "pending", tx.Status)
	assert.Equal(t, "UPI", tx.PaymentMethod)
	assert.Equal(t, 500, rider.Points())
	assert.Equal(t, []string{events.WalletRechargeRequested}, pub.types())

	settled, err := svc.SettleRecharge(context.Background(), tx.ID, true, "")
	require.NoError(t, err)
	assert.Equal(t, "completed", settled.Status)
	assert.NotNil(t, settled.SettledAt)
	assert.Equal(t, 700, rider.Points())

	again, err := svc.SettleRecharge(context.Background(), tx.ID, true, "")
	require.NoError(t, err)
	assert.Equal(t, "completed", again.Status)
	assert.Equal(t, 700, rider.Points())
	assert.Equal(t, []string{events.WalletRechargeRequested, events.WalletRechargeCompleted}, pub.types())
}

func TestWalletService_RechargeFails(t *testing.T) {
	svc, rider, pub, sess := newWalletFixture(t)

	tx, err := svc.RequestRecharge(context.Background(), sess, RechargeRequest{Amount: 50})
	require.NoError(t, err)

	settled, err := svc.SettleRecharge(context.Background(), tx.ID, false, "card declined")
	require.NoError(t, err)
	assert.Equal(t, "failed", settled.Status)
	assert.Equal(t, "card declined", settled.FailureReason)
	assert.Equal(t, 500, rider.Points())

	_, err = svc.SettleRecharge(context.Background(), tx.ID, true, "")
	require.NoError(t, err)
	assert.Equal(t, 500, rider.Points())
	assert.Equal(t, []string{events.WalletRechargeRequested, events.WalletRechargeFailed}, pub.types())
}

func TestWalletService_RechargeRejects(t *testing.T) {
	svc, _, _, sess := newWalletFixture(t)

	_, err := svc.RequestRecharge(context.Background(), sess, RechargeRequest{Amount: 0})
	assert.True(t, domain.IsValidation(err))
	_, err = svc.RequestRecharge(context.Background(), sess, RechargeRequest{Amount: 20000})
	assert.True(t, domain.IsValidation(err))
	_, err = svc.RequestRecharge(context.Background(), sess, RechargeRequest{Amount: 10, PaymentMethod: "CASH"})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.SettleRecharge(context.Background(), uuid.New(), true, "")
	assert.True(t, domain.IsNotFound(err))
}

func TestWalletService_ListTransactions(t *testing.T) {
	svc, rider, _, sess := newWalletFixture(t)
	for _, amount := range []int{10, 20} {
		_, err := svc.RequestRecharge(context.Background(), sess, RechargeRequest{Amount: amount})
		require.NoError(t, err)
	}

	page, err := svc.ListTransactions(context.Background(), rider.ID(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Items, 2)

	empty, err := svc.ListTransactions(context.Background(), uuid.New(), 1, 20)
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
}
