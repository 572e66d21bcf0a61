//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-shuttle/service-shuttle/internal/application"
	"github.com/campus-shuttle/service-shuttle/internal/platform/auth"
	"github.com/campus-shuttle/service-shuttle/internal/proto/events"
)

func newJWT() *auth.JWTManager {
	return auth.NewJWTManager("integration-secret", 15*time.Minute, time.Hour)
}

func signup(t *testing.T, stack *shuttleStack, email string) auth.Session {
	t.Helper()
	resp, err := stack.Auth.Signup(context.Background(), application.SignupRequest{
		Email:    email,
		Password: "password123",
		FullName: "Integration Rider",
	})
	require.NoError(t, err)
	return auth.Session{UserID: resp.User.ID, Email: resp.User.Email, Role: auth.RoleStudent}
}

// TestRechargePaymentSucceeded_CreditsPoints verifies that a payment result on
// payment.events settles the pending recharge and credits the rider.
func TestRechargePaymentSucceeded_CreditsPoints(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupShuttleStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	sess := signup(t, stack, "recharge@campus.edu")
	tx, err := stack.Wallet.RequestRecharge(context.Background(), sess, application.RechargeRequest{Amount: 250})
	require.NoError(t, err)
	assert.Equal(t, "pending", tx.Status)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	publishTestEvent(t, infra.KafkaBrokers, events.TopicPaymentEvents,
		"service-payment", events.PaymentRechargeSucceeded, events.PaymentResultEvent{
			TransactionID: tx.ID,
			PaymentRef:    "upi-ref-1",
			OccurredAt:    time.Now().UTC(),
		})

	model := waitForTransactionStatus(t, infra.DB, tx.ID, "completed", 15*time.Second)
	assert.NotNil(t, model.SettledAt)

	u, err := stack.Users.FindByID(context.Background(), sess.UserID)
	require.NoError(t, err)
	assert.Equal(t, 750, u.Points())

	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicWalletEvents,
		events.WalletRechargeCompleted, 15*time.Second)
	var settled events.RechargeSettledEvent
	require.NoError(t, ce.ParseData(&settled))
	assert.Equal(t, tx.ID, settled.TransactionID)
	assert.Equal(t, 250, settled.Amount)
}

// TestBooking_DeductsAndRefundsPoints books a direct trip on the seeded
// catalog and cancels it again.
func TestBooking_DeductsAndRefundsPoints(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupShuttleStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	sess := signup(t, stack, "booking@campus.edu")

	bk, err := stack.Bookings.CreateBooking(context.Background(), sess, application.CreateBookingRequest{
		RouteID:     seedCampusLoop,
		StartStopID: seedMainGate,
		EndStopID:   seedBoysHostel,
	})
	require.NoError(t, err)
	assert.Equal(t, "Campus Loop", bk.RouteName)
	assert.Equal(t, 20, bk.Selection.DurationMinutes)
	assert.Equal(t, 4, bk.PointsDeducted)

	u, err := stack.Users.FindByID(context.Background(), sess.UserID)
	require.NoError(t, err)
	assert.Equal(t, 496, u.Points())

	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicBookingEvents,
		events.BookingCreated, 15*time.Second)
	var created events.BookingCreatedEvent
	require.NoError(t, ce.ParseData(&created))
	assert.Equal(t, bk.ID, created.BookingID)

	cancelled, err := stack.Bookings.CancelBooking(context.Background(), sess, bk.ID, "class moved")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)

	u, err = stack.Users.FindByID(context.Background(), sess.UserID)
	require.NoError(t, err)
	assert.Equal(t, 500, u.Points())
}
