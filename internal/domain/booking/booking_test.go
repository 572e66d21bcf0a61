package booking

import (
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-shuttle/service-shuttle/internal/platform/domain"
)

func directSelection() Selection {
	return Selection{
		RouteID:         uuid.New(),
		StartStopID:     uuid.New(),
		EndStopID:       uuid.New(),
		DistanceKm:      2.45,
		DurationMinutes: 20,
		Strategy:        "any_stop",
	}
}

func TestNewBooking(t *testing.T) {
	userID := uuid.New()
	bk, err := NewBooking(userID, directSelection(), 4, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, bk.Status())
	assert.Equal(t, 4, bk.PointsDeducted())
	assert.Equal(t, int64(1), bk.Version())
	assert.True(t, bk.IsOwnedBy(userID))
	assert.Regexp(t, regexp.MustCompile(`^BK-[A-HJ-NP-Z2-9]{6}$`), bk.BookingNumber())
}

func TestNewBooking_Validation(t *testing.T) {
	stop := uuid.New()
	second := uuid.New()
	wait := -1

	tests := []struct {
		name   string
		userID uuid.UUID
		mutate func(*Selection)
		points int
	}{
		{name: "missing user", userID: uuid.Nil, mutate: func(*Selection) {}},
		{name: "missing route", userID: uuid.New(), mutate: func(s *Selection) { s.RouteID = uuid.Nil }},
		{name: "same stops", userID: uuid.New(), mutate: func(s *Selection) { s.EndStopID = s.StartStopID }},
		{name: "transfer without stop", userID: uuid.New(), mutate: func(s *Selection) { s.SecondRouteID = &second }},
		{name: "direct with transfer stop", userID: uuid.New(), mutate: func(s *Selection) { s.TransferStopID = &stop }},
		{name: "negative wait", userID: uuid.New(), mutate: func(s *Selection) {
			s.SecondRouteID = &second
			s.TransferStopID = &stop
			s.TotalWaitMinutes = &wait
		}},
		{name: "negative points", userID: uuid.New(), mutate: func(*Selection) {}, points: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := directSelection()
			tt.mutate(&sel)
			_, err := NewBooking(tt.userID, sel, tt.points, nil)
			assert.True(t, domain.IsValidation(err), "got %v", err)
		})
	}
}

func TestBooking_Lifecycle(t *testing.T) {
	bk, err := NewBooking(uuid.New(), directSelection(), 4, nil)
	require.NoError(t, err)

	require.Error(t, bk.Complete())

	require.NoError(t, bk.Confirm())
	assert.NotNil(t, bk.ConfirmedAt())

	require.NoError(t, bk.Complete())
	assert.NotNil(t, bk.CompletedAt())
	assert.True(t, bk.Status().IsTerminal())

	_, err = bk.Cancel("too late")
	var stateErr *domain.InvalidStateError
	assert.ErrorAs(t, err, &stateErr)
}

func TestBooking_CancelRefunds(t *testing.T) {
	bk, err := NewBooking(uuid.New(), directSelection(), 6, nil)
	require.NoError(t, err)

	refund, err := bk.Cancel("plans changed")
	require.NoError(t, err)
	assert.Equal(t, 6, refund)
	assert.Equal(t, StatusCancelled, bk.Status())
	assert.Equal(t, "plans changed", bk.CancelNote())
	assert.NotNil(t, bk.CancelledAt())

	_, err = bk.Cancel("again")
	assert.Error(t, err)
}

func TestBookingStatus(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusConfirmed))
	assert.True(t, StatusPending.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusPending.CanTransitionTo(StatusCompleted))
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusCompleted))
	assert.True(t, StatusConfirmed.CanBeCancelled())
	assert.False(t, StatusCancelled.CanTransitionTo(StatusPending))
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, BookingStatus("lost").IsValid())

	s, err := ParseBookingStatus("confirmed")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, s)
	_, err = ParseBookingStatus("requested")
	assert.Error(t, err)
}

func TestStandardPricingStrategy(t *testing.T) {
	pricing := NewStandardPricingStrategy()

	tests := []struct {
		minutes  int
		expected int
	}{
		{minutes: 0, expected: 0},
		{minutes: 1, expected: 1},
		{minutes: 10, expected: 2},
		{minutes: 12, expected: 3},
		{minutes: 20, expected: 4},
		{minutes: 30, expected: 6},
	}

	for _, tt := range tests {
		points, err := pricing.Calculate(PricingParams{DurationMinutes: tt.minutes})
		require.NoError(t, err)
		assert.Equal(t, tt.expected, points, "duration %d", tt.minutes)
	}

	_, err := pricing.Calculate(PricingParams{DurationMinutes: -5})
	assert.Error(t, err)
}
