package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/campus-shuttle/service-shuttle/internal/platform/domain"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Booking is the aggregate root for a shuttle trip paid in points.
type Booking struct {
	id             uuid.UUID
	bookingNumber  string
	userID         uuid.UUID
	status         BookingStatus
	selection      Selection
	pointsDeducted int

	scheduledAt *time.Time
	confirmedAt *time.Time
	completedAt *time.Time
	cancelledAt *time.Time
	cancelNote  string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "BK-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "BK-" + string(result), nil
}

// NewBooking creates a pending booking for the selected itinerary.
func NewBooking(userID uuid.UUID, selection Selection, points int, scheduledAt *time.Time) (*Booking, error) {
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user ID is required")
	}
	if err := selection.Validate(); err != nil {
		return nil, err
	}
	if points < 0 {
		return nil, domain.NewValidationError("points must not be negative")
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:             uuid.New(),
		bookingNumber:  bookingNumber,
		userID:         userID,
		status:         StatusPending,
		selection:      selection,
		pointsDeducted: points,
		scheduledAt:    scheduledAt,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	userID uuid.UUID,
	status BookingStatus,
	selection Selection,
	pointsDeducted int,
	scheduledAt *time.Time,
	confirmedAt *time.Time,
	completedAt *time.Time,
	cancelledAt *time.Time,
	cancelNote string,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:             id,
		bookingNumber:  bookingNumber,
		userID:         userID,
		status:         status,
		selection:      selection,
		pointsDeducted: pointsDeducted,
		scheduledAt:    scheduledAt,
		confirmedAt:    confirmedAt,
		completedAt:    completedAt,
		cancelledAt:    cancelledAt,
		cancelNote:     cancelNote,
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// --- Getters ---

func (b *Booking) ID() uuid.UUID { return b.id }
func (b *Booking) BookingNumber() string { return b.bookingNumber }
func (b *Booking) UserID() uuid.UUID { return b.userID }
func (b *Booking) Status() BookingStatus { return b.status }
func (b *Booking) Selection() Selection { return b.selection }
func (b *Booking) PointsDeducted() int { return b.pointsDeducted }
func (b *Booking) ScheduledAt() *time.Time { return b.scheduledAt }
func (b *Booking) ConfirmedAt() *time.Time { return b.confirmedAt }
func (b *Booking) CompletedAt() *time.Time { return b.completedAt }
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }
func (b *Booking) CancelNote() string { return b.cancelNote }
func (b *Booking) Version() int64 { return b.version }
func (b *Booking) CreatedAt() time.Time { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// IsOwnedBy checks whether the booking belongs to userID.
func (b *Booking) IsOwnedBy(userID uuid.UUID) bool {
	return b.userID == userID
}

// Confirm transitions the booking from pending to confirmed.
func (b *Booking) Confirm() error {
	if !b.status.CanTransitionTo(StatusConfirmed) {
		return domain.NewInvalidStateError(string(b.status), string(StatusConfirmed))
	}
	now := time.Now().UTC()
	b.status = StatusConfirmed
	b.confirmedAt = &now
	b.updatedAt = now
	return nil
}

// Complete transitions the booking from confirmed to completed.
func (b *Booking) Complete() error {
	if !b.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidStateError(string(b.status), string(StatusCompleted))
	}
	now := time.Now().UTC()
	b.status = StatusCompleted
	b.completedAt = &now
	b.updatedAt = now
	return nil
}

// Cancel transitions the booking to cancelled and returns the points to
// refund.
func (b *Booking) Cancel(reason string) (int, error) {
	if !b.status.CanBeCancelled() {
		return 0, domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	now := time.Now().UTC()
	b.status = StatusCancelled
	b.cancelNote = reason
	b.cancelledAt = &now
	b.updatedAt = now
	return b.pointsDeducted, nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
