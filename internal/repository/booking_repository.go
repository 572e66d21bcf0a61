package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/campus-shuttle/service-shuttle/internal/domain/booking"
	"github.com/campus-shuttle/service-shuttle/internal/platform/domain"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingNumber    string     `gorm:"uniqueIndex;not null;size:20"`
	UserID           uuid.UUID  `gorm:"type:uuid;index;not null"`
	Status           string     `gorm:"not null;size:30;index"`
	RouteID          uuid.UUID  `gorm:"type:uuid;not null"`
	StartStopID      uuid.UUID  `gorm:"type:uuid;not null"`
	EndStopID        uuid.UUID  `gorm:"type:uuid;not null"`
	SecondRouteID    *uuid.UUID `gorm:"type:uuid"`
	TransferStopID   *uuid.UUID `gorm:"type:uuid"`
	TransferPointID  *uuid.UUID `gorm:"type:uuid"`
	TotalWaitMinutes *int       `gorm:""`
	DistanceKm       float64    `gorm:"type:decimal(10,2);not null"`
	DurationMinutes  int        `gorm:"not null"`
	Strategy         string     `gorm:"size:40"`
	PointsDeducted   int        `gorm:"not null"`
	ScheduledAt      *time.Time `gorm:""`
	ConfirmedAt      *time.Time `gorm:""`
	CompletedAt      *time.Time `gorm:""`
	CancelledAt      *time.Time `gorm:""`
	CancelNote       string     `gorm:"size:500"`
	Version          int64      `gorm:"not null;default:1"`
	CreatedAt        time.Time  `gorm:"not null"`
	UpdatedAt        time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier. Inside a
// transaction the row is locked until commit.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := forUpdate(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByNumber retrieves a booking by its booking number.
func (r *GormBookingRepository) FindByNumber(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := conn(ctx, r.db).Where("booking_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", number)
		}
		return nil, fmt.Errorf("failed to find booking by number: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByUserID retrieves a rider's bookings with pagination, newest first.
func (r *GormBookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := conn(ctx, r.db).Model(&BookingModel{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count user bookings: %w", err)
	}

	var models []BookingModel
	if err := conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find user bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	if err := conn(ctx, r.db).Create(toBookingModel(bk)).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// IncrementVersion was called, so the stored row holds version-1.
	expectedVersion := bk.Version() - 1
	result := conn(ctx, r.db).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":       model.Status,
			"scheduled_at": model.ScheduledAt,
			"confirmed_at": model.ConfirmedAt,
			"completed_at": model.CompletedAt,
			"cancelled_at": model.CancelledAt,
			"cancel_note":  model.CancelNote,
			"version":      model.Version,
			"updated_at":   model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := conn(ctx, r.db).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	if err := conn(ctx, r.db).
		Order("created_at DESC").
		Offset(offset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := conn(ctx, r.db).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	sel := bk.Selection()
	return &BookingModel{
		ID:               bk.ID(),
		BookingNumber:    bk.BookingNumber(),
		UserID:           bk.UserID(),
		Status:           string(bk.Status()),
		RouteID:          sel.RouteID,
		StartStopID:      sel.StartStopID,
		EndStopID:        sel.EndStopID,
		SecondRouteID:    sel.SecondRouteID,
		TransferStopID:   sel.TransferStopID,
		TransferPointID:  sel.TransferPointID,
		TotalWaitMinutes: sel.TotalWaitMinutes,
		DistanceKm:       sel.DistanceKm,
		DurationMinutes:  sel.DurationMinutes,
		Strategy:         sel.Strategy,
		PointsDeducted:   bk.PointsDeducted(),
		ScheduledAt:      bk.ScheduledAt(),
		ConfirmedAt:      bk.ConfirmedAt(),
		CompletedAt:      bk.CompletedAt(),
		CancelledAt:      bk.CancelledAt(),
		CancelNote:       bk.CancelNote(),
		Version:          bk.Version(),
		CreatedAt:        bk.CreatedAt(),
		UpdatedAt:        bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	sel := bookingDomain.Selection{
		RouteID:          m.RouteID,
		StartStopID:      m.StartStopID,
		EndStopID:        m.EndStopID,
		SecondRouteID:    m.SecondRouteID,
		TransferStopID:   m.TransferStopID,
		TransferPointID:  m.TransferPointID,
		TotalWaitMinutes: m.TotalWaitMinutes,
		DistanceKm:       m.DistanceKm,
		DurationMinutes:  m.DurationMinutes,
		Strategy:         m.Strategy,
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.BookingNumber,
		m.UserID,
		status,
		sel,
		m.PointsDeducted,
		m.ScheduledAt,
		m.ConfirmedAt,
		m.CompletedAt,
		m.CancelledAt,
		m.CancelNote,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
