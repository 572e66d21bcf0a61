package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/campus-shuttle/service-shuttle/internal/domain/booking"
	"github.com/campus-shuttle/service-shuttle/internal/domain/catalog"
	"github.com/campus-shuttle/service-shuttle/internal/domain/discovery"
	userDomain "github.com/campus-shuttle/service-shuttle/internal/domain/user"
	"github.com/campus-shuttle/service-shuttle/internal/platform/auth"
	"github.com/campus-shuttle/service-shuttle/internal/platform/domain"
	"github.com/campus-shuttle/service-shuttle/internal/platform/metrics"
	"github.com/campus-shuttle/service-shuttle/internal/proto/events"
)

// CreateBookingRequest identifies the itinerary a rider picked from a search.
// Distance, duration and points are recomputed server-side.
type CreateBookingRequest struct {
	RouteID        uuid.UUID  `json:"route_id" binding:"required"`
	StartStopID    uuid.UUID  `json:"start_stop_id" binding:"required"`
	EndStopID      uuid.UUID  `json:"end_stop_id" binding:"required"`
	SecondRouteID  *uuid.UUID `json:"second_route_id"`
	TransferStopID *uuid.UUID `json:"transfer_stop_id"`
	Strategy       string     `json:"strategy"`
	ScheduledAt    *time.Time `json:"scheduled_at"`
}

// CancelBookingRequest carries an optional cancellation reason.
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID              uuid.UUID               `json:"id"`
	BookingNumber   string                  `json:"booking_number"`
	UserID          uuid.UUID               `json:"user_id"`
	Status          string                  `json:"status"`
	Kind            string                  `json:"kind"`
	Selection       bookingDomain.Selection `json:"selection"`
	RouteName       string                  `json:"route_name,omitempty"`
	SecondRouteName string                  `json:"second_route_name,omitempty"`
	PointsDeducted  int                     `json:"points_deducted"`
	ScheduledAt     *time.Time              `json:"scheduled_at,omitempty"`
	ConfirmedAt     *time.Time              `json:"confirmed_at,omitempty"`
	CompletedAt     *time.Time              `json:"completed_at,omitempty"`
	CancelledAt     *time.Time              `json:"cancelled_at,omitempty"`
	CancelNote      string                  `json:"cancel_note,omitempty"`
	Version         int64                   `json:"version"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo     bookingDomain.BookingRepository
	users    userDomain.UserRepository
	catalog  catalog.Repository
	engine   *discovery.Engine
	pricing  bookingDomain.PricingStrategy
	tx       Transactor
	producer EventPublisher
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	users userDomain.UserRepository,
	catalogRepo catalog.Repository,
	engine *discovery.Engine,
	pricing bookingDomain.PricingStrategy,
	tx Transactor,
	producer EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:     repo,
		users:    users,
		catalog:  catalogRepo,
		engine:   engine,
		pricing:  pricing,
		tx:       tx,
		producer: producer,
		metrics:  m,
		logger:   logger,
	}
}

// CreateBooking books the selected itinerary and deducts its fare from the
// rider's balance in the same transaction.
func (s *BookingService) CreateBooking(ctx context.Context, sess auth.Session, req CreateBookingRequest) (*BookingDTO, error) {
	strategy, err := discovery.ParseStrategy(req.Strategy)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	res, err := s.engine.Discover(snap, discovery.Query{Origin: req.StartStopID, Destination: req.EndStopID}, strategy)
	if err != nil {
		return nil, queryError(err)
	}

	it, ok := matchItinerary(res.Itineraries, req)
	if !ok {
		return nil, domain.NewValidationError("selected itinerary is not available")
	}

	points, err := s.pricing.Calculate(bookingDomain.PricingParams{
		DurationMinutes: it.DurationMinutes,
		DistanceKm:      it.DistanceKm,
		Transfer:        it.Kind == discovery.KindTransfer,
	})
	if err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("pricing error: %v", err))
	}

	bk, err := bookingDomain.NewBooking(sess.UserID, toSelection(it, strategy), points, req.ScheduledAt)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		u, err := s.users.FindByID(ctx, sess.UserID)
		if err != nil {
			return err
		}
		if err := u.DeductPoints(points); err != nil {
			return err
		}
		if err := s.users.Update(ctx, u); err != nil {
			return err
		}
		if err := s.repo.Save(ctx, bk); err != nil {
			return fmt.Errorf("failed to save booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveBooking(bk.Selection().Kind(), points)
	s.logger.Info("booking created",
		zap.String("booking_number", bk.BookingNumber()),
		zap.String("user_id", sess.UserID.String()),
		zap.Int("points", points),
	)

	sel := bk.Selection()
	publishEvent(ctx, s.producer, s.logger, events.TopicBookingEvents, events.BookingCreated, events.BookingCreatedEvent{
		BookingID:       bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		UserID:          bk.UserID(),
		RouteID:         sel.RouteID,
		SecondRouteID:   sel.SecondRouteID,
		StartStopID:     sel.StartStopID,
		EndStopID:       sel.EndStopID,
		PointsDeducted:  points,
		DurationMinutes: sel.DurationMinutes,
		OccurredAt:      time.Now().UTC(),
	})

	result := toBookingDTO(bk, routeNames(snap))
	return &result, nil
}

// CancelBooking cancels a pending or confirmed booking and refunds its points.
// Riders may cancel only their own bookings.
func (s *BookingService) CancelBooking(ctx context.Context, sess auth.Session, bookingID uuid.UUID, reason string) (*BookingDTO, error) {
	var bk *bookingDomain.Booking
	var refund int

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		bk, err = s.repo.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if !bk.IsOwnedBy(sess.UserID) && !sess.IsAdmin() {
			return domain.NewForbiddenError("booking does not belong to this user")
		}

		refund, err = bk.Cancel(reason)
		if err != nil {
			return err
		}
		bk.IncrementVersion()
		if err := s.repo.Update(ctx, bk); err != nil {
			return err
		}

		u, err := s.users.FindByID(ctx, bk.UserID())
		if err != nil {
			return err
		}
		if err := u.CreditPoints(refund); err != nil {
			return err
		}
		return s.users.Update(ctx, u)
	})
	if err != nil {
		return nil, err
	}

	s.publishStatusChanged(ctx, bk, refund, reason)
	return s.toDTO(ctx, bk), nil
}

// ConfirmBooking moves a pending booking to confirmed (admin).
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	return s.transition(ctx, bookingID, (*bookingDomain.Booking).Confirm)
}

// CompleteBooking moves a confirmed booking to completed (admin).
func (s *BookingService) CompleteBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	return s.transition(ctx, bookingID, (*bookingDomain.Booking).Complete)
}

func (s *BookingService) transition(ctx context.Context, bookingID uuid.UUID, apply func(*bookingDomain.Booking) error) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := apply(bk); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.publishStatusChanged(ctx, bk, 0, "")
	return s.toDTO(ctx, bk), nil
}

// GetBooking retrieves a single booking. Riders may only see their own.
func (s *BookingService) GetBooking(ctx context.Context, sess auth.Session, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bk.IsOwnedBy(sess.UserID) && !sess.IsAdmin() {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}
	return s.toDTO(ctx, bk), nil
}

// GetUserBookings retrieves a rider's bookings, newest first.
func (s *BookingService) GetUserBookings(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}

	result := domain.NewPaginatedResult(s.toDTOs(ctx, bookings), total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return s.toDTOs(ctx, bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin). Every status
// is present, zero when unused.
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	byStatus := make(map[string]int64, len(counts))
	for _, st := range bookingDomain.AllStatuses() {
		byStatus[string(st)] = 0
	}

	var total int64
	for status, c := range counts {
		byStatus[status] = c
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      byStatus,
	}, nil
}

// --- Helpers ---

// matchItinerary finds the discovered itinerary the request refers to.
func matchItinerary(candidates []discovery.Itinerary, req CreateBookingRequest) (discovery.Itinerary, bool) {
	for _, it := range candidates {
		if it.FirstRouteID() != req.RouteID {
			continue
		}
		second := it.SecondRouteID()
		if (second == nil) != (req.SecondRouteID == nil) {
			continue
		}
		if second != nil && *second != *req.SecondRouteID {
			continue
		}
		if req.TransferStopID != nil && (it.TransferStop == nil || it.TransferStop.ID != *req.TransferStopID) {
			continue
		}
		return it, true
	}
	return discovery.Itinerary{}, false
}

func toSelection(it discovery.Itinerary, strategy discovery.Strategy) bookingDomain.Selection {
	stops := it.Stops()
	sel := bookingDomain.Selection{
		RouteID:         it.FirstRouteID(),
		StartStopID:     stops[0].ID,
		EndStopID:       stops[len(stops)-1].ID,
		SecondRouteID:   it.SecondRouteID(),
		TransferPointID: it.TransferPointID,
		DistanceKm:      it.DistanceKm,
		DurationMinutes: it.DurationMinutes,
		Strategy:        string(strategy),
	}
	if it.TransferStop != nil {
		id := it.TransferStop.ID
		sel.TransferStopID = &id
	}
	if it.TransferPointID != nil {
		wait := it.WaitMinutes
		sel.TotalWaitMinutes = &wait
	}
	return sel
}

func routeNames(snap *catalog.Snapshot) map[uuid.UUID]string {
	names := make(map[uuid.UUID]string, len(snap.Routes))
	for _, r := range snap.Routes {
		names[r.ID] = r.Name
	}
	return names
}

// names loads route names for display. A catalog failure only costs the names.
func (s *BookingService) names(ctx context.Context) map[uuid.UUID]string {
	routes, err := s.catalog.ListRoutes(ctx)
	if err != nil {
		s.logger.Warn("failed to load route names", zap.Error(err))
		return nil
	}
	names := make(map[uuid.UUID]string, len(routes))
	for _, r := range routes {
		names[r.ID] = r.Name
	}
	return names
}

func (s *BookingService) toDTO(ctx context.Context, bk *bookingDomain.Booking) *BookingDTO {
	dto := toBookingDTO(bk, s.names(ctx))
	return &dto
}

func (s *BookingService) toDTOs(ctx context.Context, bookings []*bookingDomain.Booking) []BookingDTO {
	names := s.names(ctx)
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk, names)
	}
	return dtos
}

func toBookingDTO(bk *bookingDomain.Booking, names map[uuid.UUID]string) BookingDTO {
	sel := bk.Selection()
	dto := BookingDTO{
		ID:             bk.ID(),
		BookingNumber:  bk.BookingNumber(),
		UserID:         bk.UserID(),
		Status:         string(bk.Status()),
		Kind:           sel.Kind(),
		Selection:      sel,
		RouteName:      names[sel.RouteID],
		PointsDeducted: bk.PointsDeducted(),
		ScheduledAt:    bk.ScheduledAt(),
		ConfirmedAt:    bk.ConfirmedAt(),
		CompletedAt:    bk.CompletedAt(),
		CancelledAt:    bk.CancelledAt(),
		CancelNote:     bk.CancelNote(),
		Version:        bk.Version(),
		CreatedAt:      bk.CreatedAt(),
		UpdatedAt:      bk.UpdatedAt(),
	}
	if sel.SecondRouteID != nil {
		dto.SecondRouteName = names[*sel.SecondRouteID]
	}
	return dto
}

func (s *BookingService) publishStatusChanged(ctx context.Context, bk *bookingDomain.Booking, refund int, reason string) {
	var eventType string
	switch bk.Status() {
	case bookingDomain.StatusConfirmed:
		eventType = events.BookingConfirmed
	case bookingDomain.StatusCompleted:
		eventType = events.BookingCompleted
	case bookingDomain.StatusCancelled:
		eventType = events.BookingCancelled
	default:
		return
	}

	publishEvent(ctx, s.producer, s.logger, events.TopicBookingEvents, eventType, events.BookingStatusChangedEvent{
		BookingID:      bk.ID(),
		BookingNumber:  bk.BookingNumber(),
		UserID:         bk.UserID(),
		Status:         string(bk.Status()),
		PointsRefunded: refund,
		Reason:         reason,
		OccurredAt:     time.Now().UTC(),
	})
}
