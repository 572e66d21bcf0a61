package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/campus-shuttle/service-shuttle/internal/domain/booking"
	"github.com/campus-shuttle/service-shuttle/internal/domain/catalog"
	"github.com/campus-shuttle/service-shuttle/internal/domain/discovery"
	"github.com/campus-shuttle/service-shuttle/internal/geo"
	"github.com/campus-shuttle/service-shuttle/internal/platform/domain"
	"github.com/campus-shuttle/service-shuttle/internal/platform/metrics"
)

// DefaultNearbyStops is how many stops NearbyStops returns when no limit is given.
const DefaultNearbyStops = 3

// StopDTO is the response representation of a stop.
type StopDTO struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	Latitude             *float64  `json:"latitude"`
	Longitude            *float64  `json:"longitude"`
	DistanceKm           *float64  `json:"distance_km,omitempty"`
	DistanceFromCampusKm *float64  `json:"distance_from_campus_km,omitempty"`
}

// RouteDTO is the response representation of a route.
type RouteDTO struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Stops            []StopDTO `json:"stops"`
	PeakHours        []string  `json:"peak_hours"`
	EstimatedMinutes int       `json:"estimated_minutes"`
	DistanceKm       *float64  `json:"distance_km"`
}

// TransferPointDTO is the response representation of a transfer point.
type TransferPointDTO struct {
	ID          uuid.UUID `json:"id"`
	StopID      uuid.UUID `json:"stop_id"`
	StopName    string    `json:"stop_name"`
	Name        string    `json:"name"`
	WaitMinutes int       `json:"wait_minutes"`
}

// ItineraryDTO is an itinerary with its fare in points.
type ItineraryDTO struct {
	discovery.Itinerary
	Points int `json:"points"`
}

// SearchItinerariesRequest is an origin/destination query.
type SearchItinerariesRequest struct {
	Origin      uuid.UUID `json:"origin"`
	Destination uuid.UUID `json:"destination"`
	Strategy    string    `json:"strategy"`
}

// SearchItinerariesResult lists itineraries ranked by distance.
type SearchItinerariesResult struct {
	Strategy    discovery.Strategy `json:"strategy"`
	Itineraries []ItineraryDTO     `json:"itineraries"`
	Excluded    int                `json:"excluded"`
}

// BestRouteDTO pairs the first direct trip with the fastest registered transfer.
type BestRouteDTO struct {
	Direct   *ItineraryDTO `json:"direct"`
	Transfer *ItineraryDTO `json:"transfer"`
}

// CatalogService serves the route catalog and itinerary search.
type CatalogService struct {
	repo    catalog.Repository
	engine  *discovery.Engine
	pricing bookingDomain.PricingStrategy
	campus  *geo.Coordinate
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewCatalogService creates a new CatalogService. campus may be nil.
func NewCatalogService(
	repo catalog.Repository,
	engine *discovery.Engine,
	pricing bookingDomain.PricingStrategy,
	campus *geo.Coordinate,
	m *metrics.Metrics,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		repo:    repo,
		engine:  engine,
		pricing: pricing,
		campus:  campus,
		metrics: m,
		logger:  logger,
	}
}

// ListStops returns every stop annotated with its distance from campus.
func (s *CatalogService) ListStops(ctx context.Context) ([]StopDTO, error) {
	stops, err := s.repo.ListStops(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stops: %w", err)
	}

	dtos := make([]StopDTO, len(stops))
	for i, st := range stops {
		dtos[i] = s.toStopDTO(st)
	}
	return dtos, nil
}

// NearbyStops returns the stops closest to the given position, nearest first.
// Stops without coordinates are never returned.
func (s *CatalogService) NearbyStops(ctx context.Context, lat, lon float64, limit int) ([]StopDTO, error) {
	if limit <= 0 {
		limit = DefaultNearbyStops
	}

	stops, err := s.repo.ListStops(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stops: %w", err)
	}

	ranked := geo.Nearest(&geo.Coordinate{Lat: lat, Lon: lon}, stops, limit)
	dtos := make([]StopDTO, 0, len(ranked))
	for _, r := range ranked {
		if !r.Known {
			continue
		}
		dto := s.toStopDTO(r.Item)
		d := r.DistanceKm
		dto.DistanceKm = &d
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

// ListRoutes returns every route with its ordered stops.
func (s *CatalogService) ListRoutes(ctx context.Context) ([]RouteDTO, error) {
	routes, err := s.repo.ListRoutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}

	dtos := make([]RouteDTO, len(routes))
	for i := range routes {
		dtos[i] = s.toRouteDTO(&routes[i])
	}
	return dtos, nil
}

// GetRoute returns a single route.
func (s *CatalogService) GetRoute(ctx context.Context, id uuid.UUID) (*RouteDTO, error) {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	r, ok := snap.Route(id)
	if !ok {
		return nil, domain.NewNotFoundError("Route", id.String())
	}
	dto := s.toRouteDTO(r)
	return &dto, nil
}

// ListTransferPoints returns the registered transfer points.
func (s *CatalogService) ListTransferPoints(ctx context.Context) ([]TransferPointDTO, error) {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	dtos := make([]TransferPointDTO, len(snap.TransferPoints))
	for i, tp := range snap.TransferPoints {
		dtos[i] = TransferPointDTO{
			ID:          tp.ID,
			StopID:      tp.StopID,
			Name:        tp.Name,
			WaitMinutes: tp.WaitMinutes,
		}
		if st, ok := snap.Stop(tp.StopID); ok {
			dtos[i].StopName = st.Name
		}
	}
	return dtos, nil
}

// SearchItineraries runs discovery on a fresh snapshot and prices each result.
func (s *CatalogService) SearchItineraries(ctx context.Context, req SearchItinerariesRequest) (*SearchItinerariesResult, error) {
	strategy, err := discovery.ParseStrategy(req.Strategy)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	start := time.Now()
	res, err := s.engine.Discover(snap, discovery.Query{Origin: req.Origin, Destination: req.Destination}, strategy)
	if err != nil {
		return nil, queryError(err)
	}
	s.metrics.ObserveDiscovery(string(strategy), time.Since(start), len(res.Itineraries))

	if res.Excluded > 0 {
		s.logger.Debug("itineraries excluded for missing coordinates",
			zap.String("origin", req.Origin.String()),
			zap.String("destination", req.Destination.String()),
			zap.Int("excluded", res.Excluded),
		)
	}

	dtos := make([]ItineraryDTO, 0, len(res.Itineraries))
	for _, it := range res.Itineraries {
		dto, err := s.price(it)
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, dto)
	}

	return &SearchItinerariesResult{
		Strategy:    strategy,
		Itineraries: dtos,
		Excluded:    res.Excluded,
	}, nil
}

// OptimalTransfer returns the fastest trip through a registered transfer
// point, or nil if there is none.
func (s *CatalogService) OptimalTransfer(ctx context.Context, origin, destination uuid.UUID) (*ItineraryDTO, error) {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	start := time.Now()
	it, err := s.engine.OptimalTransfer(snap, discovery.Query{Origin: origin, Destination: destination})
	if err != nil {
		return nil, queryError(err)
	}

	found := 0
	if it != nil {
		found = 1
	}
	s.metrics.ObserveDiscovery("optimal_transfer", time.Since(start), found)

	return s.priceOptional(it)
}

// BestRoute returns the first direct trip and the fastest registered transfer.
func (s *CatalogService) BestRoute(ctx context.Context, origin, destination uuid.UUID) (*BestRouteDTO, error) {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	best, err := s.engine.Best(snap, discovery.Query{Origin: origin, Destination: destination})
	if err != nil {
		return nil, queryError(err)
	}

	direct, err := s.priceOptional(best.Direct)
	if err != nil {
		return nil, err
	}
	transfer, err := s.priceOptional(best.Transfer)
	if err != nil {
		return nil, err
	}
	return &BestRouteDTO{Direct: direct, Transfer: transfer}, nil
}

func (s *CatalogService) price(it discovery.Itinerary) (ItineraryDTO, error) {
	points, err := s.pricing.Calculate(bookingDomain.PricingParams{
		DurationMinutes: it.DurationMinutes,
		DistanceKm:      it.DistanceKm,
		Transfer:        it.Kind == discovery.KindTransfer,
	})
	if err != nil {
		return ItineraryDTO{}, fmt.Errorf("failed to price itinerary: %w", err)
	}
	return ItineraryDTO{Itinerary: it, Points: points}, nil
}

func (s *CatalogService) priceOptional(it *discovery.Itinerary) (*ItineraryDTO, error) {
	if it == nil {
		return nil, nil
	}
	dto, err := s.price(*it)
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (s *CatalogService) toStopDTO(st catalog.Stop) StopDTO {
	dto := StopDTO{ID: st.ID, Name: st.Name}
	if st.Location != nil {
		lat, lon := st.Location.Lat, st.Location.Lon
		dto.Latitude = &lat
		dto.Longitude = &lon
	}
	if d, ok := geo.Distance(s.campus, st.Location); ok {
		dto.DistanceFromCampusKm = &d
	}
	return dto
}

func (s *CatalogService) toRouteDTO(r *catalog.Route) RouteDTO {
	stops := make([]StopDTO, len(r.Stops))
	for i, st := range r.Stops {
		stops[i] = s.toStopDTO(st)
	}

	dto := RouteDTO{
		ID:               r.ID,
		Name:             r.Name,
		Description:      r.Description,
		Stops:            stops,
		PeakHours:        r.PeakHours,
		EstimatedMinutes: r.EstimatedMinutes,
	}
	if d, ok := geo.PathDistance(r.Coordinates()); ok {
		dto.DistanceKm = &d
	}
	return dto
}

// queryError turns an invalid discovery query into a validation error.
func queryError(err error) error {
	if errors.Is(err, discovery.ErrInvalidQuery) {
		return domain.NewValidationError(err.Error())
	}
	return err
}
