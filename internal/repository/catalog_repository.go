package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campus-shuttle/service-shuttle/internal/domain/catalog"
	"github.com/campus-shuttle/service-shuttle/internal/geo"
)

// StopModel is the GORM model for the stops table. Latitude and longitude
// are nullable; a stop missing either has no known position.
type StopModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(200);not null"`
	Latitude  *float64  `gorm:"type:double precision"`
	Longitude *float64  `gorm:"type:double precision"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (StopModel) TableName() string { return "stops" }

// RouteModel is the GORM model for the routes table.
type RouteModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name             string          `gorm:"type:varchar(200);not null"`
	Description      string          `gorm:"type:text"`
	PeakHours        json.RawMessage `gorm:"type:jsonb;not null;default:'[]'"`
	EstimatedMinutes int             `gorm:"not null;default:0"`
	CreatedAt        time.Time       `gorm:"type:timestamptz;not null;default:now()"`
}

func (RouteModel) TableName() string { return "routes" }

// RouteStopModel places a stop on a route at a zero-based position.
type RouteStopModel struct {
	RouteID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position int       `gorm:"primaryKey"`
	StopID   uuid.UUID `gorm:"type:uuid;not null"`
}

func (RouteStopModel) TableName() string { return "route_stops" }

// TransferPointModel is the GORM model for the transfer_points table.
type TransferPointModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	StopID      uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Name        string    `gorm:"type:varchar(200);not null"`
	WaitMinutes int       `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (TransferPointModel) TableName() string { return "transfer_points" }

// GormCatalogRepository reads the route catalog.
type GormCatalogRepository struct {
	db *gorm.DB
}

func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// Snapshot loads the whole catalog. Routes reference stops by id; a route
// stop missing from the stops table is dropped from the route.
func (r *GormCatalogRepository) Snapshot(ctx context.Context) (*catalog.Snapshot, error) {
	stops, err := r.ListStops(ctx)
	if err != nil {
		return nil, err
	}
	routes, err := r.listRoutes(ctx, stops)
	if err != nil {
		return nil, err
	}
	tps, err := r.ListTransferPoints(ctx)
	if err != nil {
		return nil, err
	}
	return &catalog.Snapshot{Stops: stops, Routes: routes, TransferPoints: tps}, nil
}

// ListStops returns every stop ordered by name.
func (r *GormCatalogRepository) ListStops(ctx context.Context) ([]catalog.Stop, error) {
	var models []StopModel
	if err := conn(ctx, r.db).Order("name ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list stops: %w", err)
	}

	stops := make([]catalog.Stop, len(models))
	for i, m := range models {
		stops[i] = catalog.Stop{
			ID:       m.ID,
			Name:     m.Name,
			Location: geo.NewCoordinate(m.Latitude, m.Longitude),
		}
	}
	return stops, nil
}

// ListRoutes returns every route with its stops in order.
func (r *GormCatalogRepository) ListRoutes(ctx context.Context) ([]catalog.Route, error) {
	stops, err := r.ListStops(ctx)
	if err != nil {
		return nil, err
	}
	return r.listRoutes(ctx, stops)
}

func (r *GormCatalogRepository) listRoutes(ctx context.Context, stops []catalog.Stop) ([]catalog.Route, error) {
	var models []RouteModel
	if err := conn(ctx, r.db).Order("name ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}

	var links []RouteStopModel
	if err := conn(ctx, r.db).Order("route_id, position ASC").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to list route stops: %w", err)
	}

	byID := make(map[uuid.UUID]catalog.Stop, len(stops))
	for _, st := range stops {
		byID[st.ID] = st
	}
	onRoute := make(map[uuid.UUID][]catalog.Stop, len(models))
	for _, l := range links {
		if st, ok := byID[l.StopID]; ok {
			onRoute[l.RouteID] = append(onRoute[l.RouteID], st)
		}
	}

	routes := make([]catalog.Route, len(models))
	for i, m := range models {
		var peak []string
		if len(m.PeakHours) > 0 {
			if err := json.Unmarshal(m.PeakHours, &peak); err != nil {
				return nil, fmt.Errorf("failed to unmarshal peak hours of route %s: %w", m.ID, err)
			}
		}
		routes[i] = catalog.Route{
			ID:               m.ID,
			Name:             m.Name,
			Description:      m.Description,
			Stops:            onRoute[m.ID],
			PeakHours:        peak,
			EstimatedMinutes: m.EstimatedMinutes,
		}
	}
	return routes, nil
}

// ListTransferPoints returns the registered transfer points.
func (r *GormCatalogRepository) ListTransferPoints(ctx context.Context) ([]catalog.TransferPoint, error) {
	var models []TransferPointModel
	if err := conn(ctx, r.db).Order("name ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list transfer points: %w", err)
	}

	tps := make([]catalog.TransferPoint, len(models))
	for i, m := range models {
		tps[i] = catalog.TransferPoint{
			ID:          m.ID,
			StopID:      m.StopID,
			Name:        m.Name,
			WaitMinutes: m.WaitMinutes,
			CreatedAt:   m.CreatedAt,
		}
	}
	return tps, nil
}
