package booking

import (
	"github.com/google/uuid"

	"github.com/campus-shuttle/service-shuttle/internal/platform/domain"
)

// Selection is the itinerary a rider chose, reduced to what a booking keeps.
// Transfer fields are nil for direct trips.
type Selection struct {
	RouteID          uuid.UUID  `json:"route_id"`
	StartStopID      uuid.UUID  `json:"start_stop_id"`
	EndStopID        uuid.UUID  `json:"end_stop_id"`
	SecondRouteID    *uuid.UUID `json:"second_route_id,omitempty"`
	TransferStopID   *uuid.UUID `json:"transfer_stop_id,omitempty"`
	TransferPointID  *uuid.UUID `json:"transfer_point_id,omitempty"`
	TotalWaitMinutes *int       `json:"total_wait_time,omitempty"`
	DistanceKm       float64    `json:"distance_km"`
	DurationMinutes  int        `json:"duration_minutes"`
	Strategy         string     `json:"strategy,omitempty"`
}

// IsTransfer reports whether the trip changes routes once.
func (s Selection) IsTransfer() bool {
	return s.SecondRouteID != nil
}

// Kind returns "transfer" or "direct".
func (s Selection) Kind() string {
	if s.IsTransfer() {
		return "transfer"
	}
	return "direct"
}

// Validate checks the selection is internally consistent.
func (s Selection) Validate() error {
	if s.RouteID == uuid.Nil {
		return domain.NewValidationError("route ID is required")
	}
	if s.StartStopID == uuid.Nil || s.EndStopID == uuid.Nil {
		return domain.NewValidationError("start and end stops are required")
	}
	if s.StartStopID == s.EndStopID {
		return domain.NewValidationError("start and end stops must differ")
	}
	if s.IsTransfer() && s.TransferStopID == nil {
		return domain.NewValidationError("transfer stop is required for a transfer trip")
	}
	if !s.IsTransfer() && (s.TransferStopID != nil || s.TransferPointID != nil) {
		return domain.NewValidationError("transfer details given for a direct trip")
	}
	if s.DistanceKm < 0 || s.DurationMinutes < 0 {
		return domain.NewValidationError("distance and duration must not be negative")
	}
	if s.TotalWaitMinutes != nil && *s.TotalWaitMinutes < 0 {
		return domain.NewValidationError("wait time must not be negative")
	}
	return nil
}
