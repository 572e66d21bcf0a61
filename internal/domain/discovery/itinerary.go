package discovery

import (
	"errors"

	"github.com/google/uuid"

	"github.com/campus-shuttle/service-shuttle/internal/domain/catalog"
)

// ErrInvalidQuery is returned when an endpoint is not in the catalog or the
// origin equals the destination.
var ErrInvalidQuery = errors.New("invalid route query")

// ErrInvalidCatalog is returned when the snapshot breaks a catalog invariant,
// such as a route visiting the same stop twice.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Kind distinguishes direct trips from single-transfer trips.
type Kind string

const (
	KindDirect   Kind = "direct"
	KindTransfer Kind = "transfer"
)

// Strategy selects how transfer itineraries are enumerated.
type Strategy string

const (
	// AnyStopTransferSearch joins two routes at any stop they share. Segment
	// distances cover only the ridden slices and the duration is the sum of
	// both full route durations.
	AnyStopTransferSearch Strategy = "any_stop"

	// RegisteredTransferPointSearch joins two different routes only at
	// registered transfer points. Segment distances cover the whole routes
	// (unknown counts as zero) and the duration adds the transfer wait.
	RegisteredTransferPointSearch Strategy = "registered_transfer_point"
)

// IsValid reports whether s is a known strategy.
func (s Strategy) IsValid() bool {
	return s == AnyStopTransferSearch || s == RegisteredTransferPointSearch
}

// ParseStrategy maps an empty string to AnyStopTransferSearch.
func ParseStrategy(s string) (Strategy, error) {
	if s == "" {
		return AnyStopTransferSearch, nil
	}
	st := Strategy(s)
	if !st.IsValid() {
		return "", errors.New("unknown transfer strategy: " + s)
	}
	return st, nil
}

// Query is an origin/destination pair of stop ids.
type Query struct {
	Origin      uuid.UUID
	Destination uuid.UUID
}

// Segment is the part of a trip ridden on a single route. Stops are listed
// in travel order.
type Segment struct {
	RouteID         uuid.UUID      `json:"route_id"`
	RouteName       string         `json:"route_name"`
	Stops           []catalog.Stop `json:"stops"`
	Legs            []float64      `json:"legs_km,omitempty"`
	DistanceKm      float64        `json:"distance_km"`
	DurationMinutes int            `json:"duration_minutes"`
	Reversed        bool           `json:"reversed"`
}

// Itinerary is one way of travelling from origin to destination.
type Itinerary struct {
	Kind            Kind          `json:"kind"`
	Strategy        Strategy      `json:"strategy,omitempty"`
	Segments        []Segment     `json:"segments"`
	TransferStop    *catalog.Stop `json:"transfer_stop,omitempty"`
	TransferPointID *uuid.UUID    `json:"transfer_point_id,omitempty"`
	WaitMinutes     int           `json:"wait_minutes"`
	DistanceKm      float64       `json:"distance_km"`
	DurationMinutes int           `json:"duration_minutes"`
	PeakHours       []string      `json:"peak_hours"`
}

// Stops returns the full stop sequence. The transfer stop appears once.
func (it Itinerary) Stops() []catalog.Stop {
	var stops []catalog.Stop
	for i, seg := range it.Segments {
		if i == 0 {
			stops = append(stops, seg.Stops...)
			continue
		}
		stops = append(stops, seg.Stops[1:]...)
	}
	return stops
}

// FirstRouteID returns the route boarded at the origin.
func (it Itinerary) FirstRouteID() uuid.UUID {
	return it.Segments[0].RouteID
}

// SecondRouteID returns the route boarded at the transfer stop, or nil for
// direct trips.
func (it Itinerary) SecondRouteID() *uuid.UUID {
	if len(it.Segments) < 2 {
		return nil
	}
	id := it.Segments[1].RouteID
	return &id
}

// Result is the outcome of a discovery call. An empty result means no viable
// route; Excluded counts candidates dropped for missing coordinates.
type Result struct {
	Itineraries []Itinerary `json:"itineraries"`
	Excluded    int         `json:"excluded"`
}

// Empty reports whether no itinerary was found.
func (r Result) Empty() bool { return len(r.Itineraries) == 0 }

// BestRoute pairs the first direct itinerary with the optimal registered
// transfer. Either may be nil.
type BestRoute struct {
	Direct   *Itinerary `json:"direct"`
	Transfer *Itinerary `json:"transfer"`
}
