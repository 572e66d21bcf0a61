package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campus-shuttle/service-shuttle/internal/geo"
)

// Stop is a point served by one or more routes. Location is nil when the
// stop has no recorded coordinates.
type Stop struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Location *geo.Coordinate `json:"location,omitempty"`
}

// Coordinate returns the stop's position, or nil if unknown.
func (s Stop) Coordinate() *geo.Coordinate { return s.Location }

// Route is an ordered, one-directional sequence of stops. EstimatedMinutes
// is the traversal time of the whole route, not of any sub-segment.
type Route struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Stops            []Stop    `json:"stops"`
	PeakHours        []string  `json:"peak_hours"`
	EstimatedMinutes int       `json:"estimated_minutes"`
}

// IndexOf returns the position of stopID on the route, or -1.
func (r *Route) IndexOf(stopID uuid.UUID) int {
	for i, s := range r.Stops {
		if s.ID == stopID {
			return i
		}
	}
	return -1
}

// Coordinates returns the stop positions in route order.
func (r *Route) Coordinates() []*geo.Coordinate {
	return Coordinates(r.Stops)
}

// TransferPoint is a stop where switching routes is sanctioned, with a wait
// penalty in minutes.
type TransferPoint struct {
	ID          uuid.UUID `json:"id"`
	StopID      uuid.UUID `json:"stop_id"`
	Name        string    `json:"name"`
	WaitMinutes int       `json:"wait_minutes"`
	CreatedAt   time.Time `json:"created_at"`
}

// Snapshot is a read-only view of the catalog for the duration of one query.
type Snapshot struct {
	Stops          []Stop
	Routes         []Route
	TransferPoints []TransferPoint
}

// Stop looks up a stop by id.
func (s *Snapshot) Stop(id uuid.UUID) (Stop, bool) {
	for _, st := range s.Stops {
		if st.ID == id {
			return st, true
		}
	}
	for _, r := range s.Routes {
		if i := r.IndexOf(id); i >= 0 {
			return r.Stops[i], true
		}
	}
	return Stop{}, false
}

// Route looks up a route by id.
func (s *Snapshot) Route(id uuid.UUID) (*Route, bool) {
	for i := range s.Routes {
		if s.Routes[i].ID == id {
			return &s.Routes[i], true
		}
	}
	return nil, false
}

// TransferPointAt returns the registered transfer point at stopID, if any.
func (s *Snapshot) TransferPointAt(stopID uuid.UUID) (*TransferPoint, bool) {
	for i := range s.TransferPoints {
		if s.TransferPoints[i].StopID == stopID {
			return &s.TransferPoints[i], true
		}
	}
	return nil, false
}

// Validate checks that stop ids are unique and no route visits a stop twice.
func (s *Snapshot) Validate() error {
	seen := make(map[uuid.UUID]struct{}, len(s.Stops))
	for _, st := range s.Stops {
		if _, dup := seen[st.ID]; dup {
			return fmt.Errorf("duplicate stop %s", st.ID)
		}
		seen[st.ID] = struct{}{}
	}
	for _, r := range s.Routes {
		onRoute := make(map[uuid.UUID]struct{}, len(r.Stops))
		for _, st := range r.Stops {
			if _, dup := onRoute[st.ID]; dup {
				return fmt.Errorf("route %q visits stop %s more than once", r.Name, st.ID)
			}
			onRoute[st.ID] = struct{}{}
		}
	}
	return nil
}

// Coordinates returns the positions of stops in order.
func Coordinates(stops []Stop) []*geo.Coordinate {
	points := make([]*geo.Coordinate, len(stops))
	for i, s := range stops {
		points[i] = s.Location
	}
	return points
}
