// Package discovery enumerates direct and single-transfer itineraries between
// two stops over a read-only catalog snapshot.
//
// The engine performs no I/O and keeps no state between calls; every index it
// needs is built per call, so one Engine may serve concurrent queries as long
// as callers do not mutate the snapshots they pass in.
package discovery

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/campus-shuttle/service-shuttle/internal/domain/catalog"
	"github.com/campus-shuttle/service-shuttle/internal/geo"
)

// Direction controls whether a route may be ridden against its stop order.
type Direction int

const (
	// AllowReverse rides the stops between the two indices whichever comes
	// first on the route.
	AllowReverse Direction = iota
	// ForwardOnly requires boarding before alighting in route order.
	ForwardOnly
)

// DurationPolicy controls how a partial ride is timed.
type DurationPolicy int

const (
	// FullRoute charges the route's whole estimated time for any slice.
	FullRoute DurationPolicy = iota
	// Prorated scales the route time by the slice's share of the route
	// distance, falling back to the full time when that is unknown.
	Prorated
)

// ParseDirection accepts "allow_reverse" (or empty) and "forward_only".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "allow_reverse":
		return AllowReverse, nil
	case "forward_only":
		return ForwardOnly, nil
	}
	return 0, fmt.Errorf("unknown direction policy: %s", s)
}

// ParseDurationPolicy accepts "full_route" (or empty) and "prorated".
func ParseDurationPolicy(s string) (DurationPolicy, error) {
	switch s {
	case "", "full_route":
		return FullRoute, nil
	case "prorated":
		return Prorated, nil
	}
	return 0, fmt.Errorf("unknown duration policy: %s", s)
}

// Options configures an Engine. The zero value is AllowReverse with
// FullRoute timing.
type Options struct {
	Direction Direction
	Duration  DurationPolicy
}

// Engine computes itineraries.
type Engine struct {
	opts Options
}

// NewEngine creates an Engine with the given options.
func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

// routeIndex caches stop positions and the whole-route distance of one route.
type routeIndex struct {
	route     *catalog.Route
	pos       map[uuid.UUID]int
	fullKm    float64
	fullKnown bool
}

func buildIndex(snap *catalog.Snapshot) []routeIndex {
	idx := make([]routeIndex, len(snap.Routes))
	for i := range snap.Routes {
		r := &snap.Routes[i]
		pos := make(map[uuid.UUID]int, len(r.Stops))
		for j, s := range r.Stops {
			pos[s.ID] = j
		}
		km, ok := geo.PathDistance(r.Coordinates())
		idx[i] = routeIndex{route: r, pos: pos, fullKm: km, fullKnown: ok}
	}
	return idx
}

// Discover returns every viable direct itinerary plus the transfer
// itineraries produced by strategy, sorted by ascending distance. Ties keep
// enumeration order: directs in route order, then transfers.
func (e *Engine) Discover(snap *catalog.Snapshot, q Query, strategy Strategy) (Result, error) {
	if !strategy.IsValid() {
		return Result{}, fmt.Errorf("%w: unknown transfer strategy %q", ErrInvalidQuery, strategy)
	}
	if err := validateQuery(snap, q); err != nil {
		return Result{}, err
	}

	idx := buildIndex(snap)
	res := Result{Itineraries: []Itinerary{}}
	e.directs(idx, q, &res)

	switch strategy {
	case AnyStopTransferSearch:
		e.anyStopTransfers(snap, idx, q, &res)
	case RegisteredTransferPointSearch:
		res.Itineraries = append(res.Itineraries, e.registeredTransfers(snap, idx, q)...)
	}

	sort.SliceStable(res.Itineraries, func(i, j int) bool {
		return res.Itineraries[i].DistanceKm < res.Itineraries[j].DistanceKm
	})
	return res, nil
}

// OptimalTransfer returns the registered-transfer itinerary with the lowest
// total time, including the wait. The first candidate wins a tie. It returns
// nil when no registered transfer connects the two stops.
func (e *Engine) OptimalTransfer(snap *catalog.Snapshot, q Query) (*Itinerary, error) {
	if err := validateQuery(snap, q); err != nil {
		return nil, err
	}
	return pickFastest(e.registeredTransfers(snap, buildIndex(snap), q)), nil
}

// Best returns the first viable direct itinerary in catalog order together
// with the optimal registered transfer.
func (e *Engine) Best(snap *catalog.Snapshot, q Query) (BestRoute, error) {
	if err := validateQuery(snap, q); err != nil {
		return BestRoute{}, err
	}

	idx := buildIndex(snap)
	var best BestRoute

	var directs Result
	e.directs(idx, q, &directs)
	if len(directs.Itineraries) > 0 {
		first := directs.Itineraries[0]
		best.Direct = &first
	}
	best.Transfer = pickFastest(e.registeredTransfers(snap, idx, q))
	return best, nil
}

func validateQuery(snap *catalog.Snapshot, q Query) error {
	if q.Origin == q.Destination {
		return fmt.Errorf("%w: origin and destination are the same stop", ErrInvalidQuery)
	}
	if snap == nil {
		return fmt.Errorf("%w: empty catalog", ErrInvalidQuery)
	}
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if _, ok := snap.Stop(q.Origin); !ok {
		return fmt.Errorf("%w: unknown origin stop %s", ErrInvalidQuery, q.Origin)
	}
	if _, ok := snap.Stop(q.Destination); !ok {
		return fmt.Errorf("%w: unknown destination stop %s", ErrInvalidQuery, q.Destination)
	}
	return nil
}

func (e *Engine) directs(idx []routeIndex, q Query, res *Result) {
	for i := range idx {
		ri := &idx[i]
		from, okFrom := ri.pos[q.Origin]
		to, okTo := ri.pos[q.Destination]
		if !okFrom || !okTo || !e.canRide(from, to) {
			continue
		}

		seg, ok := e.ride(ri, from, to)
		if !ok {
			res.Excluded++
			continue
		}

		res.Itineraries = append(res.Itineraries, Itinerary{
			Kind:            KindDirect,
			Segments:        []Segment{seg},
			DistanceKm:      seg.DistanceKm,
			DurationMinutes: seg.DurationMinutes,
			PeakHours:       mergePeakHours(ri.route.PeakHours),
		})
	}
}

func (e *Engine) anyStopTransfers(snap *catalog.Snapshot, idx []routeIndex, q Query, res *Result) {
	for i := range idx {
		first := &idx[i]
		from, ok := first.pos[q.Origin]
		if !ok {
			continue
		}

		for j := range idx {
			if i == j {
				continue
			}
			second := &idx[j]
			to, ok := second.pos[q.Destination]
			if !ok {
				continue
			}

			for t, stop := range first.route.Stops {
				join, shared := second.pos[stop.ID]
				if !shared || !e.canRide(from, t) || !e.canRide(join, to) {
					continue
				}

				seg1, ok1 := e.ride(first, from, t)
				seg2, ok2 := e.ride(second, join, to)
				if !ok1 || !ok2 {
					res.Excluded++
					continue
				}

				it := newTransfer(AnyStopTransferSearch, first, second, seg1, seg2, stop)
				it.DistanceKm = geo.SumKm(seg1.DistanceKm, seg2.DistanceKm)
				it.DurationMinutes = seg1.DurationMinutes + seg2.DurationMinutes
				if tp, ok := snap.TransferPointAt(stop.ID); ok {
					id := tp.ID
					it.TransferPointID = &id
					it.WaitMinutes = tp.WaitMinutes
				}
				res.Itineraries = append(res.Itineraries, it)
			}
		}
	}
}

func (e *Engine) registeredTransfers(snap *catalog.Snapshot, idx []routeIndex, q Query) []Itinerary {
	var out []Itinerary
	for _, tp := range snap.TransferPoints {
		for i := range idx {
			first := &idx[i]
			from, okFrom := first.pos[q.Origin]
			t, okT := first.pos[tp.StopID]
			if !okFrom || !okT || !e.canRide(from, t) {
				continue
			}

			for j := range idx {
				if i == j {
					continue
				}
				second := &idx[j]
				join, okJoin := second.pos[tp.StopID]
				to, okTo := second.pos[q.Destination]
				if !okJoin || !okTo || !e.canRide(join, to) {
					continue
				}

				seg1 := wholeRoute(first, from, t)
				seg2 := wholeRoute(second, join, to)

				id := tp.ID
				it := newTransfer(RegisteredTransferPointSearch, first, second, seg1, seg2, first.route.Stops[t])
				it.TransferPointID = &id
				it.WaitMinutes = tp.WaitMinutes
				it.DistanceKm = geo.SumKm(seg1.DistanceKm, seg2.DistanceKm)
				it.DurationMinutes = seg1.DurationMinutes + seg2.DurationMinutes + tp.WaitMinutes
				out = append(out, it)
			}
		}
	}
	return out
}

func newTransfer(strategy Strategy, first, second *routeIndex, seg1, seg2 Segment, at catalog.Stop) Itinerary {
	stop := at
	return Itinerary{
		Kind:         KindTransfer,
		Strategy:     strategy,
		Segments:     []Segment{seg1, seg2},
		TransferStop: &stop,
		PeakHours:    mergePeakHours(first.route.PeakHours, second.route.PeakHours),
	}
}

func pickFastest(candidates []Itinerary) *Itinerary {
	var best *Itinerary
	for i := range candidates {
		if best == nil || candidates[i].DurationMinutes < best.DurationMinutes {
			best = &candidates[i]
		}
	}
	return best
}

// canRide reports whether a slice from index a to index b is a ride of at
// least one leg allowed by the direction policy.
func (e *Engine) canRide(a, b int) bool {
	if a == b {
		return false
	}
	return e.opts.Direction == AllowReverse || a < b
}

// ride measures the stops between indices a and b. ok is false when any
// stop on the slice has no coordinates.
func (e *Engine) ride(ri *routeIndex, a, b int) (Segment, bool) {
	seg := slice(ri, a, b)

	legs, ok := geo.PathLegs(catalog.Coordinates(seg.Stops))
	if !ok {
		return Segment{}, false
	}
	seg.Legs = legs
	seg.DistanceKm = geo.SumKm(legs...)
	seg.DurationMinutes = e.duration(ri, seg.DistanceKm)
	return seg, true
}

func (e *Engine) duration(ri *routeIndex, km float64) int {
	minutes := ri.route.EstimatedMinutes
	if e.opts.Duration != Prorated || !ri.fullKnown || ri.fullKm <= 0 {
		return minutes
	}
	share := math.Min(km/ri.fullKm, 1)
	return int(math.Round(float64(minutes) * share))
}

// wholeRoute describes the ridden slice but measures the entire route, with
// an unknown distance counted as zero.
func wholeRoute(ri *routeIndex, a, b int) Segment {
	seg := slice(ri, a, b)
	if ri.fullKnown {
		seg.DistanceKm = ri.fullKm
	}
	seg.DurationMinutes = ri.route.EstimatedMinutes
	return seg
}

// slice copies the stops between a and b in travel order.
func slice(ri *routeIndex, a, b int) Segment {
	seg := Segment{RouteID: ri.route.ID, RouteName: ri.route.Name}
	if a <= b {
		seg.Stops = append([]catalog.Stop(nil), ri.route.Stops[a:b+1]...)
		return seg
	}
	seg.Reversed = true
	seg.Stops = make([]catalog.Stop, 0, a-b+1)
	for k := a; k >= b; k-- {
		seg.Stops = append(seg.Stops, ri.route.Stops[k])
	}
	return seg
}

func mergePeakHours(sets ...[]string) []string {
	seen := make(map[string]struct{})
	merged := []string{}
	for _, set := range sets {
		for _, h := range set {
			if _, dup := seen[h]; dup {
				continue
			}
			seen[h] = struct{}{}
			merged = append(merged, h)
		}
	}
	return merged
}
