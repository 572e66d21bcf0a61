package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pt(lat, lon float64) *Coordinate { return &Coordinate{Lat: lat, Lon: lon} }

func TestDistance(t *testing.T) {
	tests := []struct {
		name      string
		a, b      *Coordinate
		expected  float64
		tolerance float64
	}{
		{name: "same point", a: pt(28.4506, 77.5842), b: pt(28.4506, 77.5842), expected: 0},
		{name: "one degree of longitude at the equator", a: pt(0, 0), b: pt(0, 1), expected: 111.19, tolerance: 0.005},
		{name: "London to Paris", a: pt(51.5074, -0.1278), b: pt(48.8566, 2.3522), expected: 343.56, tolerance: 1},
		{name: "quarter of the equator", a: pt(0, 0), b: pt(0, 90), expected: 10007.54, tolerance: 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := Distance(tt.a, tt.b)
			require.True(t, ok)
			assert.InDelta(t, tt.expected, d, tt.tolerance)
		})
	}
}

func TestDistance_IsRoundedToTwoDecimals(t *testing.T) {
	d, ok := Distance(pt(28.4506, 77.5842), pt(28.4744, 77.5040))
	require.True(t, ok)
	assert.Equal(t, d, math.Round(d*100)/100)
}

func TestDistance_Symmetric(t *testing.T) {
	points := []*Coordinate{pt(0, 0), pt(28.45, 77.58), pt(-33.86, 151.2), pt(89.9, -179.9), pt(12.97, 77.59)}
	for _, a := range points {
		for _, b := range points {
			ab, okAB := Distance(a, b)
			ba, okBA := Distance(b, a)
			require.True(t, okAB)
			require.True(t, okBA)
			assert.Equal(t, ab, ba)
		}
		aa, _ := Distance(a, a)
		assert.Zero(t, aa)
	}
}

func TestDistance_UnknownCoordinate(t *testing.T) {
	_, ok := Distance(nil, pt(0, 0))
	assert.False(t, ok)
	_, ok = Distance(pt(0, 0), nil)
	assert.False(t, ok)
	_, ok = Distance(nil, nil)
	assert.False(t, ok)
}

func TestNewCoordinate(t *testing.T) {
	lat, lon := 28.45, 77.58
	assert.Nil(t, NewCoordinate(nil, &lon))
	assert.Nil(t, NewCoordinate(&lat, nil))
	assert.Equal(t, &Coordinate{Lat: lat, Lon: lon}, NewCoordinate(&lat, &lon))
}

func TestDistance_OutOfRangeIsAccepted(t *testing.T) {
	d, ok := Distance(pt(200, 500), pt(-300, 10))
	assert.True(t, ok)
	assert.False(t, math.IsNaN(d))
}

func TestPathDistance(t *testing.T) {
	a, b, c := pt(0, 0), pt(0, 1), pt(0, 2)

	ab, _ := Distance(a, b)
	bc, _ := Distance(b, c)

	total, ok := PathDistance([]*Coordinate{a, b, c})
	require.True(t, ok)
	assert.Equal(t, Round2(ab+bc), total)

	legs, ok := PathLegs([]*Coordinate{a, b, c})
	require.True(t, ok)
	assert.Equal(t, []float64{ab, bc}, legs)
	assert.Equal(t, SumKm(legs...), total)
}

func TestPathDistance_ShortCircuits(t *testing.T) {
	_, ok := PathDistance(nil)
	assert.False(t, ok)

	_, ok = PathDistance([]*Coordinate{pt(0, 0)})
	assert.False(t, ok)

	_, ok = PathDistance([]*Coordinate{pt(0, 0), nil, pt(0, 2)})
	assert.False(t, ok)
}

func TestPathDistance_MonotonicAsStopsAppended(t *testing.T) {
	path := []*Coordinate{pt(28.45, 77.58), pt(28.47, 77.50)}
	prev, ok := PathDistance(path)
	require.True(t, ok)

	for _, next := range []*Coordinate{pt(28.50, 77.52), pt(28.50, 77.52), pt(28.40, 77.60), pt(28.62, 77.21)} {
		path = append(path, next)
		d, ok := PathDistance(path)
		require.True(t, ok)
		assert.GreaterOrEqual(t, d, prev)
		prev = d
	}
}

type place struct {
	name string
	loc  *Coordinate
}

func (p place) Coordinate() *Coordinate { return p.loc }

func TestNearest(t *testing.T) {
	campus := pt(28.4506, 77.5842)
	places := []place{
		{name: "far", loc: pt(28.70, 77.10)},
		{name: "unknown", loc: nil},
		{name: "gate", loc: pt(28.4510, 77.5850)},
		{name: "market", loc: pt(28.47, 77.51)},
		{name: "hostel", loc: pt(28.4520, 77.5900)},
	}

	ranked := Nearest(campus, places, 3)
	require.Len(t, ranked, 3)
	assert.Equal(t, "gate", ranked[0].Item.name)
	assert.Equal(t, "hostel", ranked[1].Item.name)
	assert.Equal(t, "market", ranked[2].Item.name)

	all := Nearest(campus, places, 0)
	require.Len(t, all, 5)
	assert.Equal(t, "unknown", all[4].Item.name)
	assert.False(t, all[4].Known)
}
