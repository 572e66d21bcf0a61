package booking

import (
	"fmt"
	"math"
)

// minutesPerPoint is the fare unit: one point per started five minutes.
const minutesPerPoint = 5

// PricingStrategy defines the interface for calculating a trip's fare in points.
type PricingStrategy interface {
	// Calculate returns the number of points charged for the trip.
	Calculate(params PricingParams) (int, error)
}

// PricingParams holds the inputs for fare calculation.
type PricingParams struct {
	DurationMinutes int
	DistanceKm      float64
	Transfer        bool
}

// StandardPricingStrategy charges by travel time only.
type StandardPricingStrategy struct{}

// NewStandardPricingStrategy creates a new StandardPricingStrategy.
func NewStandardPricingStrategy() *StandardPricingStrategy {
	return &StandardPricingStrategy{}
}

// Calculate returns ceil(duration / 5) points. A 12-minute trip costs 3
// points and a 10-minute trip costs 2.
func (s *StandardPricingStrategy) Calculate(params PricingParams) (int, error) {
	if params.DurationMinutes < 0 {
		return 0, fmt.Errorf("duration cannot be negative")
	}
	return int(math.Ceil(float64(params.DurationMinutes) / minutesPerPoint)), nil
}
