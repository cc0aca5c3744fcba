package traffic

import (
	"context"
	"fmt"
	"time"

	"github.com/rishit-agarwal/traffic-dashboard/internal/geo"
	"github.com/rishit-agarwal/traffic-dashboard/internal/model"
)

// SensorSource is the slice of the store the analyzer needs.
type SensorSource interface {
	SensorsInBounds(ctx context.Context, b model.Bounds) ([]model.Sensor, error)
}

// Analyzer runs the route pipeline: decode, sample, match, aggregate.
type Analyzer struct {
	Source    SensorSource
	RadiusM   float64
	SampleCap int
	// Timeout bounds the candidate load from the store.
	Timeout time.Duration
}

func NewAnalyzer(src SensorSource, radiusM float64, sampleCap int) *Analyzer {
	return &Analyzer{Source: src, RadiusM: radiusM, SampleCap: sampleCap, Timeout: 5 * time.Second}
}

// Analyze assesses congestion along an encoded route geometry. A malformed
// polyline fails the whole request with *geo.DecodeError; partial sensor
// coverage is absorbed into the verdict instead.
func (a *Analyzer) Analyze(ctx context.Context, encoded string) (model.RouteAnalysis, error) {
	pts, err := geo.DecodePolyline(encoded)
	if err != nil {
		return model.RouteAnalysis{}, err
	}
	if len(pts) == 0 {
		return model.RouteAnalysis{}, &geo.DecodeError{Offset: 0, Reason: "empty polyline"}
	}
	sampled := SamplePoints(pts, a.SampleCap)

	// The envelope margin matches the radius so edge points keep their
	// full candidate neighborhood.
	env := geo.Envelope(sampled, a.RadiusM)
	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()
	sensors, err := a.Source.SensorsInBounds(ctx, env)
	if err != nil {
		return model.RouteAnalysis{}, fmt.Errorf("load sensors for route envelope: %w", err)
	}

	matches := MatchSensors(sampled, sensors, a.RadiusM)
	return Aggregate(matches), nil
}
