package model

import "time"

// Core domain types for the traffic data layer.

// Sensor is the latest known state of one fixed traffic-monitoring point.
// Location is always present and valid; speed limit, current speed and flow
// are independently nullable because the feed may omit any of them.
type Sensor struct {
    ID           string     `json:"detid"`
    Lat          float64    `json:"lat"`
    Lon          float64    `json:"lon"`
    RoadName     *string    `json:"road_name,omitempty"`
    SpeedLimit   *float64   `json:"speed_limit,omitempty"`
    CurrentSpeed *float64   `json:"current_speed,omitempty"`
    CurrentFlow  *float64   `json:"current_flow,omitempty"`
    LastUpdated  *time.Time `json:"last_updated,omitempty"`
}

// HistoricalReading is one stored observation for a sensor. Immutable once
// stored; Speed may be null when the detector missed an interval.
type HistoricalReading struct {
    SensorID  string    `json:"detid"`
    Timestamp time.Time `json:"timestamp"`
    Speed     *float64  `json:"speed"`
    Flow      *float64  `json:"flow,omitempty"`
    Occupancy *float64  `json:"occupancy,omitempty"`
}

// ReadingIn is the ingest form of a reading, pushed by the feed loader.
type ReadingIn struct {
    SensorID   string    `json:"detid"`
    Lat        float64   `json:"lat"`
    Lon        float64   `json:"lon"`
    Timestamp  time.Time `json:"timestamp"`
    Speed      *float64  `json:"speed"`
    Flow       *float64  `json:"flow,omitempty"`
    Occupancy  *float64  `json:"occupancy,omitempty"`
    RoadName   *string   `json:"road_name,omitempty"`
    SpeedLimit *float64  `json:"speed_limit,omitempty"`
}

// Bounds is a non-wrapping viewport rectangle (closed on all edges).
type Bounds struct {
    MinLat float64 `json:"minLat"`
    MinLon float64 `json:"minLon"`
    MaxLat float64 `json:"maxLat"`
    MaxLon float64 `json:"maxLon"`
}

// RoutePoint is one decoded point of a route geometry; ordering along the
// route is significant.
type RoutePoint struct {
    Lat float64 `json:"lat"`
    Lon float64 `json:"lon"`
}

// MatchResult pairs a sampled route point with the nearest sensor inside the
// matching radius, or with no sensor at all.
type MatchResult struct {
    Point  RoutePoint `json:"point"`
    Sensor *Sensor    `json:"sensor,omitempty"`
    DistM  float64    `json:"distM,omitempty"`
}

// RouteAnalysis is the aggregate verdict for one analyzed route. Produced
// per request, never persisted.
type RouteAnalysis struct {
    Condition         string   `json:"condition"`
    AverageRatio      *float64 `json:"average_congestion_ratio"`
    SensorsConsidered int      `json:"sensors_considered"`
    SensorsWithData   int      `json:"sensors_with_data"`
}

// Read models for API responses.

// HistoryPoint is one chart point of the history response.
type HistoryPoint struct {
    Timestamp time.Time `json:"timestamp"`
    Speed     *float64  `json:"speed"`
}

type SensorHistoryResponse struct {
    SensorID string         `json:"detid"`
    Readings []HistoryPoint `json:"readings"`
}

// SensorPredictionResponse carries the next-interval prediction. Available
// is false when the inference step failed or there was not enough history;
// the caller renders "no prediction" instead of an error.
type SensorPredictionResponse struct {
    SensorID       string         `json:"detid"`
    Available      bool           `json:"available"`
    PredictedSpeed *float64       `json:"predicted_speed_for_next_interval,omitempty"`
    TargetTime     *time.Time     `json:"prediction_target_time,omitempty"`
    History        []HistoryPoint `json:"historical_speeds,omitempty"`
}

// RouteAnalysisRequest is the body of POST /v1/routes/analyze.
type RouteAnalysisRequest struct {
    Polyline string `json:"overview_polyline"`
}
