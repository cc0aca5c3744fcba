package store

import (
    "context"
    "errors"
    "time"

    "github.com/rishit-agarwal/traffic-dashboard/internal/model"
)

// Store is the sensor persistence interface used by the API server.
// All methods are safe for concurrent use; reads never mutate state.
type Store interface {
    // SensorsInBounds returns every sensor whose location falls within the
    // closed rectangle (non-wrapping, minLon < maxLon), capped at limit
    // when limit > 0. Result order is unspecified.
    SensorsInBounds(ctx context.Context, b model.Bounds, limit int) ([]model.Sensor, error)

    // SensorByID returns the latest state for one sensor or ErrNotFound.
    SensorByID(ctx context.Context, id string) (model.Sensor, error)

    // HistoryByID returns readings in the trailing window ordered by
    // timestamp ascending. Unknown id is ErrNotFound; an empty window or a
    // sensor with no readings yields an empty slice, not an error.
    HistoryByID(ctx context.Context, id string, window time.Duration) ([]model.HistoricalReading, error)

    // RecentReadings returns up to n most-recent readings for a sensor,
    // newest first. Used for prediction feature lags.
    RecentReadings(ctx context.Context, id string, n int) ([]model.HistoricalReading, error)

    // UpsertReadings ingests a batch from the feed loader: appends history
    // and refreshes each sensor's latest state. Entries with an invalid
    // location are skipped.
    UpsertReadings(ctx context.Context, batch []model.ReadingIn) (accepted int, err error)
}

var ErrNotFound = errors.New("not found")
