package store

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/rishit-agarwal/traffic-dashboard/internal/model"
)

func f(v float64) *float64 { return &v }

func TestMemorySensorsInBounds(t *testing.T) {
    m := NewMemory()
    m.Seed(
        model.Sensor{ID: "in", Lat: 48.15, Lon: 11.55},
        model.Sensor{ID: "edge", Lat: 48.10, Lon: 11.50}, // on the closed edge
        model.Sensor{ID: "out", Lat: 48.30, Lon: 11.55},
    )
    b := model.Bounds{MinLat: 48.10, MinLon: 11.50, MaxLat: 48.20, MaxLon: 11.60}
    got, err := m.SensorsInBounds(context.Background(), b, 0)
    if err != nil { t.Fatalf("bounds: %v", err) }
    ids := map[string]bool{}
    for _, s := range got { ids[s.ID] = true }
    if !ids["in"] || !ids["edge"] { t.Fatalf("missing sensors: %v", ids) }
    if ids["out"] { t.Fatal("sensor outside bounds returned") }
}

func TestMemorySensorsInBoundsLimit(t *testing.T) {
    m := NewMemory()
    for _, id := range []string{"a", "b", "c"} {
        m.Seed(model.Sensor{ID: id, Lat: 48.15, Lon: 11.55})
    }
    b := model.Bounds{MinLat: 48.0, MinLon: 11.0, MaxLat: 49.0, MaxLon: 12.0}
    got, err := m.SensorsInBounds(context.Background(), b, 2)
    if err != nil { t.Fatalf("bounds: %v", err) }
    if len(got) != 2 { t.Fatalf("limit ignored: got %d", len(got)) }
}

func TestMemorySensorByID(t *testing.T) {
    m := NewMemory()
    m.Seed(model.Sensor{ID: "s1", Lat: 48.1, Lon: 11.5})
    if _, err := m.SensorByID(context.Background(), "s1"); err != nil { t.Fatalf("get: %v", err) }
    _, err := m.SensorByID(context.Background(), "nope")
    if !errors.Is(err, ErrNotFound) { t.Fatalf("want ErrNotFound, got %v", err) }
}

func TestMemoryHistoryWindow(t *testing.T) {
    m := NewMemory()
    now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
    m.now = func() time.Time { return now }
    m.Seed(model.Sensor{ID: "s1", Lat: 48.1, Lon: 11.5})
    m.SeedReadings("s1",
        model.HistoricalReading{SensorID: "s1", Timestamp: now.Add(-30 * time.Hour), Speed: f(40)},
        model.HistoricalReading{SensorID: "s1", Timestamp: now.Add(-2 * time.Hour), Speed: f(30)},
        model.HistoricalReading{SensorID: "s1", Timestamp: now.Add(-1 * time.Hour), Speed: f(35)},
    )

    got, err := m.HistoryByID(context.Background(), "s1", 24*time.Hour)
    if err != nil { t.Fatalf("history: %v", err) }
    if len(got) != 2 { t.Fatalf("got %d readings, want 2", len(got)) }
    if !got[0].Timestamp.Before(got[1].Timestamp) { t.Fatal("history not ascending") }

    // zero window is a valid empty result
    got, err = m.HistoryByID(context.Background(), "s1", 0)
    if err != nil { t.Fatalf("zero window: %v", err) }
    if len(got) != 0 { t.Fatalf("zero window should be empty, got %d", len(got)) }

    _, err = m.HistoryByID(context.Background(), "nope", 24*time.Hour)
    if !errors.Is(err, ErrNotFound) { t.Fatalf("want ErrNotFound, got %v", err) }
}

func TestMemoryRecentReadings(t *testing.T) {
    m := NewMemory()
    m.Seed(model.Sensor{ID: "s1", Lat: 48.1, Lon: 11.5})
    base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
    for i := 0; i < 5; i++ {
        m.SeedReadings("s1", model.HistoricalReading{SensorID: "s1", Timestamp: base.Add(time.Duration(i) * time.Minute), Speed: f(float64(i))})
    }
    got, err := m.RecentReadings(context.Background(), "s1", 3)
    if err != nil { t.Fatalf("recent: %v", err) }
    if len(got) != 3 { t.Fatalf("got %d, want 3", len(got)) }
    if !got[0].Timestamp.After(got[1].Timestamp) { t.Fatal("recent readings not newest first") }
    if *got[0].Speed != 4 { t.Fatalf("newest reading wrong: %v", *got[0].Speed) }
}

func TestMemoryUpsertReadings(t *testing.T) {
    m := NewMemory()
    ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
    n, err := m.UpsertReadings(context.Background(), []model.ReadingIn{
        {SensorID: "s1", Lat: 48.1, Lon: 11.5, Timestamp: ts, Speed: f(42), Flow: f(120)},
        {SensorID: "", Lat: 48.1, Lon: 11.5, Timestamp: ts, Speed: f(1)},       // missing id
        {SensorID: "bad", Lat: 95.0, Lon: 11.5, Timestamp: ts, Speed: f(1)},    // invalid location
    })
    if err != nil { t.Fatalf("upsert: %v", err) }
    if n != 1 { t.Fatalf("accepted = %d, want 1", n) }

    s, err := m.SensorByID(context.Background(), "s1")
    if err != nil { t.Fatalf("get after upsert: %v", err) }
    if s.CurrentSpeed == nil || *s.CurrentSpeed != 42 { t.Fatalf("latest speed not applied: %+v", s) }
    if s.LastUpdated == nil || !s.LastUpdated.Equal(ts) { t.Fatalf("last updated not applied: %+v", s) }

    // second reading updates latest state but keeps history
    later := ts.Add(5 * time.Minute)
    if _, err := m.UpsertReadings(context.Background(), []model.ReadingIn{
        {SensorID: "s1", Lat: 48.1, Lon: 11.5, Timestamp: later, Speed: f(17)},
    }); err != nil { t.Fatalf("second upsert: %v", err) }
    s, _ = m.SensorByID(context.Background(), "s1")
    if *s.CurrentSpeed != 17 { t.Fatalf("latest speed stale: %v", *s.CurrentSpeed) }
    recent, _ := m.RecentReadings(context.Background(), "s1", 10)
    if len(recent) != 2 { t.Fatalf("history rows = %d, want 2", len(recent)) }
}

func TestMemoryUpsertOutOfOrder(t *testing.T) {
    m := NewMemory()
    ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
    _, err := m.UpsertReadings(context.Background(), []model.ReadingIn{
        {SensorID: "s1", Lat: 48.1, Lon: 11.5, Timestamp: ts, Speed: f(10)},
        {SensorID: "s1", Lat: 48.1, Lon: 11.5, Timestamp: ts.Add(-10 * time.Minute), Speed: f(20)},
    })
    if err != nil { t.Fatalf("upsert: %v", err) }
    recent, _ := m.RecentReadings(context.Background(), "s1", 10)
    if len(recent) != 2 { t.Fatalf("rows = %d", len(recent)) }
    if !recent[0].Timestamp.After(recent[1].Timestamp) { t.Fatal("replayed reading broke ordering") }

    // the replayed older reading is history only: latest state keeps the
    // newest timestamp's values
    s, err := m.SensorByID(context.Background(), "s1")
    if err != nil { t.Fatalf("get: %v", err) }
    if s.CurrentSpeed == nil || *s.CurrentSpeed != 10 { t.Fatalf("stale replay regressed current speed: %+v", s) }
    if s.LastUpdated == nil || !s.LastUpdated.Equal(ts) { t.Fatalf("stale replay regressed last updated: %+v", s) }
}
