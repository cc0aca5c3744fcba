package store

import (
    "context"
    "sort"
    "sync"
    "time"

    "github.com/rishit-agarwal/traffic-dashboard/internal/geo"
    "github.com/rishit-agarwal/traffic-dashboard/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set and
// by the handler tests.
type Memory struct {
    mu       sync.Mutex
    sensors  map[string]model.Sensor              // id -> latest state
    readings map[string][]model.HistoricalReading // id -> ascending by timestamp
    now      func() time.Time
}

func NewMemory() *Memory {
    return &Memory{
        sensors:  map[string]model.Sensor{},
        readings: map[string][]model.HistoricalReading{},
        now:      time.Now,
    }
}

// Seed installs sensor state directly; test helper for fixtures that do not
// go through the ingest path.
func (m *Memory) Seed(sensors ...model.Sensor) {
    m.mu.Lock(); defer m.mu.Unlock()
    for _, s := range sensors {
        m.sensors[s.ID] = s
    }
}

// SeedReadings installs history rows directly, keeping ascending order.
func (m *Memory) SeedReadings(id string, rs ...model.HistoricalReading) {
    m.mu.Lock(); defer m.mu.Unlock()
    m.readings[id] = append(m.readings[id], rs...)
    sort.Slice(m.readings[id], func(i, j int) bool {
        return m.readings[id][i].Timestamp.Before(m.readings[id][j].Timestamp)
    })
}

func (m *Memory) SensorsInBounds(ctx context.Context, b model.Bounds, limit int) ([]model.Sensor, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    out := []model.Sensor{}
    for _, s := range m.sensors {
        if s.Lat < b.MinLat || s.Lat > b.MaxLat || s.Lon < b.MinLon || s.Lon > b.MaxLon {
            continue
        }
        out = append(out, s)
        if limit > 0 && len(out) >= limit {
            break
        }
    }
    return out, nil
}

func (m *Memory) SensorByID(ctx context.Context, id string) (model.Sensor, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    s, ok := m.sensors[id]
    if !ok {
        return model.Sensor{}, ErrNotFound
    }
    return s, nil
}

func (m *Memory) HistoryByID(ctx context.Context, id string, window time.Duration) ([]model.HistoricalReading, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if _, ok := m.sensors[id]; !ok {
        return nil, ErrNotFound
    }
    out := []model.HistoricalReading{}
    if window <= 0 {
        return out, nil
    }
    cutoff := m.now().Add(-window)
    for _, r := range m.readings[id] {
        if r.Timestamp.Before(cutoff) {
            continue
        }
        out = append(out, r)
    }
    return out, nil
}

func (m *Memory) RecentReadings(ctx context.Context, id string, n int) ([]model.HistoricalReading, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if _, ok := m.sensors[id]; !ok {
        return nil, ErrNotFound
    }
    rs := m.readings[id]
    out := []model.HistoricalReading{}
    for i := len(rs) - 1; i >= 0 && len(out) < n; i-- {
        out = append(out, rs[i])
    }
    return out, nil
}

func (m *Memory) UpsertReadings(ctx context.Context, batch []model.ReadingIn) (int, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    accepted := 0
    for _, in := range batch {
        if in.SensorID == "" || !geo.ValidLocation(in.Lat, in.Lon) {
            continue
        }
        ts := in.Timestamp
        s := m.sensors[in.SensorID]
        // a replayed reading older than the stored state is history only:
        // latest state follows max timestamp, not arrival order
        if s.LastUpdated == nil || !ts.Before(*s.LastUpdated) {
            s.ID = in.SensorID
            s.Lat, s.Lon = in.Lat, in.Lon
            if in.RoadName != nil { s.RoadName = in.RoadName }
            if in.SpeedLimit != nil { s.SpeedLimit = in.SpeedLimit }
            s.CurrentSpeed = in.Speed
            s.CurrentFlow = in.Flow
            t := ts
            s.LastUpdated = &t
            m.sensors[in.SensorID] = s
        }

        m.readings[in.SensorID] = append(m.readings[in.SensorID], model.HistoricalReading{
            SensorID:  in.SensorID,
            Timestamp: ts,
            Speed:     in.Speed,
            Flow:      in.Flow,
            Occupancy: in.Occupancy,
        })
        // keep ascending when the feed replays out of order
        rs := m.readings[in.SensorID]
        if len(rs) > 1 && rs[len(rs)-1].Timestamp.Before(rs[len(rs)-2].Timestamp) {
            sort.Slice(rs, func(i, j int) bool { return rs[i].Timestamp.Before(rs[j].Timestamp) })
        }
        accepted++
    }
    return accepted, nil
}
