package store

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "sort"
    "strings"
    "time"

    "github.com/google/uuid"
    _ "github.com/jackc/pgx/v5/stdlib"

    "github.com/rishit-agarwal/traffic-dashboard/internal/geo"
    "github.com/rishit-agarwal/traffic-dashboard/internal/model"
)

type Postgres struct {
    db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
    db, err := sql.Open("pgx", dsn)
    if err != nil {
        return nil, err
    }
    if err := db.Ping(); err != nil {
        return nil, err
    }
    return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// MigrateDir applies the *.sql files in dir in lexical order, tracking
// applied names in schema_migrations.
func (p *Postgres) MigrateDir(dir string) error {
    if _, err := p.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (name TEXT PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT now())`); err != nil {
        return err
    }
    entries, err := os.ReadDir(dir)
    if err != nil { return err }
    names := []string{}
    for _, e := range entries {
        if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") { names = append(names, e.Name()) }
    }
    sort.Strings(names)
    for _, name := range names {
        var done int
        err := p.db.QueryRow(`SELECT count(*) FROM schema_migrations WHERE name=$1`, name).Scan(&done)
        if err != nil { return err }
        if done > 0 { continue }
        body, err := os.ReadFile(filepath.Join(dir, name))
        if err != nil { return err }
        if _, err := p.db.Exec(string(body)); err != nil {
            return fmt.Errorf("migration %s: %w", name, err)
        }
        if _, err := p.db.Exec(`INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil { return err }
    }
    return nil
}

func (p *Postgres) SensorsInBounds(ctx context.Context, b model.Bounds, limit int) ([]model.Sensor, error) {
    q := `SELECT id, lat, lon, road_name, speed_limit, current_speed, current_flow, last_updated
          FROM sensors
          WHERE lat >= $1 AND lat <= $2 AND lon >= $3 AND lon <= $4`
    args := []any{b.MinLat, b.MaxLat, b.MinLon, b.MaxLon}
    if limit > 0 {
        q += ` LIMIT $5`
        args = append(args, limit)
    }
    rows, err := p.db.QueryContext(ctx, q, args...)
    if err != nil { return nil, err }
    defer func(){ _ = rows.Close() }()
    out := []model.Sensor{}
    for rows.Next() {
        s, err := scanSensor(rows)
        if err != nil { return nil, err }
        out = append(out, s)
    }
    return out, rows.Err()
}

func (p *Postgres) SensorByID(ctx context.Context, id string) (model.Sensor, error) {
    row := p.db.QueryRowContext(ctx, `SELECT id, lat, lon, road_name, speed_limit, current_speed, current_flow, last_updated FROM sensors WHERE id=$1`, id)
    s, err := scanSensor(row)
    if errors.Is(err, sql.ErrNoRows) {
        return model.Sensor{}, ErrNotFound
    }
    return s, err
}

func (p *Postgres) HistoryByID(ctx context.Context, id string, window time.Duration) ([]model.HistoricalReading, error) {
    if _, err := p.SensorByID(ctx, id); err != nil {
        return nil, err
    }
    out := []model.HistoricalReading{}
    if window <= 0 {
        return out, nil
    }
    cutoff := time.Now().Add(-window)
    rows, err := p.db.QueryContext(ctx, `SELECT sensor_id, ts, speed, flow, occupancy FROM readings WHERE sensor_id=$1 AND ts >= $2 ORDER BY ts ASC`, id, cutoff)
    if err != nil { return nil, err }
    defer func(){ _ = rows.Close() }()
    for rows.Next() {
        var r model.HistoricalReading
        if err := rows.Scan(&r.SensorID, &r.Timestamp, &r.Speed, &r.Flow, &r.Occupancy); err != nil { return nil, err }
        out = append(out, r)
    }
    return out, rows.Err()
}

func (p *Postgres) RecentReadings(ctx context.Context, id string, n int) ([]model.HistoricalReading, error) {
    if _, err := p.SensorByID(ctx, id); err != nil {
        return nil, err
    }
    rows, err := p.db.QueryContext(ctx, `SELECT sensor_id, ts, speed, flow, occupancy FROM readings WHERE sensor_id=$1 ORDER BY ts DESC LIMIT $2`, id, n)
    if err != nil { return nil, err }
    defer func(){ _ = rows.Close() }()
    out := []model.HistoricalReading{}
    for rows.Next() {
        var r model.HistoricalReading
        if err := rows.Scan(&r.SensorID, &r.Timestamp, &r.Speed, &r.Flow, &r.Occupancy); err != nil { return nil, err }
        out = append(out, r)
    }
    return out, rows.Err()
}

func (p *Postgres) UpsertReadings(ctx context.Context, batch []model.ReadingIn) (int, error) {
    tx, err := p.db.BeginTx(ctx, nil)
    if err != nil { return 0, err }
    defer func(){ _ = tx.Rollback() }()

    accepted := 0
    for _, in := range batch {
        if in.SensorID == "" || !geo.ValidLocation(in.Lat, in.Lon) { continue }
        _, err = tx.ExecContext(ctx, `
            INSERT INTO sensors (id, lat, lon, road_name, speed_limit, current_speed, current_flow, last_updated)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
            ON CONFLICT (id) DO UPDATE SET
                lat=EXCLUDED.lat, lon=EXCLUDED.lon,
                road_name=COALESCE(EXCLUDED.road_name, sensors.road_name),
                speed_limit=COALESCE(EXCLUDED.speed_limit, sensors.speed_limit),
                current_speed=EXCLUDED.current_speed,
                current_flow=EXCLUDED.current_flow,
                last_updated=EXCLUDED.last_updated
            WHERE sensors.last_updated IS NULL OR EXCLUDED.last_updated >= sensors.last_updated`,
            in.SensorID, in.Lat, in.Lon, in.RoadName, in.SpeedLimit, in.Speed, in.Flow, in.Timestamp)
        if err != nil { return 0, err }
        _, err = tx.ExecContext(ctx, `INSERT INTO readings (id, sensor_id, ts, speed, flow, occupancy) VALUES ($1,$2,$3,$4,$5,$6)`,
            uuid.New(), in.SensorID, in.Timestamp, in.Speed, in.Flow, in.Occupancy)
        if err != nil { return 0, err }
        accepted++
    }
    if err := tx.Commit(); err != nil { return 0, err }
    return accepted, nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanSensor(r rowScanner) (model.Sensor, error) {
    var s model.Sensor
    err := r.Scan(&s.ID, &s.Lat, &s.Lon, &s.RoadName, &s.SpeedLimit, &s.CurrentSpeed, &s.CurrentFlow, &s.LastUpdated)
    return s, err
}
