package api

import (
    "context"
    "log"
    "time"

    "github.com/rishit-agarwal/traffic-dashboard/internal/config"
    "github.com/rishit-agarwal/traffic-dashboard/internal/model"
    "github.com/rishit-agarwal/traffic-dashboard/internal/predict"
    "github.com/rishit-agarwal/traffic-dashboard/internal/store"
    "github.com/rishit-agarwal/traffic-dashboard/internal/traffic"
)

type Server struct {
    Cfg       config.Config
    Store     store.Store
    Analyzer  *traffic.Analyzer
    Predictor *predict.Predictor
    Broker    EventBroker
    // StoreTimeout bounds each handler's store access so a stuck backend
    // cannot hang a request.
    StoreTimeout time.Duration
}

// NewServer wires the store, analyzer, predictor and broker from config.
// Without DATABASE_URL the in-memory store is used; without REDIS_URL the
// in-process broker is used.
func NewServer(cfg config.Config) (*Server, error) {
    var s store.Store
    if cfg.DatabaseURL == "" {
        s = store.NewMemory()
    } else {
        sp, err := store.NewPostgres(cfg.DatabaseURL)
        if err != nil {
            return nil, err
        }
        if cfg.Migrate {
            if err := sp.MigrateDir("db/migrations"); err != nil {
                return nil, err
            }
        }
        s = sp
    }
    var broker EventBroker
    if cfg.RedisURL != "" {
        if rb, err := NewRedisBroker(cfg.RedisURL); err == nil {
            broker = rb
        } else {
            log.Printf("redis broker unavailable, falling back to in-process fan-out: %v", err)
            broker = NewBroker()
        }
    } else {
        broker = NewBroker()
    }
    return &Server{
        Cfg:          cfg,
        Store:        s,
        Analyzer:     traffic.NewAnalyzer(envelopeSource{s}, cfg.Matcher.RadiusM, cfg.Matcher.SampleCap),
        Predictor:    predict.NewPredictor(s, predict.NewClient(cfg.ModelURL)),
        Broker:       broker,
        StoreTimeout: 5 * time.Second,
    }, nil
}

// envelopeSource adapts the store to the analyzer's narrower interface.
// The analyzer loads the whole route envelope: no result cap, unlike the
// viewport endpoint.
type envelopeSource struct {
    s store.Store
}

func (e envelopeSource) SensorsInBounds(ctx context.Context, b model.Bounds) ([]model.Sensor, error) {
    return e.s.SensorsInBounds(ctx, b, 0)
}
