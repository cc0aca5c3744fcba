package api

import (
    "encoding/json"
    "net/http"
    "time"

    "github.com/rishit-agarwal/traffic-dashboard/internal/buildinfo"
)

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
    info := map[string]any{
        "build": buildinfo.Info(),
        "time":  time.Now().UTC().Format(time.RFC3339),
        "config": map[string]any{
            "PORT":           s.Cfg.Port,
            "ALLOW_ORIGINS":  s.Cfg.AllowOrigins,
            "RATE_RPS":       s.Cfg.RateRPS,
            "RATE_BURST":     s.Cfg.RateBurst,
            "MATCH_RADIUS_M": s.Cfg.Matcher.RadiusM,
            "SAMPLE_CAP":     s.Cfg.Matcher.SampleCap,
            "HAS_DATABASE_URL": s.Cfg.DatabaseURL != "",
            "HAS_REDIS_URL":    s.Cfg.RedisURL != "",
            "HAS_MODEL_URL":    s.Cfg.ModelURL != "",
        },
    }
    w.Header().Set("Content-Type", "application/json")
    _ = json.NewEncoder(w).Encode(info)
}
