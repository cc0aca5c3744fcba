package main

import (
    "log"
    "net/http"
    "time"

    "github.com/prometheus/client_golang/prometheus/promhttp"

    "github.com/rishit-agarwal/traffic-dashboard/internal/api"
    "github.com/rishit-agarwal/traffic-dashboard/internal/config"
    "github.com/rishit-agarwal/traffic-dashboard/internal/metrics"
)

func main() {
    cfg, err := config.Load()
    if err != nil {
        log.Fatalf("failed to load config: %v", err)
    }
    metrics.RegisterDefault()

    srvDeps, err := api.NewServer(cfg)
    if err != nil {
        log.Fatalf("failed to init server: %v", err)
    }

    mux := http.NewServeMux()

    // Sensors
    mux.HandleFunc("/v1/sensors", srvDeps.SensorsHandler)
    mux.HandleFunc("/v1/sensors/", srvDeps.SensorByIDHandler) // includes /prediction, /history, /live
    mux.HandleFunc("/v1/sensors/ws", srvDeps.SensorsWSHandler)

    // Routes
    mux.HandleFunc("/v1/routes/analyze", srvDeps.RouteAnalyzeHandler)

    // Ingest
    mux.HandleFunc("/v1/readings", srvDeps.ReadingsHandler)

    // Health
    mux.HandleFunc("/healthz", srvDeps.HealthHandler)
    mux.HandleFunc("/readyz", srvDeps.ReadyHandler)

    // Observability and docs
    mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
    mux.HandleFunc("/openapi.yaml", srvDeps.OpenAPIHandler)
    mux.HandleFunc("/docs", srvDeps.DocsHandler)
    mux.HandleFunc("/swagger", srvDeps.SwaggerHandler)
    mux.HandleFunc("/debug/config", srvDeps.DebugJSON)

    addr := ":" + cfg.Port

    var handler http.Handler = mux
    handler = api.RateLimitMiddleware(cfg.RateRPS, cfg.RateBurst, handler)
    handler = api.CORSMiddleware(cfg.AllowOrigins, handler)
    handler = api.LogMiddleware(handler)

    srv := &http.Server{
        Addr:              addr,
        Handler:           handler,
        ReadHeaderTimeout: 5 * time.Second,
    }

    log.Printf("API listening on %s", addr)
    if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
        log.Fatalf("server error: %v", err)
    }
}
