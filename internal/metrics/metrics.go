package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
)

var (
    // Registry is the dedicated Prometheus registry for the API
    Registry = prometheus.NewRegistry()
    // HTTPRequests counts requests by method, path, and status
    HTTPRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
        []string{"method", "path", "status"},
    )
    // HTTPDuration records request durations in seconds
    HTTPDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
        []string{"method", "path", "status"},
    )

    // RouteAnalyses counts route analyses by resulting condition
    RouteAnalyses = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "route_analyses_total", Help: "Route traffic analyses by condition."},
        []string{"condition"},
    )
    // Predictions counts prediction requests by outcome (ok, unavailable, not_found)
    Predictions = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "sensor_predictions_total", Help: "Sensor speed predictions by outcome."},
        []string{"outcome"},
    )
    // ReadingsIngested counts accepted feed readings
    ReadingsIngested = prometheus.NewCounter(
        prometheus.CounterOpts{Name: "readings_ingested_total", Help: "Accepted sensor readings from the feed."},
    )
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
    regOnce.Do(func(){
        Registry.MustRegister(HTTPRequests)
        Registry.MustRegister(HTTPDuration)
        Registry.MustRegister(RouteAnalyses)
        Registry.MustRegister(Predictions)
        Registry.MustRegister(ReadingsIngested)
        // Go/process collectors on our registry
        Registry.MustRegister(collectors.NewGoCollector())
        Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
    })
}

var regOnce sync.Once
