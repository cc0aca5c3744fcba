package api

import (
    "bufio"
    "log"
    "net"
    "net/http"
    "strconv"
    "strings"
    "time"

    "golang.org/x/time/rate"

    "github.com/rishit-agarwal/traffic-dashboard/internal/metrics"
)

// statusRecorder captures the response code for logging and metrics.
type statusRecorder struct {
    http.ResponseWriter
    status int
}

func (rec *statusRecorder) WriteHeader(code int) {
    rec.status = code
    rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Flush() {
    if f, ok := rec.ResponseWriter.(http.Flusher); ok { f.Flush() }
}

// Hijack passes through so the WebSocket upgrade works behind the logger.
func (rec *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
    if h, ok := rec.ResponseWriter.(http.Hijacker); ok { return h.Hijack() }
    return nil, nil, http.ErrNotSupported
}

// LogMiddleware logs each request and records Prometheus counters.
func LogMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()
        rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
        next.ServeHTTP(rec, r)
        dur := time.Since(start)
        path := metricPath(r.URL.Path)
        status := strconv.Itoa(rec.status)
        metrics.HTTPRequests.WithLabelValues(r.Method, path, status).Inc()
        metrics.HTTPDuration.WithLabelValues(r.Method, path, status).Observe(dur.Seconds())
        log.Printf("%s %s %s %d %v", r.RemoteAddr, r.Method, r.URL.Path, rec.status, dur)
    })
}

// metricPath collapses per-sensor paths so label cardinality stays bounded.
func metricPath(p string) string {
    if strings.HasPrefix(p, "/v1/sensors/") {
        rest := strings.TrimPrefix(p, "/v1/sensors/")
        if i := strings.IndexByte(rest, '/'); i >= 0 {
            return "/v1/sensors/{id}/" + rest[i+1:]
        }
        return "/v1/sensors/{id}"
    }
    return p
}

// RateLimitMiddleware applies a global token bucket when rps > 0.
func RateLimitMiddleware(rps float64, burst int, next http.Handler) http.Handler {
    if rps <= 0 {
        return next
    }
    if burst <= 0 { burst = int(rps) + 1 }
    lim := rate.NewLimiter(rate.Limit(rps), burst)
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if !lim.Allow() {
            writeProblem(w, http.StatusTooManyRequests, "Rate limited", "try again shortly", r.URL.Path)
            return
        }
        next.ServeHTTP(w, r)
    })
}

// CORSMiddleware answers preflights and sets allow headers for the
// configured origins (comma separated; "*" allows all).
func CORSMiddleware(allowOrigins string, next http.Handler) http.Handler {
    if allowOrigins == "" {
        return next
    }
    allowed := map[string]bool{}
    wildcard := false
    for _, o := range strings.Split(allowOrigins, ",") {
        o = strings.TrimSpace(o)
        if o == "*" { wildcard = true }
        if o != "" { allowed[o] = true }
    }
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        origin := r.Header.Get("Origin")
        if origin != "" && (wildcard || allowed[origin]) {
            w.Header().Set("Access-Control-Allow-Origin", origin)
            w.Header().Set("Vary", "Origin")
            w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
            w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
        }
        if r.Method == http.MethodOptions {
            w.WriteHeader(http.StatusNoContent)
            return
        }
        next.ServeHTTP(w, r)
    })
}
