package api

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/rishit-agarwal/traffic-dashboard/internal/geo"
    "github.com/rishit-agarwal/traffic-dashboard/internal/metrics"
    "github.com/rishit-agarwal/traffic-dashboard/internal/model"
    "github.com/rishit-agarwal/traffic-dashboard/internal/predict"
    "github.com/rishit-agarwal/traffic-dashboard/internal/store"
)

// storeCtx bounds one store-backed request; a stuck backend surfaces as a
// deadline error instead of a hang.
func (s *Server) storeCtx(r *http.Request) (context.Context, context.CancelFunc) {
    return context.WithTimeout(r.Context(), s.StoreTimeout)
}

// SensorsHandler handles GET /v1/sensors (viewport query).
func (s *Server) SensorsHandler(w http.ResponseWriter, r *http.Request) {
    if r.URL.Path != "/v1/sensors" { writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path); return }
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    bounds, err := parseBounds(r.URL.Query())
    if err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid bounds", err.Error(), r.URL.Path)
        return
    }
    ctx, cancel := s.storeCtx(r)
    defer cancel()
    sensors, err := s.Store.SensorsInBounds(ctx, bounds, s.Cfg.Viewport.MaxSensors)
    if err != nil {
        writeProblem(w, http.StatusServiceUnavailable, "Sensor store unavailable", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, sensors)
}

// SensorByIDHandler handles GET /v1/sensors/{id} and the per-sensor
// sub-resources /prediction, /history and /live (SSE).
func (s *Server) SensorByIDHandler(w http.ResponseWriter, r *http.Request) {
    rest := strings.TrimPrefix(r.URL.Path, "/v1/sensors/")
    if rest == r.URL.Path || rest == "" {
        writeProblem(w, http.StatusNotFound, "Not Found", "missing sensor id", r.URL.Path)
        return
    }
    parts := strings.Split(rest, "/")
    id := parts[0]
    if len(parts) > 1 {
        switch parts[1] {
        case "prediction":
            s.predictionFor(w, r, id)
        case "history":
            s.historyFor(w, r, id)
        case "live":
            s.liveStreamFor(w, r, id)
        default:
            writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
        }
        return
    }
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    ctx, cancel := s.storeCtx(r)
    defer cancel()
    sensor, err := s.Store.SensorByID(ctx, id)
    if errors.Is(err, store.ErrNotFound) {
        writeProblem(w, http.StatusNotFound, "Sensor not found", id, r.URL.Path)
        return
    }
    if err != nil {
        writeProblem(w, http.StatusServiceUnavailable, "Sensor store unavailable", err.Error(), r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, sensor)
}

// predictionFor serves GET /v1/sensors/{id}/prediction. Inference failure
// is a soft result, not an error status: the UI shows "no prediction".
func (s *Server) predictionFor(w http.ResponseWriter, r *http.Request, id string) {
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    ctx, cancel := s.storeCtx(r)
    defer cancel()
    resp, err := s.Predictor.Predict(ctx, id)
    switch {
    case errors.Is(err, store.ErrNotFound):
        metrics.Predictions.WithLabelValues("not_found").Inc()
        writeProblem(w, http.StatusNotFound, "Sensor not found", id, r.URL.Path)
    case errors.Is(err, predict.ErrUnavailable):
        metrics.Predictions.WithLabelValues("unavailable").Inc()
        writeJSON(w, http.StatusOK, model.SensorPredictionResponse{SensorID: id, Available: false})
    case err != nil:
        metrics.Predictions.WithLabelValues("error").Inc()
        writeProblem(w, http.StatusInternalServerError, "Prediction failed", err.Error(), r.URL.Path)
    default:
        metrics.Predictions.WithLabelValues("ok").Inc()
        writeJSON(w, http.StatusOK, resp)
    }
}

// historyFor serves GET /v1/sensors/{id}/history?hours=N with the readings
// bucketed into fixed-width mean intervals, ascending. hours=0 is a valid
// empty window.
func (s *Server) historyFor(w http.ResponseWriter, r *http.Request, id string) {
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    hours, err := parseWindowHours(r.URL.Query(), s.Cfg.History.DefaultHours)
    if err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid window", err.Error(), r.URL.Path)
        return
    }
    ctx, cancel := s.storeCtx(r)
    defer cancel()
    readings, err := s.Store.HistoryByID(ctx, id, time.Duration(hours)*time.Hour)
    if errors.Is(err, store.ErrNotFound) {
        writeProblem(w, http.StatusNotFound, "Sensor not found", id, r.URL.Path)
        return
    }
    if err != nil {
        writeProblem(w, http.StatusServiceUnavailable, "Sensor store unavailable", err.Error(), r.URL.Path)
        return
    }
    bucket := time.Duration(s.Cfg.History.BucketMinutes) * time.Minute
    points := bucketReadings(readings, bucket, s.Cfg.History.MaxBuckets)
    writeJSON(w, http.StatusOK, model.SensorHistoryResponse{SensorID: id, Readings: points})
}

// liveStreamFor serves GET /v1/sensors/{id}/live as an SSE stream of
// reading updates with periodic heartbeats.
func (s *Server) liveStreamFor(w http.ResponseWriter, r *http.Request, id string) {
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    flusher, ok := w.(http.Flusher)
    if !ok { writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path); return }
    w.Header().Set("Content-Type", "text/event-stream")
    w.Header().Set("Cache-Control", "no-cache")
    w.Header().Set("Connection", "keep-alive")
    ch := s.Broker.Subscribe(id)
    defer s.Broker.Unsubscribe(id, ch)
    // initial heartbeat
    fmt.Fprintf(w, "event: heartbeat\n")
    fmt.Fprintf(w, "data: {\"detid\":\"%s\",\"ts\":\"%s\"}\n\n", id, time.Now().UTC().Format(time.RFC3339))
    flusher.Flush()
    notify := r.Context().Done()
    for {
        select {
        case <-notify:
            return
        case evt := <-ch:
            b, _ := json.Marshal(evt.Data)
            fmt.Fprintf(w, "event: %s\n", evt.Type)
            fmt.Fprintf(w, "data: %s\n\n", string(b))
            flusher.Flush()
        case <-time.After(15 * time.Second):
            fmt.Fprintf(w, "event: heartbeat\n")
            fmt.Fprintf(w, "data: {\"detid\":\"%s\",\"ts\":\"%s\"}\n\n", id, time.Now().UTC().Format(time.RFC3339))
            flusher.Flush()
        }
    }
}

// RouteAnalyzeHandler handles POST /v1/routes/analyze.
func (s *Server) RouteAnalyzeHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    var req model.RouteAnalysisRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    if req.Polyline == "" {
        writeProblem(w, http.StatusBadRequest, "Missing polyline", "overview_polyline is required", r.URL.Path)
        return
    }
    analysis, err := s.Analyzer.Analyze(r.Context(), req.Polyline)
    var decodeErr *geo.DecodeError
    if errors.As(err, &decodeErr) {
        writeProblem(w, http.StatusBadRequest, "Invalid polyline", decodeErr.Error(), r.URL.Path)
        return
    }
    if err != nil {
        writeProblem(w, http.StatusServiceUnavailable, "Route analysis failed", err.Error(), r.URL.Path)
        return
    }
    metrics.RouteAnalyses.WithLabelValues(analysis.Condition).Inc()
    writeJSON(w, http.StatusOK, analysis)
}

// ReadingsHandler handles POST /v1/readings: the feed loader's ingest
// surface. Accepted readings are persisted and published to live streams.
func (s *Server) ReadingsHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    var req struct {
        Readings []model.ReadingIn `json:"readings"`
    }
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    ctx, cancel := s.storeCtx(r)
    defer cancel()
    n, err := s.Store.UpsertReadings(ctx, req.Readings)
    if err != nil {
        writeProblem(w, http.StatusServiceUnavailable, "Ingest failed", err.Error(), r.URL.Path)
        return
    }
    metrics.ReadingsIngested.Add(float64(n))
    for _, in := range req.Readings {
        data := map[string]any{"detid": in.SensorID, "ts": in.Timestamp.UTC().Format(time.RFC3339)}
        if in.Speed != nil { data["speed"] = *in.Speed }
        if in.Flow != nil { data["flow"] = *in.Flow }
        s.Broker.Publish(in.SensorID, SSEEvent{Type: "reading.updated", Data: data})
    }
    writeJSON(w, http.StatusAccepted, map[string]any{"accepted": n, "rejected": len(req.Readings) - n})
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
    // Check DB connectivity when using the Postgres store
    type pinger interface{ Ping(ctx context.Context) error }
    if pg, ok := s.Store.(pinger); ok {
        ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
        defer cancel()
        if err := pg.Ping(ctx); err != nil { writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path); return }
    }
    writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// bucketReadings folds raw readings into fixed-width mean buckets keyed by
// the bucket start time, skipping null speeds, capped at maxBuckets.
func bucketReadings(readings []model.HistoricalReading, width time.Duration, maxBuckets int) []model.HistoryPoint {
    out := []model.HistoryPoint{}
    var curStart time.Time
    var sum float64
    var n int
    flush := func() {
        if n == 0 { return }
        mean := sum / float64(n)
        mean = float64(int(mean*100+0.5)) / 100
        t := curStart
        v := mean
        out = append(out, model.HistoryPoint{Timestamp: t, Speed: &v})
        sum, n = 0, 0
    }
    for _, r := range readings {
        if r.Speed == nil { continue }
        start := r.Timestamp.Truncate(width)
        if n == 0 || !start.Equal(curStart) {
            flush()
            curStart = start
        }
        sum += *r.Speed
        n++
        if maxBuckets > 0 && len(out) >= maxBuckets { return out }
    }
    flush()
    if maxBuckets > 0 && len(out) > maxBuckets { out = out[:maxBuckets] }
    return out
}
