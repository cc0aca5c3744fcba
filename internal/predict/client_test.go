package predict

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rishit-agarwal/traffic-dashboard/internal/model"
	"github.com/rishit-agarwal/traffic-dashboard/internal/store"
)

func seedSensor(m *store.Memory, id string, limit *float64, n int, base time.Time) {
	m.Seed(model.Sensor{ID: id, Lat: 48.1, Lon: 11.5, SpeedLimit: limit})
	for i := 0; i < n; i++ {
		m.SeedReadings(id, model.HistoricalReading{
			SensorID:  id,
			Timestamp: base.Add(-time.Duration(i) * 15 * time.Minute),
			Speed:     f(30 + float64(i)),
			Flow:      f(100),
			Occupancy: f(0.1),
		})
	}
}

func TestPredictOK(t *testing.T) {
	var gotReq struct {
		SensorID string   `json:"detid"`
		Features Features `json:"features"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]float64{"predicted_speed": 37.4567})
	}))
	defer srv.Close()

	m := store.NewMemory()
	base := time.Date(2026, 8, 26, 14, 0, 0, 0, time.UTC)
	seedSensor(m, "s1", f(60), 5, base)
	p := NewPredictor(m, NewClient(srv.URL))

	resp, err := p.Predict(context.Background(), "s1")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if !resp.Available || resp.PredictedSpeed == nil {
		t.Fatalf("prediction missing: %+v", resp)
	}
	if *resp.PredictedSpeed != 37.46 {
		t.Fatalf("speed = %v, want 37.46", *resp.PredictedSpeed)
	}
	if resp.TargetTime == nil || !resp.TargetTime.Equal(base.Add(Horizon)) {
		t.Fatalf("target time = %v, want %v", resp.TargetTime, base.Add(Horizon))
	}
	if gotReq.SensorID != "s1" {
		t.Fatalf("request sensor id = %q", gotReq.SensorID)
	}
	// sensor's own speed limit overrides the default
	if gotReq.Features.SpeedLimit != 60 {
		t.Fatalf("speed limit = %v, want 60", gotReq.Features.SpeedLimit)
	}
	if gotReq.Features.SpeedLag1 != 30 {
		t.Fatalf("lag1 = %v, want 30", gotReq.Features.SpeedLag1)
	}
	// history comes back ascending for the chart
	for i := 1; i < len(resp.History); i++ {
		if !resp.History[i-1].Timestamp.Before(resp.History[i].Timestamp) {
			t.Fatal("history not ascending")
		}
	}
}

func TestPredictUnknownSensor(t *testing.T) {
	p := NewPredictor(store.NewMemory(), NewClient(""))
	_, err := p.Predict(context.Background(), "nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestPredictTooFewReadings(t *testing.T) {
	m := store.NewMemory()
	seedSensor(m, "s1", nil, 2, time.Now())
	p := NewPredictor(m, NewClient("http://localhost:0"))
	_, err := p.Predict(context.Background(), "s1")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}

func TestPredictServiceDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	m := store.NewMemory()
	seedSensor(m, "s1", nil, 5, time.Now())
	p := NewPredictor(m, NewClient(srv.URL))
	_, err := p.Predict(context.Background(), "s1")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}

// errStore fails every read, as a timed-out or broken backend would.
type errStore struct{ err error }

func (e errStore) SensorsInBounds(ctx context.Context, b model.Bounds, limit int) ([]model.Sensor, error) {
	return nil, e.err
}
func (e errStore) SensorByID(ctx context.Context, id string) (model.Sensor, error) {
	return model.Sensor{}, e.err
}
func (e errStore) HistoryByID(ctx context.Context, id string, w time.Duration) ([]model.HistoricalReading, error) {
	return nil, e.err
}
func (e errStore) RecentReadings(ctx context.Context, id string, n int) ([]model.HistoricalReading, error) {
	return nil, e.err
}
func (e errStore) UpsertReadings(ctx context.Context, b []model.ReadingIn) (int, error) {
	return 0, e.err
}

func TestPredictStoreFailureIsUnavailable(t *testing.T) {
	p := NewPredictor(errStore{err: context.DeadlineExceeded}, NewClient(""))
	_, err := p.Predict(context.Background(), "s1")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("store failure should wrap ErrUnavailable, got %v", err)
	}
	// unknown sensors still pass through as not-found
	p = NewPredictor(errStore{err: store.ErrNotFound}, NewClient(""))
	_, err = p.Predict(context.Background(), "s1")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestPredictNoEndpoint(t *testing.T) {
	m := store.NewMemory()
	seedSensor(m, "s1", nil, 5, time.Now())
	p := NewPredictor(m, NewClient(""))
	_, err := p.Predict(context.Background(), "s1")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}
