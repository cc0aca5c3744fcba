package predict

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rishit-agarwal/traffic-dashboard/internal/model"
)

func f(v float64) *float64 { return &v }

func reading(ts time.Time, speed, flow, occ *float64) model.HistoricalReading {
	return model.HistoricalReading{SensorID: "s1", Timestamp: ts, Speed: speed, Flow: flow, Occupancy: occ}
}

func TestBuildFeaturesLags(t *testing.T) {
	base := time.Date(2026, 8, 26, 14, 30, 0, 0, time.UTC) // a Wednesday
	recent := []model.HistoricalReading{ // newest first
		reading(base, f(30), f(100), f(0.1)),
		reading(base.Add(-15*time.Minute), f(35), f(90), nil),
		reading(base.Add(-30*time.Minute), f(40), f(80), nil),
	}
	target := base.Add(15 * time.Minute)
	feat, ok := BuildFeatures(recent, target)
	if !ok {
		t.Fatal("enough history, BuildFeatures refused")
	}
	if feat.SpeedLag1 != 30 || feat.SpeedLag2 != 35 || feat.SpeedLag3 != 40 {
		t.Fatalf("lags wrong: %+v", feat)
	}
	if feat.FlowLag1 != 100 || feat.Flow != 100 || feat.Occupancy != 0.1 {
		t.Fatalf("flow features wrong: %+v", feat)
	}
	if feat.HourOfDay != 14 {
		t.Fatalf("hour = %d, want 14", feat.HourOfDay)
	}
	if feat.DayOfWeek != 2 { // Monday=0, so Wednesday=2
		t.Fatalf("day of week = %d, want 2", feat.DayOfWeek)
	}
	if feat.IsWeekend != 0 {
		t.Fatalf("weekday flagged as weekend: %+v", feat)
	}
	if feat.SpeedLimit != 50 {
		t.Fatalf("default speed limit = %v, want 50", feat.SpeedLimit)
	}
}

func TestBuildFeaturesWeekend(t *testing.T) {
	sat := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	recent := []model.HistoricalReading{
		reading(sat, f(50), nil, nil),
		reading(sat.Add(-15*time.Minute), f(50), nil, nil),
		reading(sat.Add(-30*time.Minute), f(50), nil, nil),
	}
	feat, ok := BuildFeatures(recent, sat)
	if !ok {
		t.Fatal("BuildFeatures refused")
	}
	if feat.DayOfWeek != 5 || feat.IsWeekend != 1 {
		t.Fatalf("saturday encoding wrong: dow=%d weekend=%d", feat.DayOfWeek, feat.IsWeekend)
	}
	// sunday is the last index
	sun := sat.Add(24 * time.Hour)
	feat, _ = BuildFeatures(recent, sun)
	if feat.DayOfWeek != 6 || feat.IsWeekend != 1 {
		t.Fatalf("sunday encoding wrong: dow=%d weekend=%d", feat.DayOfWeek, feat.IsWeekend)
	}
}

func TestBuildFeaturesTooFewReadings(t *testing.T) {
	now := time.Now()
	recent := []model.HistoricalReading{
		reading(now, f(30), nil, nil),
		reading(now.Add(-15*time.Minute), f(35), nil, nil),
	}
	if _, ok := BuildFeatures(recent, now); ok {
		t.Fatal("two readings should not satisfy three lag features")
	}
}

func TestBuildFeaturesNullSpeeds(t *testing.T) {
	now := time.Now()
	recent := []model.HistoricalReading{
		reading(now, nil, nil, nil),
		reading(now.Add(-15*time.Minute), f(35), nil, nil),
		reading(now.Add(-30*time.Minute), nil, nil, nil),
	}
	feat, ok := BuildFeatures(recent, now)
	if !ok {
		t.Fatal("null speeds should zero-fill, not refuse")
	}
	if feat.SpeedLag1 != 0 || feat.SpeedLag2 != 35 || feat.SpeedLag3 != 0 {
		t.Fatalf("null handling wrong: %+v", feat)
	}
}

func TestFeatureFieldNames(t *testing.T) {
	// the serialized names are the trained model's contract
	b, err := json.Marshal(Features{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, name := range []string{
		"hour_of_day", "day_of_week", "is_weekend",
		"speed_lag1", "speed_lag2", "speed_lag3",
		"flow_lag1", "speed_limit", "occupancy", "flow",
	} {
		if _, ok := m[name]; !ok {
			t.Fatalf("missing feature field %q in %s", name, b)
		}
	}
}
