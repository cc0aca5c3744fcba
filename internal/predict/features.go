package predict

import (
	"time"

	"github.com/rishit-agarwal/traffic-dashboard/internal/model"
)

// minLags is the number of recent readings the model's lag features need.
const minLags = 3

// Features is the model input vector. Field order and names are the
// inference service's trained feature contract; do not reorder.
type Features struct {
	HourOfDay  int     `json:"hour_of_day"`
	DayOfWeek  int     `json:"day_of_week"`
	IsWeekend  int     `json:"is_weekend"`
	SpeedLag1  float64 `json:"speed_lag1"`
	SpeedLag2  float64 `json:"speed_lag2"`
	SpeedLag3  float64 `json:"speed_lag3"`
	FlowLag1   float64 `json:"flow_lag1"`
	SpeedLimit float64 `json:"speed_limit"`
	Occupancy  float64 `json:"occupancy"`
	Flow       float64 `json:"flow"`
}

// defaultSpeedLimit stands in when a sensor never reported one; the model
// was trained with the same fallback.
const defaultSpeedLimit = 50

// BuildFeatures derives the feature vector from the most recent readings
// (newest first) for a prediction at target. Returns false when there is
// not enough history for all lag features.
func BuildFeatures(recent []model.HistoricalReading, target time.Time) (Features, bool) {
	if len(recent) < minLags {
		return Features{}, false
	}
	wd := int(target.Weekday())
	// model encoding: Monday=0..Sunday=6
	dow := (wd + 6) % 7
	f := Features{
		HourOfDay:  target.Hour(),
		DayOfWeek:  dow,
		SpeedLimit: defaultSpeedLimit,
	}
	if dow >= 5 {
		f.IsWeekend = 1
	}
	f.SpeedLag1 = floatOrZero(recent[0].Speed)
	f.SpeedLag2 = floatOrZero(recent[1].Speed)
	f.SpeedLag3 = floatOrZero(recent[2].Speed)
	f.FlowLag1 = floatOrZero(recent[0].Flow)
	f.Occupancy = floatOrZero(recent[0].Occupancy)
	f.Flow = floatOrZero(recent[0].Flow)
	return f, true
}

func floatOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
