package traffic

import "github.com/rishit-agarwal/traffic-dashboard/internal/model"

// Condition labels for a congestion ratio.
const (
	ConditionUnknown  = "Unknown"
	ConditionHeavy    = "Heavy"
	ConditionModerate = "Moderate"
	ConditionLight    = "Light"
)

// Ratio thresholds shared by the route verdict and the per-sensor display
// convention: below heavy is congested, at or above light is free-flowing.
const (
	heavyBelow = 0.5
	lightFrom  = 0.8
)

// ratioClampMax absorbs sensor noise (speeds above twice the limit).
const ratioClampMax = 2.0

// Classify maps an average congestion ratio to a condition label. A nil
// ratio means no usable sensor data.
func Classify(avgRatio *float64) string {
	switch {
	case avgRatio == nil:
		return ConditionUnknown
	case *avgRatio < heavyBelow:
		return ConditionHeavy
	case *avgRatio < lightFrom:
		return ConditionModerate
	default:
		return ConditionLight
	}
}

// Aggregate folds the per-point match results into the route verdict.
// Only matches whose sensor reports both a current speed and a positive
// speed limit contribute; everything else lowers sensors_with_data and,
// when nothing usable remains, yields the Unknown condition.
func Aggregate(matches []model.MatchResult) model.RouteAnalysis {
	out := model.RouteAnalysis{SensorsConsidered: len(matches)}
	sum := 0.0
	for _, m := range matches {
		if m.Sensor == nil || m.Sensor.CurrentSpeed == nil || m.Sensor.SpeedLimit == nil || *m.Sensor.SpeedLimit <= 0 {
			continue
		}
		ratio := *m.Sensor.CurrentSpeed / *m.Sensor.SpeedLimit
		if ratio < 0 {
			ratio = 0
		}
		if ratio > ratioClampMax {
			ratio = ratioClampMax
		}
		sum += ratio
		out.SensorsWithData++
	}
	if out.SensorsWithData > 0 {
		avg := sum / float64(out.SensorsWithData)
		out.AverageRatio = &avg
	}
	out.Condition = Classify(out.AverageRatio)
	return out
}
