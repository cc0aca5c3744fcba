package traffic

import "github.com/rishit-agarwal/traffic-dashboard/internal/model"

// SamplePoints reduces a decoded route to at most cap points for matching.
// At or under the cap the input is returned unchanged. Over the cap,
// indices are spread evenly across the sequence and always include the
// first and last point. Identical input yields an identical sample set.
func SamplePoints(pts []model.RoutePoint, cap int) []model.RoutePoint {
	if cap < 2 {
		cap = 2
	}
	if len(pts) <= cap {
		return pts
	}
	out := make([]model.RoutePoint, 0, cap)
	last := len(pts) - 1
	for i := 0; i < cap; i++ {
		// i scaled over [0,last]; i==cap-1 lands exactly on last
		idx := i * last / (cap - 1)
		out = append(out, pts[idx])
	}
	return out
}
