package traffic

import (
	"math"

	"github.com/rishit-agarwal/traffic-dashboard/internal/geo"
	"github.com/rishit-agarwal/traffic-dashboard/internal/model"
)

// distTieM is the floating-point tolerance under which two candidate
// distances count as equal and the lower sensor id wins.
const distTieM = 1e-6

// sensorIndex buckets sensors into a lat/lon grid so each route point only
// scans nearby cells instead of every candidate.
type sensorIndex struct {
	cellDegLat float64
	cellDegLon float64
	cells      map[cellKey][]*model.Sensor
}

type cellKey struct{ x, y int }

// newSensorIndex builds a grid over the candidate set with cells roughly
// radiusM wide, so a point's neighborhood is the 3x3 block around its cell.
func newSensorIndex(sensors []model.Sensor, radiusM, midLat float64) *sensorIndex {
	const metersPerDegLat = 111320.0
	cos := math.Cos(midLat * math.Pi / 180)
	if cos < 0.01 {
		cos = 0.01
	}
	idx := &sensorIndex{
		cellDegLat: radiusM / metersPerDegLat,
		cellDegLon: radiusM / (metersPerDegLat * cos),
		cells:      map[cellKey][]*model.Sensor{},
	}
	for i := range sensors {
		s := &sensors[i]
		k := idx.keyFor(s.Lat, s.Lon)
		idx.cells[k] = append(idx.cells[k], s)
	}
	return idx
}

func (idx *sensorIndex) keyFor(lat, lon float64) cellKey {
	return cellKey{
		x: int(math.Floor(lon / idx.cellDegLon)),
		y: int(math.Floor(lat / idx.cellDegLat)),
	}
}

// nearest returns the sensor closest to (lat, lon) within radiusM, or nil.
// Equidistant candidates (within distTieM) resolve to the lower id.
func (idx *sensorIndex) nearest(lat, lon, radiusM float64) (*model.Sensor, float64) {
	center := idx.keyFor(lat, lon)
	var best *model.Sensor
	bestD := math.MaxFloat64
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for _, s := range idx.cells[cellKey{center.x + dx, center.y + dy}] {
				d := geo.HaversineMeters(lat, lon, s.Lat, s.Lon)
				if d > radiusM {
					continue
				}
				switch {
				case d < bestD-distTieM:
					best, bestD = s, d
				case math.Abs(d-bestD) <= distTieM && best != nil && s.ID < best.ID:
					best, bestD = s, d
				}
			}
		}
	}
	if best == nil {
		return nil, 0
	}
	return best, bestD
}

// MatchSensors finds, for each sampled route point, the nearest sensor
// within radiusM among the candidates. Output preserves route order, one
// result per point; a point with no sensor in range gets a nil Sensor.
func MatchSensors(points []model.RoutePoint, sensors []model.Sensor, radiusM float64) []model.MatchResult {
	results := make([]model.MatchResult, 0, len(points))
	if len(points) == 0 {
		return results
	}
	midLat := 0.0
	for _, p := range points {
		midLat += p.Lat
	}
	midLat /= float64(len(points))
	idx := newSensorIndex(sensors, radiusM, midLat)
	for _, p := range points {
		s, d := idx.nearest(p.Lat, p.Lon, radiusM)
		results = append(results, model.MatchResult{Point: p, Sensor: s, DistM: d})
	}
	return results
}
