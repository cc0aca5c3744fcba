package geo

import (
	"math"

	"github.com/rishit-agarwal/traffic-dashboard/internal/model"
)

// HaversineMeters returns the great-circle distance between two points.
// Accurate enough at city scale for sensor matching.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}

// Envelope returns the bounding rectangle of the points expanded by
// marginM meters on every side. The longitude expansion scales with the
// mid-latitude so the margin holds in meters, not degrees.
func Envelope(pts []model.RoutePoint, marginM float64) model.Bounds {
	if len(pts) == 0 {
		return model.Bounds{}
	}
	b := model.Bounds{
		MinLat: pts[0].Lat, MaxLat: pts[0].Lat,
		MinLon: pts[0].Lon, MaxLon: pts[0].Lon,
	}
	for _, p := range pts[1:] {
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
	}
	const metersPerDegLat = 111320.0
	dLat := marginM / metersPerDegLat
	midLat := (b.MinLat + b.MaxLat) / 2
	cos := math.Cos(midLat * math.Pi / 180)
	if cos < 0.01 {
		cos = 0.01
	}
	dLon := marginM / (metersPerDegLat * cos)
	b.MinLat -= dLat
	b.MaxLat += dLat
	b.MinLon -= dLon
	b.MaxLon += dLon
	return b
}

// ValidLocation reports whether a lat/lon pair is a real coordinate.
func ValidLocation(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
