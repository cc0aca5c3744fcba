package api

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/rishit-agarwal/traffic-dashboard/internal/geo"
	"github.com/rishit-agarwal/traffic-dashboard/internal/model"
)

// parseBounds reads and validates the viewport rectangle from query
// parameters. Antimeridian-wrapping rectangles are rejected: minLon must be
// strictly below maxLon.
func parseBounds(q url.Values) (model.Bounds, error) {
	var b model.Bounds
	var err error
	read := func(name string) (float64, error) {
		v := q.Get(name)
		if v == "" {
			return 0, fmt.Errorf("missing %s", name)
		}
		f, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			return 0, fmt.Errorf("%s: %v", name, perr)
		}
		return f, nil
	}
	if b.MinLat, err = read("minLat"); err != nil {
		return b, err
	}
	if b.MinLon, err = read("minLon"); err != nil {
		return b, err
	}
	if b.MaxLat, err = read("maxLat"); err != nil {
		return b, err
	}
	if b.MaxLon, err = read("maxLon"); err != nil {
		return b, err
	}
	if !geo.ValidLocation(b.MinLat, b.MinLon) || !geo.ValidLocation(b.MaxLat, b.MaxLon) {
		return b, fmt.Errorf("coordinates out of range")
	}
	if b.MinLat > b.MaxLat {
		return b, fmt.Errorf("minLat must be <= maxLat")
	}
	if b.MinLon >= b.MaxLon {
		return b, fmt.Errorf("minLon must be < maxLon (wrapping rectangles unsupported)")
	}
	return b, nil
}

// parseWindowHours reads the optional trailing-window parameter. Zero is a
// valid empty window; negatives are rejected.
func parseWindowHours(q url.Values, def int) (int, error) {
	v := q.Get("hours")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("hours: %v", err)
	}
	if n < 0 {
		return 0, fmt.Errorf("hours must be >= 0")
	}
	return n, nil
}
