package geo

import (
	"fmt"

	"github.com/rishit-agarwal/traffic-dashboard/internal/model"
)

// Encoded polyline codec (Google polyline algorithm, 5-digit fixed point).
// Decode must be the exact inverse of Encode: it is the compatibility
// contract with the routing provider's overview geometry.

const polylinePrecision = 1e5

// DecodeError reports a malformed or truncated polyline string.
type DecodeError struct {
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("polyline decode failed at byte %d: %s", e.Offset, e.Reason)
}

// DecodePolyline turns an encoded route geometry into ordered route points.
// An empty string decodes to an empty sequence.
func DecodePolyline(s string) ([]model.RoutePoint, error) {
	var pts []model.RoutePoint
	var lat, lon int64
	i := 0
	for i < len(s) {
		dLat, n, err := decodeVarint(s, i)
		if err != nil {
			return nil, err
		}
		i = n
		if i >= len(s) {
			return nil, &DecodeError{Offset: i, Reason: "longitude missing after latitude delta"}
		}
		dLon, n, err := decodeVarint(s, i)
		if err != nil {
			return nil, err
		}
		i = n
		lat += dLat
		lon += dLon
		p := model.RoutePoint{
			Lat: float64(lat) / polylinePrecision,
			Lon: float64(lon) / polylinePrecision,
		}
		if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
			return nil, &DecodeError{Offset: i, Reason: fmt.Sprintf("coordinate out of range (%f, %f)", p.Lat, p.Lon)}
		}
		pts = append(pts, p)
	}
	return pts, nil
}

// decodeVarint reads one signed zig-zag varint starting at s[i] and returns
// the value and the index just past it.
func decodeVarint(s string, i int) (int64, int, error) {
	var v uint64
	shift := uint(0)
	start := i
	for {
		if i >= len(s) {
			return 0, 0, &DecodeError{Offset: start, Reason: "truncated varint (continuation bit at end of string)"}
		}
		c := int64(s[i]) - 63
		if c < 0 || c > 63 {
			return 0, 0, &DecodeError{Offset: i, Reason: fmt.Sprintf("invalid character %q", s[i])}
		}
		i++
		v |= uint64(c&0x1f) << shift
		if c < 0x20 {
			break
		}
		shift += 5
		if shift > 35 {
			return 0, 0, &DecodeError{Offset: start, Reason: "varint too long"}
		}
	}
	// zig-zag back to signed
	if v&1 != 0 {
		return -int64(v>>1) - 1, i, nil
	}
	return int64(v >> 1), i, nil
}

// EncodePolyline is the inverse of DecodePolyline. Used by the round-trip
// tests and the simulator tooling.
func EncodePolyline(pts []model.RoutePoint) string {
	var out []byte
	var prevLat, prevLon int64
	for _, p := range pts {
		lat := int64(round(p.Lat * polylinePrecision))
		lon := int64(round(p.Lon * polylinePrecision))
		out = encodeVarint(out, lat-prevLat)
		out = encodeVarint(out, lon-prevLon)
		prevLat, prevLon = lat, lon
	}
	return string(out)
}

func encodeVarint(dst []byte, v int64) []byte {
	u := uint64(v) << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		dst = append(dst, byte((u&0x1f)|0x20)+63)
		u >>= 5
	}
	return append(dst, byte(u)+63)
}

func round(f float64) float64 {
	if f < 0 {
		return float64(int64(f - 0.5))
	}
	return float64(int64(f + 0.5))
}
