package traffic

import (
	"testing"

	"github.com/rishit-agarwal/traffic-dashboard/internal/model"
)

func linePoints(n int) []model.RoutePoint {
	pts := make([]model.RoutePoint, n)
	for i := range pts {
		pts[i] = model.RoutePoint{Lat: 48.0 + float64(i)*0.001, Lon: 11.5}
	}
	return pts
}

func TestSampleUnderCapIsIdentity(t *testing.T) {
	pts := linePoints(10)
	out := SamplePoints(pts, 50)
	if len(out) != 10 {
		t.Fatalf("got %d points, want 10", len(out))
	}
	for i := range pts {
		if out[i] != pts[i] {
			t.Fatalf("point %d changed", i)
		}
	}
}

func TestSampleOverCap(t *testing.T) {
	pts := linePoints(400)
	out := SamplePoints(pts, 50)
	if len(out) != 50 {
		t.Fatalf("got %d points, want 50", len(out))
	}
	if out[0] != pts[0] {
		t.Fatal("first point missing from sample")
	}
	if out[len(out)-1] != pts[len(pts)-1] {
		t.Fatal("last point missing from sample")
	}
}

func TestSampleDeterministic(t *testing.T) {
	pts := linePoints(123)
	a := SamplePoints(pts, 50)
	b := SamplePoints(pts, 50)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample not deterministic at %d", i)
		}
	}
}
