package geo

import (
	"math"
	"testing"

	"github.com/greenmove/evcharge/core/model"
)

func TestDistanceZero(t *testing.T) {
	p := model.Position{Lat: 40.7128, Lon: -74.0060}
	if d := Distance(p, p); d != 0 {
		t.Fatalf("expected zero distance got %v", d)
	}
}

func TestDistanceLatitudeDegree(t *testing.T) {
	a := model.Position{Lat: 40, Lon: -74}
	b := model.Position{Lat: 41, Lon: -74}
	d := Distance(a, b)
	if math.Abs(d-111320) > 1 {
		t.Fatalf("one degree of latitude should be ~111320m got %v", d)
	}
}

func TestDistanceSymmetricWithinTolerance(t *testing.T) {
	a := model.Position{Lat: 40.7128, Lon: -74.0060}
	b := model.Position{Lat: 40.7200, Lon: -74.0100}
	d1 := Distance(a, b)
	d2 := Distance(b, a)
	// The projection uses the origin latitude, so symmetry is approximate.
	if math.Abs(d1-d2)/d1 > 0.001 {
		t.Fatalf("distances diverge too much: %v vs %v", d1, d2)
	}
	if d1 < 700 || d1 > 1000 {
		t.Fatalf("expected ~870m across lower Manhattan got %v", d1)
	}
}
