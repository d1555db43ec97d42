package worldmap

import (
	"math"
	"testing"
)

// TestAKNConversionScenario covers spec.md §8 scenario 4: (lon, lat) =
// (-122.5, 49.1) -> grid (akn_x=57, akn_y=40), and akn(57.5, 40.9) -> world
// ~= (237.5, 49.1) -- lon in [0, 360), not the signed (-180, 180] form.
func TestAKNConversionScenario(t *testing.T) {
	akn := ToAKN(LatLon{Lat: 49.1, Lon: -122.5})
	grid, _ := ToGrid(akn)
	if grid.X != 57 || grid.Y != 40 {
		t.Fatalf("ToGrid(ToAKN(-122.5, 49.1)) = (%d, %d), want (57, 40)", grid.X, grid.Y)
	}

	world := AKN{X: 57.5, Y: 40.9}.ToWorld()
	if math.Abs(world.Lon-237.5) > 1e-9 {
		t.Errorf("ToWorld().Lon = %v, want 237.5", world.Lon)
	}
	if math.Abs(world.Lat-49.1) > 1e-9 {
		t.Errorf("ToWorld().Lat = %v, want 49.1", world.Lat)
	}
	if world.Lon < 0 || world.Lon >= 360 {
		t.Errorf("ToWorld().Lon = %v, want range [0, 360)", world.Lon)
	}
}

// TestRoundTripAKNWorld checks the invariant world(akn(w)) ~= w within 1e-9
// for lon in [0, 360) and lat in (-90, 90) (spec.md §8 "Round trip AKN <->
// world").
func TestRoundTripAKNWorld(t *testing.T) {
	lats := []float64{-89.9, -60, -40.9, -0.001, 0, 0.001, 40.9, 60, 89.9}
	lons := []float64{0, 0.001, 57.5, 122.5, 179.999, 180, 237.5, 300, 359.999}

	for _, lat := range lats {
		for _, lon := range lons {
			w := LatLon{Lat: lat, Lon: lon}
			got := ToAKN(w).ToWorld()
			if math.Abs(got.Lat-w.Lat) > 1e-9 {
				t.Errorf("lat round trip: world(akn(%v,%v)).Lat = %v, want %v", lat, lon, got.Lat, w.Lat)
			}
			if math.Abs(got.Lon-w.Lon) > 1e-9 {
				t.Errorf("lon round trip: world(akn(%v,%v)).Lon = %v, want %v", lat, lon, got.Lon, w.Lon)
			}
		}
	}
}

// TestToWorldLonRangeAtPrimeMeridian exercises the [0, 360) longitude seam
// directly: AKN.X just above and below 180 (the prime meridian in AKN
// space) must not produce a discontinuous jump into negative longitude.
func TestToWorldLonRangeAtPrimeMeridian(t *testing.T) {
	below := AKN{X: 179.999, Y: 90}.ToWorld()
	above := AKN{X: 180.001, Y: 90}.ToWorld()
	if below.Lon < 0 || below.Lon >= 360 {
		t.Errorf("west-of-meridian Lon = %v, want [0, 360)", below.Lon)
	}
	if above.Lon < 0 || above.Lon >= 360 {
		t.Errorf("east-of-meridian Lon = %v, want [0, 360)", above.Lon)
	}
}
