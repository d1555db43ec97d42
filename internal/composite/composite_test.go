package composite

import (
	"testing"

	"github.com/ancient-mariner/kharon/internal/worldmap"
)

func newEmptyStore(t *testing.T) *worldmap.Store {
	t.Helper()
	root := t.TempDir()
	l1 := &worldmap.Level1{}
	if err := worldmap.WriteLevel1(root, l1); err != nil {
		t.Fatalf("write level1: %v", err)
	}
	s, err := worldmap.Open(root)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func TestPolarFillConstants(t *testing.T) {
	store := newEmptyStore(t)

	testCases := []struct {
		name string
		lat  float64
		want uint8
	}{
		{"arctic-88", 88, arcticFillCode},
		{"antarctic-neg85", -85, antarcticFillCode},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := Build(store, worldmap.LatLon{Lat: tc.lat, Lon: 0})
			for i, v := range c.Grid {
				if v != tc.want {
					t.Fatalf("cell %d = %d, want constant %d", i, v, tc.want)
				}
			}
		})
	}
}

func TestBuildAllUnknownOnEmptyStore(t *testing.T) {
	store := newEmptyStore(t)
	c := Build(store, worldmap.LatLon{Lat: 10, Lon: 20})
	for i, v := range c.Grid {
		if v != 255 {
			t.Fatalf("cell %d = %d, want 255 (unknown) on an empty store", i, v)
		}
	}
}
