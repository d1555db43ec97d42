package route

import (
	"testing"

	"github.com/ancient-mariner/kharon/internal/beacon"
	"github.com/ancient-mariner/kharon/internal/worldmap"
)

func newOpenWaterStore(t *testing.T) *worldmap.Store {
	t.Helper()
	root := t.TempDir()
	l1 := &worldmap.Level1{}
	for i := range l1.Grid {
		l1.Grid[i] = worldmap.L1Square{Low: -500, High: -100}
	}
	if err := worldmap.WriteLevel1(root, l1); err != nil {
		t.Fatalf("write level1: %v", err)
	}
	s, err := worldmap.Open(root)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func TestSetDestinationRequiresPosition(t *testing.T) {
	store := newOpenWaterStore(t)
	c := New(store, beacon.NewTable(nil))

	err := c.SetDestination(worldmap.LatLon{Lat: 10.1, Lon: 20.1}, 100)
	if err == nil {
		t.Fatal("expected an error when no vessel position has been set")
	}
}

func TestSetDestinationOpenWater(t *testing.T) {
	store := newOpenWaterStore(t)
	c := New(store, beacon.NewTable(nil))
	c.SetPosition(worldmap.LatLon{Lat: 10, Lon: 20})

	if err := c.SetDestination(worldmap.LatLon{Lat: 10.05, Lon: 20.05}, 500); err != nil {
		t.Fatalf("SetDestination: %v", err)
	}
	if !c.Flags.Has(HaveDestination) {
		t.Error("expected HaveDestination flag to be set")
	}
	if _, ok := c.VesselTargetCourse(); !ok {
		t.Error("expected a valid target course over open water")
	}
}

func TestCheckArrival(t *testing.T) {
	store := newOpenWaterStore(t)
	c := New(store, beacon.NewTable(nil))
	c.VesselPos = worldmap.LatLon{Lat: 10, Lon: 20}
	c.Destination = worldmap.LatLon{Lat: 10, Lon: 20}
	c.DestinationRadiusM = 100
	c.checkArrivalLocked()
	if !c.Flags.HasState(StateReachedDestination) {
		t.Error("expected STATE_REACHED_DESTINATION when vessel is at the destination")
	}
}
