package zoutput

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ancient-mariner/kharon/internal/composite"
	"github.com/ancient-mariner/kharon/internal/pathfield"
	"github.com/ancient-mariner/kharon/internal/worldmap"
)

func TestRenderCompositeWritesFile(t *testing.T) {
	c := &composite.Composite{Center: worldmap.LatLon{Lat: 10, Lon: 20}}
	out := filepath.Join(t.TempDir(), "composite.png")

	if err := RenderComposite(c, out); err != nil {
		t.Fatalf("RenderComposite: %v", err)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("output PNG is empty")
	}
}

func TestRenderPathFieldWritesFile(t *testing.T) {
	c := &composite.Composite{Center: worldmap.LatLon{Lat: 10, Lon: 20}}
	f := pathfield.New(c)
	out := filepath.Join(t.TempDir(), "field.png")

	if err := RenderPathField(f, out); err != nil {
		t.Fatalf("RenderPathField: %v", err)
	}
	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		t.Fatalf("output PNG missing or empty: %v", err)
	}
}

func TestRenderPathFieldWithMarkersWritesFile(t *testing.T) {
	c := &composite.Composite{Center: worldmap.LatLon{Lat: 10, Lon: 20}}
	f := pathfield.New(c)
	out := filepath.Join(t.TempDir(), "field_marked.png")

	if err := RenderPathFieldWithMarkers(f, 100, 100, 600, 600, out); err != nil {
		t.Fatalf("RenderPathFieldWithMarkers: %v", err)
	}
	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		t.Fatalf("output PNG missing or empty: %v", err)
	}
}
