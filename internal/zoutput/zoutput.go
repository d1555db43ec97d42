// Package zoutput renders diagnostic PNGs of composite depth rasters and
// path-field cost/course state, for offline review of what the routing
// core actually saw.
package zoutput

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ancient-mariner/kharon/internal/composite"
	"github.com/ancient-mariner/kharon/internal/pathfield"
)

// depthGrid adapts a composite.Composite to plotter.GridXYZ so its depth
// codes can be rendered as a heat map.
type depthGrid struct {
	c *composite.Composite
}

func (g depthGrid) Dims() (c, r int) { return composite.Size, composite.Size }

func (g depthGrid) X(c int) float64 { return float64(c) }

func (g depthGrid) Y(r int) float64 { return float64(r) }

func (g depthGrid) Z(c, r int) float64 { return float64(g.c.At(r, c)) }

// weightGrid adapts a pathfield.Field's per-cell cost-to-go to
// plotter.GridXYZ. Unvisited cells (weight -1) render as NaN, which gonum's
// heat map renderers skip.
type weightGrid struct {
	f *pathfield.Field
}

func (g weightGrid) Dims() (c, r int) { return g.f.Width, g.f.Height }

func (g weightGrid) X(c int) float64 { return float64(c) }

func (g weightGrid) Y(r int) float64 { return float64(r) }

func (g weightGrid) Z(c, r int) float64 {
	n := g.f.Nodes[r*g.f.Width+c]
	if n.Weight < 0 {
		return nan()
	}
	return n.Weight
}

func nan() float64 {
	var zero float64
	return zero / zero
}

// RenderComposite writes a PNG of a composite depth raster to path, depth
// codes colored on the "Smooth Blue-Red" diverging palette.
func RenderComposite(c *composite.Composite, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("composite depth: %.4f,%.4f", c.Center.Lat, c.Center.Lon)

	h := plotter.NewHeatMap(depthGrid{c: c}, moreland.SmoothBlueRed())
	p.Add(h)
	p.X.Padding, p.Y.Padding = 0, 0

	return p.Save(8*vg.Inch, 8*vg.Inch, path)
}

// RenderPathField writes a PNG of a path field's cost-to-go surface to
// path.
func RenderPathField(f *pathfield.Field, path string) error {
	p := plot.New()
	p.Title.Text = "path field cost-to-go"

	h := plotter.NewHeatMap(weightGrid{f: f}, moreland.SmoothBlueRed())
	p.Add(h)
	p.X.Padding, p.Y.Padding = 0, 0

	return p.Save(8*vg.Inch, 8*vg.Inch, path)
}

// destinationDot marks a single lat/lon-derived cell on an otherwise blank
// scatter, used to overlay the vessel/destination position on a rendered
// field.
func destinationDot(row, col int) plotter.XYs {
	return plotter.XYs{{X: float64(col), Y: float64(row)}}
}

// RenderPathFieldWithMarkers renders a path field's cost-to-go surface with
// the vessel and destination cells marked, for visual course review.
func RenderPathFieldWithMarkers(f *pathfield.Field, vesselRow, vesselCol, destRow, destCol int, path string) error {
	p := plot.New()
	p.Title.Text = "path field cost-to-go"

	h := plotter.NewHeatMap(weightGrid{f: f}, moreland.SmoothBlueRed())
	p.Add(h)
	p.X.Padding, p.Y.Padding = 0, 0

	vessel, err := plotter.NewScatter(destinationDot(vesselRow, vesselCol))
	if err != nil {
		return err
	}
	vessel.Color = color.RGBA{G: 255, A: 255}
	vessel.Radius = vg.Points(3)
	p.Add(vessel)
	p.Legend.Add("vessel", vessel)

	dest, err := plotter.NewScatter(destinationDot(destRow, destCol))
	if err != nil {
		return err
	}
	dest.Color = color.RGBA{R: 255, A: 255}
	dest.Radius = vg.Points(3)
	p.Add(dest)
	p.Legend.Add("destination", dest)

	return p.Save(8*vg.Inch, 8*vg.Inch, path)
}
