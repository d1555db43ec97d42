// Package optical implements the image-to-sphere accumulator (C9): it
// projects camera pixels onto a unit sphere, then onto an equirectangular
// lat/lon grid aligned to the image center, distributing each pixel's
// contribution across a 2x2 cell quad (spec.md §4.7).
package optical

import "math"

// Pixel is one source camera pixel, already rotated into the world frame
// as a unit-sphere ray plus its Y/V channel values and border flag.
type Pixel struct {
	X, Y, Z float64 // unit sphere position after rotation
	Luma    uint8
	Chroma  uint8
	Border  bool
}

// Cell accumulates weighted pixel contributions for one output grid
// position (spec.md §3 "Image accumulator cell").
type Cell struct {
	Y, V, Z, W uint32
}

// OutPixel is the flattened output of one accumulator cell.
type OutPixel struct {
	Luma, Chroma, Border uint8
	Empty                bool
}

// Flatten converts an accumulated cell into an output pixel: color =
// (y/w, v/w) when w>0, border = (z != 0 ? 255 : 0); otherwise the empty
// sentinel (gray, border=255).
func (c Cell) Flatten() OutPixel {
	if c.W == 0 {
		return OutPixel{Luma: 128, Chroma: 128, Border: 255, Empty: true}
	}
	border := uint8(0)
	if c.Z != 0 {
		border = 255
	}
	return OutPixel{
		Luma:   uint8(c.Y / c.W),
		Chroma: uint8(c.V / c.W),
		Border: border,
	}
}

// Weights is one entry of the 64-slot distribution table: the four
// corner weights of a 2x2 output-cell quad, always summing to 64.
type Weights struct {
	NW, NE, SW, SE uint8
}

// DistributionTableSize is the fixed number of precomputed subpixel
// distribution entries (8x8 subpixel positions).
const DistributionTableSize = 64

// BuildDistributionTable precomputes the 64-entry bilinear distribution
// table used to split a pixel's contribution across its 2x2 output cell
// quad. Entry index = (fracY<<3)|fracX, fracX/fracY each in [0,8)
// representing eighths of a cell. Every entry sums to 64 by construction:
// (8-fx)(8-fy) + fx(8-fy) + (8-fx)fy + fx*fy = 64.
func BuildDistributionTable() [DistributionTableSize]Weights {
	var t [DistributionTableSize]Weights
	for fy := 0; fy < 8; fy++ {
		for fx := 0; fx < 8; fx++ {
			idx := fy<<3 | fx
			t[idx] = Weights{
				NW: uint8((8 - fx) * (8 - fy)),
				NE: uint8(fx * (8 - fy)),
				SW: uint8((8 - fx) * fy),
				SE: uint8(fx * fy),
			}
		}
	}
	return t
}

// Accumulator projects pixels onto an equirectangular grid centered on an
// image's own (lat, lon), aligned so the accumulator's own corner is
// (0,0) (spec.md §4.7).
type Accumulator struct {
	Width, Height int
	PixPerDegree  float64
	CenterLatDeg  float64
	CenterLonDeg  float64

	cells []Cell
	dist  [DistributionTableSize]Weights
}

// NewAccumulator allocates a fresh, zeroed accumulator.
func NewAccumulator(width, height int, pixPerDegree, centerLat, centerLon float64) *Accumulator {
	return &Accumulator{
		Width:        width,
		Height:       height,
		PixPerDegree: pixPerDegree,
		CenterLatDeg: centerLat,
		CenterLonDeg: centerLon,
		cells:        make([]Cell, width*height),
		dist:         BuildDistributionTable(),
	}
}

// Reset clears every cell, matching the "next-frame reset drops the
// previous frame if flattening has not consumed it" backpressure policy
// (spec.md §5).
func (a *Accumulator) Reset() {
	for i := range a.cells {
		a.cells[i] = Cell{}
	}
}

// AddPixel projects px onto the sphere-aligned grid and distributes its
// weighted contribution across the 2x2 output cell quad it falls in.
// Pixels that land outside the accumulator are dropped silently.
func (a *Accumulator) AddPixel(px Pixel, weight uint32) {
	const r2d = 180.0 / math.Pi
	lat := math.Asin(0.99999*px.Y) * r2d
	lon := math.Atan2(-px.X, px.Z) * r2d
	lon = normalizeLon180(lon)

	dLat := lat - a.CenterLatDeg
	dLon := lon - a.CenterLonDeg

	scale := 8.0 * a.PixPerDegree
	// The vertical axis carries an extra half-cell (4 subpixel unit)
	// bias from recentering the accumulator's row origin on its corner
	// rather than its optical center; the horizontal axis does not
	// (spec.md §8 scenario 7: a dead-center ray splits its weight across
	// exactly two rows of the same column, not a 2x2 quad).
	subY := dLat*scale + 4.0
	subX := dLon * scale

	nwCellY := int(math.Floor(subY / 8.0))
	nwCellX := int(math.Floor(subX / 8.0))

	fracY := wrapSub(int(math.Floor(subY)) - nwCellY*8)
	fracX := wrapSub(int(math.Floor(subX)) - nwCellX*8)

	w := a.dist[fracY<<3|fracX]

	a.addToCell(nwCellY, nwCellX, px, w.NW, weight)
	a.addToCell(nwCellY, nwCellX+1, px, w.NE, weight)
	a.addToCell(nwCellY+1, nwCellX, px, w.SW, weight)
	a.addToCell(nwCellY+1, nwCellX+1, px, w.SE, weight)
}

func wrapSub(v int) int {
	v &= 7
	return v
}

func (a *Accumulator) addToCell(row, col int, px Pixel, distWeight uint8, baseWeight uint32) {
	if row < 0 || row >= a.Height || col < 0 || col >= a.Width {
		return
	}
	i := row*a.Width + col
	wt := uint32(distWeight) * baseWeight
	a.cells[i].Y += uint32(px.Luma) * wt
	a.cells[i].V += uint32(px.Chroma) * wt
	if px.Border {
		a.cells[i].Z |= 1
	}
	a.cells[i].W += wt
}

func normalizeLon180(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon <= -180 {
		lon += 360
	}
	return lon
}

// Flatten renders the full output frame. The outer row/column is always
// marked empty regardless of accumulated data, matching the border
// convention in spec.md §4.7.
func (a *Accumulator) Flatten() []OutPixel {
	out := make([]OutPixel, len(a.cells))
	for i, c := range a.cells {
		out[i] = c.Flatten()
	}
	for col := 0; col < a.Width; col++ {
		out[col] = OutPixel{Luma: 128, Chroma: 128, Border: 255, Empty: true}
		out[(a.Height-1)*a.Width+col] = OutPixel{Luma: 128, Chroma: 128, Border: 255, Empty: true}
	}
	for row := 0; row < a.Height; row++ {
		out[row*a.Width] = OutPixel{Luma: 128, Chroma: 128, Border: 255, Empty: true}
		out[row*a.Width+a.Width-1] = OutPixel{Luma: 128, Chroma: 128, Border: 255, Empty: true}
	}
	return out
}

// VerticalBlur3 applies a 3-tap vertical blur to a flattened frame,
// writing each output pixel its own blended result. spec.md's Open
// Question flags a stale-pointer bug in the original C ("dest->color
// instead of pix->color") that would have every row after the first
// receive its PREDECESSOR's blur result; this implementation writes each
// pixel's own computed blend, which spec.md states is the correct
// behavior to implement and test.
func VerticalBlur3(frame []OutPixel, width, height int) []OutPixel {
	out := make([]OutPixel, len(frame))
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			above := clampRow(row-1, height)
			below := clampRow(row+1, height)
			cur := frame[row*width+col]
			a := frame[above*width+col]
			b := frame[below*width+col]
			out[row*width+col] = OutPixel{
				Luma:   blend3(a.Luma, cur.Luma, b.Luma),
				Chroma: blend3(a.Chroma, cur.Chroma, b.Chroma),
				Border: cur.Border,
				Empty:  cur.Empty,
			}
		}
	}
	return out
}

func clampRow(r, height int) int {
	if r < 0 {
		return 0
	}
	if r >= height {
		return height - 1
	}
	return r
}

func blend3(a, b, c uint8) uint8 {
	return uint8((uint16(a) + 2*uint16(b) + uint16(c)) / 4)
}
