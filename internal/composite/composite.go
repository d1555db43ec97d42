// Package composite builds the 60x60 nautical-mile, 720x720 equirectangular
// depth raster used as the path field's input grid (spec.md §4.2).
package composite

import (
	"github.com/ancient-mariner/kharon/internal/depth"
	"github.com/ancient-mariner/kharon/internal/worldmap"
)

const Size = worldmap.Level3Size // 720

// polar fill thresholds and values, matching spec.md §8 scenario 5.
const (
	arcticLatThreshold    = 87.0
	antarcticLatThreshold = -84.0
	arcticFillCode        = 155
	antarcticFillCode     = 0
)

// Composite is a 720x720 raster of depth codes centered on an arbitrary
// lat/lon, covering a 1deg-latitude x (1deg/cos(lat))-longitude window
// (60nm x 60nm on the ground).
type Composite struct {
	Center   worldmap.LatLon
	DegPerNM float64
	Grid     [Size * Size]uint8
}

// At returns the depth code at (row, col).
func (c *Composite) At(row, col int) uint8 { return c.Grid[row*Size+col] }

// Set writes the depth code at (row, col).
func (c *Composite) Set(row, col int, v uint8) { c.Grid[row*Size+col] = v }

// Build samples the world map store into a fresh composite centered on
// center. Above the Arctic/below the Antarctic thresholds, no sampling is
// performed and the whole raster is filled with the fixed polar constant
// (spec.md §3, §8 scenario 5).
func Build(store *worldmap.Store, center worldmap.LatLon) *Composite {
	c := &Composite{Center: center}

	if center.Lat >= arcticLatThreshold {
		fill(c, arcticFillCode)
		return c
	}
	if center.Lat <= antarcticLatThreshold {
		fill(c, antarcticFillCode)
		return c
	}

	farLat := center.Lat + 0.5
	if center.Lat < 0 {
		farLat = center.Lat - 0.5
	}
	c.DegPerNM = worldmap.DegPerNM(farLat)

	centerAKN := worldmap.ToAKN(center)
	for r := 0; r < Size; r++ {
		dyNM := float64(r-Size/2) / 12.0 // 60nm / 720 cells = 1/12 nm per cell
		aknY := centerAKN.Y + dyNM/60.0  // 1 deg latitude == 60 nm, always
		for col := 0; col < Size; col++ {
			dxNM := float64(col-Size/2) / 12.0
			aknX := centerAKN.X + dxNM*c.DegPerNM
			code := sample(store, normalizeAKN(worldmap.AKN{X: aknX, Y: aknY}))
			c.Set(r, col, code)
		}
	}
	return c
}

func fill(c *Composite, code uint8) {
	for i := range c.Grid {
		c.Grid[i] = code
	}
}

func normalizeAKN(a worldmap.AKN) worldmap.AKN {
	for a.X < 0 {
		a.X += 360
	}
	for a.X >= 360 {
		a.X -= 360
	}
	return a
}

// sample returns the best-available depth code at an AKN position,
// preferring level-3 over level-2 over the encoded level-1 high value,
// matching the L3>L2>L1 preference in spec.md §4.2.
func sample(store *worldmap.Store, pos worldmap.AKN) uint8 {
	if pos.Y < 0 || pos.Y >= 180 {
		return 255
	}
	g, sub := worldmap.ToGrid(pos)
	sq := store.Square(g)

	if sq.HasLevel3() {
		if l3, err := store.Level3(g); err == nil && l3 != nil {
			row := clampIndex(sub.Y*worldmap.Level3Size, worldmap.Level3Size)
			col := clampIndex(sub.X*worldmap.Level3Size, worldmap.Level3Size)
			if code := l3.At(row, col); code != 255 {
				return code
			}
		}
	}
	if sq.HasLevel2() {
		if l2, err := store.Level2(g); err == nil && l2 != nil {
			row := clampIndex(sub.Y*worldmap.Level2Size, worldmap.Level2Size)
			col := clampIndex(sub.X*worldmap.Level2Size, worldmap.Level2Size)
			if code := l2.At(row, col); code != 255 {
				return code
			}
		}
	}
	if sq.High < 0 {
		return depth.Encode(uint16(-sq.High))
	}
	return 255
}

// CellForPoint maps a lat/lon into this composite's (row, col), inverting
// the sampling math in Build. ok is false when the point falls outside
// the composite's window or the composite is a polar constant fill (no
// DegPerNM was computed).
func (c *Composite) CellForPoint(pt worldmap.LatLon) (row, col int, ok bool) {
	if c.DegPerNM == 0 {
		return 0, 0, false
	}
	centerAKN := worldmap.ToAKN(c.Center)
	ptAKN := worldmap.ToAKN(pt)

	dy := ptAKN.Y - centerAKN.Y
	dyNM := dy * 60.0
	row = Size/2 + int(dyNM*12.0)

	dx := ptAKN.X - centerAKN.X
	if dx > 180 {
		dx -= 360
	}
	if dx < -180 {
		dx += 360
	}
	dxNM := dx / c.DegPerNM
	col = Size/2 + int(dxNM*12.0)

	if row < 0 || row >= Size || col < 0 || col >= Size {
		return 0, 0, false
	}
	return row, col, true
}

func clampIndex(v float64, size int) int {
	i := int(v)
	if i < 0 {
		return 0
	}
	if i >= size {
		return size - 1
	}
	return i
}
