package worldmap

const (
	// NumLevel1Squares is the size of the single global level-1 grid.
	NumLevel1Squares = 360 * 180

	// Level2Size and Level3Size are the per-tile grid dimensions.
	Level2Size = 240
	Level3Size = 720

	// SubmapDepthThresholdMeters: a level-1 square gets level-2/3 subtiles
	// when water shallower than this is present in it.
	SubmapDepthThresholdMeters = 65

	FlagLevel2 uint16 = 0x01
	FlagLevel3 uint16 = 0x02
	FlagLevel4 uint16 = 0x04 // reserved, 1-arcsec resolution, unused

	Level1FileName       = "world.map1"
	Level2DirName        = "15sec"
	Level3DirName        = "5sec"
	Level2FileExtension  = "map2"
	Level3FileExtension  = "map3"
)

// L1Square is one 1deg x 1deg cell of the global level-1 grid.
type L1Square struct {
	Low      int16 // lowest elevation in the square (meters, depths negative)
	High     int16 // highest elevation in the square (land positive)
	Flags    uint16
	Reserved uint16
}

// HasLevel2 reports whether a level-2 subtile exists for this square.
func (s L1Square) HasLevel2() bool { return s.Flags&FlagLevel2 != 0 }

// HasLevel3 reports whether a level-3 subtile exists for this square.
func (s L1Square) HasLevel3() bool { return s.Flags&FlagLevel3 != 0 }

// HasWater reports whether any part of the square is below sea level.
func (s L1Square) HasWater() bool { return s.Low < 0 }

// Level1 is the single, whole-world grid of level-1 squares, stored
// row-major in AKN order.
type Level1 struct {
	Grid [NumLevel1Squares]L1Square
}

// Level2 is a 240x240 subtile of depth codes covering one level-1 square.
type Level2 struct {
	Grid [Level2Size * Level2Size]uint8
}

// Level3 is a 720x720 subtile of depth codes covering one level-1 square.
type Level3 struct {
	Grid [Level3Size * Level3Size]uint8
}

// At returns the depth code at (row, col) of a level-2 tile.
func (m *Level2) At(row, col int) uint8 { return m.Grid[row*Level2Size+col] }

// Set writes the depth code at (row, col) of a level-2 tile.
func (m *Level2) Set(row, col int, v uint8) { m.Grid[row*Level2Size+col] = v }

// At returns the depth code at (row, col) of a level-3 tile.
func (m *Level3) At(row, col int) uint8 { return m.Grid[row*Level3Size+col] }

// Set writes the depth code at (row, col) of a level-3 tile.
func (m *Level3) Set(row, col int, v uint8) { m.Grid[row*Level3Size+col] = v }
