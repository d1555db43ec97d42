// Package declination loads a precomputed magnetic declination/inclination
// text table and answers nearest-grid-point lookups.
package declination

import (
	"bufio"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ancient-mariner/kharon/common"
	"github.com/ancient-mariner/kharon/internal/worldmap"
)

// Resolution is the grid spacing of the declination table, in degrees.
const Resolution = 0.5

type entry struct {
	declination float64
	inclination float64
}

// Table is a read-only-after-load nearest-grid-point magnetic field table.
// Per spec.md §5, it is safe to share across goroutines without locking
// once Load has returned.
type Table struct {
	cells map[[2]int]entry
}

// Load reads a declination file in the format "<lat> <lon> <declination>
// <inclination>" per line, '#' comments allowed.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.NewError(common.CategoryConfigMissing, "declination.Load", err)
	}
	defer f.Close()

	t := &Table{cells: make(map[[2]int]entry)}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		lat, err1 := strconv.ParseFloat(fields[0], 64)
		lon, err2 := strconv.ParseFloat(fields[1], 64)
		dec, err3 := strconv.ParseFloat(fields[2], 64)
		inc, err4 := strconv.ParseFloat(fields[3], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		key := gridKey(lat, lon)
		t.cells[key] = entry{declination: dec, inclination: inc}
	}
	if err := scanner.Err(); err != nil {
		return nil, common.NewError(common.CategoryTransientIO, "declination.Load", err)
	}
	return t, nil
}

// gridKey buckets a lat/lon onto the nearest Resolution-degree grid point.
// lon is normalized to (-180, 180] first so the key is the same regardless
// of whether the caller's longitude convention is [0, 360) or (-180, 180]
// -- the table itself is loaded from a text file using signed degrees.
func gridKey(lat, lon float64) [2]int {
	lon = math.Mod(lon+180, 360)
	if lon <= 0 {
		lon += 360
	}
	lon -= 180
	return [2]int{
		int(math.Round(lat / Resolution)),
		int(math.Round(lon / Resolution)),
	}
}

// Lookup returns the declination and inclination, in degrees, at the
// nearest grid point to latlon.
func (t *Table) Lookup(latlon worldmap.LatLon) (declinationDeg, inclinationDeg float64) {
	key := gridKey(latlon.Lat, latlon.Lon)
	if e, ok := t.cells[key]; ok {
		return e.declination, e.inclination
	}
	return 0, 0
}
