package beacon

import (
	"math"
	"sort"
	"sync"

	geo "github.com/kellydunn/golang-geo"
	"golang.org/x/exp/slices"

	"github.com/ancient-mariner/kharon/internal/worldmap"
)

// Table is the read-only-after-load in-memory beacon graph, plus the
// transient per-query cost-to-go state used by the online query phase
// (spec.md §4.4, §5). It is safe for concurrent reads once built.
type Table struct {
	Records []Record

	byRow map[int][]int // integer AKN latitude row -> record indices

	mu       sync.Mutex
	costToGo []float64 // per-record path_weight, transient, reset each query
}

// NewTable builds a row-bucketed beacon table from loaded records, indexed
// by integer AKN latitude row -- the same grouping beacons.idx persists on
// disk (spec.md §3 "auxiliary index file indexes beacons by integer
// latitude row"). candidatesNear uses this to bound the candidate set for
// "beacons within this window" lookups ahead of the exact distance/window
// filter, without scanning every beacon.
func NewTable(recs []Record) *Table {
	t := &Table{
		Records:  recs,
		byRow:    make(map[int][]int),
		costToGo: make([]float64, len(recs)),
	}
	for i, r := range recs {
		row := int(r.AknY)
		t.byRow[row] = append(t.byRow[row], i)
	}
	t.resetCostToGo()
	return t
}

func (t *Table) resetCostToGo() {
	for i := range t.costToGo {
		t.costToGo[i] = -1
	}
}

// CostToGo returns the transient path_weight computed for record i by the
// most recent query-time pathfinding pass, or -1 if unreachable/not yet
// computed.
func (t *Table) CostToGo(i int) float64 { return t.costToGo[i] }

// candidatesNear returns every record index in the AKN latitude row
// containing center, plus its immediate neighbor rows. One AKN row spans a
// full degree of latitude, comfortably wider than WindowRejectDegrees
// (0.5°), so this is a provable superset of any window query centered
// anywhere in the middle row -- unlike a fixed-radius spatial index, it
// cannot silently drop beacons the exact filter in the caller would
// otherwise have kept.
func (t *Table) candidatesNear(center worldmap.LatLon) []int {
	row := int(worldmap.ToAKN(center).Y)
	var out []int
	for r := row - 1; r <= row+1; r++ {
		if r < 0 || r >= NumIndexRows {
			continue
		}
		out = append(out, t.byRow[r]...)
	}
	return out
}

// windowCandidate is a beacon located while loading the path-map query
// window, carrying its distance from the window center for the final
// closest-N sort.
type windowCandidate struct {
	index    int
	distDeg  float64
}

// LoadWindow returns up to MaxPathMapBeacons beacon indices visible in a
// composite window centered on center, sorted by distance from center
// (spec.md §4.4 "loading into a path-map query"). Beacons within
// CenterRejectDegrees of the center, or whose dx/dy exceed
// WindowRejectDegrees, are excluded.
func (t *Table) LoadWindow(center worldmap.LatLon) []int {
	var cands []windowCandidate
	for _, i := range t.candidatesNear(center) {
		ll := worldmap.AKN{X: float64(t.Records[i].AknX), Y: float64(t.Records[i].AknY)}.ToWorld()
		dLat := ll.Lat - center.Lat
		dLon := ll.Lon - center.Lon
		if dLon > 180 {
			dLon -= 360
		}
		if dLon < -180 {
			dLon += 360
		}
		if math.Abs(dLat) >= WindowRejectDegrees || math.Abs(dLon) >= WindowRejectDegrees {
			continue
		}
		scale := math.Cos(center.Lat * math.Pi / 180.0)
		dist := math.Hypot(dLat, dLon*scale)
		if dist < CenterRejectDegrees {
			continue
		}
		cands = append(cands, windowCandidate{index: i, distDeg: dist})
	}
	slices.SortFunc(cands, func(a, b windowCandidate) bool { return a.distDeg < b.distDeg })
	if len(cands) > MaxPathMapBeacons {
		cands = cands[:MaxPathMapBeacons]
	}
	out := make([]int, len(cands))
	for i, c := range cands {
		out[i] = c.index
	}
	return out
}

// VesselInhibited reports whether a beacon position lies within
// VesselInhibitionRadiusNM of the vessel, per spec.md §4.3 "non-vessel-
// inhibited" seeding rule.
func VesselInhibited(beaconPos, vesselPos worldmap.LatLon) bool {
	p1 := geo.NewPoint(beaconPos.Lat, beaconPos.Lon)
	p2 := geo.NewPoint(vesselPos.Lat, vesselPos.Lon)
	km := p1.GreatCircleDistance(p2)
	nm := km * 0.539957
	return nm < VesselInhibitionRadiusNM
}

// sortByCostToGo orders a slice of record indices ascending by their
// current cost-to-go, used when the route controller reports the
// reachable beacons nearest the destination.
func (t *Table) sortByCostToGo(idxs []int) {
	sort.Slice(idxs, func(a, b int) bool { return t.costToGo[idxs[a]] < t.costToGo[idxs[b]] })
}
