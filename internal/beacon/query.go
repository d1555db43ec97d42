package beacon

import (
	"math"

	"github.com/ancient-mariner/kharon/internal/composite"
	"github.com/ancient-mariner/kharon/internal/pathfield"
	"github.com/ancient-mariner/kharon/internal/worldmap"
)

// SeedWeightFactor is the 2x multiplier applied to a beacon's cost-to-go
// when seeding a per-route path field: it ensures the minimum-weight
// beacon dominates and prevents a closer-but-further-from-destination
// beacon from being a local minimum (spec.md §4.3).
const SeedWeightFactor = 2.0

// beaconsInWindow returns every beacon visible in a composite window
// centered on center, applying the dx/dy window-reject filter but none of
// the closest-N capping used by LoadWindow -- this is the wider
// "every beacon visible in the composite" query used by QueryCostToGo and
// by per-route field seeding, per spec.md §4.3/§4.4.
func (t *Table) beaconsInWindow(center worldmap.LatLon) []int {
	var out []int
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
		out = append(out, i)
	}
	return out
}

// QueryCostToGo runs the online query-time pathfinding pass (spec.md
// §4.4): every beacon's path_weight is reset, a composite is built
// centered on destination and the path field run with only the
// destination seed, each beacon visible there is recorded and pushed onto
// the global drain stack, and the stack is drained relaxing each
// neighbor edge. After it returns, every beacon reachable from the
// destination carries CostToGo(i) >= 0; the rest remain -1.
func QueryCostToGo(store *worldmap.Store, t *Table, destination worldmap.LatLon) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetCostToGo()

	c := composite.Build(store, destination)
	field := pathfield.New(c)
	if row, col, ok := c.CellForPoint(destination); ok {
		field.Seed(row, col, 0)
	}
	field.Run()

	q := newQueue(beaconStackCap)
	for _, i := range t.beaconsInWindow(destination) {
		ll := worldmap.AKN{X: float64(t.Records[i].AknX), Y: float64(t.Records[i].AknY)}.ToWorld()
		row, col, ok := c.CellForPoint(ll)
		if !ok {
			continue
		}
		n := field.At(row, col)
		if n.Weight < 0 {
			continue
		}
		if t.costToGo[i] < 0 || n.Weight < t.costToGo[i] {
			t.costToGo[i] = n.Weight
			q.push(int32(i))
		}
	}

	for {
		pi, ok := q.pop()
		if !ok {
			break
		}
		popped := &t.Records[pi]
		poppedWeight := t.costToGo[pi]
		for n := 0; n < int(popped.NumNeighbors) && n < MaxNeighbors; n++ {
			edge := popped.Neighbors[n]
			nbrIdx := recordIndexByID(t.Records, edge.NbrIndex)
			if nbrIdx < 0 {
				continue
			}
			proposed := poppedWeight + float64(edge.PathWeight)
			if t.costToGo[nbrIdx] < 0 || proposed < t.costToGo[nbrIdx] {
				t.costToGo[nbrIdx] = proposed
				q.push(int32(nbrIdx))
			}
		}
	}
}

// recordIndexByID resolves a beacon's persisted Index field back to its
// slice position. Callers that build many records up front can keep this
// O(1) by keeping Index == slice position, which NewTable's callers are
// expected to do; this linear fallback only matters for hand-edited
// beacon files where that invariant was not preserved.
func recordIndexByID(recs []Record, id uint32) int {
	if int(id) < len(recs) && recs[id].Index == id {
		return int(id)
	}
	for i, r := range recs {
		if r.Index == id {
			return i
		}
	}
	return -1
}

// SeedField seeds field with every beacon visible in its composite that is
// not vessel-inhibited, at weight SeedWeightFactor * CostToGo, per
// spec.md §4.3. Call after QueryCostToGo has populated the table for the
// current destination.
func (t *Table) SeedField(c *composite.Composite, field *pathfield.Field, vessel worldmap.LatLon) {
	for _, i := range t.beaconsInWindow(c.Center) {
		if t.costToGo[i] < 0 {
			continue
		}
		ll := worldmap.AKN{X: float64(t.Records[i].AknX), Y: float64(t.Records[i].AknY)}.ToWorld()
		if VesselInhibited(ll, vessel) {
			continue
		}
		row, col, ok := c.CellForPoint(ll)
		if !ok {
			continue
		}
		field.Seed(row, col, SeedWeightFactor*t.costToGo[i])
	}
}
