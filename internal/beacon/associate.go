package beacon

import (
	"sort"

	"github.com/ancient-mariner/kharon/common"
	"github.com/ancient-mariner/kharon/internal/composite"
	"github.com/ancient-mariner/kharon/internal/pathfield"
	"github.com/ancient-mariner/kharon/internal/worldmap"
)

// AssociateOptions configures the offline neighbor-association job.
type AssociateOptions struct {
	// Quit is polled once per outer row; when closed the job writes a
	// partial dump of whatever has been processed so far and returns,
	// matching the SIGINT/SIGUSR1 cancellation contract (spec.md §5).
	Quit <-chan struct{}
	// OnRowDone is called after every contiguous row range finishes, so
	// the caller can flush a safe partial dump to disk.
	OnRowDone func(recs []Record)
}

// Associate runs the offline "build" phase of the beacon graph (spec.md
// §4.4): for every unprocessed record, it builds a composite centered on
// the beacon, runs the path field seeded at the beacon's own cell, and
// records the up-to-8 nearest other beacons visible in that composite
// whose weight is non-negative.
//
// This is the one place the beacon graph and the path field reference
// each other; it is kept a distinct entry point from query-time
// pathfinding (QueryCostToGo) precisely to break that cyclic reference by
// phase, per the Design Notes.
func Associate(store *worldmap.Store, t *Table, opts AssociateOptions) error {
	log := common.NewLogger("beacon-associate")
	rowsByLat := groupByRow(t.Records)

	for row, idxs := range rowsByLat {
		if quitRequested(opts.Quit) {
			log.Info("quit requested, writing partial dump")
			if opts.OnRowDone != nil {
				opts.OnRowDone(t.Records)
			}
			return nil
		}
		for _, i := range idxs {
			r := &t.Records[i]
			if !r.Unprocessed() {
				continue
			}
			associateOne(store, t, r)
		}
		_ = row
		if opts.OnRowDone != nil {
			opts.OnRowDone(t.Records)
		}
	}
	return nil
}

func quitRequested(quit <-chan struct{}) bool {
	if quit == nil {
		return false
	}
	select {
	case <-quit:
		return true
	default:
		return false
	}
}

func groupByRow(recs []Record) map[int][]int {
	out := make(map[int][]int)
	for i, r := range recs {
		row := int(r.AknY)
		out[row] = append(out[row], i)
	}
	return out
}

func associateOne(store *worldmap.Store, t *Table, r *Record) {
	center := worldmap.AKN{X: float64(r.AknX), Y: float64(r.AknY)}.ToWorld()
	c := composite.Build(store, center)
	field := pathfield.New(c)

	selfRow, selfCol, ok := c.CellForPoint(center)
	if !ok {
		r.NumNeighbors = 0
		return
	}
	field.Seed(selfRow, selfCol, 0)
	field.Run()

	type cand struct {
		idx    int
		weight float64
	}
	var cands []cand
	for _, j := range t.LoadWindow(center) {
		if int(t.Records[j].Index) == int(r.Index) {
			continue
		}
		nbrLL := worldmap.AKN{X: float64(t.Records[j].AknX), Y: float64(t.Records[j].AknY)}.ToWorld()
		row, col, ok := c.CellForPoint(nbrLL)
		if !ok {
			continue
		}
		n := field.At(row, col)
		if n.Weight < 0 {
			continue
		}
		cands = append(cands, cand{idx: j, weight: n.Weight})
	}
	sort.Slice(cands, func(a, b int) bool { return cands[a].weight < cands[b].weight })
	if len(cands) > MaxNeighbors {
		cands = cands[:MaxNeighbors]
	}

	r.NumNeighbors = int32(len(cands))
	for i, cd := range cands {
		r.Neighbors[i] = Neighbor{
			NbrIndex:   t.Records[cd.idx].Index,
			PathWeight: float32(cd.weight),
		}
	}
	for i := len(cands); i < MaxNeighbors; i++ {
		r.Neighbors[i] = Neighbor{}
	}
}
