package beacon

import (
	"math"

	"github.com/ancient-mariner/kharon/internal/declination"
	"github.com/ancient-mariner/kharon/internal/worldmap"
)

const (
	// placementRowStepDeg is the AKN-latitude spacing between placement
	// rows, and placementStartAknY/placementEndAknY the sweep bounds
	// (spec.md §4.4 default beacon placement).
	placementRowStepDeg = 0.25
	placementStartAknY  = 0.125
	placementEndAknY    = 170.0

	// placementTargetStepDeg is the ~19 arc-minute target east-west
	// spacing at the equator.
	placementTargetStepDeg = 19.0 / 60.0
)

// Candidate is a default beacon placement position before the
// water/inclination filter, in AKN coordinates.
type Candidate struct {
	AknX, AknY float64
}

// DefaultPlacement sweeps rows every placementRowStepDeg of AKN latitude
// from placementStartAknY to placementEndAknY; within each row, the
// east-west step is the number of divisions of the full circle that keeps
// spacing at or under placementTargetStepDeg at the equator, scaled by
// the row's local circumference, so spacing closes around the pole with
// no seam (spec.md §4.4, §8 scenario 8).
func DefaultPlacement(store *worldmap.Store, decl *declination.Table) []Candidate {
	var out []Candidate
	for aknY := placementStartAknY; aknY <= placementEndAknY; aknY += placementRowStepDeg {
		lat := 90.0 - aknY
		circumferenceScale := math.Cos(lat * math.Pi / 180.0)
		if circumferenceScale < 1e-6 {
			circumferenceScale = 1e-6
		}
		numSteps := int(math.Ceil(360.0 / (placementTargetStepDeg / circumferenceScale)))
		if numSteps < 1 {
			numSteps = 1
		}
		lonStep := 360.0 / float64(numSteps)

		for s := 0; s < numSteps; s++ {
			aknX := float64(s) * lonStep
			if keepCandidate(store, decl, aknX, aknY) {
				out = append(out, Candidate{AknX: aknX, AknY: aknY})
			}
		}
	}
	return out
}

func keepCandidate(store *worldmap.Store, decl *declination.Table, aknX, aknY float64) bool {
	g, _ := worldmap.ToGrid(worldmap.AKN{X: aknX, Y: aknY})
	sq := store.Square(g)
	if !sq.HasWater() {
		return false
	}
	if decl != nil {
		world := worldmap.AKN{X: aknX, Y: aknY}.ToWorld()
		_, inc := decl.Lookup(world)
		if math.Abs(inc) > MaxInclinationDegrees {
			return false
		}
	}
	return true
}

// RecordsFromCandidates converts placement candidates into unprocessed
// beacon records ready for the offline association job.
func RecordsFromCandidates(cands []Candidate) []Record {
	recs := make([]Record, len(cands))
	for i, c := range cands {
		recs[i] = Record{
			AknX:         float32(c.AknX),
			AknY:         float32(c.AknY),
			NumNeighbors: unprocessedNeighborCount,
			Index:        uint32(i),
		}
	}
	return recs
}
