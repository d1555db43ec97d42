// Package pathfield implements the raster Dijkstra-style relaxation over a
// composite depth map: a per-cell cost-to-go weight and a preferred true
// course (spec.md §4.3).
package pathfield

import (
	"math"
	"math/rand"

	"github.com/ancient-mariner/kharon/internal/bam"
	"github.com/ancient-mariner/kharon/internal/composite"
)

// Penalty constants, grounded on original_source/core/include/routing/mapping.h.
const (
	adjacentNonPassablePenaltyBase     = 25.0
	adjacentNonPassablePenaltyInc      = 5.0
	semiAdjacentNonPassablePenaltyInc  = 0.3
	belowMinDepthPenaltyPerMeter       = 20.0
	absMinTraversableDepthMeters int16 = 3
	minTraversableDepthMeters    int16 = 6
	numAncestorsForDirection          = 5
	axisCost                          = 1.0
	diagCost                          = 1.25
	jitterSeed                  int64 = 12345
)

// Node is one cell of the path field: its cost-to-go and course, plus the
// arena-index parent link (-1 = unset) per the "globals become per-agent
// state" / arena-and-index design note.
type Node struct {
	ParentID     int32
	Weight       float64 // -1 = unvisited
	TrueCourse   bam.BAM16
	ActiveCourse bam.BAM16
	HasCourse    bool
	Processed    bool
	NoAccess     bool
}

// Feature is the per-cell terrain context driving traversal penalties.
type Feature struct {
	Depth   int16 // meters; <= 0 treated as land/unknown
	LandCnt uint8 // radius-1 land-neighbor count
	NearCnt uint8 // radius-2/3 land-neighbor count
}

// Field is the 720x720 path field over one composite map.
type Field struct {
	Width, Height int
	Nodes         []Node
	Features      []Feature
	CenterLatDeg  float64

	stack               []int32
	readHead, writeHead int
	rng                 *rand.Rand
}

// New builds a fresh field from a composite depth raster, computing the
// feature layer (depth, land/near-land counts) and resetting all nodes to
// unvisited. The jitter PRNG is seeded deterministically (12345) per run,
// per the Design Notes: jitter breaks grid-axis bias but must stay
// reproducible for tests.
func New(c *composite.Composite) *Field {
	w, h := composite.Size, composite.Size
	f := &Field{
		Width:        w,
		Height:       h,
		Nodes:        make([]Node, w*h),
		Features:     make([]Feature, w*h),
		CenterLatDeg: c.Center.Lat,
		stack:        make([]int32, w*h),
		rng:          rand.New(rand.NewSource(jitterSeed)),
	}
	f.buildFeatures(c)
	f.Reset()
	return f
}

func (f *Field) idx(row, col int) int { return row*f.Width + col }

func (f *Field) inBounds(row, col int) bool {
	return row >= 0 && row < f.Height && col >= 0 && col < f.Width
}

func (f *Field) buildFeatures(c *composite.Composite) {
	for r := 0; r < f.Height; r++ {
		for col := 0; col < f.Width; col++ {
			i := f.idx(r, col)
			code := c.At(r, col)
			m := decodeMeters(code)
			f.Features[i] = Feature{Depth: m}
		}
	}
	for r := 0; r < f.Height; r++ {
		for col := 0; col < f.Width; col++ {
			i := f.idx(r, col)
			f.Features[i].LandCnt = f.countLand(r, col, 1, 1)
			f.Features[i].NearCnt = f.countLand(r, col, 2, 3)
		}
	}
}

func decodeMeters(code uint8) int16 {
	if code == 255 {
		return 0 // unknown/land: treated as shallow, drives NO_ACCESS below
	}
	switch {
	case code < 100:
		return int16(code)
	case code < 150:
		return int16(100 + (int(code)-100)*10)
	default:
		return int16(600 + (int(code)-150)*100)
	}
}

func isLand(f Feature) bool { return f.Depth <= 0 }

// countLand counts, over the square ring of radii [rMin, rMax] (Chebyshev
// distance), how many neighbor cells are land.
func (f *Field) countLand(row, col, rMin, rMax int) uint8 {
	var n uint8
	for dr := -rMax; dr <= rMax; dr++ {
		for dc := -rMax; dc <= rMax; dc++ {
			cheb := dr
			if cheb < 0 {
				cheb = -cheb
			}
			if ac := dc; ac < 0 && -ac > cheb {
				cheb = -ac
			} else if ac > cheb {
				cheb = ac
			}
			if cheb < rMin || cheb > rMax {
				continue
			}
			if dr == 0 && dc == 0 {
				continue
			}
			r2, c2 := row+dr, col+dc
			if !f.inBounds(r2, c2) {
				continue
			}
			if isLand(f.Features[f.idx(r2, c2)]) {
				n++
			}
		}
	}
	return n
}

// Reset clears every node to unvisited and empties the stack, without
// recomputing the feature layer. Call before reseeding for a new route
// query against the same composite.
func (f *Field) Reset() {
	for i := range f.Nodes {
		f.Nodes[i] = Node{ParentID: -1, Weight: -1}
	}
	f.readHead, f.writeHead = 0, 0
}

func (f *Field) push(i int32) {
	if f.writeHead >= len(f.stack) {
		f.compact()
	}
	if f.writeHead >= len(f.stack) {
		f.stack = append(f.stack, 0) // genuinely more outstanding entries than cells; grow rather than drop work
	}
	f.stack[f.writeHead] = i
	f.writeHead++
}

func (f *Field) compact() {
	n := copy(f.stack, f.stack[f.readHead:f.writeHead])
	f.readHead = 0
	f.writeHead = n
}

func (f *Field) pop() (int32, bool) {
	if f.readHead >= f.writeHead {
		return 0, false
	}
	i := f.stack[f.readHead]
	f.readHead++
	return i, true
}

// Seed assigns an initial weight to the cell at (row, col) if it improves
// on any existing weight, and enqueues it. Used both for the destination
// seed (weight 0) and for beacon seeds (weight 2*beacon.path_weight).
func (f *Field) Seed(row, col int, weight float64) bool {
	if !f.inBounds(row, col) {
		return false
	}
	i := f.idx(row, col)
	n := &f.Nodes[i]
	if n.NoAccess {
		return false
	}
	if n.Weight < 0 || weight < n.Weight {
		n.Weight = weight
		n.ParentID = -1
		f.push(int32(i))
		return true
	}
	return false
}

var neighborOffsets = [8][2]int{
	{-1, 0}, {-1, 1}, {0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1},
}

// Run drains the relaxation stack until empty, propagating weights to
// neighbors. CPU-bound and not interruptible, per spec.md §5.
func (f *Field) Run() {
	for {
		ci, ok := f.pop()
		if !ok {
			break
		}
		cur := &f.Nodes[ci]
		cur.Processed = true
		row, col := int(ci)/f.Width, int(ci)%f.Width

		for _, off := range neighborOffsets {
			nr, nc := row+off[0], col+off[1]
			if !f.inBounds(nr, nc) {
				continue
			}
			ni := int32(f.idx(nr, nc))
			nf := f.Features[ni]

			if nf.Depth <= absMinTraversableDepthMeters {
				f.Nodes[ni].NoAccess = true
				f.Nodes[ni].Weight = -1
				continue
			}

			isDiag := off[0] != 0 && off[1] != 0
			jitter := 0.1 * (f.rng.Float64() - 0.5)

			var cost float64
			if !isDiag {
				cost = axisCost + penalty(nf) + jitter
			} else {
				i1 := f.idx(row, nc)
				i2 := f.idx(nr, col)
				p1, ok1 := intermPenalty(f.Nodes[i1], f.Features[i1])
				p2, ok2 := intermPenalty(f.Nodes[i2], f.Features[i2])
				if !ok1 && !ok2 {
					continue // both intermediaries blocked: can't cut this corner
				}
				best := p1
				if !ok1 || (ok2 && p2 < p1) {
					best = p2
				}
				cost = diagCost + best + penalty(nf) + jitter
			}

			newWeight := cur.Weight + cost
			if f.Nodes[ni].Weight < 0 || newWeight < f.Nodes[ni].Weight {
				f.Nodes[ni].Weight = newWeight
				f.Nodes[ni].ParentID = ci
				f.push(ni)
			}
		}
	}
}

func intermPenalty(n Node, feat Feature) (float64, bool) {
	if n.NoAccess {
		return 0, false
	}
	return penalty(feat), true
}

func penalty(f Feature) float64 {
	if f.LandCnt > 0 {
		return adjacentNonPassablePenaltyBase + adjacentNonPassablePenaltyInc*float64(f.LandCnt)
	}
	if f.NearCnt > 0 {
		return semiAdjacentNonPassablePenaltyInc * float64(f.NearCnt)
	}
	if f.Depth > absMinTraversableDepthMeters && f.Depth <= minTraversableDepthMeters {
		return belowMinDepthPenaltyPerMeter * float64(minTraversableDepthMeters-f.Depth)
	}
	return 0
}

// direction bit assignment matching neighborOffsets' order: N=0 NE=1 E=2
// SE=3 S=4 SW=5 W=6 NW=7.
func directionBit(dr, dc int) int {
	for i, off := range neighborOffsets {
		if off[0] == sign(dr) && off[1] == sign(dc) {
			return i
		}
	}
	return 0
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func narrowMask(bit int) uint8 { return 1 << uint(bit) }

func wideMask(bit int) uint8 {
	return (1 << uint((bit+7)%8)) | (1 << uint(bit)) | (1 << uint((bit+1)%8))
}

// BuildCourseVectors assigns TrueCourse to every visited, accessible node
// by walking up to numAncestorsForDirection parent generations, rejecting
// any generation whose direction from its predecessor falls outside a
// +-45-degree band of the first step (spec.md §4.3 course assignment).
func (f *Field) BuildCourseVectors() {
	scale := math.Cos(f.CenterLatDeg * math.Pi / 180.0)
	for i := range f.Nodes {
		n := &f.Nodes[i]
		if n.Weight < 0 || n.NoAccess || n.ParentID < 0 {
			continue
		}
		row, col := i/f.Width, i%f.Width
		firstParent := f.Nodes[n.ParentID]
		pr, pc := int(n.ParentID)/f.Width, int(n.ParentID)%f.Width
		baseMask := narrowMask(directionBit(pr-row, pc-col))

		cur := firstParent
		curIdx := n.ParentID
		for gen := 1; gen < numAncestorsForDirection; gen++ {
			if cur.ParentID < 0 {
				break
			}
			next := f.Nodes[cur.ParentID]
			nr, nc := int(cur.ParentID)/f.Width, int(cur.ParentID)%f.Width
			cr, cc := int(curIdx)/f.Width, int(curIdx)%f.Width
			bit := directionBit(nr-cr, nc-cc)
			if wideMask(bit)&baseMask == 0 {
				break
			}
			cur, curIdx = next, cur.ParentID
		}

		fr, fc := int(curIdx)/f.Width, int(curIdx)%f.Width
		north := float64(row - fr)
		east := float64(fc - col)
		n.TrueCourse = bam.AtanCourse(east*scale, north)
		n.ActiveCourse = n.TrueCourse
		n.HasCourse = true
	}
}

// OverrideActiveCourseAll sets every node's active course, supporting a
// manual heading override without discarding the underlying path field.
func (f *Field) OverrideActiveCourseAll(c bam.BAM16) {
	for i := range f.Nodes {
		f.Nodes[i].ActiveCourse = c
	}
}

// SetDefaultActiveCourse reverts every node's active course to its true
// course.
func (f *Field) SetDefaultActiveCourse() {
	for i := range f.Nodes {
		f.Nodes[i].ActiveCourse = f.Nodes[i].TrueCourse
	}
}

// At returns the node at (row, col).
func (f *Field) At(row, col int) Node { return f.Nodes[f.idx(row, col)] }
