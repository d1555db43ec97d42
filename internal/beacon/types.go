// Package beacon implements the global sparse waypoint graph used to seed
// the path field with long-range cost-to-go (spec.md §4.4).
package beacon

const (
	// MaxNeighbors bounds the fixed neighbor array persisted per beacon
	// record.
	MaxNeighbors = 8

	// RecordSizeBytes is the fixed on-disk size of one beacon record:
	// akn_x:f32 + akn_y:f32 + num_neighbors:i32 + index:u32 +
	// 8*(nbr_index:u32 + path_weight:f32) = 16 + 8*8 = 80.
	RecordSizeBytes = 80

	// IndexRecordSizeBytes is the fixed size of one row entry in the
	// auxiliary beacons.idx file: offset_to_first:u32, count:u32.
	IndexRecordSizeBytes = 8

	// NumIndexRows is the number of integer-latitude rows indexed by
	// beacons.idx (one per whole AKN degree of latitude, 0..179).
	NumIndexRows = 180

	// MaxPathMapBeacons is the number of closest beacons kept when
	// loading beacons into a path-map query (spec.md §4.4 "loading into
	// a path-map query").
	MaxPathMapBeacons = 12

	// VesselInhibitionRadiusNM excludes beacons within this range of the
	// vessel from path-field seeding, so a nearby beacon never dominates
	// over the vessel's own local relaxation.
	VesselInhibitionRadiusNM = 4.0

	// WindowRejectDegrees is the dx/dy rejection threshold used when
	// loading beacons into a composite window.
	WindowRejectDegrees = 0.5

	// CenterRejectDegrees skips beacons essentially coincident with the
	// window center.
	CenterRejectDegrees = 1.0 / 60.0

	// MaxInclinationDegrees excludes beacon candidates near the magnetic
	// poles during default placement.
	MaxInclinationDegrees = 84.0

	// beaconStackCap bounds the global online-query drain stack before a
	// compaction is required.
	beaconStackCap = 16384

	// unprocessedNeighborCount marks a beacon record as not yet having
	// gone through offline neighbor association.
	unprocessedNeighborCount int32 = -1
)

// Neighbor is one precomputed edge out of a beacon, toward another beacon
// by index, carrying the path-field weight between them.
type Neighbor struct {
	NbrIndex   uint32
	PathWeight float32
}

// Record is one beacon: its AKN position, and up to MaxNeighbors
// precomputed edges. This is the exact on-disk layout (RecordSizeBytes
// bytes, array-packed) -- no fields beyond what is persisted.
type Record struct {
	AknX         float32
	AknY         float32
	NumNeighbors int32 // -1 == unprocessed
	Index        uint32
	Neighbors    [MaxNeighbors]Neighbor
}

// Unprocessed reports whether this record has not yet been through offline
// neighbor association.
func (r *Record) Unprocessed() bool { return r.NumNeighbors < 0 }

// IndexEntry is one row of the auxiliary beacons.idx file.
type IndexEntry struct {
	OffsetToFirst uint32
	Count         uint32
}
