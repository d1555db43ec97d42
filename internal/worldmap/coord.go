package worldmap

import "math"

// LatLon is a standard geographic coordinate, degrees.
type LatLon struct {
	Lat float64 // [-90, 90]
	Lon float64 // [0, 360) or (-180, 180], caller-normalized
}

// AKN is the Alaska-North coordinate frame: origin at the intersection of
// the International Date Line and the North Pole.
type AKN struct {
	X float64 // [0, 360)
	Y float64 // [0, 180]
}

// GridNum identifies a 1deg x 1deg level-1 square in AKN space.
type GridNum struct {
	X uint16 // [0, 360)
	Y uint16 // [0, 180)
}

// SubgridPos is the fractional position within a level-1 square, [0,1) with
// (0,0) at the top-left.
type SubgridPos struct {
	X float64
	Y float64
}

// ToAKN converts a world lat/lon into the Alaska-North frame.
func ToAKN(w LatLon) AKN {
	x := math.Mod(w.Lon+180, 360)
	if x < 0 {
		x += 360
	}
	return AKN{X: x, Y: 90 - w.Lat}
}

// ToWorld converts an Alaska-North position back into world lat/lon. Lon is
// returned in [0, 360), matching convert_akn_to_world and the round-trip
// invariant world(akn(w)) ~= w for w.Lon in that range (spec.md §8).
func (a AKN) ToWorld() LatLon {
	lon := math.Mod(a.X-180, 360)
	if lon < 0 {
		lon += 360
	}
	return LatLon{Lat: 90 - a.Y, Lon: lon}
}

// ToGrid computes the level-1 grid square containing an AKN position and
// the fractional position within that square.
func ToGrid(pos AKN) (GridNum, SubgridPos) {
	gx := math.Floor(pos.X)
	gy := math.Floor(pos.Y)
	sub := SubgridPos{X: pos.X - gx, Y: pos.Y - gy}
	return GridNum{X: uint16(gx), Y: uint16(gy)}, sub
}

// Index returns the row-major AKN index of a grid square into the flat
// 64,800-element level-1 array.
func (g GridNum) Index() int { return int(g.X) + int(g.Y)*360 }

// DegPerNM returns the degrees-longitude-per-nautical-mile correction at
// the given (more poleward) edge latitude of a composite window, matching
// get_deg_per_nm's far-edge/cos(lat) formula.
func DegPerNM(farLatDeg float64) float64 {
	c := math.Cos(farLatDeg * math.Pi / 180.0)
	if c < 1e-6 {
		c = 1e-6
	}
	return 1.0 / (60.0 * c)
}

// MetersPerDegree converts degrees to meters along a great circle,
// treating Earth as a sphere (DEG_TO_METER in the original source).
const MetersPerDegree = 40007863.0 / 360.0

// MetersToDegrees is the inverse of MetersPerDegree.
const MetersToDegrees = 360.0 / 40007863.0

// MeterOffset returns the (east, north) meter offset of b relative to a,
// longitude-corrected by the average latitude of the two points, matching
// share.c's calc_meter_offset.
func MeterOffset(a, b LatLon) (eastM, northM float64) {
	dLon := b.Lon - a.Lon
	if dLon > 180 {
		dLon -= 360
	}
	if dLon < -180 {
		dLon += 360
	}
	avgLat := (a.Lat + b.Lat) / 2.0
	eastM = dLon * MetersPerDegree * math.Cos(avgLat*math.Pi/180.0)
	northM = (b.Lat - a.Lat) * MetersPerDegree
	return eastM, northM
}

// Distance returns the planar (flat-earth, latitude-corrected) distance in
// meters between two points, matching share.c's calc_distance.
func Distance(a, b LatLon) float64 {
	e, n := MeterOffset(a, b)
	return math.Hypot(e, n)
}

// OffsetPosition projects range_m meters along true course heading (BAM
// degrees) from origin, matching share.c's calc_offset_position.
func OffsetPosition(origin LatLon, headingDeg, rangeM float64) LatLon {
	rad := headingDeg * math.Pi / 180.0
	dNorth := rangeM * math.Cos(rad)
	dEast := rangeM * math.Sin(rad)
	lat := origin.Lat + dNorth*MetersToDegrees
	lon := origin.Lon + dEast*MetersToDegrees/math.Cos(origin.Lat*math.Pi/180.0)
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	lon -= 180
	return LatLon{Lat: lat, Lon: lon}
}
