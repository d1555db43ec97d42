// Package route implements the route controller (C7): destination,
// vessel state, map re-centering policy, and the routing-flag contract
// exposed to the autopilot (spec.md §4.5).
package route

// PersistentFlag bits are sticky until explicitly cleared.
type PersistentFlag uint32

const (
	HavePosition PersistentFlag = 1 << iota
	HaveDestination
	Divert
	PathClear
	AutopilotActive
	AutopilotError
	StartingUpBlind
)

// CourseAdvisory is a per-cycle, mutually exclusive suggestion strength.
type CourseAdvisory uint8

const (
	CourseNormal CourseAdvisory = iota
	SuggestChange
	MakeChange
)

// SpeedAdvisory is a per-cycle, mutually exclusive speed suggestion.
type SpeedAdvisory uint8

const (
	SpeedNormal SpeedAdvisory = iota
	SpeedReduced
	SpeedFullStop
)

// StateFlag bits describe the current per-cycle routing state; more than
// one may be set at once (e.g. checking terrain and traffic together).
type StateFlag uint32

const (
	StateCheckTerrain StateFlag = 1 << iota
	StateCheckTraffic
	StateRunningBlind
	StateReachedDestination
	StatePathLocalMinimum
)

// Flags bundles the per-cycle flags refreshed every tick alongside the
// sticky PersistentFlag bitmask.
type Flags struct {
	Persistent PersistentFlag
	Course     CourseAdvisory
	Speed      SpeedAdvisory
	State      StateFlag
}

// Has reports whether every bit in want is set in the persistent flags.
func (f *Flags) Has(want PersistentFlag) bool { return f.Persistent&want == want }

// Set raises the given persistent flag bits.
func (f *Flags) Set(bits PersistentFlag) { f.Persistent |= bits }

// Clear lowers the given persistent flag bits.
func (f *Flags) Clear(bits PersistentFlag) { f.Persistent &^= bits }

// HasState reports whether every bit in want is set in the per-cycle
// state flags.
func (f *Flags) HasState(want StateFlag) bool { return f.State&want == want }
