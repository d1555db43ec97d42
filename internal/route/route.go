package route

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/ancient-mariner/kharon/common"
	"github.com/ancient-mariner/kharon/internal/bam"
	"github.com/ancient-mariner/kharon/internal/beacon"
	"github.com/ancient-mariner/kharon/internal/composite"
	"github.com/ancient-mariner/kharon/internal/pathfield"
	"github.com/ancient-mariner/kharon/internal/worldmap"
)

const (
	// projectedCenterOffsetNM is the distance the composite is
	// re-centered ahead of the vessel's preferred course after the
	// initial vessel-centered field pass, per spec.md §4.5. The
	// original header constant (10.0) is superseded: spec.md's explicit
	// value is authoritative.
	projectedCenterOffsetNM = 15.0

	// recenterThresholdNM is how far the vessel may drift from the
	// composite center before a per-tick rebuild is triggered.
	recenterThresholdNM = 20.0

	metersPerNM = 1852.0

	// offMapCell is the sentinel pixel coordinate a caller should treat
	// as "vessel outside composite bounds" (spec.md §4.5).
	offMapCell = 65535
)

var (
	metricRecomputeLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "kharon",
		Subsystem: "route",
		Name:      "recompute_latency_seconds",
		Help:      "Duration of a full destination/recenter route recompute.",
	})
	metricCellVisits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kharon",
		Subsystem: "route",
		Name:      "path_field_cell_visits_total",
		Help:      "Cumulative number of path field cells processed.",
	})
	metricBeaconStackOccupancy = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "kharon",
		Subsystem: "route",
		Name:      "beacon_window_occupancy",
		Help:      "Number of beacons visible in the most recent composite window.",
	})
)

func init() {
	prometheus.MustRegister(metricRecomputeLatency, metricCellVisits, metricBeaconStackOccupancy)
}

// Controller owns one vessel's destination, composite map and path field,
// per spec.md §4.5. Each Controller instance is single-owner: the
// composite and path field belong to the goroutine driving it. Its
// methods serialize on an internal mutex; the exported fields are not
// guarded for outside readers.
type Controller struct {
	Store   *worldmap.Store
	Beacons *beacon.Table

	Flags Flags

	VesselPos      worldmap.LatLon
	LastKnownPos   worldmap.LatLon
	Destination    worldmap.LatLon
	DestinationRadiusM float64

	Composite *composite.Composite
	Field     *pathfield.Field

	mu  sync.Mutex
	log *logrus.Entry
}

// New constructs a Controller with no destination and no position.
func New(store *worldmap.Store, beacons *beacon.Table) *Controller {
	return &Controller{
		Store:   store,
		Beacons: beacons,
		log:     common.NewLogger("route"),
	}
}

// SetPosition records a fresh vessel fix, matching an upstream GPS/IMU
// position update. HavePosition is set on the first successful call.
func (c *Controller) SetPosition(pos worldmap.LatLon) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.LastKnownPos = c.VesselPos
	c.VesselPos = pos
	c.Flags.Set(HavePosition)
}

// SetDestination runs the full set-destination lifecycle (spec.md §4.5
// step 1): query the beacon graph's cost-to-go from destination, build a
// vessel-centered composite and path field, compute the vessel's
// preferred course and a 15nm projected new center along it, then rebuild
// and re-run the field at that projected center so the active composite
// already leads the vessel's initial heading.
func (c *Controller) SetDestination(dest worldmap.LatLon, radiusM float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	timer := prometheus.NewTimer(metricRecomputeLatency)
	defer timer.ObserveDuration()

	if !c.Flags.Has(HavePosition) {
		return common.NewError(common.CategoryOutOfDomain, "route.SetDestination", errNoPosition)
	}

	beacon.QueryCostToGo(c.Store, c.Beacons, dest)

	comp := composite.Build(c.Store, c.VesselPos)
	field := c.buildField(comp, dest)

	row, col, ok := comp.CellForPoint(c.VesselPos)
	if !ok {
		c.Flags.State = StateRunningBlind
		return common.NewError(common.CategoryOutOfDomain, "route.SetDestination", errVesselOffMap)
	}
	vesselNode := field.At(row, col)
	if vesselNode.Weight < 0 || !vesselNode.HasCourse {
		c.Flags.State = StateRunningBlind
		return common.NewError(common.CategoryOutOfDomain, "route.SetDestination", errNoPathFromVessel)
	}

	projected := worldmap.OffsetPosition(c.VesselPos, vesselNode.TrueCourse.Degrees(), projectedCenterOffsetNM*metersPerNM)
	comp2 := composite.Build(c.Store, projected)
	field2 := c.buildField(comp2, dest)

	c.Composite = comp2
	c.Field = field2
	c.Destination = dest
	c.DestinationRadiusM = radiusM
	c.Flags.Set(HaveDestination)
	c.Flags.Clear(StartingUpBlind)
	c.Flags.State &^= StateRunningBlind

	return nil
}

// buildField seeds a fresh path field over comp with the destination (if
// inside the window) plus every non-vessel-inhibited beacon visible
// there, then runs relaxation and course assignment.
func (c *Controller) buildField(comp *composite.Composite, dest worldmap.LatLon) *pathfield.Field {
	field := pathfield.New(comp)
	if row, col, ok := comp.CellForPoint(dest); ok {
		field.Seed(row, col, 0)
	}
	c.Beacons.SeedField(comp, field, c.VesselPos)
	field.Run()
	field.BuildCourseVectors()

	visited := 0
	for _, n := range field.Nodes {
		if n.Processed {
			visited++
		}
	}
	metricCellVisits.Add(float64(visited))
	return field
}

// Tick runs the per-cycle re-center policy (spec.md §4.5 step 2): if the
// vessel has drifted more than recenterThresholdNM from the composite
// center, or its cell carries no path info, the composite is rebuilt
// offset along the vessel's current course and the field reseeded.
func (c *Controller) Tick(pos worldmap.LatLon) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.LastKnownPos = c.VesselPos
	c.VesselPos = pos
	c.Flags.Set(HavePosition)

	if !c.Flags.Has(HaveDestination) || c.Composite == nil {
		return nil
	}

	c.checkArrivalLocked()
	if c.Flags.HasState(StateReachedDestination) {
		return nil
	}

	needsRecenter := worldmap.Distance(c.Composite.Center, pos)/metersPerNM > recenterThresholdNM
	row, col, ok := c.Composite.CellForPoint(pos)
	if !ok || c.Field.At(row, col).Weight < 0 {
		needsRecenter = true
	}
	if !needsRecenter {
		return nil
	}

	timer := prometheus.NewTimer(metricRecomputeLatency)
	defer timer.ObserveDuration()

	course := c.Field.At(clampCell(row), clampCell(col)).ActiveCourse
	projected := worldmap.OffsetPosition(pos, course.Degrees(), projectedCenterOffsetNM*metersPerNM)

	beacon.QueryCostToGo(c.Store, c.Beacons, c.Destination)
	comp := composite.Build(c.Store, projected)
	field := c.buildField(comp, c.Destination)
	c.Composite = comp
	c.Field = field
	c.Flags.State &^= StateRunningBlind
	return nil
}

func clampCell(v int) int {
	if v < 0 {
		return 0
	}
	if v >= composite.Size {
		return composite.Size - 1
	}
	return v
}

func (c *Controller) checkArrivalLocked() {
	d := worldmap.Distance(c.VesselPos, c.Destination)
	if d <= c.DestinationRadiusM {
		c.Flags.State |= StateReachedDestination
	} else {
		c.Flags.State &^= StateReachedDestination
	}
}

// OverrideActiveCourseAll sets every node's active course, supporting a
// manual heading override without losing the underlying path field
// (spec.md §4.5 step 3).
func (c *Controller) OverrideActiveCourseAll(course bam.BAM16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Field != nil {
		c.Field.OverrideActiveCourseAll(course)
	}
	c.Flags.Course = MakeChange
}

// SetDefaultActiveCourse reverts every node's active course to its true
// course.
func (c *Controller) SetDefaultActiveCourse() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Field != nil {
		c.Field.SetDefaultActiveCourse()
	}
	c.Flags.Course = CourseNormal
}

// VesselTargetCourse returns the active course at the vessel's current
// composite cell, the target the autopilot should steer. ok is false when
// the vessel is off the current composite (spec.md §4.5 "vessel outside
// composite bounds").
func (c *Controller) VesselTargetCourse() (course bam.BAM16, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Composite == nil || c.Field == nil {
		return 0, false
	}
	row, col, inBounds := c.Composite.CellForPoint(c.VesselPos)
	if !inBounds {
		return 0, false
	}
	n := c.Field.At(row, col)
	if !n.HasCourse {
		return 0, false
	}
	return n.ActiveCourse, true
}

var (
	errNoPosition        = routeErr("no vessel position available")
	errVesselOffMap      = routeErr("vessel position outside composite bounds")
	errNoPathFromVessel  = routeErr("no path reaches the vessel's cell")
)

type routeErr string

func (e routeErr) Error() string { return string(e) }
