// Package attitude implements the resampled vector stream (C8): a fixed
// 100 Hz, 10 ms-bin weighted-overlap resampler used for attitude input
// (spec.md §4.6). A Stream is single-writer single-reader and must be
// reached only from its owning goroutine (spec.md §5) -- it holds no
// internal locking.
package attitude

const (
	// RingSize is the fixed capacity of the sample ring.
	RingSize = 2048

	// WindowSeconds is the fixed resample window duration (10ms).
	WindowSeconds = 0.01
)

// Vec3 is a three-component sample, e.g. raw accelerometer/magnetometer
// output.
type Vec3 struct {
	X, Y, Z float64
}

// Scale returns v scaled by k.
func (v Vec3) Scale(k float64) Vec3 { return Vec3{v.X * k, v.Y * k, v.Z * k} }

// Add returns the component-wise sum of v and o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Stream converts an irregular vector sample stream into a strict 100 Hz
// sequence aligned to 10ms microsecond boundaries, using weighted overlap
// to preserve integrated area (spec.md §4.6).
type Stream struct {
	ring      [RingSize]Vec3
	windowEnd [RingSize]float64
	readIdx   int
	writeIdx  int

	initialized  bool
	windowStart  float64 // seconds, a multiple of WindowSeconds
	accum        Vec3
	writePosDur  float64 // seconds filled in the current window, in [0, WindowSeconds)
}

// AddSample folds one irregularly-timed sample into the resampler,
// publishing zero or more completed 10ms windows. t must be
// monotonically non-decreasing across calls (spec.md §4.6 contract).
//
// The very first call snaps the window boundary and fills the remainder
// of that first partial window forward from t (spec.md §8 scenario 1:
// add_sample(v, 100.516) leaves bin 0 holding v*0.4, the fraction of the
// window from t to its end). Every window entered afterward -- whether
// by the "fill entire window" skip case or by the leftover stamp after
// draining the while-loop below -- is instead filled backward from the
// window's start up to t, treating the newly-reported value as having
// held since the window began (spec.md §8 scenario 2).
func (s *Stream) AddSample(v Vec3, t float64) {
	if !s.initialized {
		s.windowStart = snapWindowStart(t)
		wt := clampUnit((s.windowStart + WindowSeconds - t) / WindowSeconds)
		s.accum = v.Scale(wt)
		s.writePosDur = wt * WindowSeconds
		s.initialized = true
		return
	}

	for t >= s.windowStart+WindowSeconds {
		if s.writePosDur > 0 {
			topUp := (WindowSeconds - s.writePosDur) / WindowSeconds
			s.accum = s.accum.Add(v.Scale(topUp))
		} else {
			s.accum = v
		}
		s.publish(s.windowStart+WindowSeconds, s.accum)
		s.windowStart += WindowSeconds
		s.accum = Vec3{}
		s.writePosDur = 0
	}

	leftover := t - s.windowStart
	if leftover > 0 {
		wt := clampUnit(leftover / WindowSeconds)
		s.accum = s.accum.Add(v.Scale(wt))
		s.writePosDur += leftover
		if s.writePosDur > WindowSeconds {
			s.writePosDur = WindowSeconds
		}
	}
}

func snapWindowStart(t float64) float64 {
	us := int64(t*1e6 + 0.5)
	startUs := (us / 10000) * 10000
	return float64(startUs) / 1e6
}

func clampUnit(wt float64) float64 {
	if wt < 0 {
		return 0
	}
	if wt > 1 {
		return 1
	}
	return wt
}

// publish stores a completed window in the current write cell and
// advances the write head. It clears no ring cell: the in-progress window
// lives in s.accum, which AddSample resets after each publish.
func (s *Stream) publish(windowEnd float64, v Vec3) {
	s.ring[s.writeIdx] = v
	s.windowEnd[s.writeIdx] = windowEnd
	s.writeIdx = (s.writeIdx + 1) % RingSize
	if s.writeIdx == s.readIdx {
		s.readIdx = (s.readIdx + 1) % RingSize // drop oldest on overrun
	}
}

// GetNextSample returns the oldest unread published window's value and
// window-end time. ok is false when no sample is available.
func (s *Stream) GetNextSample() (v Vec3, windowEndSec float64, ok bool) {
	if s.readIdx == s.writeIdx {
		return Vec3{}, 0, false
	}
	v = s.ring[s.readIdx]
	windowEndSec = s.windowEnd[s.readIdx]
	s.readIdx = (s.readIdx + 1) % RingSize
	return v, windowEndSec, true
}
