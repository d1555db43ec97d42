package attitude

import "testing"

func closeEnough(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-6
}

func vecClose(a, b Vec3) bool {
	return closeEnough(a.X, b.X) && closeEnough(a.Y, b.Y) && closeEnough(a.Z, b.Z)
}

// TestFirstSample matches spec.md §8 scenario 1: a lone first call leaves
// the partial window holding v*0.4 and nothing yet published.
func TestFirstSample(t *testing.T) {
	var s Stream
	s.AddSample(Vec3{0.1, 0.2, 0.3}, 100.516)

	if !closeEnough(s.windowStart, 100.510) {
		t.Fatalf("windowStart = %v, want 100.510", s.windowStart)
	}
	want := Vec3{0.1, 0.2, 0.3}.Scale(0.4)
	if !vecClose(s.accum, want) {
		t.Fatalf("accum = %+v, want %+v", s.accum, want)
	}
	if _, _, ok := s.GetNextSample(); ok {
		t.Fatal("expected no sample available yet")
	}
}

// TestStraddleAndCover matches spec.md §8 scenario 2 in full.
func TestStraddleAndCover(t *testing.T) {
	var s Stream
	v1 := Vec3{0.1, 0.2, 0.3}
	s.AddSample(v1, 100.5175)
	s.AddSample(v1, 100.5275)

	v, end, ok := s.GetNextSample()
	if !ok {
		t.Fatal("expected a published sample")
	}
	if !closeEnough(end, 100.520) {
		t.Fatalf("window end = %v, want 100.520", end)
	}
	if !vecClose(v, v1) {
		t.Fatalf("value = %+v, want %+v", v, v1)
	}

	v2 := Vec3{0.5, 0.6, 0.7}
	s.AddSample(v2, 100.5475)

	v, end, ok = s.GetNextSample()
	if !ok {
		t.Fatal("expected a second published sample")
	}
	if !closeEnough(end, 100.530) {
		t.Fatalf("window end = %v, want 100.530", end)
	}
	want := Vec3{0.2, 0.3, 0.4}
	if !vecClose(v, want) {
		t.Fatalf("value = %+v, want %+v", v, want)
	}

	v, end, ok = s.GetNextSample()
	if !ok {
		t.Fatal("expected a third published sample")
	}
	if !closeEnough(end, 100.540) {
		t.Fatalf("window end = %v, want 100.540", end)
	}
	if !vecClose(v, v2) {
		t.Fatalf("value = %+v, want %+v", v, v2)
	}

	if _, _, ok := s.GetNextSample(); ok {
		t.Fatal("expected no further samples available")
	}
}

// TestRingDropsOldestOnOverrun exercises the fixed-capacity SPSC overrun
// behavior: once the ring fills, the reader never observes a gap that
// isn't itself a dropped-sample boundary -- window-end times stay
// strictly ascending.
func TestRingDropsOldestOnOverrun(t *testing.T) {
	var s Stream
	t0 := 100.0
	s.AddSample(Vec3{1, 0, 0}, t0)
	for i := 0; i < RingSize+10; i++ {
		t0 += WindowSeconds
		s.AddSample(Vec3{float64(i), 0, 0}, t0)
	}

	prev := -1.0
	count := 0
	for {
		_, end, ok := s.GetNextSample()
		if !ok {
			break
		}
		if end <= prev {
			t.Fatalf("window end times not strictly ascending: %v then %v", prev, end)
		}
		prev = end
		count++
	}
	if count > RingSize {
		t.Fatalf("read more samples (%d) than ring capacity (%d)", count, RingSize)
	}
}
