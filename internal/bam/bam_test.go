package bam

import (
	"math"
	"testing"
)

func TestRoundTripBounds(t *testing.T) {
	testCases := []struct {
		name string
		deg  float64
	}{
		{"zero", 0},
		{"quarter", 90},
		{"half", 180},
		{"almost-full", 359.9},
		{"negative", -45},
		{"wrapped-positive", 725.3},
	}
	const maxErr = 360.0/4294967296.0 + 1e-6
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := FromDegrees32(tc.deg)
			got := b.Degrees()
			want := math.Mod(math.Mod(tc.deg, 360)+360, 360)
			diff := math.Abs(got - want)
			if diff > 180 {
				diff = 360 - diff
			}
			if diff > maxErr {
				t.Errorf("round trip error %.9f exceeds bound %.9f (deg=%v got=%v want=%v)", diff, maxErr, tc.deg, got, want)
			}
		})
	}
}

func TestModularWrap(t *testing.T) {
	testCases := []struct {
		name string
		deg  float64
		k    int
	}{
		{"plus-one-turn", 10, 1},
		{"plus-three-turns", 10, 3},
		{"minus-two-turns", 270, -2},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := FromDegrees32(tc.deg)
			b := FromDegrees32(tc.deg + 360*float64(tc.k))
			if a != b {
				t.Errorf("BAM32(%v) != BAM32(%v + 360*%d): %v != %v", tc.deg, tc.deg, tc.k, a, b)
			}
		})
	}
}

func TestAtanCourse(t *testing.T) {
	// due east: dx>0, dy=0 -> 90 degrees
	c := AtanCourse(1, 0)
	if math.Abs(c.Degrees()-90) > 0.01 {
		t.Errorf("east course = %v, want ~90", c.Degrees())
	}
	// due north: dx=0, dy>0 -> 0 degrees
	c = AtanCourse(0, 1)
	if math.Abs(c.Degrees()-0) > 0.01 {
		t.Errorf("north course = %v, want ~0", c.Degrees())
	}
}
