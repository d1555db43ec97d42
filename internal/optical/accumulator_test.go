package optical

import "testing"

func TestDistributionTableInvariants(t *testing.T) {
	tbl := BuildDistributionTable()
	for i, w := range tbl {
		if sum := int(w.NW) + int(w.NE) + int(w.SW) + int(w.SE); sum != 64 {
			t.Fatalf("entry %d sums to %d, want 64", i, sum)
		}
		for _, c := range []uint8{w.NW, w.NE, w.SW, w.SE} {
			if c > 64 {
				t.Fatalf("entry %d has component %d outside [0,64]", i, c)
			}
		}
	}

	for fy := 0; fy < 8; fy++ {
		var prevNW, prevSW uint8
		var prevNE, prevSE int = -1, -1
		for fx := 0; fx < 8; fx++ {
			w := tbl[fy<<3|fx]
			if fx > 0 {
				if w.NW > prevNW {
					t.Fatalf("row %d: nw not non-increasing at fx=%d", fy, fx)
				}
				if w.SW > prevSW {
					t.Fatalf("row %d: sw not non-increasing at fx=%d", fy, fx)
				}
				if int(w.NE) < prevNE {
					t.Fatalf("row %d: ne not non-decreasing at fx=%d", fy, fx)
				}
				if int(w.SE) < prevSE {
					t.Fatalf("row %d: se not non-decreasing at fx=%d", fy, fx)
				}
			}
			prevNW, prevSW = w.NW, w.SW
			prevNE, prevSE = int(w.NE), int(w.SE)
		}
	}

	for fx := 0; fx < 8; fx++ {
		var prevNW, prevNE uint8
		var prevSW, prevSE int = -1, -1
		for fy := 0; fy < 8; fy++ {
			w := tbl[fy<<3|fx]
			if fy > 0 {
				if w.NW > prevNW {
					t.Fatalf("col %d: nw not non-increasing at fy=%d", fx, fy)
				}
				if w.NE > prevNE {
					t.Fatalf("col %d: ne not non-increasing at fy=%d", fx, fy)
				}
				if int(w.SW) < prevSW {
					t.Fatalf("col %d: sw not non-decreasing at fy=%d", fx, fy)
				}
				if int(w.SE) < prevSE {
					t.Fatalf("col %d: se not non-decreasing at fy=%d", fx, fy)
				}
			}
			prevNW, prevNE = w.NW, w.NE
			prevSW, prevSE = int(w.SW), int(w.SE)
		}
	}
}

// TestCenterPixelSplitsAcrossTwoRows matches spec.md §8 scenario 7: a
// dead-center camera ray lands split across two rows of the same column,
// with total accumulated weight 64 and y contribution 3200 twice.
func TestCenterPixelSplitsAcrossTwoRows(t *testing.T) {
	a := NewAccumulator(16, 16, 80, 0, 0)
	a.AddPixel(Pixel{X: 0, Y: 0, Z: 1, Luma: 100, Chroma: 0}, 1)

	var totalW uint32
	var hits int
	for _, c := range a.cells {
		if c.W == 0 {
			continue
		}
		hits++
		totalW += c.W
		if c.Y != 3200 {
			t.Errorf("hit cell y = %d, want 3200", c.Y)
		}
	}
	if hits != 2 {
		t.Fatalf("expected exactly 2 cells hit, got %d", hits)
	}
	if totalW != 64 {
		t.Fatalf("total accumulated weight = %d, want 64", totalW)
	}
}

func TestFlattenEmptySentinel(t *testing.T) {
	var c Cell
	out := c.Flatten()
	if !out.Empty || out.Border != 255 {
		t.Fatalf("expected empty sentinel for w=0, got %+v", out)
	}
}

func TestFlattenBounded(t *testing.T) {
	c := Cell{Y: 2550, V: 1000, Z: 1, W: 10}
	out := c.Flatten()
	if out.Empty {
		t.Fatal("expected non-empty output for w>0")
	}
	if out.Luma != 255 || out.Chroma != 100 || out.Border != 255 {
		t.Fatalf("unexpected flatten result: %+v", out)
	}
}

// TestVerticalBlurEveryPixelGetsOwnResult regression-tests the "stale
// pointer" bug flagged in spec.md's Open Question: every pixel must carry
// its own vertical-blur result, not a neighbor's.
func TestVerticalBlurEveryPixelGetsOwnResult(t *testing.T) {
	width, height := 3, 3
	frame := make([]OutPixel, width*height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			frame[row*width+col] = OutPixel{Luma: uint8(row * 50)}
		}
	}
	blurred := VerticalBlur3(frame, width, height)

	// Middle row, middle column: blend of rows 0,1,2 luma values (0,50,100).
	want := blend3(0, 50, 100)
	if got := blurred[1*width+1].Luma; got != want {
		t.Fatalf("middle pixel luma = %d, want %d", got, want)
	}
	// Every column in the same row must get the identical, independently
	// computed result -- not a copy of a neighboring column's pointer.
	for col := 0; col < width; col++ {
		if got := blurred[1*width+col].Luma; got != want {
			t.Fatalf("col %d middle-row luma = %d, want %d (every pixel must own its result)", col, got, want)
		}
	}
}
