package depth

import "testing"

func TestEncodeCorners(t *testing.T) {
	testCases := []struct {
		name  string
		depth uint16
		want  uint8
	}{
		{"99m", 99, 99},
		{"100m", 100, 100},
		{"599m", 599, 149},
		{"600m", 600, 150},
		{"11000m", 11000, 254},
		{"20000m-saturates", 20000, 254},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Encode(tc.depth); got != tc.want {
				t.Errorf("Encode(%d) = %d, want %d", tc.depth, got, tc.want)
			}
		})
	}
}

func TestDecodeUnknown(t *testing.T) {
	if got := Decode(255); got != Unknown {
		t.Errorf("Decode(255) = %d, want %d", got, Unknown)
	}
}

func TestRoundTripBounds(t *testing.T) {
	for d := uint16(0); d < 11000; d += 17 {
		code := Encode(d)
		if code > 254 {
			t.Fatalf("Encode(%d) = %d exceeds 254", d, code)
		}
		lo := Decode(code)
		hi := Decode(Encode(d) + 1)
		if !(lo <= d) {
			t.Errorf("decode(encode(%d))=%d violates lo<=d", d, lo)
		}
		if code < 254 && !(d < hi) {
			t.Errorf("d=%d not < decode(encode(d)+1)=%d", d, hi)
		}
	}
}
