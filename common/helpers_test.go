package common

import (
	"math"
	"os"
	"os/user"
	"testing"
)

func TestIsRunningAsRoot(t *testing.T) {
	result := IsRunningAsRoot()

	usr, err := user.Current()
	if err != nil {
		t.Fatalf("failed to get current user: %v", err)
	}
	expected := usr.Username == "root" || usr.Uid == "0"

	if result != expected {
		t.Errorf("IsRunningAsRoot() = %v, want %v (user: %s, uid: %s)",
			result, expected, usr.Username, usr.Uid)
	}
	if os.Geteuid() == 0 && !result {
		t.Error("process has effective UID 0 but IsRunningAsRoot returned false")
	}
}

func TestLinReg(t *testing.T) {
	testCases := []struct {
		name          string
		xs, ys        []float64
		wantSlope     float64
		wantIntercept float64
	}{
		{"perfect-line", []float64{0, 1, 2, 3}, []float64{1, 3, 5, 7}, 2, 1},
		{"flat", []float64{0, 1, 2}, []float64{5, 5, 5}, 0, 5},
		{"empty", nil, nil, 0, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			slope, intercept := LinReg(tc.xs, tc.ys)
			if math.Abs(slope-tc.wantSlope) > 1e-9 {
				t.Errorf("slope = %v, want %v", slope, tc.wantSlope)
			}
			if math.Abs(intercept-tc.wantIntercept) > 1e-9 {
				t.Errorf("intercept = %v, want %v", intercept, tc.wantIntercept)
			}
		})
	}
}
