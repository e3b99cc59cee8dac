package viewport

import (
	"math"
	"testing"

	"github.com/matzehuels/swarmreplay/pkg/trajectory"
)

func TestComputeScenario(t *testing.T) {
	tr := trajectory.New([]trajectory.Record{
		{Iteration: 1, X: 0, Y: 0, Fitness: 5},
		{Iteration: 1, X: 10, Y: 10, Fitness: 1},
		{Iteration: 2, X: 1, Y: 1, Fitness: 0.5},
	})

	got := Compute(tr)
	want := Viewport{XMin: -10, XMax: 20, YMin: -10, YMax: 20}
	if got != want {
		t.Errorf("Compute() = %v, want %v", got, want)
	}
}

func TestComputeUsesWholeTrajectory(t *testing.T) {
	tr := trajectory.New([]trajectory.Record{
		{Iteration: 0, X: -3, Y: 4},
		{Iteration: 0, X: 2, Y: 8},
		{Iteration: 9, X: 40, Y: -12},
	})

	got := Compute(tr)
	want := Viewport{XMin: -13, XMax: 50, YMin: -22, YMax: 18}
	if got != want {
		t.Errorf("Compute() = %v, want %v", got, want)
	}
}

func TestComputeZeroSpread(t *testing.T) {
	tr := trajectory.New([]trajectory.Record{
		{Iteration: 0, X: 5, Y: -2},
		{Iteration: 1, X: 5, Y: -2},
	})

	vp := Compute(tr)
	if vp.Width() != 2*Margin || vp.Height() != 2*Margin {
		t.Errorf("zero-spread viewport = %v, want width and height %g", vp, 2*Margin)
	}
	if !vp.Contains(5, -2) {
		t.Error("viewport should contain the only point")
	}
}

func TestComputeZeroSpreadLargeMagnitude(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
	}{
		{"large x", 1e20, 5},
		{"large negative y", 3, -4e30},
		{"near float max", 1.7e308, -1.7e308},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vp := Compute(trajectory.New([]trajectory.Record{{Iteration: 1, X: tt.x, Y: tt.y}}))
			for _, ext := range []float64{vp.Width(), vp.Height()} {
				if !(ext > 0) || math.IsInf(ext, 0) {
					t.Errorf("viewport %v has extent %g, want finite and positive", vp, ext)
				}
			}
			if !vp.Contains(tt.x, tt.y) {
				t.Errorf("viewport %v should contain (%g, %g)", vp, tt.x, tt.y)
			}
		})
	}
}

func TestComputeWithMargin(t *testing.T) {
	tr := trajectory.New([]trajectory.Record{
		{Iteration: 0, X: 1, Y: 2},
		{Iteration: 0, X: 3, Y: 6},
	})

	vp := ComputeWithMargin(tr, 0.5)
	want := Viewport{XMin: 0.5, XMax: 3.5, YMin: 1.5, YMax: 6.5}
	if vp != want {
		t.Errorf("ComputeWithMargin() = %v, want %v", vp, want)
	}
}

func TestContains(t *testing.T) {
	vp := Viewport{XMin: -1, XMax: 1, YMin: -2, YMax: 2}

	tests := []struct {
		x, y float64
		want bool
	}{
		{0, 0, true},
		{-1, 2, true},
		{1.01, 0, false},
		{0, -2.5, false},
	}
	for _, tt := range tests {
		if got := vp.Contains(tt.x, tt.y); got != tt.want {
			t.Errorf("Contains(%g, %g) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestString(t *testing.T) {
	vp := Viewport{XMin: -10, XMax: 20, YMin: -10, YMax: 20}
	if got := vp.String(); got != "x[-10, 20] y[-10, 20]" {
		t.Errorf("String() = %q", got)
	}
}
