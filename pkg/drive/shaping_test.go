package drive

import (
	"math"
	"testing"
)

func TestShape_Deadband(t *testing.T) {
	for raw := -0.1; raw <= 0.1; raw += 0.01 {
		// Values within floating point noise of the edge are covered below.
		if math.Abs(math.Abs(raw)-0.1) < 1e-9 {
			continue
		}
		if got := Shape(raw, 0.1); got != 0 {
			t.Errorf("Shape(%f, 0.1) = %f, want 0", raw, got)
		}
	}
}

func TestShape_PreservesSign(t *testing.T) {
	for raw := 0.1; raw <= 1.0; raw += 0.05 {
		if got := Shape(raw, 0.1); got <= 0 {
			t.Errorf("Shape(%f, 0.1) = %f, want positive", raw, got)
		}
		if got := Shape(-raw, 0.1); got >= 0 {
			t.Errorf("Shape(%f, 0.1) = %f, want negative", -raw, got)
		}
	}
}

func TestShape(t *testing.T) {
	tests := []struct {
		raw      float64
		deadband float64
		expected float64
	}{
		{0.5, 0.1, 0.25},
		{-0.5, 0.1, -0.25},
		{1.0, 0.1, 1.0},
		{-1.0, 0.1, -1.0},
		{0.1, 0.1, 0.01},   // edge of the deadband passes
		{0.09, 0.1, 0},     // just inside
		{0.05, 0, 0.0025},  // no deadband
		{1.5, 0.1, 1.0},    // clamped first
		{-3, 0.1, -1.0},    // clamped first
		{math.NaN(), 0.1, 0},
	}

	for _, tt := range tests {
		got := Shape(tt.raw, tt.deadband)
		if math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("Shape(%f, %f) = %f, want %f", tt.raw, tt.deadband, got, tt.expected)
		}
	}
}

func TestApplyDeadband(t *testing.T) {
	if got := ApplyDeadband(0.3, DefaultDeadband); got != 0.3 {
		t.Errorf("ApplyDeadband(0.3) = %f, want 0.3 unchanged", got)
	}
	if got := ApplyDeadband(-0.05, DefaultDeadband); got != 0 {
		t.Errorf("ApplyDeadband(-0.05) = %f, want 0", got)
	}
}

func TestShapeAxes(t *testing.T) {
	in := ShapeAxes(0.5, -0.05, DefaultDeadband)
	if in.Speed != 0.25 || in.Rotation != 0 {
		t.Errorf("ShapeAxes(0.5, -0.05) = %+v, want {0.25 0}", in)
	}
}
