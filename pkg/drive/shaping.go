// Package drive turns joystick axes into left/right motor commands.
package drive

import "math"

// DefaultDeadband is the stick deflection below which input is ignored.
const DefaultDeadband = 0.1

// Clamp limits v to [-1, 1]. NaN becomes 0.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}

// ApplyDeadband returns 0 when |value| is below deadband and value otherwise.
func ApplyDeadband(value, deadband float64) float64 {
	if math.Abs(value) < deadband {
		return 0
	}
	return value
}

// ScaleInput applies a squared response curve while keeping the sign, giving
// finer control near the center of the stick.
func ScaleInput(value float64) float64 {
	if value < 0 {
		return -value * value
	}
	return value * value
}

// Shape clamps raw to [-1, 1], applies the deadband and then the squared curve.
func Shape(raw, deadband float64) float64 {
	return ScaleInput(ApplyDeadband(Clamp(raw), deadband))
}

// Input is a shaped drive request.
type Input struct {
	Speed    float64
	Rotation float64
}

// ShapeAxes shapes a forward and a turn axis sample.
func ShapeAxes(forward, turn, deadband float64) Input {
	return Input{
		Speed:    Shape(forward, deadband),
		Rotation: Shape(turn, deadband),
	}
}
