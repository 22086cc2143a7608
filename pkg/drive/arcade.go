package drive

import "math"

// ArcadeDrive mixes a forward speed and a rotation into left and right side
// commands. Positive rotation turns right. When either side would exceed
// full output both sides are scaled down by the same factor, so the ratio
// between them and therefore the turning radius is kept.
func ArcadeDrive(speed, rotation float64) (left, right float64) {
	speed = Clamp(speed)
	rotation = Clamp(rotation)

	left = speed + rotation
	right = speed - rotation

	if m := math.Max(math.Abs(left), math.Abs(right)); m > 1 {
		left /= m
		right /= m
	}
	return left, right
}
