package drive

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
)

// Motor is the output side of a drive: the leader controller of one side.
type Motor interface {
	SetOutput(ctx context.Context, value float64) error
	Stop(ctx context.Context) error
}

// Drive commands the left and right leader motors of a differential drive.
type Drive struct {
	left, right Motor
	maxOutput   float64
	safety      *Safety

	leftOut, rightOut float64
}

// New returns a drive over the two leader motors. The safety watchdog starts
// disabled.
func New(left, right Motor, clk clock.Clock) *Drive {
	d := &Drive{
		left:      left,
		right:     right,
		maxOutput: 1,
	}
	d.safety = NewSafety(clk, DefaultSafetyTimeout, d.stop)
	return d
}

// Safety returns the motor-safety watchdog of the drive.
func (d *Drive) Safety() *Safety { return d.safety }

// SetSafety replaces the watchdog with one using timeout.
func (d *Drive) SetSafety(clk clock.Clock, timeout time.Duration, enabled bool) {
	d.safety = NewSafety(clk, timeout, d.stop)
	d.safety.SetEnabled(enabled)
}

// SetMaxOutput scales every command by max, which must be in (0, 1].
func (d *Drive) SetMaxOutput(max float64) {
	if max <= 0 || max > 1 {
		max = 1
	}
	d.maxOutput = max
}

// ArcadeDrive mixes speed and rotation and writes the result to the motors.
func (d *Drive) ArcadeDrive(ctx context.Context, speed, rotation float64) error {
	left, right := ArcadeDrive(speed, rotation)
	err := d.set(ctx, left*d.maxOutput, right*d.maxOutput)
	d.safety.Feed()
	return err
}

// StopMotor commands zero to both sides.
func (d *Drive) StopMotor(ctx context.Context) error {
	err := d.stop(ctx)
	d.safety.Feed()
	return err
}

// Outputs returns the last commanded left and right outputs.
func (d *Drive) Outputs() (left, right float64) {
	return d.leftOut, d.rightOut
}

func (d *Drive) set(ctx context.Context, left, right float64) error {
	d.leftOut, d.rightOut = left, right
	return multierr.Combine(
		d.left.SetOutput(ctx, left),
		d.right.SetOutput(ctx, right),
	)
}

func (d *Drive) stop(ctx context.Context) error {
	d.leftOut, d.rightOut = 0, 0
	return multierr.Combine(
		d.left.Stop(ctx),
		d.right.Stop(ctx),
	)
}
