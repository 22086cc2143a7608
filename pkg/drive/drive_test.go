package drive

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

type recordingMotor struct {
	output float64
	writes int
	err    error
}

func (m *recordingMotor) SetOutput(ctx context.Context, value float64) error {
	m.output = value
	m.writes++
	return m.err
}

func (m *recordingMotor) Stop(ctx context.Context) error {
	return m.SetOutput(ctx, 0)
}

func TestDrive_ArcadeDrive(t *testing.T) {
	left, right := &recordingMotor{}, &recordingMotor{}
	d := New(left, right, clock.NewMock())

	if err := d.ArcadeDrive(context.Background(), 0.5, 0.25); err != nil {
		t.Fatalf("ArcadeDrive: %v", err)
	}
	if left.output != 0.75 || right.output != 0.25 {
		t.Errorf("outputs = (%v, %v), want (0.75, 0.25)", left.output, right.output)
	}
	if l, r := d.Outputs(); l != 0.75 || r != 0.25 {
		t.Errorf("Outputs() = (%v, %v), want (0.75, 0.25)", l, r)
	}
}

func TestDrive_MaxOutput(t *testing.T) {
	left, right := &recordingMotor{}, &recordingMotor{}
	d := New(left, right, clock.NewMock())
	d.SetMaxOutput(0.5)

	if err := d.ArcadeDrive(context.Background(), 1, 0); err != nil {
		t.Fatalf("ArcadeDrive: %v", err)
	}
	if left.output != 0.5 || right.output != 0.5 {
		t.Errorf("outputs = (%v, %v), want (0.5, 0.5)", left.output, right.output)
	}

	d.SetMaxOutput(7) // invalid, falls back to full output
	if err := d.ArcadeDrive(context.Background(), 1, 0); err != nil {
		t.Fatalf("ArcadeDrive: %v", err)
	}
	if left.output != 1 {
		t.Errorf("left = %v, want 1", left.output)
	}
}

func TestDrive_StopMotor(t *testing.T) {
	left, right := &recordingMotor{}, &recordingMotor{}
	d := New(left, right, clock.NewMock())
	ctx := context.Background()

	if err := d.ArcadeDrive(ctx, -1, 0); err != nil {
		t.Fatalf("ArcadeDrive: %v", err)
	}
	if err := d.StopMotor(ctx); err != nil {
		t.Fatalf("StopMotor: %v", err)
	}
	if left.output != 0 || right.output != 0 {
		t.Errorf("outputs after stop = (%v, %v), want zero", left.output, right.output)
	}
}

func TestDrive_SafetyStopsStaleCommand(t *testing.T) {
	clk := clock.NewMock()
	left, right := &recordingMotor{}, &recordingMotor{}
	d := New(left, right, clk)
	d.SetSafety(clk, 100*time.Millisecond, true)
	ctx := context.Background()

	if err := d.ArcadeDrive(ctx, 0.6, 0); err != nil {
		t.Fatalf("ArcadeDrive: %v", err)
	}

	clk.Add(150 * time.Millisecond)
	tripped, err := d.Safety().Check(ctx)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !tripped {
		t.Fatal("watchdog did not trip")
	}
	if math.Abs(left.output) > 0 || math.Abs(right.output) > 0 {
		t.Errorf("outputs = (%v, %v), want zero after timeout", left.output, right.output)
	}
}

func TestDrive_ReportsMotorErrors(t *testing.T) {
	boom := errors.New("bus timeout")
	left, right := &recordingMotor{}, &recordingMotor{err: boom}
	d := New(left, right, clock.NewMock())

	err := d.ArcadeDrive(context.Background(), 0.5, 0)
	if !errors.Is(err, boom) {
		t.Fatalf("ArcadeDrive error = %v, want %v", err, boom)
	}
	// The healthy side is still written.
	if left.writes != 1 {
		t.Errorf("left writes = %d, want 1", left.writes)
	}
}
