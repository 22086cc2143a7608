package teleop

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gwillem/diffdrive/pkg/robot"
)

func newTestController(t *testing.T, rig *testRig) *Controller {
	t.Helper()
	ctrl, err := NewController(Config{
		Robot:  rig.robot,
		Clock:  rig.clock,
		Logger: zaptest.NewLogger(t).Sugar(),
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return ctrl
}

func latestState(t *testing.T, ctrl *Controller) State {
	t.Helper()
	select {
	case s := <-ctrl.States():
		return s
	default:
		t.Fatal("no state published")
		return State{}
	}
}

func TestController_Defaults(t *testing.T) {
	rig := newTestRig(t)
	ctrl := newTestController(t, rig)
	if ctrl.Hz() != DefaultHz {
		t.Errorf("Hz() = %d, want %d", ctrl.Hz(), DefaultHz)
	}
	if ctrl.Enabled() {
		t.Error("controller must start disabled")
	}

	if _, err := NewController(Config{}); err == nil {
		t.Error("NewController without a robot succeeded")
	}
}

func TestController_StepOnlyDrivesWhenEnabled(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	ctrl := newTestController(t, rig)
	if err := rig.robot.OnInit(ctx); err != nil {
		t.Fatalf("OnInit: %v", err)
	}

	rig.stick.Set(0, -1)
	ctrl.setMode(ctx, false)
	ctrl.step(ctx)
	if s := latestState(t, ctrl); s.Enabled || s.Left != 0 || s.Right != 0 {
		t.Errorf("disabled step state = %+v, want stopped", s)
	}

	ctrl.setMode(ctx, true)
	ctrl.step(ctx)
	s := latestState(t, ctrl)
	if !s.Enabled || s.Left != 1 || s.Right != 1 {
		t.Errorf("enabled step state = %+v, want full forward", s)
	}

	ctrl.setMode(ctx, false)
	ctrl.step(ctx)
	if s := latestState(t, ctrl); s.Left != 0 || s.Right != 0 {
		t.Errorf("state after disable = %+v, want stopped", s)
	}
	if got := rig.output(t, robot.DefaultLayout().RightFollower.ID); got != 0 {
		t.Errorf("right follower = %v after disable, want 0", got)
	}
}

func TestController_StepReportsErrors(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	ctrl := newTestController(t, rig)
	if err := rig.robot.OnInit(ctx); err != nil {
		t.Fatalf("OnInit: %v", err)
	}

	rig.stick.SetError(errors.New("unplugged"))
	ctrl.setMode(ctx, true)
	ctrl.step(ctx)
	if s := latestState(t, ctrl); s.Error == nil {
		t.Error("state has no error for a failed joystick read")
	}
}

func TestController_SetEnabledKeepsLatest(t *testing.T) {
	rig := newTestRig(t)
	ctrl := newTestController(t, rig)

	ctrl.SetEnabled(true)
	ctrl.SetEnabled(false)
	ctrl.SetEnabled(true)

	enabled, ok := ctrl.takeRequest()
	if !ok {
		t.Fatal("no pending mode request")
	}
	if !enabled {
		t.Error("pending mode = false, want the latest request (true)")
	}
	if _, ok := ctrl.takeRequest(); ok {
		t.Error("request still pending after it was taken")
	}
}

func TestController_ToggleUsesPendingRequest(t *testing.T) {
	tests := []struct {
		name    string
		toggles int
		want    bool
	}{
		{"once", 1, true},
		{"twice", 2, false},
		{"three times", 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rig := newTestRig(t)
			ctrl := newTestController(t, rig)

			for i := 0; i < tt.toggles; i++ {
				ctrl.Toggle()
			}
			enabled, ok := ctrl.takeRequest()
			if !ok {
				t.Fatal("no pending mode request")
			}
			if enabled != tt.want {
				t.Errorf("pending mode after %d toggles = %v, want %v", tt.toggles, enabled, tt.want)
			}
		})
	}
}

func TestController_ToggleFollowsAppliedMode(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	ctrl := newTestController(t, rig)
	if err := rig.robot.OnInit(ctx); err != nil {
		t.Fatalf("OnInit: %v", err)
	}

	ctrl.setMode(ctx, true)
	ctrl.Toggle()
	if enabled, ok := ctrl.takeRequest(); !ok || enabled {
		t.Errorf("toggle of an enabled robot requested enabled=%v (pending %v), want false", enabled, ok)
	}
}

func TestController_SafetyQuietWhileDisabled(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	core, logs := observer.New(zap.WarnLevel)
	ctrl, err := NewController(Config{
		Robot:  rig.robot,
		Clock:  rig.clock,
		Logger: zap.New(core).Sugar(),
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	if err := rig.robot.OnInit(ctx); err != nil {
		t.Fatalf("OnInit: %v", err)
	}
	const timeoutMsg = "motor safety timeout, outputs stopped"

	ctrl.setMode(ctx, false)
	for i := 0; i < 10; i++ {
		rig.clock.Add(20 * time.Millisecond)
		ctrl.step(ctx)
	}
	if n := logs.FilterMessage(timeoutMsg).Len(); n != 0 {
		t.Fatalf("watchdog tripped %d times while disabled", n)
	}

	// Enabling starts a fresh window even if the first read fails.
	rig.stick.SetError(errors.New("unplugged"))
	ctrl.setMode(ctx, true)
	ctrl.step(ctx)
	if n := logs.FilterMessage(timeoutMsg).Len(); n != 0 {
		t.Fatalf("watchdog tripped on the first enabled tick")
	}

	rig.clock.Add(150 * time.Millisecond)
	ctrl.step(ctx)
	if n := logs.FilterMessage(timeoutMsg).Len(); n != 1 {
		t.Errorf("watchdog trips while enabled without input = %d, want 1", n)
	}
}

func TestController_StartFailsOnConfigurationError(t *testing.T) {
	rig := newTestRig(t)
	rig.bus.FailConfigure(2, errors.New("no response"))
	ctrl := newTestController(t, rig)

	err := ctrl.Start(context.Background())
	if err == nil {
		t.Fatal("Start succeeded, want configuration error")
	}
	var ce *robot.ConfigurationError
	if !errors.As(err, &ce) || ce.Motor.Name != robot.LeftRear {
		t.Errorf("Start error = %v, want configuration error for %s", err, robot.LeftRear)
	}
}

func TestController_StartStopsOnCancel(t *testing.T) {
	rig := newTestRig(t)
	ctrl := newTestController(t, rig)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ctrl.Start(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Start = %v, want context.Canceled", err)
	}
	if ctrl.Enabled() {
		t.Error("controller enabled after shutdown")
	}
	if rig.robot.Drivetrain() == nil {
		t.Error("robot was not initialized before the loop")
	}
}

func TestLogSink(t *testing.T) {
	sink := NewLogSink(4)
	logger := zap.New(sink.Core(zap.InfoLevel)).Sugar()

	logger.Infow("robot enabled", "hz", 50)
	logger.Debug("dropped by level")

	select {
	case line := <-sink.Lines():
		if !strings.Contains(line, "robot enabled") || !strings.Contains(line, "50") {
			t.Errorf("line = %q, want message and field", line)
		}
	default:
		t.Fatal("no line written")
	}
	select {
	case line := <-sink.Lines():
		t.Errorf("unexpected line %q", line)
	default:
	}
}
