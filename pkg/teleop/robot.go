package teleop

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gwillem/diffdrive/pkg/drive"
	"github.com/gwillem/diffdrive/pkg/input"
	"github.com/gwillem/diffdrive/pkg/robot"
)

// RobotConfig holds everything a Robot needs. Zero values pick defaults.
type RobotConfig struct {
	Hardware robot.Hardware
	Layout   robot.Layout
	Joystick input.Joystick

	Deadband      float64
	MaxOutput     float64
	SafetyEnabled bool
	SafetyTimeout time.Duration

	Clock  clock.Clock
	Logger *zap.SugaredLogger
}

// Robot owns the drivetrain for the lifetime of the program. Its hooks are
// called by a single control loop: OnInit once, then OnPeriodic every tick
// while enabled and OnDisabled whenever the robot becomes disabled.
type Robot struct {
	cfg    RobotConfig
	logger *zap.SugaredLogger

	drivetrain *robot.Drivetrain
	drive      *drive.Drive
	input      drive.Input
}

// NewRobot creates a robot. Nothing is written to the hardware until OnInit.
func NewRobot(cfg RobotConfig) *Robot {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	if cfg.MaxOutput == 0 {
		cfg.MaxOutput = 1
	}
	if cfg.SafetyTimeout == 0 {
		cfg.SafetyTimeout = drive.DefaultSafetyTimeout
	}
	return &Robot{cfg: cfg, logger: cfg.Logger}
}

// NewRobotFromConfig creates a robot from the file configuration.
func NewRobotFromConfig(cfg *robot.Config, hw robot.Hardware, js input.Joystick, logger *zap.SugaredLogger) *Robot {
	return NewRobot(RobotConfig{
		Hardware:      hw,
		Layout:        cfg.Layout(),
		Joystick:      js,
		Deadband:      cfg.Drive.Deadband,
		MaxOutput:     cfg.Drive.MaxOutput,
		SafetyEnabled: cfg.Drive.SafetyEnabled,
		SafetyTimeout: time.Duration(cfg.Drive.SafetyTimeout),
		Logger:        logger,
	})
}

// OnInit configures all four motors and sets up the drive. A configuration
// failure is returned as is; the robot must not be driven afterwards.
func (r *Robot) OnInit(ctx context.Context) error {
	dt, err := robot.ConfigureDrivetrain(ctx, r.cfg.Hardware, r.cfg.Layout, r.logger)
	if err != nil {
		return err
	}
	r.drivetrain = dt

	r.drive = drive.New(dt.Left, dt.Right, r.cfg.Clock)
	r.drive.SetMaxOutput(r.cfg.MaxOutput)
	r.drive.SetSafety(r.cfg.Clock, r.cfg.SafetyTimeout, r.cfg.SafetyEnabled)

	r.logger.Infow("drive ready",
		"deadband", r.cfg.Deadband,
		"max_output", r.cfg.MaxOutput,
		"safety", r.cfg.SafetyEnabled,
		"safety_timeout", r.cfg.SafetyTimeout,
	)
	return nil
}

// OnPeriodic reads the joystick, shapes the axes and drives.
func (r *Robot) OnPeriodic(ctx context.Context) error {
	if r.drive == nil {
		return errors.New("robot not initialized")
	}

	forward, turn, err := input.DriveAxes(r.cfg.Joystick)
	if err != nil {
		// No command this tick; the safety watchdog stops the motors if
		// reads keep failing.
		return errors.Wrap(err, "read joystick")
	}

	r.input = drive.ShapeAxes(forward, turn, r.cfg.Deadband)
	return r.drive.ArcadeDrive(ctx, r.input.Speed, r.input.Rotation)
}

// OnEnabled gives the motor-safety watchdog a fresh window.
func (r *Robot) OnEnabled() {
	if r.drive != nil {
		r.drive.Safety().Feed()
	}
}

// OnDisabled stops both sides.
func (r *Robot) OnDisabled(ctx context.Context) error {
	r.input = drive.Input{}
	if r.drive == nil {
		return nil
	}
	return r.drive.StopMotor(ctx)
}

// CheckSafety runs the motor-safety watchdog. It returns true when the
// watchdog stopped the motors on this call.
func (r *Robot) CheckSafety(ctx context.Context) (bool, error) {
	if r.drive == nil {
		return false, nil
	}
	return r.drive.Safety().Check(ctx)
}

// Input returns the shaped input of the last periodic tick.
func (r *Robot) Input() drive.Input {
	return r.input
}

// Outputs returns the last commanded left and right leader outputs.
func (r *Robot) Outputs() (left, right float64) {
	if r.drive == nil {
		return 0, 0
	}
	return r.drive.Outputs()
}

// Drivetrain returns the configured drivetrain, or nil before OnInit.
func (r *Robot) Drivetrain() *robot.Drivetrain {
	return r.drivetrain
}
