package robot

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ConfigurationError reports a configuration write that did not succeed.
// The motors are in an unknown state afterwards and the robot must not drive.
type ConfigurationError struct {
	Motor Motor
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configure %s (id %d): %v", e.Motor.Name, e.Motor.ID, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// LeaderConfig returns the configuration for the leader of side. Only the
// right leader is inverted so that both sides drive forward for a positive
// command despite being mounted mirrored.
func LeaderConfig(side Side) MotorConfig {
	return MotorConfig{
		Role:                Leader,
		Inverted:            side == Right,
		IdleMode:            Brake,
		ResetSafeParameters: true,
		PersistParameters:   true,
	}
}

// FollowerConfig returns the configuration binding a follower to leaderID.
// The follower is never inverted relative to its leader; the leader's own
// inversion already sets the direction of the whole side.
func FollowerConfig(leaderID int) MotorConfig {
	return MotorConfig{
		Role:                Follower,
		Inverted:            false,
		Follow:              leaderID,
		ResetSafeParameters: true,
		PersistParameters:   true,
	}
}

// ConfigFor returns the configuration motor m receives.
func ConfigFor(m Motor) MotorConfig {
	if m.Role == Follower {
		return FollowerConfig(m.LeaderID)
	}
	return LeaderConfig(m.Side)
}

// Drivetrain holds the configured leader controllers.
type Drivetrain struct {
	Layout Layout
	Left   MotorController
	Right  MotorController
}

// ConfigureDrivetrain writes the leader/follower configuration to all four
// motors. Leaders are configured before followers. Every motor is attempted;
// the returned error combines a *ConfigurationError per failed motor.
func ConfigureDrivetrain(ctx context.Context, hw Hardware, layout Layout, logger *zap.SugaredLogger) (*Drivetrain, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	controllers := make(map[int]MotorController, 4)
	var errs error
	for _, m := range layout.All() {
		cfg := ConfigFor(m)

		mc, err := hw.Motor(m.ID)
		if err == nil {
			err = mc.Configure(ctx, cfg)
		}
		if err != nil {
			logger.Errorw("motor configuration failed", "motor", m.Name, "id", m.ID, "error", err)
			errs = multierr.Append(errs, &ConfigurationError{Motor: m, Err: err})
			continue
		}

		logger.Infow("motor configured", "motor", m.Name, "id", m.ID, "config", cfg.String())
		controllers[m.ID] = mc
	}
	if errs != nil {
		return nil, errs
	}

	return &Drivetrain{
		Layout: layout,
		Left:   controllers[layout.LeftLeader.ID],
		Right:  controllers[layout.RightLeader.ID],
	}, nil
}

// ConfigurationErrors returns every *ConfigurationError combined in err.
func ConfigurationErrors(err error) []*ConfigurationError {
	var out []*ConfigurationError
	for _, e := range multierr.Errors(err) {
		if ce, ok := e.(*ConfigurationError); ok {
			out = append(out, ce)
		}
	}
	return out
}
