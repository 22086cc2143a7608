// Package teleop runs the driver-controlled robot loop.
package teleop

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gwillem/diffdrive/pkg/drive"
)

// DefaultHz is the control loop rate.
const DefaultHz = 50

// State is a snapshot of the robot after a control tick.
type State struct {
	Enabled   bool
	Input     drive.Input
	Left      float64
	Right     float64
	Timestamp time.Time
	Error     error
}

// Controller runs the periodic control loop. It is the only goroutine that
// calls into the Robot.
type Controller struct {
	robot   *Robot
	hz      int
	clock   clock.Clock
	logger  *zap.SugaredLogger
	toggles <-chan struct{}

	mu      sync.RWMutex
	running bool
	enabled bool
	request *bool // mode requested but not yet applied
	notify  chan struct{}
	stateCh chan State
}

// Config holds configuration for the controller.
type Config struct {
	Robot *Robot
	Hz    int
	// Toggles, when set, flips between enabled and disabled on every receive.
	Toggles <-chan struct{}
	Clock   clock.Clock
	Logger  *zap.SugaredLogger
}

// NewController creates a new control loop for cfg.Robot. The robot starts
// disabled.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Robot == nil {
		return nil, errors.New("robot is required")
	}
	if cfg.Hz <= 0 {
		cfg.Hz = DefaultHz
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	return &Controller{
		robot:   cfg.Robot,
		hz:      cfg.Hz,
		clock:   cfg.Clock,
		logger:  cfg.Logger,
		toggles: cfg.Toggles,
		notify:  make(chan struct{}, 1),
		stateCh: make(chan State, 1),
	}, nil
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Hz returns the control frequency.
func (c *Controller) Hz() int {
	return c.hz
}

// Enabled reports whether the robot is enabled.
func (c *Controller) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// SetEnabled requests a mode change. It is applied on the next loop
// iteration and replaces a request that has not been applied yet.
func (c *Controller) SetEnabled(enabled bool) {
	c.mu.Lock()
	c.request = &enabled
	c.mu.Unlock()
	c.wake()
}

// Toggle requests the opposite of the most recently requested mode, so two
// toggles before the loop runs cancel out.
func (c *Controller) Toggle() {
	c.mu.Lock()
	next := !c.enabled
	if c.request != nil {
		next = !*c.request
	}
	c.request = &next
	c.mu.Unlock()
	c.wake()
}

func (c *Controller) wake() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// takeRequest returns and clears the pending mode request.
func (c *Controller) takeRequest() (enabled, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.request == nil {
		return false, false
	}
	enabled = *c.request
	c.request = nil
	return enabled, true
}

// Start configures the robot and runs the control loop until ctx is done.
// A failed robot initialization is returned immediately.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("already running")
	}
	c.running = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	if err := c.robot.OnInit(ctx); err != nil {
		c.logger.Errorw("robot initialization failed", "error", err)
		return errors.Wrap(err, "robot init")
	}
	c.setMode(ctx, false)

	c.logger.Infof("control loop started at %d Hz", c.hz)

	ticker := c.clock.Ticker(time.Second / time.Duration(c.hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case <-c.notify:
			if enabled, ok := c.takeRequest(); ok {
				c.setMode(ctx, enabled)
			}
		case <-c.toggles:
			c.Toggle()
		case <-ticker.C:
			c.step(ctx)
		}
	}
}

func (c *Controller) setMode(ctx context.Context, enabled bool) {
	c.mu.Lock()
	c.enabled = enabled
	c.mu.Unlock()

	if enabled {
		c.robot.OnEnabled()
		c.logger.Info("robot enabled")
		return
	}
	if err := c.robot.OnDisabled(ctx); err != nil {
		c.logger.Errorw("failed to stop motors on disable", "error", err)
	}
	c.logger.Info("robot disabled")
}

func (c *Controller) step(ctx context.Context) {
	var stepErr error
	enabled := c.Enabled()
	// The watchdog only guards driving; a disabled robot is already stopped.
	if enabled {
		if err := c.robot.OnPeriodic(ctx); err != nil {
			c.logger.Warnw("periodic update failed", "error", err)
			stepErr = err
		}

		tripped, err := c.robot.CheckSafety(ctx)
		if tripped {
			c.logger.Warn("motor safety timeout, outputs stopped")
		}
		if err != nil {
			c.logger.Errorw("motor safety stop failed", "error", err)
			stepErr = err
		}
	}

	left, right := c.robot.Outputs()
	c.sendState(State{
		Enabled:   enabled,
		Input:     c.robot.Input(),
		Left:      left,
		Right:     right,
		Timestamp: c.clock.Now(),
		Error:     stepErr,
	})
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- s
	}
}

func (c *Controller) shutdown() {
	c.setMode(context.Background(), false)
	c.logger.Info("control loop stopped")
}
