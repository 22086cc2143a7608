package drive

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultSafetyTimeout is how long outputs may go without a new command
// before the watchdog stops them.
const DefaultSafetyTimeout = 100 * time.Millisecond

// Safety is a motor-safety watchdog. Once enabled, every drive command must
// Feed it; Check stops the motors when Timeout passes without a feed.
// It is owned by the control loop and is not safe for concurrent use.
type Safety struct {
	clock   clock.Clock
	stop    func(ctx context.Context) error
	timeout time.Duration
	enabled bool
	expires time.Time
	tripped bool
}

// NewSafety returns a disabled watchdog that calls stop on timeout.
func NewSafety(clk clock.Clock, timeout time.Duration, stop func(ctx context.Context) error) *Safety {
	if clk == nil {
		clk = clock.New()
	}
	if timeout <= 0 {
		timeout = DefaultSafetyTimeout
	}
	return &Safety{
		clock:   clk,
		stop:    stop,
		timeout: timeout,
	}
}

// SetEnabled turns the watchdog on or off. Enabling starts a fresh window.
func (s *Safety) SetEnabled(enabled bool) {
	s.enabled = enabled
	if enabled {
		s.Feed()
	}
}

// Enabled reports whether the watchdog is on.
func (s *Safety) Enabled() bool { return s.enabled }

// Timeout returns the watchdog window.
func (s *Safety) Timeout() time.Duration { return s.timeout }

// Feed restarts the watchdog window.
func (s *Safety) Feed() {
	s.expires = s.clock.Now().Add(s.timeout)
	s.tripped = false
}

// Check stops the motors if the window has passed without a feed. It returns
// true when it tripped on this call. The motors are stopped once per expiry.
func (s *Safety) Check(ctx context.Context) (bool, error) {
	if !s.enabled || s.tripped {
		return false, nil
	}
	if s.clock.Now().Before(s.expires) {
		return false, nil
	}
	s.tripped = true
	if s.stop == nil {
		return true, nil
	}
	return true, s.stop(ctx)
}
