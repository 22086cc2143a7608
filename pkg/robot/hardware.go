package robot

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// IdleMode is what a motor controller does while commanded to zero output.
type IdleMode uint8

const (
	Coast IdleMode = iota
	Brake
)

func (m IdleMode) String() string {
	if m == Brake {
		return "brake"
	}
	return "coast"
}

// MotorConfig is a single configuration write to a motor controller.
type MotorConfig struct {
	Role     Role
	Inverted bool
	IdleMode IdleMode
	// Follow is the hardware ID of the leader. Only used when Role is Follower.
	Follow int

	// ResetSafeParameters restores controller defaults before applying.
	ResetSafeParameters bool
	// PersistParameters keeps the configuration across power cycles.
	PersistParameters bool
}

func (c MotorConfig) String() string {
	if c.Role == Follower {
		return fmt.Sprintf("follower of %d, inverted=%t", c.Follow, c.Inverted)
	}
	return fmt.Sprintf("leader, inverted=%t, idle=%s", c.Inverted, c.IdleMode)
}

// MotorController is a single motor controller on the hardware bus.
type MotorController interface {
	ID() int
	Configure(ctx context.Context, cfg MotorConfig) error
	// SetOutput sets the duty cycle in [-1, 1].
	SetOutput(ctx context.Context, value float64) error
	Stop(ctx context.Context) error
	// Output returns the last applied output, after inversion and following.
	Output() float64
}

// Hardware is a bus of motor controllers addressed by hardware ID.
type Hardware interface {
	Motor(id int) (MotorController, error)
	Close() error
}

// followTable tracks which controllers mirror which leaders. Backends use it
// to emulate electrical following: a write to a leader is repeated on every
// bound follower without a separate command from the caller.
type followTable struct {
	mu        sync.Mutex
	followers map[int]map[int]bool // leader id -> follower id -> inverted
}

func (t *followTable) bind(follower, leader int, inverted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.unbindLocked(follower)
	if t.followers == nil {
		t.followers = make(map[int]map[int]bool)
	}
	if t.followers[leader] == nil {
		t.followers[leader] = make(map[int]bool)
	}
	t.followers[leader][follower] = inverted
}

func (t *followTable) unbind(follower int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unbindLocked(follower)
}

func (t *followTable) unbindLocked(follower int) {
	for leader, fs := range t.followers {
		delete(fs, follower)
		if len(fs) == 0 {
			delete(t.followers, leader)
		}
	}
}

// mirror returns the outputs the followers of leader must apply when the
// leader applies output.
func (t *followTable) mirror(leader int, output float64) map[int]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	fs := t.followers[leader]
	if len(fs) == 0 {
		return nil
	}
	out := make(map[int]float64, len(fs))
	for id, inverted := range fs {
		if inverted {
			out[id] = -output
		} else {
			out[id] = output
		}
	}
	return out
}

func (t *followTable) isFollower(id int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, fs := range t.followers {
		if _, ok := fs[id]; ok {
			return true
		}
	}
	return false
}

// commandLeader clamps value, applies the leader's inversion and writes the
// result to the leader and then to each of its followers. Followers cannot
// be commanded directly.
func commandLeader(follow *followTable, id int, inverted bool, value float64, write func(id int, output float64) error) error {
	if follow.isFollower(id) {
		return errors.Errorf("motor %d is a follower and cannot be commanded directly", id)
	}

	value = clampOutput(value)
	if inverted {
		value = -value
	}
	if err := write(id, value); err != nil {
		return err
	}
	for fid, out := range follow.mirror(id, value) {
		if err := write(fid, out); err != nil {
			return errors.Wrapf(err, "mirror to follower %d", fid)
		}
	}
	return nil
}

func clampOutput(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}
