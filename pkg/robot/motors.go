// Package robot provides the drivetrain motor layout and the hardware
// backends that configure and command the motor controllers.
package robot

import (
	"fmt"

	"github.com/pkg/errors"
)

// MotorName identifies a motor in the drivetrain.
type MotorName string

// Motor names for the four-motor drivetrain.
const (
	LeftFront  MotorName = "left_front"
	LeftRear   MotorName = "left_rear"
	RightFront MotorName = "right_front"
	RightRear  MotorName = "right_rear"
)

// Side is one half of the differential drive.
type Side uint8

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// Role says whether a motor is commanded directly or mirrors another motor.
type Role uint8

const (
	Leader Role = iota
	Follower
)

func (r Role) String() string {
	switch r {
	case Leader:
		return "leader"
	case Follower:
		return "follower"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// Hardware IDs of the stock drivetrain wiring.
const (
	DefaultLeftLeaderID    = 1
	DefaultLeftFollowerID  = 2
	DefaultRightLeaderID   = 4
	DefaultRightFollowerID = 3
)

// Motor is one entry of the static motor table.
type Motor struct {
	Name     MotorName
	Side     Side
	Role     Role
	ID       int
	LeaderID int // only set for followers
}

// Layout holds the four drivetrain motors. The front motor of each side
// leads and the rear motor follows it.
type Layout struct {
	LeftLeader    Motor
	LeftFollower  Motor
	RightLeader   Motor
	RightFollower Motor
}

// NewLayout builds a layout from the four hardware IDs.
func NewLayout(leftLeader, leftFollower, rightLeader, rightFollower int) Layout {
	return Layout{
		LeftLeader:    Motor{Name: LeftFront, Side: Left, Role: Leader, ID: leftLeader},
		LeftFollower:  Motor{Name: LeftRear, Side: Left, Role: Follower, ID: leftFollower, LeaderID: leftLeader},
		RightLeader:   Motor{Name: RightFront, Side: Right, Role: Leader, ID: rightLeader},
		RightFollower: Motor{Name: RightRear, Side: Right, Role: Follower, ID: rightFollower, LeaderID: rightLeader},
	}
}

// DefaultLayout returns the layout of the stock drivetrain wiring.
func DefaultLayout() Layout {
	return NewLayout(DefaultLeftLeaderID, DefaultLeftFollowerID, DefaultRightLeaderID, DefaultRightFollowerID)
}

// All returns all motors, leaders before followers.
func (l Layout) All() []Motor {
	return []Motor{l.LeftLeader, l.RightLeader, l.LeftFollower, l.RightFollower}
}

// Leader returns the leader of the given side.
func (l Layout) Leader(s Side) Motor {
	if s == Right {
		return l.RightLeader
	}
	return l.LeftLeader
}

// Follower returns the follower of the given side.
func (l Layout) Follower(s Side) Motor {
	if s == Right {
		return l.RightFollower
	}
	return l.LeftFollower
}

// Validate checks that each side has exactly one leader and one follower
// bound to it, and that no hardware ID is used twice.
func (l Layout) Validate() error {
	seen := make(map[int]MotorName, 4)
	for _, m := range l.All() {
		if m.ID <= 0 {
			return errors.Errorf("motor %s has invalid hardware id %d", m.Name, m.ID)
		}
		if other, ok := seen[m.ID]; ok {
			return errors.Errorf("motors %s and %s share hardware id %d", other, m.Name, m.ID)
		}
		seen[m.ID] = m.Name
	}

	for _, s := range []Side{Left, Right} {
		leader, follower := l.Leader(s), l.Follower(s)
		if leader.Side != s || follower.Side != s {
			return errors.Errorf("%s side holds a motor from another side", s)
		}
		if leader.Role != Leader {
			return errors.Errorf("%s leader %s has role %s", s, leader.Name, leader.Role)
		}
		if follower.Role != Follower {
			return errors.Errorf("%s follower %s has role %s", s, follower.Name, follower.Role)
		}
		if follower.LeaderID != leader.ID {
			return errors.Errorf("%s follower %s follows id %d, want %d", s, follower.Name, follower.LeaderID, leader.ID)
		}
	}
	return nil
}
