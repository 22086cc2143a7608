package robot

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultLayout(t *testing.T) {
	l := DefaultLayout()

	expected := Layout{
		LeftLeader:    Motor{Name: LeftFront, Side: Left, Role: Leader, ID: 1},
		LeftFollower:  Motor{Name: LeftRear, Side: Left, Role: Follower, ID: 2, LeaderID: 1},
		RightLeader:   Motor{Name: RightFront, Side: Right, Role: Leader, ID: 4},
		RightFollower: Motor{Name: RightRear, Side: Right, Role: Follower, ID: 3, LeaderID: 4},
	}
	if diff := cmp.Diff(expected, l); diff != "" {
		t.Errorf("DefaultLayout() mismatch (-want +got):\n%s", diff)
	}
	if err := l.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestLayout_LeaderFollower(t *testing.T) {
	l := DefaultLayout()
	for _, s := range []Side{Left, Right} {
		if l.Follower(s).LeaderID != l.Leader(s).ID {
			t.Errorf("%s follower follows %d, want %d", s, l.Follower(s).LeaderID, l.Leader(s).ID)
		}
	}
}

func TestLayout_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Layout)
		errSub string
	}{
		{"duplicate id", func(l *Layout) { l.RightFollower.ID = 1 }, "share hardware id"},
		{"zero id", func(l *Layout) { l.LeftFollower.ID = 0 }, "invalid hardware id"},
		{"follower of wrong leader", func(l *Layout) { l.LeftFollower.LeaderID = 4 }, "follows id 4"},
		{"two leaders", func(l *Layout) { l.RightFollower.Role = Leader }, "has role leader"},
		{"motor on wrong side", func(l *Layout) { l.LeftLeader.Side = Right }, "another side"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := DefaultLayout()
			tt.mutate(&l)
			err := l.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("Validate() = %q, want it to contain %q", err, tt.errSub)
			}
		})
	}
}
