// Package input reads the driver's joystick.
package input

import (
	"sync"

	"github.com/gwillem/diffdrive/pkg/drive"
)

// Joystick reports the latest position of the drive stick. X is the turn
// axis, Y the forward axis with forward being negative, both in [-1, 1].
type Joystick interface {
	Axes() (x, y float64, err error)
}

// DriveAxes reads js and returns the forward and turn axes with positive
// meaning forward and right. Readings outside [-1, 1] are clamped.
func DriveAxes(js Joystick) (forward, turn float64, err error) {
	x, y, err := js.Axes()
	if err != nil {
		return 0, 0, err
	}
	return drive.Clamp(-y), drive.Clamp(x), nil
}

// StaticJoystick is a joystick whose position is set in code.
type StaticJoystick struct {
	mu   sync.Mutex
	x, y float64
	err  error
}

// Set moves the stick.
func (s *StaticJoystick) Set(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.x, s.y = x, y
}

// SetError makes every following read fail with err.
func (s *StaticJoystick) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Axes returns the position last passed to Set.
func (s *StaticJoystick) Axes() (float64, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.x, s.y, s.err
}
