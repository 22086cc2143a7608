package input

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/splace/joysticks"
)

// HIDJoystick reads a Linux joystick device. Stick 1 drives, button 1
// requests an enable toggle.
type HIDJoystick struct {
	device *joysticks.HID

	mu     sync.Mutex
	x, y   float64
	cancel context.CancelFunc
	done   chan struct{}
	closed bool

	toggles chan struct{}
}

// OpenHID connects to joystick number index (1 for /dev/input/js0).
func OpenHID(index int) (*HIDJoystick, error) {
	device := joysticks.Connect(index)
	if device == nil {
		return nil, errors.Errorf("no joystick with index %d", index)
	}
	return newHIDJoystick(device), nil
}

func newHIDJoystick(device *joysticks.HID) *HIDJoystick {
	return &HIDJoystick{
		device:  device,
		toggles: make(chan struct{}, 1),
	}
}

// Run dispatches device events until ctx is done or Close is called. It
// returns immediately if the joystick is closed or already running.
func (j *HIDJoystick) Run(ctx context.Context) {
	ctx, ok := j.start(ctx)
	if !ok {
		return
	}
	defer close(j.done)

	moves := j.device.OnMove(1)
	presses := j.device.OnClose(1)
	// ParcelOutEvents returns when the device's event stream ends.
	go j.device.ParcelOutEvents()

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-moves:
			if c, ok := e.(joysticks.CoordsEvent); ok {
				j.move(float64(c.X), float64(c.Y))
			}
		case <-presses:
			j.press()
		}
	}
}

func (j *HIDJoystick) start(ctx context.Context) (context.Context, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed || j.done != nil {
		return nil, false
	}
	ctx, j.cancel = context.WithCancel(ctx)
	j.done = make(chan struct{})
	return ctx, true
}

// Close stops Run and waits for it to return. The stick reads centered
// afterwards.
func (j *HIDJoystick) Close() error {
	j.mu.Lock()
	j.closed = true
	cancel, done := j.cancel, j.done
	j.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	j.move(0, 0)
	return nil
}

func (j *HIDJoystick) move(x, y float64) {
	j.mu.Lock()
	j.x, j.y = x, y
	j.mu.Unlock()
}

func (j *HIDJoystick) press() {
	select {
	case j.toggles <- struct{}{}:
	default:
	}
}

// Axes returns the latest stick position.
func (j *HIDJoystick) Axes() (float64, float64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.x, j.y, nil
}

// Toggles receives a value each time button 1 is pressed.
func (j *HIDJoystick) Toggles() <-chan struct{} {
	return j.toggles
}
