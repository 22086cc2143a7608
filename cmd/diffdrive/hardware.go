package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gwillem/diffdrive/pkg/input"
	"github.com/gwillem/diffdrive/pkg/robot"
)

var errNoConfig = errors.New("no configuration found, run 'diffdrive setup' first")

// loadConfig reads the configuration file, falling back to defaults when
// allowMissing is set and the file does not exist.
func loadConfig(allowMissing bool) (*robot.Config, error) {
	cfg, err := robot.LoadConfigFrom(opts.Config)
	switch {
	case err == nil:
		return cfg, nil
	case os.IsNotExist(err) && allowMissing:
		return robot.DefaultConfig(), nil
	case os.IsNotExist(err):
		return nil, errNoConfig
	default:
		return nil, errors.Wrap(err, "load configuration")
	}
}

// openHardware opens the motor bus the configuration asks for.
func openHardware(cfg *robot.Config, logger *zap.SugaredLogger) (robot.Hardware, error) {
	switch cfg.Backend {
	case robot.BackendSim:
		layout := cfg.Layout()
		ids := make([]int, 0, 4)
		for _, m := range layout.All() {
			ids = append(ids, m.ID)
		}
		return robot.NewSimBus(logger, ids...), nil
	case robot.BackendFeetech:
		return robot.OpenFeetechBus(cfg.Port, cfg.MaxVelocity, logger)
	default:
		return nil, errors.Errorf("unknown backend %q", cfg.Backend)
	}
}

// joystick is the driver input together with its optional enable button.
type joystick struct {
	input.Joystick
	toggles <-chan struct{}
	// static is set when the stick is moved from the keyboard.
	static *input.StaticJoystick
}

func openJoystick(cfg *robot.Config, keyboard bool) (*joystick, error) {
	if keyboard {
		s := &input.StaticJoystick{}
		return &joystick{Joystick: s, static: s}, nil
	}
	hid, err := input.OpenHID(cfg.Joystick)
	if err != nil {
		return nil, err
	}
	return &joystick{Joystick: hid, toggles: hid.Toggles()}, nil
}

// Close releases the joystick device, if it holds one.
func (j *joystick) Close() error {
	if c, ok := j.Joystick.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
