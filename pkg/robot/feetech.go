package robot

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultMaxVelocity is the wheel-mode velocity commanded at full output.
const DefaultMaxVelocity = 3000

// FeetechBus drives Feetech STS servos in velocity (wheel) mode. The servos
// have no native follow or inversion registers, so both are applied here:
// every write to a leader is repeated on its followers in the same call.
type FeetechBus struct {
	bus         *feetech.Bus
	maxVelocity int
	logger      *zap.SugaredLogger
	follow      followTable

	mu     sync.Mutex
	motors map[int]*FeetechMotor
}

// OpenFeetechBus opens the serial bus on port.
func OpenFeetechBus(port string, maxVelocity int, logger *zap.SugaredLogger) (*FeetechBus, error) {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open bus")
	}
	if maxVelocity <= 0 {
		maxVelocity = DefaultMaxVelocity
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &FeetechBus{
		bus:         bus,
		maxVelocity: maxVelocity,
		logger:      logger,
		motors:      make(map[int]*FeetechMotor),
	}, nil
}

// Motor returns the controller for servo id.
func (b *FeetechBus) Motor(id int) (MotorController, error) {
	return b.motor(id), nil
}

func (b *FeetechBus) motor(id int) *FeetechMotor {
	b.mu.Lock()
	defer b.mu.Unlock()

	if m, ok := b.motors[id]; ok {
		return m
	}
	m := &FeetechMotor{
		bus:   b,
		id:    id,
		servo: feetech.NewServo(b.bus, id, nil),
	}
	b.motors[id] = m
	return m
}

// Close releases torque on every known servo and closes the bus.
func (b *FeetechBus) Close() error {
	b.mu.Lock()
	ids := make([]int, 0, len(b.motors))
	for id := range b.motors {
		ids = append(ids, id)
	}
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if len(ids) > 0 {
		group := feetech.NewServoGroupByIDs(b.bus, ids...)
		if err := group.DisableAll(ctx); err != nil {
			b.logger.Warnw("failed to release servos", "error", err)
		}
	}
	return b.bus.Close()
}

// FeetechMotor is one servo on a FeetechBus.
type FeetechMotor struct {
	bus   *FeetechBus
	id    int
	servo *feetech.Servo

	mu     sync.Mutex
	cfg    MotorConfig
	torque bool
	output float64
}

var _ MotorController = (*FeetechMotor)(nil)

// ID returns the servo id.
func (m *FeetechMotor) ID() int { return m.id }

// Configure puts the servo in velocity mode and records the drive policy.
// The operating mode register lives in EEPROM, so the mode survives power
// cycles; inversion, idle mode and following are applied by the bus.
func (m *FeetechMotor) Configure(ctx context.Context, cfg MotorConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cfg.ResetSafeParameters {
		if err := m.servo.Disable(ctx); err != nil {
			return errors.Wrap(err, "disable torque")
		}
		m.torque = false
		m.output = 0
	}
	if cfg.PersistParameters {
		if err := m.servo.SetOperatingMode(ctx, feetech.ModeVelocity); err != nil {
			return errors.Wrap(err, "set velocity mode")
		}
	}
	if cfg.Role == Follower {
		m.bus.follow.bind(m.id, cfg.Follow, cfg.Inverted)
	} else {
		m.bus.follow.unbind(m.id)
	}
	m.cfg = cfg

	// Brake holds position by keeping torque on at zero velocity.
	if cfg.IdleMode == Brake {
		if err := m.writeLocked(ctx, 0); err != nil {
			return err
		}
	}
	return nil
}

// SetOutput commands a duty cycle in [-1, 1] and mirrors it to followers.
func (m *FeetechMotor) SetOutput(ctx context.Context, value float64) error {
	m.mu.Lock()
	inverted := m.cfg.Inverted
	m.mu.Unlock()

	return commandLeader(&m.bus.follow, m.id, inverted, value, func(id int, output float64) error {
		target := m.bus.motor(id)
		target.mu.Lock()
		defer target.mu.Unlock()
		return target.writeLocked(ctx, output)
	})
}

// Stop commands zero output.
func (m *FeetechMotor) Stop(ctx context.Context) error {
	return m.SetOutput(ctx, 0)
}

// Output returns the last applied output.
func (m *FeetechMotor) Output() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.output
}

func (m *FeetechMotor) writeLocked(ctx context.Context, output float64) error {
	velocity := int(math.Round(output * float64(m.bus.maxVelocity)))

	if velocity == 0 && m.cfg.IdleMode == Coast {
		if m.torque {
			if err := m.servo.Disable(ctx); err != nil {
				return errors.Wrapf(err, "release servo %d", m.id)
			}
			m.torque = false
		}
		m.output = 0
		return nil
	}

	if !m.torque {
		if err := m.servo.Enable(ctx); err != nil {
			return errors.Wrapf(err, "enable servo %d", m.id)
		}
		m.torque = true
	}
	if err := m.servo.SetVelocity(ctx, velocity); err != nil {
		return errors.Wrapf(err, "set velocity on servo %d", m.id)
	}
	m.output = output
	return nil
}
