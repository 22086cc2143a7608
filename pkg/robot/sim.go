package robot

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// SimBus is an in-memory motor bus. It applies configuration, inversion and
// following the way a real controller would, which makes it usable for bench
// runs without hardware and for tests.
type SimBus struct {
	logger *zap.SugaredLogger
	follow followTable

	mu          sync.Mutex
	motors      map[int]*SimMotor
	configFails map[int]error
}

// NewSimBus creates a simulated bus with a controller for each id.
func NewSimBus(logger *zap.SugaredLogger, ids ...int) *SimBus {
	b := &SimBus{
		logger:      logger,
		motors:      make(map[int]*SimMotor, len(ids)),
		configFails: make(map[int]error),
	}
	for _, id := range ids {
		b.motors[id] = &SimMotor{bus: b, id: id}
	}
	return b
}

// FailConfigure makes every configuration write to id fail with err.
func (b *SimBus) FailConfigure(id int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.configFails[id] = err
}

// Motor returns the simulated controller with the given id.
func (b *SimBus) Motor(id int) (MotorController, error) {
	m, err := b.SimMotor(id)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// SimMotor returns the concrete simulated controller with the given id.
func (b *SimBus) SimMotor(id int) (*SimMotor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.motors[id]
	if !ok {
		return nil, errors.Errorf("no motor with id %d on bus", id)
	}
	return m, nil
}

// Close stops every motor.
func (b *SimBus) Close() error {
	b.mu.Lock()
	motors := make([]*SimMotor, 0, len(b.motors))
	for _, m := range b.motors {
		motors = append(motors, m)
	}
	b.mu.Unlock()

	for _, m := range motors {
		m.set(0)
	}
	return nil
}

func (b *SimBus) configureError(id int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.configFails[id]
}

// SimMotor is a simulated motor controller.
type SimMotor struct {
	bus *SimBus
	id  int

	mu        sync.Mutex
	cfg       MotorConfig
	writes    int
	persisted bool
	output    float64
}

var _ MotorController = (*SimMotor)(nil)

// ID returns the hardware id.
func (m *SimMotor) ID() int { return m.id }

// Configure applies cfg. A reset clears any previous configuration first.
func (m *SimMotor) Configure(ctx context.Context, cfg MotorConfig) error {
	if err := m.bus.configureError(m.id); err != nil {
		return err
	}

	m.mu.Lock()
	if cfg.ResetSafeParameters {
		m.output = 0
	}
	m.cfg = cfg
	m.writes++
	m.persisted = cfg.PersistParameters
	m.mu.Unlock()

	if cfg.Role == Follower {
		if _, err := m.bus.SimMotor(cfg.Follow); err != nil {
			return errors.Wrapf(err, "bind motor %d", m.id)
		}
		m.bus.follow.bind(m.id, cfg.Follow, cfg.Inverted)
	} else {
		m.bus.follow.unbind(m.id)
	}

	if m.bus.logger != nil {
		m.bus.logger.Debugw("sim motor configured", "id", m.id, "config", cfg.String())
	}
	return nil
}

// SetOutput commands a duty cycle. Followers reject direct commands.
func (m *SimMotor) SetOutput(ctx context.Context, value float64) error {
	m.mu.Lock()
	inverted := m.cfg.Inverted
	m.mu.Unlock()

	return commandLeader(&m.bus.follow, m.id, inverted, value, func(id int, output float64) error {
		target, err := m.bus.SimMotor(id)
		if err != nil {
			return err
		}
		target.set(output)
		return nil
	})
}

// Stop commands zero output.
func (m *SimMotor) Stop(ctx context.Context) error {
	return m.SetOutput(ctx, 0)
}

// Output returns the applied output.
func (m *SimMotor) Output() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.output
}

// Config returns the active configuration.
func (m *SimMotor) Config() MotorConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// Persisted reports whether the last configuration write asked to persist.
func (m *SimMotor) Persisted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.persisted
}

// Braking reports whether the motor is holding at zero output in brake mode.
func (m *SimMotor) Braking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.output == 0 && m.cfg.IdleMode == Brake
}

func (m *SimMotor) set(output float64) {
	m.mu.Lock()
	m.output = output
	m.mu.Unlock()
}
