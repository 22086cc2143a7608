package robot

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
)

const DefaultConfigFile = "diffdrive.json"

// Backend names.
const (
	BackendFeetech = "feetech"
	BackendSim     = "sim"
)

// Config holds the robot configuration
type Config struct {
	Backend     string      `json:"backend"`
	Port        string      `json:"port,omitempty"`
	MaxVelocity int         `json:"max_velocity,omitempty"`
	Joystick    int         `json:"joystick"`
	Motors      MotorIDs    `json:"motors"`
	Drive       DriveConfig `json:"drive"`
}

// MotorIDs holds the hardware ID of each drivetrain motor.
type MotorIDs struct {
	LeftLeader    int `json:"left_leader"`
	LeftFollower  int `json:"left_follower"`
	RightLeader   int `json:"right_leader"`
	RightFollower int `json:"right_follower"`
}

// DriveConfig holds the control loop and input shaping settings.
type DriveConfig struct {
	Hz            int      `json:"hz"`
	Deadband      float64  `json:"deadband"`
	MaxOutput     float64  `json:"max_output"`
	SafetyEnabled bool     `json:"safety_enabled"`
	SafetyTimeout Duration `json:"safety_timeout"`
}

// Duration is a time.Duration that reads and writes as a string like "100ms".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "duration must be a string")
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// DefaultConfig returns the configuration of the stock robot.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendFeetech,
		Motors: MotorIDs{
			LeftLeader:    DefaultLeftLeaderID,
			LeftFollower:  DefaultLeftFollowerID,
			RightLeader:   DefaultRightLeaderID,
			RightFollower: DefaultRightFollowerID,
		},
		Drive: DriveConfig{
			Hz:            50,
			Deadband:      0.1,
			MaxOutput:     1,
			SafetyEnabled: true,
			SafetyTimeout: Duration(100 * time.Millisecond),
		},
	}
}

// Layout returns the motor layout described by the configured IDs.
func (c *Config) Layout() Layout {
	return NewLayout(c.Motors.LeftLeader, c.Motors.LeftFollower, c.Motors.RightLeader, c.Motors.RightFollower)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFeetech:
		if c.Port == "" {
			return errors.New("port is required for the feetech backend")
		}
	case BackendSim:
	default:
		return errors.Errorf("unknown backend %q", c.Backend)
	}
	if c.Drive.Hz <= 0 {
		return errors.Errorf("hz must be positive, got %d", c.Drive.Hz)
	}
	if c.Drive.Deadband < 0 || c.Drive.Deadband >= 1 {
		return errors.Errorf("deadband must be in [0, 1), got %v", c.Drive.Deadband)
	}
	if c.Drive.MaxOutput <= 0 || c.Drive.MaxOutput > 1 {
		return errors.Errorf("max_output must be in (0, 1], got %v", c.Drive.MaxOutput)
	}
	if c.Drive.SafetyEnabled && c.Drive.SafetyTimeout <= 0 {
		return errors.New("safety_timeout must be positive when safety is enabled")
	}
	return errors.Wrap(c.Layout().Validate(), "motors")
}

// LoadConfig loads configuration from the default config file
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file. Settings missing
// from the file keep their defaults.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the default config file exists
func ConfigExists() bool {
	_, err := os.Stat(DefaultConfigFile)
	return err == nil
}
