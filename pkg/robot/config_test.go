package robot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadConfigFrom_KeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diffdrive.json")
	data := `{"backend": "feetech", "port": "/dev/ttyACM0", "drive": {"hz": 100, "safety_timeout": "250ms"}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}

	if cfg.Port != "/dev/ttyACM0" || cfg.Drive.Hz != 100 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if time.Duration(cfg.Drive.SafetyTimeout) != 250*time.Millisecond {
		t.Errorf("SafetyTimeout = %v, want 250ms", time.Duration(cfg.Drive.SafetyTimeout))
	}
	// Missing motor ids keep the stock wiring.
	if diff := cmp.Diff(DefaultLayout(), cfg.Layout()); diff != "" {
		t.Errorf("Layout() mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestConfig_SaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diffdrive.json")
	cfg := DefaultConfig()
	cfg.Backend = BackendSim
	cfg.Motors.LeftLeader = 7
	cfg.Motors.LeftFollower = 8

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("saved config mismatch (-want +got):\n%s", diff)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"feetech without port", func(c *Config) {}, "port is required"},
		{"unknown backend", func(c *Config) { c.Backend = "can" }, "unknown backend"},
		{"zero hz", func(c *Config) { c.Backend = BackendSim; c.Drive.Hz = 0 }, "hz"},
		{"deadband too large", func(c *Config) { c.Backend = BackendSim; c.Drive.Deadband = 1 }, "deadband"},
		{"negative deadband", func(c *Config) { c.Backend = BackendSim; c.Drive.Deadband = -0.1 }, "deadband"},
		{"max output", func(c *Config) { c.Backend = BackendSim; c.Drive.MaxOutput = 0 }, "max_output"},
		{"safety timeout", func(c *Config) { c.Backend = BackendSim; c.Drive.SafetyTimeout = 0 }, "safety_timeout"},
		{"duplicate motor", func(c *Config) { c.Backend = BackendSim; c.Motors.RightFollower = 1 }, "motors"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("Validate() = %q, want it to contain %q", err, tt.errSub)
			}
		})
	}
}

func TestDuration_RejectsNumbers(t *testing.T) {
	var d Duration
	if err := d.UnmarshalJSON([]byte("100")); err == nil {
		t.Error("UnmarshalJSON(100) succeeded, want error")
	}
}
