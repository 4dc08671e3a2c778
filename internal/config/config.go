package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/twinvector/internal/actuator"
	"github.com/san-kum/twinvector/internal/mount"
	"github.com/san-kum/twinvector/internal/sim"
)

const (
	DefaultTickPeriod = 20 * time.Millisecond
	DefaultDataDir    = "./data"
	DefaultLogLevel   = "info"
	DefaultDevice     = "/dev/ttyUSB0"
	DefaultPreset     = "hover"
)

type Config struct {
	Geometry mount.Geometry        `yaml:"geometry"`
	Sim      sim.Config            `yaml:"sim"`
	Plant    sim.PlantConfig       `yaml:"plant"`
	Serial   actuator.SerialConfig `yaml:"serial"`
	// TickPeriod is the wall-clock period of the live and serial loops.
	TickPeriod time.Duration `yaml:"tick_period"`
	Preset     string        `yaml:"preset"`
	Log        LogConfig     `yaml:"log"`
	Storage    StorageConfig `yaml:"storage"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
	// SQLitePath enables tick recording when set.
	SQLitePath string `yaml:"sqlite_path"`
	BatchSize  int    `yaml:"batch_size"`
}

func DefaultConfig() *Config {
	return &Config{
		Geometry:   mount.DefaultGeometry(),
		Sim:        sim.DefaultConfig(),
		Plant:      sim.DefaultPlantConfig(),
		Serial:     actuator.DefaultSerialConfig(DefaultDevice),
		TickPeriod: DefaultTickPeriod,
		Preset:     DefaultPreset,
		Log:        LogConfig{Level: DefaultLogLevel},
		Storage: StorageConfig{
			DataDir:   DefaultDataDir,
			BatchSize: 50,
		},
	}
}

// Load reads path over the defaults, so a file only needs the keys it
// changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if err := c.Geometry.Validate(); err != nil {
		return err
	}
	if err := c.Plant.Validate(); err != nil {
		return err
	}
	if c.Sim.Dt <= 0 {
		return fmt.Errorf("sim dt must be positive, got %f", c.Sim.Dt)
	}
	if c.Sim.Duration <= 0 {
		return fmt.Errorf("sim duration must be positive, got %f", c.Sim.Duration)
	}
	if c.TickPeriod <= 0 {
		return fmt.Errorf("tick period must be positive, got %s", c.TickPeriod)
	}
	if c.Preset != "" {
		if _, ok := GetPreset(c.Preset); !ok {
			return fmt.Errorf("unknown preset %q", c.Preset)
		}
	}
	return nil
}
