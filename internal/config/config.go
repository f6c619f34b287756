package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Tracker TrackerConfig `toml:"tracker"`
	Bands   BandsConfig   `toml:"bands"`
	Data    DataConfig    `toml:"data"`
	Logging LoggingConfig `toml:"logging"`
	Metrics MetricsConfig `toml:"metrics"`
	Sim     SimConfig     `toml:"sim"`
}

type TrackerConfig struct {
	TickRate    time.Duration `toml:"tick_rate"`    // loop tick; bounds how late a suspended task can resume
	SweepPeriod time.Duration `toml:"sweep_period"` // global sweep period
	SettleDelay time.Duration `toml:"settle_delay"` // wait between registration and first snapshot
	MaxSuspend  time.Duration `toml:"max_suspend"`  // cap on a single task suspension
	MoveEpsilon float64       `toml:"move_epsilon"` // near band: displacement below this is "not moving"
	StatsEvery  time.Duration `toml:"stats_every"`  // stats log line period, 0 disables
}

// BandsConfig holds the distance thresholds (metres) and their update intervals.
type BandsConfig struct {
	Near            float64       `toml:"near"`
	OptimalFar      float64       `toml:"optimal_far"`
	MaxTracked      float64       `toml:"max_tracked"`
	NearInterval    time.Duration `toml:"near_interval"`
	OptimalInterval time.Duration `toml:"optimal_interval"`
	FarInterval     time.Duration `toml:"far_interval"`
	Hysteresis      float64       `toml:"hysteresis"`       // metres past a boundary before the tier flips
	IntervalEpsilon time.Duration `toml:"interval_epsilon"` // interval deltas at or below this are ignored
}

type DataConfig struct {
	Styles     string `toml:"styles"`      // class style YAML
	ScriptsDir string `toml:"scripts_dir"` // Lua policy scripts, empty disables scripting
}

type LoggingConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"` // "json" or "console"
	File       string `toml:"file"`   // optional rotating log file
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	BindAddress string `toml:"bind_address"`
}

// SimConfig drives the built-in host simulation used by cmd/poitrack.
type SimConfig struct {
	Seed        int64         `toml:"seed"`
	Entities    int           `toml:"entities"`     // target live population
	WorldSize   float64       `toml:"world_size"`   // square side, observer starts at the centre
	Speed       float64       `toml:"speed"`        // max metres per second
	Lifetime    time.Duration `toml:"lifetime"`     // mean entity lifetime
	ToggleEvery time.Duration `toml:"toggle_every"` // mean time between active flag flips
	Region      int32         `toml:"region"`
	Duration    time.Duration `toml:"duration"` // 0 runs until signalled
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Defaults() *Config {
	return &Config{
		Tracker: TrackerConfig{
			TickRate:    50 * time.Millisecond,
			SweepPeriod: time.Second,
			SettleDelay: 100 * time.Millisecond,
			MaxSuspend:  time.Second,
			MoveEpsilon: 0.01,
			StatsEvery:  10 * time.Second,
		},
		Bands: BandsConfig{
			Near:            25,
			OptimalFar:      40,
			MaxTracked:      100,
			NearInterval:    250 * time.Millisecond,
			OptimalInterval: 100 * time.Millisecond,
			FarInterval:     500 * time.Millisecond,
			Hysteresis:      1,
			IntervalEpsilon: 50 * time.Millisecond,
		},
		Data: DataConfig{
			Styles:     "data/yaml/class_styles.yaml",
			ScriptsDir: "scripts",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  64,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
		Metrics: MetricsConfig{
			Enabled:     false,
			BindAddress: "127.0.0.1:9464",
		},
		Sim: SimConfig{
			Seed:        1,
			Entities:    300,
			WorldSize:   240,
			Speed:       6,
			Lifetime:    45 * time.Second,
			ToggleEvery: 20 * time.Second,
			Region:      1,
		},
	}
}

func (c *Config) Validate() error {
	var errs []error
	t := c.Tracker
	if t.TickRate <= 0 {
		errs = append(errs, errors.New("tracker.tick_rate must be positive"))
	}
	if t.SweepPeriod <= 0 {
		errs = append(errs, errors.New("tracker.sweep_period must be positive"))
	}
	if t.SettleDelay < 0 {
		errs = append(errs, errors.New("tracker.settle_delay must not be negative"))
	}
	if t.MaxSuspend <= 0 {
		errs = append(errs, errors.New("tracker.max_suspend must be positive"))
	}
	b := c.Bands
	if !(b.Near > 0 && b.Near < b.OptimalFar && b.OptimalFar < b.MaxTracked) {
		errs = append(errs, fmt.Errorf("bands: need 0 < near < optimal_far < max_tracked, got %g/%g/%g",
			b.Near, b.OptimalFar, b.MaxTracked))
	}
	if b.NearInterval <= 0 || b.OptimalInterval <= 0 || b.FarInterval <= 0 {
		errs = append(errs, errors.New("bands: intervals must be positive"))
	}
	if b.FarInterval < b.OptimalInterval {
		errs = append(errs, errors.New("bands: far_interval must not be shorter than optimal_interval"))
	}
	if b.Hysteresis < 0 || b.IntervalEpsilon < 0 {
		errs = append(errs, errors.New("bands: hysteresis and interval_epsilon must not be negative"))
	}
	if c.Sim.Entities < 0 || c.Sim.WorldSize <= 0 {
		errs = append(errs, errors.New("sim: entities must be >= 0 and world_size positive"))
	}
	return errors.Join(errs...)
}
