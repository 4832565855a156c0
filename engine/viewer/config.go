package viewer

import (
	"math"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// ClockSystem drives playback from the runtime's monotonic clock.
	ClockSystem = "system"

	// ClockGLFW drives playback from glfw.GetTime. The window layer must initialize GLFW.
	ClockGLFW = "glfw"

	defaultTickRate    = 60.0
	defaultLoadWorkers = 4
)

// Config is the viewer's file configuration.
type Config struct {
	// Models are the model files loaded at startup.
	Models []string `yaml:"models"`

	// SelectedModel is the index of the initially selected model.
	SelectedModel int `yaml:"selected_model"`

	// DebugJoints starts with the debug skeleton enabled.
	DebugJoints bool `yaml:"debug_joints"`

	// Skinning starts with deformation enabled. Defaults to true.
	Skinning *bool `yaml:"skinning"`

	// Autoplay starts every model with an animation in the Looping state.
	Autoplay bool `yaml:"autoplay"`

	// Clock selects the playback clock: "system" (default) or "glfw".
	Clock string `yaml:"clock"`

	// Profiling enables per-interval frame statistics in the log.
	Profiling bool `yaml:"profiling"`

	// LoadWorkers bounds concurrent model loading. Defaults to 4.
	LoadWorkers int `yaml:"load_workers"`

	// TickRate is the animation rate of Run in ticks per second. Defaults to 60.
	TickRate float64 `yaml:"tick_rate"`
}

// LoadConfig reads and parses a YAML configuration file.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - Config: the configuration with defaults applied
//   - error: error if the file cannot be read or is invalid
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read config %s", path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// ParseConfig parses YAML configuration data and applies defaults.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - Config: the configuration with defaults applied
//   - error: error if the document is not valid YAML or names an unknown clock
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to parse config")
	}
	cfg.applyDefaults()

	switch cfg.Clock {
	case ClockSystem, ClockGLFW:
	default:
		return Config{}, errors.Errorf("unknown clock %q (want %q or %q)", cfg.Clock, ClockSystem, ClockGLFW)
	}
	if _, ok := tickPeriod(cfg.TickRate); !ok {
		return Config{}, errors.Errorf("tick_rate must be a positive rate of at most 1e9 ticks per second (got %v)", cfg.TickRate)
	}
	if cfg.SelectedModel < 0 {
		return Config{}, errors.Errorf("selected_model must not be negative (got %d)", cfg.SelectedModel)
	}
	return cfg, nil
}

// SkinningEnabled reports the effective skinning flag.
func (c Config) SkinningEnabled() bool {
	return c.Skinning == nil || *c.Skinning
}

// tickPeriod converts a rate in ticks per second into a ticker period.
// Reports false when the rate is not positive or the period would not be a positive Duration.
func tickPeriod(fps float64) (time.Duration, bool) {
	if !(fps > 0) {
		return 0, false
	}
	period := float64(time.Second) / fps
	if period < 1 || period >= math.MaxInt64 {
		return 0, false
	}
	return time.Duration(period), true
}

func (c *Config) applyDefaults() {
	c.Clock = common.Coalesce(c.Clock, ClockSystem)
	c.LoadWorkers = common.Coalesce(c.LoadWorkers, defaultLoadWorkers)
	c.TickRate = common.Coalesce(c.TickRate, defaultTickRate)
}
