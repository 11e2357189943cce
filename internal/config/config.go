// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values can be written as "2s", "50ms".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the plain time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Source is one candidate time server. Lower priority values are preferred
// when round trips tie.
type Source struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Priority int    `yaml:"priority"`
}

// DNS configures the resolution cache.
type DNS struct {
	TTL      Duration `yaml:"ttl"`
	Capacity int      `yaml:"capacity"`
}

// Fallback configures the trusted-path filesystem scanner.
type Fallback struct {
	Roots    []string `yaml:"roots"`
	MaxDepth int      `yaml:"max_depth"`
	MaxFiles int      `yaml:"max_files"`
	Markers  []string `yaml:"markers"`
}

// Config is the root configuration for the time-authority subsystem.
type Config struct {
	Sources            []Source `yaml:"sources"`
	AttemptTimeout     Duration `yaml:"attempt_timeout"`
	OverallTimeout     Duration `yaml:"overall_timeout"`
	GoodEnoughRTT      Duration `yaml:"good_enough_rtt"`
	MaxRTT             Duration `yaml:"max_rtt"`
	AttemptsPerAddress int      `yaml:"attempts_per_address"`
	Workers            int      `yaml:"workers"`
	DNS                DNS      `yaml:"dns"`
	MaxFailures        int      `yaml:"max_failures"`
	Strict             bool     `yaml:"strict"`
	SyncInterval       Duration `yaml:"sync_interval"`
	FreshnessWindow    Duration `yaml:"freshness_window"`
	Fallback           Fallback `yaml:"fallback"`
}

// Load loads YAML config and validates it against a CUE schema.
func Load(configPath, cueSchemaPath string) (*Config, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate applies semantic checks that the schema cannot express.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 && len(c.Fallback.Roots) == 0 {
		return fmt.Errorf("config: at least one source or fallback root is required")
	}
	for i, s := range c.Sources {
		if s.Host == "" {
			return fmt.Errorf("config: sources[%d] has an empty host", i)
		}
		if s.Port < 0 || s.Port > 65535 {
			return fmt.Errorf("config: sources[%d] port %d out of range", i, s.Port)
		}
	}
	if c.AttemptTimeout < 0 || c.OverallTimeout < 0 {
		return fmt.Errorf("config: timeouts must be non-negative")
	}
	if c.OverallTimeout > 0 && c.AttemptTimeout.Std() > c.OverallTimeout.Std() {
		return fmt.Errorf("config: attempt_timeout %v exceeds overall_timeout %v",
			c.AttemptTimeout.Std(), c.OverallTimeout.Std())
	}
	if c.MaxFailures < 0 {
		return fmt.Errorf("config: max_failures must be non-negative")
	}
	if c.Fallback.MaxDepth < 0 || c.Fallback.MaxFiles < 0 {
		return fmt.Errorf("config: fallback bounds must be non-negative")
	}
	return nil
}
