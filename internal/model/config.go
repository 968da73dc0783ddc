package model

import "time"

// Config holds all dyadt settings.
// Values come from defaults, ~/.dyadt/config.yaml, DYADT_* env vars and flags, in rising priority.
type Config struct {
	Evaluation EvaluationConfig `yaml:"evaluation" mapstructure:"evaluation"`
	Exec       ExecConfig       `yaml:"exec" mapstructure:"exec"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
}

// EvaluationConfig controls filesystem evidence checks
type EvaluationConfig struct {
	MaxReadBytes   int64         `yaml:"max_read_bytes" mapstructure:"max_read_bytes"`     // FileContains reads larger than this are unverifiable
	DigestCache    bool          `yaml:"digest_cache" mapstructure:"digest_cache"`         // Memoize digests of unchanged files within one run
	DigestCacheTTL time.Duration `yaml:"digest_cache_ttl" mapstructure:"digest_cache_ttl"` // How long a memoized digest stays valid
}

// ExecConfig controls CommandSucceeds evidence
type ExecConfig struct {
	SpawnRate    float64                `yaml:"spawn_rate" mapstructure:"spawn_rate"`       // Max process spawns per second; 0 = unlimited
	SpawnBurst   int                    `yaml:"spawn_burst" mapstructure:"spawn_burst"`     // Spawns allowed back to back
	CommandRates map[string]CommandRate `yaml:"command_rates" mapstructure:"command_rates"` // Per-command overrides keyed by binary name, e.g. "cargo"
}

// CommandRate throttles one command independently of spawn_rate
type CommandRate struct {
	Rate  float64 `yaml:"rate" mapstructure:"rate"`   // Spawns per second; 0 = unlimited
	Burst int     `yaml:"burst" mapstructure:"burst"` // 0 = spawn_burst
}

// LogConfig controls diagnostic logging on stderr
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Format  string `yaml:"format" mapstructure:"format"` // text, json or markdown
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Evaluation: EvaluationConfig{
			MaxReadBytes:   10 << 20,
			DigestCache:    false,
			DigestCacheTTL: 5 * time.Minute,
		},
		Exec: ExecConfig{
			SpawnRate:    0,
			SpawnBurst:   4,
			CommandRates: map[string]CommandRate{},
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Output: OutputConfig{
			Format:  "text",
			Verbose: false,
		},
	}
}
