package tabbycat

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Antigravity-finder/tabbycat/channel"
	"github.com/Antigravity-finder/tabbycat/saver"
)

// Default topic and claim settings.
const (
	DefaultTopic    = "debates"
	DefaultClaimTTL = 30 * time.Second
)

// ClaimConfig controls the optional shard-claim registry. A claim gives this
// editor an exclusive shard index for the round so concurrent editors work
// disjoint slices of the draw.
type ClaimConfig struct {
	// Bucket is the JetStream KV bucket holding claims.
	Bucket string `yaml:"bucket"`

	// TTL is the claim lease duration.
	TTL time.Duration `yaml:"ttl"`
}

// Config is the complete controller configuration.
type Config struct {
	// Topic is the broadcast topic label for this editing view, e.g.
	// "debates" or "panels".
	Topic string `yaml:"topic"`

	// Channel configures the live sync connection.
	Channel channel.Config `yaml:"channel"`

	// Claim configures the shard-claim registry.
	Claim ClaimConfig `yaml:"claim"`

	// Save configures the HTTP save-back client.
	Save saver.Config `yaml:"save"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		Topic: DefaultTopic,
		Claim: ClaimConfig{
			Bucket: channel.DefaultClaimBucket,
			TTL:    DefaultClaimTTL,
		},
		Save: saver.Config{
			Timeout: saver.DefaultTimeout,
		},
	}
}

// SetDefaults fills in missing configuration values with production defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Topic == "" {
		cfg.Topic = defaults.Topic
	}
	if cfg.Claim.Bucket == "" {
		cfg.Claim.Bucket = defaults.Claim.Bucket
	}
	if cfg.Claim.TTL == 0 {
		cfg.Claim.TTL = defaults.Claim.TTL
	}
	if cfg.Save.Timeout == 0 {
		cfg.Save.Timeout = defaults.Save.Timeout
	}
	// Channel defaults are applied by channel.New.
}

// Validate checks the configuration for invalid values.
//
// Returns:
//   - error: ErrInvalidConfig wrapped with the failing field, or nil
func (cfg *Config) Validate() error {
	if cfg.Topic == "" {
		return fmt.Errorf("%w: Topic is required", ErrInvalidConfig)
	}
	if cfg.Claim.TTL < 0 {
		return fmt.Errorf("%w: Claim.TTL must not be negative", ErrInvalidConfig)
	}
	// Channel settings are defaulted and validated by channel.New.

	return nil
}

// LoadConfig reads a YAML configuration file.
//
// Parameters:
//   - path: Path to the YAML file
//
// Returns:
//   - Config: Parsed configuration with defaults applied
//   - error: Read or parse error
func LoadConfig(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	SetDefaults(&cfg)

	return cfg, nil
}

// TestConfig returns a Config tuned for fast tests: short timeouts and
// aggressive reconnect timing.
//
// Returns:
//   - Config: Configuration suitable for unit/integration tests
func TestConfig() Config {
	cfg := DefaultConfig()
	cfg.Channel = channel.Config{
		URL:                   "nats://127.0.0.1:4222",
		TournamentSlug:        "testtournament",
		RoundSlug:             "1",
		ConnectTimeout:        2 * time.Second,
		MinReconnectDelay:     50 * time.Millisecond,
		MaxReconnectDelay:     500 * time.Millisecond,
		ReconnectGrowthFactor: 1.5,
		SendQueueLimit:        16,
	}
	cfg.Claim.TTL = 2 * time.Second
	cfg.Save.Timeout = 2 * time.Second

	return cfg
}
