package channel

import (
	"fmt"
	"strings"
	"time"
)

// Default tuning values applied by Config.applyDefaults.
const (
	DefaultBaseSubject           = "allocation"
	DefaultConnectTimeout        = 10 * time.Second
	DefaultMinReconnectDelay     = 5 * time.Second
	DefaultMaxReconnectDelay     = 240 * time.Second
	DefaultReconnectGrowthFactor = 1.5
	DefaultSendQueueLimit        = 64
)

// Config configures a Channel.
//
// Required fields:
//   - URL
//   - TournamentSlug
//   - RoundSlug
//
// Optional tuning fields are replaced by defaults via applyDefaults.
type Config struct {
	// URL is the NATS server URL. When Secure is set, its scheme is upgraded
	// to the encrypted variant (nats → tls), mirroring the page-origin
	// ws → wss rule of browser clients.
	URL    string `yaml:"url"`
	Secure bool   `yaml:"secure"`

	// BaseSubject prefixes every topic subject.
	BaseSubject string `yaml:"baseSubject"`

	// TournamentSlug and RoundSlug scope subjects to the round being edited.
	TournamentSlug string `yaml:"tournamentSlug"`
	RoundSlug      string `yaml:"roundSlug"`

	// ConnectTimeout bounds each dial attempt.
	ConnectTimeout time.Duration `yaml:"connectTimeout"`

	// MinReconnectDelay is the backoff floor: the delay after the first loss.
	MinReconnectDelay time.Duration `yaml:"minReconnectDelay"`

	// MaxReconnectDelay is the backoff ceiling; the delay never exceeds it
	// regardless of how many consecutive losses occur.
	MaxReconnectDelay time.Duration `yaml:"maxReconnectDelay"`

	// ReconnectGrowthFactor multiplies the delay after each failed attempt.
	ReconnectGrowthFactor float64 `yaml:"reconnectGrowthFactor"`

	// SendQueueLimit bounds how many outbound payloads may queue while
	// disconnected before Send returns ErrQueueFull.
	SendQueueLimit int `yaml:"sendQueueLimit"`
}

// applyDefaults fills unset optional fields with project defaults.
func (cfg *Config) applyDefaults() {
	if cfg.BaseSubject == "" {
		cfg.BaseSubject = DefaultBaseSubject
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.MinReconnectDelay == 0 {
		cfg.MinReconnectDelay = DefaultMinReconnectDelay
	}
	if cfg.MaxReconnectDelay == 0 {
		cfg.MaxReconnectDelay = DefaultMaxReconnectDelay
	}
	if cfg.ReconnectGrowthFactor == 0 {
		cfg.ReconnectGrowthFactor = DefaultReconnectGrowthFactor
	}
	if cfg.SendQueueLimit == 0 {
		cfg.SendQueueLimit = DefaultSendQueueLimit
	}
}

// Validate checks configuration constraints.
//
// Returns:
//   - error: Validation error wrapping ErrInvalidConfig, nil if valid
func (cfg *Config) Validate() error {
	if cfg.URL == "" {
		return fmt.Errorf("%w: URL is required", ErrInvalidConfig)
	}
	if cfg.TournamentSlug == "" {
		return fmt.Errorf("%w: TournamentSlug is required", ErrInvalidConfig)
	}
	if cfg.RoundSlug == "" {
		return fmt.Errorf("%w: RoundSlug is required", ErrInvalidConfig)
	}
	if cfg.MinReconnectDelay < 0 || cfg.MaxReconnectDelay < 0 {
		return fmt.Errorf("%w: reconnect delays must be positive", ErrInvalidConfig)
	}
	if cfg.MaxReconnectDelay < cfg.MinReconnectDelay {
		return fmt.Errorf("%w: MaxReconnectDelay (%v) must be >= MinReconnectDelay (%v)",
			ErrInvalidConfig, cfg.MaxReconnectDelay, cfg.MinReconnectDelay)
	}
	if cfg.ReconnectGrowthFactor < 1.0 {
		return fmt.Errorf("%w: ReconnectGrowthFactor (%v) must be >= 1.0",
			ErrInvalidConfig, cfg.ReconnectGrowthFactor)
	}

	return nil
}

// serverURL returns the URL to dial, upgrading the scheme to its encrypted
// variant when Secure is set.
func (cfg *Config) serverURL() string {
	if !cfg.Secure {
		return cfg.URL
	}
	if strings.HasPrefix(cfg.URL, "nats://") {
		return "tls://" + strings.TrimPrefix(cfg.URL, "nats://")
	}

	return cfg.URL
}

// subjectFor builds the subject for a topic label:
// <base>.<tournament>.round.<round>.<label>.
func (cfg *Config) subjectFor(label string) string {
	return fmt.Sprintf("%s.%s.round.%s.%s", cfg.BaseSubject, cfg.TournamentSlug, cfg.RoundSlug, label)
}
