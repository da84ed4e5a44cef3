package tabbycat

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Antigravity-finder/tabbycat/channel"
	"github.com/Antigravity-finder/tabbycat/saver"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.Equal(t, DefaultTopic, cfg.Topic)
	require.Equal(t, channel.DefaultClaimBucket, cfg.Claim.Bucket)
	require.Equal(t, DefaultClaimTTL, cfg.Claim.TTL)
	require.Equal(t, saver.DefaultTimeout, cfg.Save.Timeout)
}

func TestSetDefaults(t *testing.T) {
	t.Parallel()

	t.Run("fills unset fields", func(t *testing.T) {
		t.Parallel()
		cfg := Config{}
		SetDefaults(&cfg)
		require.Equal(t, DefaultTopic, cfg.Topic)
		require.Equal(t, channel.DefaultClaimBucket, cfg.Claim.Bucket)
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		t.Parallel()
		cfg := Config{Topic: "panels", Claim: ClaimConfig{TTL: time.Minute}}
		SetDefaults(&cfg)
		require.Equal(t, "panels", cfg.Topic)
		require.Equal(t, time.Minute, cfg.Claim.TTL)
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid config passes", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		require.NoError(t, cfg.Validate())
	})

	t.Run("missing topic is rejected", func(t *testing.T) {
		t.Parallel()
		cfg := Config{}
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("negative claim ttl is rejected", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.Claim.TTL = -time.Second
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("parses yaml and applies defaults", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
topic: panels
channel:
  url: nats://nats.example.com:4222
  secure: true
  tournamentSlug: australs2025
  roundSlug: "3"
claim:
  ttl: 45s
save:
  baseURL: https://tab.example.com
  csrfToken: token123
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		require.Equal(t, "panels", cfg.Topic)
		require.Equal(t, "nats://nats.example.com:4222", cfg.Channel.URL)
		require.True(t, cfg.Channel.Secure)
		require.Equal(t, "australs2025", cfg.Channel.TournamentSlug)
		require.Equal(t, 45*time.Second, cfg.Claim.TTL)
		require.Equal(t, "token123", cfg.Save.CSRFToken)
		require.Equal(t, channel.DefaultClaimBucket, cfg.Claim.Bucket, "defaults still fill the gaps")
	})

	t.Run("missing file errors", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})

	t.Run("malformed yaml errors", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("topic: [unclosed"), 0o600))
		_, err := LoadConfig(path)
		require.Error(t, err)
	})
}

func TestTestConfig(t *testing.T) {
	t.Parallel()

	cfg := TestConfig()
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.Channel.Validate())
	require.Less(t, cfg.Channel.MinReconnectDelay, time.Second, "test timing must stay fast")
}
