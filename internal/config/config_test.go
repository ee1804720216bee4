package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.TickMinutes)
	assert.Equal(t, "reject", cfg.StalePolicy)
	assert.Equal(t, 0.8, cfg.Tuning.DarknessPenalty)
	assert.Equal(t, BackendOffline, cfg.Narrative.Backend)
	assert.Equal(t, "profiles", cfg.ProfilesDir)
	assert.Equal(t, 25*time.Second, cfg.Telegram.PollTimeout)
}

func TestLoadFromYAML(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
tick_minutes: 30
throttle_window: 250ms
stale_policy: apply
tuning:
  darkness_penalty: 0.5
world:
  store: sqlite
  path: /tmp/world.db
`)))
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.TickMinutes)
	assert.Equal(t, 250*time.Millisecond, cfg.ThrottleWindow)
	assert.Equal(t, "apply", cfg.StalePolicy)
	assert.Equal(t, 0.5, cfg.Tuning.DarknessPenalty)
	assert.Equal(t, 0.9, cfg.Tuning.DampnessPenalty, "unset keys keep their defaults")
	assert.Equal(t, "sqlite", cfg.World.Store)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.TickMinutes = 0
	cfg.StalePolicy = "sometimes"
	cfg.Narrative.Backend = BackendHTTP
	cfg.World.Store = "sqlite"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"tick_minutes", "stale_policy", "narrative.url", "world.path"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DREAMLAND_STORYTELLER_TOKEN=abc123\n"), 0o600))
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("DREAMLAND_STORYTELLER_TOKEN", "")
	require.NoError(t, os.Unsetenv("DREAMLAND_STORYTELLER_TOKEN"))

	c, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.GeminiAPIKey)
	assert.Equal(t, "abc123", c.StorytellerToken)
}

func TestLoadCredentialsMissingFile(t *testing.T) {
	_, err := LoadCredentials(filepath.Join(t.TempDir(), "nope.env"))
	assert.NoError(t, err)
}
