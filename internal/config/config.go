// Package config loads game settings from viper and service credentials
// from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/suderio/dreamland/internal/outcome"
	"github.com/suderio/dreamland/internal/turn"
)

// Narrative backends.
const (
	BackendOffline = "offline"
	BackendHTTP    = "http"
	BackendGemini  = "gemini"
)

// Config is the full set of game settings.
type Config struct {
	turn.Config `mapstructure:",squash"`

	ThrottleWindow time.Duration  `mapstructure:"throttle_window"`
	LogCap         int            `mapstructure:"log_cap"`
	Seed           uint64         `mapstructure:"seed"`
	StalePolicy    string         `mapstructure:"stale_policy"`
	DataDirs       []string       `mapstructure:"data_dirs"`
	ProfilesDir    string         `mapstructure:"profiles_dir"`
	Tuning         outcome.Tuning `mapstructure:"tuning"`

	Dice      DiceConfig      `mapstructure:"dice"`
	Narrative NarrativeConfig `mapstructure:"narrative"`
	World     WorldConfig     `mapstructure:"world"`
	Sim       SimConfig       `mapstructure:"sim"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
}

type DiceConfig struct {
	Die   string `mapstructure:"die"`
	Table string `mapstructure:"table"`
}

type NarrativeConfig struct {
	Backend string        `mapstructure:"backend"`
	URL     string        `mapstructure:"url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
	Style   string        `mapstructure:"style"`
	Length  string        `mapstructure:"length"`
	Context int           `mapstructure:"context"`
}

type WorldConfig struct {
	Store string `mapstructure:"store"`
	Path  string `mapstructure:"path"`
}

type SimConfig struct {
	WeatherChange float64 `mapstructure:"weather_change"`
	RegrowTurns   int     `mapstructure:"regrow_turns"`
	Sight         int     `mapstructure:"sight"`
}

type TelemetryConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelegramConfig struct {
	ChatID       int64         `mapstructure:"chat_id"`
	PollTimeout  time.Duration `mapstructure:"poll_timeout"`
	LastUpdateID int           `mapstructure:"last_update_id"`
}

// Default returns the stock settings.
func Default() Config {
	return Config{
		Config:         turn.DefaultConfig(),
		ThrottleWindow: 150 * time.Millisecond,
		LogCap:         200,
		StalePolicy:    "reject",
		ProfilesDir:    "profiles",
		Tuning:         outcome.DefaultTuning(),
		Dice:           DiceConfig{Die: "d20"},
		Narrative: NarrativeConfig{
			Backend: BackendOffline,
			Model:   "gemini-1.5-flash",
			Timeout: 10 * time.Second,
			Style:   "dreamlike",
			Length:  "short",
			Context: 8,
		},
		World: WorldConfig{Store: "memory"},
		Sim:   SimConfig{WeatherChange: 0.1, RegrowTurns: 12, Sight: 5},
		Log:   LogConfig{Level: "info", Format: "text"},
		HTTP:  HTTPConfig{Addr: ":8080"},

		Telegram: TelegramConfig{PollTimeout: 25 * time.Second},
	}
}

// SetDefaults registers the stock values with v so that environment
// overrides (DREAMLAND_*) are picked up for every key.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("tick_minutes", d.TickMinutes)
	v.SetDefault("hunger_per_tick", d.HungerPerTick)
	v.SetDefault("starvation_damage", d.StarvationDamage)
	v.SetDefault("throttle_window", d.ThrottleWindow)
	v.SetDefault("log_cap", d.LogCap)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("stale_policy", d.StalePolicy)
	v.SetDefault("profiles_dir", d.ProfilesDir)
	v.SetDefault("dice.die", d.Dice.Die)
	v.SetDefault("narrative.backend", d.Narrative.Backend)
	v.SetDefault("narrative.url", d.Narrative.URL)
	v.SetDefault("narrative.model", d.Narrative.Model)
	v.SetDefault("narrative.timeout", d.Narrative.Timeout)
	v.SetDefault("narrative.style", d.Narrative.Style)
	v.SetDefault("narrative.length", d.Narrative.Length)
	v.SetDefault("narrative.context", d.Narrative.Context)
	v.SetDefault("world.store", d.World.Store)
	v.SetDefault("world.path", d.World.Path)
	v.SetDefault("sim.weather_change", d.Sim.WeatherChange)
	v.SetDefault("sim.regrow_turns", d.Sim.RegrowTurns)
	v.SetDefault("sim.sight", d.Sim.Sight)
	v.SetDefault("telemetry.path", d.Telemetry.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("telegram.chat_id", d.Telegram.ChatID)
	v.SetDefault("telegram.poll_timeout", d.Telegram.PollTimeout)
	v.SetDefault("telegram.last_update_id", d.Telegram.LastUpdateID)
}

// Load unmarshals v over the defaults and validates the result.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	var errs []error
	if c.TickMinutes <= 0 {
		errs = append(errs, fmt.Errorf("tick_minutes must be positive, got %d", c.TickMinutes))
	}
	if c.ThrottleWindow <= 0 {
		errs = append(errs, fmt.Errorf("throttle_window must be positive, got %s", c.ThrottleWindow))
	}
	if c.LogCap < 0 {
		errs = append(errs, fmt.Errorf("log_cap must not be negative, got %d", c.LogCap))
	}
	if !slices.Contains([]string{"reject", "apply"}, c.StalePolicy) {
		errs = append(errs, fmt.Errorf("stale_policy must be reject or apply, got %q", c.StalePolicy))
	}
	switch c.Narrative.Backend {
	case BackendOffline, BackendGemini:
	case BackendHTTP:
		if c.Narrative.URL == "" {
			errs = append(errs, errors.New("narrative.url is required for the http backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown narrative.backend %q", c.Narrative.Backend))
	}
	switch c.World.Store {
	case "memory":
	case "sqlite":
		if c.World.Path == "" {
			errs = append(errs, errors.New("world.path is required for the sqlite store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown world.store %q", c.World.Store))
	}
	if c.Sim.WeatherChange < 0 || c.Sim.WeatherChange > 1 {
		errs = append(errs, fmt.Errorf("sim.weather_change must be within [0,1], got %v", c.Sim.WeatherChange))
	}
	return errors.Join(errs...)
}

// Credentials are secrets read from the environment, never from the
// config file.
type Credentials struct {
	GeminiAPIKey     string `env:"GEMINI_API_KEY"`
	StorytellerToken string `env:"DREAMLAND_STORYTELLER_TOKEN"`
	TelegramToken    string `env:"TELEGRAM_BOT_TOKEN"`
}

// LoadCredentials reads an optional .env file and then the environment.
func LoadCredentials(files ...string) (Credentials, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Credentials{}, fmt.Errorf("load env file: %w", err)
	}
	var c Credentials
	if err := env.Parse(&c); err != nil {
		return Credentials{}, fmt.Errorf("parse env: %w", err)
	}
	return c, nil
}
