package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/suderio/dreamland/internal/config"
	"github.com/suderio/dreamland/internal/data"
	"github.com/suderio/dreamland/internal/dice"
	"github.com/suderio/dreamland/internal/effect"
	"github.com/suderio/dreamland/internal/logging"
	"github.com/suderio/dreamland/internal/session"
	"github.com/suderio/dreamland/internal/sim"
	"github.com/suderio/dreamland/internal/storyteller"
	"github.com/suderio/dreamland/internal/telemetry"
	"github.com/suderio/dreamland/internal/world"
)

// game is a wired session plus the resources it holds open.
type game struct {
	*session.Session
	cfg     config.Config
	logger  *slog.Logger
	events  func() ([]telemetry.Event, error)
	closers []io.Closer
}

func (g *game) Close() error {
	var errs []error
	for i := len(g.closers) - 1; i >= 0; i-- {
		errs = append(errs, g.closers[i].Close())
	}
	return errors.Join(errs...)
}

// openGame builds a session from the loaded configuration. With a profile
// the world and telemetry live in the profile directory, and the profile's
// data directory overrides the catalog. Logs go to logOut.
func openGame(ctx context.Context, profile string, logOut io.Writer) (*game, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	g := &game{cfg: cfg, logger: logger}

	worldPath, telemetryPath := "", cfg.Telemetry.Path
	if cfg.World.Store == "sqlite" {
		worldPath = cfg.World.Path
	}
	dataDirs := cfg.DataDirs
	if profile != "" {
		profiles := session.NewProfiles(cfg.ProfilesDir)
		dir, err := profiles.Ensure(profile)
		if err != nil {
			return nil, err
		}
		worldPath = profiles.WorldPath(profile)
		telemetryPath = profiles.TelemetryPath(profile)
		dataDirs = append([]string{filepath.Join(dir, "data")}, dataDirs...)
	}

	catalog, err := data.NewLoader(dataDirs).Load()
	if err != nil {
		return nil, err
	}

	opts := session.DefaultOptions()
	opts.Tuning = cfg.Tuning
	opts.Turn = cfg.Config
	opts.Die = dice.DieType(cfg.Dice.Die)
	opts.LogCap = cfg.LogCap
	opts.ThrottleWindow = cfg.ThrottleWindow
	opts.Style = cfg.Narrative.Style
	opts.Length = cfg.Narrative.Length
	opts.Context = cfg.Narrative.Context
	opts.Logger = logger
	opts.Audio = effect.LogAudio{Logger: logger}
	if opts.StalePolicy, err = session.ParseStalePolicy(cfg.StalePolicy); err != nil {
		return nil, err
	}
	if cfg.Dice.Table != "" {
		raw, err := os.ReadFile(cfg.Dice.Table)
		if err != nil {
			return nil, fmt.Errorf("read dice table: %w", err)
		}
		if opts.Table, err = dice.ParseTable(raw); err != nil {
			return nil, err
		}
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	opts.Source = dice.NewSource(seed)
	logger.Debug("dice seeded", "seed", seed)
	opts.Weather, opts.Simulators = sim.Defaults(opts.Source, cfg.Sim.WeatherChange, cfg.Sim.RegrowTurns, cfg.Sim.Sight)

	if worldPath != "" {
		store, err := world.Open(worldPath)
		if err != nil {
			return nil, err
		}
		g.closers = append(g.closers, store)
		opts.World = store
	}
	if telemetryPath != "" {
		events, err := telemetry.NewStore(telemetryPath)
		if err != nil {
			_ = g.Close()
			return nil, err
		}
		g.closers = append(g.closers, events)
		g.events = events.Load
		opts.Telemetry = events
	} else {
		mem := &telemetry.Memory{}
		g.events = func() ([]telemetry.Event, error) { return mem.Events(), nil }
		opts.Telemetry = mem
	}

	if opts.Storyteller, err = g.storyteller(ctx); err != nil {
		_ = g.Close()
		return nil, err
	}

	if g.Session, err = session.New(catalog, opts); err != nil {
		_ = g.Close()
		return nil, err
	}
	return g, nil
}

func (g *game) storyteller(ctx context.Context) (storyteller.Service, error) {
	n := g.cfg.Narrative
	if n.Backend == config.BackendOffline {
		return nil, nil
	}
	creds, err := config.LoadCredentials(".env")
	if err != nil {
		return nil, err
	}
	var primary storyteller.Service
	switch n.Backend {
	case config.BackendHTTP:
		primary = storyteller.NewClient(n.URL, creds.StorytellerToken, n.Timeout)
	case config.BackendGemini:
		gem, err := storyteller.NewGemini(ctx, creds.GeminiAPIKey, n.Model)
		if err != nil {
			return nil, err
		}
		g.closers = append(g.closers, gem)
		primary = gem
	}
	g.logger.Info("storyteller ready", "backend", n.Backend)
	return storyteller.WithFallback(primary, g.logger), nil
}
