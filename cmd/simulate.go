package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/suderio/dreamland/internal/data"
	"github.com/suderio/dreamland/internal/dice"
	"github.com/suderio/dreamland/internal/engine"
	"github.com/suderio/dreamland/internal/outcome"
	"github.com/suderio/dreamland/internal/session"
	"github.com/suderio/dreamland/internal/throttle"
)

var compass = []throttle.Direction{
	throttle.North, throttle.South, throttle.East, throttle.West,
	throttle.NorthEast, throttle.NorthWest, throttle.SouthEast, throttle.SouthWest,
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Let a scripted dreamer play and report the statistics",
	Long: `Runs a scripted dreamer for a number of actions against a fresh session:
it eats when hungry, rests when tired, fights whatever stands next to it and
otherwise wanders. A fallen dreamer wakes into a new game. The recorded
telemetry is tallied at the end, which makes this a quick balance check for
catalog and tuning changes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		turns, _ := cmd.Flags().GetInt("turns")
		verbose, _ := cmd.Flags().GetBool("verbose")
		profile, _ := cmd.Flags().GetString("profile")

		// Every scripted step is a fresh key press as far as the throttle goes.
		viper.Set("throttle_window", time.Nanosecond)

		var logOut io.Writer = io.Discard
		if verbose {
			logOut = os.Stderr
		}
		ctx := cmd.Context()
		g, err := openGame(ctx, profile, logOut)
		if err != nil {
			return err
		}
		defer g.Close()

		d := &dreamer{src: dice.NewSource(g.cfg.Seed), catalog: g.Catalog()}
		stats, err := d.play(ctx, g.Session, turns, progressbar.Default(int64(turns), "Dreaming"))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "\nActions: %d, rejected: %d, games: %d, falls: %d\n", turns, stats.rejected, stats.games, stats.falls)
		events, err := g.events()
		if err != nil {
			return err
		}
		printTally(cmd, events)
		return nil
	},
}

type dreamStats struct {
	rejected int
	games    int
	falls    int
}

// dreamer is the scripted player.
type dreamer struct {
	src     dice.Source
	catalog *data.Catalog
}

func (d *dreamer) play(ctx context.Context, s *session.Session, turns int, bar *progressbar.ProgressBar) (dreamStats, error) {
	var stats dreamStats
	for i := 0; i < turns; i++ {
		if snap := s.Snapshot(); snap.State == nil || snap.State.Over() {
			if snap.State != nil {
				stats.falls++
			}
			if err := s.NewGame(ctx); err != nil {
				return stats, err
			}
			stats.games++
		}

		_, err := s.Execute(ctx, d.next(s.Snapshot().State))
		switch {
		case err == nil:
		case isRefusal(err):
			stats.rejected++
		default:
			return stats, err
		}
		if err := s.Settle(ctx); err != nil {
			return stats, err
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	return stats, nil
}

func isRefusal(err error) bool {
	if _, ok := outcome.IsRejection(err); ok {
		return true
	}
	var syn *session.SyntaxError
	return errors.As(err, &syn) || errors.Is(err, session.ErrThrottled) || errors.Is(err, session.ErrGameOver)
}

// next picks a command line for the current state.
func (d *dreamer) next(state *engine.GameState) string {
	p := state.Player
	if p.Hunger*4 <= p.MaxHunger {
		if food := d.food(p); food != "" {
			return "eat " + food
		}
	}
	if p.Stamina*5 <= p.MaxStamina {
		return "rest"
	}
	for _, id := range state.CreatureIDs() {
		c := state.Creatures[id]
		if !c.Alive() || c.Position.Distance(p.Position) > 1 {
			continue
		}
		if c.Kind == engine.KindPlant {
			return "harvest " + id
		}
		return "attack " + id
	}
	if d.src.IntN(5) == 0 {
		return "wait"
	}
	return "move " + string(compass[d.src.IntN(len(compass))])
}

func (d *dreamer) food(p *engine.ActorState) string {
	var ids []string
	for id, n := range p.Inventory {
		if n > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		item, ok := d.catalog.Item(id)
		if !ok {
			continue
		}
		for _, e := range item.Effects {
			if e.Type == data.EffectRestoreHunger {
				return id
			}
		}
	}
	return ""
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().Int("turns", 200, "number of scripted actions")
	simulateCmd.Flags().Bool("verbose", false, "log to stderr while dreaming")
	simulateCmd.Flags().StringP("profile", "p", "", "profile to record telemetry into")
}
