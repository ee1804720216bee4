/*
Copyright © 2026 Paulo Suderio
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/suderio/dreamland/internal/session"
	"github.com/suderio/dreamland/internal/telemetry"
)

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage dreamer profiles",
	Long: `A profile is a directory under profiles_dir holding one dreamer's world
map (world.db), gameplay telemetry (telemetry.jsonl) and an optional data/
directory whose yaml overrides the built-in catalog.`,
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new profile directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profiles := newProfiles()
		dir, err := profiles.Ensure(args[0])
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Join(dir, "data"), 0o755); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Profile created at: %s\n", dir)
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List existing profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := newProfiles().List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No profiles yet. Create one with: dreamland profile create <name>")
			return nil
		}
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

var profileStatsCmd = &cobra.Command{
	Use:   "stats <name>",
	Short: "Summarize a profile's recorded telemetry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profiles := newProfiles()
		path := profiles.TelemetryPath(args[0])
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("no telemetry for profile %q: %w", args[0], err)
		}
		store, err := telemetry.NewStore(path)
		if err != nil {
			return err
		}
		defer store.Close()

		events, err := store.Load()
		if err != nil {
			return err
		}
		printTally(cmd, events)
		return nil
	},
}

func newProfiles() *session.Profiles {
	return session.NewProfiles(viper.GetString("profiles_dir"))
}

func printTally(cmd *cobra.Command, events []telemetry.Event) {
	out := cmd.OutOrStdout()
	tally := telemetry.Tally(events)
	names := make([]string, 0, len(tally))
	for n := range tally {
		names = append(names, n)
	}
	slices.Sort(names)

	fmt.Fprintf(out, "Processed %d events.\n", len(events))
	for _, n := range names {
		fmt.Fprintf(out, "- %s: %d\n", n, tally[n])
	}
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileCreateCmd, profileListCmd, profileStatsCmd)
}
