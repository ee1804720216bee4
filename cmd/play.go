/*
Copyright © 2026 Paulo Suderio
*/
package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play [profile]",
	Short: "Play in the terminal",
	Long: `Starts the interactive terminal game. With a profile the world map and
telemetry persist under profiles_dir/<profile> and logs go to its
dreamland.log; without one the dream is forgotten on exit.

	> attack wolf-1
	> harvest berries from bush-1
	> fuse stick and stone`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile := ""
		if len(args) == 1 {
			profile = args[0]
		}

		logOut := os.DevNull
		if profile != "" {
			dir, err := newProfiles().Ensure(profile)
			if err != nil {
				return err
			}
			logOut = filepath.Join(dir, "dreamland.log")
		}
		logFile, err := os.OpenFile(logOut, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer logFile.Close()

		ctx := cmd.Context()
		g, err := openGame(ctx, profile, logFile)
		if err != nil {
			return err
		}
		defer g.Close()

		if err := RunTUI(ctx, g.Session, profile); err != nil {
			return err
		}
		return g.Settle(ctx)
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
}
