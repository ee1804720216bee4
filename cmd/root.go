/*
Copyright © 2026 Paulo Suderio
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/suderio/dreamland/internal/config"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dreamland",
	Short: "A turn-based survival dream told by a storyteller",
	Long: `dreamland resolves every action of a lone dreamer into dice, outcomes
and story. Play it in the terminal, over HTTP or from a Telegram chat.

	dreamland play
	dreamland serve --addr :8080
	dreamland simulate --turns 500 --seed 7`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.dreamland.yaml)")
	rootCmd.PersistentFlags().StringSlice("data-dir", nil, "directories whose yaml overrides the built-in catalog")
	rootCmd.PersistentFlags().Uint64("seed", 0, "dice seed (0 picks one from the clock)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")

	cobra.CheckErr(viper.BindPFlag("data_dirs", rootCmd.PersistentFlags().Lookup("data-dir")))
	cobra.CheckErr(viper.BindPFlag("seed", rootCmd.PersistentFlags().Lookup("seed")))
	cobra.CheckErr(viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level")))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".dreamland")
	}

	viper.SetEnvPrefix("DREAMLAND")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	config.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes the merged flags, file and environment.
func loadConfig() (config.Config, error) {
	return config.Load(viper.GetViper())
}
