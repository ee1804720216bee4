package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/suderio/dreamland/internal/config"
	"github.com/suderio/dreamland/internal/telegram"
)

// botCmd represents the bot command
var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Play from a Telegram chat",
	Long: `Runs a Telegram bot that plays one session from a single chat. Every
message is read as a command ("/attack wolf" or "attack wolf"), /start begins
a new game, and the story is posted back once narration settles.

The token is read from TELEGRAM_BOT_TOKEN (or a .env file); the chat from
telegram.chat_id in the config file or --chat-id.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := config.LoadCredentials(".env")
		if err != nil {
			return err
		}
		chatID := viper.GetInt64("telegram.chat_id")
		if creds.TelegramToken == "" || chatID == 0 {
			printBotSetup(cmd, creds.TelegramToken == "")
			return fmt.Errorf("telegram bot is not configured")
		}

		profile, _ := cmd.Flags().GetString("profile")
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, err := openGame(ctx, profile, os.Stderr)
		if err != nil {
			return err
		}
		defer g.Close()

		tg := g.cfg.Telegram
		bot := telegram.NewBot(telegram.NewClient(creds.TelegramToken), chatID, g, tg.PollTimeout, tg.LastUpdateID, g.logger)
		bot.OnOffset = func(id int) {
			viper.Set("telegram.last_update_id", id)
			// A missing config file only costs a replay of old updates.
			if err := viper.WriteConfig(); err != nil {
				g.logger.Debug("update offset not persisted", "err", err)
			}
		}
		return bot.Run(ctx)
	},
}

func printBotSetup(cmd *cobra.Command, needToken bool) {
	out := cmd.ErrOrStderr()
	fmt.Fprintln(out, "---")
	if needToken {
		fmt.Fprintln(out, "Create your Telegram Bot & Get Token")
		fmt.Fprintln(out, "Open Telegram and search for the official @BotFather.")
		fmt.Fprintln(out, "Send the /newbot command and follow the prompts to name your bot.")
		fmt.Fprintln(out, "Store the HTTP API token as TELEGRAM_BOT_TOKEN in your environment or .env file.")
	} else {
		fmt.Fprintln(out, "How to get your Telegram Chat ID:")
		fmt.Fprintln(out, "1. Send any message to your bot.")
		fmt.Fprintln(out, "2. Access https://api.telegram.org/bot<TOKEN>/getUpdates in your browser.")
		fmt.Fprintln(out, "3. Copy the 'id' of the 'chat' object into telegram.chat_id or pass --chat-id.")
	}
	fmt.Fprintln(out, "---")
}

func init() {
	rootCmd.AddCommand(botCmd)

	botCmd.Flags().StringP("profile", "p", "", "profile whose world and telemetry to use")
	botCmd.Flags().Int64("chat-id", 0, "the only Telegram chat the bot answers")
	cobra.CheckErr(viper.BindPFlag("telegram.chat_id", botCmd.Flags().Lookup("chat-id")))
}
