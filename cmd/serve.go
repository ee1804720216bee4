package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/suderio/dreamland/internal/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the game as a JSON API",
	Long: `Starts an HTTP server exposing one session:

	POST   /game            start a new game
	DELETE /game            return to the menu
	POST   /actions/{kind}  resolve an action (move, attack, craft, ...)
	POST   /command         run a typed command line
	GET    /state           current snapshot
	GET    /narrative?n=20  latest story entries`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, _ := cmd.Flags().GetString("profile")
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, err := openGame(ctx, profile, os.Stderr)
		if err != nil {
			return err
		}
		defer g.Close()

		srv := &http.Server{
			Addr:              g.cfg.HTTP.Addr,
			Handler:           httpapi.New(g.Session, g.logger).Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		errc := make(chan error, 1)
		go func() {
			g.logger.Info("listening", "addr", srv.Addr)
			errc <- srv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
		}

		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		g.logger.Info("shutting down")
		if err := srv.Shutdown(shutdown); err != nil {
			return err
		}
		return g.Settle(shutdown)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("profile", "p", "", "profile whose world and telemetry to use")
	serveCmd.Flags().String("addr", ":8080", "listen address")
	cobra.CheckErr(viper.BindPFlag("http.addr", serveCmd.Flags().Lookup("addr")))
}
