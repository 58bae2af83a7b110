package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/circleous/repo-maker/internal/app"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Long: `Start the webhook server. Point the GitHub App (or repository/organization
webhook) to the configured webhook_path and subscribe to issue comment events.`,
	Args: cobra.NoArgs,
	Run:  serve,
}

func serve(_ *cobra.Command, _ []string) {
	requireConfig()

	conf, err := app.ParseConfig(confPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse config file")
		os.Exit(1)
	}

	a, err := app.New(conf)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize")
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped")
		a.Close()
		os.Exit(1)
	}
}
