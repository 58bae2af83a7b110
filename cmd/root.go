package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "repo-maker",
	Short: "repo-maker creates repositories from issue comments",
	Long: `A GitHub bot creating repositories from a template repository when someone
comments "/create-repo <name>" on one of its issues or pull requests.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

var (
	confPath string
	silent   bool
	verbose  bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&confPath, "config", "c", "repo-maker.toml", "config file")
	rootCmd.PersistentFlags().BoolVarP(&silent, "silent", "s", false, "silent, only error or panic output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "more verbose for debug output")
	cobra.OnInitialize(func() {
		// init logger
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

		if silent && verbose {
			log.Error().Msg("choose only one of silent or verbose output")
			os.Exit(1)
		}

		zerolog.SetGlobalLevel(zerolog.InfoLevel)

		if silent {
			zerolog.SetGlobalLevel(zerolog.ErrorLevel)
		}

		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	})
}

// requireConfig exits when the config file is missing
func requireConfig() {
	if _, err := os.Stat(confPath); os.IsNotExist(err) {
		log.Error().Err(err).Msg("config file not exists!")
		os.Exit(1)
	}
}

// Execute root cobra executor
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("")
		os.Exit(1)
	}
}
