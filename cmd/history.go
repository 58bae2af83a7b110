package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/circleous/repo-maker/internal/app"
	"github.com/circleous/repo-maker/internal/database"
)

func init() {
	historyCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "use json as output")
	historyCmd.PersistentFlags().IntVarP(&historyLimit, "limit", "n", 20, "number of commands to show")
	rootCmd.AddCommand(historyCmd)
}

var (
	jsonOut      bool
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently handled commands",
	Long:  `Show recently handled commands from the database, newest first.`,
	Args:  cobra.NoArgs,
	Run:   history,
}

func history(cmd *cobra.Command, _ []string) {
	requireConfig()

	dbPath, err := app.ParseDatabasePath(confPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse config file")
		os.Exit(1)
	}

	db, err := database.NewDatabase(dbPath)
	if err != nil {
		log.Error().Err(err).Str("path", dbPath).Msg("failed to open database")
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Error().Err(err).Str("path", dbPath).Msg("failed to initialize database")
		os.Exit(1)
	}

	runs, err := db.ListRuns(cmd.Context(), historyLimit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list commands")
		os.Exit(1)
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(runs); err != nil {
			log.Error().Err(err).Msg("failed to write json")
			os.Exit(1)
		}
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSOURCE\tISSUE\tREPO\tAUTHOR\tOUTCOME\tFAILED TEAMS\tERROR")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t#%d\t%s\t%s\t%s\t%d\t%s\n",
			run.CreatedAt.Local().Format(time.RFC3339), run.SourceRepo, run.IssueNumber,
			run.TargetRepo, run.Author, run.Outcome, run.FailedTeams, run.Error)
	}
	tw.Flush()
}
