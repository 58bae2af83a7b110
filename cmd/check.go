package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/circleous/repo-maker/pkg/maker"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check [repo-maker.yml]",
	Short: "Validate a repo-maker.yml file",
	Long: `Validate a repo-maker.yml file before pushing it. Defaults to
.github/repo-maker.yml in the current directory.`,
	Args: cobra.MaximumNArgs(1),
	Run:  check,
}

func check(_ *cobra.Command, args []string) {
	path := filepath.Join(".github", maker.DefaultConfigFile)
	if len(args) > 0 {
		path = args[0]
	}

	dir, file := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	config, err := maker.NewFSLoader(osfs.New(dir), file).Load(context.Background(), "", "")
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("config is invalid")
		os.Exit(1)
	}

	if config == nil {
		log.Error().Str("path", path).Msg("config file not exists!")
		fmt.Printf("use the following template:\n\n%s", maker.RenderExample())
		os.Exit(1)
	}

	log.Info().Str("path", path).Int("teams", len(config.Teams)).Msg("config is valid")
	for _, team := range config.Teams {
		permission := team.Permission.String()
		if permission == "" {
			permission = "(github default)"
		}
		fmt.Printf("%s\t%s\n", team.Name, permission)
	}
}
