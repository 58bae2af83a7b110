package command

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/circleous/repo-maker/pkg/maker"
)

// grantTeams adds every team to org/repo, at most h.maxWorker at a time, and
// waits for all of them. A failing team never stops the others.
func (h *Handler) grantTeams(ctx context.Context, client GitService, org, repo string,
	teams []maker.TeamGrant, logger zerolog.Logger) []maker.GrantResult {
	var wg sync.WaitGroup

	results := make([]maker.GrantResult, len(teams))
	sem := semaphore.NewWeighted(int64(h.maxWorker))

	for i, team := range teams {
		results[i] = maker.GrantResult{Team: team.Name, Permission: team.Permission}

		if err := sem.Acquire(ctx, 1); err != nil {
			logger.Error().Err(err).Str("team", team.Name).Msg("failed to acquire semaphore")
			for j := i; j < len(teams); j++ {
				results[j] = maker.GrantResult{Team: teams[j].Name, Permission: teams[j].Permission, Err: err}
			}
			break
		}

		wg.Add(1)
		go func(i int, team maker.TeamGrant) {
			defer wg.Done()
			defer sem.Release(1)

			logger.Info().Str("team", team.Name).Str("permission", team.Permission.String()).
				Msg("adding team to repo")

			err := client.AddTeamRepository(ctx, org, team.Name, org, repo, team.Permission)
			if err != nil {
				logger.Error().Err(err).Str("team", team.Name).Msg("failed to add team to repo")
			}
			results[i].Err = err
		}(i, team)
	}

	wg.Wait()

	var failed error
	for _, r := range results {
		if r.Err != nil {
			failed = multierror.Append(failed, r.Err)
		}
	}
	if failed != nil {
		logger.Warn().Err(failed).Int("teams", len(teams)).Msg("not every team was added")
	}

	return results
}
