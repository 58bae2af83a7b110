package app

import (
	"context"
	"net/http"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/rs/zerolog"

	"github.com/circleous/repo-maker/internal/command"
	"github.com/circleous/repo-maker/internal/database"
	"github.com/circleous/repo-maker/pkg/maker"
)

const (
	issueCommentEvent = "issue_comment"
	actionCreated     = "created"
	recordTimeout     = 5 * time.Second
)

// ServeHTTP receives GitHub webhook deliveries. Matching comments are
// acknowledged with 202 and handled in the background, everything else is
// answered with 200.
func (a *app) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	deliveryID := github.DeliveryID(r)
	logger := a.logger.With().Str("delivery", deliveryID).Logger()

	payload, err := github.ValidatePayload(r, []byte(a.config.WebhookSecret))
	if err != nil {
		logger.Error().Err(err).Msg("invalid payload")
		w.WriteHeader(http.StatusForbidden)
		return
	}

	a.stat.IncreaseDeliveries(1)

	eventType := github.WebHookType(r)
	if eventType != issueCommentEvent {
		logger.Debug().Str("event", eventType).Msg("ignoring event")
		a.stat.IncreaseIgnored(1)
		w.WriteHeader(http.StatusOK)
		return
	}

	event, err := github.ParseWebHook(eventType, payload)
	if err != nil {
		logger.Error().Err(err).Msg("failed to parse payload")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	e, ok := event.(*github.IssueCommentEvent)
	if !ok || e.GetAction() != actionCreated ||
		!command.Matches(e.GetComment().GetBody(), a.handler.Trigger()) {
		a.stat.IncreaseIgnored(1)
		w.WriteHeader(http.StatusOK)
		return
	}

	ev := commentEvent(e, deliveryID)
	logger.Info().Str("repository", ev.Owner+"/"+ev.Repository).
		Int("issue", ev.IssueNumber).Str("user", ev.Author).
		Msg("received command")

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.process(ev, logger)
	}()

	w.WriteHeader(http.StatusAccepted)
}

func commentEvent(e *github.IssueCommentEvent, deliveryID string) maker.CommentEvent {
	return maker.CommentEvent{
		Body:           e.GetComment().GetBody(),
		Author:         e.GetComment().GetUser().GetLogin(),
		Organization:   e.GetOrganization().GetLogin(),
		Owner:          e.GetRepo().GetOwner().GetLogin(),
		Repository:     e.GetRepo().GetName(),
		IssueNumber:    e.GetIssue().GetNumber(),
		InstallationID: e.GetInstallation().GetID(),
		DeliveryID:     deliveryID,
	}
}

// process runs the command for ev, logs failures and records the outcome
func (a *app) process(ev maker.CommentEvent, logger zerolog.Logger) *command.Result {
	ctx, cancel := context.WithTimeout(a.ctx, a.config.HandlerTimeout.Duration)
	defer cancel()

	var result *command.Result

	client, err := a.gs.ForInstallation(ctx, ev.InstallationID)
	if err == nil {
		result, err = a.handler.Handle(ctx, command.Request{
			Event:  ev,
			Loader: maker.NewGithubLoader(client, a.config.ConfigFile),
			Client: client,
			Logger: logger,
		})
	}

	if result == nil {
		result = &command.Result{Outcome: command.OutcomeFailed, Name: command.ParseRepoName(ev.Body)}
	}

	run := database.Run{
		DeliveryID:   ev.DeliveryID,
		Organization: ev.Organization,
		SourceRepo:   ev.Owner + "/" + ev.Repository,
		IssueNumber:  ev.IssueNumber,
		TargetRepo:   result.Name,
		Author:       ev.Author,
		Outcome:      string(result.Outcome),
		FailedTeams:  result.FailedGrants(),
	}
	if result.Repository != nil {
		run.URL = result.Repository.URL
	}

	if err != nil {
		logger.Error().Err(err).Str("outcome", run.Outcome).Msg("failed to handle command")
		run.Error = err.Error()
	} else {
		logger.Info().Str("outcome", run.Outcome).Int("failed_teams", run.FailedTeams).
			Msg("command handled")
	}

	a.stat.Record(result.Outcome, run.FailedTeams)

	// the command context may already be expired
	recordCtx, recordCancel := context.WithTimeout(context.Background(), recordTimeout)
	defer recordCancel()

	if err := a.db.RecordRun(recordCtx, run); err != nil {
		logger.Error().Err(err).Msg("failed to record run")
	}

	return result
}
