package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/circleous/repo-maker/pkg/git"
	"github.com/circleous/repo-maker/pkg/maker"
)

const (
	defaultHost      = "github.com"
	defaultMaxWorker = 10

	// confirmTimeout bounds the confirmation comment, which is posted even
	// when the command context ran out during the team grants
	confirmTimeout = 30 * time.Second
)

// Outcome describes how a comment was handled
type Outcome string

const (
	OutcomeIgnored        Outcome = "ignored"
	OutcomeNoOrganization Outcome = "no_organization"
	OutcomeMissingName    Outcome = "missing_name"
	OutcomeMissingConfig  Outcome = "missing_config"
	OutcomeInvalidConfig  Outcome = "invalid_config"
	OutcomeCreated        Outcome = "created"
	OutcomeFailed         Outcome = "failed"
)

// GitService is the set of remote operations the handler needs
type GitService interface {
	CreateFromTemplate(ctx context.Context, templateOwner, templateRepo string, opt *git.TemplateOptions) (*git.Repository, error)
	AddCollaborator(ctx context.Context, owner, repo, user string, permission git.Permission) error
	AddTeamRepository(ctx context.Context, org, teamSlug, owner, repo string, permission git.Permission) error
	CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error
}

// Request bundles everything a single command invocation works with
type Request struct {
	Event  maker.CommentEvent
	Loader maker.Loader
	Client GitService
	Logger zerolog.Logger
}

// Result is returned for every handled request, also alongside an error
type Result struct {
	Outcome Outcome
	// Name of the repository requested in the comment
	Name string
	// Repository is set once the repository was created
	Repository *git.Repository
	// Grants one result per configured team
	Grants []maker.GrantResult
}

// FailedGrants counts the team grants that did not succeed
func (r *Result) FailedGrants() int {
	n := 0
	for _, g := range r.Grants {
		if g.Failed() {
			n++
		}
	}
	return n
}

// Options configures a Handler
type Options struct {
	// Trigger comment prefix, defaults to DefaultTrigger
	Trigger string
	// Host used to build the repository URL in the confirmation comment
	Host string
	// MaxWorker is the max concurrent team grants
	MaxWorker int
}

// Handler runs the create-repo command
type Handler struct {
	trigger   string
	host      string
	maxWorker int
}

// New creates a Handler, zero options fall back to defaults
func New(opts Options) *Handler {
	h := &Handler{
		trigger:   opts.Trigger,
		host:      opts.Host,
		maxWorker: opts.MaxWorker,
	}
	if h.trigger == "" {
		h.trigger = DefaultTrigger
	}
	if h.host == "" {
		h.host = defaultHost
	}
	if h.maxWorker <= 0 {
		h.maxWorker = defaultMaxWorker
	}
	return h
}

// Trigger returns the comment prefix the handler reacts to
func (h *Handler) Trigger() string {
	return h.trigger
}

// Handle runs the command for one comment. Misuse is answered with a comment
// and a nil error. Failing to create the repository or to add the commenter
// is returned as error without telling the user. Team grants that fail are
// listed in the confirmation comment.
func (h *Handler) Handle(ctx context.Context, req Request) (*Result, error) {
	ev := req.Event
	logger := req.Logger

	if !Matches(ev.Body, h.trigger) {
		return &Result{Outcome: OutcomeIgnored}, nil
	}

	if !ev.HasOrganization() {
		return h.reply(ctx, req, &Result{Outcome: OutcomeNoOrganization}, notOrganizationMessage)
	}

	org := ev.Organization
	result := &Result{Name: ParseRepoName(ev.Body)}

	if result.Name == "" {
		result.Outcome = OutcomeMissingName
		return h.reply(ctx, req, result, usageMessage(h.trigger))
	}

	logger = logger.With().Str("organization", org).Str("repo", result.Name).Logger()

	config, err := req.Loader.Load(ctx, ev.Owner, ev.Repository)
	var invalid *maker.InvalidConfigError
	if errors.As(err, &invalid) {
		logger.Info().Err(err).Msg("config is invalid")
		result.Outcome = OutcomeInvalidConfig
		return h.reply(ctx, req, result, invalidConfigMessage(err))
	}
	if err != nil {
		result.Outcome = OutcomeFailed
		return result, fmt.Errorf("failed to load config: %w", err)
	}
	if config == nil {
		logger.Info().Msg("config not found")
		result.Outcome = OutcomeMissingConfig
		return h.reply(ctx, req, result, missingConfigMessage())
	}

	logger.Info().Str("template", ev.Repository).Msg("creating repo")
	repo, err := req.Client.CreateFromTemplate(ctx, org, ev.Repository, &git.TemplateOptions{
		Name:    result.Name,
		Owner:   org,
		Private: true,
	})
	if err != nil {
		result.Outcome = OutcomeFailed
		return result, fmt.Errorf("failed to create repo %s/%s: %w", org, result.Name, err)
	}
	result.Repository = repo
	logger.Info().Str("repository", repo.FullName()).Str("url", repo.URL).Bool("private", repo.Private).
		Msg("repo created")

	// person who commented to create the repo should be added to the repo
	logger.Info().Str("user", ev.Author).Msg("adding user to repo")
	err = req.Client.AddCollaborator(ctx, org, result.Name, ev.Author, git.PermissionAdmin)
	if err != nil {
		result.Outcome = OutcomeFailed
		return result, fmt.Errorf("failed to add %s to %s/%s: %w", ev.Author, org, result.Name, err)
	}

	result.Grants = h.grantTeams(ctx, req.Client, org, result.Name, config.Teams, logger)

	confirmCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), confirmTimeout)
	defer cancel()

	url := git.Repository{Owner: org, Name: result.Name}.WebURL(h.host)
	logger.Info().Msg("creating issue comment")
	result.Outcome = OutcomeCreated
	return h.reply(confirmCtx, req, result, createdMessage(result.Name, url, result.Grants))
}

func (h *Handler) reply(ctx context.Context, req Request, result *Result, body string) (*Result, error) {
	ev := req.Event
	err := req.Client.CreateIssueComment(ctx, ev.Owner, ev.Repository, ev.IssueNumber, body)
	if err != nil {
		return result, fmt.Errorf("failed to comment on %s/%s#%d: %w",
			ev.Owner, ev.Repository, ev.IssueNumber, err)
	}
	return result, nil
}
