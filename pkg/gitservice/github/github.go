package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/circleous/repo-maker/pkg/git"
)

type githubService struct {
	client *github.Client
}

// Service exported interface for github service
type Service interface {
	// CreateFromTemplate creates a new repository from templateOwner/templateRepo
	CreateFromTemplate(ctx context.Context, templateOwner, templateRepo string, opt *git.TemplateOptions) (*git.Repository, error)
	// AddCollaborator grants user permission on owner/repo
	AddCollaborator(ctx context.Context, owner, repo, user string, permission git.Permission) error
	// AddTeamRepository adds or updates the permission of org/teamSlug on owner/repo
	AddTeamRepository(ctx context.Context, org, teamSlug, owner, repo string, permission git.Permission) error
	// CreateIssueComment comments on issue or pull request number of owner/repo
	CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error
	// GetFileContent returns the decoded content of path, git.ErrNotFound when missing
	GetFileContent(ctx context.Context, owner, repo, path string) ([]byte, error)
}

// Options configures the http client shared by the github api clients
type Options struct {
	// BaseURL GitHub Enterprise API url, empty for github.com
	BaseURL string
	// WriteDelay is the pause between two write requests
	WriteDelay time.Duration
}

// NewGithubClientWithToken create new github api client with token
func NewGithubClientWithToken(ctx context.Context, token string, opt Options) (Service, error) {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	return NewGithubClientWithTokenSource(ctx, ts, opt)
}

// NewGithubClientWithTokenSource create new github api client authenticating
// every request with a token from ts
func NewGithubClientWithTokenSource(ctx context.Context, ts oauth2.TokenSource, opt Options) (Service, error) {
	hc := oauth2.NewClient(ctx, ts)
	hc.Transport = newRateLimitTransport(hc.Transport, opt.WriteDelay)
	return newService(hc, opt.BaseURL)
}

func newClient(hc *http.Client, baseURL string) (*github.Client, error) {
	client := github.NewClient(hc)
	if baseURL == "" {
		return client, nil
	}
	return client.WithEnterpriseURLs(baseURL, baseURL)
}

func newService(hc *http.Client, baseURL string) (Service, error) {
	client, err := newClient(hc, baseURL)
	if err != nil {
		return nil, err
	}
	return &githubService{client: client}, nil
}

// CreateFromTemplate creates a repository from a template repository, the
// call returns once GitHub accepted the new repository
func (ghs *githubService) CreateFromTemplate(ctx context.Context, templateOwner, templateRepo string,
	opt *git.TemplateOptions) (*git.Repository, error) {
	req := &github.TemplateRepoRequest{
		Name:    github.String(opt.Name),
		Owner:   github.String(opt.Owner),
		Private: github.Bool(opt.Private),
	}

	repo, _, err := ghs.client.Repositories.CreateFromTemplate(ctx, templateOwner, templateRepo, req)
	if err != nil {
		return nil, wrapError(err)
	}

	return &git.Repository{
		Owner:   repo.GetOwner().GetLogin(),
		Name:    repo.GetName(),
		URL:     repo.GetHTMLURL(),
		Private: repo.GetPrivate(),
	}, nil
}

// AddCollaborator adds user as a collaborator of owner/repo. For organization
// members access is granted directly, outside collaborators get an invitation.
func (ghs *githubService) AddCollaborator(ctx context.Context, owner, repo, user string,
	permission git.Permission) error {
	_, _, err := ghs.client.Repositories.AddCollaborator(ctx, owner, repo, user,
		&github.RepositoryAddCollaboratorOptions{Permission: string(permission)})
	return wrapError(err)
}

// AddTeamRepository adds or updates a team's permission on a repository. An
// empty permission is sent as is and the API default applies.
func (ghs *githubService) AddTeamRepository(ctx context.Context, org, teamSlug, owner, repo string,
	permission git.Permission) error {
	_, err := ghs.client.Teams.AddTeamRepoBySlug(ctx, org, teamSlug, owner, repo,
		&github.TeamAddTeamRepoOptions{Permission: string(permission)})
	return wrapError(err)
}

// CreateIssueComment posts body on an issue or pull request
func (ghs *githubService) CreateIssueComment(ctx context.Context, owner, repo string, number int,
	body string) error {
	_, _, err := ghs.client.Issues.CreateComment(ctx, owner, repo, number,
		&github.IssueComment{Body: github.String(body)})
	return wrapError(err)
}

// GetFileContent returns the content of a file on the default branch
func (ghs *githubService) GetFileContent(ctx context.Context, owner, repo, path string) ([]byte, error) {
	file, _, _, err := ghs.client.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		return nil, wrapError(err)
	}
	if file == nil {
		return nil, fmt.Errorf("%s is a directory: %w", path, git.ErrNotFound)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, err
	}

	return []byte(content), nil
}

// wrapError turns 404 responses into git.ErrNotFound
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil &&
		ghErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", ghErr.Message, git.ErrNotFound)
	}

	return err
}
