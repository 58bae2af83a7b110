package gitservice

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/circleous/repo-maker/pkg/gitservice/github"
)

// Options used to create a Provider. Either GithubToken or AppID together with
// PrivateKey must be set.
type Options struct {
	// GithubToken personal access token, used for every installation
	GithubToken string

	// AppID and PrivateKey authenticate as a GitHub App, every installation
	// gets its own client
	AppID      int64
	PrivateKey []byte

	// BaseURL GitHub Enterprise API url
	BaseURL string

	// WriteDelay pause between write requests of a single client
	WriteDelay time.Duration
}

// Provider hands out github clients acting on behalf of an installation
type Provider interface {
	ForInstallation(ctx context.Context, installationID int64) (github.Service, error)
}

type tokenProvider struct {
	service github.Service
}

func (tp *tokenProvider) ForInstallation(context.Context, int64) (github.Service, error) {
	return tp.service, nil
}

type appProvider struct {
	// ctx outlives single deliveries, installation tokens are refreshed with it
	ctx  context.Context
	app  *github.App
	opts github.Options

	m       sync.Mutex
	clients map[int64]github.Service
}

func (ap *appProvider) ForInstallation(_ context.Context, installationID int64) (github.Service, error) {
	if installationID == 0 {
		return nil, errors.New("delivery has no installation, is the app installed?")
	}

	ap.m.Lock()
	defer ap.m.Unlock()

	if gs, ok := ap.clients[installationID]; ok {
		return gs, nil
	}

	gs, err := github.NewGithubClientWithTokenSource(ap.ctx,
		ap.app.TokenSource(ap.ctx, installationID), ap.opts)
	if err != nil {
		return nil, err
	}
	ap.clients[installationID] = gs

	return gs, nil
}

// NewGitService creates a Provider from opts. ctx must stay alive as long as
// the provider is used.
func NewGitService(ctx context.Context, opts *Options) (Provider, error) {
	ghOpts := github.Options{
		BaseURL:    opts.BaseURL,
		WriteDelay: opts.WriteDelay,
	}

	if opts.AppID != 0 {
		if len(opts.PrivateKey) == 0 {
			return nil, errors.New("github app needs a private key")
		}
		app, err := github.NewApp(opts.AppID, opts.PrivateKey, ghOpts)
		if err != nil {
			return nil, err
		}
		return &appProvider{
			ctx:     ctx,
			app:     app,
			opts:    ghOpts,
			clients: make(map[int64]github.Service),
		}, nil
	}

	if opts.GithubToken == "" {
		return nil, errors.New("either github_token or app_id needs to be set")
	}

	gs, err := github.NewGithubClientWithToken(ctx, opts.GithubToken, ghOpts)
	if err != nil {
		return nil, err
	}

	return &tokenProvider{service: gs}, nil
}
