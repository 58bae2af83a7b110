package github

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// GitHub rejects app JWTs valid for more than 10 minutes
const (
	jwtLifetime   = 10 * time.Minute
	jwtClockDrift = 60 * time.Second
)

// App authenticates as a GitHub App and hands out installation tokens
type App struct {
	id     int64
	key    *rsa.PrivateKey
	client *github.Client
	now    func() time.Time
}

// NewApp creates a GitHub App authenticator from the PEM encoded private key
// downloaded from the app settings
func NewApp(appID int64, privateKeyPEM []byte, opt Options) (*App, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse app private key: %w", err)
	}

	app := &App{id: appID, key: key, now: time.Now}

	hc := &http.Client{Transport: &jwtTransport{app: app, transport: http.DefaultTransport}}
	app.client, err = newClient(hc, opt.BaseURL)
	if err != nil {
		return nil, err
	}

	return app, nil
}

// JWT creates a signed token identifying the app itself
func (a *App) JWT() (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now.Add(-jwtClockDrift)),
		ExpiresAt: jwt.NewNumericDate(now.Add(jwtLifetime)),
		Issuer:    strconv.FormatInt(a.id, 10),
	}

	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(a.key)
}

// TokenSource returns a token source for the given installation. Tokens are
// reused until they are about to expire.
func (a *App) TokenSource(ctx context.Context, installationID int64) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &installationTokenSource{
		ctx:            ctx,
		app:            a,
		installationID: installationID,
	})
}

type installationTokenSource struct {
	ctx            context.Context
	app            *App
	installationID int64
}

func (its *installationTokenSource) Token() (*oauth2.Token, error) {
	token, _, err := its.app.client.Apps.CreateInstallationToken(its.ctx, its.installationID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create installation token for %d: %w", its.installationID, err)
	}

	return &oauth2.Token{
		AccessToken: token.GetToken(),
		TokenType:   "token",
		Expiry:      token.GetExpiresAt().Time,
	}, nil
}

// jwtTransport signs every request with a fresh app JWT
type jwtTransport struct {
	app       *App
	transport http.RoundTripper
}

func (jt *jwtTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := jt.app.JWT()
	if err != nil {
		return nil, fmt.Errorf("failed to sign app jwt: %w", err)
	}

	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+token)
	return jt.transport.RoundTrip(r)
}
