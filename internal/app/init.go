package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/circleous/repo-maker/internal/command"
	"github.com/circleous/repo-maker/internal/database"
	"github.com/circleous/repo-maker/pkg/gitservice"
	"github.com/circleous/repo-maker/pkg/maker"
)

var (
	defaultListen         = ":3000"
	defaultWebhookPath    = "/api/github/webhooks"
	defaultHost           = "github.com"
	defaultMaxWorker      = 10
	defaultWriteDelay     = duration{time.Second}
	defaultHandlerTimeout = duration{2 * time.Minute}
	defaultDatabasePath   = "repo-maker.db"
)

// duration decodes toml strings like "1s" or "2m"
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// Config is the configuration struct for the webhook server. It can be created
// with ParseConfig.
type Config struct {
	// Listen is the address the http server binds to
	Listen string `toml:"listen" env:"REPO_MAKER_LISTEN"`

	// WebhookPath is the path GitHub delivers webhooks to
	WebhookPath string `toml:"webhook_path"`

	// WebhookSecret validates the X-Hub-Signature-256 header of deliveries
	WebhookSecret string `toml:"webhook_secret" env:"REPO_MAKER_WEBHOOK_SECRET"`

	// GithubToken personal access token. Ignored when AppID is set.
	GithubToken string `toml:"github_token" env:"REPO_MAKER_GITHUB_TOKEN"`

	// AppID and PrivateKeyPath authenticate as a GitHub App
	AppID          int64  `toml:"app_id" env:"REPO_MAKER_APP_ID"`
	PrivateKeyPath string `toml:"private_key_path" env:"REPO_MAKER_PRIVATE_KEY_PATH"`

	// BaseURL GitHub Enterprise API url, empty for github.com
	BaseURL string `toml:"base_url" env:"REPO_MAKER_BASE_URL"`

	// Host used in repository links posted back to the issue
	Host string `toml:"host"`

	// Trigger is the comment prefix starting the command
	Trigger string `toml:"trigger"`

	// ConfigFile is the name of the file looked up in .github/
	ConfigFile string `toml:"config_file"`

	// MaxWorker is the max concurrent team grants of a single command
	MaxWorker int `toml:"max_worker"`

	// WriteDelay pause between write requests to the GitHub API
	WriteDelay duration `toml:"write_delay"`

	// HandlerTimeout bounds a single command, deliveries are acknowledged
	// before the command runs
	HandlerTimeout duration `toml:"handler_timeout"`

	// DatabasePath sqlite file the handled commands are recorded in
	DatabasePath string `toml:"database_path" env:"REPO_MAKER_DATABASE_PATH"`
}

// ParseConfig builds a Config from a toml file, secrets can be overridden with
// REPO_MAKER_* environment variables
func ParseConfig(configPath string) (*Config, error) {
	config, meta, err := decodeConfig(configPath)
	if err != nil {
		return nil, err
	}

	if config.Listen == "" {
		config.Listen = defaultListen
	}

	if !meta.IsDefined("webhook_path") {
		config.WebhookPath = defaultWebhookPath
	}

	if !strings.HasPrefix(config.WebhookPath, "/") {
		return nil, errors.New("webhook_path needs to start with /")
	}

	if !meta.IsDefined("host") {
		config.Host = defaultHost
	}

	if !meta.IsDefined("trigger") {
		config.Trigger = command.DefaultTrigger
	}

	if strings.TrimSpace(config.Trigger) == "" || strings.ContainsAny(config.Trigger, " \t\n") {
		return nil, errors.New("trigger can't be empty or contain whitespace")
	}

	if !meta.IsDefined("config_file") {
		config.ConfigFile = maker.DefaultConfigFile
	}

	if !meta.IsDefined("max_worker") {
		config.MaxWorker = defaultMaxWorker
	}

	if config.MaxWorker < 1 {
		return nil, errors.New("max_worker needs to be at least 1")
	}

	if !meta.IsDefined("write_delay") {
		config.WriteDelay = defaultWriteDelay
	}

	if !meta.IsDefined("handler_timeout") {
		config.HandlerTimeout = defaultHandlerTimeout
	}

	if config.DatabasePath == "" {
		config.DatabasePath = defaultDatabasePath
	}

	if config.WebhookSecret == "" {
		return nil, errors.New("webhook_secret is not defined")
	}

	if config.AppID == 0 && config.GithubToken == "" {
		return nil, errors.New("either github_token or app_id needs to be defined")
	}

	if config.AppID != 0 && config.PrivateKeyPath == "" {
		return nil, errors.New("app_id needs private_key_path to be defined")
	}

	return config, nil
}

// ParseDatabasePath reads only database_path from the config file, the
// server settings don't need to be complete
func ParseDatabasePath(configPath string) (string, error) {
	config, _, err := decodeConfig(configPath)
	if err != nil {
		return "", err
	}

	if config.DatabasePath == "" {
		return defaultDatabasePath, nil
	}
	return config.DatabasePath, nil
}

func decodeConfig(configPath string) (*Config, toml.MetaData, error) {
	var config Config

	meta, err := toml.DecodeFile(configPath, &config)
	if err != nil {
		return nil, meta, err
	}

	if err := env.Parse(&config); err != nil {
		return nil, meta, fmt.Errorf("parse env: %w", err)
	}

	return &config, meta, nil
}

type app struct {
	config  *Config
	handler *command.Handler
	gs      gitservice.Provider
	db      database.Service
	stat    *commandStat
	logger  zerolog.Logger

	// ctx is cancelled on Close, in-flight commands are tracked by wg
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Service is the main interface for the webhook app
type Service interface {
	// Run serves webhooks until ctx is done
	Run(ctx context.Context) error
	Close()
}

// New init the webhook app
func New(config *Config) (Service, error) {
	ctx, cancel := context.WithCancel(context.Background())

	opts := &gitservice.Options{
		GithubToken: config.GithubToken,
		AppID:       config.AppID,
		BaseURL:     config.BaseURL,
		WriteDelay:  config.WriteDelay.Duration,
	}

	if config.AppID != 0 {
		key, err := os.ReadFile(config.PrivateKeyPath)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		opts.PrivateKey = key
	}

	gs, err := gitservice.NewGitService(ctx, opts)
	if err != nil {
		cancel()
		return nil, err
	}

	db, err := database.NewDatabase(config.DatabasePath)
	if err != nil {
		cancel()
		return nil, err
	}

	if err := db.Initialize(); err != nil {
		cancel()
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return newApp(ctx, cancel, config, gs, db, log.Logger), nil
}

func newApp(ctx context.Context, cancel context.CancelFunc, config *Config,
	gs gitservice.Provider, db database.Service, logger zerolog.Logger) *app {
	return &app{
		config: config,
		handler: command.New(command.Options{
			Trigger:   config.Trigger,
			Host:      config.Host,
			MaxWorker: config.MaxWorker,
		}),
		gs:     gs,
		db:     db,
		stat:   &commandStat{},
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Close waits for in-flight commands and releases the database
func (a *app) Close() {
	a.wg.Wait()
	a.cancel()
	a.db.Close()
}
