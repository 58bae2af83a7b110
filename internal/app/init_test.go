package app_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/circleous/repo-maker/internal/app"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "repo-maker.toml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
webhook_secret = "s3cr3t"
github_token = "ghp_token"
`)

	config, err := app.ParseConfig(path)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	if config.Listen != ":3000" || config.WebhookPath != "/api/github/webhooks" {
		t.Errorf("unexpected listen config %+v", config)
	}
	if config.Trigger != "/create-repo" || config.Host != "github.com" || config.ConfigFile != "repo-maker.yml" {
		t.Errorf("unexpected command config %+v", config)
	}
	if config.MaxWorker != 10 || config.WriteDelay.Duration != time.Second ||
		config.HandlerTimeout.Duration != 2*time.Minute {
		t.Errorf("unexpected tuning config %+v", config)
	}
	if config.DatabasePath != "repo-maker.db" {
		t.Errorf("database_path = %q", config.DatabasePath)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
listen = "127.0.0.1:8080"
webhook_secret = "s3cr3t"
app_id = 42
private_key_path = "/etc/repo-maker/key.pem"
base_url = "https://git.example.com/api/v3/"
host = "git.example.com"
trigger = "/new-repo"
max_worker = 2
write_delay = "0s"
handler_timeout = "30s"
`)

	config, err := app.ParseConfig(path)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	if config.AppID != 42 || config.Host != "git.example.com" || config.Trigger != "/new-repo" {
		t.Errorf("unexpected config %+v", config)
	}
	if config.MaxWorker != 2 || config.WriteDelay.Duration != 0 || config.HandlerTimeout.Duration != 30*time.Second {
		t.Errorf("unexpected tuning config %+v", config)
	}
}

func TestParseConfigEnv(t *testing.T) {
	path := writeConfig(t, `
webhook_secret = "from-file"
`)
	t.Setenv("REPO_MAKER_WEBHOOK_SECRET", "from-env")
	t.Setenv("REPO_MAKER_GITHUB_TOKEN", "ghp_env")

	config, err := app.ParseConfig(path)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if config.WebhookSecret != "from-env" || config.GithubToken != "ghp_env" {
		t.Errorf("env not applied %+v", config)
	}
}

func TestParseConfigInvalid(t *testing.T) {
	for name, content := range map[string]string{
		"missing secret":  `github_token = "t"`,
		"missing auth":    `webhook_secret = "s"`,
		"app without key": "webhook_secret = \"s\"\napp_id = 1",
		"zero workers":    "webhook_secret = \"s\"\ngithub_token = \"t\"\nmax_worker = 0",
		"bad trigger":     "webhook_secret = \"s\"\ngithub_token = \"t\"\ntrigger = \"/create repo\"",
		"bad path":        "webhook_secret = \"s\"\ngithub_token = \"t\"\nwebhook_path = \"hooks\"",
		"bad duration":    "webhook_secret = \"s\"\ngithub_token = \"t\"\nwrite_delay = \"soon\"",
		"not toml":        "webhook_secret = ",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := app.ParseConfig(writeConfig(t, content)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseDatabasePath(t *testing.T) {
	// server settings are not required to find the database
	path := writeConfig(t, `database_path = "/var/lib/repo-maker/runs.db"`)

	dbPath, err := app.ParseDatabasePath(path)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if dbPath != "/var/lib/repo-maker/runs.db" {
		t.Errorf("database_path = %q", dbPath)
	}

	dbPath, err = app.ParseDatabasePath(writeConfig(t, `listen = ":8080"`))
	if err != nil || dbPath != "repo-maker.db" {
		t.Errorf("got %q, %v, want default path", dbPath, err)
	}
}
