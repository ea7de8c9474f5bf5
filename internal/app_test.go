package internal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/akowalczyk/voxtask/internal/cli"
	"github.com/akowalczyk/voxtask/internal/core"
)

func writeWorkspace(t *testing.T, config, accounts string) string {
	t.Helper()
	dir := t.TempDir()
	if config != "" {
		if err := os.WriteFile(filepath.Join(dir, ".voxtaskconfig"), []byte(config), 0o600); err != nil {
			t.Fatalf("writing config: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "accounts.yaml"), []byte(accounts), 0o600); err != nil {
		t.Fatalf("writing accounts: %v", err)
	}
	return dir
}

const testAccounts = `accounts:
  - username: anna
    password: hunter2
    settings:
      todoist_api_token: td-test
      todoist_project_id: "2203"
`

func TestNewApp(t *testing.T) {
	dir := writeWorkspace(t, "default_account: anna\n", testAccounts)

	app, err := NewApp(dir)
	if err != nil {
		t.Fatalf("NewApp() error: %v", err)
	}
	defer app.Close()

	if app.Config.DefaultAccount != "anna" {
		t.Errorf("default account = %q", app.Config.DefaultAccount)
	}
	if _, ok := app.Accounts["anna"]; !ok {
		t.Error("account anna not loaded")
	}
	if app.EventLog == nil {
		t.Error("event log not opened")
	}

	// CLI wiring happens as a side effect of NewApp.
	if cli.Config == nil || cli.NewClients == nil {
		t.Error("CLI package variables not wired")
	}

	clients := cli.NewClients(app.Accounts["anna"])
	if clients.Creator == nil || clients.Projects == nil || clients.Transcriber == nil || clients.Suggester == nil {
		t.Error("client factory returned incomplete clients")
	}

	if _, err := os.Stat(filepath.Join(dir, ".voxtask_events.jsonl")); err != nil {
		t.Errorf("event log file not created: %v", err)
	}
}

func TestClientFactoryAppliesRequestTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		fmt.Fprint(w, `{"id": "1"}`)
	}))
	defer slow.Close()

	config := fmt.Sprintf("request_timeout: 50ms\ntodoist:\n  tasks_url: %s\n", slow.URL)
	dir := writeWorkspace(t, config, testAccounts)

	app, err := NewApp(dir)
	if err != nil {
		t.Fatalf("NewApp() error: %v", err)
	}
	defer app.Close()

	if app.Config.RequestTimeout != 50*time.Millisecond {
		t.Fatalf("request timeout = %v, want 50ms", app.Config.RequestTimeout)
	}

	clients := cli.NewClients(app.Accounts["anna"])
	if _, err := clients.Creator.CreateTask(context.Background(), core.TaskRequest{Content: "ping"}); err == nil {
		t.Fatal("expected the configured timeout to cancel the slow request")
	}
}

func TestNewAppMissingAccounts(t *testing.T) {
	dir := t.TempDir()

	if _, err := NewApp(dir); err == nil {
		t.Fatal("expected error when the accounts file is missing")
	}
}

func TestResolveBasePathEnv(t *testing.T) {
	t.Setenv("VOXTASK_HOME", "/srv/voxtask")

	if got := ResolveBasePath(); got != "/srv/voxtask" {
		t.Errorf("ResolveBasePath() = %q", got)
	}
}
