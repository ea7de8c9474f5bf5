// Package internal provides the App struct that wires all components of
// voxtask together and initializes the CLI layer.
package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/akowalczyk/voxtask/internal/cli"
	"github.com/akowalczyk/voxtask/internal/core"
	"github.com/akowalczyk/voxtask/internal/integration"
	"github.com/akowalczyk/voxtask/internal/observability"
	"github.com/akowalczyk/voxtask/internal/server"
	"github.com/akowalczyk/voxtask/pkg/models"
)

// App holds all service dependencies for voxtask.
type App struct {
	BasePath string

	Config   *core.AppConfig
	Accounts map[string]*models.AccountSettings
	EventLog *observability.EventLog
}

// NewApp creates and wires all components. basePath is the directory holding
// .voxtaskconfig and the accounts file.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	cfg, err := core.LoadAppConfig(basePath)
	if err != nil {
		return nil, err
	}
	app.Config = cfg

	accountsPath := cfg.AccountsFile
	if !filepath.IsAbs(accountsPath) {
		accountsPath = filepath.Join(basePath, accountsPath)
	}
	app.Accounts, err = core.LoadAccounts(accountsPath)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}

	eventLogPath := cfg.EventLogPath
	if !filepath.IsAbs(eventLogPath) {
		eventLogPath = filepath.Join(basePath, eventLogPath)
	}
	app.EventLog, err = observability.NewEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: run without the audit log if it can't be created.
		app.EventLog = nil
	}

	// --- Wire CLI package-level variables ---
	cli.Config = cfg
	cli.Accounts = app.Accounts
	if app.EventLog != nil {
		cli.Events = app.EventLog
	}
	cli.NewClients = newClientFactory(cfg)

	return app, nil
}

// newClientFactory builds per-account upstream clients, honoring endpoint
// and timeout overrides from the configuration. The request timeout covers
// Todoist calls only; transcription uploads keep the OpenAI client's looser
// default.
func newClientFactory(cfg *core.AppConfig) server.ClientFactory {
	return func(account *models.AccountSettings) server.Clients {
		var todoistOpts []integration.TodoistOption
		todoistOpts = append(todoistOpts,
			integration.WithTodoistTasksURL(cfg.TodoistTasksURL),
			integration.WithTodoistProjectsURL(cfg.TodoistProjectsURL),
		)
		if cfg.RequestTimeout > 0 {
			todoistOpts = append(todoistOpts,
				integration.WithTodoistHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}))
		}
		todoist := integration.NewTodoistClient(account.TodoistAPIToken, todoistOpts...)
		openai := integration.NewOpenAIClient(account.OpenAIAPIKey,
			integration.WithOpenAIBaseURL(cfg.OpenAIBaseURL),
		)
		return server.Clients{
			Creator:     &todoistCreatorAdapter{client: todoist},
			Projects:    todoist,
			Transcriber: openai,
			Suggester:   openai,
		}
	}
}

// Close releases resources held by the App, such as the event log file
// handle. It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the directory holding the voxtask configuration.
// It checks the VOXTASK_HOME env var, then walks up from the current
// directory looking for .voxtaskconfig, and falls back to the cwd.
func ResolveBasePath() string {
	if home := os.Getenv("VOXTASK_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".voxtaskconfig")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

// --- Adapters ---

// todoistCreatorAdapter adapts integration.TodoistClient to core.TaskCreator.
type todoistCreatorAdapter struct {
	client *integration.TodoistClient
}

func (a *todoistCreatorAdapter) CreateTask(ctx context.Context, req core.TaskRequest) (models.TaskRecord, error) {
	return a.client.CreateTask(ctx, integration.TaskRequest{
		Content:   req.Content,
		ProjectID: req.ProjectID,
		Priority:  req.Priority,
		DueDate:   req.DueDate,
		Labels:    req.Labels,
		ParentID:  req.ParentID,
	})
}
