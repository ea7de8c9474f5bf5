package core

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// AppConfig is the process-wide configuration of voxtask. Everything
// account-specific lives in the accounts file instead, so one process can
// serve several isolated accounts.
type AppConfig struct {
	ListenAddr   string
	AccountsFile string
	EventLogPath string

	// DefaultAccount names the account used by the CLI and the MCP server
	// when no --account flag is given.
	DefaultAccount string

	// Endpoint overrides, primarily for tests and self-hosted proxies.
	TodoistTasksURL    string
	TodoistProjectsURL string
	OpenAIBaseURL      string

	RequestTimeout time.Duration
	SessionTTL     time.Duration
}

// defaultAppConfig returns an AppConfig populated with sensible defaults.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		ListenAddr:     ":5000",
		AccountsFile:   "accounts.yaml",
		EventLogPath:   ".voxtask_events.jsonl",
		RequestTimeout: 10 * time.Second,
		SessionTTL:     12 * time.Hour,
	}
}

// LoadAppConfig reads the .voxtaskconfig file from basePath using Viper.
// A missing file yields the defaults; a malformed file is an error.
func LoadAppConfig(basePath string) (*AppConfig, error) {
	cfg := defaultAppConfig()

	v := viper.New()
	v.SetConfigName(".voxtaskconfig")
	v.SetConfigType("yaml")
	v.AddConfigPath(basePath)

	v.SetDefault("server.listen_addr", cfg.ListenAddr)
	v.SetDefault("accounts_file", cfg.AccountsFile)
	v.SetDefault("event_log", cfg.EventLogPath)
	v.SetDefault("default_account", cfg.DefaultAccount)
	v.SetDefault("todoist.tasks_url", cfg.TodoistTasksURL)
	v.SetDefault("todoist.projects_url", cfg.TodoistProjectsURL)
	v.SetDefault("openai.base_url", cfg.OpenAIBaseURL)
	v.SetDefault("request_timeout", cfg.RequestTimeout.String())
	v.SetDefault("session_ttl", cfg.SessionTTL.String())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .voxtaskconfig: %w", err)
	}

	cfg.ListenAddr = v.GetString("server.listen_addr")
	cfg.AccountsFile = v.GetString("accounts_file")
	cfg.EventLogPath = v.GetString("event_log")
	cfg.DefaultAccount = v.GetString("default_account")
	cfg.TodoistTasksURL = v.GetString("todoist.tasks_url")
	cfg.TodoistProjectsURL = v.GetString("todoist.projects_url")
	cfg.OpenAIBaseURL = v.GetString("openai.base_url")

	if timeout, err := time.ParseDuration(v.GetString("request_timeout")); err == nil && timeout > 0 {
		cfg.RequestTimeout = timeout
	}
	if ttl, err := time.ParseDuration(v.GetString("session_ttl")); err == nil && ttl > 0 {
		cfg.SessionTTL = ttl
	}

	return cfg, nil
}
