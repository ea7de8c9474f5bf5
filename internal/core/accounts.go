package core

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/akowalczyk/voxtask/pkg/models"
)

// accountsFile is the top-level structure of the accounts YAML file.
type accountsFile struct {
	Accounts []accountEntry `yaml:"accounts"`
}

// accountEntry is one raw account record. A plaintext password may be given
// instead of a bcrypt hash; it is hashed at load time.
type accountEntry struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	PasswordHash string `yaml:"password_hash"`

	Settings accountSettingsEntry `yaml:"settings"`
}

type accountSettingsEntry struct {
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	OpenAITextModel string `yaml:"openai_text_model"`
	TodoPrompt      string `yaml:"todo_prompt"`
	WhisperLanguage string `yaml:"whisper_language"`

	TodoistAPIToken  string            `yaml:"todoist_api_token"`
	TodoistProjectID string            `yaml:"todoist_project_id"`
	ProjectTypes     models.StringList `yaml:"project_types"`

	SubtaskDeadlineMethod string `yaml:"subtask_deadline_method"`
}

// LoadAccounts reads per-account configuration from a YAML file and returns
// a map of usernames to settings. Plaintext passwords are hashed with bcrypt
// at load time. Duplicate usernames and empty account lists are errors.
func LoadAccounts(path string) (map[string]*models.AccountSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading accounts file: %w", err)
	}

	var file accountsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing accounts file: %w", err)
	}

	if len(file.Accounts) == 0 {
		return nil, fmt.Errorf("accounts file %s does not define any accounts", path)
	}

	accounts := make(map[string]*models.AccountSettings, len(file.Accounts))
	for _, entry := range file.Accounts {
		settings, err := parseAccountEntry(entry)
		if err != nil {
			return nil, err
		}
		if _, exists := accounts[settings.Username]; exists {
			return nil, fmt.Errorf("duplicate account username: %s", settings.Username)
		}
		accounts[settings.Username] = settings
	}

	return accounts, nil
}

// parseAccountEntry validates and normalizes one raw account record.
func parseAccountEntry(entry accountEntry) (*models.AccountSettings, error) {
	username := strings.TrimSpace(entry.Username)
	if username == "" {
		return nil, fmt.Errorf("account entry is missing username")
	}

	passwordHash, err := resolvePasswordHash(username, entry)
	if err != nil {
		return nil, err
	}

	deadline, err := normalizeSubtaskDeadline(entry.Settings.SubtaskDeadlineMethod)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", username, err)
	}

	model := strings.TrimSpace(entry.Settings.OpenAITextModel)
	if model == "" {
		model = "gpt-4o-mini"
	}
	prompt := entry.Settings.TodoPrompt
	if strings.TrimSpace(prompt) == "" {
		prompt = models.DefaultTodoPrompt
	}

	return &models.AccountSettings{
		Username:         username,
		PasswordHash:     passwordHash,
		OpenAIAPIKey:     strings.TrimSpace(entry.Settings.OpenAIAPIKey),
		OpenAITextModel:  model,
		TodoPrompt:       prompt,
		WhisperLanguage:  strings.TrimSpace(entry.Settings.WhisperLanguage),
		TodoistAPIToken:  strings.TrimSpace(entry.Settings.TodoistAPIToken),
		TodoistProjectID: strings.TrimSpace(entry.Settings.TodoistProjectID),
		ProjectTypes:     trimStrings(entry.Settings.ProjectTypes),
		SubtaskDeadline:  deadline,
	}, nil
}

// resolvePasswordHash prefers an explicit bcrypt hash and hashes a plaintext
// password at runtime when that is all the configuration provides.
func resolvePasswordHash(username string, entry accountEntry) (string, error) {
	if hash := strings.TrimSpace(entry.PasswordHash); hash != "" {
		return hash, nil
	}

	if plain := entry.Password; plain != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
		if err != nil {
			return "", fmt.Errorf("hashing password for account %s: %w", username, err)
		}
		return string(hashed), nil
	}

	return "", fmt.Errorf("account %s must include password or password_hash", username)
}

// CheckPassword reports whether the given plaintext password matches the
// account's bcrypt hash.
func CheckPassword(account *models.AccountSettings, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) == nil
}

func normalizeSubtaskDeadline(raw string) (models.SubtaskDeadlineMethod, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch models.SubtaskDeadlineMethod(value) {
	case "":
		return models.SubtaskSameDate, nil
	case models.SubtaskSameDate, models.SubtaskNoDate:
		return models.SubtaskDeadlineMethod(value), nil
	default:
		return "", fmt.Errorf("subtask_deadline_method must be one of: no_date, same_date")
	}
}

func trimStrings(in []string) []string {
	var out []string
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
