package models

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// StringList unmarshals from either a YAML sequence or a single
// comma-separated scalar, so configuration files may write
// project_types: [errands, work] or project_types: "errands, work".
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		var items []string
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				items = append(items, p)
			}
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("project_types must be a string or a list")
	}
}

// SubtaskDeadlineMethod controls whether subtasks inherit the parent task's
// due date on submission.
type SubtaskDeadlineMethod string

const (
	// SubtaskSameDate gives every subtask the same due date as the parent.
	SubtaskSameDate SubtaskDeadlineMethod = "same_date"
	// SubtaskNoDate creates subtasks without a due date.
	SubtaskNoDate SubtaskDeadlineMethod = "no_date"
)

// DefaultTodoPrompt is the system prompt used for suggestion generation when
// an account does not configure its own.
const DefaultTodoPrompt = `You are an expert productivity assistant. Read the provided transcript
and extract clear, concise, actionable to-do items.`

// AccountSettings is the configuration of a single authenticated account.
type AccountSettings struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`

	OpenAIAPIKey    string `yaml:"openai_api_key"`
	OpenAITextModel string `yaml:"openai_text_model"`
	TodoPrompt      string `yaml:"todo_prompt"`
	WhisperLanguage string `yaml:"whisper_language"`

	TodoistAPIToken  string   `yaml:"todoist_api_token"`
	TodoistProjectID string   `yaml:"todoist_project_id"`
	ProjectTypes     []string `yaml:"project_types"`

	SubtaskDeadline SubtaskDeadlineMethod `yaml:"subtask_deadline_method"`
}

// DefaultProjectID returns the account's configured Todoist project id.
// It satisfies the coordinator's AccountContext interface.
func (a *AccountSettings) DefaultProjectID() string {
	return a.TodoistProjectID
}

// SubtaskDeadlineMode returns the account's subtask due-date behavior,
// defaulting to same_date when unset.
func (a *AccountSettings) SubtaskDeadlineMode() SubtaskDeadlineMethod {
	if a.SubtaskDeadline == "" {
		return SubtaskSameDate
	}
	return a.SubtaskDeadline
}
