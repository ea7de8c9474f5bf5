package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/akowalczyk/voxtask/pkg/models"
)

// Sentinel project names the model is instructed to use instead of guessing.
const (
	ProjectSentinelNew     = "NEWPROJECT"
	ProjectSentinelUnknown = "UNKNOWNPROJECT"
)

// suggestionSchema is the contract the model's JSON answer must satisfy
// before it is shown to the user for review.
var suggestionSchema = jsonschema.MustCompileString("suggestion.schema.json", `{
	"type": "object",
	"required": ["project", "task_summary", "tasks", "priority"],
	"properties": {
		"project": {"type": "string", "minLength": 1},
		"task_summary": {"type": "string", "minLength": 1},
		"tasks": {"type": "array", "items": {"type": "string"}},
		"priority": {"type": "integer", "minimum": 1, "maximum": 4},
		"due_date": {"type": "string"},
		"labels": {"type": "array", "items": {"type": "string"}}
	}
}`)

// SuggestionRequest carries one transcript through suggestion generation.
type SuggestionRequest struct {
	Transcript   string
	SystemPrompt string
	Model        string
	// ProjectTypes constrains which projects the model may name.
	ProjectTypes []string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// GenerateSuggestion asks the chat model to turn a transcript into a
// structured task suggestion and validates the answer before returning it.
func (c *OpenAIClient) GenerateSuggestion(ctx context.Context, req SuggestionRequest) (*models.Suggestion, error) {
	transcript := strings.TrimSpace(req.Transcript)
	if transcript == "" {
		return nil, fmt.Errorf("transcript is empty")
	}

	payload, err := json.Marshal(chatRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "system", Content: buildSuggestionPrompt(req.SystemPrompt, req.ProjectTypes)},
			{Role: "user", Content: transcript},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("posting chat request to openai: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai chat returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return nil, fmt.Errorf("decoding chat response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("openai chat returned no choices")
	}

	return parseSuggestion(chat.Choices[0].Message.Content)
}

// buildSuggestionPrompt appends the project selection rules to the account's
// configured prompt. The model must pick from the allowed projects or fall
// back to the sentinels, never invent a casual project name.
func buildSuggestionPrompt(base string, projectTypes []string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(base))
	b.WriteString("\n\nRespond with a single JSON object with the keys ")
	b.WriteString(`"project", "task_summary", "tasks" (array of strings), "priority" (integer 1-4, 4 is most urgent), and optionally "due_date" (YYYY-MM-DD) and "labels" (array of strings).`)

	if len(projectTypes) > 0 {
		b.WriteString("\n\nChoose the project from this list: ")
		b.WriteString(strings.Join(projectTypes, ", "))
		b.WriteString(". If the request clearly calls for a project that is not listed, use ")
		b.WriteString(ProjectSentinelNew)
		b.WriteString(". If you cannot tell which project fits, use ")
		b.WriteString(ProjectSentinelUnknown)
		b.WriteString(".")
	} else {
		b.WriteString("\n\nIf you cannot tell which project fits, use ")
		b.WriteString(ProjectSentinelUnknown)
		b.WriteString(" as the project.")
	}

	return b.String()
}

// parseSuggestion extracts the JSON object from the model answer, validates
// it against the suggestion schema, and decodes it.
func parseSuggestion(answer string) (*models.Suggestion, error) {
	raw := extractJSON(answer)
	if raw == "" {
		return nil, fmt.Errorf("model answer contains no JSON object")
	}

	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, fmt.Errorf("decoding suggestion: %w", err)
	}
	if err := suggestionSchema.Validate(value); err != nil {
		return nil, fmt.Errorf("validating suggestion: %w", err)
	}

	var suggestion models.Suggestion
	if err := json.Unmarshal([]byte(raw), &suggestion); err != nil {
		return nil, fmt.Errorf("decoding suggestion: %w", err)
	}
	return &suggestion, nil
}

// extractJSON pulls a JSON object out of a model answer that may wrap it in
// a markdown code fence or surrounding prose.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		start := strings.Index(s, "{")
		end := strings.LastIndex(s, "}")
		if start >= 0 && end > start {
			return s[start : end+1]
		}
		return ""
	}

	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		return s
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return ""
}
