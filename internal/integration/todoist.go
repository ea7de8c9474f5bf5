package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/akowalczyk/voxtask/pkg/models"
)

const (
	defaultTodoistTasksURL    = "https://api.todoist.com/rest/v2/tasks"
	defaultTodoistProjectsURL = "https://api.todoist.com/api/v1/projects"

	defaultRequestTimeout = 10 * time.Second
)

// APIError is a non-success response from the Todoist API. The status code is
// preserved so callers can relay it instead of collapsing everything into a
// generic upstream failure.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	detail := strings.TrimSpace(e.Detail)
	if detail == "" {
		return fmt.Sprintf("todoist api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("todoist api returned status %d: %s", e.StatusCode, detail)
}

// TaskRequest is the wire form of one task creation call.
type TaskRequest struct {
	Content   string   `json:"content"`
	ProjectID string   `json:"project_id,omitempty"`
	Priority  any      `json:"priority,omitempty"`
	DueDate   string   `json:"due_date,omitempty"`
	Labels    []string `json:"labels,omitempty"`
	ParentID  string   `json:"parent_id,omitempty"`
}

// TodoistClient talks to the Todoist REST API on behalf of one account.
type TodoistClient struct {
	token       string
	tasksURL    string
	projectsURL string
	client      *http.Client
}

// TodoistOption customizes a TodoistClient.
type TodoistOption func(*TodoistClient)

// WithTodoistTasksURL overrides the task creation endpoint. Empty values are
// ignored so configuration defaults can pass through unchanged.
func WithTodoistTasksURL(u string) TodoistOption {
	return func(c *TodoistClient) {
		if u != "" {
			c.tasksURL = u
		}
	}
}

// WithTodoistProjectsURL overrides the project listing endpoint.
func WithTodoistProjectsURL(u string) TodoistOption {
	return func(c *TodoistClient) {
		if u != "" {
			c.projectsURL = u
		}
	}
}

// WithTodoistHTTPClient substitutes the underlying HTTP client.
func WithTodoistHTTPClient(client *http.Client) TodoistOption {
	return func(c *TodoistClient) {
		if client != nil {
			c.client = client
		}
	}
}

// NewTodoistClient creates a client authenticated with the given API token.
func NewTodoistClient(token string, opts ...TodoistOption) *TodoistClient {
	c := &TodoistClient{
		token:       token,
		tasksURL:    defaultTodoistTasksURL,
		projectsURL: defaultTodoistProjectsURL,
		client:      &http.Client{Timeout: defaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateTask creates one task and returns the API response verbatim, so
// fields Todoist adds over time survive without a client update.
func (c *TodoistClient) CreateTask(ctx context.Context, req TaskRequest) (models.TaskRecord, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling task request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tasksURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building task request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("posting task to todoist: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading todoist response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: string(payload)}
	}

	var record models.TaskRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("decoding todoist task response: %w", err)
	}
	return record, nil
}

// projectsPage matches the paginated shape of the unified projects endpoint.
// The older REST endpoint returns a bare array instead; ListProjects accepts
// both.
type projectsPage struct {
	Results    []models.Project `json:"results"`
	NextCursor string           `json:"next_cursor"`
}

// ListProjects fetches every project visible to the account, following
// pagination cursors until the API reports no more pages.
func (c *TodoistClient) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	cursor := ""

	for {
		pageURL := c.projectsURL
		if cursor != "" {
			sep := "?"
			if strings.Contains(pageURL, "?") {
				sep = "&"
			}
			pageURL += sep + "cursor=" + url.QueryEscape(cursor)
		}

		page, next, err := c.fetchProjectsPage(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		projects = append(projects, page...)

		if next == "" {
			return projects, nil
		}
		cursor = next
	}
}

func (c *TodoistClient) fetchProjectsPage(ctx context.Context, pageURL string) ([]models.Project, string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("building projects request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, "", fmt.Errorf("fetching todoist projects: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading todoist response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, "", &APIError{StatusCode: resp.StatusCode, Detail: string(payload)}
	}

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var projects []models.Project
		if err := json.Unmarshal(trimmed, &projects); err != nil {
			return nil, "", fmt.Errorf("decoding todoist projects: %w", err)
		}
		return projects, "", nil
	}

	var page projectsPage
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, "", fmt.Errorf("decoding todoist projects: %w", err)
	}
	return page.Results, page.NextCursor, nil
}
