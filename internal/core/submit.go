package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/akowalczyk/voxtask/pkg/models"
)

// AccountContext is the read-only view of the submitting account that the
// coordinator needs. Defining it here keeps core independent of how account
// configuration is loaded.
type AccountContext interface {
	DefaultProjectID() string
	SubtaskDeadlineMode() models.SubtaskDeadlineMethod
}

// TaskRequest describes one task to create in the tracking backend.
type TaskRequest struct {
	Content   string
	ProjectID string
	// Priority is an int for well-formed input and a raw string when the
	// lenient builder fell back; the backend rejects malformed values.
	Priority any
	DueDate  string
	Labels   []string
	ParentID string
}

// TaskCreator is the narrow capability the coordinator needs from the task
// tracking backend. Tests substitute a recording fake; production wires the
// Todoist client through an adapter.
type TaskCreator interface {
	CreateTask(ctx context.Context, req TaskRequest) (models.TaskRecord, error)
}

// EventLogger records submission events. It may be nil when observability
// is disabled.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// SubmitRequest carries one submission through the coordinator.
type SubmitRequest struct {
	// Content is the marker-delimited text, possibly hand-edited.
	Content string
	// Structured, when non-zero, wins over re-deriving the payload from
	// Content. A caller that already validated its own structured object
	// uses this to keep hand-edited text from being silently re-parsed.
	Structured models.Payload
	// ProjectID overrides the account's configured default project.
	ProjectID string
	Account   AccountContext
}

// SubmissionResult is the outcome of one submission: the parent task record
// as returned by the backend, the subtask records created after it, and the
// intermediate representations used.
type SubmissionResult struct {
	Parent   models.TaskRecord   `json:"todoist_response"`
	Subtasks []models.TaskRecord `json:"subtasks,omitempty"`
	Sections *SectionMap         `json:"parsed_content"`
	Payload  models.Payload      `json:"structured_payload"`
}

// Coordinator orchestrates creation of one parent task plus its subtasks.
type Coordinator struct {
	creator TaskCreator
	events  EventLogger
}

// NewCoordinator creates a Coordinator. events may be nil.
func NewCoordinator(creator TaskCreator, events EventLogger) *Coordinator {
	return &Coordinator{creator: creator, events: events}
}

// Submit parses the content, resolves the structured payload and project id,
// and creates one parent task followed by its subtasks in source order.
//
// The parent is created first; if that call fails no subtask call is
// attempted. A subtask failure after a successful parent creation aborts the
// remaining subtasks and surfaces to the caller with the parent left in
// place, since created tasks are meant to be durable. Callers needing
// partial-success reporting or atomicity must wrap Submit themselves.
func (c *Coordinator) Submit(ctx context.Context, req SubmitRequest) (*SubmissionResult, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, validationErrorf("task content must not be empty")
	}

	sections := ParseSections(req.Content)

	payload := req.Structured
	if payload.IsZero() {
		payload = BuildPayload(sections)
	}
	if req.ProjectID != "" {
		payload.ProjectID = req.ProjectID
	}

	projectID := req.ProjectID
	if projectID == "" && req.Account != nil {
		projectID = strings.TrimSpace(req.Account.DefaultProjectID())
	}
	if projectID == "" {
		return nil, validationErrorf("no Todoist project selected and the account has no default project")
	}

	summary := strings.TrimSpace(payload.TaskSummary)
	if summary == "" {
		return nil, validationErrorf("task summary is missing")
	}

	// The raw text is the source of truth for subtask counts, not the
	// already-split payload list.
	items := splitTaskItems(taskSection(sections))

	parentContent := summary
	if len(items) == 1 {
		// A lone item folds into the parent description instead of
		// producing a redundant single-child pair.
		parentContent = fmt.Sprintf("%s (%s)", summary, items[0])
	}

	parent, err := c.creator.CreateTask(ctx, TaskRequest{
		Content:   parentContent,
		ProjectID: projectID,
		Priority:  payload.Priority,
		DueDate:   payload.DueDate,
		Labels:    payload.Labels,
	})
	if err != nil {
		return nil, fmt.Errorf("creating parent task: %w", err)
	}

	result := &SubmissionResult{
		Parent:   parent,
		Sections: sections,
		Payload:  payload,
	}

	if len(items) >= 2 {
		subtaskDueDate := payload.DueDate
		if req.Account != nil && req.Account.SubtaskDeadlineMode() == models.SubtaskNoDate {
			subtaskDueDate = ""
		}

		for _, item := range items {
			subtask, err := c.creator.CreateTask(ctx, TaskRequest{
				Content:   item,
				ProjectID: projectID,
				Priority:  payload.Priority,
				DueDate:   subtaskDueDate,
				Labels:    payload.Labels,
				ParentID:  parent.ID(),
			})
			if err != nil {
				return nil, fmt.Errorf("creating subtask %q: %w", item, err)
			}
			result.Subtasks = append(result.Subtasks, subtask)
		}
	}

	if c.events != nil {
		_ = c.events.LogEvent("task.submitted", map[string]any{
			"project_id": projectID,
			"parent_id":  parent.ID(),
			"subtasks":   len(result.Subtasks),
		})
	}

	return result, nil
}

// splitTaskItems extracts subtask texts from the raw Tasks section by
// splitting on the "- " item marker and discarding blank entries.
func splitTaskItems(block string) []string {
	if block == "" {
		return nil
	}
	var items []string
	for _, piece := range strings.Split(block, "- ") {
		if p := strings.TrimSpace(piece); p != "" {
			items = append(items, p)
		}
	}
	return items
}
