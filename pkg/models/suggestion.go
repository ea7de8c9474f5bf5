// Package models defines the shared data types of the voxtask system:
// AI-generated suggestions, structured submission payloads, backend task
// records, and per-account settings.
package models

// Suggestion is the structured to-do suggestion produced by the language
// model from a transcript. It is created once per transcription request and
// never mutated afterwards; every later representation (formatted text,
// parsed sections, structured payload) is derived from it.
type Suggestion struct {
	// Project is a project label, optionally carrying the NEWPROJECT or
	// UNKNOWNPROJECT sentinel prefix when the model could not match an
	// existing project.
	Project string `json:"project"`
	// TaskSummary is a one-line description of the overall task.
	TaskSummary string `json:"task_summary"`
	// Tasks is an ordered list of actionable to-do items.
	Tasks []string `json:"tasks"`
	// Priority ranges from 1 (lowest) to 4 (highest).
	Priority int `json:"priority"`
	// DueDate is a YYYY-MM-DD date, or empty when the transcript gives none.
	DueDate string `json:"due_date"`
	// Labels is an optional ordered list of Todoist labels.
	Labels []string `json:"labels"`
}

// Payload is the normalized, field-typed representation derived from parsed
// sections, ready for backend submission. Absent fields are omitted from the
// JSON encoding entirely; downstream code treats a missing key as "no
// opinion", which is distinct from an explicit empty value.
type Payload struct {
	Project     string   `json:"project,omitempty"`
	TaskSummary string   `json:"task_summary,omitempty"`
	Tasks       []string `json:"tasks,omitempty"`
	// Priority holds an int when the raw text parsed cleanly and the
	// original raw string otherwise. The backend is responsible for
	// rejecting malformed values; the builder never does.
	Priority any    `json:"priority,omitempty"`
	DueDate  string `json:"due_date,omitempty"`
	Labels   []string `json:"labels,omitempty"`
	// ProjectID is injected by the caller, never parsed from text.
	ProjectID string `json:"project_id,omitempty"`
}

// IsZero reports whether no field of the payload is set.
func (p Payload) IsZero() bool {
	return p.Project == "" &&
		p.TaskSummary == "" &&
		len(p.Tasks) == 0 &&
		p.Priority == nil &&
		p.DueDate == "" &&
		len(p.Labels) == 0 &&
		p.ProjectID == ""
}

// TaskRecord is a task object as returned by the Todoist API. The backend
// owns its shape; voxtask only relies on the "id" field when linking
// subtasks to their parent.
type TaskRecord map[string]any

// ID returns the backend-assigned task identifier, or "" when absent.
func (r TaskRecord) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Project is a Todoist project as returned by the projects endpoint.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
