// Package mcp provides an MCP (Model Context Protocol) server that lets AI
// assistants preview and capture voxtask submissions as MCP tools.
package mcp

import (
	"context"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/akowalczyk/voxtask/internal/core"
	"github.com/akowalczyk/voxtask/pkg/models"
)

// ProjectLister lists the Todoist projects visible to the bound account.
type ProjectLister interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
}

// Server exposes the capture workflow over MCP. It is bound to a single
// account; multi-account use goes through the HTTP server instead.
type Server struct {
	server      *gomcp.Server
	coordinator *core.Coordinator
	projects    ProjectLister
	account     *models.AccountSettings
}

// NewServer creates an MCP server bound to the given account. projects may
// be nil, in which case the list_projects tool reports an error.
func NewServer(coordinator *core.Coordinator, projects ProjectLister, account *models.AccountSettings, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		coordinator: coordinator,
		projects:    projects,
		account:     account,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "voxtask", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type previewTaskInput struct {
	Content string `json:"content" jsonschema:"required,marker-delimited task text using !!Section!! headers"`
}

type previewTaskOutput struct {
	Project     string   `json:"project,omitempty"`
	TaskSummary string   `json:"task_summary,omitempty"`
	Tasks       []string `json:"tasks,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	DueDate     string   `json:"due_date,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	Sections    []string `json:"sections"`
}

type captureTaskInput struct {
	Content   string `json:"content" jsonschema:"required,marker-delimited task text using !!Section!! headers"`
	ProjectID string `json:"project_id,omitempty" jsonschema:"Todoist project id, overrides the account default"`
}

type captureTaskOutput struct {
	ParentID   string   `json:"parent_id"`
	SubtaskIDs []string `json:"subtask_ids,omitempty"`
	Message    string   `json:"message"`
}

type listProjectsInput struct{}

type projectOutput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type listProjectsOutput struct {
	Projects []projectOutput `json:"projects"`
	Count    int             `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "preview_task",
		Description: "Parse marker-delimited task text and return the structured payload that would be submitted, without creating anything.",
	}, s.handlePreviewTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "capture_task",
		Description: "Submit marker-delimited task text to Todoist as one parent task plus a subtask per list item.",
	}, s.handleCaptureTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_projects",
		Description: "List the Todoist projects visible to the configured account, with their ids.",
	}, s.handleListProjects)
}

// --- Tool handlers ---

func (s *Server) handlePreviewTask(_ context.Context, _ *gomcp.CallToolRequest, input previewTaskInput) (*gomcp.CallToolResult, previewTaskOutput, error) {
	if strings.TrimSpace(input.Content) == "" {
		return errorResult("content is required"), previewTaskOutput{}, nil
	}

	sections := core.ParseSections(input.Content)
	payload := core.BuildPayload(sections)

	out := previewTaskOutput{
		Project:     payload.Project,
		TaskSummary: payload.TaskSummary,
		Tasks:       payload.Tasks,
		DueDate:     payload.DueDate,
		Labels:      payload.Labels,
		Sections:    sections.Keys(),
	}
	if payload.Priority != nil {
		out.Priority = fmt.Sprintf("%v", payload.Priority)
	}
	if out.Sections == nil {
		out.Sections = []string{}
	}

	return nil, out, nil
}

func (s *Server) handleCaptureTask(ctx context.Context, _ *gomcp.CallToolRequest, input captureTaskInput) (*gomcp.CallToolResult, captureTaskOutput, error) {
	if s.coordinator == nil {
		return errorResult("task submission is not configured for this account"), captureTaskOutput{}, nil
	}

	result, err := s.coordinator.Submit(ctx, core.SubmitRequest{
		Content:   input.Content,
		ProjectID: strings.TrimSpace(input.ProjectID),
		Account:   s.account,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("submitting task: %s", err)), captureTaskOutput{}, nil
	}

	out := captureTaskOutput{
		ParentID: result.Parent.ID(),
	}
	for _, subtask := range result.Subtasks {
		out.SubtaskIDs = append(out.SubtaskIDs, subtask.ID())
	}
	out.Message = fmt.Sprintf("created task %s with %d subtasks", out.ParentID, len(out.SubtaskIDs))

	return nil, out, nil
}

func (s *Server) handleListProjects(ctx context.Context, _ *gomcp.CallToolRequest, _ listProjectsInput) (*gomcp.CallToolResult, listProjectsOutput, error) {
	if s.projects == nil {
		return errorResult("project listing is not configured for this account"), listProjectsOutput{}, nil
	}

	projects, err := s.projects.ListProjects(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("listing projects: %s", err)), listProjectsOutput{}, nil
	}

	out := listProjectsOutput{
		Projects: make([]projectOutput, len(projects)),
		Count:    len(projects),
	}
	for i, p := range projects {
		out.Projects[i] = projectOutput{ID: p.ID, Name: p.Name}
	}

	return nil, out, nil
}

// --- Helpers ---

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
