package core

import (
	"fmt"
	"strings"

	"github.com/akowalczyk/voxtask/pkg/models"
)

// emptyTasksPlaceholder keeps the Tasks section non-empty when a suggestion
// has no items, so re-parsing an unedited block yields a concrete section
// rather than an absent one.
const emptyTasksPlaceholder = "(no items)"

// FormatSuggestion renders a suggestion into the marker-delimited text block
// shown to the user for editing. It is the designed inverse of ParseSections
// followed by BuildPayload: for a suggestion whose fields contain no "!!"
// and whose labels survive the list-literal convention, building the payload
// from the formatted text reconstructs the suggestion's fields.
func FormatSuggestion(s models.Suggestion) string {
	lines := []string{
		"!!Project!!: " + s.Project,
		"!!Task Summary!!: " + s.TaskSummary,
		"!!Tasks!!:",
	}

	if len(s.Tasks) > 0 {
		for _, item := range s.Tasks {
			lines = append(lines, "- "+item)
		}
	} else {
		lines = append(lines, "- "+emptyTasksPlaceholder)
	}

	lines = append(lines, fmt.Sprintf("!!Priority!!: %d", s.Priority))

	if s.DueDate != "" {
		lines = append(lines, "!!Due Date!!: "+s.DueDate)
	}
	if len(s.Labels) > 0 {
		lines = append(lines, "!!Labels!!: "+formatLabelList(s.Labels))
	}

	return strings.Join(lines, "\n")
}

// formatLabelList renders labels in the list-literal convention the label
// parser understands, e.g. ['work', 'urgent'].
func formatLabelList(labels []string) string {
	quoted := make([]string, len(labels))
	for i, label := range labels {
		escaped := strings.ReplaceAll(label, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `'`, `\'`)
		quoted[i] = "'" + escaped + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
