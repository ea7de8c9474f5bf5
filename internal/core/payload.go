package core

import (
	"strconv"
	"strings"

	"github.com/akowalczyk/voxtask/pkg/models"
)

// Section names produced by the formatter and consumed by the builder.
const (
	SectionProject     = "Project"
	SectionTaskSummary = "Task Summary"
	SectionTasks       = "Tasks"
	SectionTask        = "Task" // singular alias accepted on lookup
	SectionPriority    = "Priority"
	SectionDueDate     = "Due Date"
	SectionLabels      = "Labels"
)

// BuildPayload normalizes parsed sections into a typed payload. Fields whose
// section is missing or empty after trimming are left unset and omitted from
// the JSON encoding. BuildPayload never fails: a malformed priority degrades
// to its raw string and malformed label text degrades to a comma split.
func BuildPayload(sections *SectionMap) models.Payload {
	var p models.Payload

	p.Project = trimmedSection(sections, SectionProject)
	p.TaskSummary = trimmedSection(sections, SectionTaskSummary)

	if block := taskSection(sections); block != "" {
		p.Tasks = splitTaskLines(block)
	}

	if raw := trimmedSection(sections, SectionPriority); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			p.Priority = n
		} else {
			p.Priority = raw
		}
	}

	p.DueDate = trimmedSection(sections, SectionDueDate)

	if raw := trimmedSection(sections, SectionLabels); raw != "" {
		if labels := parseLabels(raw); len(labels) > 0 {
			p.Labels = labels
		}
	}

	return p
}

// taskSection returns the raw Tasks section, falling back to the singular
// Task key used by single-item producers.
func taskSection(sections *SectionMap) string {
	if block, ok := sections.Get(SectionTasks); ok && block != "" {
		return block
	}
	block, _ := sections.Get(SectionTask)
	return block
}

func trimmedSection(sections *SectionMap, key string) string {
	v, _ := sections.Get(key)
	return strings.TrimSpace(v)
}

// splitTaskLines extracts one task per non-empty line, stripping a single
// leading "-" list marker and surrounding whitespace.
func splitTaskLines(block string) []string {
	var tasks []string
	for _, line := range strings.Split(block, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if strings.HasPrefix(stripped, "-") {
			stripped = strings.TrimSpace(stripped[1:])
		}
		tasks = append(tasks, stripped)
	}
	return tasks
}

// parseLabels interprets raw label text. A list literal such as
// ['work', 'urgent'] yields its elements; a quoted or numeric scalar is
// wrapped as a single label; anything else is split on commas with empty
// pieces dropped.
func parseLabels(raw string) []string {
	if items, ok := parseListLiteral(raw); ok {
		return items
	}
	if s, ok := parseScalarLiteral(raw); ok {
		return []string{s}
	}
	var labels []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			labels = append(labels, p)
		}
	}
	return labels
}

// parseListLiteral parses a bracketed list literal whose elements are quoted
// strings or scalar literals. Bare words inside the brackets fail the whole
// parse so the comma fallback handles free-form text instead.
func parseListLiteral(raw string) ([]string, bool) {
	if len(raw) < 2 || raw[0] != '[' || raw[len(raw)-1] != ']' {
		return nil, false
	}
	inner := raw[1 : len(raw)-1]

	items := []string{}
	i := 0
	for {
		i = skipSpaces(inner, i)
		if i >= len(inner) {
			break
		}

		if inner[i] == '\'' || inner[i] == '"' {
			s, next, ok := scanQuoted(inner, i)
			if !ok {
				return nil, false
			}
			items = append(items, s)
			i = next
		} else {
			end := i
			for end < len(inner) && inner[end] != ',' {
				end++
			}
			tok := strings.TrimSpace(inner[i:end])
			if !isScalarToken(tok) {
				return nil, false
			}
			items = append(items, tok)
			i = end
		}

		i = skipSpaces(inner, i)
		if i >= len(inner) {
			break
		}
		if inner[i] != ',' {
			return nil, false
		}
		i++
	}

	return items, true
}

// parseScalarLiteral accepts a single quoted string or numeric literal.
func parseScalarLiteral(raw string) (string, bool) {
	if len(raw) >= 2 && (raw[0] == '\'' || raw[0] == '"') {
		s, next, ok := scanQuoted(raw, 0)
		if ok && skipSpaces(raw, next) == len(raw) {
			return s, true
		}
		return "", false
	}
	if isNumericToken(raw) {
		return raw, true
	}
	return "", false
}

// scanQuoted scans a quoted string starting at raw[start], handling
// backslash escapes, and returns the unquoted value and the index after
// the closing quote.
func scanQuoted(raw string, start int) (string, int, bool) {
	quote := raw[start]
	var b strings.Builder
	i := start + 1
	for i < len(raw) {
		c := raw[i]
		switch {
		case c == '\\' && i+1 < len(raw):
			b.WriteByte(raw[i+1])
			i += 2
		case c == quote:
			return b.String(), i + 1, true
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, false
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n') {
		i++
	}
	return i
}

func isScalarToken(tok string) bool {
	switch tok {
	case "True", "False", "None", "true", "false", "null":
		return true
	}
	return isNumericToken(tok)
}

func isNumericToken(tok string) bool {
	if tok == "" {
		return false
	}
	_, err := strconv.ParseFloat(tok, 64)
	return err == nil
}
