// Package core contains the business logic of voxtask: the section-marker
// text format, the structured payload builder, the suggestion formatter,
// the task submission coordinator, and account/language configuration.
package core

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"unicode"
)

// sectionHeaderPattern matches a section header line of the form
// !!Key!! or !!Key!!: inline value. The key must be non-empty and must not
// contain '!', so a bare "!!!!" line is body content, not a header.
var sectionHeaderPattern = regexp.MustCompile(`^!!([^!]+)!!(?::\s*(.*))?$`)

// SectionMap is an ordered mapping of section names to their raw text.
// Later occurrences of a duplicate key overwrite earlier ones while keeping
// the key's original position. Order carries no meaning downstream but is
// preserved so logs and API responses stay readable.
type SectionMap struct {
	keys   []string
	values map[string]string
}

// NewSectionMap returns an empty SectionMap.
func NewSectionMap() *SectionMap {
	return &SectionMap{values: make(map[string]string)}
}

// Set stores value under key, overwriting any previous value.
func (m *SectionMap) Set(key, value string) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key and whether the key is present.
func (m *SectionMap) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of sections.
func (m *SectionMap) Len() int {
	return len(m.keys)
}

// Keys returns the section names in discovery order.
func (m *SectionMap) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// MarshalJSON encodes the map as a JSON object with keys in discovery order.
func (m *SectionMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ParseSections tokenizes a marker-delimited text block into sections.
//
// The input is processed line by line. A line whose trimmed form matches
// !!Key!! (optionally followed by ": inline value") opens a new section and
// flushes the previous one. Any other line is body content of the currently
// open section; text before the first header is discarded. Body lines keep
// their left indentation but lose trailing whitespace, and each section's
// joined value is trimmed as a whole.
//
// ParseSections is total: it never fails, and malformed input degrades to
// fewer or emptier sections rather than an error.
func ParseSections(content string) *SectionMap {
	result := NewSectionMap()
	if content == "" {
		return result
	}

	var (
		currentKey string
		haveKey    bool
		buffer     []string
	)

	flush := func() {
		if haveKey {
			result.Set(currentKey, strings.TrimSpace(strings.Join(buffer, "\n")))
		}
		buffer = nil
	}

	for _, rawLine := range splitLines(content) {
		if m := sectionHeaderPattern.FindStringSubmatch(strings.TrimSpace(rawLine)); m != nil {
			flush()
			currentKey = strings.TrimSpace(m[1])
			haveKey = true
			if m[2] != "" {
				buffer = []string{m[2]}
			}
			continue
		}
		if haveKey {
			buffer = append(buffer, strings.TrimRightFunc(rawLine, unicode.IsSpace))
		}
	}

	flush()
	return result
}

// splitLines splits on universal newlines. A single trailing newline does
// not produce an extra empty line.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
