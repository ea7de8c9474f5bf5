package observability

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Event is one submission lifecycle record, such as a login, a transcription,
// or a created task.
type Event struct {
	Time time.Time      `json:"time"`
	Type string         `json:"type"` // e.g. "task.submitted", "audio.transcribed"
	Data map[string]any `json:"data,omitempty"`
}

// EventFilter specifies criteria for reading events back.
type EventFilter struct {
	Since *time.Time
	Type  string
}

// EventLog is an append-only JSONL record of what the service did. It is the
// audit trail for task submissions, not a metrics system.
type EventLog struct {
	path string
	file *os.File
	mu   sync.Mutex

	// now is swappable for tests.
	now func() time.Time
}

// NewEventLog opens (or creates) the JSONL event log at the given path.
func NewEventLog(path string) (*EventLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &EventLog{
		path: path,
		file: f,
		now:  time.Now,
	}, nil
}

// LogEvent appends one timestamped event. It is safe for concurrent use.
func (l *EventLog) LogEvent(eventType string, data map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	line, err := json.Marshal(Event{
		Time: l.now().UTC(),
		Type: eventType,
		Data: data,
	})
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	line = append(line, '\n')

	if _, err := l.file.Write(line); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// Read scans the log file and returns the events matching the filter.
// Malformed lines are skipped so one bad write cannot poison the whole log.
func (l *EventLog) Read(filter EventFilter) ([]Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening event log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}

		if filter.Since != nil && event.Time.Before(*filter.Since) {
			continue
		}
		if filter.Type != "" && event.Type != filter.Type {
			continue
		}
		events = append(events, event)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning event log: %w", err)
	}
	return events, nil
}

// Close closes the underlying log file.
func (l *EventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}
