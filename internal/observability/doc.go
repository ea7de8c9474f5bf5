// Package observability provides the append-only event log for voxtask.
// Events are persisted as structured JSON Lines (JSONL) and read back
// on-demand for auditing submissions.
package observability
