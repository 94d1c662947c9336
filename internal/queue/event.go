// Package queue defines message payloads exchanged over the message broker.
package queue

// TaskCompletedEvent is published the first time a task transitions to the
// completed status. It carries enough context for downstream consumers to
// notify or aggregate without querying the primary database.
type TaskCompletedEvent struct {
	TaskID      uint64   `json:"task_id"`
	UserID      uint64   `json:"user_id"`
	Title       string   `json:"title"`
	Priority    string   `json:"priority"`
	Tags        []string `json:"tags"`
	CompletedAt string   `json:"completed_at"`
}
