package model

import "time"

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

// ValidStatus reports whether s is a known task status.
func ValidStatus(s TaskStatus) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// TaskPriority orders tasks by urgency.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// ValidPriority reports whether p is a known task priority.
func ValidPriority(p TaskPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task mirrors the `tasks` table. Tags are stored as a JSON array in the
// tags column. CompletedAt is set the first time Status transitions to
// StatusCompleted and is never cleared by later edits, so it records when
// the task was first finished.
type Task struct {
	ID          uint64       // tasks.id
	UserID      uint64       // tasks.user_id (owner, immutable after creation)
	Title       string       // tasks.title
	Description string       // tasks.description
	Status      TaskStatus   // tasks.status
	Priority    TaskPriority // tasks.priority
	DueDate     *time.Time   // tasks.due_date (nullable)
	Tags        []string     // tasks.tags (JSON array)
	CompletedAt *time.Time   // tasks.completed_at (nullable, set once)
	CreatedAt   time.Time    // tasks.created_at
	UpdatedAt   time.Time    // tasks.updated_at
}

// TaskStats aggregates one user's tasks for the dashboard. Both maps carry
// every enum value, zero-filled, so clients never have to guess at missing
// keys.
type TaskStats struct {
	Total      int
	ByStatus   map[TaskStatus]int
	ByPriority map[TaskPriority]int
}

// TaskOwner carries the owner columns joined into the admin listing.
type TaskOwner struct {
	ID    uint64
	Name  string
	Email string
}
