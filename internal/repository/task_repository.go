package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/task-manager-api/internal/model"
)

const taskCols = "id, user_id, title, description, status, priority, due_date, tags, completed_at, created_at, updated_at"

// sortColumns whitelists the API sort fields against real columns so that
// user input never reaches the ORDER BY clause directly.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"dueDate":   "due_date",
	"title":     "title",
	"status":    "status",
	"priority":  "priority",
}

// TaskFilter narrows, orders and pages a task listing. Zero values mean
// "no filter"; Page and Limit are normalized by the repository.
type TaskFilter struct {
	UserID   uint64 // 0 lists across all users (admin listing only)
	Status   model.TaskStatus
	Priority model.TaskPriority
	Search   string // matched against title and description
	SortBy   string // API field name, mapped through sortColumns
	Order    string // "asc"; anything else sorts descending
	Page     int
	Limit    int
}

// TaskWithOwner pairs a task with its owner's public identity for the
// cross-user admin listing.
type TaskWithOwner struct {
	Task  model.Task
	Owner model.TaskOwner
}

// TaskRepo persists tasks and answers the filtered, paginated and
// aggregated queries the dashboard needs.
type TaskRepo struct{ DB *sql.DB }

func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{DB: db} }

func scanTask(scan func(dest ...any) error) (model.Task, error) {
	var (
		t    model.Task
		tags sql.NullString
		due  sql.NullTime
		done sql.NullTime
	)
	if err := scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&due, &tags, &done, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return t, err
	}
	if due.Valid {
		v := due.Time
		t.DueDate = &v
	}
	if done.Valid {
		v := done.Time
		t.CompletedAt = &v
	}
	if tags.Valid && tags.String != "" {
		_ = json.Unmarshal([]byte(tags.String), &t.Tags)
	}
	return t, nil
}

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Create inserts the task and reloads the row so DB-assigned fields
// (id, timestamps) are populated on t.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	tags, err := marshalTags(t.Tags)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO tasks (user_id, title, description, status, priority, due_date, tags, completed_at) VALUES (?,?,?,?,?,?,?,?)",
		t.UserID, t.Title, t.Description, t.Status, t.Priority, t.DueDate, tags, t.CompletedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	row := r.DB.QueryRowContext(ctx, "SELECT "+taskCols+" FROM tasks WHERE id=?", id)
	*t, err = scanTask(row.Scan)
	return err
}

// GetByID fetches a single task.
func (r *TaskRepo) GetByID(ctx context.Context, id uint64) (model.Task, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+taskCols+" FROM tasks WHERE id=? LIMIT 1", id)
	t, err := scanTask(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

// Update persists all mutable fields of t. Ownership is immutable, so
// user_id is never part of the SET clause.
func (r *TaskRepo) Update(ctx context.Context, t *model.Task) error {
	tags, err := marshalTags(t.Tags)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tasks SET title=?, description=?, status=?, priority=?, due_date=?, tags=?, completed_at=? WHERE id=?",
		t.Title, t.Description, t.Status, t.Priority, t.DueDate, tags, t.CompletedAt, t.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// The row may simply be unchanged; confirm it still exists.
		var id uint64
		if err := r.DB.QueryRowContext(ctx, "SELECT id FROM tasks WHERE id=?", t.ID).Scan(&id); errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
	}
	return nil
}

// Delete removes a task permanently.
func (r *TaskRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM tasks WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns one page of tasks matching f plus the total match count.
// Filtering, search and pagination are delegated entirely to the database.
func (r *TaskRepo) List(ctx context.Context, f TaskFilter) ([]model.Task, int, error) {
	where, args := buildWhere(f)

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tasks WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(f.Order, "asc") {
		dir = "ASC"
	}
	page, limit := normalizePage(f.Page, f.Limit)

	q := fmt.Sprintf("SELECT %s FROM tasks WHERE %s ORDER BY %s %s LIMIT ? OFFSET ?",
		taskCols, where, col, dir)
	rows, err := r.DB.QueryContext(ctx, q, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0, limit)
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, t)
	}
	return tasks, total, rows.Err()
}

// ListAll returns a page of every user's tasks joined with the owners'
// public identity, newest first.
func (r *TaskRepo) ListAll(ctx context.Context, page, limit int) ([]TaskWithOwner, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks").Scan(&total); err != nil {
		return nil, 0, err
	}

	page, limit = normalizePage(page, limit)
	rows, err := r.DB.QueryContext(ctx,
		`SELECT t.id, t.user_id, t.title, t.description, t.status, t.priority,
		        t.due_date, t.tags, t.completed_at, t.created_at, t.updated_at,
		        u.id, u.name, u.email
		 FROM tasks t JOIN users u ON u.id = t.user_id
		 ORDER BY t.created_at DESC LIMIT ? OFFSET ?`,
		limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]TaskWithOwner, 0, limit)
	for rows.Next() {
		var (
			t    model.Task
			o    model.TaskOwner
			tags sql.NullString
			due  sql.NullTime
			done sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.Priority,
			&due, &tags, &done, &t.CreatedAt, &t.UpdatedAt, &o.ID, &o.Name, &o.Email); err != nil {
			return nil, 0, err
		}
		if due.Valid {
			v := due.Time
			t.DueDate = &v
		}
		if done.Valid {
			v := done.Time
			t.CompletedAt = &v
		}
		if tags.Valid && tags.String != "" {
			_ = json.Unmarshal([]byte(tags.String), &t.Tags)
		}
		out = append(out, TaskWithOwner{Task: t, Owner: o})
	}
	return out, total, rows.Err()
}

// Stats groups one user's tasks by status and by priority. Enum values with
// no rows are zero-filled so the dashboard always sees every key.
func (r *TaskRepo) Stats(ctx context.Context, userID uint64) (model.TaskStats, error) {
	s := model.TaskStats{
		ByStatus: map[model.TaskStatus]int{
			model.StatusPending:    0,
			model.StatusInProgress: 0,
			model.StatusCompleted:  0,
		},
		ByPriority: map[model.TaskPriority]int{
			model.PriorityLow:    0,
			model.PriorityMedium: 0,
			model.PriorityHigh:   0,
		},
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM tasks WHERE user_id=? GROUP BY status", userID)
	if err != nil {
		return s, err
	}
	defer rows.Close()
	for rows.Next() {
		var st model.TaskStatus
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return s, err
		}
		s.ByStatus[st] = n
		s.Total += n
	}
	if err := rows.Err(); err != nil {
		return s, err
	}

	prows, err := r.DB.QueryContext(ctx,
		"SELECT priority, COUNT(*) FROM tasks WHERE user_id=? GROUP BY priority", userID)
	if err != nil {
		return s, err
	}
	defer prows.Close()
	for prows.Next() {
		var p model.TaskPriority
		var n int
		if err := prows.Scan(&p, &n); err != nil {
			return s, err
		}
		s.ByPriority[p] = n
	}
	return s, prows.Err()
}

// buildWhere assembles the WHERE clause for List from the filter.
func buildWhere(f TaskFilter) (string, []any) {
	where := []string{"1=1"}
	var args []any
	if f.UserID != 0 {
		where = append(where, "user_id=?")
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		where = append(where, "status=?")
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		where = append(where, "priority=?")
		args = append(args, f.Priority)
	}
	if f.Search != "" {
		where = append(where, "(title LIKE ? OR description LIKE ?)")
		pat := "%" + f.Search + "%"
		args = append(args, pat, pat)
	}
	return strings.Join(where, " AND "), args
}

// normalizePage clamps page and limit to sane values (defaults 1 and 10).
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
