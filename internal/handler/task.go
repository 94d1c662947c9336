package handler

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/task-manager-api/internal/model"
	"github.com/iliyamo/task-manager-api/internal/queue"
	"github.com/iliyamo/task-manager-api/internal/repository"
)

// TaskStore is the slice of the task repository the task handlers use.
type TaskStore interface {
	Create(ctx context.Context, t *model.Task) error
	GetByID(ctx context.Context, id uint64) (model.Task, error)
	List(ctx context.Context, f repository.TaskFilter) ([]model.Task, int, error)
	Update(ctx context.Context, t *model.Task) error
	Delete(ctx context.Context, id uint64) error
	Stats(ctx context.Context, userID uint64) (model.TaskStats, error)
	ListAll(ctx context.Context, page, limit int) ([]repository.TaskWithOwner, int, error)
}

// TaskHandler implements the task CRUD endpoints. Publish, when set, is
// called after a task first transitions to completed; failures are ignored
// so event delivery never affects the request outcome.
type TaskHandler struct {
	Tasks   TaskStore
	Publish func(ctx context.Context, ev queue.TaskCompletedEvent) error
}

func NewTaskHandler(tasks TaskStore) *TaskHandler {
	return &TaskHandler{Tasks: tasks}
}

// ----- request/response shapes -----

type taskCreateReq struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Status      model.TaskStatus   `json:"status"`
	Priority    model.TaskPriority `json:"priority"`
	DueDate     *time.Time         `json:"dueDate"`
	Tags        []string           `json:"tags"`
}

type taskUpdateReq struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	Status      *model.TaskStatus   `json:"status"`
	Priority    *model.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"dueDate"`
	Tags        *[]string           `json:"tags"`
}

type taskDTO struct {
	ID          uint64             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Status      model.TaskStatus   `json:"status"`
	Priority    model.TaskPriority `json:"priority"`
	DueDate     *time.Time         `json:"dueDate,omitempty"`
	Tags        []string           `json:"tags"`
	UserID      uint64             `json:"userId"`
	CompletedAt *time.Time         `json:"completedAt,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// ownerDTO is the owner projection attached to the admin listing.
type ownerDTO struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type adminTaskDTO struct {
	taskDTO
	User ownerDTO `json:"user"`
}

type paginationDTO struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

func toTaskDTO(t model.Task) taskDTO {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return taskDTO{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		Tags:        tags,
		UserID:      t.UserID,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func paginate(total, page, limit int) paginationDTO {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return paginationDTO{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}
}

// ownerOrAdmin is the single capability check for task access: the requester
// must own the task or hold the admin role.
func ownerOrAdmin(userID uint64, role string, ownerID uint64) bool {
	return userID == ownerID || role == model.RoleAdmin
}

func parseTaskID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// markCompleted stamps CompletedAt the first time a task reaches the
// completed status. The timestamp is never overwritten afterwards.
func markCompleted(t *model.Task) bool {
	if t.Status == model.StatusCompleted && t.CompletedAt == nil {
		now := time.Now().UTC()
		t.CompletedAt = &now
		return true
	}
	return false
}

func (h *TaskHandler) publishCompleted(t model.Task) {
	if h.Publish == nil || t.CompletedAt == nil {
		return
	}
	_ = h.Publish(context.Background(), queue.TaskCompletedEvent{
		TaskID:      t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Priority:    string(t.Priority),
		Tags:        t.Tags,
		CompletedAt: t.CompletedAt.Format(time.RFC3339),
	})
}

// Create inserts a task owned by the authenticated user. Status defaults to
// pending and priority to medium.
func (h *TaskHandler) Create(c echo.Context) error {
	var req taskCreateReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Validation error", "Invalid request body")
	}
	if errs := validateTaskCreate(req); len(errs) > 0 {
		return fail(c, http.StatusBadRequest, "Validation error", errs...)
	}

	uid, _ := currentUser(c)
	t := model.Task{
		UserID:      uid,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Tags:        req.Tags,
	}
	if t.Status == "" {
		t.Status = model.StatusPending
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	completed := markCompleted(&t)

	if err := h.Tasks.Create(c.Request().Context(), &t); err != nil {
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	if completed {
		h.publishCompleted(t)
	}
	return respond(c, http.StatusCreated, "Task created successfully", echo.Map{
		"task": toTaskDTO(t),
	})
}

// List returns the authenticated user's tasks, filtered, sorted and paged
// by the query string.
func (h *TaskHandler) List(c echo.Context) error {
	uid, _ := currentUser(c)
	page := atoiDefault(c.QueryParam("page"), 1)
	limit := atoiDefault(c.QueryParam("limit"), 10)
	f := repository.TaskFilter{
		UserID:   uid,
		Status:   model.TaskStatus(c.QueryParam("status")),
		Priority: model.TaskPriority(c.QueryParam("priority")),
		Search:   c.QueryParam("search"),
		SortBy:   c.QueryParam("sortBy"),
		Order:    c.QueryParam("order"),
		Page:     page,
		Limit:    limit,
	}

	tasks, total, err := h.Tasks.List(c.Request().Context(), f)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	dtos := make([]taskDTO, 0, len(tasks))
	for _, t := range tasks {
		dtos = append(dtos, toTaskDTO(t))
	}
	return respond(c, http.StatusOK, "Tasks fetched successfully", echo.Map{
		"tasks":      dtos,
		"pagination": paginate(total, page, limit),
	})
}

// Get returns one task, visible to its owner or an admin.
func (h *TaskHandler) Get(c echo.Context) error {
	id, ok := parseTaskID(c)
	if !ok {
		return fail(c, http.StatusNotFound, "Task not found")
	}
	t, err := h.Tasks.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Task not found")
		}
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	uid, role := currentUser(c)
	if !ownerOrAdmin(uid, role, t.UserID) {
		return fail(c, http.StatusForbidden, "Not authorized to access this task")
	}
	return respond(c, http.StatusOK, "Task fetched successfully", echo.Map{
		"task": toTaskDTO(t),
	})
}

// Update applies a partial update. Ownership never changes; the completion
// timestamp is stamped once when status first reaches completed.
func (h *TaskHandler) Update(c echo.Context) error {
	id, ok := parseTaskID(c)
	if !ok {
		return fail(c, http.StatusNotFound, "Task not found")
	}
	var req taskUpdateReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Validation error", "Invalid request body")
	}
	if errs := validateTaskUpdate(req); len(errs) > 0 {
		return fail(c, http.StatusBadRequest, "Validation error", errs...)
	}

	ctx := c.Request().Context()
	t, err := h.Tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Task not found")
		}
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	uid, role := currentUser(c)
	if !ownerOrAdmin(uid, role, t.UserID) {
		return fail(c, http.StatusForbidden, "Not authorized to update this task")
	}

	if req.Title != nil {
		t.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		t.Description = strings.TrimSpace(*req.Description)
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.DueDate != nil {
		t.DueDate = req.DueDate
	}
	if req.Tags != nil {
		t.Tags = *req.Tags
	}
	completed := markCompleted(&t)

	if err := h.Tasks.Update(ctx, &t); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Task not found")
		}
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	if completed {
		h.publishCompleted(t)
	}
	return respond(c, http.StatusOK, "Task updated successfully", echo.Map{
		"task": toTaskDTO(t),
	})
}

// Delete removes a task permanently.
func (h *TaskHandler) Delete(c echo.Context) error {
	id, ok := parseTaskID(c)
	if !ok {
		return fail(c, http.StatusNotFound, "Task not found")
	}
	ctx := c.Request().Context()
	t, err := h.Tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Task not found")
		}
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	uid, role := currentUser(c)
	if !ownerOrAdmin(uid, role, t.UserID) {
		return fail(c, http.StatusForbidden, "Not authorized to delete this task")
	}
	if err := h.Tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Task not found")
		}
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	return respond(c, http.StatusOK, "Task deleted successfully", nil)
}

// Stats returns the authenticated user's task counts by status and priority.
func (h *TaskHandler) Stats(c echo.Context) error {
	uid, _ := currentUser(c)
	s, err := h.Tasks.Stats(c.Request().Context(), uid)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	return respond(c, http.StatusOK, "Task statistics fetched successfully", echo.Map{
		"total":      s.Total,
		"byStatus":   s.ByStatus,
		"byPriority": s.ByPriority,
	})
}

// AdminAll lists every user's tasks with owner details. Route wiring
// restricts it to the admin role.
func (h *TaskHandler) AdminAll(c echo.Context) error {
	page := atoiDefault(c.QueryParam("page"), 1)
	limit := atoiDefault(c.QueryParam("limit"), 10)

	rows, total, err := h.Tasks.ListAll(c.Request().Context(), page, limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	dtos := make([]adminTaskDTO, 0, len(rows))
	for _, r := range rows {
		dtos = append(dtos, adminTaskDTO{
			taskDTO: toTaskDTO(r.Task),
			User:    ownerDTO{ID: r.Owner.ID, Name: r.Owner.Name, Email: r.Owner.Email},
		})
	}
	return respond(c, http.StatusOK, "All tasks fetched successfully", echo.Map{
		"tasks":      dtos,
		"pagination": paginate(total, page, limit),
	})
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
