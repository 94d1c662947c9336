package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/task-manager-api/internal/middleware"
	"github.com/iliyamo/task-manager-api/internal/model"
	"github.com/iliyamo/task-manager-api/internal/queue"
)

// taskCtx builds an authenticated context for a task route. target carries
// the query string; id, when non-empty, is bound as the :id path param.
func taskCtx(method, target, body string, uid uint64, role, id string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.CtxUserID, uid)
	c.Set(middleware.CtxRole, role)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	return c, rec
}

func createTask(t *testing.T, h *TaskHandler, uid uint64, body string) map[string]any {
	t.Helper()
	c, rec := taskCtx(http.MethodPost, "/tasks", body, uid, model.RoleUser, "")
	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Create status = %d, body %s", rec.Code, rec.Body.String())
	}
	return dataOf(t, decodeBody(t, rec))["task"].(map[string]any)
}

func TestCreateTaskDefaults(t *testing.T) {
	h := NewTaskHandler(newFakeTasks())
	task := createTask(t, h, 1, `{"title":"Write report"}`)

	if task["status"] != string(model.StatusPending) {
		t.Fatalf("status = %v, want pending", task["status"])
	}
	if task["priority"] != string(model.PriorityMedium) {
		t.Fatalf("priority = %v, want medium", task["priority"])
	}
	if task["userId"] != float64(1) {
		t.Fatalf("userId = %v, want 1", task["userId"])
	}
	if tags, ok := task["tags"].([]any); !ok || len(tags) != 0 {
		t.Fatalf("tags = %v, want empty array", task["tags"])
	}
	if _, ok := task["completedAt"]; ok {
		t.Fatalf("completedAt present on a pending task: %v", task)
	}
}

func TestCreateTaskRequiresTitle(t *testing.T) {
	h := NewTaskHandler(newFakeTasks())
	c, rec := taskCtx(http.MethodPost, "/tasks", `{"title":"   "}`, 1, model.RoleUser, "")
	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeBody(t, rec)
	errs, _ := body["errors"].([]any)
	if len(errs) != 1 || errs[0] != "Task title is required" {
		t.Fatalf("errors = %v", body["errors"])
	}
}

func TestTaskOwnership(t *testing.T) {
	h := NewTaskHandler(newFakeTasks())
	createTask(t, h, 1, `{"title":"Owned by user 1"}`)

	type attempt struct {
		uid  uint64
		role string
		want int
	}
	cases := []attempt{
		{uid: 1, role: model.RoleUser, want: http.StatusOK},
		{uid: 2, role: model.RoleUser, want: http.StatusForbidden},
		{uid: 99, role: model.RoleAdmin, want: http.StatusOK},
	}
	for _, tc := range cases {
		c, rec := taskCtx(http.MethodGet, "/tasks/1", "", tc.uid, tc.role, "1")
		if err := h.Get(c); err != nil {
			t.Fatalf("Get: %v", err)
		}
		if rec.Code != tc.want {
			t.Fatalf("get as uid=%d role=%s: status = %d, want %d", tc.uid, tc.role, rec.Code, tc.want)
		}
	}

	c, rec := taskCtx(http.MethodDelete, "/tasks/1", "", 2, model.RoleUser, "1")
	if err := h.Delete(c); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("delete as non-owner: status = %d, want 403", rec.Code)
	}
	if msg := decodeBody(t, rec)["message"]; msg != "Not authorized to delete this task" {
		t.Fatalf("message = %v", msg)
	}

	c, rec = taskCtx(http.MethodPut, "/tasks/1", `{"title":"Hijacked"}`, 2, model.RoleUser, "1")
	if err := h.Update(c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("update as non-owner: status = %d, want 403", rec.Code)
	}
}

func TestTaskNotFound(t *testing.T) {
	h := NewTaskHandler(newFakeTasks())
	for _, id := range []string{"42", "abc"} {
		c, rec := taskCtx(http.MethodGet, "/tasks/"+id, "", 1, model.RoleUser, id)
		if err := h.Get(c); err != nil {
			t.Fatalf("Get: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Fatalf("id=%q: status = %d, want 404", id, rec.Code)
		}
		if msg := decodeBody(t, rec)["message"]; msg != "Task not found" {
			t.Fatalf("message = %v", msg)
		}
	}
}

func TestCompletedAtStampedOnce(t *testing.T) {
	h := NewTaskHandler(newFakeTasks())
	createTask(t, h, 1, `{"title":"Ship it"}`)

	c, rec := taskCtx(http.MethodPut, "/tasks/1", `{"status":"completed"}`, 1, model.RoleUser, "1")
	if err := h.Update(c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	task := dataOf(t, decodeBody(t, rec))["task"].(map[string]any)
	first, ok := task["completedAt"].(string)
	if !ok || first == "" {
		t.Fatalf("completedAt not set after completion: %v", task)
	}

	// A later edit that keeps the task completed must not move the timestamp.
	c, rec = taskCtx(http.MethodPut, "/tasks/1", `{"title":"Ship it v2"}`, 1, model.RoleUser, "1")
	if err := h.Update(c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	task = dataOf(t, decodeBody(t, rec))["task"].(map[string]any)
	if task["completedAt"] != first {
		t.Fatalf("completedAt moved: %v -> %v", first, task["completedAt"])
	}
}

func TestCreateCompletedTaskStampsTimestamp(t *testing.T) {
	h := NewTaskHandler(newFakeTasks())
	task := createTask(t, h, 1, `{"title":"Already done","status":"completed"}`)
	if _, ok := task["completedAt"].(string); !ok {
		t.Fatalf("completedAt missing on task created completed: %v", task)
	}
}

func TestPublishFiresOnceOnCompletion(t *testing.T) {
	h := NewTaskHandler(newFakeTasks())
	var events []queue.TaskCompletedEvent
	h.Publish = func(_ context.Context, ev queue.TaskCompletedEvent) error {
		events = append(events, ev)
		return nil
	}
	createTask(t, h, 1, `{"title":"Ship it","priority":"high","tags":["release"]}`)

	c, _ := taskCtx(http.MethodPut, "/tasks/1", `{"status":"completed"}`, 1, model.RoleUser, "1")
	if err := h.Update(c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	c, _ = taskCtx(http.MethodPut, "/tasks/1", `{"description":"done"}`, 1, model.RoleUser, "1")
	if err := h.Update(c); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("publish count = %d, want 1", len(events))
	}
	ev := events[0]
	if ev.TaskID != 1 || ev.UserID != 1 || ev.Title != "Ship it" || ev.Priority != "high" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestListFiltersAndScopes(t *testing.T) {
	h := NewTaskHandler(newFakeTasks())
	createTask(t, h, 1, `{"title":"Buy milk","priority":"low"}`)
	createTask(t, h, 1, `{"title":"Write report","status":"in-progress","priority":"high"}`)
	createTask(t, h, 2, `{"title":"Someone else's task"}`)

	c, rec := taskCtx(http.MethodGet, "/tasks?status=in-progress", "", 1, model.RoleUser, "")
	if err := h.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}
	data := dataOf(t, decodeBody(t, rec))
	tasks := data["tasks"].([]any)
	if len(tasks) != 1 {
		t.Fatalf("filtered list length = %d, want 1", len(tasks))
	}
	if title := tasks[0].(map[string]any)["title"]; title != "Write report" {
		t.Fatalf("title = %v", title)
	}

	// Unfiltered list is still scoped to the caller.
	c, rec = taskCtx(http.MethodGet, "/tasks", "", 1, model.RoleUser, "")
	if err := h.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}
	data = dataOf(t, decodeBody(t, rec))
	if n := len(data["tasks"].([]any)); n != 2 {
		t.Fatalf("unfiltered list length = %d, want 2", n)
	}
}

func TestListSearch(t *testing.T) {
	h := NewTaskHandler(newFakeTasks())
	createTask(t, h, 1, `{"title":"Quarterly report"}`)
	createTask(t, h, 1, `{"title":"Groceries","description":"milk and report paper"}`)
	createTask(t, h, 1, `{"title":"Gym"}`)

	c, rec := taskCtx(http.MethodGet, "/tasks?search=report", "", 1, model.RoleUser, "")
	if err := h.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}
	data := dataOf(t, decodeBody(t, rec))
	if n := len(data["tasks"].([]any)); n != 2 {
		t.Fatalf("search matched %d tasks, want 2 (title and description)", n)
	}
}

func TestListPagination(t *testing.T) {
	h := NewTaskHandler(newFakeTasks())
	for i := 1; i <= 3; i++ {
		createTask(t, h, 1, fmt.Sprintf(`{"title":"Task %d"}`, i))
	}

	c, rec := taskCtx(http.MethodGet, "/tasks?page=2&limit=2", "", 1, model.RoleUser, "")
	if err := h.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}
	data := dataOf(t, decodeBody(t, rec))
	if n := len(data["tasks"].([]any)); n != 1 {
		t.Fatalf("page 2 length = %d, want 1", n)
	}
	p := data["pagination"].(map[string]any)
	if p["total"] != float64(3) || p["page"] != float64(2) || p["limit"] != float64(2) || p["totalPages"] != float64(2) {
		t.Fatalf("pagination = %v", p)
	}
}

func TestStatsCounts(t *testing.T) {
	h := NewTaskHandler(newFakeTasks())
	createTask(t, h, 1, `{"title":"A","priority":"high"}`)
	createTask(t, h, 1, `{"title":"B","status":"completed"}`)
	createTask(t, h, 2, `{"title":"Not mine"}`)

	c, rec := taskCtx(http.MethodGet, "/tasks/stats", "", 1, model.RoleUser, "")
	if err := h.Stats(c); err != nil {
		t.Fatalf("Stats: %v", err)
	}
	data := dataOf(t, decodeBody(t, rec))
	if data["total"] != float64(2) {
		t.Fatalf("total = %v, want 2", data["total"])
	}
	byStatus := data["byStatus"].(map[string]any)
	if byStatus["completed"] != float64(1) || byStatus["pending"] != float64(1) || byStatus["in-progress"] != float64(0) {
		t.Fatalf("byStatus = %v", byStatus)
	}
	byPriority := data["byPriority"].(map[string]any)
	if byPriority["high"] != float64(1) || byPriority["medium"] != float64(1) || byPriority["low"] != float64(0) {
		t.Fatalf("byPriority = %v", byPriority)
	}
}

func TestAdminAllIncludesOwners(t *testing.T) {
	fake := newFakeTasks()
	fake.owners[1] = model.TaskOwner{ID: 1, Name: "Ada", Email: "ada@example.com"}
	fake.owners[2] = model.TaskOwner{ID: 2, Name: "Bob", Email: "bob@example.com"}
	h := NewTaskHandler(fake)
	createTask(t, h, 1, `{"title":"Ada's task"}`)
	createTask(t, h, 2, `{"title":"Bob's task"}`)

	c, rec := taskCtx(http.MethodGet, "/tasks/admin/all", "", 99, model.RoleAdmin, "")
	if err := h.AdminAll(c); err != nil {
		t.Fatalf("AdminAll: %v", err)
	}
	data := dataOf(t, decodeBody(t, rec))
	tasks := data["tasks"].([]any)
	if len(tasks) != 2 {
		t.Fatalf("list length = %d, want 2", len(tasks))
	}
	newest := tasks[0].(map[string]any)
	owner := newest["user"].(map[string]any)
	if newest["title"] != "Bob's task" || owner["email"] != "bob@example.com" {
		t.Fatalf("newest = %v", newest)
	}
	if data["pagination"].(map[string]any)["total"] != float64(2) {
		t.Fatalf("pagination = %v", data["pagination"])
	}
}

func TestUpdateRejectsEmptyBody(t *testing.T) {
	h := NewTaskHandler(newFakeTasks())
	createTask(t, h, 1, `{"title":"A"}`)

	c, rec := taskCtx(http.MethodPut, "/tasks/1", `{}`, 1, model.RoleUser, "1")
	if err := h.Update(c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeBody(t, rec)
	errs, _ := body["errors"].([]any)
	if len(errs) != 1 || errs[0] != "At least one field must be provided" {
		t.Fatalf("errors = %v", body["errors"])
	}
}

func TestDeleteTask(t *testing.T) {
	h := NewTaskHandler(newFakeTasks())
	createTask(t, h, 1, `{"title":"Throwaway"}`)

	c, rec := taskCtx(http.MethodDelete, "/tasks/1", "", 1, model.RoleUser, "1")
	if err := h.Delete(c); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	c, rec = taskCtx(http.MethodGet, "/tasks/1", "", 1, model.RoleUser, "1")
	if err := h.Get(c); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status = %d, want 404", rec.Code)
	}
}
