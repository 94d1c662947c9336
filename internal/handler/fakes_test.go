package handler

// In-memory implementations of UserStore and TaskStore. Handler tests run
// against these instead of MySQL so they exercise the full request flow
// without a database.

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/task-manager-api/internal/model"
	"github.com/iliyamo/task-manager-api/internal/repository"
)

type fakeUsers struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]*model.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{users: map[uint64]*model.User{}} }

// add seeds a user directly, bypassing the handler path.
func (f *fakeUsers) add(u model.User) model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	f.users[u.ID] = &u
	return u
}

func (f *fakeUsers) byEmail(email string) *model.User {
	for _, u := range f.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (f *fakeUsers) Create(_ context.Context, name, email, passwordHash, role string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byEmail(email) != nil {
		return 0, repository.ErrEmailExists
	}
	f.nextID++
	now := time.Now().UTC()
	f.users[f.nextID] = &model.User{
		ID: f.nextID, Name: name, Email: email, PasswordHash: passwordHash,
		Role: role, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	return f.nextID, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return *u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	f.mu.Lock()
	defer f.mu.Unlock()
	if u := f.byEmail(email); u != nil {
		return *u, nil
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) SetRefreshHash(_ context.Context, id uint64, hash *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if hash == nil {
		u.RefreshHash = nil
		return nil
	}
	v := *hash
	u.RefreshHash = &v
	return nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id uint64, name, email *string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	if email != nil {
		norm := strings.ToLower(strings.TrimSpace(*email))
		if other := f.byEmail(norm); other != nil && other.ID != id {
			return model.User{}, repository.ErrEmailExists
		}
		u.Email = norm
	}
	if name != nil {
		u.Name = *name
	}
	u.UpdatedAt = time.Now().UTC()
	return *u, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uint64, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

type fakeTasks struct {
	mu     sync.Mutex
	nextID uint64
	tasks  map[uint64]*model.Task
	owners map[uint64]model.TaskOwner
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{tasks: map[uint64]*model.Task{}, owners: map[uint64]model.TaskOwner{}}
}

func (f *fakeTasks) Create(_ context.Context, t *model.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t.ID = f.nextID
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	cp := *t
	f.tasks[t.ID] = &cp
	return nil
}

func (f *fakeTasks) GetByID(_ context.Context, id uint64) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return model.Task{}, repository.ErrNotFound
	}
	return *t, nil
}

func (f *fakeTasks) Update(_ context.Context, t *model.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[t.ID]; !ok {
		return repository.ErrNotFound
	}
	t.UpdatedAt = time.Now().UTC()
	cp := *t
	f.tasks[t.ID] = &cp
	return nil
}

func (f *fakeTasks) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTasks) List(_ context.Context, flt repository.TaskFilter) ([]model.Task, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []model.Task
	for _, t := range f.tasks {
		if flt.UserID != 0 && t.UserID != flt.UserID {
			continue
		}
		if flt.Status != "" && t.Status != flt.Status {
			continue
		}
		if flt.Priority != "" && t.Priority != flt.Priority {
			continue
		}
		if flt.Search != "" &&
			!strings.Contains(strings.ToLower(t.Title), strings.ToLower(flt.Search)) &&
			!strings.Contains(strings.ToLower(t.Description), strings.ToLower(flt.Search)) {
			continue
		}
		matched = append(matched, *t)
	}
	asc := strings.EqualFold(flt.Order, "asc")
	sort.Slice(matched, func(i, j int) bool {
		if asc {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	page, limit := flt.Page, flt.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (f *fakeTasks) ListAll(_ context.Context, page, limit int) ([]repository.TaskWithOwner, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var all []model.Task
	for _, t := range f.tasks {
		all = append(all, *t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := len(all)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	out := make([]repository.TaskWithOwner, 0, end-start)
	for _, t := range all[start:end] {
		out = append(out, repository.TaskWithOwner{Task: t, Owner: f.owners[t.UserID]})
	}
	return out, total, nil
}

func (f *fakeTasks) Stats(_ context.Context, userID uint64) (model.TaskStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := model.TaskStats{
		ByStatus: map[model.TaskStatus]int{
			model.StatusPending: 0, model.StatusInProgress: 0, model.StatusCompleted: 0,
		},
		ByPriority: map[model.TaskPriority]int{
			model.PriorityLow: 0, model.PriorityMedium: 0, model.PriorityHigh: 0,
		},
	}
	for _, t := range f.tasks {
		if t.UserID != userID {
			continue
		}
		s.Total++
		s.ByStatus[t.Status]++
		s.ByPriority[t.Priority]++
	}
	return s, nil
}
