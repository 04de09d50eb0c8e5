package repository

import (
	"assignment_desk/internal/common"
	"assignment_desk/internal/domain/model"
	"context"
	"sort"
	"sync"
	"time"
)

// The memory repositories back STORE_DRIVER=memory and the test suites. They
// hand out copies so callers can never mutate stored state in place.

type memoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]model.User // by id
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{users: make(map[string]model.User)}
}

func (r *memoryUserRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return common.NewError(common.ErrConflict, "Username already exists")
		}
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	r.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memoryUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

func (r *memoryUserRepository) FindByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.User{}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memoryUserRepository) FindAdminsByUsernames(ctx context.Context, usernames []string) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wanted := make(map[string]bool, len(usernames))
	for _, name := range usernames {
		wanted[name] = true
	}
	out := []model.User{}
	for _, u := range r.users {
		if u.IsAdmin && wanted[u.Username] {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memoryUserRepository) ListAdmins(ctx context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.User{}
	for _, u := range r.users {
		if u.IsAdmin {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

type memoryAssignmentRepository struct {
	mu          sync.RWMutex
	assignments map[string]*model.Assignment
	seq         int64
	order       map[string]int64 // insertion sequence, breaks created_at ties
}

func NewMemoryAssignmentRepository() AssignmentRepository {
	return &memoryAssignmentRepository{
		assignments: make(map[string]*model.Assignment),
		order:       make(map[string]int64),
	}
}

func (r *memoryAssignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	r.seq++
	r.order[a.ID] = r.seq
	r.assignments[a.ID] = a.Clone()
	return nil
}

func (r *memoryAssignmentRepository) FindByID(ctx context.Context, id string) (*model.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.assignments[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return a.Clone(), nil
}

func (r *memoryAssignmentRepository) Update(ctx context.Context, a *model.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assignments[a.ID]; !ok {
		return common.ErrNotFound
	}
	a.UpdatedAt = time.Now().UTC()
	r.assignments[a.ID] = a.Clone()
	return nil
}

func (r *memoryAssignmentRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assignments[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.assignments, id)
	delete(r.order, id)
	return nil
}

func (r *memoryAssignmentRepository) ListByCreator(ctx context.Context, userID string) ([]model.Assignment, error) {
	return r.filter(func(a *model.Assignment) bool { return a.UserID == userID }), nil
}

func (r *memoryAssignmentRepository) ListByAdmin(ctx context.Context, adminID string) ([]model.Assignment, error) {
	return r.filter(func(a *model.Assignment) bool { return a.IsAssignedTo(adminID) }), nil
}

// filter returns matching assignments newest first.
func (r *memoryAssignmentRepository) filter(keep func(*model.Assignment) bool) []model.Assignment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.Assignment{}
	for _, a := range r.assignments {
		if keep(a) {
			out = append(out, *a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.order[out[i].ID] > r.order[out[j].ID]
	})
	return out
}

type memoryNotificationRepository struct {
	mu            sync.RWMutex
	notifications []model.Notification
}

func NewMemoryNotificationRepository() NotificationRepository {
	return &memoryNotificationRepository{}
}

func (r *memoryNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.notifications {
		if existing.EventID == n.EventID && existing.UserID == n.UserID {
			return nil
		}
	}
	r.notifications = append(r.notifications, *n)
	return nil
}

func (r *memoryNotificationRepository) ListByUser(ctx context.Context, userID string) ([]model.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.Notification{}
	for i := len(r.notifications) - 1; i >= 0; i-- {
		if r.notifications[i].UserID == userID {
			out = append(out, r.notifications[i])
		}
	}
	return out, nil
}
