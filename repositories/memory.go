package repositories

import (
	"context"
	"sync"

	"task-management/backend/apperrors"
	"task-management/backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory implementations of the repository interfaces. They back the
// service tests and honor the same not-found contract as the Mongo
// implementations.

type InMemoryTaskRepo struct {
	mu    sync.RWMutex
	tasks map[primitive.ObjectID]models.Task
}

func NewInMemoryTaskRepo() *InMemoryTaskRepo {
	return &InMemoryTaskRepo{tasks: make(map[primitive.ObjectID]models.Task)}
}

func (r *InMemoryTaskRepo) Insert(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	r.tasks[task.ID] = *task
	return nil
}

func (r *InMemoryTaskRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, apperrors.NotFoundf("task %s not found", id.Hex())
	}
	return &task, nil
}

func (r *InMemoryTaskRepo) Find(_ context.Context, filter models.TaskFilter) ([]models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Task
	for _, task := range r.tasks {
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		if filter.Assignee != nil {
			if task.Assignee == nil || *task.Assignee != *filter.Assignee {
				continue
			}
		}
		out = append(out, task)
	}
	return out, nil
}

func (r *InMemoryTaskRepo) Update(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[task.ID]; !ok {
		return apperrors.NotFoundf("task %s not found", task.ID.Hex())
	}
	r.tasks[task.ID] = *task
	return nil
}

func (r *InMemoryTaskRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return apperrors.NotFoundf("task %s not found", id.Hex())
	}
	delete(r.tasks, id)
	return nil
}

func (r *InMemoryTaskRepo) CountByAssignee(_ context.Context, userID primitive.ObjectID, statuses []models.TaskStatus) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, task := range r.tasks {
		if task.Assignee == nil || *task.Assignee != userID {
			continue
		}
		if len(statuses) == 0 {
			count++
			continue
		}
		for _, s := range statuses {
			if task.Status == s {
				count++
				break
			}
		}
	}
	return count, nil
}

func (r *InMemoryTaskRepo) UnassignAll(_ context.Context, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, task := range r.tasks {
		if task.Assignee != nil && *task.Assignee == userID {
			task.Assignee = nil
			r.tasks[id] = task
		}
	}
	return nil
}

type InMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
}

func NewInMemoryUserRepo() *InMemoryUserRepo {
	return &InMemoryUserRepo{users: make(map[primitive.ObjectID]models.User)}
}

func (r *InMemoryUserRepo) Insert(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.users[user.ID] = *user
	return nil
}

func (r *InMemoryUserRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFoundf("user %s not found", id.Hex())
	}
	return &user, nil
}

func (r *InMemoryUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, apperrors.NotFoundf("user %s not found", email)
}

func (r *InMemoryUserRepo) FindByHandle(_ context.Context, handle string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.UserID == handle {
			u := user
			return &u, nil
		}
	}
	return nil, apperrors.NotFoundf("user %s not found", handle)
}

func (r *InMemoryUserRepo) FindAll(_ context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, user)
	}
	return out, nil
}

func (r *InMemoryUserRepo) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return apperrors.NotFoundf("user %s not found", user.ID.Hex())
	}
	r.users[user.ID] = *user
	return nil
}

func (r *InMemoryUserRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return apperrors.NotFoundf("user %s not found", id.Hex())
	}
	delete(r.users, id)
	return nil
}
