package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"project-tracker/internal/cache"
	"project-tracker/internal/logging"
	"project-tracker/internal/models"
)

const taskListKeyPrefix = "tasks:project:"

func taskListKey(projectID uint) string {
	return fmt.Sprintf("%s%d", taskListKeyPrefix, projectID)
}

// cachedTask keeps the fields a task list response needs, including the
// relations that models.Task does not serialize.
type cachedTask struct {
	ID           uint              `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Status       models.TaskStatus `json:"status"`
	DueDate      *models.Date      `json:"dueDate,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	AssigneeID   uint              `json:"assigneeId"`
	AssigneeName string            `json:"assigneeName"`
	AssigneeMail string            `json:"assigneeEmail"`
	ProjectID    uint              `json:"projectId"`
	ProjectName  string            `json:"projectName"`
	ProjectOwner uint              `json:"projectOwner"`
}

func toCached(tasks []models.Task) []cachedTask {
	out := make([]cachedTask, len(tasks))
	for i, t := range tasks {
		out[i] = cachedTask{
			ID:           t.ID,
			Title:        t.Title,
			Description:  t.Description,
			Status:       t.Status,
			DueDate:      t.DueDate,
			CreatedAt:    t.CreatedAt,
			AssigneeID:   t.AssigneeID,
			AssigneeName: t.Assignee.Username,
			AssigneeMail: t.Assignee.Email,
			ProjectID:    t.ProjectID,
			ProjectName:  t.Project.Name,
			ProjectOwner: t.Project.OwnerID,
		}
	}
	return out
}

func fromCached(cached []cachedTask) []models.Task {
	out := make([]models.Task, len(cached))
	for i, c := range cached {
		out[i] = models.Task{
			ID:          c.ID,
			Title:       c.Title,
			Description: c.Description,
			Status:      c.Status,
			DueDate:     c.DueDate,
			AssigneeID:  c.AssigneeID,
			Assignee:    models.User{ID: c.AssigneeID, Username: c.AssigneeName, Email: c.AssigneeMail},
			ProjectID:   c.ProjectID,
			Project:     models.Project{ID: c.ProjectID, Name: c.ProjectName, OwnerID: c.ProjectOwner},
		}
		out[i].CreatedAt = c.CreatedAt
	}
	return out
}

// CachedTaskService is a read-through cache over TaskService.ListByProject.
// Writes invalidate the affected project's list; cache failures fall back to
// the wrapped service.
// CachedTaskService caches task lists per project. Every invalidation bumps
// a generation; a list loaded before the bump is returned to its caller but
// never written to the cache.
type CachedTaskService struct {
	TaskService
	cache cache.Cache
	ttl   time.Duration

	// mu covers the generation check and the cache write as one step.
	mu    sync.Mutex
	epoch uint64
	gens  map[uint]uint64
}

func NewCachedTaskService(inner TaskService, c cache.Cache, ttl time.Duration) *CachedTaskService {
	return &CachedTaskService{TaskService: inner, cache: c, ttl: ttl, gens: make(map[uint]uint64)}
}

type generation struct {
	epoch, project uint64
}

func (s *CachedTaskService) generation(projectID uint) generation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return generation{epoch: s.epoch, project: s.gens[projectID]}
}

func (s *CachedTaskService) ListByProject(ctx context.Context, projectID uint) ([]models.Task, error) {
	key := taskListKey(projectID)

	var cached []cachedTask
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		return fromCached(cached), nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logging.FromContext(ctx).Warn("task list cache read failed", "key", key, "error", err)
	}

	gen := s.generation(projectID)
	tasks, err := s.TaskService.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, projectID, gen, tasks)
	return tasks, nil
}

// fill stores tasks unless the project was invalidated after gen was taken.
func (s *CachedTaskService) fill(ctx context.Context, projectID uint, gen generation, tasks []models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != gen.epoch || s.gens[projectID] != gen.project {
		logging.FromContext(ctx).Debug("task list changed while loading, not cached", "project_id", projectID)
		return
	}
	key := taskListKey(projectID)
	if err := s.cache.Set(ctx, key, toCached(tasks), s.ttl); err != nil {
		logging.FromContext(ctx).Warn("task list cache write failed", "key", key, "error", err)
	}
}

func (s *CachedTaskService) Create(ctx context.Context, in TaskInput) (*models.Task, error) {
	task, err := s.TaskService.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, task.ProjectID)
	return task, nil
}

func (s *CachedTaskService) Update(ctx context.Context, id uint, in TaskInput) (*models.Task, error) {
	task, err := s.TaskService.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, task.ProjectID)
	return task, nil
}

func (s *CachedTaskService) Delete(ctx context.Context, id uint) error {
	projectID, known := uint(0), false
	if l, ok := s.TaskService.(interface {
		ProjectOf(context.Context, uint) (uint, bool)
	}); ok {
		projectID, known = l.ProjectOf(ctx, id)
	}

	if err := s.TaskService.Delete(ctx, id); err != nil {
		return err
	}
	if known {
		s.invalidate(ctx, projectID)
		return nil
	}
	s.mu.Lock()
	s.epoch++
	s.mu.Unlock()
	if err := s.cache.DeletePattern(ctx, taskListKeyPrefix+"*"); err != nil {
		logging.FromContext(ctx).Warn("task list cache flush failed", "error", err)
	}
	return nil
}

// ProjectDeleted drops the cached list of a project removed by cascade.
func (s *CachedTaskService) ProjectDeleted(ctx context.Context, projectID uint) {
	s.invalidate(ctx, projectID)
}

func (s *CachedTaskService) invalidate(ctx context.Context, projectID uint) {
	s.mu.Lock()
	s.gens[projectID]++
	s.mu.Unlock()
	if err := s.cache.Delete(ctx, taskListKey(projectID)); err != nil {
		logging.FromContext(ctx).Warn("task list cache invalidation failed", "project_id", projectID, "error", err)
	}
}

func (s *CachedTaskService) CacheStats() map[string]interface{} {
	return s.cache.Stats()
}
