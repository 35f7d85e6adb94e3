package services

import (
	"context"
	"errors"
	"fmt"

	"project-tracker/internal/logging"
	"project-tracker/internal/models"
	"project-tracker/internal/repositories"

	"gorm.io/gorm"
)

type TaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	DueDate     *models.Date
	ProjectID   uint
}

type TaskService interface {
	Create(ctx context.Context, in TaskInput) (*models.Task, error)
	ListForAssignee(ctx context.Context) ([]models.Task, error)
	ListByProject(ctx context.Context, projectID uint) ([]models.Task, error)
	Update(ctx context.Context, id uint, in TaskInput) (*models.Task, error)
	Delete(ctx context.Context, id uint) error
}

type TaskServiceImpl struct {
	tasks     *repositories.TaskRepository
	projects  *repositories.ProjectRepository
	ownership Ownership
}

func NewTaskService(db *gorm.DB, ownership Ownership) *TaskServiceImpl {
	return &TaskServiceImpl{
		tasks:     repositories.NewTaskRepository(db),
		projects:  repositories.NewProjectRepository(db),
		ownership: ownership,
	}
}

// Create assigns the task to the caller inside an existing project.
func (s *TaskServiceImpl) Create(ctx context.Context, in TaskInput) (*models.Task, error) {
	p, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	exists, err := s.projects.ExistsByID(ctx, in.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("check project: %w", err)
	}
	if !exists {
		return nil, notFound("Project", in.ProjectID)
	}

	status := in.Status
	if status == "" {
		status = models.TaskStatusPending
	}
	task := &models.Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
		DueDate:     in.DueDate,
		AssigneeID:  p.UserID,
		ProjectID:   in.ProjectID,
	}
	task.Stamp(p.Email)
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return s.tasks.FindByID(ctx, task.ID)
}

func (s *TaskServiceImpl) ListForAssignee(ctx context.Context) ([]models.Task, error) {
	p, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	return s.tasks.FindByAssigneeEmail(ctx, p.Email)
}

// ListByProject returns an empty list for unknown projects.
func (s *TaskServiceImpl) ListByProject(ctx context.Context, projectID uint) ([]models.Task, error) {
	return s.tasks.FindByProject(ctx, projectID)
}

func (s *TaskServiceImpl) Update(ctx context.Context, id uint, in TaskInput) (*models.Task, error) {
	p, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	task, err := s.tasks.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFound("Task", id)
	}
	if err != nil {
		return nil, err
	}
	if !s.ownership.CanModifyTask(p, task) {
		return nil, ErrForbidden
	}

	task.Title = in.Title
	task.Description = in.Description
	if in.Status != "" {
		task.Status = in.Status
	}
	task.DueDate = in.DueDate
	task.Touch(p.Email)
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.tasks.FindByID(ctx, id)
}

func (s *TaskServiceImpl) Delete(ctx context.Context, id uint) error {
	p, err := caller(ctx)
	if err != nil {
		return err
	}
	task, err := s.tasks.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound("Task", id)
	}
	if err != nil {
		return err
	}
	if !s.ownership.CanModifyTask(p, task) {
		return ErrForbidden
	}

	n, err := s.tasks.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n == 0 {
		return notFound("Task", id)
	}
	logging.FromContext(ctx).Info("task deleted", "task_id", id, "project_id", task.ProjectID)
	return nil
}

// ProjectOf reports the project a task belongs to.
func (s *TaskServiceImpl) ProjectOf(ctx context.Context, id uint) (uint, bool) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return 0, false
	}
	return task.ProjectID, true
}
