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

type ProjectInput struct {
	Name        string
	Description string
}

type ProjectService interface {
	Create(ctx context.Context, in ProjectInput) (*models.Project, error)
	ListForOwner(ctx context.Context) ([]models.Project, error)
	Update(ctx context.Context, id uint, in ProjectInput) (*models.Project, error)
	Delete(ctx context.Context, id uint) error
}

// ProjectDeleteListener is told about a project after its deletion committed.
type ProjectDeleteListener interface {
	ProjectDeleted(ctx context.Context, projectID uint)
}

type ProjectServiceImpl struct {
	db        *gorm.DB
	projects  *repositories.ProjectRepository
	tasks     *repositories.TaskRepository
	ownership Ownership
	listeners []ProjectDeleteListener
}

func NewProjectService(db *gorm.DB, ownership Ownership, listeners ...ProjectDeleteListener) *ProjectServiceImpl {
	return &ProjectServiceImpl{
		db:        db,
		projects:  repositories.NewProjectRepository(db),
		tasks:     repositories.NewTaskRepository(db),
		ownership: ownership,
		listeners: listeners,
	}
}

func (s *ProjectServiceImpl) Create(ctx context.Context, in ProjectInput) (*models.Project, error) {
	p, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	project := &models.Project{Name: in.Name, Description: in.Description, OwnerID: p.UserID}
	project.Stamp(p.Email)
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return s.projects.FindByID(ctx, project.ID)
}

// ListForOwner returns the caller's projects ordered by id.
func (s *ProjectServiceImpl) ListForOwner(ctx context.Context) ([]models.Project, error) {
	p, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	return s.projects.FindByOwner(ctx, p.UserID)
}

func (s *ProjectServiceImpl) Update(ctx context.Context, id uint, in ProjectInput) (*models.Project, error) {
	p, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	project, err := s.projects.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFound("Project", id)
	}
	if err != nil {
		return nil, err
	}
	if !s.ownership.CanModifyProject(p, project) {
		return nil, ErrForbidden
	}

	project.Name = in.Name
	project.Description = in.Description
	project.Touch(p.Email)
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return s.projects.FindByID(ctx, id)
}

// Delete removes the project and every task referencing it in one
// transaction. The project row is locked first, so of two concurrent
// deletes one cascades and the other sees NotFound.
func (s *ProjectServiceImpl) Delete(ctx context.Context, id uint) error {
	p, err := caller(ctx)
	if err != nil {
		return err
	}

	var removed int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		projects := s.projects.WithTx(tx)
		tasks := s.tasks.WithTx(tx)

		project, err := projects.LockByID(ctx, id)
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Project", id)
		}
		if err != nil {
			return err
		}
		if !s.ownership.CanModifyProject(p, project) {
			return ErrForbidden
		}

		children, err := tasks.FindByProject(ctx, id)
		if err != nil {
			return fmt.Errorf("list project tasks: %w", err)
		}
		for i := range children {
			if err := tasks.Delete(ctx, &children[i]); err != nil {
				return fmt.Errorf("delete task %d: %w", children[i].ID, err)
			}
		}
		removed = len(children)

		n, err := projects.DeleteByID(ctx, id)
		if err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		if n == 0 {
			return notFound("Project", id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, l := range s.listeners {
		l.ProjectDeleted(ctx, id)
	}
	logging.FromContext(ctx).Info("project deleted", "project_id", id, "tasks_deleted", removed)
	return nil
}
