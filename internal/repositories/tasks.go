package repositories

import (
	"context"

	"project-tracker/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) WithTx(tx *gorm.DB) *TaskRepository {
	return &TaskRepository{db: tx}
}

func (r *TaskRepository) withRefs(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Assignee").Preload("Project")
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error
}

// FindByID loads the task with its assignee and project.
func (r *TaskRepository) FindByID(ctx context.Context, id uint) (*models.Task, error) {
	var task models.Task
	if err := r.withRefs(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

func (r *TaskRepository) ExistsByID(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *TaskRepository) FindByAssigneeEmail(ctx context.Context, email string) ([]models.Task, error) {
	var tasks []models.Task
	err := r.withRefs(ctx).
		Joins("JOIN users ON users.id = tasks.assignee_id").
		Where("users.email = ?", email).
		Order("tasks.id asc").
		Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepository) FindByProject(ctx context.Context, projectID uint) ([]models.Task, error) {
	var tasks []models.Task
	err := r.withRefs(ctx).Where("project_id = ?", projectID).Order("id asc").Find(&tasks).Error
	return tasks, err
}

// Update writes title, description, status and due date only.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Model(task).
		Select("title", "description", "status", "due_date", "updated_at", "updated_by").
		Updates(map[string]interface{}{
			"title":       task.Title,
			"description": task.Description,
			"status":      task.Status,
			"due_date":    task.DueDate,
			"updated_by":  task.UpdatedBy,
		}).Error
}

// Delete removes one task row.
func (r *TaskRepository) Delete(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Where("id = ?", task.ID).Delete(&models.Task{}).Error
}

func (r *TaskRepository) DeleteByID(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Task{})
	return res.RowsAffected, res.Error
}

func (r *TaskRepository) CountByProject(ctx context.Context, projectID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Task{}).Where("project_id = ?", projectID).Count(&count).Error
	return count, err
}
