package repositories

import (
	"context"

	"project-tracker/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) WithTx(tx *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: tx}
}

func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(project).Error
}

// FindByID loads the project together with its owner.
func (r *ProjectRepository) FindByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).Preload("Owner").Where("id = ?", id).First(&project).Error; err != nil {
		return nil, translate(err)
	}
	return &project, nil
}

func (r *ProjectRepository) ExistsByID(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// LockByID loads the project row under SELECT ... FOR UPDATE on dialects that
// support row locks. Other dialects serialize writers at the connection level.
func (r *ProjectRepository) LockByID(ctx context.Context, id uint) (*models.Project, error) {
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var project models.Project
	if err := q.Where("id = ?", id).First(&project).Error; err != nil {
		return nil, translate(err)
	}
	return &project, nil
}

func (r *ProjectRepository) FindByOwner(ctx context.Context, ownerID uint) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.WithContext(ctx).Preload("Owner").Where("owner_id = ?", ownerID).Order("id asc").Find(&projects).Error
	return projects, err
}

// Update writes the mutable columns only.
func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Model(project).
		Select("name", "description", "updated_at", "updated_by").
		Updates(map[string]interface{}{
			"name":        project.Name,
			"description": project.Description,
			"updated_by":  project.UpdatedBy,
		}).Error
}

// DeleteByID returns the number of deleted rows.
func (r *ProjectRepository) DeleteByID(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Project{})
	return res.RowsAffected, res.Error
}
