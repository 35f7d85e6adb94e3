package services

import (
	"context"

	"project-tracker/internal/auth"
	"project-tracker/internal/models"
)

// Ownership decides who may mutate a project or task. The default policy
// lets any authenticated caller mutate any record; Strict limits project
// mutations to the owner and task mutations to the assignee or project
// owner, with ADMIN always allowed.
type Ownership struct {
	Strict bool
}

func caller(ctx context.Context) (*auth.Principal, error) {
	p := auth.PrincipalFrom(ctx)
	if p == nil {
		return nil, ErrUnauthenticated
	}
	return p, nil
}

func (o Ownership) CanModifyProject(p *auth.Principal, project *models.Project) bool {
	if !o.Strict || p.IsAdmin() {
		return true
	}
	return project.OwnedBy(p.UserID)
}

func (o Ownership) CanModifyTask(p *auth.Principal, task *models.Task) bool {
	if !o.Strict || p.IsAdmin() {
		return true
	}
	return task.AssigneeID == p.UserID || task.Project.OwnedBy(p.UserID)
}
