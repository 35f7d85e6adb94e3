package handlers

import (
	"net/http"

	"project-tracker/internal/models"
	"project-tracker/internal/respond"
	"project-tracker/internal/services"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	taskService services.TaskService
}

type projectRef struct {
	ID uint `json:"id"`
}

// TaskRequest accepts the project either as "projectId" or as a nested
// "project": {"id": ...} object.
type TaskRequest struct {
	Title       string       `json:"title" validate:"required,max=255"`
	Description string       `json:"description"`
	Status      string       `json:"status" validate:"omitempty,oneof=PENDING IN_PROGRESS DONE"`
	DueDate     *models.Date `json:"dueDate"`
	ProjectID   *uint        `json:"projectId"`
	Project     *projectRef  `json:"project"`
}

func (r TaskRequest) projectID() (uint, bool) {
	if r.ProjectID != nil {
		return *r.ProjectID, true
	}
	if r.Project != nil {
		return r.Project.ID, true
	}
	return 0, false
}

func (r TaskRequest) input() services.TaskInput {
	in := services.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		Status:      models.TaskStatus(r.Status),
		DueDate:     r.DueDate,
	}
	in.ProjectID, _ = r.projectID()
	return in
}

func NewTaskHandler(taskService services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// CreateTask assigns the new task to the caller.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req TaskRequest
	if !bind(c, &req) {
		return
	}
	if _, ok := req.projectID(); !ok {
		respond.ValidationError(c, map[string]string{"projectId": "The projectId must not be null"})
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(task))
}

// GetTasks lists the tasks assigned to the caller.
func (h *TaskHandler) GetTasks(c *gin.Context) {
	tasks, err := h.taskService.ListForAssignee(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponses(tasks))
}

func (h *TaskHandler) GetTasksByProject(c *gin.Context) {
	projectID, ok := pathID(c, "projectId")
	if !ok {
		return
	}
	tasks, err := h.taskService.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponses(tasks))
}

// UpdateTask replaces title, description, status and due date. The
// assignee and project never change.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req TaskRequest
	if !bind(c, &req) {
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(task))
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.taskService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
