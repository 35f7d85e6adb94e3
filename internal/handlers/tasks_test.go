package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"project-tracker/internal/handlers"
	"project-tracker/internal/models"
	"project-tracker/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockTaskService struct {
	err     error
	tasks   []models.Task
	created services.TaskInput
	updated services.TaskInput
	deleted uint
}

func (m *MockTaskService) Create(_ context.Context, in services.TaskInput) (*models.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.created = in
	return &models.Task{
		ID:          7,
		Title:       in.Title,
		Description: in.Description,
		Status:      models.TaskStatusPending,
		DueDate:     in.DueDate,
		ProjectID:   in.ProjectID,
		Assignee:    models.User{Username: "alice"},
	}, nil
}

func (m *MockTaskService) ListForAssignee(context.Context) ([]models.Task, error) {
	return m.tasks, m.err
}

func (m *MockTaskService) ListByProject(_ context.Context, projectID uint) ([]models.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Task
	for _, t := range m.tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MockTaskService) Update(_ context.Context, id uint, in services.TaskInput) (*models.Task, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.updated = in
	return &models.Task{ID: id, Title: in.Title, Status: in.Status, ProjectID: 3}, nil
}

func (m *MockTaskService) Delete(_ context.Context, id uint) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = id
	return nil
}

func setupTaskHandler() (*MockTaskService, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	mockService := &MockTaskService{}
	handler := handlers.NewTaskHandler(mockService)
	router := gin.New()
	router.POST("/tasks", handler.CreateTask)
	router.GET("/tasks", handler.GetTasks)
	router.GET("/tasks/project/:projectId", handler.GetTasksByProject)
	router.PUT("/tasks/:id", handler.UpdateTask)
	router.DELETE("/tasks/:id", handler.DeleteTask)
	return mockService, router
}

func doJSON(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Status  int               `json:"status"`
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCreateTask(t *testing.T) {
	mockService, router := setupTaskHandler()

	w := doJSON(router, "POST", "/tasks", `{"title":"Write docs","description":"d","projectId":3,"dueDate":"2026-12-01"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(3), mockService.created.ProjectID)
	require.NotNil(t, mockService.created.DueDate)
	assert.Equal(t, "2026-12-01", mockService.created.DueDate.String())

	var resp handlers.TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint(7), resp.ID)
	assert.Equal(t, "alice", resp.AssignedTo)
	assert.Equal(t, uint(3), resp.Project)
	assert.Equal(t, models.TaskStatusPending, resp.Status)
	assert.Contains(t, w.Body.String(), `"dueDate":"2026-12-01"`)
}

func TestCreateTaskNestedProject(t *testing.T) {
	mockService, router := setupTaskHandler()

	w := doJSON(router, "POST", "/tasks", `{"title":"Nested","project":{"id":9}}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(9), mockService.created.ProjectID)
}

func TestCreateTaskInvalidJSON(t *testing.T) {
	_, router := setupTaskHandler()

	w := doJSON(router, "POST", "/tasks", "invalid json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTaskValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing title", `{"projectId":1}`, "title"},
		{"bad status", `{"title":"x","status":"LATER","projectId":1}`, "status"},
		{"missing project", `{"title":"x"}`, "projectId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, router := setupTaskHandler()
			w := doJSON(router, "POST", "/tasks", tt.body)

			require.Equal(t, http.StatusBadRequest, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, "Validation failed", body.Message)
			assert.Contains(t, body.Errors, tt.field)
		})
	}
}

func TestCreateTaskBadDueDate(t *testing.T) {
	_, router := setupTaskHandler()

	w := doJSON(router, "POST", "/tasks", `{"title":"x","projectId":1,"dueDate":"01/12/2026"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTaskUnknownProject(t *testing.T) {
	mockService, router := setupTaskHandler()
	mockService.err = &services.NotFoundError{Resource: "Project", ID: uint(42)}

	w := doJSON(router, "POST", "/tasks", `{"title":"x","projectId":42}`)

	require.Equal(t, http.StatusNotFound, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "Project with ID 42 not found", body.Message)
	assert.Equal(t, "Not Found", body.Error)
}

func TestGetTasks(t *testing.T) {
	mockService, router := setupTaskHandler()
	mockService.tasks = []models.Task{
		{ID: 1, Title: "Task 1", Status: models.TaskStatusPending, ProjectID: 1, AuditFields: models.AuditFields{CreatedAt: time.Now()}},
		{ID: 2, Title: "Task 2", Status: models.TaskStatusDone, ProjectID: 2},
	}

	w := doJSON(router, "GET", "/tasks", "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp []handlers.TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp, 2)
}

func TestGetTasksByProject(t *testing.T) {
	mockService, router := setupTaskHandler()
	mockService.tasks = []models.Task{
		{ID: 1, Title: "Task 1", ProjectID: 1},
		{ID: 2, Title: "Task 2", ProjectID: 2},
	}

	w := doJSON(router, "GET", "/tasks/project/2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp []handlers.TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, uint(2), resp[0].ID)

	w = doJSON(router, "GET", "/tasks/project/99", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = doJSON(router, "GET", "/tasks/project/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateTask(t *testing.T) {
	mockService, router := setupTaskHandler()

	w := doJSON(router, "PUT", "/tasks/5", `{"title":"Updated Task","status":"DONE"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Updated Task", mockService.updated.Title)
	assert.Equal(t, models.TaskStatusDone, mockService.updated.Status)
}

func TestUpdateTaskForbidden(t *testing.T) {
	mockService, router := setupTaskHandler()
	mockService.err = services.ErrForbidden

	w := doJSON(router, "PUT", "/tasks/5", `{"title":"x"}`)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access denied", decodeError(t, w).Message)
}

func TestDeleteTask(t *testing.T) {
	mockService, router := setupTaskHandler()

	w := doJSON(router, "DELETE", "/tasks/12", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, uint(12), mockService.deleted)
}

func TestDeleteTaskNotFound(t *testing.T) {
	mockService, router := setupTaskHandler()
	mockService.err = &services.NotFoundError{Resource: "Task", ID: uint(12)}

	w := doJSON(router, "DELETE", "/tasks/12", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteTaskInvalidID(t *testing.T) {
	_, router := setupTaskHandler()

	w := doJSON(router, "DELETE", "/tasks/not-a-number", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnexpectedError(t *testing.T) {
	mockService, router := setupTaskHandler()
	mockService.err = errors.New("connection reset")

	w := doJSON(router, "GET", "/tasks", "")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Unexpected error", decodeError(t, w).Message)
	assert.NotContains(t, w.Body.String(), "connection reset")
}
