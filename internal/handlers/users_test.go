package handlers_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"project-tracker/internal/auth"
	"project-tracker/internal/handlers"
	"project-tracker/internal/models"
	"project-tracker/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockUserService struct {
	err        error
	registered services.RegistrationRequest
}

func (m *MockUserService) Register(_ context.Context, req services.RegistrationRequest) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.registered = req
	return &models.User{ID: 4, Username: req.Username, Email: req.Email, Role: req.Role, PasswordHash: "hash"}, nil
}

func (m *MockUserService) List(context.Context) ([]models.User, error) {
	return []models.User{{ID: 1, Username: "root", Email: "root@x.com", Role: models.RoleAdmin}}, m.err
}

func (m *MockUserService) GetByID(_ context.Context, id uint) (*models.User, error) {
	if id != 1 {
		return nil, &services.NotFoundError{Resource: "User", ID: id}
	}
	return &models.User{ID: 1, Username: "root", Email: "root@x.com", Role: models.RoleAdmin}, nil
}

func (m *MockUserService) Delete(_ context.Context, id uint) error {
	return m.err
}

func (m *MockUserService) ResolveIdentity(context.Context, string) (*auth.Principal, error) {
	return nil, m.err
}

func setupUserHandler() (*MockUserService, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	mockService := &MockUserService{}
	handler := handlers.NewUserHandler(mockService)
	router := gin.New()
	router.POST("/users", handler.CreateUser)
	router.GET("/users", handler.GetUsers)
	router.GET("/users/:id", handler.GetUser)
	router.DELETE("/users/:id", handler.DeleteUser)
	return mockService, router
}

func TestCreateUser(t *testing.T) {
	mockService, router := setupUserHandler()

	w := doJSON(router, "POST", "/users", `{"username":"bob","email":"bob@x.com","password":"secret1","role":"USER"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RoleUser, mockService.registered.Role)
	assert.JSONEq(t, `{"id":4,"username":"bob","email":"bob@x.com","role":"USER"}`, w.Body.String())
}

func TestCreateUserValidation(t *testing.T) {
	_, router := setupUserHandler()

	w := doJSON(router, "POST", "/users", `{"username":"","email":"not-an-email","password":"abc","role":"ROOT"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "The username must not be blank", body.Errors["username"])
	assert.Equal(t, "The email must be a valid email address", body.Errors["email"])
	assert.Equal(t, "The password must be at least 6 characters long", body.Errors["password"])
	assert.Equal(t, "The role must be one of: ADMIN USER", body.Errors["role"])
}

func TestCreateUserUsernameTooLong(t *testing.T) {
	_, router := setupUserHandler()
	long := make([]byte, 51)
	for i := range long {
		long[i] = 'a'
	}

	w := doJSON(router, "POST", "/users", `{"username":"`+string(long)+`","email":"a@x.com","password":"secret1","role":"USER"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "The username must be at most 50 characters long", decodeError(t, w).Errors["username"])
}

func TestCreateUserPasswordTooLong(t *testing.T) {
	mockService, router := setupUserHandler()

	w := doJSON(router, "POST", "/users", `{"username":"bob","email":"bob@x.com","password":"`+strings.Repeat("p", 73)+`","role":"USER"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "The password must be at most 72 characters long", decodeError(t, w).Errors["password"])
	assert.Empty(t, mockService.registered.Email, "service must not be called")
}

func TestCreateUserPasswordTooManyBytes(t *testing.T) {
	mockService, router := setupUserHandler()
	mockService.err = &services.ValidationError{Field: "password", Message: "The password must be at most 72 bytes long"}

	// 40 two-byte runes pass the character limit but exceed bcrypt's byte limit.
	w := doJSON(router, "POST", "/users", `{"username":"bob","email":"bob@x.com","password":"`+strings.Repeat("é", 40)+`","role":"USER"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "Validation failed", body.Message)
	assert.Equal(t, "The password must be at most 72 bytes long", body.Errors["password"])
}

func TestCreateUserConflict(t *testing.T) {
	mockService, router := setupUserHandler()
	mockService.err = &services.ConflictError{Message: "Email bob@x.com is already registered"}

	w := doJSON(router, "POST", "/users", `{"username":"bob","email":"bob@x.com","password":"secret1","role":"USER"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetUsers(t *testing.T) {
	_, router := setupUserHandler()

	w := doJSON(router, "GET", "/users", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.JSONEq(t, `[{"id":1,"username":"root","email":"root@x.com","role":"ADMIN"}]`, w.Body.String())
}

func TestGetUser(t *testing.T) {
	_, router := setupUserHandler()

	assert.Equal(t, http.StatusOK, doJSON(router, "GET", "/users/1", "").Code)
	assert.Equal(t, http.StatusNotFound, doJSON(router, "GET", "/users/2", "").Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(router, "GET", "/users/x", "").Code)
}

func TestDeleteUser(t *testing.T) {
	mockService, router := setupUserHandler()

	assert.Equal(t, http.StatusNoContent, doJSON(router, "DELETE", "/users/1", "").Code)

	mockService.err = &services.ConflictError{Message: "User 1 still owns projects or tasks"}
	assert.Equal(t, http.StatusConflict, doJSON(router, "DELETE", "/users/1", "").Code)
}
