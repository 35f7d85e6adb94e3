package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"project-tracker/internal/handlers"
	"project-tracker/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockAuthService struct {
	email, password string
}

func (m *MockAuthService) Login(_ context.Context, email, password string) (string, error) {
	if email != m.email || password != m.password {
		return "", services.ErrInvalidCredentials
	}
	return "signed-token", nil
}

func setupAuthHandler() *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewAuthHandler(&MockAuthService{email: "alice@x.com", password: "secret1"})
	router := gin.New()
	router.POST("/auth/login", handler.Login)
	return router
}

func TestLogin(t *testing.T) {
	router := setupAuthHandler()

	w := doJSON(router, "POST", "/auth/login", `{"email":"alice@x.com","password":"secret1"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"token":"signed-token"}`, w.Body.String())
}

func TestLoginBadCredentials(t *testing.T) {
	router := setupAuthHandler()

	w := doJSON(router, "POST", "/auth/login", `{"email":"alice@x.com","password":"wrong"}`)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password", decodeError(t, w).Message)
}

func TestLoginValidation(t *testing.T) {
	router := setupAuthHandler()

	w := doJSON(router, "POST", "/auth/login", `{"email":"alice","password":""}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	assert.Contains(t, body.Errors, "email")
	assert.Contains(t, body.Errors, "password")
}
