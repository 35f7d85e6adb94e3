package server

import (
	"net/http"

	"project-tracker/internal/handlers"
	"project-tracker/internal/middleware"
	"project-tracker/internal/models"
	"project-tracker/internal/monitoring"
	"project-tracker/internal/respond"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the middleware chain and every route. Authentication runs
// for all requests but never rejects; each group applies its own policy.
func NewRouter(d *Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(d.Logger),
		middleware.RecoveryWithLog(d.Logger),
		middleware.CORS(),
		d.Metrics.Middleware(),
		middleware.Authenticate(d.Tokens, d.Users, middleware.DefaultPublicPaths),
	)

	r.GET("/health", monitoring.HealthHandler(d.Health, d.Metrics))
	r.GET("/health/live", monitoring.LivenessHandler(d.Metrics))
	r.GET("/metrics", monitoring.MetricsHandler(d.Metrics, d.Stats))

	authHandler := handlers.NewAuthHandler(d.Auth)
	r.POST("/auth/login", authHandler.Login)

	userHandler := handlers.NewUserHandler(d.Users)
	users := r.Group("/users", middleware.RequireAuthenticated())
	{
		users.GET("", userHandler.GetUsers)
		users.GET("/:id", userHandler.GetUser)
		users.POST("", middleware.RequireRole(models.RoleAdmin), userHandler.CreateUser)
		users.DELETE("/:id", middleware.RequireRole(models.RoleAdmin), userHandler.DeleteUser)
	}

	projectHandler := handlers.NewProjectHandler(d.Projects)
	projects := r.Group("/projects", middleware.RequireAuthenticated())
	{
		projects.POST("", projectHandler.CreateProject)
		projects.GET("", projectHandler.GetProjects)
		projects.PUT("/:id", projectHandler.UpdateProject)
		projects.DELETE("/:id", projectHandler.DeleteProject)
	}

	taskHandler := handlers.NewTaskHandler(d.Tasks)
	tasks := r.Group("/tasks", middleware.RequireAuthenticated())
	{
		tasks.POST("", taskHandler.CreateTask)
		tasks.GET("", taskHandler.GetTasks)
		tasks.GET("/project/:projectId", taskHandler.GetTasksByProject)
		tasks.PUT("/:id", taskHandler.UpdateTask)
		tasks.DELETE("/:id", taskHandler.DeleteTask)
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "No handler for "+c.Request.Method+" "+c.Request.URL.Path)
	})
	return r
}
