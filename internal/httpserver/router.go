package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"projecthub/internal/handler"
	"projecthub/pkg/otel"
	"projecthub/pkg/rbac"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Auth           *handler.AuthHandler
	Projects       *handler.ProjectHandler
	Board          *handler.BoardHandler
	Register       *handler.RegisterHandler
	ChangeRequests *handler.ChangeRequestHandler
}

// ReadyCheck is one dependency probed by /readyz.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

func NewRouter(h Handlers, jwtSecret string, logger *zap.Logger, checks ...ReadyCheck) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())
	r.Use(otel.GinMiddleware())
	r.Use(RequestLogger(logger))
	r.Use(MetricsMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		for _, rc := range checks {
			if err := rc.Check(ctx); err != nil {
				logger.Warn("Readiness check failed", zap.String("dependency", rc.Name), zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": rc.Name + "_not_ready", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	r.POST("/register", h.Auth.Register)
	r.POST("/login", h.Auth.Login)

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.GET("/projects", h.Projects.ListProjects)
		auth.POST("/projects", RequirePermission(rbac.PermissionCreateProject), h.Projects.CreateProject)
		auth.GET("/projects/:id", h.Projects.GetProject)
		auth.PATCH("/projects/:id", RequirePermission(rbac.PermissionUpdateProject), h.Projects.UpdateProject)
		auth.GET("/projects/:id/health", h.Projects.GetHealth)

		auth.GET("/projects/:id/board", h.Board.GetBoard)
		auth.POST("/projects/:id/tasks", RequirePermission(rbac.PermissionWriteTask), h.Board.CreateTask)
		auth.GET("/tasks/:id", h.Board.GetTask)
		auth.PATCH("/tasks/:id", RequirePermission(rbac.PermissionWriteTask), h.Board.UpdateTask)
		auth.POST("/tasks/:id/move", RequirePermission(rbac.PermissionWriteTask), h.Board.MoveTask)
		auth.DELETE("/tasks/:id", RequirePermission(rbac.PermissionWriteTask), h.Board.DeleteTask)

		auth.GET("/projects/:id/risks", h.Register.ListEntries)
		auth.GET("/projects/:id/risks/summary", h.Register.Summary)
		auth.POST("/projects/:id/risks", RequirePermission(rbac.PermissionWriteRisk), h.Register.AddEntry)
		auth.PATCH("/risks/:id", RequirePermission(rbac.PermissionWriteRisk), h.Register.UpdateEntry)
		auth.DELETE("/risks/:id", RequirePermission(rbac.PermissionWriteRisk), h.Register.DeleteEntry)

		auth.GET("/projects/:id/change-requests", h.ChangeRequests.List)
		auth.POST("/projects/:id/change-requests", RequirePermission(rbac.PermissionCreatePCR), h.ChangeRequests.Create)
		auth.GET("/change-requests/:id", h.ChangeRequests.Get)
		auth.POST("/change-requests/:id/resolve", RequirePermission(rbac.PermissionResolvePCR), h.ChangeRequests.Resolve)
		auth.POST("/change-requests/:id/reapply", RequirePermission(rbac.PermissionResolvePCR), h.ChangeRequests.Reapply)
		auth.PATCH("/change-requests/:id/notes", RequirePermission(rbac.PermissionResolvePCR), h.ChangeRequests.UpdateNotes)
		auth.POST("/change-requests/:id/document", RequirePermission(rbac.PermissionGenerateDoc), h.ChangeRequests.GenerateDocument)
	}

	return r
}
