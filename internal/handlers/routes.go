package handlers

import (
	"github.com/gin-gonic/gin"

	"taskmanager/internal/middleware"
	"taskmanager/internal/monitoring"
	"taskmanager/internal/web"
)

// NewRouter builds the engine with middleware, templates and every route.
func NewRouter(h *Handler) (*gin.Engine, error) {
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.HTMLRender = renderer
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		monitoring.RequestMetricsMiddleware(),
		web.FlashMiddleware(h.signer.FlashKey()),
		middleware.SessionMiddleware(h.signer, h.store),
	)
	router.NoRoute(h.NotFound)

	router.GET("/health", h.HealthCheck)
	router.GET("/api/status", Status)

	router.GET("/register", h.RegisterPage)
	router.POST("/register", h.Register)
	router.GET("/login", h.LoginPage)
	router.POST("/login", h.Login)
	router.GET("/logout", h.Logout)

	authed := router.Group("/", middleware.RequireLogin())
	authed.GET("/", h.Index)
	authed.GET("/tasks/new", h.NewTaskPage)
	authed.POST("/tasks/new", h.CreateTask)
	authed.GET("/tasks/:id/edit", h.EditTaskPage)
	authed.POST("/tasks/:id/edit", h.UpdateTask)
	authed.POST("/tasks/:id/toggle", h.ToggleTask)
	authed.POST("/tasks/:id/delete", h.DeleteTask)

	monitor := router.Group("/monitor", h.requireMonitoringKey)
	monitor.GET("/status", h.MonitorStatus)
	monitor.GET("/storage", h.MonitorStorage)
	monitor.GET("/connections", h.MonitorConnections)
	monitor.GET("/runtime", h.MonitorRuntime)
	monitor.GET("/users", h.MonitorUsers)
	monitor.GET("/all", h.MonitorAll)
	monitor.GET("/snapshot", h.MonitorSnapshot)

	return router, nil
}
