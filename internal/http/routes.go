package http

import (
	"time"

	"github.com/labstack/echo/v4"

	middleware "taskhub.com/taskhub/internal/http/middlewares"
)

func Register(e *echo.Echo, h *Handler, rateLimitPerMinute int) {
	e.Use(middleware.RateLimiter(rateLimitPerMinute, time.Minute))

	e.GET("/healthz", h.Health)
	e.GET("/stats", h.GetStatistics)

	e.POST("/tasks", h.RegisterTask)
	e.POST("/tasks/batch", h.BatchRegisterTasks)
	e.POST("/tasks/batch-delete", h.BatchDeleteTasks)

	e.GET("/tasks", h.ListTasksByStatus)
	e.GET("/tasks/lookup", h.LookupTask)
	e.GET("/tasks/pending", h.ListPendingTasks)
	e.GET("/tasks/deleted", h.ListDeletedTasks)
	e.GET("/tasks/recent", h.ListRecentTasks)
	e.GET("/tasks/:id", h.GetTask)

	e.PATCH("/tasks/:id/status", h.UpdateTaskStatus)
	e.POST("/tasks/:id/success", h.MarkTaskSuccess)
	e.POST("/tasks/:id/failed", h.MarkTaskFailed)
	e.POST("/tasks/:id/processing", h.MarkTaskProcessing)
	e.POST("/tasks/:id/restore", h.RestoreTask)

	e.DELETE("/tasks/:id", h.DeleteTask)
}
