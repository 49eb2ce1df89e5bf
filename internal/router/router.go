package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/tasklist/api/handler"
)

type Handlers struct {
	Task    *apiHandler.TaskHandler
	Health  *apiHandler.HealthHandler
	Events  *apiHandler.EventsHandler
	Metrics fasthttp.RequestHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)
	if handlers.Metrics != nil {
		r.GET("/metrics", handlers.Metrics)
	}

	// Protected routes
	r.GET("/api/v1/tasks", authMiddleware(handlers.Task.GetTasks))
	r.POST("/api/v1/tasks", authMiddleware(handlers.Task.CreateTask))
	r.DELETE("/api/v1/tasks", authMiddleware(handlers.Task.DeleteAllTasks))
	r.GET("/api/v1/tasks/{id}", authMiddleware(handlers.Task.GetTask))
	r.DELETE("/api/v1/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))
	r.POST("/api/v1/tasks/{id}/toggle", authMiddleware(handlers.Task.ToggleTask))
	r.PUT("/api/v1/tasks/{id}/reminder", authMiddleware(handlers.Task.SetReminder))
	r.DELETE("/api/v1/tasks/{id}/reminder", authMiddleware(handlers.Task.CancelReminder))

	if handlers.Events != nil {
		r.GET("/api/v1/events", authMiddleware(handlers.Events.Stream))
	}

	return r
}
