package task

import (
	"flowcrm/internal/common/api"
	"flowcrm/internal/config"
	"flowcrm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type TaskApi struct {
	controller *TaskController
	config     *config.Config
}

func NewTaskApi(controller *TaskController, config *config.Config) api.Route {
	return &TaskApi{
		controller: controller,
		config:     config,
	}
}

func (h *TaskApi) Setup(app *fiber.App) {
	group := app.Group("/api/tasks", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/", h.controller.ListTasks)
	group.Post("/", h.controller.CreateTask)
	group.Get("/:id", h.controller.GetTask)
	group.Post("/:id/complete", h.controller.CompleteTask)
	group.Delete("/:id", h.controller.DeleteTask)
}
