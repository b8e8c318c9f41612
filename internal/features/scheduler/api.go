package scheduler

import (
	"flowcrm/internal/common/api"
	"flowcrm/internal/config"
	"flowcrm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type SchedulerApi struct {
	controller *SchedulerController
	config     *config.Config
}

func NewSchedulerApi(controller *SchedulerController, config *config.Config) api.Route {
	return &SchedulerApi{
		controller: controller,
		config:     config,
	}
}

func (h *SchedulerApi) Setup(app *fiber.App) {
	group := app.Group("/api/schedules", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/", h.controller.ListSchedules)
	group.Post("/", h.controller.CreateSchedule)
	group.Get("/:id", h.controller.GetSchedule)
	group.Put("/:id", h.controller.UpdateSchedule)
	group.Delete("/:id", h.controller.DeleteSchedule)
	group.Post("/:id/run", h.controller.RunSchedule)
}
