package lead

import (
	"flowcrm/internal/common/api"
	"flowcrm/internal/config"
	"flowcrm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type LeadApi struct {
	controller *LeadController
	config     *config.Config
}

func NewLeadApi(controller *LeadController, config *config.Config) api.Route {
	return &LeadApi{
		controller: controller,
		config:     config,
	}
}

func (h *LeadApi) Setup(app *fiber.App) {
	group := app.Group("/api/leads", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/", h.controller.ListLeads)
	group.Post("/", h.controller.CreateLead)
	group.Get("/:id", h.controller.GetLead)
	group.Put("/:id", h.controller.UpdateLead)
	group.Delete("/:id", h.controller.DeleteLead)
	group.Patch("/:id/status", h.controller.UpdateStatus)
	group.Post("/:id/convert", h.controller.ConvertLead)
}
