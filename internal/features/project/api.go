package project

import (
	"flowcrm/internal/common/api"
	"flowcrm/internal/config"
	"flowcrm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ProjectApi struct {
	controller *ProjectController
	config     *config.Config
}

func NewProjectApi(controller *ProjectController, config *config.Config) api.Route {
	return &ProjectApi{
		controller: controller,
		config:     config,
	}
}

func (h *ProjectApi) Setup(app *fiber.App) {
	group := app.Group("/api/projects", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/", h.controller.ListProjects)
	group.Post("/", h.controller.CreateProject)
	group.Get("/:id", h.controller.GetProject)
	group.Patch("/:id", h.controller.UpdateProject)
	group.Delete("/:id", h.controller.DeleteProject)
}
