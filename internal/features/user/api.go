package user

import (
	"flowcrm/internal/common/api"
	"flowcrm/internal/config"
	"flowcrm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type UserApi struct {
	controller *UserController
	config     *config.Config
}

func NewUserApi(controller *UserController, config *config.Config) api.Route {
	return &UserApi{
		controller: controller,
		config:     config,
	}
}

func (h *UserApi) Setup(app *fiber.App) {
	group := app.Group("/api/users", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/", h.controller.ListUsers)
	group.Get("/me", h.controller.Me)
	group.Get("/:id", h.controller.GetUser)
	group.Put("/:id", h.controller.UpdateUser)
	group.Patch("/:id/status", h.controller.SetStatus)
}
