package auth

import (
	"flowcrm/internal/common/api"
	"flowcrm/internal/config"

	"github.com/gofiber/fiber/v2"
)

type AuthApi struct {
	controller *AuthController
	config     *config.Config
}

func NewAuthApi(controller *AuthController, config *config.Config) api.Route {
	return &AuthApi{
		controller: controller,
		config:     config,
	}
}

func (h *AuthApi) Setup(app *fiber.App) {
	app.Post("/api/register", h.controller.Register)
	app.Post("/api/login", h.controller.Login)
}
