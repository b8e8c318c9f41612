package quote

import (
	"flowcrm/internal/common/api"
	"flowcrm/internal/config"
	"flowcrm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type QuoteApi struct {
	controller *QuoteController
	config     *config.Config
}

func NewQuoteApi(controller *QuoteController, config *config.Config) api.Route {
	return &QuoteApi{
		controller: controller,
		config:     config,
	}
}

func (h *QuoteApi) Setup(app *fiber.App) {
	group := app.Group("/api/quotes", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/", h.controller.ListQuotes)
	group.Post("/", h.controller.CreateQuote)
	group.Get("/:id", h.controller.GetQuote)
	group.Post("/:id/send", h.controller.SendQuote)
	group.Post("/:id/accept", h.controller.AcceptQuote)
	group.Post("/:id/paid", h.controller.MarkPaid)
	group.Delete("/:id", h.controller.DeleteQuote)
}
