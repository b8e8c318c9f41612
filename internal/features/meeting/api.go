package meeting

import (
	"flowcrm/internal/common/api"
	"flowcrm/internal/config"
	"flowcrm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type MeetingApi struct {
	controller *MeetingController
	config     *config.Config
}

func NewMeetingApi(controller *MeetingController, config *config.Config) api.Route {
	return &MeetingApi{
		controller: controller,
		config:     config,
	}
}

func (h *MeetingApi) Setup(app *fiber.App) {
	group := app.Group("/api/meetings", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/", h.controller.ListMeetings)
	group.Post("/", h.controller.ScheduleMeeting)
	group.Get("/:id", h.controller.GetMeeting)
	group.Patch("/:id/status", h.controller.UpdateStatus)
	group.Delete("/:id", h.controller.DeleteMeeting)
}
