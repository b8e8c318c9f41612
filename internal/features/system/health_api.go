package system

import (
	"time"

	"flowcrm/internal/common/api"
	"flowcrm/internal/database"

	"github.com/gofiber/fiber/v2"
)

var startedAt = time.Now()

type HealthApi struct {
	Mongo *database.MongodbDB
}

func NewHealthApi(mongo *database.MongodbDB) api.Route {
	return &HealthApi{Mongo: mongo}
}

func (h *HealthApi) Setup(app *fiber.App) {
	app.Get("/healthz", h.health)
}

// health godoc
// @Summary Liveness and database reachability check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /healthz [get]
func (h *HealthApi) health(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := h.Mongo.DB.Client().Ping(c.UserContext(), nil); err != nil {
		dbStatus = "unreachable"
	}

	status := fiber.StatusOK
	if dbStatus != "ok" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status":   dbStatus,
		"uptime_s": int64(time.Since(startedAt).Seconds()),
	})
}
