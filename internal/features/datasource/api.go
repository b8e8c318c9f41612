package datasource

import (
	"flowcrm/internal/common/api"
	"flowcrm/internal/config"
	"flowcrm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type DataSourceApi struct {
	controller *DataSourceController
	config     *config.Config
}

func NewDataSourceApi(controller *DataSourceController, config *config.Config) api.Route {
	return &DataSourceApi{
		controller: controller,
		config:     config,
	}
}

func (h *DataSourceApi) Setup(app *fiber.App) {
	group := app.Group("/api/data-sources", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/", h.controller.ListDataSources)
	group.Post("/", h.controller.CreateDataSource)
	group.Get("/:id", h.controller.GetDataSource)
	group.Put("/:id", h.controller.UpdateDataSource)
	group.Delete("/:id", h.controller.DeleteDataSource)
	group.Post("/:id/test", h.controller.TestConnection)
	group.Post("/:id/import", h.controller.ImportLeads)
}
