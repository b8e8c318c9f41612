package datasource

import (
	"flowcrm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type DataSourceController struct {
	Service DataSourceService
}

func NewDataSourceController(service DataSourceService) *DataSourceController {
	return &DataSourceController{Service: service}
}

// CreateDataSource godoc
// @Summary Register an external lead source
// @Tags datasources
// @Accept json
// @Produce json
// @Success 201 {object} DataSource
// @Router /api/data-sources [post]
func (ctrl *DataSourceController) CreateDataSource(c *fiber.Ctx) error {
	var source DataSource
	if err := c.BodyParser(&source); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	source.TenantID = middleware.Claims(c).Tenant()

	if err := ctrl.Service.CreateDataSource(c.UserContext(), &source); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	// Never echo credentials back.
	source.Password = ""
	return c.Status(fiber.StatusCreated).JSON(source)
}

// ListDataSources godoc
// @Summary List external lead sources
// @Tags datasources
// @Produce json
// @Success 200 {array} DataSource
// @Router /api/data-sources [get]
func (ctrl *DataSourceController) ListDataSources(c *fiber.Ctx) error {
	sources, err := ctrl.Service.ListDataSources(c.UserContext(), middleware.Claims(c).Tenant())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	for i := range sources {
		sources[i].Password = ""
	}
	return c.JSON(fiber.Map{"data": sources})
}

// GetDataSource godoc
// @Summary Get an external lead source
// @Tags datasources
// @Produce json
// @Param id path string true "Data source ID"
// @Success 200 {object} DataSource
// @Router /api/data-sources/{id} [get]
func (ctrl *DataSourceController) GetDataSource(c *fiber.Ctx) error {
	source, err := ctrl.Service.GetDataSource(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if source == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "data source not found"})
	}
	source.Password = ""
	return c.JSON(source)
}

// UpdateDataSource godoc
// @Summary Update an external lead source
// @Tags datasources
// @Accept json
// @Param id path string true "Data source ID"
// @Router /api/data-sources/{id} [put]
func (ctrl *DataSourceController) UpdateDataSource(c *fiber.Ctx) error {
	var updates map[string]interface{}
	if err := c.BodyParser(&updates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := ctrl.Service.UpdateDataSource(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id"), updates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "data source updated"})
}

// DeleteDataSource godoc
// @Summary Delete an external lead source
// @Tags datasources
// @Param id path string true "Data source ID"
// @Router /api/data-sources/{id} [delete]
func (ctrl *DataSourceController) DeleteDataSource(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteDataSource(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "data source deleted"})
}

// TestConnection godoc
// @Summary Test connectivity of a lead source
// @Tags datasources
// @Param id path string true "Data source ID"
// @Router /api/data-sources/{id}/test [post]
func (ctrl *DataSourceController) TestConnection(c *fiber.Ctx) error {
	if err := ctrl.Service.TestConnection(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "connection ok"})
}

// ImportLeads godoc
// @Summary Import leads from an external source now
// @Tags datasources
// @Param id path string true "Data source ID"
// @Router /api/data-sources/{id}/import [post]
func (ctrl *DataSourceController) ImportLeads(c *fiber.Ctx) error {
	imported, err := ctrl.Service.ImportLeads(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"imported": imported})
}
