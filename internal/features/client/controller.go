package client

import (
	"strconv"

	"flowcrm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ClientController struct {
	Service ClientService
}

func NewClientController(service ClientService) *ClientController {
	return &ClientController{Service: service}
}

// CreateClient godoc
// @Summary Create a client
// @Tags clients
// @Accept json
// @Produce json
// @Success 201 {object} Client
// @Router /api/clients [post]
func (ctrl *ClientController) CreateClient(c *fiber.Ctx) error {
	var client Client
	if err := c.BodyParser(&client); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	claims := middleware.Claims(c)
	client.TenantID = claims.Tenant()
	actor := claims.User()

	if err := ctrl.Service.CreateClient(c.UserContext(), &client, &actor); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(client)
}

// GetClient godoc
// @Summary Get a client by id
// @Tags clients
// @Produce json
// @Param id path string true "Client ID"
// @Success 200 {object} Client
// @Router /api/clients/{id} [get]
func (ctrl *ClientController) GetClient(c *fiber.Ctx) error {
	client, err := ctrl.Service.GetClient(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if client == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "client not found"})
	}
	return c.JSON(client)
}

// ListClients godoc
// @Summary List clients
// @Tags clients
// @Produce json
// @Success 200 {array} Client
// @Router /api/clients [get]
func (ctrl *ClientController) ListClients(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)

	filters := make(map[string]interface{})
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}

	clients, total, err := ctrl.Service.ListClients(c.UserContext(), middleware.Claims(c).Tenant(), filters, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"data": clients, "total": total, "page": page, "limit": limit})
}

// UpdateClient godoc
// @Summary Update a client
// @Tags clients
// @Accept json
// @Produce json
// @Param id path string true "Client ID"
// @Router /api/clients/{id} [put]
func (ctrl *ClientController) UpdateClient(c *fiber.Ctx) error {
	claims := middleware.Claims(c)

	existing, err := ctrl.Service.GetClient(c.UserContext(), claims.Tenant(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if existing == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "client not found"})
	}

	var client Client
	if err := c.BodyParser(&client); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	client.ID = existing.ID
	client.TenantID = claims.Tenant()

	if err := ctrl.Service.UpdateClient(c.UserContext(), &client); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(client)
}

// DeleteClient godoc
// @Summary Delete a client
// @Tags clients
// @Param id path string true "Client ID"
// @Router /api/clients/{id} [delete]
func (ctrl *ClientController) DeleteClient(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteClient(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "client deleted"})
}
