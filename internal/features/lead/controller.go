package lead

import (
	"strconv"

	"flowcrm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type LeadController struct {
	Service LeadService
}

func NewLeadController(service LeadService) *LeadController {
	return &LeadController{Service: service}
}

// CreateLead godoc
// @Summary Create a lead
// @Tags leads
// @Accept json
// @Produce json
// @Param lead body Lead true "Lead"
// @Success 201 {object} Lead
// @Router /api/leads [post]
func (ctrl *LeadController) CreateLead(c *fiber.Ctx) error {
	var lead Lead
	if err := c.BodyParser(&lead); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	claims := middleware.Claims(c)
	lead.TenantID = claims.Tenant()
	actor := claims.User()

	if err := ctrl.Service.CreateLead(c.UserContext(), &lead, &actor); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(lead)
}

// GetLead godoc
// @Summary Get a lead by id
// @Tags leads
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {object} Lead
// @Router /api/leads/{id} [get]
func (ctrl *LeadController) GetLead(c *fiber.Ctx) error {
	lead, err := ctrl.Service.GetLead(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if lead == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "lead not found"})
	}
	return c.JSON(lead)
}

// ListLeads godoc
// @Summary List leads
// @Tags leads
// @Produce json
// @Param status query string false "Filter by status"
// @Param source query string false "Filter by source"
// @Success 200 {array} Lead
// @Router /api/leads [get]
func (ctrl *LeadController) ListLeads(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)

	filters := make(map[string]interface{})
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if source := c.Query("source"); source != "" {
		filters["source"] = source
	}

	leads, total, err := ctrl.Service.ListLeads(c.UserContext(), middleware.Claims(c).Tenant(), filters, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"data": leads, "total": total, "page": page, "limit": limit})
}

// UpdateLead godoc
// @Summary Update a lead
// @Tags leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {object} Lead
// @Router /api/leads/{id} [put]
func (ctrl *LeadController) UpdateLead(c *fiber.Ctx) error {
	claims := middleware.Claims(c)

	existing, err := ctrl.Service.GetLead(c.UserContext(), claims.Tenant(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if existing == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "lead not found"})
	}

	var lead Lead
	if err := c.BodyParser(&lead); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	lead.ID = existing.ID
	lead.TenantID = claims.Tenant()

	if err := ctrl.Service.UpdateLead(c.UserContext(), &lead); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(lead)
}

// UpdateStatus godoc
// @Summary Change a lead's pipeline status
// @Tags leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Router /api/leads/{id}/status [patch]
func (ctrl *LeadController) UpdateStatus(c *fiber.Ctx) error {
	var body struct {
		Status LeadStatus `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil || body.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status is required"})
	}

	claims := middleware.Claims(c)
	actor := claims.User()

	if err := ctrl.Service.UpdateStatus(c.UserContext(), claims.Tenant(), c.Params("id"), body.Status, &actor); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "status updated"})
}

// ConvertLead godoc
// @Summary Convert a lead into a client
// @Tags leads
// @Produce json
// @Param id path string true "Lead ID"
// @Router /api/leads/{id}/convert [post]
func (ctrl *LeadController) ConvertLead(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	actor := claims.User()

	clientID, err := ctrl.Service.ConvertToClient(c.UserContext(), claims.Tenant(), c.Params("id"), &actor)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"client_id": clientID})
}

// DeleteLead godoc
// @Summary Delete a lead
// @Tags leads
// @Param id path string true "Lead ID"
// @Router /api/leads/{id} [delete]
func (ctrl *LeadController) DeleteLead(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteLead(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "lead deleted"})
}
