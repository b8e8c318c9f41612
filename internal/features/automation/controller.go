package automation

import (
	"flowcrm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AutomationController struct {
	Service AutomationService
}

func NewAutomationController(service AutomationService) *AutomationController {
	return &AutomationController{
		Service: service,
	}
}

// CreateRule godoc
// @Summary Create automation rule
// @Description Create a new automation rule for the caller's tenant
// @Tags automation
// @Accept json
// @Produce json
// @Param rule body AutomationRule true "Automation Rule"
// @Success 201 {object} AutomationRule
// @Failure 400 {object} map[string]interface{}
// @Router /api/automation/rules [post]
func (ctrl *AutomationController) CreateRule(c *fiber.Ctx) error {
	var req struct {
		AutomationRule
		Active *bool `json:"active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	rule := req.AutomationRule
	rule.TenantID = middleware.Claims(c).Tenant()
	// New rules default to active; an explicit "active": false sticks.
	rule.Active = req.Active == nil || *req.Active

	if err := ctrl.Service.CreateRule(c.UserContext(), &rule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(rule)
}

// GetRule godoc
// @Summary Get automation rule
// @Tags automation
// @Produce json
// @Param id path string true "Rule ID"
// @Success 200 {object} AutomationRule
// @Failure 404 {object} map[string]interface{}
// @Router /api/automation/rules/{id} [get]
func (ctrl *AutomationController) GetRule(c *fiber.Ctx) error {
	id := c.Params("id")
	rule, err := ctrl.Service.GetRule(c.UserContext(), middleware.Claims(c).Tenant(), id)
	if err != nil || rule == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Rule not found"})
	}
	return c.JSON(rule)
}

// ListRules godoc
// @Summary List automation rules
// @Tags automation
// @Produce json
// @Success 200 {array} AutomationRule
// @Router /api/automation/rules [get]
func (ctrl *AutomationController) ListRules(c *fiber.Ctx) error {
	rules, err := ctrl.Service.ListRules(c.UserContext(), middleware.Claims(c).Tenant())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(rules)
}

// UpdateRule godoc
// @Summary Update automation rule
// @Tags automation
// @Accept json
// @Produce json
// @Param id path string true "Rule ID"
// @Param rule body AutomationRule true "Automation Rule"
// @Success 200 {object} AutomationRule
// @Failure 400 {object} map[string]interface{}
// @Router /api/automation/rules/{id} [put]
func (ctrl *AutomationController) UpdateRule(c *fiber.Ctx) error {
	var rule AutomationRule
	if err := c.BodyParser(&rule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	tenantID := middleware.Claims(c).Tenant()
	existing, err := ctrl.Service.GetRule(c.UserContext(), tenantID, c.Params("id"))
	if err != nil || existing == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Rule not found"})
	}

	rule.ID = existing.ID
	rule.TenantID = tenantID
	rule.CreatedAt = existing.CreatedAt

	if err := ctrl.Service.UpdateRule(c.UserContext(), &rule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(rule)
}

// DeleteRule godoc
// @Summary Delete automation rule
// @Tags automation
// @Param id path string true "Rule ID"
// @Success 204 {object} nil
// @Router /api/automation/rules/{id} [delete]
func (ctrl *AutomationController) DeleteRule(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := ctrl.Service.DeleteRule(c.UserContext(), middleware.Claims(c).Tenant(), id); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetActive godoc
// @Summary Activate or deactivate a rule
// @Tags automation
// @Accept json
// @Param id path string true "Rule ID"
// @Success 204 {object} nil
// @Router /api/automation/rules/{id}/active [patch]
func (ctrl *AutomationController) SetActive(c *fiber.Ctx) error {
	var body struct {
		Active bool `json:"active"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := ctrl.Service.SetActive(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id"), body.Active); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RunRule godoc
// @Summary Run an automation manually with a test payload
// @Description Executes one active rule against a caller-supplied test payload and returns the execution outcome synchronously
// @Tags automation
// @Accept json
// @Produce json
// @Param id path string true "Rule ID"
// @Success 200 {object} ExecutionLog
// @Failure 400 {object} map[string]interface{}
// @Router /api/automation/rules/{id}/run [post]
func (ctrl *AutomationController) RunRule(c *fiber.Ctx) error {
	var body struct {
		TestPayload map[string]interface{} `json:"test_payload"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}

	entry, err := ctrl.Service.RunManual(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id"), body.TestPayload)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(entry)
}

// ListLogs godoc
// @Summary List automation execution logs
// @Tags automation
// @Produce json
// @Param automation_id query string false "Filter by automation"
// @Param limit query int false "Max entries (default 100)"
// @Success 200 {array} ExecutionLog
// @Router /api/automation/logs [get]
func (ctrl *AutomationController) ListLogs(c *fiber.Ctx) error {
	limit := int64(c.QueryInt("limit", 100))
	logs, err := ctrl.Service.ListLogs(c.UserContext(), middleware.Claims(c).Tenant(), c.Query("automation_id"), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(logs)
}
