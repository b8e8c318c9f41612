package webhook

import (
	"flowcrm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type WebhookController struct {
	Service WebhookService
}

func NewWebhookController(service WebhookService) *WebhookController {
	return &WebhookController{
		Service: service,
	}
}

// CreateWebhook godoc
// @Summary Create webhook
// @Description Subscribe a URL to trigger events
// @Tags webhooks
// @Accept json
// @Produce json
// @Param webhook body Webhook true "Webhook Details"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/webhooks [post]
func (ctrl *WebhookController) CreateWebhook(c *fiber.Ctx) error {
	var webhook Webhook
	if err := c.BodyParser(&webhook); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	claims := middleware.Claims(c)
	webhook.TenantID = claims.Tenant()
	webhook.CreatedBy = claims.User()

	if err := ctrl.Service.CreateWebhook(c.UserContext(), &webhook); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Webhook created successfully",
		"data":    webhook,
	})
}

// ListWebhooks godoc
// @Summary List webhooks
// @Tags webhooks
// @Produce json
// @Success 200 {array} Webhook
// @Router /api/webhooks [get]
func (ctrl *WebhookController) ListWebhooks(c *fiber.Ctx) error {
	webhooks, err := ctrl.Service.ListWebhooks(c.UserContext(), middleware.Claims(c).Tenant())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": webhooks,
	})
}

// GetWebhook godoc
// @Summary Get webhook
// @Tags webhooks
// @Produce json
// @Param id path string true "Webhook ID"
// @Success 200 {object} Webhook
// @Router /api/webhooks/{id} [get]
func (ctrl *WebhookController) GetWebhook(c *fiber.Ctx) error {
	webhook, err := ctrl.Service.GetWebhook(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(webhook)
}

// UpdateWebhook godoc
// @Summary Update webhook
// @Tags webhooks
// @Accept json
// @Produce json
// @Param id path string true "Webhook ID"
// @Param updates body map[string]interface{} true "Webhook Updates"
// @Router /api/webhooks/{id} [put]
func (ctrl *WebhookController) UpdateWebhook(c *fiber.Ctx) error {
	var updates map[string]interface{}
	if err := c.BodyParser(&updates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := ctrl.Service.UpdateWebhook(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id"), updates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Webhook updated successfully",
	})
}

// DeleteWebhook godoc
// @Summary Delete webhook
// @Tags webhooks
// @Param id path string true "Webhook ID"
// @Router /api/webhooks/{id} [delete]
func (ctrl *WebhookController) DeleteWebhook(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteWebhook(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Webhook deleted successfully",
	})
}

// ListLogs godoc
// @Summary List delivery logs for a webhook
// @Tags webhooks
// @Produce json
// @Param id path string true "Webhook ID"
// @Success 200 {array} WebhookLog
// @Router /api/webhooks/{id}/logs [get]
func (ctrl *WebhookController) ListLogs(c *fiber.Ctx) error {
	logs, err := ctrl.Service.ListLogs(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"data": logs,
	})
}
