package quote

import (
	"strconv"

	"flowcrm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type QuoteController struct {
	Service QuoteService
}

func NewQuoteController(service QuoteService) *QuoteController {
	return &QuoteController{Service: service}
}

// CreateQuote godoc
// @Summary Create a quote
// @Tags quotes
// @Accept json
// @Produce json
// @Success 201 {object} Quote
// @Router /api/quotes [post]
func (ctrl *QuoteController) CreateQuote(c *fiber.Ctx) error {
	var quote Quote
	if err := c.BodyParser(&quote); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	quote.TenantID = middleware.Claims(c).Tenant()

	if err := ctrl.Service.CreateQuote(c.UserContext(), &quote); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(quote)
}

// GetQuote godoc
// @Summary Get a quote by id
// @Tags quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} Quote
// @Router /api/quotes/{id} [get]
func (ctrl *QuoteController) GetQuote(c *fiber.Ctx) error {
	quote, err := ctrl.Service.GetQuote(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if quote == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "quote not found"})
	}
	return c.JSON(quote)
}

// ListQuotes godoc
// @Summary List quotes
// @Tags quotes
// @Produce json
// @Param status query string false "Filter by status"
// @Success 200 {array} Quote
// @Router /api/quotes [get]
func (ctrl *QuoteController) ListQuotes(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)

	filters := make(map[string]interface{})
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}

	quotes, total, err := ctrl.Service.ListQuotes(c.UserContext(), middleware.Claims(c).Tenant(), filters, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"data": quotes, "total": total, "page": page, "limit": limit})
}

// SendQuote godoc
// @Summary Mark a quote as sent
// @Tags quotes
// @Param id path string true "Quote ID"
// @Router /api/quotes/{id}/send [post]
func (ctrl *QuoteController) SendQuote(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	actor := claims.User()

	if err := ctrl.Service.SendQuote(c.UserContext(), claims.Tenant(), c.Params("id"), &actor); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "quote sent"})
}

// AcceptQuote godoc
// @Summary Mark a quote as accepted
// @Tags quotes
// @Param id path string true "Quote ID"
// @Router /api/quotes/{id}/accept [post]
func (ctrl *QuoteController) AcceptQuote(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	actor := claims.User()

	if err := ctrl.Service.AcceptQuote(c.UserContext(), claims.Tenant(), c.Params("id"), &actor); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "quote accepted"})
}

// MarkPaid godoc
// @Summary Record payment for a quote
// @Tags quotes
// @Param id path string true "Quote ID"
// @Router /api/quotes/{id}/paid [post]
func (ctrl *QuoteController) MarkPaid(c *fiber.Ctx) error {
	if err := ctrl.Service.MarkPaid(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "payment recorded"})
}

// DeleteQuote godoc
// @Summary Delete a quote
// @Tags quotes
// @Param id path string true "Quote ID"
// @Router /api/quotes/{id} [delete]
func (ctrl *QuoteController) DeleteQuote(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteQuote(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "quote deleted"})
}
