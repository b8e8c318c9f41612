package report

import (
	"fmt"

	"flowcrm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReportController struct {
	Service ReportService
}

func NewReportController(service ReportService) *ReportController {
	return &ReportController{Service: service}
}

// ExportLeads godoc
// @Summary Export leads as a spreadsheet
// @Tags reports
// @Produce application/octet-stream
// @Param format query string false "xlsx or csv" default(xlsx)
// @Param status query string false "Filter by lead status"
// @Param source query string false "Filter by lead source"
// @Router /api/reports/leads [get]
func (ctrl *ReportController) ExportLeads(c *fiber.Ctx) error {
	filters := make(map[string]interface{})
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if source := c.Query("source"); source != "" {
		filters["source"] = source
	}

	data, filename, err := ctrl.Service.ExportLeads(c.UserContext(),
		middleware.Claims(c).Tenant(), filters, sanitizeFormat(c.Query("format")))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return sendFile(c, data, filename)
}

// ExportExecutionLogs godoc
// @Summary Export rule execution history as a spreadsheet
// @Tags reports
// @Produce application/octet-stream
// @Param format query string false "xlsx or csv" default(xlsx)
// @Param automation_id query string false "Limit to one rule"
// @Router /api/reports/automation-logs [get]
func (ctrl *ReportController) ExportExecutionLogs(c *fiber.Ctx) error {
	data, filename, err := ctrl.Service.ExportExecutionLogs(c.UserContext(),
		middleware.Claims(c).Tenant(), c.Query("automation_id"), sanitizeFormat(c.Query("format")))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return sendFile(c, data, filename)
}

// EmailLeads godoc
// @Summary Export leads and email the file to recipients
// @Tags reports
// @Accept json
// @Param request body object true "Recipients, optional format and filters"
// @Success 202 {object} map[string]interface{}
// @Router /api/reports/leads/email [post]
func (ctrl *ReportController) EmailLeads(c *fiber.Ctx) error {
	var body struct {
		To     []string `json:"to"`
		Format string   `json:"format"`
		Status string   `json:"status"`
		Source string   `json:"source"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	filters := make(map[string]interface{})
	if body.Status != "" {
		filters["status"] = body.Status
	}
	if body.Source != "" {
		filters["source"] = body.Source
	}

	if err := ctrl.Service.EmailLeads(c.UserContext(),
		middleware.Claims(c).Tenant(), body.To, filters, sanitizeFormat(body.Format)); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"sent_to": body.To})
}

func sendFile(c *fiber.Ctx, data []byte, filename string) error {
	contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	if len(filename) > 4 && filename[len(filename)-4:] == ".csv" {
		contentType = "text/csv"
	}
	c.Set("Content-Type", contentType)
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	return c.Send(data)
}
