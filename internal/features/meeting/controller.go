package meeting

import (
	"strconv"
	"time"

	"flowcrm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type MeetingController struct {
	Service MeetingService
}

func NewMeetingController(service MeetingService) *MeetingController {
	return &MeetingController{Service: service}
}

// ScheduleMeeting godoc
// @Summary Schedule a meeting
// @Tags meetings
// @Accept json
// @Produce json
// @Success 201 {object} Meeting
// @Router /api/meetings [post]
func (ctrl *MeetingController) ScheduleMeeting(c *fiber.Ctx) error {
	var meeting Meeting
	if err := c.BodyParser(&meeting); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	claims := middleware.Claims(c)
	meeting.TenantID = claims.Tenant()
	actor := claims.User()
	if meeting.Organizer == nil {
		meeting.Organizer = &actor
	}

	if err := ctrl.Service.ScheduleMeeting(c.UserContext(), &meeting, &actor); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(meeting)
}

// GetMeeting godoc
// @Summary Get a meeting by id
// @Tags meetings
// @Produce json
// @Param id path string true "Meeting ID"
// @Success 200 {object} Meeting
// @Router /api/meetings/{id} [get]
func (ctrl *MeetingController) GetMeeting(c *fiber.Ctx) error {
	meeting, err := ctrl.Service.GetMeeting(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if meeting == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "meeting not found"})
	}
	return c.JSON(meeting)
}

// ListMeetings godoc
// @Summary List meetings in a time window
// @Tags meetings
// @Produce json
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end (RFC3339)"
// @Success 200 {array} Meeting
// @Router /api/meetings [get]
func (ctrl *MeetingController) ListMeetings(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "50"), 10, 64)

	var from, to time.Time
	if v := c.Query("from"); v != "" {
		from, _ = time.Parse(time.RFC3339, v)
	}
	if v := c.Query("to"); v != "" {
		to, _ = time.Parse(time.RFC3339, v)
	}

	meetings, total, err := ctrl.Service.ListMeetings(c.UserContext(), middleware.Claims(c).Tenant(), from, to, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"data": meetings, "total": total, "page": page, "limit": limit})
}

// UpdateStatus godoc
// @Summary Update a meeting's status
// @Tags meetings
// @Accept json
// @Param id path string true "Meeting ID"
// @Router /api/meetings/{id}/status [patch]
func (ctrl *MeetingController) UpdateStatus(c *fiber.Ctx) error {
	var body struct {
		Status MeetingStatus `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil || body.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status is required"})
	}

	if err := ctrl.Service.UpdateStatus(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id"), body.Status); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "meeting updated"})
}

// DeleteMeeting godoc
// @Summary Delete a meeting
// @Tags meetings
// @Param id path string true "Meeting ID"
// @Router /api/meetings/{id} [delete]
func (ctrl *MeetingController) DeleteMeeting(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteMeeting(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "meeting deleted"})
}
