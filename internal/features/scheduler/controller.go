package scheduler

import (
	"flowcrm/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SchedulerController struct {
	Service SchedulerService
}

func NewSchedulerController(service SchedulerService) *SchedulerController {
	return &SchedulerController{Service: service}
}

// CreateSchedule godoc
// @Summary Create a recurring event schedule
// @Tags schedules
// @Accept json
// @Produce json
// @Success 201 {object} Schedule
// @Router /api/schedules [post]
func (ctrl *SchedulerController) CreateSchedule(c *fiber.Ctx) error {
	var schedule Schedule
	if err := c.BodyParser(&schedule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	claims := middleware.Claims(c)
	schedule.TenantID = claims.Tenant()
	schedule.CreatedBy = claims.User()

	if err := ctrl.Service.CreateSchedule(c.UserContext(), &schedule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(schedule)
}

// ListSchedules godoc
// @Summary List event schedules
// @Tags schedules
// @Produce json
// @Success 200 {array} Schedule
// @Router /api/schedules [get]
func (ctrl *SchedulerController) ListSchedules(c *fiber.Ctx) error {
	schedules, err := ctrl.Service.ListSchedules(c.UserContext(), middleware.Claims(c).Tenant())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"data": schedules})
}

// GetSchedule godoc
// @Summary Get an event schedule
// @Tags schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} Schedule
// @Router /api/schedules/{id} [get]
func (ctrl *SchedulerController) GetSchedule(c *fiber.Ctx) error {
	schedule, err := ctrl.Service.GetSchedule(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if schedule == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "schedule not found"})
	}
	return c.JSON(schedule)
}

// UpdateSchedule godoc
// @Summary Update an event schedule
// @Tags schedules
// @Accept json
// @Param id path string true "Schedule ID"
// @Router /api/schedules/{id} [put]
func (ctrl *SchedulerController) UpdateSchedule(c *fiber.Ctx) error {
	var schedule Schedule
	if err := c.BodyParser(&schedule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid schedule id"})
	}
	schedule.ID = id
	schedule.TenantID = middleware.Claims(c).Tenant()

	if err := ctrl.Service.UpdateSchedule(c.UserContext(), &schedule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(schedule)
}

// DeleteSchedule godoc
// @Summary Delete an event schedule
// @Tags schedules
// @Param id path string true "Schedule ID"
// @Router /api/schedules/{id} [delete]
func (ctrl *SchedulerController) DeleteSchedule(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteSchedule(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "schedule deleted"})
}

// RunSchedule godoc
// @Summary Fire a schedule's event immediately
// @Tags schedules
// @Param id path string true "Schedule ID"
// @Router /api/schedules/{id}/run [post]
func (ctrl *SchedulerController) RunSchedule(c *fiber.Ctx) error {
	if err := ctrl.Service.RunNow(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "schedule fired"})
}
