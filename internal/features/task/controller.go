package task

import (
	"strconv"

	"flowcrm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type TaskController struct {
	Service TaskService
}

func NewTaskController(service TaskService) *TaskController {
	return &TaskController{Service: service}
}

// CreateTask godoc
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Success 201 {object} Task
// @Router /api/tasks [post]
func (ctrl *TaskController) CreateTask(c *fiber.Ctx) error {
	var task Task
	if err := c.BodyParser(&task); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	claims := middleware.Claims(c)
	task.TenantID = claims.Tenant()
	actor := claims.User()

	if err := ctrl.Service.CreateTask(c.UserContext(), &task, &actor); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// GetTask godoc
// @Summary Get a task by id
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} Task
// @Router /api/tasks/{id} [get]
func (ctrl *TaskController) GetTask(c *fiber.Ctx) error {
	task, err := ctrl.Service.GetTask(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if task == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "task not found"})
	}
	return c.JSON(task)
}

// ListTasks godoc
// @Summary List tasks
// @Tags tasks
// @Produce json
// @Param status query string false "Filter by status"
// @Success 200 {array} Task
// @Router /api/tasks [get]
func (ctrl *TaskController) ListTasks(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)

	filters := make(map[string]interface{})
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		filters["assigned_to"] = assignee
	}

	tasks, total, err := ctrl.Service.ListTasks(c.UserContext(), middleware.Claims(c).Tenant(), filters, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"data": tasks, "total": total, "page": page, "limit": limit})
}

// CompleteTask godoc
// @Summary Mark a task as completed
// @Tags tasks
// @Param id path string true "Task ID"
// @Router /api/tasks/{id}/complete [post]
func (ctrl *TaskController) CompleteTask(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	actor := claims.User()

	if err := ctrl.Service.CompleteTask(c.UserContext(), claims.Tenant(), c.Params("id"), &actor); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "task completed"})
}

// DeleteTask godoc
// @Summary Delete a task
// @Tags tasks
// @Param id path string true "Task ID"
// @Router /api/tasks/{id} [delete]
func (ctrl *TaskController) DeleteTask(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteTask(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "task deleted"})
}
