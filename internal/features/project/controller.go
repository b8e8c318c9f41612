package project

import (
	"strconv"

	"flowcrm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ProjectController struct {
	Service ProjectService
}

func NewProjectController(service ProjectService) *ProjectController {
	return &ProjectController{Service: service}
}

// CreateProject godoc
// @Summary Create a project
// @Tags projects
// @Accept json
// @Produce json
// @Success 201 {object} Project
// @Router /api/projects [post]
func (ctrl *ProjectController) CreateProject(c *fiber.Ctx) error {
	var project Project
	if err := c.BodyParser(&project); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	claims := middleware.Claims(c)
	project.TenantID = claims.Tenant()
	actor := claims.User()

	if err := ctrl.Service.CreateProject(c.UserContext(), &project, &actor); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

// GetProject godoc
// @Summary Get a project by id
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} Project
// @Router /api/projects/{id} [get]
func (ctrl *ProjectController) GetProject(c *fiber.Ctx) error {
	project, err := ctrl.Service.GetProject(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if project == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "project not found"})
	}
	return c.JSON(project)
}

// ListProjects godoc
// @Summary List projects
// @Tags projects
// @Produce json
// @Success 200 {array} Project
// @Router /api/projects [get]
func (ctrl *ProjectController) ListProjects(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)

	filters := make(map[string]interface{})
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}

	projects, total, err := ctrl.Service.ListProjects(c.UserContext(), middleware.Claims(c).Tenant(), filters, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"data": projects, "total": total, "page": page, "limit": limit})
}

// UpdateProject godoc
// @Summary Update project fields
// @Tags projects
// @Accept json
// @Param id path string true "Project ID"
// @Router /api/projects/{id} [patch]
func (ctrl *ProjectController) UpdateProject(c *fiber.Ctx) error {
	var fields map[string]interface{}
	if err := c.BodyParser(&fields); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	delete(fields, "_id")
	delete(fields, "tenant_id")

	if err := ctrl.Service.UpdateFields(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id"), fields); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "project updated"})
}

// DeleteProject godoc
// @Summary Delete a project
// @Tags projects
// @Param id path string true "Project ID"
// @Router /api/projects/{id} [delete]
func (ctrl *ProjectController) DeleteProject(c *fiber.Ctx) error {
	if err := ctrl.Service.DeleteProject(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "project deleted"})
}
