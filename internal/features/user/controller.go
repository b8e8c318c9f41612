package user

import (
	"flowcrm/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserController struct {
	Service UserService
}

func NewUserController(service UserService) *UserController {
	return &UserController{Service: service}
}

// ListUsers godoc
// @Summary List workspace users
// @Tags users
// @Produce json
// @Success 200 {array} User
// @Router /api/users [get]
func (ctrl *UserController) ListUsers(c *fiber.Ctx) error {
	users, err := ctrl.Service.ListUsers(c.UserContext(), middleware.Claims(c).Tenant())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"data": users})
}

// GetUser godoc
// @Summary Get a workspace user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} User
// @Router /api/users/{id} [get]
func (ctrl *UserController) GetUser(c *fiber.Ctx) error {
	user, err := ctrl.Service.GetUser(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if user == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}
	return c.JSON(user)
}

// Me godoc
// @Summary Get the authenticated user
// @Tags users
// @Produce json
// @Success 200 {object} User
// @Router /api/users/me [get]
func (ctrl *UserController) Me(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	user, err := ctrl.Service.GetUser(c.UserContext(), claims.Tenant(), claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if user == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}
	return c.JSON(user)
}

// UpdateUser godoc
// @Summary Update a workspace user
// @Tags users
// @Accept json
// @Param id path string true "User ID"
// @Router /api/users/{id} [put]
func (ctrl *UserController) UpdateUser(c *fiber.Ctx) error {
	var user User
	if err := c.BodyParser(&user); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user id"})
	}
	user.ID = id
	user.TenantID = middleware.Claims(c).Tenant()

	if err := ctrl.Service.UpdateUser(c.UserContext(), &user); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(user)
}

// SetStatus godoc
// @Summary Activate or suspend a workspace user
// @Tags users
// @Accept json
// @Param id path string true "User ID"
// @Router /api/users/{id}/status [patch]
func (ctrl *UserController) SetStatus(c *fiber.Ctx) error {
	var body struct {
		Status UserStatus `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := ctrl.Service.SetStatus(c.UserContext(), middleware.Claims(c).Tenant(), c.Params("id"), body.Status); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "user status updated"})
}
