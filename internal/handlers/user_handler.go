package handlers

import (
	"log"

	"akun/internal/models"
	"akun/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles HTTP requests for account CRUD and password change.
type UserHandler struct {
	service *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// RegisterRoutes registers the user routes with the Fiber app.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/", h.HandleGetUsers)
	userRoutes.Get("/:id", h.HandleGetUserByID)
	userRoutes.Patch("/:id", h.HandleEditUser)
	userRoutes.Delete("/:id", h.HandleDeleteUser)
	userRoutes.Patch("/:id/password", h.HandleChangePassword)
}

// HandleGetUsers retrieves all users.
func (h *UserHandler) HandleGetUsers(c *fiber.Ctx) error {
	users, err := h.service.GetAllUsers()
	if err != nil {
		log.Printf("Error getting all users: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve users",
			"error":   err.Error(),
		})
	}
	return c.JSON(users)
}

// HandleGetUserByID retrieves a single user by id.
func (h *UserHandler) HandleGetUserByID(c *fiber.Ctx) error {
	userID := c.Params("id")
	user, err := h.service.GetUserByID(userID)
	if err != nil {
		log.Printf("Error getting user by ID %s: %v", userID, err)
		return respondServiceError(c, "Could not retrieve user", err)
	}
	return c.JSON(user)
}

// HandleEditUser updates role, fullname and profile_url of a user. Omitted
// fields are left unchanged; any other field in the payload is ignored.
func (h *UserHandler) HandleEditUser(c *fiber.Ctx) error {
	userID := c.Params("id")

	var data models.UserEdit
	if err := c.BodyParser(&data); err != nil {
		log.Printf("Error parsing edit request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	user, err := h.service.EditUserByID(userID, &data)
	if err != nil {
		log.Printf("Error editing user %s: %v", userID, err)
		return respondServiceError(c, "Could not edit user", err)
	}

	return c.JSON(fiber.Map{
		"message": "User updated successfully",
		"user":    user,
	})
}

// HandleDeleteUser deletes a user by id.
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	userID := c.Params("id")
	if err := h.service.DeleteUserByID(userID); err != nil {
		log.Printf("Error deleting user %s: %v", userID, err)
		return respondServiceError(c, "Could not delete user", err)
	}
	return c.JSON(fiber.Map{
		"message": "User deleted successfully",
	})
}

// HandleChangePassword changes a user's password after verifying the old one.
func (h *UserHandler) HandleChangePassword(c *fiber.Ctx) error {
	userID := c.Params("id")

	var input services.ChangePasswordInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing change-password request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.service.ChangePassword(userID, input); err != nil {
		log.Printf("Error changing password for user %s: %v", userID, err)
		return respondServiceError(c, "Could not change password", err)
	}

	return c.JSON(fiber.Map{
		"message": "Password changed successfully",
	})
}
