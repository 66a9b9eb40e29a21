package handlers

import (
	"errors"
	"log"

	"akun/internal/services"
	"akun/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for registration, login and password
// recovery.
type AuthHandler struct {
	service *services.UserService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service *services.UserService) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/forgot-password", h.HandleForgotPassword)
}

// HandleRegister handles new account registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var input services.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing register request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	user, err := h.service.Register(input)
	if err != nil {
		log.Printf("Error registering user: %v", err)
		return respondServiceError(c, "Registration failed", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// HandleLogin handles account login. Both unknown-email and wrong-password
// failures come back as the same generic 401 so the response does not reveal
// which one was wrong.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var input services.LoginInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing login request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	user, err := h.service.Login(input)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) || errors.Is(err, services.ErrInvalidCredentials) {
			log.Printf("Login failed for %s: %v", input.Email, err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication failed",
				"error":   services.ErrInvalidCredentials.Error(),
			})
		}
		log.Printf("Error during login for %s: %v", input.Email, err)
		return respondServiceError(c, "Authentication failed", err)
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user":    user,
	})
}

// ForgotPasswordRequest represents the request body for forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// HandleForgotPassword resets the account password and mails the new one.
func (h *AuthHandler) HandleForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing forgot-password request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.service.ForgotPassword(req.Email); err != nil {
		log.Printf("Error handling forgot-password for %s: %v", req.Email, err)
		return respondServiceError(c, "Password reset failed", err)
	}

	return c.JSON(fiber.Map{
		"message": "A new password has been sent to your email",
	})
}

// respondServiceError translates the two service error kinds into HTTP
// responses: validation errors carry their field messages as a 400, domain
// errors map onto 401/404/409, anything else is a 500 (with one exception
// for mail delivery, which is the only upstream the service talks to).
func respondServiceError(c *fiber.Ctx, message string, err error) error {
	var vErr *validation.Error
	if errors.As(err, &vErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  vErr.Fields,
		})
	}

	var dErr services.DomainError
	if errors.As(err, &dErr) {
		status := fiber.StatusBadRequest
		switch dErr {
		case services.ErrUserNotFound:
			status = fiber.StatusNotFound
		case services.ErrEmailRegistered:
			status = fiber.StatusConflict
		case services.ErrInvalidCredentials, services.ErrInvalidOldPassword:
			status = fiber.StatusUnauthorized
		}
		return c.Status(status).JSON(fiber.Map{
			"message": message,
			"error":   dErr.Error(),
		})
	}

	if errors.Is(err, services.ErrMailNotSent) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
