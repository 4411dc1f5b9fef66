package handler

import (
	"sweetshop-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	Name string `json:"name"`
}

// Register creates a customer account
// POST /api/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	response, err := h.authService.Register(c.UserContext(), &req)
	if errors.Is(err, service.ErrEmailExists) {
		return c.Status(400).JSON(fiber.Map{"error": "User already exists with this email"})
	}
	if err != nil {
		return respondError(c, err, 400, "Registration failed")
	}

	return c.Status(201).JSON(fiber.Map{"message": "User registered successfully", "data": response})
}

// Login handles user authentication
// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if req.Email == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Email and password are required"})
	}

	response, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid credentials"})
	}
	if err != nil {
		return respondError(c, err, 401, "Login failed")
	}

	return c.JSON(fiber.Map{"message": "Login successful", "data": response})
}

// GET /api/auth/profile
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	profile, err := h.authService.GetProfile(c.UserContext(), actor.ID)
	if errors.Is(err, service.ErrUserNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "User not found"})
	}
	if err != nil {
		return respondError(c, err, 404, "Failed to fetch profile")
	}

	return c.JSON(fiber.Map{"message": "Profile retrieved", "data": profile})
}

// PUT /api/auth/profile
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	profile, err := h.authService.UpdateProfile(c.UserContext(), actor.ID, req.Name)
	if errors.Is(err, service.ErrUserNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "User not found"})
	}
	if err != nil {
		return respondError(c, err, 404, "Failed to update profile")
	}

	return c.JSON(fiber.Map{"message": "Profile updated successfully", "data": profile})
}
