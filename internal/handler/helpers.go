package handler

import (
	"sweetshop-api/internal/model"
	"sweetshop-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// actorFromContext reads the caller set by middleware.RequireAuth.
func actorFromContext(c *fiber.Ctx) (service.Actor, bool) {
	raw, _ := c.Locals("user_id").(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return service.Actor{}, false
	}
	name, _ := c.Locals("user_name").(string)
	email, _ := c.Locals("user_email").(string)
	return service.Actor{ID: id, Name: name, Email: email}, true
}

func isAdmin(c *fiber.Ctx) bool {
	role, _ := c.Locals("user_role").(string)
	return role == model.RoleAdmin
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(401).JSON(fiber.Map{"error": "Authentication required"})
}

// respondError maps service errors to status codes. Infrastructure errors are
// logged and reported with the opaque fallback message.
func respondError(c *fiber.Ctx, err error, notFoundStatus int, fallback string) error {
	switch {
	case service.IsValidation(err), service.IsInsufficientStock(err):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	case service.IsNotFound(err):
		return c.Status(notFoundStatus).JSON(fiber.Map{"error": err.Error()})
	}

	log.WithError(err).WithFields(log.Fields{
		"method": c.Method(),
		"path":   c.Path(),
	}).Error("request failed")
	return c.Status(500).JSON(fiber.Map{"error": fallback})
}
