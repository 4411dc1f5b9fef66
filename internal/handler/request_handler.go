package handler

import (
	"sweetshop-api/internal/model"
	"sweetshop-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type RequestHandler struct {
	service service.RequestService
}

func NewRequestHandler(s service.RequestService) *RequestHandler {
	return &RequestHandler{service: s}
}

// POST /api/requests
func (h *RequestHandler) CreateRequest(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req service.CreateRequestInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	request, err := h.service.CreateRequest(c.UserContext(), actor, &req)
	if err != nil {
		return respondError(c, err, 404, "Failed to submit request")
	}
	return c.Status(201).JSON(fiber.Map{"message": "Request submitted successfully", "data": request})
}

// GET /api/requests/my-requests
func (h *RequestHandler) GetMyRequests(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	requests, err := h.service.GetMyRequests(c.UserContext(), actor.ID)
	if err != nil {
		return respondError(c, err, 404, "Failed to fetch requests")
	}
	return c.JSON(fiber.Map{"message": "Requests retrieved", "data": requests})
}

// GET /api/requests/admin/all
func (h *RequestHandler) GetAllRequests(c *fiber.Ctx) error {
	requests, err := h.service.GetAllRequests(
		c.UserContext(),
		model.RequestStatus(c.Query("status")),
		model.RequestType(c.Query("type")),
	)
	if err != nil {
		return respondError(c, err, 404, "Failed to fetch requests")
	}
	return c.JSON(fiber.Map{"message": "Requests retrieved", "data": requests})
}

// PUT /api/requests/:id/respond
func (h *RequestHandler) RespondToRequest(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request ID"})
	}

	var req service.RespondInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	request, err := h.service.RespondToRequest(c.UserContext(), id, actor, &req)
	if err != nil {
		return respondError(c, err, 404, "Failed to respond to request")
	}
	return c.JSON(fiber.Map{"message": "Response recorded", "data": request})
}
