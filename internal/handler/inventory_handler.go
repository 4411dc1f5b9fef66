package handler

import (
	"sweetshop-api/internal/repository"
	"sweetshop-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InventoryHandler struct {
	service  service.InventoryService
	purchase service.PurchaseService
}

func NewInventoryHandler(s service.InventoryService, p service.PurchaseService) *InventoryHandler {
	return &InventoryHandler{service: s, purchase: p}
}

type restockRequest struct {
	Quantity int `json:"quantity"`
}

// purchaseBody keeps sweet ids as strings so a malformed id can be reported as such.
type purchaseBody struct {
	Items []struct {
		SweetID  string `json:"sweetId"`
		Quantity int    `json:"quantity"`
	} `json:"items"`
	CustomerInfo map[string]interface{} `json:"customerInfo"`
}

func (b *purchaseBody) toRequest() (*service.PurchaseRequest, error) {
	req := &service.PurchaseRequest{CustomerInfo: b.CustomerInfo}
	for _, item := range b.Items {
		var id uuid.UUID
		if item.SweetID != "" {
			parsed, err := uuid.Parse(item.SweetID)
			if err != nil {
				return nil, err
			}
			id = parsed
		}
		req.Items = append(req.Items, service.BasketItem{SweetID: id, Quantity: item.Quantity})
	}
	return req, nil
}

// GET /api/sweets
func (h *InventoryHandler) GetSweets(c *fiber.Ctx) error {
	page, err := h.service.ListSweets(c.UserContext(), repository.SweetFilter{
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 10),
		Category: c.Query("category"),
		Search:   c.Query("search"),
		SortBy:   c.Query("sortBy", "createdAt"),
		Order:    c.Query("order", "desc"),
	})
	if err != nil {
		return respondError(c, err, 404, "Failed to fetch sweets")
	}
	return c.JSON(fiber.Map{"message": "Sweets retrieved", "data": page})
}

// GET /api/sweets/search
func (h *InventoryHandler) SearchSweets(c *fiber.Ctx) error {
	criteria := repository.SweetSearch{
		Name:     c.Query("name"),
		Category: c.Query("category"),
	}

	var err error
	if criteria.MinPrice, err = parsePrice(c.Query("minPrice")); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Minimum price must be a number"})
	}
	if criteria.MaxPrice, err = parsePrice(c.Query("maxPrice")); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Maximum price must be a number"})
	}

	sweets, err := h.service.SearchSweets(c.UserContext(), criteria)
	if err != nil {
		return respondError(c, err, 404, "Failed to search sweets")
	}
	return c.JSON(fiber.Map{"message": "Search completed", "data": sweets})
}

func parsePrice(raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GET /api/sweets/categories
func (h *InventoryHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := h.service.GetCategories(c.UserContext())
	if err != nil {
		return respondError(c, err, 404, "Failed to fetch categories")
	}
	return c.JSON(fiber.Map{"message": "Categories retrieved", "data": categories})
}

// GET /api/sweets/:id
func (h *InventoryHandler) GetSweet(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid sweet ID"})
	}

	sweet, err := h.service.GetSweet(c.UserContext(), id)
	if err != nil {
		return respondError(c, err, 404, "Failed to fetch sweet")
	}
	return c.JSON(fiber.Map{"message": "Sweet retrieved", "data": sweet})
}

// POST /api/sweets
func (h *InventoryHandler) CreateSweet(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req service.SweetInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	sweet, err := h.service.CreateSweet(c.UserContext(), &req, actor)
	if err != nil {
		return respondError(c, err, 404, "Failed to create sweet")
	}
	return c.Status(201).JSON(fiber.Map{"message": "Sweet created successfully", "data": sweet})
}

// PUT /api/sweets/:id
func (h *InventoryHandler) UpdateSweet(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid sweet ID"})
	}

	var req service.SweetInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	updated, err := h.service.UpdateSweet(c.UserContext(), id, &req, actor)
	if err != nil {
		return respondError(c, err, 404, "Failed to update sweet")
	}
	return c.JSON(fiber.Map{"message": "Sweet updated successfully", "data": updated})
}

// DELETE /api/sweets/:id
func (h *InventoryHandler) DeleteSweet(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid sweet ID"})
	}

	if err := h.service.DeleteSweet(c.UserContext(), id, actor); err != nil {
		return respondError(c, err, 404, "Failed to delete sweet")
	}
	return c.JSON(fiber.Map{"message": "Sweet deleted successfully"})
}

// POST /api/sweets/purchase
func (h *InventoryHandler) Purchase(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var body purchaseBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	req, err := body.toRequest()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid sweet ID format"})
	}

	result, err := h.purchase.Purchase(c.UserContext(), actor, req)
	if err != nil {
		// unknown sweets in a basket are a client error, not a missing resource
		return respondError(c, err, 400, "Purchase could not be completed")
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "Purchase completed successfully",
		"data":    result,
	})
}

// POST /api/sweets/:id/restock
func (h *InventoryHandler) Restock(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid sweet ID"})
	}

	var req restockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	result, err := h.purchase.Restock(c.UserContext(), actor, id, req.Quantity)
	if err != nil {
		return respondError(c, err, 404, "Restock could not be completed")
	}

	return c.JSON(fiber.Map{
		"message": "Sweet restocked successfully",
		"data": fiber.Map{
			"sweet":            result.Sweet,
			"previousQuantity": result.PreviousQuantity,
			"newQuantity":      result.NewQuantity,
		},
	})
}
