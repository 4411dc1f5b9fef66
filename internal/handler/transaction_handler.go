package handler

import (
	"time"

	"sweetshop-api/internal/model"
	"sweetshop-api/internal/repository"
	"sweetshop-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type TransactionHandler struct {
	service service.TransactionService
}

func NewTransactionHandler(s service.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: s}
}

// parseDate accepts RFC 3339 timestamps or plain dates. A plain end date
// covers the whole day.
func parseDate(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func dateRange(c *fiber.Ctx) (*time.Time, *time.Time, error) {
	start, err := parseDate(c.Query("startDate"), false)
	if err != nil {
		return nil, nil, err
	}
	end, err := parseDate(c.Query("endDate"), true)
	if err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

// GET /api/transactions/user
func (h *TransactionHandler) GetUserTransactions(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	page, err := h.service.GetUserTransactions(
		c.UserContext(),
		actor.ID,
		model.TransactionType(c.Query("type")),
		c.QueryInt("page", 1),
		c.QueryInt("limit", 20),
	)
	if err != nil {
		return respondError(c, err, 404, "Failed to fetch transactions")
	}
	return c.JSON(fiber.Map{"message": "Transactions retrieved", "data": page})
}

// GET /api/transactions/:id
func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	tx, err := h.service.GetTransaction(c.UserContext(), id, actor, isAdmin(c))
	if errors.Is(err, service.ErrTransactionAccessDenied) {
		return c.Status(403).JSON(fiber.Map{"error": "Access denied"})
	}
	if err != nil {
		return respondError(c, err, 404, "Failed to fetch transaction")
	}
	return c.JSON(fiber.Map{"message": "Transaction retrieved", "data": tx})
}

// GET /api/transactions
func (h *TransactionHandler) GetAllTransactions(c *fiber.Ctx) error {
	filter := repository.TransactionFilter{
		Type:  model.TransactionType(c.Query("type")),
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", 20),
	}

	if raw := c.Query("userId"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid user ID"})
		}
		filter.UserID = &userID
	}

	var err error
	if filter.StartDate, filter.EndDate, err = dateRange(c); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Dates must be YYYY-MM-DD or RFC 3339"})
	}

	page, err := h.service.GetAllTransactions(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err, 404, "Failed to fetch transactions")
	}
	return c.JSON(fiber.Map{"message": "Transactions retrieved", "data": page})
}

// GET /api/transactions/sales-report
func (h *TransactionHandler) GetSalesReport(c *fiber.Ctx) error {
	start, end, err := dateRange(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Dates must be YYYY-MM-DD or RFC 3339"})
	}

	report, err := h.service.GetSalesReport(c.UserContext(), start, end)
	if err != nil {
		return respondError(c, err, 404, "Failed to build sales report")
	}
	return c.JSON(fiber.Map{"message": "Sales report generated", "data": report})
}
