package handler

import (
	"time"

	"sweetshop-api/internal/middleware"
	"sweetshop-api/internal/repository"
	"sweetshop-api/internal/ws"
	"sweetshop-api/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

// RateLimits configures the Redis-backed limiters. A nil Redis disables them.
type RateLimits struct {
	Redis          *redis.Client
	AuthLimit      int
	AuthWindow     time.Duration
	PurchaseLimit  int
	PurchaseWindow time.Duration
}

type Router struct {
	Tokens      *jwt.Manager
	UserRepo    repository.UserRepository
	Hub         *ws.Hub
	Limits      RateLimits
	AccessLog   bool
	Auth        *AuthHandler
	Inventory   *InventoryHandler
	Transaction *TransactionHandler
	Dashboard   *DashboardHandler
	Request     *RequestHandler
}

// NewApp builds the Fiber application with every route mounted under /api.
func (r *Router) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Sweet Shop API",
	})

	if r.AccessLog {
		app.Use(logger.New())
	}
	app.Use(recover.New())
	app.Use(cors.New())

	requireAuth := middleware.RequireAuth(r.Tokens, r.UserRepo)
	requireAdmin := middleware.RequireAdmin()
	authLimiter := middleware.RateLimiter(r.Limits.Redis, "auth", r.Limits.AuthLimit, r.Limits.AuthWindow)
	purchaseLimiter := middleware.RateLimiter(r.Limits.Redis, "purchase", r.Limits.PurchaseLimit, r.Limits.PurchaseWindow)

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "OK", "timestamp": time.Now().UTC()})
	})

	// ============ AUTH ============
	auth := api.Group("/auth")
	auth.Post("/register", authLimiter, r.Auth.Register)
	auth.Post("/login", authLimiter, r.Auth.Login)
	auth.Get("/profile", requireAuth, r.Auth.GetProfile)
	auth.Put("/profile", requireAuth, r.Auth.UpdateProfile)

	// ============ SWEETS ============
	sweets := api.Group("/sweets")
	sweets.Get("/", r.Inventory.GetSweets)
	sweets.Get("/search", r.Inventory.SearchSweets)
	sweets.Get("/categories", r.Inventory.GetCategories)
	sweets.Post("/purchase", purchaseLimiter, requireAuth, r.Inventory.Purchase)
	sweets.Get("/:id", r.Inventory.GetSweet)
	sweets.Post("/", requireAuth, requireAdmin, r.Inventory.CreateSweet)
	sweets.Put("/:id", requireAuth, requireAdmin, r.Inventory.UpdateSweet)
	sweets.Delete("/:id", requireAuth, requireAdmin, r.Inventory.DeleteSweet)
	sweets.Post("/:id/restock", requireAuth, requireAdmin, r.Inventory.Restock)

	// ============ TRANSACTIONS ============
	transactions := api.Group("/transactions", requireAuth)
	transactions.Get("/user", r.Transaction.GetUserTransactions)
	transactions.Get("/sales-report", requireAdmin, r.Transaction.GetSalesReport)
	transactions.Get("/", requireAdmin, r.Transaction.GetAllTransactions)
	transactions.Get("/:id", r.Transaction.GetTransaction)

	// ============ DASHBOARD ============
	api.Get("/dashboard/stats", requireAuth, requireAdmin, r.Dashboard.GetDashboardStats)

	// ============ REQUESTS ============
	requests := api.Group("/requests", requireAuth)
	requests.Post("/", r.Request.CreateRequest)
	requests.Get("/my-requests", r.Request.GetMyRequests)
	requests.Get("/admin/all", requireAdmin, r.Request.GetAllRequests)
	requests.Put("/:id/respond", requireAdmin, r.Request.RespondToRequest)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		if !r.Hub.Join(c) {
			return
		}
		defer r.Hub.Leave(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).JSON(fiber.Map{"error": "Route not found"})
	})

	return app
}
