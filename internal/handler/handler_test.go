package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sweetshop-api/internal/handler"
	"sweetshop-api/internal/model"
	"sweetshop-api/internal/repository"
	"sweetshop-api/internal/service"
	"sweetshop-api/internal/testutil"
	"sweetshop-api/internal/ws"
	"sweetshop-api/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testApp struct {
	app        *fiber.App
	db         *gorm.DB
	tokens     *jwt.Manager
	userToken  string
	adminToken string
}

type brokenRecorder struct {
	repository.TransactionRepository
}

func (brokenRecorder) Create(tx *gorm.DB, t *model.Transaction) error {
	return errors.New("connection reset by peer")
}

func newTestApp(t *testing.T, brokenStore bool) *testApp {
	t.Helper()
	db := testutil.NewDB(t)
	tokens := jwt.NewManager("test-secret", time.Hour)

	sweetRepo := repository.NewSweetRepo(db)
	var txRepo repository.TransactionRepository = repository.NewTransactionRepo(db)
	if brokenStore {
		txRepo = brokenRecorder{txRepo}
	}
	userRepo := repository.NewUserRepo(db)

	invService := service.NewInventoryService(sweetRepo, txRepo, db, nil, nil)
	purchaseService := service.NewPurchaseService(sweetRepo, txRepo, db, nil, nil, 5*time.Second)

	router := &handler.Router{
		Tokens:      tokens,
		UserRepo:    userRepo,
		Hub:         ws.NewHub(),
		Auth:        handler.NewAuthHandler(service.NewAuthService(userRepo, tokens)),
		Inventory:   handler.NewInventoryHandler(invService, purchaseService),
		Transaction: handler.NewTransactionHandler(service.NewTransactionService(txRepo)),
		Dashboard:   handler.NewDashboardHandler(invService),
		Request:     handler.NewRequestHandler(service.NewRequestService(repository.NewRequestRepo(db))),
	}

	user := testutil.CreateUser(t, db, "buyer@example.com", model.RoleUser)
	admin := testutil.CreateUser(t, db, "admin@example.com", model.RoleAdmin)
	userToken, err := tokens.GenerateToken(user.ID, user.Email, user.Name, user.Role)
	require.NoError(t, err)
	adminToken, err := tokens.GenerateToken(admin.ID, admin.Email, admin.Name, admin.Role)
	require.NoError(t, err)

	return &testApp{app: router.NewApp(), db: db, tokens: tokens, userToken: userToken, adminToken: adminToken}
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}
	return resp.StatusCode, out
}

func item(id interface{}, qty int) map[string]interface{} {
	return map[string]interface{}{"sweetId": id, "quantity": qty}
}

func TestPurchaseEndpoint(t *testing.T) {
	a := newTestApp(t, false)
	p := testutil.CreateSweet(t, a.db, "P", "3.99", 10)
	q := testutil.CreateSweet(t, a.db, "Q", "10.99", 5)

	status, body := a.do(t, http.MethodPost, "/api/sweets/purchase", a.userToken, map[string]interface{}{
		"items":        []interface{}{item(p.ID, 2), item(q.ID, 1)},
		"customerInfo": map[string]interface{}{"name": "Ada"},
	})
	require.Equal(t, http.StatusCreated, status, body)

	data := body["data"].(map[string]interface{})
	receipt := data["receipt"].(map[string]interface{})
	assert.Equal(t, 18.97, receipt["total"])
	assert.Equal(t, "Ada", receipt["customerInfo"].(map[string]interface{})["name"])
	assert.NotEmpty(t, data["transaction"].(map[string]interface{})["id"])

	assert.Equal(t, 8, testutil.Quantity(t, a.db, p.ID))
	assert.Equal(t, 4, testutil.Quantity(t, a.db, q.ID))
}

func TestPurchaseEndpointErrors(t *testing.T) {
	a := newTestApp(t, false)
	q := testutil.CreateSweet(t, a.db, "Q", "10.99", 5)

	t.Run("requires authentication", func(t *testing.T) {
		status, _ := a.do(t, http.MethodPost, "/api/sweets/purchase", "", map[string]interface{}{"items": []interface{}{item(q.ID, 1)}})
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("insufficient stock", func(t *testing.T) {
		status, body := a.do(t, http.MethodPost, "/api/sweets/purchase", a.userToken, map[string]interface{}{"items": []interface{}{item(q.ID, 6)}})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Insufficient stock for Q. Available: 5, Requested: 6", body["error"])
	})

	t.Run("unknown sweet is a bad request", func(t *testing.T) {
		status, body := a.do(t, http.MethodPost, "/api/sweets/purchase", a.userToken, map[string]interface{}{"items": []interface{}{item("8a4f3c2e-0b7d-4f4e-9a51-3d1c2b7e6f10", 1)}})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body["error"], "Product not found")
	})

	t.Run("malformed sweet id", func(t *testing.T) {
		status, body := a.do(t, http.MethodPost, "/api/sweets/purchase", a.userToken, map[string]interface{}{"items": []interface{}{item("not-a-uuid", 1)}})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Invalid sweet ID format", body["error"])
	})

	t.Run("missing sweet id", func(t *testing.T) {
		status, body := a.do(t, http.MethodPost, "/api/sweets/purchase", a.userToken, map[string]interface{}{"items": []interface{}{map[string]interface{}{"quantity": 1}}})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body["error"], "sweetId is required")
	})

	t.Run("empty basket", func(t *testing.T) {
		status, body := a.do(t, http.MethodPost, "/api/sweets/purchase", a.userToken, map[string]interface{}{"items": []interface{}{}})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "No items provided for purchase", body["error"])
	})

	assert.Equal(t, 5, testutil.Quantity(t, a.db, q.ID))
	assert.EqualValues(t, 0, testutil.CountTransactions(t, a.db, ""))
}

func TestPurchaseEndpointHidesStoreFailures(t *testing.T) {
	a := newTestApp(t, true)
	p := testutil.CreateSweet(t, a.db, "P", "3.99", 10)

	status, body := a.do(t, http.MethodPost, "/api/sweets/purchase", a.userToken, map[string]interface{}{"items": []interface{}{item(p.ID, 1)}})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Purchase could not be completed", body["error"])
	assert.Equal(t, 10, testutil.Quantity(t, a.db, p.ID))
}

func TestRestockEndpoint(t *testing.T) {
	a := newTestApp(t, false)
	p := testutil.CreateSweet(t, a.db, "P", "3.99", 3)
	path := "/api/sweets/" + p.ID.String() + "/restock"

	status, _ := a.do(t, http.MethodPost, path, a.userToken, map[string]interface{}{"quantity": 10})
	assert.Equal(t, http.StatusForbidden, status)

	status, body := a.do(t, http.MethodPost, path, a.adminToken, map[string]interface{}{"quantity": 10})
	require.Equal(t, http.StatusOK, status, body)
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 3, data["previousQuantity"])
	assert.EqualValues(t, 13, data["newQuantity"])

	status, _ = a.do(t, http.MethodPost, path, a.adminToken, map[string]interface{}{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = a.do(t, http.MethodPost, "/api/sweets/8a4f3c2e-0b7d-4f4e-9a51-3d1c2b7e6f10/restock", a.adminToken, map[string]interface{}{"quantity": 5})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = a.do(t, http.MethodPost, "/api/sweets/not-a-uuid/restock", a.adminToken, map[string]interface{}{"quantity": 5})
	assert.Equal(t, http.StatusBadRequest, status)

	assert.Equal(t, 13, testutil.Quantity(t, a.db, p.ID))
}

func sweetNames(raw interface{}) []string {
	names := []string{}
	for _, s := range raw.([]interface{}) {
		names = append(names, s.(map[string]interface{})["name"].(string))
	}
	return names
}

func TestCatalogueEndpoints(t *testing.T) {
	a := newTestApp(t, false)
	testutil.CreateSweet(t, a.db, "Gummy Bears", "3.49", 50)

	status, body := a.do(t, http.MethodPost, "/api/sweets", a.adminToken, map[string]interface{}{
		"name": "Apple Pie", "category": "Pies", "price": 18.99, "quantity": 8,
	})
	require.Equal(t, http.StatusCreated, status, body)
	created := body["data"].(map[string]interface{})

	status, _ = a.do(t, http.MethodPost, "/api/sweets", a.userToken, map[string]interface{}{
		"name": "Sneaky", "category": "Pies", "price": 1, "quantity": 1,
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = a.do(t, http.MethodGet, "/api/sweets?sortBy=name&order=asc", "", nil)
	require.Equal(t, http.StatusOK, status)
	page := body["data"].(map[string]interface{})
	assert.Equal(t, []string{"Apple Pie", "Gummy Bears"}, sweetNames(page["sweets"]))
	assert.EqualValues(t, 2, page["pagination"].(map[string]interface{})["totalItems"])

	status, body = a.do(t, http.MethodGet, "/api/sweets?sortBy=name&order=desc", "", nil)
	require.Equal(t, http.StatusOK, status)
	page = body["data"].(map[string]interface{})
	assert.Equal(t, []string{"Gummy Bears", "Apple Pie"}, sweetNames(page["sweets"]))

	status, body = a.do(t, http.MethodGet, "/api/sweets/categories", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []interface{}{"Candies", "Pies"}, body["data"])

	status, body = a.do(t, http.MethodGet, "/api/sweets/search?minPrice=10", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _ = a.do(t, http.MethodGet, "/api/sweets/search?minPrice=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = a.do(t, http.MethodGet, "/api/sweets/"+created["id"].(string), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Apple Pie", body["data"].(map[string]interface{})["name"])

	status, _ = a.do(t, http.MethodDelete, "/api/sweets/"+created["id"].(string), a.adminToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = a.do(t, http.MethodGet, "/api/sweets/"+created["id"].(string), "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestTransactionEndpoints(t *testing.T) {
	a := newTestApp(t, false)
	p := testutil.CreateSweet(t, a.db, "P", "3.99", 10)

	status, body := a.do(t, http.MethodPost, "/api/sweets/purchase", a.userToken, map[string]interface{}{"items": []interface{}{item(p.ID, 2)}})
	require.Equal(t, http.StatusCreated, status, body)
	txID := body["data"].(map[string]interface{})["transaction"].(map[string]interface{})["id"].(string)

	status, body = a.do(t, http.MethodGet, "/api/transactions/user", a.userToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"].(map[string]interface{})["transactions"], 1)

	status, _ = a.do(t, http.MethodGet, "/api/transactions/"+txID, a.userToken, nil)
	assert.Equal(t, http.StatusOK, status)

	other := testutil.CreateUser(t, a.db, "other@example.com", model.RoleUser)
	otherToken, err := a.tokens.GenerateToken(other.ID, other.Email, other.Name, other.Role)
	require.NoError(t, err)
	status, body = a.do(t, http.MethodGet, "/api/transactions/"+txID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Access denied", body["error"])

	status, _ = a.do(t, http.MethodGet, "/api/transactions/"+txID, a.adminToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = a.do(t, http.MethodGet, "/api/transactions", a.userToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = a.do(t, http.MethodGet, "/api/transactions/sales-report", a.adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	summary := body["data"].(map[string]interface{})["summary"].(map[string]interface{})
	assert.Equal(t, 7.98, summary["totalSales"])

	status, _ = a.do(t, http.MethodGet, "/api/transactions?startDate=yesterday", a.adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = a.do(t, http.MethodGet, "/api/dashboard/stats", a.adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["data"].(map[string]interface{})["totalSweets"])
}

func TestAuthEndpoints(t *testing.T) {
	a := newTestApp(t, false)

	status, body := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"name": "Ada Lovelace", "email": "ada@example.com", "password": "Secret123",
	})
	require.Equal(t, http.StatusCreated, status, body)
	token := body["data"].(map[string]interface{})["token"].(string)

	status, _ = a.do(t, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"name": "Ada Lovelace", "email": "ada@example.com", "password": "Secret123",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = a.do(t, http.MethodPost, "/api/auth/login", "", map[string]interface{}{"email": "ada@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = a.do(t, http.MethodGet, "/api/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ada@example.com", body["data"].(map[string]interface{})["email"])

	status, _ = a.do(t, http.MethodGet, "/api/auth/profile", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRequestEndpoints(t *testing.T) {
	a := newTestApp(t, false)

	status, body := a.do(t, http.MethodPost, "/api/requests", a.userToken, map[string]interface{}{
		"type": "new_item", "title": "Liquorice please", "message": "Black liquorice would be great",
	})
	require.Equal(t, http.StatusCreated, status, body)
	id := body["data"].(map[string]interface{})["id"].(string)

	status, body = a.do(t, http.MethodGet, "/api/requests/my-requests", a.userToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _ = a.do(t, http.MethodGet, "/api/requests/admin/all", a.userToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = a.do(t, http.MethodPut, "/api/requests/"+id+"/respond", a.adminToken, map[string]interface{}{
		"status": "in_progress", "adminResponse": "Ordering some",
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "in_progress", body["data"].(map[string]interface{})["status"])
}
