// Package testutil opens throwaway databases and seeds fixtures for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"sweetshop-api/internal/model"
	"sweetshop-api/pkg/database"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbCounter atomic.Int64

// NewDB returns a migrated in-memory database private to the test. A single
// connection serializes transactions the way row locks do on Postgres.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:sweetshop_%d?mode=memory&cache=shared", dbCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: database.NewLogger(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateUser stores a user with the given role and password "Password123".
func CreateUser(t testing.TB, db *gorm.DB, email, role string) *model.User {
	t.Helper()

	user := &model.User{Name: "Test User", Email: email, Role: role}
	require.NoError(t, user.SetPassword("Password123"))
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateSweet stores a sweet priced from a decimal string.
func CreateSweet(t testing.TB, db *gorm.DB, name, price string, quantity int) *model.Sweet {
	t.Helper()

	sweet := &model.Sweet{
		Name:     name,
		Category: "Candies",
		Price:    decimal.RequireFromString(price),
		Quantity: quantity,
		Image:    "🍬",
	}
	require.NoError(t, db.Create(sweet).Error)
	return sweet
}

// Quantity reads the current stock straight from the table.
func Quantity(t testing.TB, db *gorm.DB, id uuid.UUID) int {
	t.Helper()

	var sweet model.Sweet
	require.NoError(t, db.First(&sweet, "id = ?", id).Error)
	return sweet.Quantity
}

// CountTransactions counts recorded transactions of a type (all types when empty).
func CountTransactions(t testing.TB, db *gorm.DB, txType model.TransactionType) int64 {
	t.Helper()

	var n int64
	q := db.Model(&model.Transaction{})
	if txType != "" {
		q = q.Where("transaction_type = ?", txType)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

// AssertMoney compares a decimal against its string form ("18.97").
func AssertMoney(t testing.TB, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "expected %s, got %s", want, got.String())
}
