package repository

import (
	"context"
	"time"

	"sweetshop-api/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionRepository interface {
	// Create runs on the handle it is given so a checkout can insert inside its unit of work.
	Create(tx *gorm.DB, transaction *model.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	FindAll(ctx context.Context, filter TransactionFilter) ([]model.Transaction, int64, error)
	FindPurchases(ctx context.Context, startDate, endDate *time.Time) ([]model.Transaction, error)
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

// TransactionFilter narrows history listings. A nil UserID means every user.
type TransactionFilter struct {
	UserID    *uuid.UUID
	Type      model.TransactionType
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// DashboardStats untuk overview stats
type DashboardStats struct {
	TotalSweets    int64           `json:"totalSweets"`
	LowStockCount  int64           `json:"lowStockCount"`
	OutOfStock     int64           `json:"outOfStock"`
	TotalValuation decimal.Decimal `json:"totalValuation"`
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) Create(tx *gorm.DB, transaction *model.Transaction) error {
	return tx.Create(transaction).Error
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var transaction model.Transaction
	err := r.db.WithContext(ctx).Preload("User").First(&transaction, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *transactionRepo) FindAll(ctx context.Context, f TransactionFilter) ([]model.Transaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Transaction{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Type != "" {
		q = q.Where("transaction_type = ?", f.Type)
	}
	q = betweenDates(q, f.StartDate, f.EndDate)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var transactions []model.Transaction
	err := q.Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&transactions).Error
	return transactions, total, err
}

// FindPurchases loads every purchase in the window for report aggregation.
// Line items live inside a JSON column, so aggregation happens in Go.
func (r *transactionRepo) FindPurchases(ctx context.Context, startDate, endDate *time.Time) ([]model.Transaction, error) {
	q := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("transaction_type = ?", model.TxPurchase)
	q = betweenDates(q, startDate, endDate)

	var transactions []model.Transaction
	err := q.Order("created_at ASC").Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Sweet{}).Count(&stats.TotalSweets).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Sweet{}).Where("quantity < ?", model.LowStockThreshold).Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Sweet{}).Where("quantity = 0").Count(&stats.OutOfStock).Error; err != nil {
		return nil, err
	}

	var sweets []model.Sweet
	if err := db.Select("price", "quantity").Find(&sweets).Error; err != nil {
		return nil, err
	}
	stats.TotalValuation = decimal.Zero
	for _, s := range sweets {
		stats.TotalValuation = stats.TotalValuation.Add(s.Price.Mul(decimal.NewFromInt(int64(s.Quantity))))
	}

	return &stats, nil
}

func betweenDates(q *gorm.DB, startDate, endDate *time.Time) *gorm.DB {
	if startDate != nil {
		q = q.Where("created_at >= ?", *startDate)
	}
	if endDate != nil {
		q = q.Where("created_at <= ?", *endDate)
	}
	return q
}
