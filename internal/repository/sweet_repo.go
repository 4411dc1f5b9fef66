package repository

import (
	"context"
	"errors"
	"strings"

	"sweetshop-api/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStockBelowMinimum is returned by AdjustQuantity when applying the delta would
// leave the sweet below the expected minimum (or the row is gone).
var ErrStockBelowMinimum = errors.New("stock adjustment would go below minimum")

type SweetRepository interface {
	Create(ctx context.Context, sweet *model.Sweet) error
	Update(ctx context.Context, sweet *model.Sweet) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sweet, error)
	List(ctx context.Context, filter SweetFilter) ([]model.Sweet, int64, error)
	Search(ctx context.Context, criteria SweetSearch) ([]model.Sweet, error)
	Categories(ctx context.Context) ([]string, error)

	// FindForUpdate and AdjustQuantity run on the caller's transaction handle.
	FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Sweet, error)
	AdjustQuantity(tx *gorm.DB, id uuid.UUID, delta, expectedMinimum int, updatedBy string) error
}

// SweetFilter drives the paginated catalogue listing.
type SweetFilter struct {
	Category string
	Search   string
	SortBy   string
	Order    string
	Page     int
	Limit    int
}

// SweetSearch drives the storefront search box.
type SweetSearch struct {
	Name     string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

var sortColumns = map[string]string{
	"createdAt": "created_at",
	"name":      "name",
	"price":     "price",
	"quantity":  "quantity",
	"category":  "category",
}

type sweetRepo struct {
	db *gorm.DB
}

func NewSweetRepo(db *gorm.DB) SweetRepository {
	return &sweetRepo{db}
}

func (r *sweetRepo) Create(ctx context.Context, sweet *model.Sweet) error {
	return r.db.WithContext(ctx).Create(sweet).Error
}

func (r *sweetRepo) Update(ctx context.Context, sweet *model.Sweet) error {
	return r.db.WithContext(ctx).Save(sweet).Error
}

func (r *sweetRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Sweet{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *sweetRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sweet, error) {
	var sweet model.Sweet
	if err := r.db.WithContext(ctx).First(&sweet, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sweet, nil
}

func (r *sweetRepo) List(ctx context.Context, f SweetFilter) ([]model.Sweet, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Sweet{})
	if f.Category != "" && f.Category != "all" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Search != "" {
		pattern := likePattern(f.Search)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = "created_at"
	}
	desc := !strings.EqualFold(f.Order, "asc")

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var sweets []model.Sweet
	err := q.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}).
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&sweets).Error
	return sweets, total, err
}

func (r *sweetRepo) Search(ctx context.Context, c SweetSearch) ([]model.Sweet, error) {
	q := r.db.WithContext(ctx).Model(&model.Sweet{})
	if c.Name != "" {
		q = q.Where("LOWER(name) LIKE ?", likePattern(c.Name))
	}
	if c.Category != "" && c.Category != "all" {
		q = q.Where("category = ?", c.Category)
	}
	if c.MinPrice != nil {
		q = q.Where("price >= ?", *c.MinPrice)
	}
	if c.MaxPrice != nil {
		q = q.Where("price <= ?", *c.MaxPrice)
	}

	var sweets []model.Sweet
	err := q.Order("created_at DESC").Find(&sweets).Error
	return sweets, err
}

func (r *sweetRepo) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).Model(&model.Sweet{}).
		Distinct().
		Order("category ASC").
		Pluck("category", &categories).Error
	return categories, err
}

// FindForUpdate locks the sweet row (SELECT ... FOR UPDATE) until tx ends.
func (r *sweetRepo) FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.Sweet, error) {
	var sweet model.Sweet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sweet, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sweet, nil
}

// AdjustQuantity applies quantity += delta in one conditional statement, so two
// checkouts can never both take the last unit even without the row lock.
func (r *sweetRepo) AdjustQuantity(tx *gorm.DB, id uuid.UUID, delta, expectedMinimum int, updatedBy string) error {
	res := tx.Model(&model.Sweet{}).
		Where("id = ? AND quantity + ? >= ?", id, delta, expectedMinimum).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_by": updatedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockBelowMinimum
	}
	return nil
}

func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}
