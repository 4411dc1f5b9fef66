package service

import (
	"context"
	"fmt"

	"sweetshop-api/internal/cache"
	"sweetshop-api/internal/model"
	"sweetshop-api/internal/repository"
	"sweetshop-api/internal/ws"
	"sweetshop-api/pkg/validator"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultImage = "🍬"

type InventoryService interface {
	CreateSweet(ctx context.Context, req *SweetInput, actor Actor) (*model.Sweet, error)
	UpdateSweet(ctx context.Context, id uuid.UUID, req *SweetInput, actor Actor) (*model.Sweet, error)
	DeleteSweet(ctx context.Context, id uuid.UUID, actor Actor) error
	GetSweet(ctx context.Context, id uuid.UUID) (*model.Sweet, error)
	ListSweets(ctx context.Context, filter repository.SweetFilter) (*SweetPage, error)
	SearchSweets(ctx context.Context, criteria repository.SweetSearch) ([]model.Sweet, error)
	GetCategories(ctx context.Context) ([]string, error)
	GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error)
}

// SweetInput is the admin form for creating or editing a sweet.
type SweetInput struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Image       string          `json:"image"`
	ImageURL    string          `json:"imageUrl"`
}

type Pagination struct {
	Current    int   `json:"current"`
	Total      int   `json:"total"`
	Count      int   `json:"count"`
	TotalItems int64 `json:"totalItems"`
}

type SweetPage struct {
	Sweets     []model.Sweet `json:"sweets"`
	Pagination Pagination    `json:"pagination"`
}

type inventoryService struct {
	sweetRepo       repository.SweetRepository
	transactionRepo repository.TransactionRepository
	db              *gorm.DB
	cache           *cache.SweetCache
	wsHub           *ws.Hub
}

func NewInventoryService(sRepo repository.SweetRepository, tRepo repository.TransactionRepository, db *gorm.DB, c *cache.SweetCache, hub *ws.Hub) InventoryService {
	return &inventoryService{
		sweetRepo:       sRepo,
		transactionRepo: tRepo,
		db:              db,
		cache:           c,
		wsHub:           hub,
	}
}

func (in *SweetInput) apply(sweet *model.Sweet) {
	sweet.Name = in.Name
	sweet.Category = in.Category
	sweet.Description = in.Description
	sweet.Price = in.Price
	sweet.Quantity = in.Quantity
	sweet.Image = in.Image
	if sweet.Image == "" {
		sweet.Image = defaultImage
	}
	if in.ImageURL != "" {
		sweet.ImageURL = in.ImageURL
	}
}

func validateSweet(sweet *model.Sweet) error {
	if errs := validator.ValidateStruct(sweet); len(errs) > 0 {
		return ValidationError{Message: validator.Message(errs)}
	}
	return nil
}

func (s *inventoryService) CreateSweet(ctx context.Context, req *SweetInput, actor Actor) (*model.Sweet, error) {
	sweet := &model.Sweet{}
	req.apply(sweet)
	if err := validateSweet(sweet); err != nil {
		return nil, err
	}

	sweet.CreatedBy = actor.ID.String()
	sweet.UpdatedBy = actor.ID.String()

	if err := s.sweetRepo.Create(ctx, sweet); err != nil {
		return nil, errors.Wrap(err, "create sweet")
	}

	s.cache.Invalidate(ctx)
	s.wsHub.Publish(ws.Event{
		Type:    "stock_update",
		Action:  "sweet_created",
		Data:    sweet,
		User:    actor.wsUser(),
		Message: fmt.Sprintf("%s added '%s' to the inventory", actor.Name, sweet.Name),
	})
	return sweet, nil
}

// UpdateSweet locks the row so an edit cannot interleave with a checkout on the same sweet.
func (s *inventoryService) UpdateSweet(ctx context.Context, id uuid.UUID, req *SweetInput, actor Actor) (*model.Sweet, error) {
	var (
		updated  *model.Sweet
		oldStock int
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.sweetRepo.FindForUpdate(tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSweetNotFound
		}
		if err != nil {
			return errors.Wrap(err, "load sweet")
		}

		oldStock = existing.Quantity
		req.apply(existing)
		if err := validateSweet(existing); err != nil {
			return err
		}
		existing.UpdatedBy = actor.ID.String()

		if err := tx.Save(existing).Error; err != nil {
			return errors.Wrap(err, "save sweet")
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, updated.ID)
	s.wsHub.Publish(ws.Event{
		Type:   "stock_update",
		Action: "sweet_updated",
		Data: map[string]interface{}{
			"id":        updated.ID,
			"name":      updated.Name,
			"old_stock": oldStock,
			"new_stock": updated.Quantity,
			"price":     updated.Price,
		},
		User:    actor.wsUser(),
		Message: fmt.Sprintf("%s updated '%s'", actor.Name, updated.Name),
	})
	return updated, nil
}

func (s *inventoryService) DeleteSweet(ctx context.Context, id uuid.UUID, actor Actor) error {
	if err := s.sweetRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSweetNotFound
		}
		return errors.Wrap(err, "delete sweet")
	}

	s.cache.Invalidate(ctx, id)
	s.wsHub.Publish(ws.Event{
		Type:    "stock_update",
		Action:  "sweet_deleted",
		Data:    map[string]interface{}{"id": id},
		User:    actor.wsUser(),
		Message: fmt.Sprintf("%s removed a sweet from the inventory", actor.Name),
	})
	return nil
}

func (s *inventoryService) GetSweet(ctx context.Context, id uuid.UUID) (*model.Sweet, error) {
	if sweet, ok := s.cache.GetSweet(ctx, id); ok {
		return sweet, nil
	}

	sweet, err := s.sweetRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSweetNotFound
	}
	if err != nil {
		return nil, err
	}

	s.cache.SetSweet(ctx, sweet)
	return sweet, nil
}

func (s *inventoryService) ListSweets(ctx context.Context, filter repository.SweetFilter) (*SweetPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 10
	}

	sweets, total, err := s.sweetRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &SweetPage{
		Sweets: sweets,
		Pagination: Pagination{
			Current:    filter.Page,
			Total:      int((total + int64(filter.Limit) - 1) / int64(filter.Limit)),
			Count:      len(sweets),
			TotalItems: total,
		},
	}, nil
}

func (s *inventoryService) SearchSweets(ctx context.Context, criteria repository.SweetSearch) ([]model.Sweet, error) {
	if criteria.MinPrice != nil && criteria.MinPrice.IsNegative() {
		return nil, newValidationError("Minimum price must be non-negative")
	}
	if criteria.MaxPrice != nil && criteria.MaxPrice.IsNegative() {
		return nil, newValidationError("Maximum price must be non-negative")
	}
	if criteria.MinPrice != nil && criteria.MaxPrice != nil && criteria.MaxPrice.LessThan(*criteria.MinPrice) {
		return nil, newValidationError("Maximum price must be greater than minimum price")
	}
	return s.sweetRepo.Search(ctx, criteria)
}

func (s *inventoryService) GetCategories(ctx context.Context) ([]string, error) {
	if categories, ok := s.cache.GetCategories(ctx); ok {
		return categories, nil
	}

	categories, err := s.sweetRepo.Categories(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.SetCategories(ctx, categories)
	return categories, nil
}

func (s *inventoryService) GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	return s.transactionRepo.GetDashboardStats(ctx)
}
