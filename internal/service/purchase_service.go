package service

import (
	"context"
	"fmt"
	"time"

	"sweetshop-api/internal/cache"
	"sweetshop-api/internal/model"
	"sweetshop-api/internal/repository"
	"sweetshop-api/internal/ws"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	maxLineQuantity    = 100
	maxRestockQuantity = 1000

	defaultCheckoutTimeout = 10 * time.Second
)

// Actor is the authenticated caller as seen by the services.
type Actor struct {
	ID    uuid.UUID
	Name  string
	Email string
}

func (a Actor) wsUser() map[string]interface{} {
	return map[string]interface{}{"id": a.ID, "name": a.Name, "email": a.Email}
}

type BasketItem struct {
	SweetID  uuid.UUID `json:"sweetId"`
	Quantity int       `json:"quantity"`
}

type PurchaseRequest struct {
	Items        []BasketItem           `json:"items"`
	CustomerInfo map[string]interface{} `json:"customerInfo"`
}

type PurchaseResult struct {
	Transaction *model.Transaction `json:"transaction"`
	Receipt     model.Receipt      `json:"receipt"`
}

type RestockResult struct {
	Sweet            *model.Sweet       `json:"sweet"`
	PreviousQuantity int                `json:"previousQuantity"`
	NewQuantity      int                `json:"newQuantity"`
	Transaction      *model.Transaction `json:"transaction"`
	Recorded         bool               `json:"recorded"`
}

type PurchaseService interface {
	Purchase(ctx context.Context, buyer Actor, req *PurchaseRequest) (*PurchaseResult, error)
	Restock(ctx context.Context, admin Actor, sweetID uuid.UUID, quantity int) (*RestockResult, error)
}

type purchaseService struct {
	sweetRepo       repository.SweetRepository
	transactionRepo repository.TransactionRepository
	db              *gorm.DB
	cache           *cache.SweetCache
	wsHub           *ws.Hub
	checkoutTimeout time.Duration
}

func NewPurchaseService(sRepo repository.SweetRepository, tRepo repository.TransactionRepository, db *gorm.DB, c *cache.SweetCache, hub *ws.Hub, checkoutTimeout time.Duration) PurchaseService {
	if checkoutTimeout <= 0 {
		checkoutTimeout = defaultCheckoutTimeout
	}
	return &purchaseService{
		sweetRepo:       sRepo,
		transactionRepo: tRepo,
		db:              db,
		cache:           c,
		wsHub:           hub,
		checkoutTimeout: checkoutTimeout,
	}
}

// Purchase debits every basket line and records one receipt in a single database
// transaction. Either all lines commit together with the receipt or nothing does;
// a failed checkout leaves no transaction row behind.
func (s *purchaseService) Purchase(ctx context.Context, buyer Actor, req *PurchaseRequest) (*PurchaseResult, error) {
	if err := validateBasket(req); err != nil {
		return nil, err
	}

	// A client hanging up does not interrupt a checkout; only the store deadline does.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.checkoutTimeout)
	defer cancel()

	var record *model.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := make([]model.LineItem, 0, len(req.Items))

		for _, item := range req.Items {
			sweet, err := s.sweetRepo.FindForUpdate(tx, item.SweetID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{SweetID: item.SweetID}
			}
			if err != nil {
				return errors.Wrapf(err, "load sweet %s", item.SweetID)
			}

			if !sweet.Purchasable() {
				return newValidationError("%s is not available for sale", sweet.Name)
			}
			if sweet.Quantity < item.Quantity {
				return &InsufficientStockError{SweetID: sweet.ID, Name: sweet.Name, Available: sweet.Quantity, Requested: item.Quantity}
			}

			if err := s.sweetRepo.AdjustQuantity(tx, sweet.ID, -item.Quantity, 0, buyer.ID.String()); err != nil {
				if errors.Is(err, repository.ErrStockBelowMinimum) {
					return &InsufficientStockError{SweetID: sweet.ID, Name: sweet.Name, Available: sweet.Quantity, Requested: item.Quantity}
				}
				return errors.Wrapf(err, "adjust stock of %s", sweet.ID)
			}

			items = append(items, model.NewLineItem(sweet, item.Quantity))
		}

		record = model.NewPurchase(buyer.ID, items, req.CustomerInfo)
		if err := s.transactionRepo.Create(tx, record); err != nil {
			return errors.Wrap(err, "record purchase")
		}
		return nil
	})
	if err != nil {
		entry := log.WithFields(log.Fields{"user_id": buyer.ID, "lines": len(req.Items)}).WithError(err)
		if IsBusiness(err) {
			entry.Info("purchase rejected")
		} else {
			entry.Error("purchase failed")
		}
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":        buyer.ID,
		"transaction_id": record.ID,
		"total":          record.TotalAmount.StringFixed(2),
	}).Info("purchase completed")

	ids := make([]uuid.UUID, 0, len(record.Items))
	for _, item := range record.Items {
		ids = append(ids, item.SweetID)
	}
	s.cache.Invalidate(ctx, ids...)
	s.wsHub.Publish(ws.Event{
		Type:    "stock_update",
		Action:  "purchase_completed",
		Data:    map[string]interface{}{"transactionId": record.ID, "items": record.Items},
		User:    buyer.wsUser(),
		Message: fmt.Sprintf("%s purchased %d item(s)", buyer.Name, len(record.Items)),
	})

	return &PurchaseResult{Transaction: record, Receipt: record.Receipt()}, nil
}

// Restock adds stock to one sweet and then logs a restock transaction. The log write
// happens after the stock change is committed and its failure does not undo it.
func (s *purchaseService) Restock(ctx context.Context, admin Actor, sweetID uuid.UUID, quantity int) (*RestockResult, error) {
	if quantity <= 0 || quantity > maxRestockQuantity {
		return nil, newValidationError("Restock quantity must be between 1 and %d", maxRestockQuantity)
	}

	var (
		sweet    *model.Sweet
		previous int
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.sweetRepo.FindForUpdate(tx, sweetID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{SweetID: sweetID}
		}
		if err != nil {
			return errors.Wrapf(err, "load sweet %s", sweetID)
		}

		if err := s.sweetRepo.AdjustQuantity(tx, found.ID, quantity, 0, admin.ID.String()); err != nil {
			return errors.Wrapf(err, "adjust stock of %s", found.ID)
		}

		previous = found.Quantity
		found.Quantity += quantity
		sweet = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	record := model.NewRestock(admin.ID, sweet, quantity)
	recorded := true
	if err := s.transactionRepo.Create(s.db.WithContext(context.WithoutCancel(ctx)), record); err != nil {
		recorded = false
		log.WithError(err).WithFields(log.Fields{
			"sweet_id": sweet.ID,
			"quantity": quantity,
			"admin_id": admin.ID,
		}).Warn("restock applied but its transaction could not be recorded")
	}

	s.cache.Invalidate(ctx, sweet.ID)
	s.wsHub.Publish(ws.Event{
		Type:   "stock_update",
		Action: "sweet_restocked",
		Data: map[string]interface{}{
			"id":        sweet.ID,
			"name":      sweet.Name,
			"old_stock": previous,
			"new_stock": sweet.Quantity,
		},
		User:    admin.wsUser(),
		Message: fmt.Sprintf("%s restocked %d units of '%s'", admin.Name, quantity, sweet.Name),
	})

	return &RestockResult{
		Sweet:            sweet,
		PreviousQuantity: previous,
		NewQuantity:      sweet.Quantity,
		Transaction:      record,
		Recorded:         recorded,
	}, nil
}

func validateBasket(req *PurchaseRequest) error {
	if req == nil || len(req.Items) == 0 {
		return ErrEmptyBasket
	}
	for i, item := range req.Items {
		if item.SweetID == uuid.Nil {
			return newValidationError("Invalid item data at position %d: sweetId is required", i+1)
		}
		if item.Quantity <= 0 || item.Quantity > maxLineQuantity {
			return newValidationError("Invalid item data at position %d: quantity must be between 1 and %d", i+1, maxLineQuantity)
		}
	}
	return nil
}
