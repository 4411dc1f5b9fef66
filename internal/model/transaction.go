package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TxPurchase TransactionType = "purchase"
	TxRestock  TransactionType = "restock"
)

type TransactionStatus string

// Only completed is ever persisted. A checkout that fails rolls back and leaves no row,
// so failed is reserved.
const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxFailed    TransactionStatus = "failed"
)

var ErrTransactionImmutable = errors.New("transactions cannot be modified once recorded")

// LineItem is embedded in its Transaction. Name and price are snapshots taken when the
// transaction was built, so later edits to the sweet never rewrite a receipt.
type LineItem struct {
	SweetID   uuid.UUID       `json:"sweetId"`
	SweetName string          `json:"sweetName"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// NewLineItem snapshots the sweet and computes the subtotal.
func NewLineItem(sweet *Sweet, quantity int) LineItem {
	return LineItem{
		SweetID:   sweet.ID,
		SweetName: sweet.Name,
		Quantity:  quantity,
		Price:     sweet.Price,
		Subtotal:  sweet.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// Transaction is the immutable record of a stock-affecting event.
type Transaction struct {
	ID           uuid.UUID                     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID                     `gorm:"type:uuid;not null;index" json:"userId"`
	User         *User                         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Items        datatypes.JSONSlice[LineItem] `gorm:"not null" json:"items"`
	TotalAmount  decimal.Decimal               `gorm:"type:numeric(12,2);not null" json:"totalAmount"`
	Type         TransactionType               `gorm:"column:transaction_type;type:varchar(16);not null;index" json:"transactionType"`
	Status       TransactionStatus             `gorm:"type:varchar(16);not null" json:"status"`
	CustomerInfo datatypes.JSONMap             `json:"customerInfo,omitempty"`
	CreatedAt    time.Time                     `gorm:"index" json:"createdAt"`
}

// NewPurchase builds a completed purchase for the given line items.
func NewPurchase(userID uuid.UUID, items []LineItem, customerInfo map[string]interface{}) *Transaction {
	t := &Transaction{
		UserID: userID,
		Items:  items,
		Type:   TxPurchase,
		Status: TxCompleted,
	}
	if len(customerInfo) > 0 {
		t.CustomerInfo = datatypes.JSONMap(customerInfo)
	}
	t.recalculate()
	return t
}

// NewRestock builds the log entry of a restock. Restock is not a sale, so the
// subtotal and total are zero.
func NewRestock(adminID uuid.UUID, sweet *Sweet, quantity int) *Transaction {
	item := LineItem{
		SweetID:   sweet.ID,
		SweetName: sweet.Name,
		Quantity:  quantity,
		Price:     sweet.Price,
		Subtotal:  decimal.Zero,
	}
	t := &Transaction{
		UserID: adminID,
		Items:  []LineItem{item},
		Type:   TxRestock,
		Status: TxCompleted,
	}
	t.recalculate()
	return t
}

// recalculate enforces subtotal = price * quantity for sales and total = sum(subtotals).
func (t *Transaction) recalculate() {
	total := decimal.Zero
	for i := range t.Items {
		if t.Type == TxRestock {
			t.Items[i].Subtotal = decimal.Zero
		} else {
			t.Items[i].Subtotal = t.Items[i].Price.Mul(decimal.NewFromInt(int64(t.Items[i].Quantity)))
		}
		total = total.Add(t.Items[i].Subtotal)
	}
	t.TotalAmount = total
}

// BeforeCreate never trusts the amounts handed in by the caller.
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = TxCompleted
	}
	t.recalculate()
	return nil
}

func (t *Transaction) BeforeUpdate(tx *gorm.DB) error {
	return ErrTransactionImmutable
}

func (t *Transaction) BeforeDelete(tx *gorm.DB) error {
	return ErrTransactionImmutable
}

// Receipt is the read-only summary handed back after a successful checkout.
type Receipt struct {
	OrderID      uuid.UUID              `json:"orderId"`
	Items        []LineItem             `json:"items"`
	Total        decimal.Decimal        `json:"total"`
	CustomerInfo map[string]interface{} `json:"customerInfo,omitempty"`
	PurchasedAt  time.Time              `json:"purchasedAt"`
}

// Receipt derives the receipt view from a committed transaction.
func (t *Transaction) Receipt() Receipt {
	return Receipt{
		OrderID:      t.ID,
		Items:        t.Items,
		Total:        t.TotalAmount,
		CustomerInfo: t.CustomerInfo,
		PurchasedAt:  t.CreatedAt,
	}
}
