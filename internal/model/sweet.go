package model

import "github.com/shopspring/decimal"

// LowStockThreshold marks sweets the dashboard reports as running out.
const LowStockThreshold = 10

// Sweet is a sellable item. Quantity is the authoritative stock on hand.
type Sweet struct {
	BaseModel
	Name        string          `gorm:"type:varchar(100);not null;index" json:"name" validate:"required,min=1,max=100"`
	Category    string          `gorm:"type:varchar(50);not null;index" json:"category" validate:"required,min=1,max=50"`
	Description string          `gorm:"type:varchar(500)" json:"description" validate:"max=500"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price" validate:"money"`
	Quantity    int             `gorm:"not null;default:0;check:chk_sweets_quantity,quantity >= 0" json:"quantity" validate:"gte=0,lte=10000"`
	Image       string          `gorm:"type:varchar(16)" json:"image" validate:"max=10"`
	ImageURL    string          `gorm:"type:varchar(255)" json:"imageUrl"`
}

// Purchasable reports whether the sweet can be sold at all.
func (s *Sweet) Purchasable() bool {
	return s.Price.IsPositive()
}
