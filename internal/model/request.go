package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type RequestType string

const (
	RequestRestock RequestType = "restock"
	RequestNewItem RequestType = "new_item"
	RequestGeneral RequestType = "general"
)

type RequestStatus string

const (
	RequestPending    RequestStatus = "pending"
	RequestInProgress RequestStatus = "in_progress"
	RequestCompleted  RequestStatus = "completed"
	RequestRejected   RequestStatus = "rejected"
)

// RequestItem names a sweet a customer asks for. The sweet may not exist yet.
type RequestItem struct {
	SweetName string `json:"sweetName"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes,omitempty"`
}

// Request is a customer ticket (restock wish, new item idea, general message)
// answered by an administrator.
type Request struct {
	BaseModel
	UserID        uuid.UUID                        `gorm:"type:uuid;not null;index" json:"userId"`
	User          *User                            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type          RequestType                      `gorm:"type:varchar(16);not null;default:general" json:"type"`
	Title         string                           `gorm:"type:varchar(200);not null" json:"title"`
	Message       string                           `gorm:"type:text;not null" json:"message"`
	Items         datatypes.JSONSlice[RequestItem] `json:"items"`
	OrderNumber   string                           `gorm:"type:varchar(64)" json:"orderNumber"`
	Status        RequestStatus                    `gorm:"type:varchar(16);not null;default:pending;index" json:"status"`
	AdminResponse string                           `gorm:"type:text" json:"adminResponse"`
	RespondedAt   *time.Time                       `json:"respondedAt,omitempty"`
	RespondedByID *uuid.UUID                       `gorm:"type:uuid" json:"respondedById,omitempty"`
	RespondedBy   *User                            `gorm:"foreignKey:RespondedByID" json:"respondedBy,omitempty"`
}
