package service

import (
	"context"
	"strings"
	"time"

	"sweetshop-api/internal/model"
	"sweetshop-api/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type RequestService interface {
	CreateRequest(ctx context.Context, actor Actor, req *CreateRequestInput) (*model.Request, error)
	GetMyRequests(ctx context.Context, userID uuid.UUID) ([]model.Request, error)
	GetAllRequests(ctx context.Context, status model.RequestStatus, reqType model.RequestType) ([]model.Request, error)
	RespondToRequest(ctx context.Context, id uuid.UUID, admin Actor, req *RespondInput) (*model.Request, error)
}

type CreateRequestInput struct {
	Type        model.RequestType   `json:"type"`
	Title       string              `json:"title"`
	Message     string              `json:"message"`
	Items       []model.RequestItem `json:"items"`
	OrderNumber string              `json:"orderNumber"`
}

type RespondInput struct {
	Status        model.RequestStatus `json:"status"`
	AdminResponse string              `json:"adminResponse"`
}

type requestService struct {
	requestRepo repository.RequestRepository
}

func NewRequestService(requestRepo repository.RequestRepository) RequestService {
	return &requestService{requestRepo: requestRepo}
}

func validRequestType(t model.RequestType) bool {
	switch t {
	case model.RequestRestock, model.RequestNewItem, model.RequestGeneral:
		return true
	}
	return false
}

func validRequestStatus(s model.RequestStatus) bool {
	switch s {
	case model.RequestPending, model.RequestInProgress, model.RequestCompleted, model.RequestRejected:
		return true
	}
	return false
}

func (s *requestService) CreateRequest(ctx context.Context, actor Actor, req *CreateRequestInput) (*model.Request, error) {
	if req.Type == "" {
		req.Type = model.RequestGeneral
	}
	if !validRequestType(req.Type) {
		return nil, newValidationError("Unknown request type '%s'", req.Type)
	}

	title := strings.TrimSpace(req.Title)
	message := strings.TrimSpace(req.Message)
	if title == "" || message == "" {
		return nil, newValidationError("Title and message are required")
	}
	if len(title) > 200 {
		return nil, newValidationError("Title must be at most 200 characters")
	}
	for i, item := range req.Items {
		if strings.TrimSpace(item.SweetName) == "" || item.Quantity < 1 {
			return nil, newValidationError("Invalid item data at position %d", i+1)
		}
	}

	request := &model.Request{
		UserID:      actor.ID,
		Type:        req.Type,
		Title:       title,
		Message:     message,
		Items:       req.Items,
		OrderNumber: strings.TrimSpace(req.OrderNumber),
		Status:      model.RequestPending,
	}
	request.CreatedBy = actor.ID.String()
	request.UpdatedBy = actor.ID.String()

	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, errors.Wrap(err, "create request")
	}

	log.WithFields(log.Fields{
		"request_id": request.ID,
		"user_id":    actor.ID,
		"type":       request.Type,
	}).Info("customer request created")
	return request, nil
}

func (s *requestService) GetMyRequests(ctx context.Context, userID uuid.UUID) ([]model.Request, error) {
	return s.requestRepo.FindByUser(ctx, userID)
}

func (s *requestService) GetAllRequests(ctx context.Context, status model.RequestStatus, reqType model.RequestType) ([]model.Request, error) {
	if status != "" && !validRequestStatus(status) {
		return nil, newValidationError("Unknown request status '%s'", status)
	}
	if reqType != "" && !validRequestType(reqType) {
		return nil, newValidationError("Unknown request type '%s'", reqType)
	}
	return s.requestRepo.FindAll(ctx, status, reqType)
}

func (s *requestService) RespondToRequest(ctx context.Context, id uuid.UUID, admin Actor, req *RespondInput) (*model.Request, error) {
	if !validRequestStatus(req.Status) {
		return nil, newValidationError("Unknown request status '%s'", req.Status)
	}

	request, err := s.requestRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	request.Status = req.Status
	request.AdminResponse = strings.TrimSpace(req.AdminResponse)
	request.RespondedAt = &now
	request.RespondedByID = &admin.ID
	request.UpdatedBy = admin.ID.String()

	if err := s.requestRepo.Update(ctx, request); err != nil {
		return nil, errors.Wrap(err, "update request")
	}
	return request, nil
}
