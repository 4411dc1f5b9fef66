package repository

import (
	"context"

	"sweetshop-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequestRepository interface {
	Create(ctx context.Context, request *model.Request) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]model.Request, error)
	FindAll(ctx context.Context, status model.RequestStatus, reqType model.RequestType) ([]model.Request, error)
	Update(ctx context.Context, request *model.Request) error
}

type requestRepo struct {
	db *gorm.DB
}

func NewRequestRepo(db *gorm.DB) RequestRepository {
	return &requestRepo{db}
}

func (r *requestRepo) Create(ctx context.Context, request *model.Request) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *requestRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var request model.Request
	err := r.db.WithContext(ctx).Preload("User").Preload("RespondedBy").First(&request, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]model.Request, error) {
	var requests []model.Request
	err := r.db.WithContext(ctx).
		Preload("RespondedBy").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *requestRepo) FindAll(ctx context.Context, status model.RequestStatus, reqType model.RequestType) ([]model.Request, error) {
	q := r.db.WithContext(ctx).Preload("User").Preload("RespondedBy")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if reqType != "" {
		q = q.Where("type = ?", reqType)
	}

	var requests []model.Request
	err := q.Order("created_at DESC").Find(&requests).Error
	return requests, err
}

func (r *requestRepo) Update(ctx context.Context, request *model.Request) error {
	return r.db.WithContext(ctx).Omit("User", "RespondedBy").Save(request).Error
}
