package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xelth-com/eckassets/internal/access"
	"github.com/xelth-com/eckassets/internal/models"
)

// RequestRepository persists workflow requests
type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Create(ctx context.Context, req *models.Request) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *RequestRepository) Save(ctx context.Context, req *models.Request) error {
	return r.db.WithContext(ctx).Save(req).Error
}

func (r *RequestRepository) FindByID(ctx context.Context, id uint) (*models.Request, error) {
	var req models.Request
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

// FindByIDForUpdate locks the request so concurrent decisions serialize
func (r *RequestRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.Request, error) {
	var req models.Request
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&req, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

// List returns requests in scope, newest first
func (r *RequestRepository) List(ctx context.Context, scope access.Scope, status models.RequestStatus, requesterID *uint) ([]models.Request, error) {
	q := scope.Apply(r.db.WithContext(ctx), "company_id")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if requesterID != nil {
		q = q.Where("requester_id = ?", *requesterID)
	}
	var list []models.Request
	err := q.Order("requested_at DESC").Order("id DESC").Find(&list).Error
	return list, err
}
