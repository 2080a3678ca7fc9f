package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/felicity-events/felicity-api/internal/domain"
	"github.com/felicity-events/felicity-api/internal/repository/dao"
)

var (
	ErrResetRequestNotFound = dao.ErrResetRequestNotFound
	ErrResetNotPending      = dao.ErrResetNotPending
)

type PasswordResetDAO interface {
	Insert(ctx context.Context, request dao.PasswordResetRequest) (dao.PasswordResetRequest, error)
	FindByID(ctx context.Context, id uint) (dao.PasswordResetRequest, error)
	FindPending(ctx context.Context) ([]dao.PasswordResetRequest, error)
	Resolve(ctx context.Context, id, adminID uint, status string, at time.Time) error
}

type PasswordResetRepository struct {
	dao PasswordResetDAO
}

func NewPasswordResetRepository(dao PasswordResetDAO) *PasswordResetRepository {
	return &PasswordResetRepository{
		dao: dao,
	}
}

func (r *PasswordResetRepository) Create(ctx context.Context, request domain.PasswordResetRequest) (domain.PasswordResetRequest, error) {
	created, err := r.dao.Insert(ctx, dao.PasswordResetRequest{
		OrganizerID: request.OrganizerID,
		Reason:      request.Reason,
		Status:      string(domain.ResetPending),
	})
	if err != nil {
		return domain.PasswordResetRequest{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return resetDaoToDomain(created), nil
}

func (r *PasswordResetRepository) FindByID(ctx context.Context, id uint) (domain.PasswordResetRequest, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.PasswordResetRequest{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return resetDaoToDomain(found), nil
}

func (r *PasswordResetRepository) FindPending(ctx context.Context) ([]domain.PasswordResetRequest, error) {
	found, err := r.dao.FindPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindPending -> %w", err)
	}

	requests := make([]domain.PasswordResetRequest, 0, len(found))
	for _, req := range found {
		requests = append(requests, resetDaoToDomain(req))
	}

	return requests, nil
}

func (r *PasswordResetRepository) Resolve(ctx context.Context, id, adminID uint, status domain.ResetRequestStatus, at time.Time) error {
	if err := r.dao.Resolve(ctx, id, adminID, string(status), at); err != nil {
		return fmt.Errorf("r.dao.Resolve -> %w", err)
	}

	return nil
}

func resetDaoToDomain(req dao.PasswordResetRequest) domain.PasswordResetRequest {
	return domain.PasswordResetRequest{
		ID:          req.ID,
		OrganizerID: req.OrganizerID,
		Reason:      req.Reason,
		Status:      domain.ResetRequestStatus(req.Status),
		ResolvedBy:  req.ResolvedBy,
		ResolvedAt:  req.ResolvedAt,
		CreatedAt:   req.CreatedAt,
	}
}
