package service

import (
	"context"

	"invofin-backend/internal/domain"
	"invofin-backend/internal/repository"
)

type auditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) ListByEntity(ctx context.Context, entityType string, entityID int32, page, pageSize int32) ([]domain.AuditEvent, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.auditRepo.ListByEntity(ctx, entityType, entityID, page, pageSize)
}
