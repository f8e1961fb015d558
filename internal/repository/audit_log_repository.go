package repository

import (
	"context"

	"github.com/rvmaher/dermatouch-backend/internal/domain/model"
)

type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
}
