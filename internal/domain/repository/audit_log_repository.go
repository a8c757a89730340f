package repository

import (
	"context"

	"github.com/jhoicas/retail-api/internal/domain/entity"
)

// AuditLogRepository puerto de solo inserción para la auditoría.
type AuditLogRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
}
