package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

var (
	_ repository.AuditLogRepository     = (*AuditLogRepo)(nil)
	_ repository.NotificationRepository = (*NotificationRepo)(nil)
)

// AuditLogRepo auditoría de solo inserción sobre PostgreSQL.
type AuditLogRepo struct {
	q Querier
}

// NewAuditLogRepository construye el adaptador.
func NewAuditLogRepository(q Querier) *AuditLogRepo {
	return &AuditLogRepo{q: q}
}

// Create inserta un registro de auditoría.
func (r *AuditLogRepo) Create(ctx context.Context, l *entity.AuditLog) error {
	const query = `
		INSERT INTO audit_logs (id, entity_type, entity_id, action, user_id, company_id, store_id, changes, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.EntityType, l.EntityID, l.Action, l.UserID, nullable(l.CompanyID), nullable(l.StoreID),
		nullJSON(l.Changes), nullJSON(l.Metadata), l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// NotificationRepo notificaciones por usuario sobre PostgreSQL.
type NotificationRepo struct {
	q Querier
}

// NewNotificationRepository construye el adaptador.
func NewNotificationRepository(q Querier) *NotificationRepo {
	return &NotificationRepo{q: q}
}

// Create inserta una notificación no leída.
func (r *NotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	const query = `
		INSERT INTO notifications (id, user_id, company_id, store_id, title, message, severity, read, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		n.ID, n.UserID, nullable(n.CompanyID), nullable(n.StoreID), n.Title, n.Message,
		string(n.Severity), n.Read, nullJSON(n.Metadata), n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}
