package memory

import (
	"context"

	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

var (
	_ repository.AuditLogRepository     = (*AuditLogRepo)(nil)
	_ repository.NotificationRepository = (*NotificationRepo)(nil)
)

// AuditLogRepo auditoría en memoria (solo inserción).
type AuditLogRepo struct{ db *DB }

// NewAuditLogRepository construye el repositorio.
func NewAuditLogRepository(db *DB) *AuditLogRepo { return &AuditLogRepo{db: db} }

// Create agrega el registro.
func (r *AuditLogRepo) Create(_ context.Context, l *entity.AuditLog) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.auditLogs = append(r.db.auditLogs, *l)
	return nil
}

// NotificationRepo notificaciones en memoria.
type NotificationRepo struct{ db *DB }

// NewNotificationRepository construye el repositorio.
func NewNotificationRepository(db *DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Create agrega la notificación.
func (r *NotificationRepo) Create(_ context.Context, n *entity.Notification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.notifications = append(r.db.notifications, *n)
	return nil
}
