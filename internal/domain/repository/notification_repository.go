package repository

import (
	"context"

	"github.com/jhoicas/retail-api/internal/domain/entity"
)

// NotificationRepository puerto de inserción de notificaciones.
type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
}
