package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/retail-api/internal/application/sideeffect"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

// Publisher difunde una notificación ya persistida (tiempo real). Opcional.
type Publisher interface {
	Publish(ctx context.Context, n *entity.Notification) error
}

// Message datos de una notificación a enviar.
type Message struct {
	UserID    string
	CompanyID string
	StoreID   string
	Title     string
	Body      string
	Severity  entity.Severity
	Metadata  map[string]any
}

// Notifier crea notificaciones por usuario como efecto de mejor esfuerzo.
type Notifier struct {
	repo      repository.NotificationRepository
	publisher Publisher
	emitter   *sideeffect.Emitter
	now       func() time.Time
}

// NewNotifier construye el notificador. publisher puede ser nil (sin difusión).
func NewNotifier(repo repository.NotificationRepository, publisher Publisher, emitter *sideeffect.Emitter) *Notifier {
	return &Notifier{repo: repo, publisher: publisher, emitter: emitter, now: time.Now}
}

// Notify persiste la notificación y, si hay publisher, la difunde. Nunca devuelve error;
// el resultado indica si quedó persistida.
func (n *Notifier) Notify(ctx context.Context, m Message) bool {
	if m.UserID == "" {
		return false
	}
	severity := m.Severity
	if severity == "" {
		severity = entity.SeverityInfo
	}
	notif := &entity.Notification{
		ID:        uuid.New().String(),
		UserID:    m.UserID,
		CompanyID: m.CompanyID,
		StoreID:   m.StoreID,
		Title:     m.Title,
		Message:   m.Body,
		Severity:  severity,
		CreatedAt: n.now().UTC(),
	}

	persisted := n.emitter.Emit(ctx, "notification", func(ctx context.Context) error {
		if len(m.Metadata) > 0 {
			meta, err := json.Marshal(m.Metadata)
			if err != nil {
				return fmt.Errorf("notification metadata: %w", err)
			}
			notif.Metadata = meta
		}
		return n.repo.Create(ctx, notif)
	})
	if !persisted || n.publisher == nil {
		return persisted
	}

	n.emitter.Emit(ctx, "notification:publish", func(ctx context.Context) error {
		return n.publisher.Publish(ctx, notif)
	})
	return true
}
