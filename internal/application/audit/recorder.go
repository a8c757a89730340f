package audit

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

// Entry datos de un registro de auditoría.
type Entry struct {
	EntityType string
	EntityID   string
	Action     string
	UserID     string
	CompanyID  string
	StoreID    string
	Changes    json.RawMessage
	Metadata   map[string]any
}

// Recorder escribe la auditoría como efecto de mejor esfuerzo: nunca bloquea el flujo principal.
type Recorder struct {
	repo    repository.AuditLogRepository
	emitter *sideeffect.Emitter
	now     func() time.Time
}

// NewRecorder construye el registrador de auditoría.
func NewRecorder(repo repository.AuditLogRepository, emitter *sideeffect.Emitter) *Recorder {
	return &Recorder{repo: repo, emitter: emitter, now: time.Now}
}

// Record inserta el registro. Devuelve true si quedó persistido; los fallos solo se registran.
func (r *Recorder) Record(ctx context.Context, e Entry) bool {
	return r.emitter.Emit(ctx, "audit:"+e.Action, func(ctx context.Context) error {
		log := &entity.AuditLog{
			ID:         uuid.New().String(),
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Action:     e.Action,
			UserID:     e.UserID,
			CompanyID:  e.CompanyID,
			StoreID:    e.StoreID,
			Changes:    e.Changes,
			CreatedAt:  r.now().UTC(),
		}
		if len(e.Metadata) > 0 {
			meta, err := json.Marshal(e.Metadata)
			if err != nil {
				return fmt.Errorf("audit metadata: %w", err)
			}
			log.Metadata = meta
		}
		return r.repo.Create(ctx, log)
	})
}
