// Package sideeffect ejecuta efectos secundarios de mejor esfuerzo (auditoría, notificaciones)
// después de la escritura principal: emitir, capturar, registrar, nunca propagar.
package sideeffect

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/retail-api/pkg/logger"
)

// FailureObserver recibe cada fallo de un efecto secundario (métricas).
type FailureObserver interface {
	SideEffectFailed(kind string)
}

// Emitter ejecuta efectos secundarios sin propagar sus errores.
type Emitter struct {
	log      *logger.Logger
	timeout  time.Duration
	observer FailureObserver
}

// NewEmitter construye el emisor. timeout <= 0 deja el efecto sin tope propio; observer puede ser nil.
func NewEmitter(log *logger.Logger, timeout time.Duration, observer FailureObserver) *Emitter {
	if log == nil {
		log = logger.Nop()
	}
	return &Emitter{log: log.Component("sideeffect"), timeout: timeout, observer: observer}
}

// Emit ejecuta fn de forma síncrona con un contexto desligado de la cancelación de la petición.
// Errores y panics se registran y se descartan. Devuelve true si fn terminó sin error.
func (e *Emitter) Emit(ctx context.Context, kind string, fn func(ctx context.Context) error) (ok bool) {
	ctx = context.WithoutCancel(ctx)
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			e.fail(kind, fmt.Errorf("panic: %v", r))
			ok = false
		}
	}()

	if err := fn(ctx); err != nil {
		e.fail(kind, err)
		return false
	}
	return true
}

func (e *Emitter) fail(kind string, err error) {
	e.log.Warn().Err(err).Str("side_effect", kind).Msg("efecto secundario fallido, se continúa")
	if e.observer != nil {
		e.observer.SideEffectFailed(kind)
	}
}
