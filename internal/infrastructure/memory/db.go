// Package memory implementa los puertos de persistencia en memoria (STORAGE_DRIVER=memory y tests).
package memory

import (
	"sync"

	"github.com/jhoicas/retail-api/internal/domain/entity"
)

// DB almacén en memoria compartido por los repositorios. Seguro para uso concurrente.
type DB struct {
	mu            sync.RWMutex
	proposals     map[string]entity.Proposal
	products      map[string]entity.Product
	stores        map[string]entity.Store
	modules       map[string]map[string]entity.CompanyModule // companyID → módulo
	auditLogs     []entity.AuditLog
	notifications []entity.Notification
}

// NewDB crea un almacén vacío.
func NewDB() *DB {
	return &DB{
		proposals: make(map[string]entity.Proposal),
		products:  make(map[string]entity.Product),
		stores:    make(map[string]entity.Store),
		modules:   make(map[string]map[string]entity.CompanyModule),
	}
}

// AuditLogs devuelve una copia de la auditoría en orden de inserción.
func (db *DB) AuditLogs() []entity.AuditLog {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]entity.AuditLog(nil), db.auditLogs...)
}

// Notifications devuelve una copia de las notificaciones en orden de inserción.
func (db *DB) Notifications() []entity.Notification {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]entity.Notification(nil), db.notifications...)
}
