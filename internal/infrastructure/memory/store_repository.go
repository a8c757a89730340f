package memory

import (
	"context"
	"time"

	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

var (
	_ repository.StoreRepository   = (*StoreRepo)(nil)
	_ repository.CompanyRepository = (*CompanyRepo)(nil)
)

// StoreRepo tiendas en memoria.
type StoreRepo struct{ db *DB }

// NewStoreRepository construye el repositorio.
func NewStoreRepository(db *DB) *StoreRepo { return &StoreRepo{db: db} }

// Save inserta o reemplaza una tienda.
func (r *StoreRepo) Save(s entity.Store) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.stores[s.ID] = s
}

// GetByID obtiene una tienda por ID.
func (r *StoreRepo) GetByID(_ context.Context, id string) (*entity.Store, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	s, ok := r.db.stores[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// CompanyRepo módulos contratados por empresa en memoria.
type CompanyRepo struct{ db *DB }

// NewCompanyRepository construye el repositorio.
func NewCompanyRepository(db *DB) *CompanyRepo { return &CompanyRepo{db: db} }

// SetModule activa o desactiva un módulo de la empresa.
func (r *CompanyRepo) SetModule(companyID, moduleName string, active bool) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	mods, ok := r.db.modules[companyID]
	if !ok {
		mods = make(map[string]entity.CompanyModule)
		r.db.modules[companyID] = mods
	}
	now := time.Now()
	mods[moduleName] = entity.CompanyModule{
		CompanyID:   companyID,
		ModuleName:  moduleName,
		IsActive:    active,
		ActivatedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// HasActiveModule informa si la empresa tiene el módulo activo y sin vencer.
func (r *CompanyRepo) HasActiveModule(_ context.Context, companyID, moduleName string) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	m, ok := r.db.modules[companyID][moduleName]
	return ok && m.ActiveAt(time.Now()), nil
}
