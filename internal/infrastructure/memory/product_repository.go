package memory

import (
	"context"

	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo productos en memoria. Mantiene la unicidad (company_id, sku), sensible a mayúsculas como el índice de PostgreSQL.
type ProductRepo struct{ db *DB }

// NewProductRepository construye el repositorio.
func NewProductRepository(db *DB) *ProductRepo { return &ProductRepo{db: db} }

// GetScope lee solo el alcance del producto.
func (r *ProductRepo) GetScope(_ context.Context, id string) (*entity.ProductScope, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	p, ok := r.db.products[id]
	if !ok {
		return nil, nil
	}
	return &entity.ProductScope{ID: p.ID, CompanyID: p.CompanyID, StoreID: p.StoreID}, nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	p, ok := r.db.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// GetByIDAndCompany obtiene el producto solo si pertenece a la empresa.
func (r *ProductRepo) GetByIDAndCompany(ctx context.Context, id, companyID string) (*entity.Product, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil || p == nil || p.CompanyID != companyID {
		return nil, err
	}
	return p, nil
}

// CreateIfAbsent inserta salvo que el ID ya exista.
func (r *ProductRepo) CreateIfAbsent(_ context.Context, p *entity.Product) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.products[p.ID]; ok {
		return false, nil
	}
	if r.skuTaken(p.CompanyID, p.SKU, p.ID) {
		return false, domain.ErrDuplicate
	}
	r.db.products[p.ID] = *p
	return true, nil
}

// Update sobrescribe el producto de la misma empresa.
func (r *ProductRepo) Update(_ context.Context, p *entity.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	current, ok := r.db.products[p.ID]
	if !ok || current.CompanyID != p.CompanyID {
		return domain.ErrProductNotFound
	}
	if r.skuTaken(p.CompanyID, p.SKU, p.ID) {
		return domain.ErrDuplicate
	}
	next := *p
	next.CreatedAt = current.CreatedAt
	next.CreatedBy = current.CreatedBy
	r.db.products[p.ID] = next
	return nil
}

// Delete elimina un producto por ID.
func (r *ProductRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.products, id)
	return nil
}

func (r *ProductRepo) skuTaken(companyID, sku, exceptID string) bool {
	if sku == "" {
		return false
	}
	for id, other := range r.db.products {
		if id != exceptID && other.CompanyID == companyID && other.SKU == sku {
			return true
		}
	}
	return false
}
