package repository

import (
	"context"

	"github.com/jhoicas/retail-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// Las lecturas devuelven (nil, nil) cuando el producto no existe.
type ProductRepository interface {
	// GetScope lee solo company_id/store_id, sin cargar el producto completo.
	GetScope(ctx context.Context, id string) (*entity.ProductScope, error)
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetByIDAndCompany(ctx context.Context, id, companyID string) (*entity.Product, error)
	// CreateIfAbsent inserta el producto salvo que ya exista uno con el mismo ID.
	// created=false indica que el producto ya existía (reintento idempotente).
	CreateIfAbsent(ctx context.Context, product *entity.Product) (created bool, err error)
	// Update sobrescribe los campos editables del producto (id, company_id). ErrProductNotFound si no coincide.
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id string) error
}
