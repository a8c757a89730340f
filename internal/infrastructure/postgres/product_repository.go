package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, company_id, store_id, sku, name, description, category,
	cost_price, selling_price, quantity, min_quantity, unit, tax_rate, tax_included,
	attributes, created_by, updated_by, created_at, updated_at`

// GetScope obtiene solo empresa y tienda del producto.
func (r *ProductRepo) GetScope(ctx context.Context, id string) (*entity.ProductScope, error) {
	var (
		s       entity.ProductScope
		storeID *string
	)
	err := r.q.QueryRow(ctx, `SELECT id, company_id, store_id FROM products WHERE id = $1`, id).
		Scan(&s.ID, &s.CompanyID, &storeID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product scope: %w", err)
	}
	s.StoreID = deref(storeID)
	return &s, nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	row := r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// GetByIDAndCompany obtiene un producto por ID solo si pertenece a la empresa.
func (r *ProductRepo) GetByIDAndCompany(ctx context.Context, id, companyID string) (*entity.Product, error) {
	row := r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 AND company_id = $2`, id, companyID)
	return scanProduct(row)
}

// CreateIfAbsent inserta el producto; si el ID ya existe no hace nada y devuelve false.
func (r *ProductRepo) CreateIfAbsent(ctx context.Context, p *entity.Product) (bool, error) {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO NOTHING`
	cmd, err := r.q.Exec(ctx, query,
		p.ID, p.CompanyID, nullable(p.StoreID), p.SKU, p.Name, p.Description, p.Category,
		p.Pricing.CostPrice, p.Pricing.SellingPrice, p.Inventory.Quantity, p.Inventory.MinQuantity,
		p.Inventory.Unit, p.Tax.Rate, p.Tax.Included, nullJSON(p.Attributes),
		p.CreatedBy, p.UpdatedBy, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, domain.ErrDuplicate
		}
		return false, fmt.Errorf("insert product: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// Update sobrescribe los campos editables del producto de la misma empresa.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	const query = `
		UPDATE products SET
			store_id = $3, sku = $4, name = $5, description = $6, category = $7,
			cost_price = $8, selling_price = $9, quantity = $10, min_quantity = $11, unit = $12,
			tax_rate = $13, tax_included = $14, attributes = $15, updated_by = $16, updated_at = $17
		WHERE id = $1 AND company_id = $2`
	cmd, err := r.q.Exec(ctx, query,
		p.ID, p.CompanyID, nullable(p.StoreID), p.SKU, p.Name, p.Description, p.Category,
		p.Pricing.CostPrice, p.Pricing.SellingPrice, p.Inventory.Quantity, p.Inventory.MinQuantity,
		p.Inventory.Unit, p.Tax.Rate, p.Tax.Included, nullJSON(p.Attributes), p.UpdatedBy, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// Delete elimina un producto por ID.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var (
		p       entity.Product
		storeID *string
		attrs   []byte
	)
	err := row.Scan(
		&p.ID, &p.CompanyID, &storeID, &p.SKU, &p.Name, &p.Description, &p.Category,
		&p.Pricing.CostPrice, &p.Pricing.SellingPrice, &p.Inventory.Quantity, &p.Inventory.MinQuantity,
		&p.Inventory.Unit, &p.Tax.Rate, &p.Tax.Included, &attrs,
		&p.CreatedBy, &p.UpdatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	p.StoreID = deref(storeID)
	p.Attributes = attrs
	return &p, nil
}
