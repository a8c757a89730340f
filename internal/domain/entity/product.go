package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo de una empresa, opcionalmente ligado a una tienda.
type Product struct {
	ID          string
	CompanyID   string
	StoreID     string // vacío = producto de alcance empresa
	SKU         string // código único por empresa
	Name        string
	Description string
	Category    string
	Pricing     Pricing
	Inventory   Inventory
	Tax         Tax
	Attributes  json.RawMessage // objeto JSON con cualquier otro campo propuesto
	CreatedBy   string
	UpdatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Pricing precios de compra y venta.
type Pricing struct {
	CostPrice    decimal.Decimal
	SellingPrice decimal.Decimal
}

// Inventory existencias del producto en su tienda.
type Inventory struct {
	Quantity    int64
	MinQuantity int64
	Unit        string
}

// Tax impuesto aplicable (Rate en porcentaje, ej. 19).
type Tax struct {
	Rate     decimal.Decimal
	Included bool
}

// ProductScope alcance mínimo de un producto (lectura sin cargar la entidad completa).
type ProductScope struct {
	ID        string
	CompanyID string
	StoreID   string
}
