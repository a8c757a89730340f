package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID          string            `json:"id"`
	CompanyID   string            `json:"companyId"`
	StoreID     string            `json:"storeId,omitempty"`
	SKU         string            `json:"sku"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Category    string            `json:"category,omitempty"`
	Pricing     PricingResponse   `json:"pricing"`
	Inventory   InventoryResponse `json:"inventory"`
	Tax         TaxResponse       `json:"tax"`
	Attributes  json.RawMessage   `json:"attributes,omitempty"`
	CreatedBy   string            `json:"createdBy,omitempty"`
	UpdatedBy   string            `json:"updatedBy,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// PricingResponse precios del producto.
type PricingResponse struct {
	CostPrice    decimal.Decimal `json:"costPrice"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
}

// InventoryResponse existencias del producto.
type InventoryResponse struct {
	Quantity    int64  `json:"quantity"`
	MinQuantity int64  `json:"minQuantity"`
	Unit        string `json:"unit,omitempty"`
}

// TaxResponse impuesto del producto.
type TaxResponse struct {
	Rate     decimal.Decimal `json:"rate"`
	Included bool            `json:"included"`
}
