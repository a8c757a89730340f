// Package productpatch aplica los cambios propuestos (RFC 7386, JSON merge patch) sobre el
// documento JSON de un producto y calcula el diff resultante.
package productpatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/shopspring/decimal"
	"github.com/wI2L/jsondiff"

	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
)

// KeyStoreID clave de alcance aceptada en los cambios; define la tienda pero no se aplica como campo.
const KeyStoreID = "storeId"

// protectedKeys claves que ningún cambio propuesto puede fijar.
var protectedKeys = []string{"id", "companyId", "createdBy", "updatedBy", "createdAt", "updatedAt"}

// document forma JSON editable de un producto. Los atributos libres se aplanan en el nivel raíz.
type document struct {
	SKU         string       `json:"sku"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Pricing     pricingDoc   `json:"pricing"`
	Inventory   inventoryDoc `json:"inventory"`
	Tax         taxDoc       `json:"tax"`
}

type pricingDoc struct {
	CostPrice    decimal.Decimal `json:"costPrice"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
}

type inventoryDoc struct {
	Quantity    int64  `json:"quantity"`
	MinQuantity int64  `json:"minQuantity"`
	Unit        string `json:"unit"`
}

type taxDoc struct {
	Rate     decimal.Decimal `json:"rate"`
	Included bool            `json:"included"`
}

var knownKeys = map[string]struct{}{
	"sku": {}, "name": {}, "description": {}, "category": {},
	"pricing": {}, "inventory": {}, "tax": {},
}

// Result producto resultante de aplicar un cambio.
type Result struct {
	Product *entity.Product
	Before  json.RawMessage // documento previo
	After   json.RawMessage // documento resultante
	Diff    json.RawMessage // operaciones JSON Patch (RFC 6902) de Before a After
}

// Decode convierte los cambios en un objeto JSON; error de validación si no lo son.
func Decode(changes json.RawMessage) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(changes)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, domain.NewValidationError("proposedChanges", "debe ser un objeto")
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return nil, domain.NewValidationError("proposedChanges", "JSON inválido")
	}
	return m, nil
}

// Validate verifica los cambios propuestos antes de persistir la propuesta: objeto JSON,
// sin claves protegidas, tipos compatibles con el producto y, en creación, name y sku presentes.
func Validate(changes json.RawMessage, creation bool) error {
	m, err := Decode(changes)
	if err != nil {
		return err
	}
	verr := &domain.ValidationError{}
	for _, k := range protectedKeys {
		if _, ok := m[k]; ok {
			verr.Fields = append(verr.Fields, domain.FieldError{Field: "proposedChanges." + k, Message: "campo no modificable"})
		}
	}
	if raw, ok := m[KeyStoreID]; ok && !isNull(raw) {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			verr.Fields = append(verr.Fields, domain.FieldError{Field: "proposedChanges.storeId", Message: "debe ser texto"})
		}
	}
	if len(verr.Fields) > 0 {
		return verr
	}

	res, err := Apply(&entity.Product{}, changes)
	if err != nil {
		return err
	}
	if creation {
		if strings.TrimSpace(res.Product.Name) == "" {
			verr.Fields = append(verr.Fields, domain.FieldError{Field: "proposedChanges.name", Message: "requerido para crear"})
		}
		if strings.TrimSpace(res.Product.SKU) == "" {
			verr.Fields = append(verr.Fields, domain.FieldError{Field: "proposedChanges.sku", Message: "requerido para crear"})
		}
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// StoreID devuelve el storeId incluido en los cambios, si existe.
func StoreID(changes json.RawMessage) string {
	m, err := Decode(changes)
	if err != nil {
		return ""
	}
	var s string
	if raw, ok := m[KeyStoreID]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return strings.TrimSpace(s)
}

// Apply aplica los cambios como merge patch sobre una copia de p. Los campos no mencionados
// quedan intactos; null elimina el valor. Las claves de alcance y protegidas se ignoran.
func Apply(p *entity.Product, changes json.RawMessage) (*Result, error) {
	m, err := Decode(changes)
	if err != nil {
		return nil, err
	}
	delete(m, KeyStoreID)
	for _, k := range protectedKeys {
		delete(m, k)
	}
	patch, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("productpatch: marshal patch: %w", err)
	}

	before, err := Document(p)
	if err != nil {
		return nil, err
	}
	after, err := jsonpatch.MergePatch(before, patch)
	if err != nil {
		return nil, domain.NewValidationError("proposedChanges", "no se pudo aplicar: "+err.Error())
	}

	next := *p
	if err := fromDocument(&next, after); err != nil {
		return nil, err
	}
	// Normalizar para que el diff compare representaciones equivalentes.
	after, err = Document(&next)
	if err != nil {
		return nil, err
	}
	diff, err := Diff(before, after)
	if err != nil {
		return nil, err
	}
	return &Result{Product: &next, Before: before, After: after, Diff: diff}, nil
}

// Diff calcula las operaciones JSON Patch para pasar de a a b.
func Diff(a, b json.RawMessage) (json.RawMessage, error) {
	ops, err := jsondiff.CompareJSON(a, b)
	if err != nil {
		return nil, fmt.Errorf("productpatch: diff: %w", err)
	}
	if len(ops) == 0 {
		return json.RawMessage(`[]`), nil
	}
	out, err := json.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("productpatch: marshal diff: %w", err)
	}
	return out, nil
}

// Document serializa los campos editables del producto, con los atributos en el nivel raíz.
func Document(p *entity.Product) (json.RawMessage, error) {
	doc := document{
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Pricing:     pricingDoc{CostPrice: p.Pricing.CostPrice, SellingPrice: p.Pricing.SellingPrice},
		Inventory:   inventoryDoc{Quantity: p.Inventory.Quantity, MinQuantity: p.Inventory.MinQuantity, Unit: p.Inventory.Unit},
		Tax:         taxDoc{Rate: p.Tax.Rate, Included: p.Tax.Included},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("productpatch: marshal document: %w", err)
	}
	if len(bytes.TrimSpace(p.Attributes)) == 0 || isNull(p.Attributes) {
		return raw, nil
	}

	var base, attrs map[string]json.RawMessage
	if err := json.Unmarshal(raw, &base); err != nil {
		return nil, fmt.Errorf("productpatch: document: %w", err)
	}
	if err := json.Unmarshal(p.Attributes, &attrs); err != nil {
		return nil, fmt.Errorf("productpatch: attributes: %w", err)
	}
	for k, v := range attrs {
		if _, known := knownKeys[k]; !known {
			base[k] = v
		}
	}
	return json.Marshal(base)
}

// fromDocument vuelca el documento sobre p: claves conocidas a campos tipados, el resto a Attributes.
func fromDocument(p *entity.Product, raw json.RawMessage) error {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.NewValidationError("proposedChanges", "tipo de dato incompatible: "+err.Error())
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil {
		return fmt.Errorf("productpatch: document: %w", err)
	}
	attrs := make(map[string]json.RawMessage)
	for k, v := range all {
		if _, known := knownKeys[k]; !known {
			attrs[k] = v
		}
	}

	p.SKU = strings.TrimSpace(doc.SKU)
	p.Name = doc.Name
	p.Description = doc.Description
	p.Category = doc.Category
	p.Pricing = entity.Pricing{CostPrice: doc.Pricing.CostPrice, SellingPrice: doc.Pricing.SellingPrice}
	p.Inventory = entity.Inventory{Quantity: doc.Inventory.Quantity, MinQuantity: doc.Inventory.MinQuantity, Unit: doc.Inventory.Unit}
	p.Tax = entity.Tax{Rate: doc.Tax.Rate, Included: doc.Tax.Included}
	p.Attributes = nil
	if len(attrs) > 0 {
		b, err := json.Marshal(attrs)
		if err != nil {
			return fmt.Errorf("productpatch: marshal attributes: %w", err)
		}
		p.Attributes = b
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
