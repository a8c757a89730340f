package proposal

import (
	"github.com/jhoicas/retail-api/internal/application/dto"
	"github.com/jhoicas/retail-api/internal/domain/entity"
)

func toProposalResponse(p *entity.Proposal) *dto.ProposalResponse {
	if p == nil {
		return nil
	}
	return &dto.ProposalResponse{
		ID:               p.ID,
		CompanyID:        p.CompanyID,
		StoreID:          p.StoreID,
		TargetEntityType: string(p.TargetEntityType),
		TargetID:         p.TargetID,
		ProposedChanges:  p.ProposedChanges,
		Status:           string(p.Status),
		Reason:           p.Reason,
		SubmittedBy:      p.SubmittedBy,
		ReviewedBy:       p.ReviewedBy,
		ReviewedAt:       p.ReviewedAt,
		ProductID:        p.ProductID,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:          p.ID,
		CompanyID:   p.CompanyID,
		StoreID:     p.StoreID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Pricing: dto.PricingResponse{
			CostPrice:    p.Pricing.CostPrice,
			SellingPrice: p.Pricing.SellingPrice,
		},
		Inventory: dto.InventoryResponse{
			Quantity:    p.Inventory.Quantity,
			MinQuantity: p.Inventory.MinQuantity,
			Unit:        p.Inventory.Unit,
		},
		Tax:        dto.TaxResponse{Rate: p.Tax.Rate, Included: p.Tax.Included},
		Attributes: p.Attributes,
		CreatedBy:  p.CreatedBy,
		UpdatedBy:  p.UpdatedBy,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}
