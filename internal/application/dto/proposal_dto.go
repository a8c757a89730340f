package dto

import (
	"encoding/json"
	"time"
)

// SubmitProposalRequest entrada para enviar una propuesta. companyId/storeId nunca vienen del cliente.
type SubmitProposalRequest struct {
	TargetEntityType string          `json:"targetEntityType" validate:"required,eq=product"`
	TargetID         string          `json:"targetId" validate:"omitempty,uuid"`
	ProposedChanges  json.RawMessage `json:"proposedChanges" validate:"required"`
}

// ReviewProposalRequest entrada opcional de aprobación o rechazo.
type ReviewProposalRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=2000"`
}

// ListProposalsRequest filtros del listado.
type ListProposalsRequest struct {
	Page      int    `query:"page" json:"page"`
	Limit     int    `query:"limit" json:"limit"`
	CompanyID string `query:"companyId" json:"companyId" validate:"omitempty,uuid"`
	StoreID   string `query:"storeId" json:"storeId" validate:"omitempty,uuid"`
	Status    string `query:"status" json:"status" validate:"omitempty,oneof=pending approved rejected"`
}

// PageRequest devuelve la paginación normalizada.
func (r ListProposalsRequest) PageRequest() PageRequest {
	p := PageRequest{Page: r.Page, Limit: r.Limit}
	p.Normalize()
	return p
}

// ProposalResponse salida de una propuesta.
type ProposalResponse struct {
	ID               string          `json:"id"`
	CompanyID        string          `json:"companyId"`
	StoreID          string          `json:"storeId,omitempty"`
	TargetEntityType string          `json:"targetEntityType"`
	TargetID         string          `json:"targetId,omitempty"`
	ProposedChanges  json.RawMessage `json:"proposedChanges"`
	Status           string          `json:"status"`
	Reason           string          `json:"reason,omitempty"`
	SubmittedBy      string          `json:"submittedBy"`
	ReviewedBy       string          `json:"reviewedBy,omitempty"`
	ReviewedAt       *time.Time      `json:"reviewedAt,omitempty"`
	ProductID        string          `json:"productId,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// ApprovalResult propuesta aprobada y producto afectado.
type ApprovalResult struct {
	Proposal ProposalResponse
	Product  ProductResponse
}

// ProposalEnvelope respuesta de envío, aprobación y rechazo.
type ProposalEnvelope struct {
	Message  string           `json:"message"`
	Proposal ProposalResponse `json:"proposal"`
	Product  *ProductResponse `json:"product,omitempty"`
}

// ProposalListResponse lista paginada de propuestas.
type ProposalListResponse struct {
	Proposals  []ProposalResponse `json:"proposals"`
	Pagination Pagination         `json:"pagination"`
}
