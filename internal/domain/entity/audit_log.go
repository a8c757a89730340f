package entity

import (
	"encoding/json"
	"time"
)

// Acciones registradas en la auditoría.
const (
	AuditProposalSubmitted = "proposal_submitted"
	AuditProposalApproved  = "proposal_approved"
	AuditProposalRejected  = "proposal_rejected"
	AuditProposalOrphaned  = "proposal_orphaned_product"
	AuditCreate            = "create"
	AuditUpdate            = "update"
)

// Tipos de entidad auditados.
const (
	AuditEntityProposal = "proposal"
	AuditEntityProduct  = "product"
)

// AuditLog registro inmutable de un cambio de estado. Solo se inserta.
type AuditLog struct {
	ID         string
	EntityType string
	EntityID   string
	Action     string
	UserID     string
	CompanyID  string
	StoreID    string
	Changes    json.RawMessage
	Metadata   json.RawMessage
	CreatedAt  time.Time
}
