package entity

import (
	"encoding/json"
	"time"
)

// ProposalStatus estado de moderación de una propuesta.
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalApproved ProposalStatus = "approved"
	ProposalRejected ProposalStatus = "rejected"
)

// IsTerminal informa si el estado ya no admite transiciones.
func (s ProposalStatus) IsTerminal() bool {
	return s == ProposalApproved || s == ProposalRejected
}

// CanTransition solo permite pending → approved | rejected.
func CanTransition(from, to ProposalStatus) bool {
	return from == ProposalPending && to.IsTerminal()
}

// TargetEntityType tipo de entidad sobre la que actúa una propuesta (conjunto cerrado).
type TargetEntityType string

const TargetProduct TargetEntityType = "product"

// IsSupported informa si el tipo de entidad está soportado.
func (t TargetEntityType) IsSupported() bool {
	return t == TargetProduct
}

// Proposal solicitud de creación o modificación de un producto, sujeta a moderación.
// CompanyID siempre presente; StoreID vacío = alcance empresa; TargetID vacío = creación.
type Proposal struct {
	ID               string
	CompanyID        string
	StoreID          string
	TargetEntityType TargetEntityType
	TargetID         string
	ProposedChanges  json.RawMessage
	Status           ProposalStatus
	Reason           string
	SubmittedBy      string
	ReviewedBy       string
	ReviewedAt       *time.Time
	ProductID        string // producto afectado al aprobar
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsCreation informa si la propuesta crea una entidad nueva.
func (p *Proposal) IsCreation() bool {
	return p.TargetID == ""
}

// ProposalReview datos de una transición terminal.
type ProposalReview struct {
	Status     ProposalStatus
	ReviewedBy string
	ReviewedAt time.Time
	Reason     string
	ProductID  string
}

// ProposalFilter filtros de listado; campos vacíos no filtran.
type ProposalFilter struct {
	CompanyID   string
	StoreID     string
	SubmittedBy string
	Status      ProposalStatus
	Limit       int
	Offset      int
}
