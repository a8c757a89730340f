package repository

import (
	"context"

	"github.com/jhoicas/retail-api/internal/domain/entity"
)

// ProposalRepository define el puerto de persistencia para Proposal (DIP).
type ProposalRepository interface {
	Create(ctx context.Context, proposal *entity.Proposal) error
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.Proposal, error)
	// Transition aplica la revisión solo si el estado almacenado sigue en pending (compare-and-swap).
	// Devuelve ErrProposalAlreadyReviewed si ya no lo está y ErrProposalNotFound si no existe.
	Transition(ctx context.Context, id string, review entity.ProposalReview) (*entity.Proposal, error)
	// List devuelve la página pedida (created_at DESC) y el total que cumple el filtro.
	List(ctx context.Context, filter entity.ProposalFilter) ([]*entity.Proposal, int, error)
}
