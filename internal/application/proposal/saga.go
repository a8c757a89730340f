package proposal

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/jhoicas/retail-api/internal/application/audit"
	"github.com/jhoicas/retail-api/internal/application/productpatch"
	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/authz"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

// productNamespace espacio UUIDv5 para derivar el ID del producto creado por una propuesta.
var productNamespace = uuid.MustParse("6f1c3a52-2d0e-4c55-9a3e-8b7f2a41d9c0")

// ProductIDFor devuelve el ID determinista del producto que crea la propuesta, de modo que
// reintentar una aprobación nunca duplique el producto.
func ProductIDFor(proposalID string) string {
	return uuid.NewSHA1(productNamespace, []byte(proposalID)).String()
}

// appliedChange resultado del paso de escritura del producto.
type appliedChange struct {
	product  *entity.Product
	isCreate bool
	inserted bool            // esta llamada insertó el producto
	before   *entity.Product // imagen previa (solo actualización)
	diff     json.RawMessage
}

// approveSaga escribe el producto y luego transiciona la propuesta, compensando si lo segundo falla.
func (uc *ProposalUseCase) approveSaga(ctx context.Context, caller authz.Caller, p *entity.Proposal, review entity.ProposalReview) (*appliedChange, *entity.Proposal, error) {
	applied, err := uc.applyToProduct(ctx, uc.products, caller, p)
	if err != nil {
		return nil, nil, err
	}
	review.ProductID = applied.product.ID
	updated, err := uc.proposals.Transition(ctx, p.ID, review)
	if err != nil {
		uc.compensate(ctx, caller, p, applied, err)
		return nil, nil, err
	}
	return applied, updated, nil
}

// applyToProduct es el primer paso de la aprobación: crear o actualizar el producto.
func (uc *ProposalUseCase) applyToProduct(ctx context.Context, products repository.ProductRepository, caller authz.Caller, p *entity.Proposal) (*appliedChange, error) {
	now := uc.now()

	if !p.IsCreation() {
		current, err := products.GetByIDAndCompany(ctx, p.TargetID, p.CompanyID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, domain.ErrProductNotFound
		}
		res, err := productpatch.Apply(current, p.ProposedChanges)
		if err != nil {
			return nil, err
		}
		next := res.Product
		next.UpdatedBy = caller.UserID
		next.UpdatedAt = now
		if err := products.Update(ctx, next); err != nil {
			return nil, err
		}
		return &appliedChange{product: next, before: current, diff: res.Diff}, nil
	}

	res, err := productpatch.Apply(&entity.Product{}, p.ProposedChanges)
	if err != nil {
		return nil, err
	}
	product := res.Product
	product.ID = ProductIDFor(p.ID)
	product.CompanyID = p.CompanyID
	product.StoreID = p.StoreID
	if product.StoreID == "" {
		product.StoreID = caller.StoreID
	}
	product.CreatedBy = caller.UserID
	product.UpdatedBy = caller.UserID
	product.CreatedAt = now
	product.UpdatedAt = now

	inserted, err := products.CreateIfAbsent(ctx, product)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// Reintento de una aprobación previa que no llegó a la transición.
		existing, err := products.GetByID(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, domain.ErrProductNotFound
		}
		product = existing
	}
	return &appliedChange{product: product, isCreate: true, inserted: inserted}, nil
}

// compensate deshace el paso de escritura cuando la transición no se aplicó.
// Si otra aprobación concurrente ganó sobre el mismo producto no hay nada que deshacer.
func (uc *ProposalUseCase) compensate(ctx context.Context, caller authz.Caller, p *entity.Proposal, applied *appliedChange, cause error) {
	if errors.Is(cause, domain.ErrProposalAlreadyReviewed) {
		current, err := uc.proposals.GetByID(ctx, p.ID)
		if err == nil && current != nil && current.Status == entity.ProposalApproved && current.ProductID == applied.product.ID {
			return
		}
	}

	compensated := uc.effects.Emit(ctx, "compensation", func(ctx context.Context) error {
		if applied.isCreate {
			return uc.products.Delete(ctx, applied.product.ID)
		}
		restore := *applied.before
		return uc.products.Update(ctx, &restore)
	})

	uc.log.Error().Err(cause).
		Str("proposal_id", p.ID).
		Str("product_id", applied.product.ID).
		Bool("compensated", compensated).
		Msg("aprobación incompleta: producto escrito sin transición de la propuesta")

	uc.audit.Record(ctx, audit.Entry{
		EntityType: entity.AuditEntityProduct,
		EntityID:   applied.product.ID,
		Action:     entity.AuditProposalOrphaned,
		UserID:     caller.UserID,
		CompanyID:  p.CompanyID,
		StoreID:    applied.product.StoreID,
		Changes:    p.ProposedChanges,
		Metadata: map[string]any{
			"proposalId":  p.ID,
			"created":     applied.isCreate,
			"inserted":    applied.inserted,
			"compensated": compensated,
			"error":       cause.Error(),
		},
	})
}
