package proposal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/retail-api/internal/application/audit"
	"github.com/jhoicas/retail-api/internal/application/dto"
	"github.com/jhoicas/retail-api/internal/application/notification"
	"github.com/jhoicas/retail-api/internal/application/productpatch"
	"github.com/jhoicas/retail-api/internal/application/sideeffect"
	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/authz"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
	"github.com/jhoicas/retail-api/pkg/logger"
)

// DefaultRejectReason motivo registrado cuando el revisor no deja ninguno.
const DefaultRejectReason = "unspecified"

// Metrics observa las transiciones del flujo (opcional).
type Metrics interface {
	ProposalTransition(action, result string)
}

// TxRunner ejecuta la aprobación en una transacción del almacén, con repos atados a ella.
// Sin TxRunner la aprobación sigue la saga con compensación.
type TxRunner interface {
	Run(ctx context.Context, fn func(products repository.ProductRepository, proposals repository.ProposalRepository) error) error
}

// Deps dependencias del caso de uso.
type Deps struct {
	Proposals repository.ProposalRepository
	Products  repository.ProductRepository
	Stores    repository.StoreRepository
	Tx        TxRunner // opcional
	Audit     *audit.Recorder
	Notifier  *notification.Notifier
	Effects   *sideeffect.Emitter
	Policy    authz.Policy // nil = authz.DefaultPolicy
	Metrics   Metrics
	Log       *logger.Logger
}

// ProposalUseCase motor de moderación de propuestas: envío, aprobación, rechazo y consulta.
type ProposalUseCase struct {
	proposals repository.ProposalRepository
	products  repository.ProductRepository
	stores    repository.StoreRepository
	tx        TxRunner
	audit     *audit.Recorder
	notifier  *notification.Notifier
	effects   *sideeffect.Emitter
	policy    authz.Policy
	metrics   Metrics
	log       *logger.Logger
	now       func() time.Time
}

// NewProposalUseCase construye el caso de uso.
func NewProposalUseCase(d Deps) *ProposalUseCase {
	policy := d.Policy
	if policy == nil {
		policy = authz.DefaultPolicy
	}
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &ProposalUseCase{
		proposals: d.Proposals,
		products:  d.Products,
		stores:    d.Stores,
		tx:        d.Tx,
		audit:     d.Audit,
		notifier:  d.Notifier,
		effects:   d.Effects,
		policy:    policy,
		metrics:   d.Metrics,
		log:       log.Component("proposal"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Submit registra una propuesta pendiente. El alcance (empresa/tienda) se resuelve desde el usuario,
// nunca desde el cliente; si hay targetId se verifica que el producto esté dentro de su alcance.
func (uc *ProposalUseCase) Submit(ctx context.Context, caller authz.Caller, in dto.SubmitProposalRequest) (*dto.ProposalResponse, error) {
	targetType := entity.TargetEntityType(strings.TrimSpace(in.TargetEntityType))
	if !targetType.IsSupported() {
		return nil, domain.NewValidationError("targetEntityType", "debe ser 'product'")
	}
	targetID := strings.TrimSpace(in.TargetID)
	if targetID != "" {
		if _, err := uuid.Parse(targetID); err != nil {
			return nil, domain.NewValidationError("targetId", "identificador inválido")
		}
	}
	if err := productpatch.Validate(in.ProposedChanges, targetID == ""); err != nil {
		return nil, err
	}

	var target *entity.ProductScope
	if targetID != "" {
		scope, err := uc.products.GetScope(ctx, targetID)
		if err != nil {
			return nil, err
		}
		if scope == nil {
			return nil, domain.ErrProductNotFound
		}
		if err := uc.policy.Check(caller, authz.ActionSubmit, authz.Scope{CompanyID: scope.CompanyID, StoreID: scope.StoreID}); err != nil {
			uc.observe("submit", "forbidden")
			return nil, err
		}
		target = scope
	}

	companyID, storeID, err := uc.resolveScope(ctx, caller, target, in.ProposedChanges)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	p := &entity.Proposal{
		ID:               uuid.New().String(),
		CompanyID:        companyID,
		StoreID:          storeID,
		TargetEntityType: targetType,
		TargetID:         targetID,
		ProposedChanges:  in.ProposedChanges,
		Status:           entity.ProposalPending,
		SubmittedBy:      caller.UserID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.proposals.Create(ctx, p); err != nil {
		uc.observe("submit", "error")
		return nil, err
	}
	uc.observe("submit", "ok")

	var targetMeta any
	if targetID != "" {
		targetMeta = targetID
	}
	uc.audit.Record(ctx, audit.Entry{
		EntityType: entity.AuditEntityProposal,
		EntityID:   p.ID,
		Action:     entity.AuditProposalSubmitted,
		UserID:     caller.UserID,
		CompanyID:  p.CompanyID,
		StoreID:    p.StoreID,
		Changes:    p.ProposedChanges,
		Metadata:   map[string]any{"targetEntityType": string(targetType), "targetId": targetMeta},
	})
	uc.notifier.Notify(ctx, notification.Message{
		UserID:    p.SubmittedBy,
		CompanyID: p.CompanyID,
		StoreID:   p.StoreID,
		Title:     "Propuesta enviada",
		Body:      "Tu propuesta fue registrada y está pendiente de revisión",
		Severity:  entity.SeverityInfo,
		Metadata:  map[string]any{"proposalId": p.ID},
	})

	return toProposalResponse(p), nil
}

// resolveScope determina empresa y tienda de la propuesta.
// Una modificación toma el alcance del producto destino (tienda del usuario si el producto no tiene).
// Una creación toma la tienda del usuario o el storeId de los cambios, y la empresa del usuario,
// luego la de su tienda, luego la de la tienda propuesta.
func (uc *ProposalUseCase) resolveScope(ctx context.Context, caller authz.Caller, target *entity.ProductScope, changes []byte) (string, string, error) {
	if target != nil {
		storeID := target.StoreID
		if storeID == "" {
			storeID = caller.StoreID
		}
		return target.CompanyID, storeID, nil
	}

	storeID := caller.StoreID
	proposedStore := ""
	if storeID == "" {
		proposedStore = productpatch.StoreID(changes)
		storeID = proposedStore
	}

	companyID := caller.CompanyID
	if companyID == "" && caller.StoreID != "" {
		store, err := uc.stores.GetByID(ctx, caller.StoreID)
		if err != nil {
			return "", "", err
		}
		if store != nil {
			companyID = store.CompanyID
		}
	}

	// Una tienda elegida en los cambios debe existir y pertenecer a la empresa resuelta.
	if proposedStore != "" {
		store, err := uc.stores.GetByID(ctx, proposedStore)
		if err != nil {
			return "", "", err
		}
		if store == nil {
			return "", "", domain.NewValidationError("proposedChanges.storeId", "tienda inexistente")
		}
		if companyID == "" {
			companyID = store.CompanyID
		}
		if store.CompanyID != companyID {
			return "", "", domain.ErrForbidden
		}
	}

	if companyID == "" {
		return "", "", domain.NewValidationError("companyId", "no se pudo resolver la empresa de la propuesta")
	}
	return companyID, storeID, nil
}

// Approve aplica la propuesta sobre el producto (creación o patch) y la marca aprobada.
// Con TxRunner ambos pasos son atómicos; sin él, la transición fallida tras escribir el producto
// se compensa y se audita el producto huérfano.
func (uc *ProposalUseCase) Approve(ctx context.Context, caller authz.Caller, id, reason string) (*dto.ApprovalResult, error) {
	p, err := uc.loadForReview(ctx, caller, id, authz.ActionApprove)
	if err != nil {
		uc.observe("approve", resultOf(err))
		return nil, err
	}

	review := entity.ProposalReview{
		Status:     entity.ProposalApproved,
		ReviewedBy: caller.UserID,
		ReviewedAt: uc.now(),
		Reason:     strings.TrimSpace(reason),
	}
	var (
		applied *appliedChange
		updated *entity.Proposal
	)
	if uc.tx != nil {
		err = uc.tx.Run(ctx, func(products repository.ProductRepository, proposals repository.ProposalRepository) error {
			a, err := uc.applyToProduct(ctx, products, caller, p)
			if err != nil {
				return err
			}
			review.ProductID = a.product.ID
			u, err := proposals.Transition(ctx, p.ID, review)
			if err != nil {
				return err
			}
			applied, updated = a, u
			return nil
		})
	} else {
		applied, updated, err = uc.approveSaga(ctx, caller, p, review)
	}
	if err != nil {
		uc.observe("approve", resultOf(err))
		return nil, err
	}
	uc.observe("approve", "ok")

	product := applied.product
	uc.audit.Record(ctx, audit.Entry{
		EntityType: entity.AuditEntityProposal,
		EntityID:   updated.ID,
		Action:     entity.AuditProposalApproved,
		UserID:     caller.UserID,
		CompanyID:  updated.CompanyID,
		StoreID:    updated.StoreID,
		Changes:    updated.ProposedChanges,
		Metadata:   map[string]any{"productId": product.ID},
	})
	productMeta := map[string]any{"proposalId": updated.ID}
	action := entity.AuditCreate
	if !applied.isCreate {
		action = entity.AuditUpdate
		productMeta["diff"] = applied.diff
	}
	uc.audit.Record(ctx, audit.Entry{
		EntityType: entity.AuditEntityProduct,
		EntityID:   product.ID,
		Action:     action,
		UserID:     caller.UserID,
		CompanyID:  product.CompanyID,
		StoreID:    product.StoreID,
		Changes:    updated.ProposedChanges,
		Metadata:   productMeta,
	})
	uc.notifier.Notify(ctx, notification.Message{
		UserID:    updated.SubmittedBy,
		CompanyID: updated.CompanyID,
		StoreID:   updated.StoreID,
		Title:     "Propuesta aprobada",
		Body:      fmt.Sprintf("Tu propuesta sobre el producto %q fue aprobada", product.Name),
		Severity:  entity.SeveritySuccess,
		Metadata:  map[string]any{"proposalId": updated.ID, "productId": product.ID},
	})

	return &dto.ApprovalResult{
		Proposal: *toProposalResponse(updated),
		Product:  *toProductResponse(product),
	}, nil
}

// Reject marca la propuesta como rechazada sin tocar ninguna entidad.
func (uc *ProposalUseCase) Reject(ctx context.Context, caller authz.Caller, id, reason string) (*dto.ProposalResponse, error) {
	p, err := uc.loadForReview(ctx, caller, id, authz.ActionReject)
	if err != nil {
		uc.observe("reject", resultOf(err))
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultRejectReason
	}
	updated, err := uc.proposals.Transition(ctx, p.ID, entity.ProposalReview{
		Status:     entity.ProposalRejected,
		ReviewedBy: caller.UserID,
		ReviewedAt: uc.now(),
		Reason:     reason,
	})
	if err != nil {
		uc.observe("reject", resultOf(err))
		return nil, err
	}
	uc.observe("reject", "ok")

	uc.audit.Record(ctx, audit.Entry{
		EntityType: entity.AuditEntityProposal,
		EntityID:   updated.ID,
		Action:     entity.AuditProposalRejected,
		UserID:     caller.UserID,
		CompanyID:  updated.CompanyID,
		StoreID:    updated.StoreID,
		Metadata:   map[string]any{"reason": reason},
	})
	uc.notifier.Notify(ctx, notification.Message{
		UserID:    updated.SubmittedBy,
		CompanyID: updated.CompanyID,
		StoreID:   updated.StoreID,
		Title:     "Propuesta rechazada",
		Body:      "Tu propuesta fue rechazada: " + reason,
		Severity:  entity.SeverityWarning,
		Metadata:  map[string]any{"proposalId": updated.ID, "reason": reason},
	})

	return toProposalResponse(updated), nil
}

// GetByID devuelve una propuesta si el usuario puede verla. El autor siempre puede ver la suya.
func (uc *ProposalUseCase) GetByID(ctx context.Context, caller authz.Caller, id string) (*dto.ProposalResponse, error) {
	p, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.SubmittedBy != caller.UserID {
		if err := uc.policy.Check(caller, authz.ActionView, scopeOf(p)); err != nil {
			return nil, err
		}
	}
	return toProposalResponse(p), nil
}

// List devuelve propuestas filtradas por el alcance del usuario, más recientes primero.
func (uc *ProposalUseCase) List(ctx context.Context, caller authz.Caller, in dto.ListProposalsRequest) (*dto.ProposalListResponse, error) {
	page := in.PageRequest()
	filter := entity.ProposalFilter{
		Status: entity.ProposalStatus(in.Status),
		Limit:  page.Limit,
		Offset: page.Offset(),
	}
	switch uc.policy.Rule(caller.Role, authz.ActionView) {
	case authz.Unrestricted:
		filter.CompanyID = in.CompanyID
		filter.StoreID = in.StoreID
	case authz.SameCompany:
		if caller.CompanyID == "" {
			return nil, domain.ErrForbidden
		}
		filter.CompanyID = caller.CompanyID
		filter.StoreID = in.StoreID
	case authz.SameStore:
		if caller.StoreID != "" {
			filter.StoreID = caller.StoreID
		} else {
			filter.SubmittedBy = caller.UserID
		}
	default:
		return nil, domain.ErrForbidden
	}

	list, total, err := uc.proposals.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProposalResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProposalResponse(p))
	}
	return &dto.ProposalListResponse{
		Proposals:  items,
		Pagination: dto.NewPagination(total, page),
	}, nil
}

func (uc *ProposalUseCase) load(ctx context.Context, id string) (*entity.Proposal, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrProposalNotFound
	}
	p, err := uc.proposals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrProposalNotFound
	}
	return p, nil
}

// loadForReview carga la propuesta, verifica el alcance del revisor y que siga pendiente.
// La comprobación de estado evita escribir el producto en vano; la garantía la da Transition.
func (uc *ProposalUseCase) loadForReview(ctx context.Context, caller authz.Caller, id string, action authz.Action) (*entity.Proposal, error) {
	p, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.policy.Check(caller, action, scopeOf(p)); err != nil {
		return nil, err
	}
	if p.Status != entity.ProposalPending {
		return nil, domain.ErrProposalAlreadyReviewed
	}
	return p, nil
}

func (uc *ProposalUseCase) observe(action, result string) {
	if uc.metrics != nil {
		uc.metrics.ProposalTransition(action, result)
	}
}

func scopeOf(p *entity.Proposal) authz.Scope {
	return authz.Scope{CompanyID: p.CompanyID, StoreID: p.StoreID}
}

func resultOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}
