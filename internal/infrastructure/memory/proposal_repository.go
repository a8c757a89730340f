package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

var _ repository.ProposalRepository = (*ProposalRepo)(nil)

// ProposalRepo propuestas en memoria.
type ProposalRepo struct{ db *DB }

// NewProposalRepository construye el repositorio.
func NewProposalRepository(db *DB) *ProposalRepo { return &ProposalRepo{db: db} }

// Create inserta la propuesta.
func (r *ProposalRepo) Create(_ context.Context, p *entity.Proposal) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.proposals[p.ID]; ok {
		return domain.ErrDuplicate
	}
	r.db.proposals[p.ID] = *p
	return nil
}

// GetByID obtiene una propuesta por ID.
func (r *ProposalRepo) GetByID(_ context.Context, id string) (*entity.Proposal, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	p, ok := r.db.proposals[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// Transition compare-and-swap bajo el lock de escritura.
func (r *ProposalRepo) Transition(_ context.Context, id string, review entity.ProposalReview) (*entity.Proposal, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.proposals[id]
	if !ok {
		return nil, domain.ErrProposalNotFound
	}
	if !entity.CanTransition(p.Status, review.Status) {
		return nil, domain.ErrProposalAlreadyReviewed
	}
	reviewedAt := review.ReviewedAt
	p.Status = review.Status
	p.ReviewedBy = review.ReviewedBy
	p.ReviewedAt = &reviewedAt
	p.Reason = review.Reason
	p.ProductID = review.ProductID
	p.UpdatedAt = reviewedAt
	r.db.proposals[id] = p
	return &p, nil
}

// List filtra, ordena por created_at DESC y pagina.
func (r *ProposalRepo) List(_ context.Context, f entity.ProposalFilter) ([]*entity.Proposal, int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var matched []entity.Proposal
	for _, p := range r.db.proposals {
		if f.CompanyID != "" && p.CompanyID != f.CompanyID {
			continue
		}
		if f.StoreID != "" && p.StoreID != f.StoreID {
			continue
		}
		if f.SubmittedBy != "" && p.SubmittedBy != f.SubmittedBy {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := min(max(f.Offset, 0), total)
	end := total
	if f.Limit > 0 {
		end = min(start+f.Limit, total)
	}
	out := make([]*entity.Proposal, 0, end-start)
	for i := start; i < end; i++ {
		p := matched[i]
		out = append(out, &p)
	}
	return out, total, nil
}
