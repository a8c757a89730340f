package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
	"github.com/jhoicas/retail-api/internal/domain/repository"
)

var _ repository.ProposalRepository = (*ProposalRepo)(nil)

// ProposalRepo implementación del puerto ProposalRepository sobre PostgreSQL (usable con pool o tx).
type ProposalRepo struct {
	q Querier
}

// NewProposalRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProposalRepository(q Querier) *ProposalRepo {
	return &ProposalRepo{q: q}
}

const proposalColumns = `id, company_id, store_id, target_entity_type, target_id, proposed_changes,
	status, reason, submitted_by, reviewed_by, reviewed_at, product_id, created_at, updated_at`

// Create persiste una nueva propuesta.
func (r *ProposalRepo) Create(ctx context.Context, p *entity.Proposal) error {
	query := `
		INSERT INTO proposals (` + proposalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.CompanyID, nullable(p.StoreID), string(p.TargetEntityType), nullable(p.TargetID),
		[]byte(p.ProposedChanges), string(p.Status), p.Reason, p.SubmittedBy,
		nullable(p.ReviewedBy), p.ReviewedAt, nullable(p.ProductID), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert proposal: %w", err)
	}
	return nil
}

// GetByID obtiene una propuesta por ID.
func (r *ProposalRepo) GetByID(ctx context.Context, id string) (*entity.Proposal, error) {
	row := r.q.QueryRow(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE id = $1`, id)
	p, err := scanProposal(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get proposal: %w", err)
	}
	return p, nil
}

// Transition cambia el estado en una sola sentencia condicionada a status = 'pending'.
// Cero filas: la propuesta no existe o ya fue revisada.
func (r *ProposalRepo) Transition(ctx context.Context, id string, review entity.ProposalReview) (*entity.Proposal, error) {
	if !review.Status.IsTerminal() {
		return nil, fmt.Errorf("transición inválida a %q: %w", review.Status, domain.ErrInvalidInput)
	}
	query := `
		UPDATE proposals SET
			status = $2, reviewed_by = $3, reviewed_at = $4, reason = $5, product_id = $6, updated_at = $4
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + proposalColumns
	row := r.q.QueryRow(ctx, query,
		id, string(review.Status), review.ReviewedBy, review.ReviewedAt, review.Reason, nullable(review.ProductID),
	)
	p, err := scanProposal(row)
	if err == nil {
		return p, nil
	}
	if !isNoRows(err) {
		return nil, fmt.Errorf("transition proposal: %w", err)
	}

	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM proposals WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check proposal: %w", err)
	}
	if !exists {
		return nil, domain.ErrProposalNotFound
	}
	return nil, domain.ErrProposalAlreadyReviewed
}

// List filtra por los campos no vacíos, ordena por created_at DESC y devuelve el total sin paginar.
func (r *ProposalRepo) List(ctx context.Context, f entity.ProposalFilter) ([]*entity.Proposal, int, error) {
	where, args := proposalWhere(f)

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM proposals`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count proposals: %w", err)
	}

	query := `SELECT ` + proposalColumns + ` FROM proposals` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	var list []*entity.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan proposal: %w", err)
		}
		list = append(list, p)
	}
	return list, total, rows.Err()
}

func proposalWhere(f entity.ProposalFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(col string, v string) {
		if v == "" {
			return
		}
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("company_id", f.CompanyID)
	add("store_id", f.StoreID)
	add("submitted_by", f.SubmittedBy)
	add("status", string(f.Status))
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanProposal(row pgx.Row) (*entity.Proposal, error) {
	var (
		p                                        entity.Proposal
		storeID, targetID, reviewedBy, productID *string
		targetType, status                       string
		changes                                  []byte
		reviewedAt                               *time.Time
	)
	err := row.Scan(
		&p.ID, &p.CompanyID, &storeID, &targetType, &targetID, &changes,
		&status, &p.Reason, &p.SubmittedBy, &reviewedBy, &reviewedAt, &productID,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.StoreID = deref(storeID)
	p.TargetID = deref(targetID)
	p.ReviewedBy = deref(reviewedBy)
	p.ProductID = deref(productID)
	p.TargetEntityType = entity.TargetEntityType(targetType)
	p.Status = entity.ProposalStatus(status)
	p.ProposedChanges = changes
	p.ReviewedAt = reviewedAt
	return &p, nil
}
