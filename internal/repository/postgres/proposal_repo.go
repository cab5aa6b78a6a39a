package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jwall29/swiply/internal/domain"
)

type ProposalRepo struct {
	pool *pgxpool.Pool
}

func NewProposalRepo(pool *pgxpool.Pool) *ProposalRepo {
	return &ProposalRepo{pool: pool}
}

const proposalColumns = `id, request_id, proposed_by_id, proposed_location, proposed_meeting_time,
	status, responded_at, responded_by_id, created_at`

func (r *ProposalRepo) Create(ctx context.Context, p *domain.ChangeProposal) error {
	query := `
		INSERT INTO change_proposals (id, request_id, proposed_by_id, proposed_location, proposed_meeting_time,
			status, responded_at, responded_by_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(ctx, query,
		p.ID, p.RequestID, p.ProposedByID, p.ProposedLocation, p.ProposedMeetingTime,
		p.Status, p.RespondedAt, p.RespondedByID, p.CreatedAt,
	)
	return err
}

func (r *ProposalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ChangeProposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM change_proposals WHERE id = $1`
	return r.scan(r.pool.QueryRow(ctx, query, id))
}

func (r *ProposalRepo) GetPendingByRequest(ctx context.Context, requestID uuid.UUID) (*domain.ChangeProposal, error) {
	query := `
		SELECT ` + proposalColumns + `
		FROM change_proposals
		WHERE request_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1`
	return r.scan(r.pool.QueryRow(ctx, query, requestID, domain.ProposalPending))
}

// AcceptAndApply flips the proposal to accepted and writes the proposed
// fields into the request in one transaction. A listener re-reading
// either row sees both effects or neither.
func (r *ProposalRepo) AcceptAndApply(ctx context.Context, p *domain.ChangeProposal, responderID uuid.UUID, at time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning accept tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE change_proposals
		SET status = $1, responded_at = $2, responded_by_id = $3
		WHERE id = $4 AND status = $5`,
		domain.ProposalAccepted, at, responderID, p.ID, domain.ProposalPending,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("proposal no longer pending")
	}

	if p.ProposedLocation != nil {
		if _, err := tx.Exec(ctx,
			`UPDATE swipe_requests SET location = $1 WHERE id = $2`,
			*p.ProposedLocation, p.RequestID,
		); err != nil {
			return err
		}
	}
	if p.ProposedMeetingTime != nil {
		if _, err := tx.Exec(ctx,
			`UPDATE swipe_requests SET meeting_time = $1 WHERE id = $2`,
			*p.ProposedMeetingTime, p.RequestID,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *ProposalRepo) Decline(ctx context.Context, id, responderID uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE change_proposals
		SET status = $1, responded_at = $2, responded_by_id = $3
		WHERE id = $4 AND status = $5`,
		domain.ProposalDeclined, at, responderID, id, domain.ProposalPending,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("proposal no longer pending")
	}
	return nil
}

func (r *ProposalRepo) scan(row pgx.Row) (*domain.ChangeProposal, error) {
	var p domain.ChangeProposal
	err := row.Scan(
		&p.ID, &p.RequestID, &p.ProposedByID, &p.ProposedLocation, &p.ProposedMeetingTime,
		&p.Status, &p.RespondedAt, &p.RespondedByID, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &p, err
}
