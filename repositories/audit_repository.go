package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/deklol/valorant-skirmish-nexus-sub002/models"
)

var ErrAuditNotFound = errors.New("processing audit record not found")

type AuditRepository interface {
	Create(ctx context.Context, exec SQLExecutor, audit *models.ProcessingAudit) error
	// ListUnresolved returns records whose bookkeeping needs repair, optionally
	// scoped to one tournament.
	ListUnresolved(ctx context.Context, tournamentID *int) ([]*models.ProcessingAudit, error)
	ListByMatch(ctx context.Context, matchID int) ([]*models.ProcessingAudit, error)
	MarkResolved(ctx context.Context, id int) error
}

type postgresAuditRepository struct {
	db *sql.DB
}

func NewPostgresAuditRepository(db *sql.DB) AuditRepository {
	return &postgresAuditRepository{db: db}
}

func (r *postgresAuditRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresAuditRepository) Create(ctx context.Context, exec SQLExecutor, audit *models.ProcessingAudit) error {
	executor := r.getExecutor(exec)
	if err := audit.EncodeFailures(); err != nil {
		return fmt.Errorf("failed to encode audit failures: %w", err)
	}

	query := `
		INSERT INTO processing_audits
			(match_id, tournament_id, winner_id, loser_id, outcome, failures_json, resolved)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		audit.MatchID, audit.TournamentID, audit.WinnerID, audit.LoserID,
		audit.Outcome, audit.FailuresJSON, audit.Resolved,
	).Scan(&audit.ID, &audit.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create processing audit: %w", err)
	}
	return nil
}

func (r *postgresAuditRepository) ListUnresolved(ctx context.Context, tournamentID *int) ([]*models.ProcessingAudit, error) {
	query := `
		SELECT id, match_id, tournament_id, winner_id, loser_id, outcome, failures_json, resolved, created_at
		FROM processing_audits
		WHERE resolved = FALSE AND outcome <> $1`
	args := []interface{}{models.AuditOutcomeProcessed}

	if tournamentID != nil {
		query += ` AND tournament_id = $2`
		args = append(args, *tournamentID)
	}
	query += ` ORDER BY created_at ASC`

	return r.queryAudits(ctx, query, args...)
}

func (r *postgresAuditRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.ProcessingAudit, error) {
	query := `
		SELECT id, match_id, tournament_id, winner_id, loser_id, outcome, failures_json, resolved, created_at
		FROM processing_audits
		WHERE match_id = $1
		ORDER BY created_at ASC`
	return r.queryAudits(ctx, query, matchID)
}

func (r *postgresAuditRepository) MarkResolved(ctx context.Context, id int) error {
	query := `UPDATE processing_audits SET resolved = TRUE WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrAuditNotFound)
}

func (r *postgresAuditRepository) queryAudits(ctx context.Context, query string, args ...interface{}) ([]*models.ProcessingAudit, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query processing audits: %w", err)
	}
	defer rows.Close()

	audits := make([]*models.ProcessingAudit, 0)
	for rows.Next() {
		var a models.ProcessingAudit
		if scanErr := rows.Scan(
			&a.ID, &a.MatchID, &a.TournamentID, &a.WinnerID, &a.LoserID,
			&a.Outcome, &a.FailuresJSON, &a.Resolved, &a.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan processing audit row: %w", scanErr)
		}
		if decErr := a.DecodeFailures(); decErr != nil {
			return nil, fmt.Errorf("failed to decode audit failures for record %d: %w", a.ID, decErr)
		}
		audits = append(audits, &a)
	}
	return audits, rows.Err()
}
