package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/deklol/valorant-skirmish-nexus-sub002/models"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchVersionConflict   = errors.New("match was modified concurrently")
	ErrMatchTournamentInvalid = errors.New("match tournament conflict or invalid")
	ErrMatchTeamInvalid       = errors.New("match team conflict or invalid")
	ErrMatchSlotInvalid       = errors.New("match slot must be 1 or 2")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	GetByRoundAndNumber(ctx context.Context, tournamentID, roundNumber, matchNumber int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error)
	// CommitResult writes score, winner, completed status and completion time in
	// one update, guarded by the expected version.
	CommitResult(ctx context.Context, exec SQLExecutor, id, expectedVersion int, winnerID, scoreTeam1, scoreTeam2 int, completedAt time.Time) error
	// AssignSlot fills team1_id (slot 1) or team2_id (slot 2) of a match.
	AssignSlot(ctx context.Context, exec SQLExecutor, id, slot, teamID int) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, round_number, match_number, bracket_position,
	team1_id, team2_id, winner_id, status, score_team1, score_team2,
	scheduled_time, completed_at, version, created_at`

func (r *postgresMatchRepository) scanMatch(rowScanner interface{ Scan(...interface{}) error }) (*models.Match, error) {
	var m models.Match
	err := rowScanner.Scan(
		&m.ID, &m.TournamentID, &m.RoundNumber, &m.MatchNumber, &m.BracketPosition,
		&m.Team1ID, &m.Team2ID, &m.WinnerID, &m.Status, &m.ScoreTeam1, &m.ScoreTeam2,
		&m.ScheduledTime, &m.CompletedAt, &m.Version, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches
			(tournament_id, round_number, match_number, bracket_position,
			 team1_id, team2_id, winner_id, status, score_team1, score_team2, scheduled_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, version, created_at`

	err := executor.QueryRowContext(ctx, query,
		match.TournamentID,
		match.RoundNumber,
		match.MatchNumber,
		match.BracketPosition,
		match.Team1ID,
		match.Team2ID,
		match.WinnerID,
		match.Status,
		match.ScoreTeam1,
		match.ScoreTeam2,
		match.ScheduledTime,
	).Scan(&match.ID, &match.Version, &match.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanMatch(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) GetByRoundAndNumber(ctx context.Context, tournamentID, roundNumber, matchNumber int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1 AND round_number = $2 AND match_number = $3`
	return r.scanMatch(r.db.QueryRowContext(ctx, query, tournamentID, roundNumber, matchNumber))
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, roundFilter *int, statusFilter *models.MatchStatus) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	placeholderIndex := 2

	if roundFilter != nil {
		queryBuilder.WriteString(" AND round_number = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *roundFilter)
		placeholderIndex++
	}

	if statusFilter != nil {
		queryBuilder.WriteString(" AND status = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *statusFilter)
	}

	queryBuilder.WriteString(" ORDER BY round_number ASC, match_number ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := r.scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) CommitResult(ctx context.Context, exec SQLExecutor, id, expectedVersion int, winnerID, scoreTeam1, scoreTeam2 int, completedAt time.Time) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches
		SET winner_id = $1, score_team1 = $2, score_team2 = $3,
		    status = $4, completed_at = $5, version = version + 1
		WHERE id = $6 AND version = $7`

	result, err := executor.ExecContext(ctx, query,
		winnerID, scoreTeam1, scoreTeam2, models.MatchStatusCompleted, completedAt, id, expectedVersion)
	if err != nil {
		return r.handleMatchError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return r.classifyMissedUpdate(ctx, executor, id)
	}
	return nil
}

func (r *postgresMatchRepository) AssignSlot(ctx context.Context, exec SQLExecutor, id, slot, teamID int) error {
	executor := r.getExecutor(exec)

	var column string
	switch slot {
	case 1:
		column = "team1_id"
	case 2:
		column = "team2_id"
	default:
		return fmt.Errorf("%w: got %d", ErrMatchSlotInvalid, slot)
	}

	// Slot propagation is deliberately unguarded by version: two feeders writing
	// into different slots of the same downstream match must not reject each other.
	query := `UPDATE matches SET ` + column + ` = $1, version = version + 1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, teamID, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE matches SET status = $1, version = version + 1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// classifyMissedUpdate distinguishes a missing row from a stale version after a
// guarded update touched zero rows.
func (r *postgresMatchRepository) classifyMissedUpdate(ctx context.Context, executor SQLExecutor, id int) error {
	var currentVersion int
	err := executor.QueryRowContext(ctx, `SELECT version FROM matches WHERE id = $1`, id).Scan(&currentVersion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMatchNotFound
		}
		return err
	}
	return ErrMatchVersionConflict
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23503" { // foreign_key_violation
			switch pqErr.Constraint {
			case "matches_tournament_id_fkey":
				return ErrMatchTournamentInvalid
			case "matches_team1_id_fkey", "matches_team2_id_fkey", "matches_winner_id_fkey":
				return ErrMatchTeamInvalid
			}
		}
	}
	return err
}
