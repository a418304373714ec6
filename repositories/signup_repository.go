package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/deklol/valorant-skirmish-nexus-sub002/models"
)

var (
	ErrSignupConflict          = errors.New("user is already signed up for this tournament")
	ErrSignupTournamentInvalid = errors.New("signup tournament conflict or invalid")
)

type SignupRepository interface {
	Create(ctx context.Context, signup *models.TournamentSignup) error
	// ListUserIDsByTournament returns every user who ever signed up, which is
	// the attribution set for tournaments_played.
	ListUserIDsByTournament(ctx context.Context, tournamentID int) ([]int, error)
}

type postgresSignupRepository struct {
	db *sql.DB
}

func NewPostgresSignupRepository(db *sql.DB) SignupRepository {
	return &postgresSignupRepository{db: db}
}

func (r *postgresSignupRepository) Create(ctx context.Context, signup *models.TournamentSignup) error {
	query := `
		INSERT INTO tournament_signups (tournament_id, user_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, signup.TournamentID, signup.UserID).
		Scan(&signup.ID, &signup.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				return ErrSignupConflict
			case "23503": // foreign_key_violation
				return ErrSignupTournamentInvalid
			}
		}
		return fmt.Errorf("failed to create tournament signup: %w", err)
	}
	return nil
}

func (r *postgresSignupRepository) ListUserIDsByTournament(ctx context.Context, tournamentID int) ([]int, error) {
	query := `SELECT user_id FROM tournament_signups WHERE tournament_id = $1 ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query signups for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	userIDs := make([]int, 0)
	for rows.Next() {
		var userID int
		if scanErr := rows.Scan(&userID); scanErr != nil {
			return nil, fmt.Errorf("failed to scan signup row: %w", scanErr)
		}
		userIDs = append(userIDs, userID)
	}
	return userIDs, rows.Err()
}
