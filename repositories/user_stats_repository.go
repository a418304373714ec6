package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/deklol/valorant-skirmish-nexus-sub002/models"
)

var (
	ErrStatUserNotFound = errors.New("user not found for stat update")
	ErrStatUnknown      = errors.New("unknown stat counter")
)

// statColumns whitelists the counter columns; stat names are interpolated into
// SQL and must never come from request input unchecked.
var statColumns = map[models.UserStat]string{
	models.StatWins:              "wins",
	models.StatLosses:            "losses",
	models.StatTournamentsWon:    "tournaments_won",
	models.StatTournamentsPlayed: "tournaments_played",
}

type UserStatsRepository interface {
	// IncrementStat bumps a single counter for a single user.
	IncrementStat(ctx context.Context, userID int, stat models.UserStat) error
	// DecrementStat is the reversal counterpart used by admin removal tooling.
	// Counters never go below zero.
	DecrementStat(ctx context.Context, userID int, stat models.UserStat) error
}

type postgresUserStatsRepository struct {
	db *sql.DB
}

func NewPostgresUserStatsRepository(db *sql.DB) UserStatsRepository {
	return &postgresUserStatsRepository{db: db}
}

func (r *postgresUserStatsRepository) IncrementStat(ctx context.Context, userID int, stat models.UserStat) error {
	column, ok := statColumns[stat]
	if !ok {
		return fmt.Errorf("%w: %q", ErrStatUnknown, stat)
	}

	query := `UPDATE users SET ` + column + ` = ` + column + ` + 1 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to increment %s for user %d: %w", column, userID, err)
	}
	return checkAffectedRows(result, ErrStatUserNotFound)
}

func (r *postgresUserStatsRepository) DecrementStat(ctx context.Context, userID int, stat models.UserStat) error {
	column, ok := statColumns[stat]
	if !ok {
		return fmt.Errorf("%w: %q", ErrStatUnknown, stat)
	}

	query := `UPDATE users SET ` + column + ` = GREATEST(` + column + ` - 1, 0) WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to decrement %s for user %d: %w", column, userID, err)
	}
	return checkAffectedRows(result, ErrStatUserNotFound)
}
