package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/deklol/valorant-skirmish-nexus-sub002/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error)
	// UpdateStatus moves the tournament into status and, when winnerTeamID is
	// non-nil, records the overall winner in the same update.
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus, winnerTeamID *int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `id, name, format, status, max_teams, start_time, winner_team_id, version, created_at`

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t := &models.Tournament{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Format, &t.Status, &t.MaxTeams,
		&t.StartTime, &t.WinnerTeamID, &t.Version, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament by id %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, statusFilter *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + tournamentColumns + ` FROM tournaments`)

	args := make([]interface{}, 0, 3)
	if statusFilter != nil {
		queryBuilder.WriteString(" WHERE status = $1")
		args = append(args, *statusFilter)
	}

	queryBuilder.WriteString(" ORDER BY created_at DESC")
	queryBuilder.WriteString(" LIMIT $" + strconv.Itoa(len(args)+1))
	args = append(args, limit)
	queryBuilder.WriteString(" OFFSET $" + strconv.Itoa(len(args)+1))
	args = append(args, offset)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := rows.Scan(
			&t.ID, &t.Name, &t.Format, &t.Status, &t.MaxTeams,
			&t.StartTime, &t.WinnerTeamID, &t.Version, &t.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", scanErr)
		}
		tournaments = append(tournaments, &t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus, winnerTeamID *int) error {
	executor := r.getExecutor(exec)

	var (
		result sql.Result
		err    error
	)
	if winnerTeamID != nil {
		query := `UPDATE tournaments SET status = $1, winner_team_id = $2, version = version + 1 WHERE id = $3`
		result, err = executor.ExecContext(ctx, query, status, *winnerTeamID, id)
	} else {
		query := `UPDATE tournaments SET status = $1, version = version + 1 WHERE id = $2`
		result, err = executor.ExecContext(ctx, query, status, id)
	}
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
