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
	ErrTeamMemberNotFound = errors.New("team member not found")
	ErrTeamMemberConflict = errors.New("user is already on this team")
)

type TeamMemberRepository interface {
	Create(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error
	// ListByTeam returns the roster as it exists right now. Stat attribution
	// reads this at reconciliation time.
	ListByTeam(ctx context.Context, teamID int) ([]*models.TeamMember, error)
	Delete(ctx context.Context, exec SQLExecutor, teamID, userID int) error
}

type postgresTeamMemberRepository struct {
	db *sql.DB
}

func NewPostgresTeamMemberRepository(db *sql.DB) TeamMemberRepository {
	return &postgresTeamMemberRepository{db: db}
}

func (r *postgresTeamMemberRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTeamMemberRepository) Create(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO team_members (team_id, user_id, is_captain)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query, member.TeamID, member.UserID, member.IsCaptain).
		Scan(&member.ID, &member.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrTeamMemberConflict
		}
		return fmt.Errorf("failed to create team member: %w", err)
	}
	return nil
}

func (r *postgresTeamMemberRepository) ListByTeam(ctx context.Context, teamID int) ([]*models.TeamMember, error) {
	query := `
		SELECT id, team_id, user_id, is_captain, created_at
		FROM team_members
		WHERE team_id = $1
		ORDER BY is_captain DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members for team %d: %w", teamID, err)
	}
	defer rows.Close()

	members := make([]*models.TeamMember, 0)
	for rows.Next() {
		var member models.TeamMember
		if scanErr := rows.Scan(&member.ID, &member.TeamID, &member.UserID, &member.IsCaptain, &member.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan team member row: %w", scanErr)
		}
		members = append(members, &member)
	}
	return members, rows.Err()
}

func (r *postgresTeamMemberRepository) Delete(ctx context.Context, exec SQLExecutor, teamID, userID int) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`
	result, err := executor.ExecContext(ctx, query, teamID, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamMemberNotFound)
}
