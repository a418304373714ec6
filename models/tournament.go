package models

import "time"

// TournamentStatus mirrors the tournament_status ENUM in the database.
type TournamentStatus string

const (
	TournamentStatusDraft     TournamentStatus = "draft"
	TournamentStatusOpen      TournamentStatus = "open"
	TournamentStatusBalancing TournamentStatus = "balancing"
	TournamentStatusLive      TournamentStatus = "live"
	TournamentStatusCompleted TournamentStatus = "completed"
	TournamentStatusArchived  TournamentStatus = "archived"
)

// BracketFormat selects the generator and, for single elimination, the
// progression engine. Other formats are view-only and never advanced.
type BracketFormat string

const (
	FormatSingleElimination BracketFormat = "single_elimination"
	FormatRoundRobin        BracketFormat = "round_robin"
)

type Tournament struct {
	ID       int              `json:"id" db:"id"`
	Name     string           `json:"name" db:"name"`
	Format   BracketFormat    `json:"format" db:"format"`
	Status   TournamentStatus `json:"status" db:"status"`
	MaxTeams int              `json:"max_teams" db:"max_teams"`

	StartTime *time.Time `json:"start_time,omitempty" db:"start_time"`

	// WinnerTeamID is set only when Status is completed.
	WinnerTeamID *int `json:"winner_team_id,omitempty" db:"winner_team_id"`

	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Teams   []Team  `json:"teams,omitempty" db:"-"`
	Matches []Match `json:"matches,omitempty" db:"-"`
}
