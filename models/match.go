package models

import "time"

// MatchStatus mirrors the match_status ENUM in the database.
type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusLive      MatchStatus = "live"
	MatchStatusCompleted MatchStatus = "completed"
)

// BracketPosition tags matches that sit outside the regular round/match-number
// grid, e.g. the grand final of a double-elimination view.
type BracketPosition string

const (
	BracketPositionStandard   BracketPosition = "standard"
	BracketPositionGrandFinal BracketPosition = "grand_final"
)

type Match struct {
	ID           int `json:"id" db:"id"`
	TournamentID int `json:"tournament_id" db:"tournament_id"`

	// RoundNumber is positive for the main bracket. Negative rounds are reserved
	// for losers-bracket views and are never produced by the progression engine.
	RoundNumber int `json:"round_number" db:"round_number"`
	// MatchNumber is unique within a round, starting from 1.
	MatchNumber int `json:"match_number" db:"match_number"`

	BracketPosition BracketPosition `json:"bracket_position" db:"bracket_position"`

	Team1ID *int `json:"team1_id,omitempty" db:"team1_id"`
	Team2ID *int `json:"team2_id,omitempty" db:"team2_id"`

	WinnerID   *int        `json:"winner_id,omitempty" db:"winner_id"`
	Status     MatchStatus `json:"status" db:"status"`
	ScoreTeam1 int         `json:"score_team1" db:"score_team1"`
	ScoreTeam2 int         `json:"score_team2" db:"score_team2"`

	ScheduledTime *time.Time `json:"scheduled_time,omitempty" db:"scheduled_time"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" db:"completed_at"`

	// Version is a monotonic counter bumped on every update; stale writers get a
	// version-conflict error instead of silently overwriting.
	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Team1  *Team `json:"team1,omitempty" db:"-"`
	Team2  *Team `json:"team2,omitempty" db:"-"`
	Winner *Team `json:"winner,omitempty" db:"-"`
}

// HasBothTeams reports whether both slots of the match are resolved.
func (m *Match) HasBothTeams() bool {
	return m.Team1ID != nil && m.Team2ID != nil
}

// HasTeam reports whether teamID occupies one of the match's two slots.
func (m *Match) HasTeam(teamID int) bool {
	return (m.Team1ID != nil && *m.Team1ID == teamID) ||
		(m.Team2ID != nil && *m.Team2ID == teamID)
}
