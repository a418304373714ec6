package models

import "time"

// TeamStatus mirrors the team_status ENUM in the database.
type TeamStatus string

const (
	TeamStatusPending      TeamStatus = "pending"
	TeamStatusActive       TeamStatus = "active"
	TeamStatusEliminated   TeamStatus = "eliminated"
	TeamStatusWinner       TeamStatus = "winner"
	TeamStatusDisqualified TeamStatus = "disqualified"
)

type Team struct {
	ID           int        `json:"id" db:"id"`
	TournamentID int        `json:"tournament_id" db:"tournament_id"`
	Name         string     `json:"name" db:"name"`
	Status       TeamStatus `json:"status" db:"status"`
	Version      int        `json:"version" db:"version"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`

	Members []*TeamMember `json:"members,omitempty" db:"-"`
}

// TeamMember is one roster entry. Roster membership is resolved at
// reconciliation time, not snapshotted at match commit.
type TeamMember struct {
	ID        int       `json:"id" db:"id"`
	TeamID    int       `json:"team_id" db:"team_id"`
	UserID    int       `json:"user_id" db:"user_id"`
	IsCaptain bool      `json:"is_captain" db:"is_captain"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	User *User `json:"user,omitempty" db:"-"`
}
