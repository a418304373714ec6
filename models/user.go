package models

import "time"

const (
	RolePlayer  = "player"
	RoleCaptain = "captain"
	RoleAdmin   = "admin"
)

// UserStat names one of the user stat counters. The reconciler increments
// these; admin removal tooling uses the matching decrements.
type UserStat string

const (
	StatWins              UserStat = "wins"
	StatLosses            UserStat = "losses"
	StatTournamentsWon    UserStat = "tournaments_won"
	StatTournamentsPlayed UserStat = "tournaments_played"
)

type User struct {
	ID           int    `json:"id" db:"id"`
	Nickname     string `json:"nickname" db:"nickname"`
	RiotID       *string `json:"riot_id,omitempty" db:"riot_id"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         string `json:"role" db:"role"`

	Wins              int `json:"wins" db:"wins"`
	Losses            int `json:"losses" db:"losses"`
	TournamentsWon    int `json:"tournaments_won" db:"tournaments_won"`
	TournamentsPlayed int `json:"tournaments_played" db:"tournaments_played"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
