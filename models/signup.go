package models

import "time"

// TournamentSignup records that a user signed up for a tournament, whether or
// not they ended up on a final roster. Tournament-played stats are attributed
// to every signup, not just final participants.
type TournamentSignup struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	UserID       int       `json:"user_id" db:"user_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
