package services

import (
	"github.com/deklol/valorant-skirmish-nexus-sub002/models"
)

// ScoreWinnerCheck is the advisory verdict of comparing a submitted winner
// against the winner the scores imply. It never blocks a submission; callers
// decide whether to demand an explicit override before proceeding.
type ScoreWinnerCheck struct {
	ChosenWinnerID  int  `json:"chosen_winner_id"`
	ImpliedWinnerID *int `json:"implied_winner_id,omitempty"`
	Consistent      bool `json:"consistent"`
}

// CheckScoreWinner compares the chosen winner with the winner implied by the
// scores. Tied scores imply no winner, so any choice is consistent.
func CheckScoreWinner(match *models.Match, winnerID, scoreTeam1, scoreTeam2 int) (ScoreWinnerCheck, error) {
	if !match.HasTeam(winnerID) {
		return ScoreWinnerCheck{}, ErrWinnerNotInMatch
	}

	check := ScoreWinnerCheck{ChosenWinnerID: winnerID, Consistent: true}
	switch {
	case scoreTeam1 > scoreTeam2 && match.Team1ID != nil:
		check.ImpliedWinnerID = match.Team1ID
	case scoreTeam2 > scoreTeam1 && match.Team2ID != nil:
		check.ImpliedWinnerID = match.Team2ID
	}
	if check.ImpliedWinnerID != nil && *check.ImpliedWinnerID != winnerID {
		check.Consistent = false
	}
	return check, nil
}
