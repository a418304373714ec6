package brackets

import (
	"github.com/deklol/valorant-skirmish-nexus-sub002/models"
)

// Slot numbers of the two team positions in a match.
const (
	SlotTeam1 = 1
	SlotTeam2 = 2
)

// NextRound returns the round a winner advances into.
func NextRound(roundNumber int) int {
	return roundNumber + 1
}

// NextMatchNumber returns the downstream match number fed by matchNumber,
// i.e. ceil(matchNumber / 2).
func NextMatchNumber(matchNumber int) int {
	return (matchNumber + 1) / 2
}

// WinnerSlot encodes the single-elimination pairing rule: the winner of an
// odd-numbered match takes the left slot of its downstream match, the winner
// of an even-numbered match the right slot.
func WinnerSlot(matchNumber int) int {
	if matchNumber%2 == 1 {
		return SlotTeam1
	}
	return SlotTeam2
}

// MaxRound returns the highest round number across matches, or 0 for an empty
// bracket.
func MaxRound(matches []*models.Match) int {
	maxRound := 0
	for _, m := range matches {
		if m.RoundNumber > maxRound {
			maxRound = m.RoundNumber
		}
	}
	return maxRound
}

// FinalMatch returns the single match of the bracket's max round, or nil when
// the max round holds more than one match (e.g. a grand-final-plus-reset
// structure, which this single-elimination detector does not recognize).
func FinalMatch(matches []*models.Match) *models.Match {
	maxRound := MaxRound(matches)
	if maxRound == 0 {
		return nil
	}

	var final *models.Match
	for _, m := range matches {
		if m.RoundNumber != maxRound {
			continue
		}
		if final != nil {
			return nil
		}
		final = m
	}
	return final
}

// IsComplete reports whether the bracket has fully resolved: exactly one match
// in the max round, completed, with a winner. The winning match is returned on
// success.
func IsComplete(matches []*models.Match) (bool, *models.Match) {
	final := FinalMatch(matches)
	if final == nil {
		return false, nil
	}
	if final.Status != models.MatchStatusCompleted || final.WinnerID == nil {
		return false, nil
	}
	return true, final
}
