package brackets

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/deklol/valorant-skirmish-nexus-sub002/models"
)

type SingleEliminationGenerator struct {
}

func NewSingleEliminationGenerator() Generator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Format() models.BracketFormat {
	return models.FormatSingleElimination
}

// Generate builds the full single-elimination grid: round r holds
// bracketSize / 2^r matches numbered from 1. Teams are laid out in standard
// seed order so byes land on the top seeds and no first-round pairing is
// bye-vs-bye. A team drawing a bye is placed directly into its round-2 slot
// and no round-1 match row is created for that pairing.
func (g *SingleEliminationGenerator) Generate(ctx context.Context, params GenerateBracketParams) ([]*models.Match, error) {
	teams := params.Teams
	n := len(teams)
	if n < 2 {
		return nil, errors.New("not enough teams to generate a single elimination bracket (minimum 2)")
	}

	numRounds := int(math.Ceil(math.Log2(float64(n))))
	bracketSize := 1 << uint(numRounds)

	// Seed positions for round 1: slots[i] is the team occupying round-1
	// position i, nil for a bye.
	order := seedOrder(bracketSize)
	slots := make([]*int, bracketSize)
	for pos, seed := range order {
		if seed < n {
			id := teams[seed].ID
			slots[pos] = &id
		}
	}

	matchesByKey := make(map[[2]int]*models.Match)
	all := make([]*models.Match, 0, bracketSize-1)

	addMatch := func(round, number int) *models.Match {
		m := &models.Match{
			TournamentID:    params.Tournament.ID,
			RoundNumber:     round,
			MatchNumber:     number,
			BracketPosition: models.BracketPositionStandard,
			Status:          models.MatchStatusPending,
			ScheduledTime:   params.Tournament.StartTime,
		}
		matchesByKey[[2]int{round, number}] = m
		all = append(all, m)
		return m
	}

	// Rounds 2..numRounds are pure placeholders.
	for r := 2; r <= numRounds; r++ {
		matchesInRound := bracketSize >> uint(r)
		for num := 1; num <= matchesInRound; num++ {
			addMatch(r, num)
		}
	}

	// Round 1: create real pairings, advance byes straight into round 2.
	for i := 0; i < bracketSize/2; i++ {
		matchNumber := i + 1
		t1 := slots[2*i]
		t2 := slots[2*i+1]

		switch {
		case t1 != nil && t2 != nil:
			m := addMatch(1, matchNumber)
			m.Team1ID = t1
			m.Team2ID = t2
		case t1 == nil && t2 == nil:
			return nil, fmt.Errorf("seeding produced a bye-vs-bye pairing at round 1 match %d", matchNumber)
		default:
			byeTeam := t1
			if byeTeam == nil {
				byeTeam = t2
			}
			if numRounds == 1 {
				return nil, errors.New("single team cannot receive a bye in a final")
			}
			downstream := matchesByKey[[2]int{NextRound(1), NextMatchNumber(matchNumber)}]
			if WinnerSlot(matchNumber) == SlotTeam1 {
				downstream.Team1ID = byeTeam
			} else {
				downstream.Team2ID = byeTeam
			}
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].RoundNumber != all[j].RoundNumber {
			return all[i].RoundNumber < all[j].RoundNumber
		}
		return all[i].MatchNumber < all[j].MatchNumber
	})

	return all, nil
}

// seedOrder lays out seeds 0..size-1 in standard bracket order: the top seed
// meets the bottom seed, and every first-round pair sums to size-1.
func seedOrder(size int) []int {
	order := []int{0}
	for len(order) < size {
		doubled := len(order) * 2
		next := make([]int, 0, doubled)
		for _, s := range order {
			next = append(next, s, doubled-1-s)
		}
		order = next
	}
	return order
}
