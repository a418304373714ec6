package brackets

import (
	"context"
	"fmt"

	"github.com/deklol/valorant-skirmish-nexus-sub002/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() Generator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) Format() models.BracketFormat {
	return models.FormatRoundRobin
}

// Generate pairs every team against every other team once, using the circle
// method to spread pairings across rounds. Round-robin matches are view-only
// for the progression engine: no round feeds another, so advancement must
// never be attempted on them.
func (g *RoundRobinGenerator) Generate(ctx context.Context, params GenerateBracketParams) ([]*models.Match, error) {
	teams := params.Teams
	n := len(teams)
	if n < 2 {
		return nil, fmt.Errorf("not enough teams for a round robin (found %d, min 2 required)", n)
	}

	ids := make([]int, 0, n+1)
	for _, t := range teams {
		ids = append(ids, t.ID)
	}
	// Odd team count gets a dummy slot; its pairings are byes and skipped.
	if n%2 != 0 {
		ids = append(ids, 0)
		n++
	}

	numRounds := n - 1
	half := n / 2
	matches := make([]*models.Match, 0, numRounds*half)

	for round := 1; round <= numRounds; round++ {
		matchNumber := 0
		for i := 0; i < half; i++ {
			id1 := ids[i]
			id2 := ids[n-1-i]
			if id1 == 0 || id2 == 0 {
				continue
			}
			matchNumber++
			t1, t2 := id1, id2
			matches = append(matches, &models.Match{
				TournamentID:    params.Tournament.ID,
				RoundNumber:     round,
				MatchNumber:     matchNumber,
				BracketPosition: models.BracketPositionStandard,
				Team1ID:         &t1,
				Team2ID:         &t2,
				Status:          models.MatchStatusPending,
				ScheduledTime:   params.Tournament.StartTime,
			})
		}
		// Rotate, keeping the first slot fixed.
		ids = append(ids[:1], append([]int{ids[n-1]}, ids[1:n-1]...)...)
	}

	return matches, nil
}
