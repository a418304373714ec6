package brackets

import (
	"context"

	"github.com/deklol/valorant-skirmish-nexus-sub002/models"
)

type GenerateBracketParams struct {
	Tournament *models.Tournament
	Teams      []*models.Team
}

// Generator produces the Match skeleton for a tournament. Generated matches
// carry round/match numbers and any pre-resolved slots but no IDs; persisting
// them is the caller's job.
type Generator interface {
	Generate(ctx context.Context, params GenerateBracketParams) ([]*models.Match, error)

	Format() models.BracketFormat
}

// NewGenerator selects the generator for a format. Unknown formats yield nil;
// callers must fail loudly rather than guess.
func NewGenerator(format models.BracketFormat) Generator {
	switch format {
	case models.FormatSingleElimination:
		return NewSingleEliminationGenerator()
	case models.FormatRoundRobin:
		return NewRoundRobinGenerator()
	default:
		return nil
	}
}
