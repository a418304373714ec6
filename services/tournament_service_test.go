package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deklol/valorant-skirmish-nexus-sub002/models"
)

func newTournamentFixture() (*fakeTournamentRepo, *fakeTeamRepo, *fakeMatchRepo, *fakeSignupRepo, TournamentService) {
	tournamentRepo := newFakeTournamentRepo()
	teamRepo := newFakeTeamRepo()
	matchRepo := newFakeMatchRepo()
	signupRepo := newFakeSignupRepo()
	svc := NewTournamentService(nil, tournamentRepo, teamRepo, matchRepo, signupRepo, newFakeNotifier(), testLogger())
	return tournamentRepo, teamRepo, matchRepo, signupRepo, svc
}

func TestStatusTransitions(t *testing.T) {
	allowed := [][2]models.TournamentStatus{
		{models.TournamentStatusDraft, models.TournamentStatusOpen},
		{models.TournamentStatusOpen, models.TournamentStatusBalancing},
		{models.TournamentStatusBalancing, models.TournamentStatusLive},
		{models.TournamentStatusLive, models.TournamentStatusCompleted},
		{models.TournamentStatusCompleted, models.TournamentStatusArchived},
		{models.TournamentStatusDraft, models.TournamentStatusArchived},
	}
	for _, pair := range allowed {
		assert.True(t, isValidStatusTransition(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}

	denied := [][2]models.TournamentStatus{
		{models.TournamentStatusDraft, models.TournamentStatusLive},
		{models.TournamentStatusLive, models.TournamentStatusArchived},
		{models.TournamentStatusLive, models.TournamentStatusOpen},
		{models.TournamentStatusCompleted, models.TournamentStatusLive},
		{models.TournamentStatusArchived, models.TournamentStatusOpen},
	}
	for _, pair := range denied {
		assert.False(t, isValidStatusTransition(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}
}

func TestUpdateStatus_RejectsInvalidTransition(t *testing.T) {
	tournamentRepo, _, _, _, svc := newTournamentFixture()
	tournamentRepo.add(&models.Tournament{ID: 1, Status: models.TournamentStatusDraft})

	err := svc.UpdateStatus(context.Background(), 1, models.TournamentStatusLive)
	require.ErrorIs(t, err, ErrTournamentInvalidStatusTransition)

	require.NoError(t, svc.UpdateStatus(context.Background(), 1, models.TournamentStatusOpen))
	assert.Equal(t, models.TournamentStatusOpen, tournamentRepo.get(1).Status)
}

func TestSignUp(t *testing.T) {
	tournamentRepo, _, _, signupRepo, svc := newTournamentFixture()
	tournamentRepo.add(&models.Tournament{ID: 1, Status: models.TournamentStatusOpen})

	require.NoError(t, svc.SignUp(context.Background(), 1, 11))

	userIDs, err := signupRepo.ListUserIDsByTournament(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []int{11}, userIDs)

	err = svc.SignUp(context.Background(), 1, 11)
	require.ErrorIs(t, err, ErrSignupConflict)
}

func TestSignUp_ClosedTournament(t *testing.T) {
	tournamentRepo, _, _, _, svc := newTournamentFixture()
	tournamentRepo.add(&models.Tournament{ID: 1, Status: models.TournamentStatusLive})

	err := svc.SignUp(context.Background(), 1, 11)
	require.ErrorIs(t, err, ErrSignupClosed)
}

func TestGetTournament_AggregatesTeamsAndMatches(t *testing.T) {
	tournamentRepo, teamRepo, matchRepo, _, svc := newTournamentFixture()
	tournamentRepo.add(&models.Tournament{ID: 1, Status: models.TournamentStatusLive})
	teamRepo.add(&models.Team{ID: 1, TournamentID: 1})
	teamRepo.add(&models.Team{ID: 2, TournamentID: 1})
	teamRepo.add(&models.Team{ID: 3, TournamentID: 2})
	matchRepo.add(&models.Match{ID: 1, TournamentID: 1, RoundNumber: 1, MatchNumber: 1})

	details, err := svc.GetTournament(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, details.Teams, 2)
	assert.Len(t, details.Matches, 1)
}

func TestGetTournament_NotFound(t *testing.T) {
	_, _, _, _, svc := newTournamentFixture()
	_, err := svc.GetTournament(context.Background(), 404)
	require.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestStartTournament_GuardsRunBeforeGeneration(t *testing.T) {
	tournamentRepo, teamRepo, _, _, svc := newTournamentFixture()
	tournamentRepo.add(&models.Tournament{ID: 1, Status: models.TournamentStatusOpen, Format: models.FormatSingleElimination})

	err := svc.StartTournament(context.Background(), 1)
	require.ErrorIs(t, err, ErrTournamentInvalidStatusTransition)

	tournamentRepo.add(&models.Tournament{ID: 2, Status: models.TournamentStatusBalancing, Format: models.FormatSingleElimination})
	teamRepo.add(&models.Team{ID: 1, TournamentID: 2})

	err = svc.StartTournament(context.Background(), 2)
	require.ErrorIs(t, err, ErrNotEnoughTeams)
}
