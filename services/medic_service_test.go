package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deklol/valorant-skirmish-nexus-sub002/models"
)

func newMedicFixture() (*fakeMatchRepo, *fakeTournamentRepo, *fakeAuditRepo, MedicService) {
	matchRepo := newFakeMatchRepo()
	teamRepo := newFakeTeamRepo()
	tournamentRepo := newFakeTournamentRepo()
	auditRepo := newFakeAuditRepo()
	svc := NewMedicService(matchRepo, teamRepo, tournamentRepo, auditRepo, testLogger())
	return matchRepo, tournamentRepo, auditRepo, svc
}

func TestHealthReport_CleanTournament(t *testing.T) {
	matchRepo, tournamentRepo, _, svc := newMedicFixture()
	tournamentRepo.add(&models.Tournament{ID: 1, Status: models.TournamentStatusLive})
	matchRepo.add(&models.Match{ID: 1, TournamentID: 1, RoundNumber: 1, MatchNumber: 1, Team1ID: intPtr(1), Team2ID: intPtr(2), Status: models.MatchStatusPending})

	report, err := svc.HealthReport(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, report.Anomalies)
	assert.Len(t, report.Matches, 1)
}

func TestHealthReport_FlagsCompletedMatchWithoutWinner(t *testing.T) {
	matchRepo, tournamentRepo, _, svc := newMedicFixture()
	tournamentRepo.add(&models.Tournament{ID: 1, Status: models.TournamentStatusLive})
	matchRepo.add(&models.Match{ID: 1, TournamentID: 1, RoundNumber: 1, MatchNumber: 1, Status: models.MatchStatusCompleted})

	report, err := svc.HealthReport(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, report.Anomalies, 1)
	assert.Equal(t, AnomalyCompletedMatchWithoutWinner, report.Anomalies[0].Kind)
}

func TestHealthReport_FlagsCompletedTournamentWithoutWinnerTeam(t *testing.T) {
	_, tournamentRepo, _, svc := newMedicFixture()
	tournamentRepo.add(&models.Tournament{ID: 1, Status: models.TournamentStatusCompleted})

	report, err := svc.HealthReport(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, report.Anomalies, 1)
	assert.Equal(t, AnomalyCompletedWithoutWinnerTeam, report.Anomalies[0].Kind)
}

func TestHealthReport_SurfacesUnresolvedAudits(t *testing.T) {
	_, tournamentRepo, auditRepo, svc := newMedicFixture()
	tournamentRepo.add(&models.Tournament{ID: 1, Status: models.TournamentStatusLive})
	require.NoError(t, auditRepo.Create(context.Background(), nil, &models.ProcessingAudit{
		MatchID:      5,
		TournamentID: 1,
		Outcome:      models.AuditOutcomePartial,
		Failures:     []models.StepFailure{{Step: "advancement", Detail: "downstream lookup failed"}},
	}))
	// Fully processed runs are not repair work.
	require.NoError(t, auditRepo.Create(context.Background(), nil, &models.ProcessingAudit{
		MatchID:      6,
		TournamentID: 1,
		Outcome:      models.AuditOutcomeProcessed,
	}))

	report, err := svc.HealthReport(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, report.UnresolvedAudits, 1)
	require.Len(t, report.Anomalies, 1)
	assert.Equal(t, AnomalyUnresolvedAudit, report.Anomalies[0].Kind)
}

func TestResolveAudit(t *testing.T) {
	_, tournamentRepo, auditRepo, svc := newMedicFixture()
	tournamentRepo.add(&models.Tournament{ID: 1, Status: models.TournamentStatusLive})
	audit := &models.ProcessingAudit{MatchID: 5, TournamentID: 1, Outcome: models.AuditOutcomePartial}
	require.NoError(t, auditRepo.Create(context.Background(), nil, audit))

	require.NoError(t, svc.ResolveAudit(context.Background(), audit.ID))

	report, err := svc.HealthReport(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, report.UnresolvedAudits)

	err = svc.ResolveAudit(context.Background(), 999)
	require.ErrorIs(t, err, ErrAuditNotFound)
}
