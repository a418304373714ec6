package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deklol/valorant-skirmish-nexus-sub002/models"
)

type resultsFixture struct {
	matchRepo      *fakeMatchRepo
	teamRepo       *fakeTeamRepo
	tournamentRepo *fakeTournamentRepo
	memberRepo     *fakeMemberRepo
	signupRepo     *fakeSignupRepo
	statsRepo      *fakeStatsRepo
	auditRepo      *fakeAuditRepo
	notifier       *fakeNotifier
	service        ResultsService
}

func intPtr(v int) *int { return &v }

// newFourTeamFixture builds a live single-elimination tournament with teams
// 1..4, a played-out round 1 grid and an empty final:
//
//	r1m1: team1 vs team2    r2m1: (empty) vs (empty)
//	r1m2: team3 vs team4
//
// Rosters: team1={11,12}, team2={21}, team3={31}, team4={41}. All five users
// are signed up.
func newFourTeamFixture(t *testing.T) *resultsFixture {
	t.Helper()

	f := &resultsFixture{
		matchRepo:      newFakeMatchRepo(),
		teamRepo:       newFakeTeamRepo(),
		tournamentRepo: newFakeTournamentRepo(),
		memberRepo:     newFakeMemberRepo(),
		signupRepo:     newFakeSignupRepo(),
		statsRepo:      newFakeStatsRepo(),
		auditRepo:      newFakeAuditRepo(),
		notifier:       newFakeNotifier(),
	}

	f.tournamentRepo.add(&models.Tournament{
		ID:     1,
		Name:   "Skirmish Cup",
		Format: models.FormatSingleElimination,
		Status: models.TournamentStatusLive,
	})

	for teamID := 1; teamID <= 4; teamID++ {
		f.teamRepo.add(&models.Team{ID: teamID, TournamentID: 1, Status: models.TeamStatusActive})
	}
	f.memberRepo.addMember(1, 11)
	f.memberRepo.addMember(1, 12)
	f.memberRepo.addMember(2, 21)
	f.memberRepo.addMember(3, 31)
	f.memberRepo.addMember(4, 41)
	for _, userID := range []int{11, 12, 21, 31, 41} {
		f.signupRepo.addSignup(1, userID)
	}

	f.matchRepo.add(&models.Match{ID: 1, TournamentID: 1, RoundNumber: 1, MatchNumber: 1, Team1ID: intPtr(1), Team2ID: intPtr(2), Status: models.MatchStatusPending})
	f.matchRepo.add(&models.Match{ID: 2, TournamentID: 1, RoundNumber: 1, MatchNumber: 2, Team1ID: intPtr(3), Team2ID: intPtr(4), Status: models.MatchStatusPending})
	f.matchRepo.add(&models.Match{ID: 3, TournamentID: 1, RoundNumber: 2, MatchNumber: 1, Status: models.MatchStatusPending})

	stats := NewStatsService(f.memberRepo, f.signupRepo, f.statsRepo, testLogger())
	f.service = NewResultsService(f.matchRepo, f.teamRepo, f.tournamentRepo, f.auditRepo, stats, f.notifier, testLogger())
	return f
}

func (f *resultsFixture) process(t *testing.T, matchID, winnerID, loserID int, score1, score2 int) error {
	t.Helper()
	return f.service.ProcessMatchResults(context.Background(), ProcessMatchResultsInput{
		MatchID:      matchID,
		WinnerID:     winnerID,
		LoserID:      loserID,
		TournamentID: 1,
		ScoreTeam1:   intPtr(score1),
		ScoreTeam2:   intPtr(score2),
	})
}

func TestProcessMatchResults_RoundOneAdvancesWinnerToTeam1Slot(t *testing.T) {
	f := newFourTeamFixture(t)

	require.NoError(t, f.process(t, 1, 1, 2, 2, 0))

	committed := f.matchRepo.get(1)
	require.NotNil(t, committed.WinnerID)
	assert.Equal(t, 1, *committed.WinnerID)
	assert.Equal(t, models.MatchStatusCompleted, committed.Status)
	assert.Equal(t, 2, committed.ScoreTeam1)
	assert.Equal(t, 0, committed.ScoreTeam2)
	assert.NotNil(t, committed.CompletedAt)

	final := f.matchRepo.get(3)
	require.NotNil(t, final.Team1ID, "odd feeder must land in the left slot")
	assert.Equal(t, 1, *final.Team1ID)
	assert.Nil(t, final.Team2ID)

	tournament := f.tournamentRepo.get(1)
	assert.Equal(t, models.TournamentStatusLive, tournament.Status, "tournament must stay live while the final has an empty slot")

	assert.Equal(t, []int{1}, f.notifier.matchComplete)
	assert.Empty(t, f.notifier.tournamentWinner)
}

func TestProcessMatchResults_SecondFeederFillsTeam2SlotAndReadiesFinal(t *testing.T) {
	f := newFourTeamFixture(t)

	require.NoError(t, f.process(t, 1, 1, 2, 2, 0))
	require.NoError(t, f.process(t, 2, 4, 3, 0, 2))

	final := f.matchRepo.get(3)
	require.NotNil(t, final.Team1ID)
	require.NotNil(t, final.Team2ID, "even feeder must land in the right slot")
	assert.Equal(t, 1, *final.Team1ID)
	assert.Equal(t, 4, *final.Team2ID)
	assert.Equal(t, models.MatchStatusPending, final.Status)

	assert.Contains(t, f.notifier.matchReady, 3, "filled final must be announced as ready")
}

func TestProcessMatchResults_FinalCompletesTournament(t *testing.T) {
	f := newFourTeamFixture(t)
	require.NoError(t, f.process(t, 1, 1, 2, 2, 0))
	require.NoError(t, f.process(t, 2, 4, 3, 0, 2))

	require.NoError(t, f.process(t, 3, 1, 4, 2, 1))

	tournament := f.tournamentRepo.get(1)
	assert.Equal(t, models.TournamentStatusCompleted, tournament.Status)
	require.NotNil(t, tournament.WinnerTeamID)
	assert.Equal(t, 1, *tournament.WinnerTeamID)

	winner := f.teamRepo.get(1)
	assert.Equal(t, models.TeamStatusWinner, winner.Status)

	assert.Equal(t, []int{1}, f.notifier.tournamentWinner)

	// Winning roster gets the tournament win, every signup gets a played.
	assert.Equal(t, 1, f.statsRepo.stat(11, models.StatTournamentsWon))
	assert.Equal(t, 1, f.statsRepo.stat(12, models.StatTournamentsWon))
	assert.Equal(t, 0, f.statsRepo.stat(21, models.StatTournamentsWon))
	for _, userID := range []int{11, 12, 21, 31, 41} {
		assert.Equal(t, 1, f.statsRepo.stat(userID, models.StatTournamentsPlayed), "user %d", userID)
	}
}

func TestProcessMatchResults_RepeatedAdvancementIsIdempotent(t *testing.T) {
	f := newFourTeamFixture(t)

	require.NoError(t, f.process(t, 1, 1, 2, 2, 0))
	// A retried submission conflicts on the version guard but must not disturb
	// the downstream slot.
	err := f.process(t, 1, 1, 2, 2, 0)
	require.ErrorIs(t, err, ErrConcurrentModification)

	final := f.matchRepo.get(3)
	require.NotNil(t, final.Team1ID)
	assert.Equal(t, 1, *final.Team1ID)
	assert.Nil(t, final.Team2ID)
}

func TestProcessMatchResults_WinnerMustBelongToMatch(t *testing.T) {
	f := newFourTeamFixture(t)

	err := f.process(t, 1, 3, 2, 2, 0)
	require.ErrorIs(t, err, ErrWinnerNotInMatch)

	err = f.process(t, 1, 1, 3, 2, 0)
	require.ErrorIs(t, err, ErrLoserNotInMatch)

	err = f.process(t, 1, 1, 1, 2, 0)
	require.ErrorIs(t, err, ErrWinnerEqualsLoser)

	assert.Nil(t, f.matchRepo.get(1).WinnerID)
}

func TestProcessMatchResults_RejectsNegativeScores(t *testing.T) {
	f := newFourTeamFixture(t)

	err := f.process(t, 1, 1, 2, -1, 0)
	require.ErrorIs(t, err, ErrNegativeScore)
	assert.Nil(t, f.matchRepo.get(1).WinnerID)
}

func TestProcessMatchResults_CommitFailureHaltsPipeline(t *testing.T) {
	f := newFourTeamFixture(t)
	f.matchRepo.vanishAfterCommit = true

	err := f.process(t, 1, 1, 2, 2, 0)
	require.ErrorIs(t, err, ErrMatchNotFoundAfterUpdate)

	// No downstream bookkeeping may have run.
	assert.Nil(t, f.matchRepo.get(3).Team1ID)
	assert.Equal(t, 0, f.statsRepo.stat(11, models.StatWins))
	assert.Equal(t, 0, f.statsRepo.stat(21, models.StatLosses))
	assert.Empty(t, f.notifier.matchComplete)
	assert.Empty(t, f.notifier.matchReady)
	assert.Empty(t, f.notifier.tournamentWinner)

	audits, err := f.auditRepo.ListByMatch(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, models.AuditOutcomeCommitFailed, audits[0].Outcome)
}

func TestProcessMatchResults_AdvancementFailureDoesNotBlockStatsOrNotifications(t *testing.T) {
	f := newFourTeamFixture(t)
	f.matchRepo.getByRoundErr = assert.AnError

	err := f.process(t, 1, 1, 2, 2, 0)
	require.ErrorIs(t, err, ErrResultsProcessing)

	// The commit stands and reconciliation plus notification still ran.
	require.NotNil(t, f.matchRepo.get(1).WinnerID)
	assert.Equal(t, 1, f.statsRepo.stat(11, models.StatWins))
	assert.Equal(t, 1, f.statsRepo.stat(12, models.StatWins))
	assert.Equal(t, 1, f.statsRepo.stat(21, models.StatLosses))
	assert.Equal(t, []int{1}, f.notifier.matchComplete)

	audits, listErr := f.auditRepo.ListUnresolved(context.Background(), intPtr(1))
	require.NoError(t, listErr)
	require.Len(t, audits, 1)
	assert.Equal(t, models.AuditOutcomePartial, audits[0].Outcome)
	require.NotEmpty(t, audits[0].Failures)
	assert.Equal(t, "advancement", audits[0].Failures[0].Step)
}

func TestProcessMatchResults_MatchStatsScopedToRosters(t *testing.T) {
	f := newFourTeamFixture(t)

	require.NoError(t, f.process(t, 1, 1, 2, 2, 0))

	assert.Equal(t, 1, f.statsRepo.stat(11, models.StatWins))
	assert.Equal(t, 1, f.statsRepo.stat(12, models.StatWins))
	assert.Equal(t, 1, f.statsRepo.stat(21, models.StatLosses))

	// Players on uninvolved teams are untouched.
	for _, userID := range []int{31, 41} {
		assert.Equal(t, 0, f.statsRepo.stat(userID, models.StatWins), "user %d", userID)
		assert.Equal(t, 0, f.statsRepo.stat(userID, models.StatLosses), "user %d", userID)
	}
	assert.Equal(t, 0, f.statsRepo.stat(11, models.StatLosses))
	assert.Equal(t, 0, f.statsRepo.stat(21, models.StatWins))
}

func TestProcessMatchResults_PerUserStatFailureIsIsolated(t *testing.T) {
	f := newFourTeamFixture(t)
	f.statsRepo.failFor[11] = true

	err := f.process(t, 1, 1, 2, 2, 0)
	require.ErrorIs(t, err, ErrResultsProcessing)

	// The other roster members still reconcile.
	assert.Equal(t, 0, f.statsRepo.stat(11, models.StatWins))
	assert.Equal(t, 1, f.statsRepo.stat(12, models.StatWins))
	assert.Equal(t, 1, f.statsRepo.stat(21, models.StatLosses))
}

func TestProcessMatchResults_NotificationFailureIsNonFatal(t *testing.T) {
	f := newFourTeamFixture(t)
	f.notifier.failMatchComplete = true

	err := f.process(t, 1, 1, 2, 2, 0)
	require.ErrorIs(t, err, ErrResultsProcessing)

	// Advancement and stats are unaffected.
	final := f.matchRepo.get(3)
	require.NotNil(t, final.Team1ID)
	assert.Equal(t, 1, *final.Team1ID)
	assert.Equal(t, 1, f.statsRepo.stat(11, models.StatWins))
}

func TestProcessMatchResults_LoserTeamEliminated(t *testing.T) {
	f := newFourTeamFixture(t)

	require.NoError(t, f.process(t, 1, 1, 2, 2, 0))

	assert.Equal(t, models.TeamStatusEliminated, f.teamRepo.get(2).Status)
	assert.Equal(t, models.TeamStatusActive, f.teamRepo.get(1).Status)
}

func TestProcessMatchResults_UnsupportedFormatFailsBeforeCommit(t *testing.T) {
	f := newFourTeamFixture(t)
	tournament := f.tournamentRepo.get(1)
	tournament.Format = models.FormatRoundRobin
	f.tournamentRepo.add(tournament)

	err := f.process(t, 1, 1, 2, 2, 0)
	require.ErrorIs(t, err, ErrUnsupportedBracketFormat)
	assert.Nil(t, f.matchRepo.get(1).WinnerID, "commit must not run for an unsupported format")
}

func TestProcessMatchResults_SuccessfulRunWritesProcessedAudit(t *testing.T) {
	f := newFourTeamFixture(t)

	require.NoError(t, f.process(t, 1, 1, 2, 2, 0))

	audits, err := f.auditRepo.ListByMatch(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, models.AuditOutcomeProcessed, audits[0].Outcome)
	assert.Empty(t, audits[0].Failures)
}

func TestProcessMatchResults_OnCompleteRunsAfterPipeline(t *testing.T) {
	f := newFourTeamFixture(t)

	called := false
	err := f.service.ProcessMatchResults(context.Background(), ProcessMatchResultsInput{
		MatchID:      1,
		WinnerID:     1,
		LoserID:      2,
		TournamentID: 1,
		ScoreTeam1:   intPtr(2),
		ScoreTeam2:   intPtr(0),
		OnComplete:   func() { called = true },
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestProcessMatchResults_OnCompleteSkippedWhenCommitFails(t *testing.T) {
	f := newFourTeamFixture(t)
	f.matchRepo.vanishAfterCommit = true

	called := false
	err := f.service.ProcessMatchResults(context.Background(), ProcessMatchResultsInput{
		MatchID:      1,
		WinnerID:     1,
		LoserID:      2,
		TournamentID: 1,
		ScoreTeam1:   intPtr(2),
		ScoreTeam2:   intPtr(0),
		OnComplete:   func() { called = true },
	})
	require.Error(t, err)
	assert.False(t, called)
}
