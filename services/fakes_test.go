package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/deklol/valorant-skirmish-nexus-sub002/models"
	"github.com/deklol/valorant-skirmish-nexus-sub002/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeMatchRepo is an in-memory MatchRepository with error injection hooks for
// exercising the pipeline's failure semantics.
type fakeMatchRepo struct {
	mu      sync.Mutex
	matches map[int]*models.Match
	nextID  int

	// vanishAfterCommit makes every read after a successful CommitResult
	// report the match as missing.
	vanishAfterCommit bool
	committed         bool

	getByRoundErr error
	assignSlotErr error
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[int]*models.Match), nextID: 1}
}

func (f *fakeMatchRepo) add(m *models.Match) *models.Match {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID == 0 {
		m.ID = f.nextID
		f.nextID++
	} else if m.ID >= f.nextID {
		f.nextID = m.ID + 1
	}
	if m.Version == 0 {
		m.Version = 1
	}
	cp := *m
	f.matches[m.ID] = &cp
	return m
}

func (f *fakeMatchRepo) get(id int) *models.Match {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[id]
	if !ok {
		return nil
	}
	cp := *m
	return &cp
}

func (f *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	f.add(match)
	return nil
}

func (f *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	f.mu.Lock()
	vanished := f.vanishAfterCommit && f.committed
	f.mu.Unlock()
	if vanished {
		return nil, repositories.ErrMatchNotFound
	}
	m := f.get(id)
	if m == nil {
		return nil, repositories.ErrMatchNotFound
	}
	return m, nil
}

func (f *fakeMatchRepo) GetByRoundAndNumber(ctx context.Context, tournamentID, roundNumber, matchNumber int) (*models.Match, error) {
	if f.getByRoundErr != nil {
		return nil, f.getByRoundErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.matches {
		if m.TournamentID == tournamentID && m.RoundNumber == roundNumber && m.MatchNumber == matchNumber {
			cp := *m
			return &cp, nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (f *fakeMatchRepo) ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Match
	for _, m := range f.matches {
		if m.TournamentID != tournamentID {
			continue
		}
		if round != nil && m.RoundNumber != *round {
			continue
		}
		if status != nil && m.Status != *status {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoundNumber != out[j].RoundNumber {
			return out[i].RoundNumber < out[j].RoundNumber
		}
		return out[i].MatchNumber < out[j].MatchNumber
	})
	return out, nil
}

func (f *fakeMatchRepo) CommitResult(ctx context.Context, exec repositories.SQLExecutor, id, expectedVersion, winnerID, scoreTeam1, scoreTeam2 int, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	if m.Version != expectedVersion {
		return repositories.ErrMatchVersionConflict
	}
	m.WinnerID = &winnerID
	m.ScoreTeam1 = scoreTeam1
	m.ScoreTeam2 = scoreTeam2
	m.Status = models.MatchStatusCompleted
	m.CompletedAt = &completedAt
	m.Version++
	f.committed = true
	return nil
}

func (f *fakeMatchRepo) AssignSlot(ctx context.Context, exec repositories.SQLExecutor, id, slot, teamID int) error {
	if f.assignSlotErr != nil {
		return f.assignSlotErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	switch slot {
	case 1:
		m.Team1ID = &teamID
	case 2:
		m.Team2ID = &teamID
	default:
		return repositories.ErrMatchSlotInvalid
	}
	return nil
}

func (f *fakeMatchRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.MatchStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Status = status
	return nil
}

type fakeTeamRepo struct {
	mu    sync.Mutex
	teams map[int]*models.Team
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: make(map[int]*models.Team)}
}

func (f *fakeTeamRepo) add(t *models.Team) *models.Team {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.teams[t.ID] = &cp
	return t
}

func (f *fakeTeamRepo) get(id int) *models.Team {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teams[id]
	if !ok {
		return nil
	}
	cp := *t
	return &cp
}

func (f *fakeTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	f.mu.Lock()
	if team.ID == 0 {
		team.ID = len(f.teams) + 1
	}
	f.mu.Unlock()
	f.add(team)
	return nil
}

func (f *fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	t := f.get(id)
	if t == nil {
		return nil, repositories.ErrTeamNotFound
	}
	return t, nil
}

func (f *fakeTeamRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Team
	for _, t := range f.teams {
		if t.TournamentID == tournamentID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTeamRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TeamStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	t.Status = status
	return nil
}

func (f *fakeTeamRepo) UpdateLogoKey(ctx context.Context, id int, logoKey *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	t.LogoKey = logoKey
	return nil
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	tournaments map[int]*models.Tournament
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament)}
}

func (f *fakeTournamentRepo) add(t *models.Tournament) *models.Tournament {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.tournaments[t.ID] = &cp
	return t
}

func (f *fakeTournamentRepo) get(id int) *models.Tournament {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return nil
	}
	cp := *t
	return &cp
}

func (f *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t := f.get(id)
	if t == nil {
		return nil, repositories.ErrTournamentNotFound
	}
	return t, nil
}

func (f *fakeTournamentRepo) List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Tournament
	for _, t := range f.tournaments {
		if status != nil && t.Status != *status {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus, winnerTeamID *int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	if winnerTeamID != nil {
		t.WinnerTeamID = winnerTeamID
	}
	return nil
}

type fakeMemberRepo struct {
	mu      sync.Mutex
	members map[int][]*models.TeamMember // keyed by team ID
	listErr error
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{members: make(map[int][]*models.TeamMember)}
}

func (f *fakeMemberRepo) addMember(teamID, userID int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[teamID] = append(f.members[teamID], &models.TeamMember{TeamID: teamID, UserID: userID})
}

func (f *fakeMemberRepo) Create(ctx context.Context, exec repositories.SQLExecutor, member *models.TeamMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.members[member.TeamID] {
		if m.UserID == member.UserID {
			return repositories.ErrTeamMemberConflict
		}
	}
	f.members[member.TeamID] = append(f.members[member.TeamID], member)
	return nil
}

func (f *fakeMemberRepo) ListByTeam(ctx context.Context, teamID int) ([]*models.TeamMember, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.TeamMember, len(f.members[teamID]))
	copy(out, f.members[teamID])
	return out, nil
}

func (f *fakeMemberRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, teamID, userID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	members := f.members[teamID]
	for i, m := range members {
		if m.UserID == userID {
			f.members[teamID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return repositories.ErrTeamMemberNotFound
}

type fakeSignupRepo struct {
	mu      sync.Mutex
	signups map[int][]int // tournament ID -> user IDs
}

func newFakeSignupRepo() *fakeSignupRepo {
	return &fakeSignupRepo{signups: make(map[int][]int)}
}

func (f *fakeSignupRepo) addSignup(tournamentID, userID int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signups[tournamentID] = append(f.signups[tournamentID], userID)
}

func (f *fakeSignupRepo) Create(ctx context.Context, signup *models.TournamentSignup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.signups[signup.TournamentID] {
		if u == signup.UserID {
			return repositories.ErrSignupConflict
		}
	}
	f.signups[signup.TournamentID] = append(f.signups[signup.TournamentID], signup.UserID)
	return nil
}

func (f *fakeSignupRepo) ListUserIDsByTournament(ctx context.Context, tournamentID int) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.signups[tournamentID]))
	copy(out, f.signups[tournamentID])
	return out, nil
}

type fakeStatsRepo struct {
	mu     sync.Mutex
	counts map[int]map[models.UserStat]int
	// failFor makes increments for these user IDs fail.
	failFor map[int]bool
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{
		counts:  make(map[int]map[models.UserStat]int),
		failFor: make(map[int]bool),
	}
}

func (f *fakeStatsRepo) stat(userID int, stat models.UserStat) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[userID][stat]
}

func (f *fakeStatsRepo) IncrementStat(ctx context.Context, userID int, stat models.UserStat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[userID] {
		return fmt.Errorf("stat write rejected for user %d", userID)
	}
	if f.counts[userID] == nil {
		f.counts[userID] = make(map[models.UserStat]int)
	}
	f.counts[userID][stat]++
	return nil
}

func (f *fakeStatsRepo) DecrementStat(ctx context.Context, userID int, stat models.UserStat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[userID] {
		return fmt.Errorf("stat write rejected for user %d", userID)
	}
	if f.counts[userID] == nil {
		f.counts[userID] = make(map[models.UserStat]int)
	}
	if f.counts[userID][stat] > 0 {
		f.counts[userID][stat]--
	}
	return nil
}

type fakeAuditRepo struct {
	mu     sync.Mutex
	audits []*models.ProcessingAudit
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{}
}

func (f *fakeAuditRepo) Create(ctx context.Context, exec repositories.SQLExecutor, audit *models.ProcessingAudit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	audit.ID = len(f.audits) + 1
	f.audits = append(f.audits, audit)
	return nil
}

func (f *fakeAuditRepo) ListUnresolved(ctx context.Context, tournamentID *int) ([]*models.ProcessingAudit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ProcessingAudit
	for _, a := range f.audits {
		if a.Resolved || a.Outcome == models.AuditOutcomeProcessed {
			continue
		}
		if tournamentID != nil && a.TournamentID != *tournamentID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAuditRepo) ListByMatch(ctx context.Context, matchID int) ([]*models.ProcessingAudit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ProcessingAudit
	for _, a := range f.audits {
		if a.MatchID == matchID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAuditRepo) MarkResolved(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.audits {
		if a.ID == id {
			a.Resolved = true
			return nil
		}
	}
	return repositories.ErrAuditNotFound
}

// fakeNotifier records every notification call.
type fakeNotifier struct {
	mu sync.Mutex

	matchComplete    []int // match IDs
	matchReady       []int // match IDs
	tournamentWinner []int // winner team IDs
	bracketUpdated   []int // tournament IDs

	failMatchComplete bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{}
}

func (f *fakeNotifier) NotifyMatchComplete(ctx context.Context, match *models.Match, winnerID, loserID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMatchComplete {
		return fmt.Errorf("notification channel unavailable")
	}
	f.matchComplete = append(f.matchComplete, match.ID)
	return nil
}

func (f *fakeNotifier) NotifyMatchReady(ctx context.Context, match *models.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matchReady = append(f.matchReady, match.ID)
	return nil
}

func (f *fakeNotifier) NotifyTournamentWinner(ctx context.Context, tournamentID, winnerTeamID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tournamentWinner = append(f.tournamentWinner, winnerTeamID)
	return nil
}

func (f *fakeNotifier) NotifyBracketUpdated(ctx context.Context, tournamentID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bracketUpdated = append(f.bracketUpdated, tournamentID)
	return nil
}
