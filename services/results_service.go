package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/deklol/valorant-skirmish-nexus-sub002/brackets"
	"github.com/deklol/valorant-skirmish-nexus-sub002/models"
	"github.com/deklol/valorant-skirmish-nexus-sub002/repositories"
)

// Step names recorded in processing audits.
const (
	stepAdvancement    = "advancement"
	stepCompletion     = "completion"
	stepReconciliation = "reconciliation"
	stepNotification   = "notification"
)

type ProcessMatchResultsInput struct {
	MatchID      int  `json:"match_id"`
	WinnerID     int  `json:"winner_id"`
	LoserID      int  `json:"loser_id"`
	TournamentID int  `json:"tournament_id"`
	ScoreTeam1   *int `json:"score_team1,omitempty"`
	ScoreTeam2   *int `json:"score_team2,omitempty"`

	// OnComplete runs after the pipeline finishes, whether or not bookkeeping
	// steps failed. It does not run when the commit itself fails.
	OnComplete func() `json:"-"`
}

// ResultsService is the match-result / bracket-progression engine. A call
// commits the match outcome, then runs best-effort bookkeeping: winner
// advancement (or tournament completion), stat reconciliation, notifications,
// and an audit record that repair tooling can act on.
type ResultsService interface {
	ProcessMatchResults(ctx context.Context, input ProcessMatchResultsInput) error
}

type resultsService struct {
	matchRepo      repositories.MatchRepository
	teamRepo       repositories.TeamRepository
	tournamentRepo repositories.TournamentRepository
	auditRepo      repositories.AuditRepository
	stats          StatsService
	notifier       Notifier
	logger         *slog.Logger
}

func NewResultsService(
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	tournamentRepo repositories.TournamentRepository,
	auditRepo repositories.AuditRepository,
	stats StatsService,
	notifier Notifier,
	logger *slog.Logger,
) ResultsService {
	return &resultsService{
		matchRepo:      matchRepo,
		teamRepo:       teamRepo,
		tournamentRepo: tournamentRepo,
		auditRepo:      auditRepo,
		stats:          stats,
		notifier:       notifier,
		logger:         logger,
	}
}

// ProcessMatchResults runs the Committing → Evaluating → Advancing|Completing
// → Reconciling → Notifying → Done pipeline.
//
// Only the commit step is fatal: if the match update does not apply, or the
// mandatory re-read comes back empty, the pipeline stops and nothing
// downstream runs. Every later step is best effort; failures are collected
// into a processing audit record and surfaced as one processing error, but the
// committed result is never rolled back.
func (s *resultsService) ProcessMatchResults(ctx context.Context, input ProcessMatchResultsInput) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, input.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to load tournament %d: %w", input.TournamentID, err)
	}
	if tournament.Format != models.FormatSingleElimination {
		return fmt.Errorf("%w: %s", ErrUnsupportedBracketFormat, tournament.Format)
	}

	// Committing.
	match, err := s.commitResult(ctx, input)
	if err != nil {
		s.writeAudit(ctx, input, models.AuditOutcomeCommitFailed, []models.StepFailure{
			{Step: "commit", Detail: err.Error()},
		})
		return err
	}

	var failures []models.StepFailure
	record := func(step string, err error) {
		s.logger.ErrorContext(ctx, "match result bookkeeping step failed",
			slog.String("step", step),
			slog.Int("match_id", input.MatchID),
			slog.Int("tournament_id", input.TournamentID),
			slog.Any("error", err))
		failures = append(failures, models.StepFailure{Step: step, Detail: err.Error()})
	}

	// Evaluating: completion is checked on post-commit data, before any
	// advancement attempt. A structurally complete bracket has no next round
	// to feed.
	allMatches, err := s.matchRepo.ListByTournament(ctx, input.TournamentID, nil, nil)
	complete := false
	if err != nil {
		record(stepCompletion, fmt.Errorf("failed to list tournament matches: %w", err))
	} else {
		complete, _ = brackets.IsComplete(allMatches)
	}

	if complete {
		// Completing.
		if err := s.completeTournament(ctx, input.TournamentID, input.WinnerID); err != nil {
			record(stepCompletion, err)
		}
	} else {
		// Advancing.
		if err := s.advanceWinner(ctx, match, input.WinnerID); err != nil {
			record(stepAdvancement, err)
		}
	}
	if err := s.teamRepo.UpdateStatus(ctx, nil, input.LoserID, models.TeamStatusEliminated); err != nil {
		record(stepAdvancement, fmt.Errorf("failed to eliminate losing team %d: %w", input.LoserID, err))
	}

	// Reconciling.
	failures = append(failures, s.stats.ApplyMatchResult(ctx, input.WinnerID, input.LoserID)...)
	if complete {
		failures = append(failures, s.stats.ApplyTournamentResult(ctx, input.TournamentID, input.WinnerID)...)
	}

	// Notifying.
	if err := s.notifier.NotifyMatchComplete(ctx, match, input.WinnerID, input.LoserID); err != nil {
		record(stepNotification, err)
	}
	if complete {
		if err := s.notifier.NotifyTournamentWinner(ctx, input.TournamentID, input.WinnerID); err != nil {
			record(stepNotification, err)
		}
	} else {
		s.notifyReadyMatches(ctx, input, record)
	}
	if err := s.notifier.NotifyBracketUpdated(ctx, input.TournamentID); err != nil {
		record(stepNotification, err)
	}

	// Done.
	outcome := models.AuditOutcomeProcessed
	if len(failures) > 0 {
		outcome = models.AuditOutcomePartial
	}
	s.writeAudit(ctx, input, outcome, failures)

	if input.OnComplete != nil {
		input.OnComplete()
	}

	if len(failures) > 0 {
		return fmt.Errorf("%w: %d bookkeeping step(s) failed, match result is committed", ErrResultsProcessing, len(failures))
	}
	return nil
}

// commitResult validates the input against the match and writes score, winner
// and completion in one guarded update, then re-reads to confirm the write
// applied.
func (s *resultsService) commitResult(ctx context.Context, input ProcessMatchResultsInput) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, input.MatchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %d: %w", input.MatchID, err)
	}

	if !match.HasTeam(input.WinnerID) {
		return nil, ErrWinnerNotInMatch
	}
	if !match.HasTeam(input.LoserID) {
		return nil, ErrLoserNotInMatch
	}
	if input.WinnerID == input.LoserID {
		return nil, ErrWinnerEqualsLoser
	}

	scoreTeam1 := match.ScoreTeam1
	scoreTeam2 := match.ScoreTeam2
	if input.ScoreTeam1 != nil {
		scoreTeam1 = *input.ScoreTeam1
	}
	if input.ScoreTeam2 != nil {
		scoreTeam2 = *input.ScoreTeam2
	}
	if scoreTeam1 < 0 || scoreTeam2 < 0 {
		return nil, ErrNegativeScore
	}

	err = s.matchRepo.CommitResult(ctx, nil, match.ID, match.Version, input.WinnerID, scoreTeam1, scoreTeam2, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrMatchVersionConflict):
			return nil, fmt.Errorf("%w: match %d", ErrConcurrentModification, match.ID)
		case errors.Is(err, repositories.ErrMatchNotFound):
			return nil, ErrMatchNotFoundAfterUpdate
		default:
			return nil, fmt.Errorf("failed to commit result for match %d: %w", match.ID, err)
		}
	}

	// The re-read is mandatory: a vanished row means the write cannot be
	// trusted and downstream bookkeeping must not run.
	committed, err := s.matchRepo.GetByID(ctx, match.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFoundAfterUpdate
		}
		return nil, fmt.Errorf("failed to re-read match %d after commit: %w", match.ID, err)
	}
	return committed, nil
}

// advanceWinner writes the winner into the correct slot of the downstream
// match. A missing downstream match is not an error; it means the committed
// match was the last one on its path.
func (s *resultsService) advanceWinner(ctx context.Context, match *models.Match, winnerID int) error {
	nextRound := brackets.NextRound(match.RoundNumber)
	nextNumber := brackets.NextMatchNumber(match.MatchNumber)
	slot := brackets.WinnerSlot(match.MatchNumber)

	downstream, err := s.matchRepo.GetByRoundAndNumber(ctx, match.TournamentID, nextRound, nextNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil
		}
		return fmt.Errorf("failed to locate downstream match r%d m%d: %w", nextRound, nextNumber, err)
	}

	// Idempotent: re-advancing the same winner into an already-correct slot is
	// a no-op, so a retried call never produces conflicting writes.
	occupant := downstream.Team1ID
	if slot == brackets.SlotTeam2 {
		occupant = downstream.Team2ID
	}
	if occupant == nil || *occupant != winnerID {
		if err := s.matchRepo.AssignSlot(ctx, nil, downstream.ID, slot, winnerID); err != nil {
			return fmt.Errorf("failed to assign slot %d of match %d: %w", slot, downstream.ID, err)
		}
	}

	// Re-read after writing: the sibling feeder may have filled the other slot
	// concurrently, and readiness must reflect the latest state.
	downstream, err = s.matchRepo.GetByID(ctx, downstream.ID)
	if err != nil {
		return fmt.Errorf("failed to re-read downstream match: %w", err)
	}
	if downstream.HasBothTeams() && downstream.Status != models.MatchStatusCompleted {
		if err := s.matchRepo.UpdateStatus(ctx, nil, downstream.ID, models.MatchStatusPending); err != nil {
			return fmt.Errorf("failed to mark downstream match %d pending: %w", downstream.ID, err)
		}
	}
	return nil
}

// completeTournament transitions the tournament and its winning team in one
// transactional-looking pair of updates.
func (s *resultsService) completeTournament(ctx context.Context, tournamentID, winnerTeamID int) error {
	if err := s.tournamentRepo.UpdateStatus(ctx, nil, tournamentID, models.TournamentStatusCompleted, &winnerTeamID); err != nil {
		return fmt.Errorf("failed to mark tournament %d completed: %w", tournamentID, err)
	}
	if err := s.teamRepo.UpdateStatus(ctx, nil, winnerTeamID, models.TeamStatusWinner); err != nil {
		return fmt.Errorf("failed to mark team %d as winner: %w", winnerTeamID, err)
	}
	return nil
}

// notifyReadyMatches fires a readiness notification for every other pending
// match whose slots are now both filled, whether by this call's advancement or
// by an unrelated concurrent completion.
func (s *resultsService) notifyReadyMatches(ctx context.Context, input ProcessMatchResultsInput, record func(string, error)) {
	pending := models.MatchStatusPending
	matches, err := s.matchRepo.ListByTournament(ctx, input.TournamentID, nil, &pending)
	if err != nil {
		record(stepNotification, fmt.Errorf("failed to scan for ready matches: %w", err))
		return
	}
	for _, m := range matches {
		if m.ID == input.MatchID || !m.HasBothTeams() {
			continue
		}
		if err := s.notifier.NotifyMatchReady(ctx, m); err != nil {
			record(stepNotification, fmt.Errorf("failed to notify readiness of match %d: %w", m.ID, err))
		}
	}
}

// writeAudit persists the structured repair record for this run. Audit write
// failures are logged only; they must not mask the pipeline's own outcome.
func (s *resultsService) writeAudit(ctx context.Context, input ProcessMatchResultsInput, outcome models.AuditOutcome, failures []models.StepFailure) {
	audit := &models.ProcessingAudit{
		MatchID:      input.MatchID,
		TournamentID: input.TournamentID,
		WinnerID:     input.WinnerID,
		LoserID:      input.LoserID,
		Outcome:      outcome,
		Failures:     failures,
	}
	if err := s.auditRepo.Create(ctx, nil, audit); err != nil {
		s.logger.ErrorContext(ctx, "failed to write processing audit",
			slog.Int("match_id", input.MatchID), slog.Any("error", err))
	}
}
