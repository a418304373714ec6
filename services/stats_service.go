package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/deklol/valorant-skirmish-nexus-sub002/models"
	"github.com/deklol/valorant-skirmish-nexus-sub002/repositories"
)

// StatsService updates per-user aggregate counters from match and tournament
// outcomes. Rosters are resolved at call time, so a player added or removed
// between the match and the update is attributed according to the roster as it
// stands when the update runs.
//
// Each user's update is independent: one failed increment never blocks the
// rest, and the failures come back for the caller's audit record.
type StatsService interface {
	ApplyMatchResult(ctx context.Context, winnerTeamID, loserTeamID int) []models.StepFailure
	ApplyTournamentResult(ctx context.Context, tournamentID, winnerTeamID int) []models.StepFailure

	// Reversal duals for admin result-removal tooling. Counters floor at
	// zero, a reversal never drives a stat negative.
	ReverseMatchResult(ctx context.Context, winnerTeamID, loserTeamID int) []models.StepFailure
	ReverseTournamentResult(ctx context.Context, tournamentID, winnerTeamID int) []models.StepFailure
}

type statsService struct {
	memberRepo repositories.TeamMemberRepository
	signupRepo repositories.SignupRepository
	statsRepo  repositories.UserStatsRepository
	logger     *slog.Logger
}

func NewStatsService(
	memberRepo repositories.TeamMemberRepository,
	signupRepo repositories.SignupRepository,
	statsRepo repositories.UserStatsRepository,
	logger *slog.Logger,
) StatsService {
	return &statsService{
		memberRepo: memberRepo,
		signupRepo: signupRepo,
		statsRepo:  statsRepo,
		logger:     logger,
	}
}

func (s *statsService) ApplyMatchResult(ctx context.Context, winnerTeamID, loserTeamID int) []models.StepFailure {
	var failures []models.StepFailure
	failures = append(failures, s.bumpTeam(ctx, winnerTeamID, models.StatWins, s.statsRepo.IncrementStat)...)
	failures = append(failures, s.bumpTeam(ctx, loserTeamID, models.StatLosses, s.statsRepo.IncrementStat)...)
	return failures
}

func (s *statsService) ReverseMatchResult(ctx context.Context, winnerTeamID, loserTeamID int) []models.StepFailure {
	var failures []models.StepFailure
	failures = append(failures, s.bumpTeam(ctx, winnerTeamID, models.StatWins, s.statsRepo.DecrementStat)...)
	failures = append(failures, s.bumpTeam(ctx, loserTeamID, models.StatLosses, s.statsRepo.DecrementStat)...)
	return failures
}

// ApplyTournamentResult credits tournaments_won to the winning roster and
// tournaments_played to every signed-up user, winners included.
func (s *statsService) ApplyTournamentResult(ctx context.Context, tournamentID, winnerTeamID int) []models.StepFailure {
	var failures []models.StepFailure
	failures = append(failures, s.bumpTeam(ctx, winnerTeamID, models.StatTournamentsWon, s.statsRepo.IncrementStat)...)
	failures = append(failures, s.bumpSignups(ctx, tournamentID, models.StatTournamentsPlayed, s.statsRepo.IncrementStat)...)
	return failures
}

func (s *statsService) ReverseTournamentResult(ctx context.Context, tournamentID, winnerTeamID int) []models.StepFailure {
	var failures []models.StepFailure
	failures = append(failures, s.bumpTeam(ctx, winnerTeamID, models.StatTournamentsWon, s.statsRepo.DecrementStat)...)
	failures = append(failures, s.bumpSignups(ctx, tournamentID, models.StatTournamentsPlayed, s.statsRepo.DecrementStat)...)
	return failures
}

type statOp func(ctx context.Context, userID int, stat models.UserStat) error

func (s *statsService) bumpTeam(ctx context.Context, teamID int, stat models.UserStat, op statOp) []models.StepFailure {
	members, err := s.memberRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return []models.StepFailure{{
			Step:   stepReconciliation,
			Detail: fmt.Sprintf("failed to resolve roster of team %d for %s: %v", teamID, stat, err),
		}}
	}

	var failures []models.StepFailure
	for _, m := range members {
		if err := op(ctx, m.UserID, stat); err != nil {
			s.logger.ErrorContext(ctx, "failed to update user stat",
				slog.Int("user_id", m.UserID),
				slog.String("stat", string(stat)),
				slog.Any("error", err))
			failures = append(failures, models.StepFailure{
				Step:   stepReconciliation,
				Detail: fmt.Sprintf("failed to update %s for user %d: %v", stat, m.UserID, err),
			})
		}
	}
	return failures
}

func (s *statsService) bumpSignups(ctx context.Context, tournamentID int, stat models.UserStat, op statOp) []models.StepFailure {
	userIDs, err := s.signupRepo.ListUserIDsByTournament(ctx, tournamentID)
	if err != nil {
		return []models.StepFailure{{
			Step:   stepReconciliation,
			Detail: fmt.Sprintf("failed to list signups of tournament %d for %s: %v", tournamentID, stat, err),
		}}
	}

	var failures []models.StepFailure
	for _, userID := range userIDs {
		if err := op(ctx, userID, stat); err != nil {
			s.logger.ErrorContext(ctx, "failed to update user stat",
				slog.Int("user_id", userID),
				slog.String("stat", string(stat)),
				slog.Any("error", err))
			failures = append(failures, models.StepFailure{
				Step:   stepReconciliation,
				Detail: fmt.Sprintf("failed to update %s for user %d: %v", stat, userID, err),
			})
		}
	}
	return failures
}
