package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/deklol/valorant-skirmish-nexus-sub002/models"
	"github.com/deklol/valorant-skirmish-nexus-sub002/repositories"
)

// Anomaly is one inconsistency found by a health scan, with enough context to
// repair it by hand.
type Anomaly struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

const (
	AnomalyCompletedMatchWithoutWinner = "completed_match_without_winner"
	AnomalyCompletedWithoutWinnerTeam  = "completed_tournament_without_winner_team"
	AnomalyUnresolvedAudit             = "unresolved_processing_audit"
	AnomalyLiveMatchMissingTeam        = "live_match_missing_team"
)

type HealthReport struct {
	TournamentID     int                       `json:"tournament_id"`
	Matches          []*models.Match           `json:"matches"`
	Teams            []*models.Team            `json:"teams"`
	UnresolvedAudits []*models.ProcessingAudit `json:"unresolved_audits"`
	Anomalies        []Anomaly                 `json:"anomalies"`
}

// MedicService is the operator-facing repair surface. Because result
// processing commits first and treats bookkeeping as best effort, partial runs
// leave audit records behind; this service finds them and the inconsistencies
// they imply.
type MedicService interface {
	HealthReport(ctx context.Context, tournamentID int) (*HealthReport, error)
	ResolveAudit(ctx context.Context, auditID int) error
}

type medicService struct {
	matchRepo      repositories.MatchRepository
	teamRepo       repositories.TeamRepository
	tournamentRepo repositories.TournamentRepository
	auditRepo      repositories.AuditRepository
	logger         *slog.Logger
}

func NewMedicService(
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	tournamentRepo repositories.TournamentRepository,
	auditRepo repositories.AuditRepository,
	logger *slog.Logger,
) MedicService {
	return &medicService{
		matchRepo:      matchRepo,
		teamRepo:       teamRepo,
		tournamentRepo: tournamentRepo,
		auditRepo:      auditRepo,
		logger:         logger,
	}
}

func (s *medicService) HealthReport(ctx context.Context, tournamentID int) (*HealthReport, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}

	report := &HealthReport{TournamentID: tournamentID}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gctx, tournamentID, nil, nil)
		if err != nil {
			return fmt.Errorf("failed to list matches: %w", err)
		}
		report.Matches = matches
		return nil
	})
	g.Go(func() error {
		teams, err := s.teamRepo.ListByTournament(gctx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list teams: %w", err)
		}
		report.Teams = teams
		return nil
	})
	g.Go(func() error {
		audits, err := s.auditRepo.ListUnresolved(gctx, &tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list unresolved audits: %w", err)
		}
		report.UnresolvedAudits = audits
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Anomalies = detectAnomalies(tournament, report.Matches, report.UnresolvedAudits)
	return report, nil
}

func detectAnomalies(tournament *models.Tournament, matches []*models.Match, audits []*models.ProcessingAudit) []Anomaly {
	var anomalies []Anomaly
	for _, m := range matches {
		if m.Status == models.MatchStatusCompleted && m.WinnerID == nil {
			anomalies = append(anomalies, Anomaly{
				Kind:   AnomalyCompletedMatchWithoutWinner,
				Detail: fmt.Sprintf("match %d (round %d, match %d) is completed but has no winner", m.ID, m.RoundNumber, m.MatchNumber),
			})
		}
		if m.Status == models.MatchStatusLive && !m.HasBothTeams() {
			anomalies = append(anomalies, Anomaly{
				Kind:   AnomalyLiveMatchMissingTeam,
				Detail: fmt.Sprintf("match %d (round %d, match %d) is live with an empty slot", m.ID, m.RoundNumber, m.MatchNumber),
			})
		}
	}
	if tournament.Status == models.TournamentStatusCompleted && tournament.WinnerTeamID == nil {
		anomalies = append(anomalies, Anomaly{
			Kind:   AnomalyCompletedWithoutWinnerTeam,
			Detail: fmt.Sprintf("tournament %d is completed but has no winner team", tournament.ID),
		})
	}
	for _, a := range audits {
		anomalies = append(anomalies, Anomaly{
			Kind:   AnomalyUnresolvedAudit,
			Detail: fmt.Sprintf("audit %d for match %d finished with outcome %q and %d recorded failure(s)", a.ID, a.MatchID, a.Outcome, len(a.Failures)),
		})
	}
	return anomalies
}

func (s *medicService) ResolveAudit(ctx context.Context, auditID int) error {
	if err := s.auditRepo.MarkResolved(ctx, auditID); err != nil {
		if errors.Is(err, repositories.ErrAuditNotFound) {
			return ErrAuditNotFound
		}
		return fmt.Errorf("failed to resolve audit %d: %w", auditID, err)
	}
	return nil
}
