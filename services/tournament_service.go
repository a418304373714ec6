package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/deklol/valorant-skirmish-nexus-sub002/brackets"
	"github.com/deklol/valorant-skirmish-nexus-sub002/models"
	"github.com/deklol/valorant-skirmish-nexus-sub002/repositories"
)

// validStatusTransitions is the tournament lifecycle. Archival is reachable
// from every non-terminal state except live; a running bracket must finish
// before it can be shelved.
var validStatusTransitions = map[models.TournamentStatus][]models.TournamentStatus{
	models.TournamentStatusDraft:     {models.TournamentStatusOpen, models.TournamentStatusArchived},
	models.TournamentStatusOpen:      {models.TournamentStatusBalancing, models.TournamentStatusArchived},
	models.TournamentStatusBalancing: {models.TournamentStatusLive, models.TournamentStatusArchived},
	models.TournamentStatusLive:      {models.TournamentStatusCompleted},
	models.TournamentStatusCompleted: {models.TournamentStatusArchived},
}

func isValidStatusTransition(from, to models.TournamentStatus) bool {
	for _, allowed := range validStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type TournamentDetails struct {
	Tournament *models.Tournament `json:"tournament"`
	Teams      []*models.Team     `json:"teams"`
	Matches    []*models.Match    `json:"matches"`
}

type TournamentService interface {
	GetTournament(ctx context.Context, id int) (*TournamentDetails, error)
	ListTournaments(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error)
	SignUp(ctx context.Context, tournamentID, userID int) error
	UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error

	// StartTournament moves a tournament from balancing to live, generating
	// and persisting its bracket in one transaction.
	StartTournament(ctx context.Context, id int) error
}

type tournamentService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	signupRepo     repositories.SignupRepository
	notifier       Notifier
	logger         *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	signupRepo repositories.SignupRepository,
	notifier Notifier,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:             db,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		signupRepo:     signupRepo,
		notifier:       notifier,
		logger:         logger,
	}
}

func (s *tournamentService) GetTournament(ctx context.Context, id int) (*TournamentDetails, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", id, err)
	}

	details := &TournamentDetails{Tournament: tournament}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		teams, err := s.teamRepo.ListByTournament(gctx, id)
		if err != nil {
			return fmt.Errorf("failed to list teams: %w", err)
		}
		details.Teams = teams
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gctx, id, nil, nil)
		if err != nil {
			return fmt.Errorf("failed to list matches: %w", err)
		}
		details.Matches = matches
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return details, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.tournamentRepo.List(ctx, status, limit, offset)
}

func (s *tournamentService) SignUp(ctx context.Context, tournamentID, userID int) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}
	if tournament.Status != models.TournamentStatusOpen {
		return ErrSignupClosed
	}

	err = s.signupRepo.Create(ctx, &models.TournamentSignup{TournamentID: tournamentID, UserID: userID})
	if err != nil {
		if errors.Is(err, repositories.ErrSignupConflict) {
			return ErrSignupConflict
		}
		return fmt.Errorf("failed to sign up user %d: %w", userID, err)
	}
	return nil
}

func (s *tournamentService) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to load tournament %d: %w", id, err)
	}
	if !isValidStatusTransition(tournament.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrTournamentInvalidStatusTransition, tournament.Status, status)
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, nil, id, status, nil); err != nil {
		return fmt.Errorf("failed to update tournament %d status: %w", id, err)
	}
	return nil
}

func (s *tournamentService) StartTournament(ctx context.Context, id int) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to load tournament %d: %w", id, err)
	}
	if !isValidStatusTransition(tournament.Status, models.TournamentStatusLive) {
		return fmt.Errorf("%w: %s -> %s", ErrTournamentInvalidStatusTransition, tournament.Status, models.TournamentStatusLive)
	}

	teams, err := s.teamRepo.ListByTournament(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list teams of tournament %d: %w", id, err)
	}
	active := make([]*models.Team, 0, len(teams))
	for _, t := range teams {
		if t.Status != models.TeamStatusDisqualified {
			active = append(active, t)
		}
	}
	if len(active) < 2 {
		return ErrNotEnoughTeams
	}

	generator := brackets.NewGenerator(tournament.Format)
	if generator == nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedBracketFormat, tournament.Format)
	}
	matches, err := generator.Generate(ctx, brackets.GenerateBracketParams{
		Tournament: tournament,
		Teams:      active,
	})
	if err != nil {
		return fmt.Errorf("failed to generate bracket: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, match := range matches {
		if err := s.matchRepo.Create(ctx, tx, match); err != nil {
			return fmt.Errorf("failed to persist match r%d m%d: %w", match.RoundNumber, match.MatchNumber, err)
		}
	}
	for _, team := range active {
		if err := s.teamRepo.UpdateStatus(ctx, tx, team.ID, models.TeamStatusActive); err != nil {
			return fmt.Errorf("failed to activate team %d: %w", team.ID, err)
		}
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, tx, id, models.TournamentStatusLive, nil); err != nil {
		return fmt.Errorf("failed to mark tournament %d live: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if err := s.notifier.NotifyBracketUpdated(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to notify bracket generation",
			slog.Int("tournament_id", id), slog.Any("error", err))
	}
	return nil
}
