package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/deklol/valorant-skirmish-nexus-sub002/models"
	"github.com/deklol/valorant-skirmish-nexus-sub002/repositories"
	"github.com/deklol/valorant-skirmish-nexus-sub002/storage"
)

type CreateTeamInput struct {
	TournamentID int    `json:"tournament_id"`
	Name         string `json:"name"`
	CaptainID    int    `json:"captain_id"`
}

type TeamService interface {
	CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error)
	GetTeam(ctx context.Context, id int) (*models.Team, error)
	ListTeams(ctx context.Context, tournamentID int) ([]*models.Team, error)
	AddMember(ctx context.Context, teamID, userID int) error
	RemoveMember(ctx context.Context, teamID, userID int) error
	UploadLogo(ctx context.Context, teamID int, contentType string, reader io.Reader) (*models.Team, error)
}

type teamService struct {
	teamRepo   repositories.TeamRepository
	memberRepo repositories.TeamMemberRepository
	uploader   storage.FileUploader
	logger     *slog.Logger
}

func NewTeamService(
	teamRepo repositories.TeamRepository,
	memberRepo repositories.TeamMemberRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TeamService {
	return &teamService{
		teamRepo:   teamRepo,
		memberRepo: memberRepo,
		uploader:   uploader,
		logger:     logger,
	}
}

func (s *teamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	team := &models.Team{
		TournamentID: input.TournamentID,
		Name:         name,
		Status:       models.TeamStatusPending,
	}
	if err := s.teamRepo.Create(ctx, nil, team); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamNameConflict):
			return nil, ErrTeamNameConflict
		case errors.Is(err, repositories.ErrTeamTournamentInvalid):
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	if err := s.memberRepo.Create(ctx, nil, &models.TeamMember{
		TeamID:    team.ID,
		UserID:    input.CaptainID,
		IsCaptain: true,
	}); err != nil {
		return nil, fmt.Errorf("failed to add captain to team %d: %w", team.ID, err)
	}
	return s.GetTeam(ctx, team.ID)
}

func (s *teamService) GetTeam(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to load team %d: %w", id, err)
	}

	members, err := s.memberRepo.ListByTeam(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of team %d: %w", id, err)
	}
	team.Members = members
	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

func (s *teamService) ListTeams(ctx context.Context, tournamentID int) ([]*models.Team, error) {
	teams, err := s.teamRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams of tournament %d: %w", tournamentID, err)
	}
	for _, team := range teams {
		populateTeamLogoURL(team, s.uploader)
	}
	return teams, nil
}

func (s *teamService) AddMember(ctx context.Context, teamID, userID int) error {
	err := s.memberRepo.Create(ctx, nil, &models.TeamMember{TeamID: teamID, UserID: userID})
	if err != nil {
		if errors.Is(err, repositories.ErrTeamMemberConflict) {
			return ErrMemberConflict
		}
		return fmt.Errorf("failed to add user %d to team %d: %w", userID, teamID, err)
	}
	return nil
}

func (s *teamService) RemoveMember(ctx context.Context, teamID, userID int) error {
	if err := s.memberRepo.Delete(ctx, nil, teamID, userID); err != nil {
		if errors.Is(err, repositories.ErrTeamMemberNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to remove user %d from team %d: %w", userID, teamID, err)
	}
	return nil
}

func (s *teamService) UploadLogo(ctx context.Context, teamID int, contentType string, reader io.Reader) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to load team %d: %w", teamID, err)
	}

	ext := getExtensionFromContentType(contentType)
	if ext == "" {
		return nil, fmt.Errorf("%w: unsupported logo content type %q", ErrValidationFailed, contentType)
	}

	key := fmt.Sprintf("team-logos/%d/%s%s", teamID, uuid.NewString(), ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, reader); err != nil {
		return nil, fmt.Errorf("failed to upload logo for team %d: %w", teamID, err)
	}

	oldKey := team.LogoKey
	if err := s.teamRepo.UpdateLogoKey(ctx, teamID, &key); err != nil {
		return nil, fmt.Errorf("failed to store logo key for team %d: %w", teamID, err)
	}
	if oldKey != nil && *oldKey != "" && *oldKey != key {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete previous team logo",
				slog.Int("team_id", teamID), slog.String("key", *oldKey), slog.Any("error", err))
		}
	}
	return s.GetTeam(ctx, teamID)
}
