package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/deklol/valorant-skirmish-nexus-sub002/brackets"
	"github.com/deklol/valorant-skirmish-nexus-sub002/models"
	"github.com/deklol/valorant-skirmish-nexus-sub002/repositories"
	"github.com/deklol/valorant-skirmish-nexus-sub002/storage"
)

// Notifier is the engine's outbound notification port. Implementations are
// injected into the results processor; delivery is best effort and failures
// never abort result processing.
type Notifier interface {
	NotifyMatchComplete(ctx context.Context, match *models.Match, winnerID, loserID int) error
	NotifyMatchReady(ctx context.Context, match *models.Match) error
	NotifyTournamentWinner(ctx context.Context, tournamentID, winnerTeamID int) error
	NotifyBracketUpdated(ctx context.Context, tournamentID int) error
}

type teamSummary struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	LogoURL *string `json:"logo_url,omitempty"`
}

type hubNotifier struct {
	hub      *brackets.Hub
	teamRepo repositories.TeamRepository
	uploader storage.FileUploader
	logger   *slog.Logger
}

// NewHubNotifier broadcasts engine events into per-tournament websocket rooms.
func NewHubNotifier(
	hub *brackets.Hub,
	teamRepo repositories.TeamRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) Notifier {
	return &hubNotifier{
		hub:      hub,
		teamRepo: teamRepo,
		uploader: uploader,
		logger:   logger,
	}
}

func TournamentRoomID(tournamentID int) string {
	return fmt.Sprintf("tournament_%d", tournamentID)
}

func (n *hubNotifier) NotifyMatchComplete(ctx context.Context, match *models.Match, winnerID, loserID int) error {
	payload := map[string]interface{}{
		"match_id":    match.ID,
		"round":       match.RoundNumber,
		"match":       match.MatchNumber,
		"winner":      n.summarizeTeam(ctx, winnerID),
		"loser":       n.summarizeTeam(ctx, loserID),
		"score_team1": match.ScoreTeam1,
		"score_team2": match.ScoreTeam2,
	}
	n.broadcast(match.TournamentID, brackets.EventMatchCompleted, payload)
	return nil
}

func (n *hubNotifier) NotifyMatchReady(ctx context.Context, match *models.Match) error {
	payload := map[string]interface{}{
		"match_id": match.ID,
		"round":    match.RoundNumber,
		"match":    match.MatchNumber,
	}
	if match.Team1ID != nil {
		payload["team1"] = n.summarizeTeam(ctx, *match.Team1ID)
	}
	if match.Team2ID != nil {
		payload["team2"] = n.summarizeTeam(ctx, *match.Team2ID)
	}
	n.broadcast(match.TournamentID, brackets.EventMatchReady, payload)
	return nil
}

func (n *hubNotifier) NotifyTournamentWinner(ctx context.Context, tournamentID, winnerTeamID int) error {
	payload := map[string]interface{}{
		"tournament_id": tournamentID,
		"winner":        n.summarizeTeam(ctx, winnerTeamID),
	}
	n.broadcast(tournamentID, brackets.EventTournamentCompleted, payload)
	return nil
}

func (n *hubNotifier) NotifyBracketUpdated(ctx context.Context, tournamentID int) error {
	n.broadcast(tournamentID, brackets.EventBracketUpdated, map[string]interface{}{
		"tournament_id": tournamentID,
	})
	return nil
}

func (n *hubNotifier) broadcast(tournamentID int, eventType string, payload interface{}) {
	roomID := TournamentRoomID(tournamentID)
	n.hub.BroadcastToRoom(roomID, brackets.WebSocketMessage{
		Type:    eventType,
		Payload: payload,
		RoomID:  roomID,
	})
}

func (n *hubNotifier) summarizeTeam(ctx context.Context, teamID int) teamSummary {
	summary := teamSummary{ID: teamID, Name: fmt.Sprintf("Team %d", teamID)}
	team, err := n.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		n.logger.WarnContext(ctx, "failed to load team for notification payload",
			slog.Int("team_id", teamID), slog.Any("error", err))
		return summary
	}
	summary.Name = team.Name
	populateTeamLogoURL(team, n.uploader)
	summary.LogoURL = team.LogoURL
	return summary
}
