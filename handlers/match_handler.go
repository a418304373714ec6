package handlers

import (
	"errors"
	"net/http"

	"github.com/deklol/valorant-skirmish-nexus-sub002/models"
	"github.com/deklol/valorant-skirmish-nexus-sub002/repositories"
	"github.com/deklol/valorant-skirmish-nexus-sub002/services"
)

type submitResultsInput struct {
	WinnerID   int  `json:"winner_id"`
	LoserID    int  `json:"loser_id"`
	ScoreTeam1 *int `json:"score_team1,omitempty"`
	ScoreTeam2 *int `json:"score_team2,omitempty"`

	// ConfirmOverride acknowledges a winner that contradicts the submitted
	// scores. Without it such a submission is rejected with the consistency
	// verdict so the client can ask the operator to confirm.
	ConfirmOverride bool `json:"confirm_override,omitempty"`
}

type MatchHandler struct {
	resultsService services.ResultsService
	matchRepo      repositories.MatchRepository
}

func NewMatchHandler(resultsService services.ResultsService, matchRepo repositories.MatchRepository) *MatchHandler {
	return &MatchHandler{
		resultsService: resultsService,
		matchRepo:      matchRepo,
	}
}

func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchRepo.GetByID(r.Context(), matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			notFoundResponse(w, r)
			return
		}
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var status *models.MatchStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.MatchStatus(raw)
		switch s {
		case models.MatchStatusPending, models.MatchStatusLive, models.MatchStatusCompleted:
			status = &s
		default:
			badRequestResponse(w, r, errors.New("invalid status filter"))
			return
		}
	}

	matches, err := h.matchRepo.ListByTournament(r.Context(), tournamentID, nil, status)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitResults godoc
// @Summary Submit a match result and run bracket progression
// @Tags matches
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param matchID path int true "Match ID"
// @Param input body submitResultsInput true "Result data"
// @Success 200 {object} map[string]string
// @Router /tournaments/{tournamentID}/matches/{matchID}/results [post]
func (h *MatchHandler) SubmitResults(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input submitResultsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if input.ScoreTeam1 != nil && input.ScoreTeam2 != nil && !input.ConfirmOverride {
		match, err := h.matchRepo.GetByID(r.Context(), matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				notFoundResponse(w, r)
				return
			}
			serverErrorResponse(w, r, err)
			return
		}
		check, err := services.CheckScoreWinner(match, input.WinnerID, *input.ScoreTeam1, *input.ScoreTeam2)
		if err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
		if !check.Consistent {
			errorResponse(w, r, http.StatusUnprocessableEntity, jsonResponse{
				"message":     "submitted winner contradicts the scores, resubmit with confirm_override to proceed",
				"consistency": check,
			})
			return
		}
	}

	err = h.resultsService.ProcessMatchResults(r.Context(), services.ProcessMatchResultsInput{
		MatchID:      matchID,
		WinnerID:     input.WinnerID,
		LoserID:      input.LoserID,
		TournamentID: tournamentID,
		ScoreTeam1:   input.ScoreTeam1,
		ScoreTeam2:   input.ScoreTeam2,
	})
	if err != nil {
		// A processing error after a successful commit is reported as 207:
		// the result stands, but bookkeeping needs attention.
		if errors.Is(err, services.ErrResultsProcessing) {
			if writeErr := writeJSON(w, http.StatusMultiStatus, jsonResponse{
				"message": "match result committed, some follow-up steps failed and were recorded for review",
			}, nil); writeErr != nil {
				serverErrorResponse(w, r, writeErr)
			}
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "match result processed"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
