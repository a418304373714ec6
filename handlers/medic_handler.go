package handlers

import (
	"net/http"

	"github.com/deklol/valorant-skirmish-nexus-sub002/services"
)

// MedicHandler exposes the operator repair surface for partially processed
// match results.
type MedicHandler struct {
	medicService services.MedicService
}

func NewMedicHandler(medicService services.MedicService) *MedicHandler {
	return &MedicHandler{medicService: medicService}
}

func (h *MedicHandler) HealthReport(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	report, err := h.medicService.HealthReport(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, report, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MedicHandler) ResolveAudit(w http.ResponseWriter, r *http.Request) {
	auditID, err := urlParamInt(r, "auditID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.medicService.ResolveAudit(r.Context(), auditID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "audit resolved"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
