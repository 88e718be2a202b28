package handlers

import (
	"net/http"

	"github.com/Dosada05/kmo-registration/services"
)

// AdminHandler - управление турнирами и результатами (роль admin).
type AdminHandler struct {
	tournamentService services.TournamentService
}

func NewAdminHandler(ts services.TournamentService) *AdminHandler {
	return &AdminHandler{tournamentService: ts}
}

// CreateTournament godoc
// @Summary Создать турнир
// @Tags admin
// @Accept json
// @Produce json
// @Param input body services.TournamentInput true "Турнир"
// @Success 201 {object} map[string]interface{} "tournament"
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /api/admin/tournaments [post]
func (h *AdminHandler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	var input services.TournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateTournament godoc
// @Summary Изменить турнир
// @Tags admin
// @Accept json
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Param input body services.TournamentInput true "Турнир"
// @Success 200 {object} map[string]interface{} "tournament"
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Security BearerAuth
// @Router /api/admin/tournaments/{tournamentID} [put]
func (h *AdminHandler) UpdateTournament(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.TournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.Update(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecordResult godoc
// @Summary Записать результат участника
// @Tags admin
// @Accept json
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Param input body services.ResultInput true "Результат"
// @Success 200 {object} map[string]interface{} "result"
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Security BearerAuth
// @Router /api/admin/tournaments/{tournamentID}/results [post]
func (h *AdminHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.ResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.tournamentService.RecordResult(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListRegistrations godoc
// @Summary Участники турнира
// @Tags admin
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Success 200 {object} map[string]interface{} "registrations, count"
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Security BearerAuth
// @Router /api/admin/tournaments/{tournamentID}/registrations [get]
func (h *AdminHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	regs, err := h.tournamentService.ListRegistrations(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"registrations": regs, "count": len(regs)}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
