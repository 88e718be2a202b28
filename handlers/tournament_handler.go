package handlers

import (
	"net/http"

	"github.com/Dosada05/kmo-registration/services"
)

type TournamentHandler struct {
	tournamentService   services.TournamentService
	registrationService services.RegistrationService
	demo                bool
}

func NewTournamentHandler(ts services.TournamentService, rs services.RegistrationService, demo bool) *TournamentHandler {
	return &TournamentHandler{
		tournamentService:   ts,
		registrationService: rs,
		demo:                demo,
	}
}

// Home godoc
// @Summary Данные главной страницы
// @Description Три последних активных турнира с тремя лучшими участниками каждого.
// @Tags tournaments
// @Produce json
// @Success 200 {object} map[string]interface{} "tournaments, demo"
// @Router /api/home [get]
func (h *TournamentHandler) Home(w http.ResponseWriter, r *http.Request) {
	summaries := h.tournamentService.Recent(r.Context())
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": summaries, "demo": h.demo}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListOpen godoc
// @Summary Турниры с открытой регистрацией
// @Tags tournaments
// @Produce json
// @Success 200 {object} map[string]interface{} "tournaments"
// @Router /api/tournaments [get]
func (h *TournamentHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	tournaments := h.tournamentService.Open(r.Context())
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetTournament godoc
// @Summary Турнир по ID
// @Tags tournaments
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Success 200 {object} map[string]interface{} "tournament"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Router /api/tournaments/{tournamentID} [get]
func (h *TournamentHandler) GetTournament(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Register godoc
// @Summary Зарегистрироваться на турнир
// @Tags tournaments
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Success 201 {object} map[string]interface{} "registration"
// @Failure 400 {object} map[string]string "Анкета не заполнена"
// @Failure 403 {object} map[string]string "Регистрация закрыта"
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Failure 409 {object} map[string]string "Уже зарегистрирован / мест нет"
// @Security BearerAuth
// @Router /api/tournaments/{tournamentID}/register [post]
func (h *TournamentHandler) Register(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	reg, err := h.registrationService.Register(r.Context(), userID, tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	resp := jsonResponse{
		"registration": reg,
		"message":      "Вы успешно зарегистрированы на турнир!",
	}
	if err := writeJSON(w, http.StatusCreated, resp, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
