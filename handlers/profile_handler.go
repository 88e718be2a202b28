package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/kmo-registration/models"
	"github.com/Dosada05/kmo-registration/services"
)

const maxAvatarSize = 5 << 20

type ProfileHandler struct {
	profileService      services.ProfileService
	registrationService services.RegistrationService
}

func NewProfileHandler(ps services.ProfileService, rs services.RegistrationService) *ProfileHandler {
	return &ProfileHandler{profileService: ps, registrationService: rs}
}

func profileResponse(p *models.Profile) jsonResponse {
	missing := p.MissingFields()
	if missing == nil {
		missing = []string{}
	}
	return jsonResponse{
		"profile":        p,
		"complete":       len(missing) == 0,
		"missing_fields": missing,
	}
}

// GetProfile godoc
// @Summary Анкета текущего пользователя
// @Tags profile
// @Produce json
// @Success 200 {object} map[string]interface{} "profile, complete, missing_fields"
// @Failure 401 {object} map[string]string
// @Security BearerAuth
// @Router /api/profile [get]
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	profile, err := h.profileService.Get(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, profileResponse(profile), nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateProfile godoc
// @Summary Сохранить анкету
// @Tags profile
// @Accept json
// @Produce json
// @Param input body services.ProfileInput true "Поля анкеты"
// @Success 200 {object} map[string]interface{} "profile, complete, missing_fields"
// @Failure 400 {object} map[string]string "Класс вне 1..11 или дата рождения не в формате YYYY-MM-DD"
// @Security BearerAuth
// @Router /api/profile [put]
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var input services.ProfileInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	profile, err := h.profileService.Save(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, profileResponse(profile), nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadAvatar godoc
// @Summary Загрузить аватар
// @Tags profile
// @Accept mpfd
// @Produce json
// @Param avatar formData file true "JPEG, PNG или WebP до 5MB"
// @Success 200 {object} map[string]interface{} "profile"
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string "Хранилище не настроено"
// @Security BearerAuth
// @Router /api/profile/avatar [post]
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarSize+1024)
	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		badRequestResponse(w, r, errors.New("avatar must be a multipart upload not larger than 5MB"))
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		badRequestResponse(w, r, errors.New("avatar file is required"))
		return
	}
	defer file.Close()

	profile, err := h.profileService.UploadAvatar(r.Context(), userID, file, header.Header.Get("Content-Type"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"profile": profile}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListRegistrations godoc
// @Summary Мои регистрации
// @Tags profile
// @Produce json
// @Success 200 {object} map[string]interface{} "registrations"
// @Failure 401 {object} map[string]string
// @Security BearerAuth
// @Router /api/profile/registrations [get]
func (h *ProfileHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	regs, err := h.registrationService.ListByUser(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"registrations": regs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
