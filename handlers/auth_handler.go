package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Dosada05/kmo-registration/middleware"
	"github.com/Dosada05/kmo-registration/models"
	"github.com/Dosada05/kmo-registration/services"
	"github.com/Dosada05/kmo-registration/utils"
)

const oauthStateCookie = "kmo_oauth_state"

type TokenIssuer interface {
	Issue(user *models.User) (string, error)
}

type AuthHandler struct {
	authService services.AuthService
	tokens      TokenIssuer
	publicURL   string
	secure      bool
}

func NewAuthHandler(authService services.AuthService, tokens TokenIssuer, publicURL string) *AuthHandler {
	publicURL = strings.TrimRight(publicURL, "/")
	return &AuthHandler{
		authService: authService,
		tokens:      tokens,
		publicURL:   publicURL,
		secure:      strings.HasPrefix(publicURL, "https://"),
	}
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user *models.User) {
	token, err := h.tokens.Issue(user)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	h.setTokenCookie(w, token, int(services.DefaultTokenTTL/time.Second))

	if err := writeJSON(w, status, jsonResponse{"token": token, "user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SignUp godoc
// @Summary Регистрация по email и паролю
// @Tags auth
// @Accept json
// @Produce json
// @Param input body models.Credentials true "Email и пароль"
// @Success 201 {object} map[string]interface{} "token и user"
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "Email уже занят"
// @Router /api/auth/signup [post]
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var input models.Credentials
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Email == "" || input.Password == "" {
		badRequestResponse(w, r, errors.New("email and password are required"))
		return
	}

	user, err := h.authService.SignUp(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondWithToken(w, r, http.StatusCreated, user)
}

// SignIn godoc
// @Summary Вход по email и паролю
// @Tags auth
// @Accept json
// @Produce json
// @Param input body models.Credentials true "Email и пароль"
// @Success 200 {object} map[string]interface{} "token и user"
// @Failure 401 {object} map[string]string
// @Router /api/auth/signin [post]
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var input models.Credentials
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Email == "" || input.Password == "" {
		badRequestResponse(w, r, errors.New("email and password are required"))
		return
	}

	user, err := h.authService.SignIn(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondWithToken(w, r, http.StatusOK, user)
}

// Demo godoc
// @Summary Вход под демо-аккаунтом
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{} "token и user"
// @Router /api/auth/demo [post]
func (h *AuthHandler) Demo(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.DemoSignIn(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondWithToken(w, r, http.StatusOK, user)
}

// SignOut godoc
// @Summary Выход: сбрасывает cookie с токеном
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "message"
// @Router /api/auth/signout [post]
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.setTokenCookie(w, "", -1)
	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "signed out"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// YandexLogin перенаправляет на страницу входа Яндекс ID.
// @Summary Вход через Яндекс ID
// @Tags auth
// @Success 302 "Редирект на oauth.yandex.ru"
// @Failure 503 {object} map[string]string "Вход через Яндекс не настроен"
// @Router /api/auth/yandex/login [get]
func (h *AuthHandler) YandexLogin(w http.ResponseWriter, r *http.Request) {
	if !h.authService.YandexEnabled() {
		mapServiceErrorToHTTP(w, r, services.ErrAuthProviderDisabled)
		return
	}

	state, err := utils.GenerateRandomToken(16)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	authURL, err := h.authService.YandexLoginURL(state)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth/yandex",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, authURL, http.StatusFound)
}

// YandexCallback завершает OAuth и отправляет пользователя в личный кабинет.
// @Summary Callback Яндекс ID
// @Tags auth
// @Param code query string true "Код авторизации"
// @Param state query string true "State из cookie"
// @Success 302 "Редирект в личный кабинет"
// @Failure 400 {object} map[string]string "Неверный state"
// @Failure 409 {object} map[string]string "Email занят аккаунтом с паролем"
// @Router /api/auth/yandex/callback [get]
func (h *AuthHandler) YandexCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		mapServiceErrorToHTTP(w, r, services.ErrAuthInvalidState)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/api/auth/yandex", MaxAge: -1})

	user, err := h.authService.YandexCallback(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	h.setTokenCookie(w, token, int(services.DefaultTokenTTL/time.Second))
	http.Redirect(w, r, h.publicURL+"/profile", http.StatusFound)
}
