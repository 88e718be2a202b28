package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Dosada05/kmo-registration/models"
	"github.com/Dosada05/kmo-registration/repositories"
	"github.com/Dosada05/kmo-registration/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/yandex"
)

const (
	yandexInfoURL     = "https://login.yandex.ru/info?format=json"
	yandexHTTPTimeout = 10 * time.Second
)

type AuthService interface {
	SignUp(ctx context.Context, input models.Credentials) (*models.User, error)
	SignIn(ctx context.Context, input models.Credentials) (*models.User, error)
	// DemoSignIn входит под демо-аккаунтом, создавая его при первом обращении.
	DemoSignIn(ctx context.Context) (*models.User, error)

	YandexEnabled() bool
	YandexLoginURL(state string) (string, error)
	YandexCallback(ctx context.Context, code string) (*models.User, error)
}

type YandexConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type authService struct {
	userRepo    repositories.UserRepository
	profileRepo repositories.ProfileRepository
	oauth       *oauth2.Config
	infoURL     string
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewAuthService создаёт сервис аутентификации. yandexCfg == nil отключает вход через Яндекс ID.
func NewAuthService(
	userRepo repositories.UserRepository,
	profileRepo repositories.ProfileRepository,
	yandexCfg *YandexConfig,
	logger *slog.Logger,
) AuthService {
	s := &authService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		infoURL:     yandexInfoURL,
		httpClient:  &http.Client{Timeout: yandexHTTPTimeout},
		logger:      logger,
	}
	if yandexCfg != nil {
		s.oauth = &oauth2.Config{
			ClientID:     yandexCfg.ClientID,
			ClientSecret: yandexCfg.ClientSecret,
			RedirectURL:  yandexCfg.RedirectURL,
			Endpoint:     yandex.Endpoint,
			Scopes:       []string{"login:email", "login:info"},
		}
	}
	return s
}

func (s *authService) SignUp(ctx context.Context, input models.Credentials) (*models.User, error) {
	email := utils.NormalizeEmail(input.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if !utils.IsValidEmail(email) {
		return nil, fmt.Errorf("%w: invalid email format", ErrValidationFailed)
	}
	if len(input.Password) < utils.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleParticipant,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrUserEmailConflict
		}
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) SignIn(ctx context.Context, input models.Credentials) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, utils.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	// Пользователи из Яндекс ID не имеют пароля.
	if user.PasswordHash == "" || !utils.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, ErrAuthInvalidCredentials
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) DemoSignIn(ctx context.Context) (*models.User, error) {
	creds := models.Credentials{Email: DemoEmail, Password: DemoPassword}

	user, err := s.SignIn(ctx, creds)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrAuthInvalidCredentials) {
		return nil, err
	}

	user, err = s.SignUp(ctx, creds)
	if err != nil {
		if errors.Is(err, ErrUserEmailConflict) {
			// Аккаунт существует, но пароль отличается от демо-пароля.
			return nil, ErrAuthInvalidCredentials
		}
		return nil, err
	}
	s.logger.Info("demo account created", slog.String("user_id", user.ID.String()))
	return user, nil
}

func (s *authService) YandexEnabled() bool {
	return s.oauth != nil
}

func (s *authService) YandexLoginURL(state string) (string, error) {
	if s.oauth == nil {
		return "", ErrAuthProviderDisabled
	}
	return s.oauth.AuthCodeURL(state), nil
}

type yandexUserInfo struct {
	ID           string `json:"id"`
	Login        string `json:"login"`
	DefaultEmail string `json:"default_email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
}

func (s *authService) YandexCallback(ctx context.Context, code string) (*models.User, error) {
	if s.oauth == nil {
		return nil, ErrAuthProviderDisabled
	}
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", ErrAuthInvalidState)
	}

	if s.httpClient != nil {
		// oauth2 берёт HTTP-клиент для обмена кода и запросов из контекста.
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange yandex code: %w", err)
	}

	info, err := s.fetchYandexInfo(ctx, token)
	if err != nil {
		return nil, err
	}

	return s.findOrCreateYandexUser(ctx, info)
}

func (s *authService) fetchYandexInfo(ctx context.Context, token *oauth2.Token) (*yandexUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.infoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build yandex info request: %w", err)
	}

	// login.yandex.ru ожидает заголовок "Authorization: OAuth <token>".
	tok := *token
	tok.TokenType = "OAuth"

	resp, err := s.oauth.Client(ctx, &tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch yandex user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("yandex user info returned status %d", resp.StatusCode)
	}

	var info yandexUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode yandex user info: %w", err)
	}
	if info.ID == "" {
		return nil, errors.New("yandex user info has no id")
	}
	return &info, nil
}

func (s *authService) findOrCreateYandexUser(ctx context.Context, info *yandexUserInfo) (*models.User, error) {
	user, err := s.userRepo.GetByYandexID(ctx, info.ID)
	if err == nil {
		user.PasswordHash = ""
		return user, nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to find user by yandex id: %w", err)
	}

	email := utils.NormalizeEmail(info.DefaultEmail)
	if email == "" {
		email = strings.ToLower(info.Login) + "@yandex.ru"
	}
	yandexID := info.ID

	// Привязываем Яндекс ID к существующему аккаунту с тем же email.
	// Аккаунт с паролем не привязываем: владение email при регистрации не проверяется.
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		if existing.PasswordHash != "" {
			s.logger.Warn("yandex login matches a password account, not linking",
				slog.String("user_id", existing.ID.String()))
			return nil, ErrYandexLinkConflict
		}
		existing.YandexID = &yandexID
		if err := s.userRepo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to link yandex id: %w", err)
		}
		existing.PasswordHash = ""
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	user = &models.User{
		Email:    email,
		YandexID: &yandexID,
		Role:     models.RoleParticipant,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	// Предзаполняем анкету данными из Яндекса.
	profile := &models.Profile{
		ID:        user.ID,
		FirstName: info.FirstName,
		LastName:  info.LastName,
		Email:     email,
		UpdatedAt: time.Now(),
	}
	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		s.logger.Warn("failed to prefill profile from yandex",
			slog.String("user_id", user.ID.String()), slog.Any("error", err))
	}

	s.logger.Info("user created via yandex id", slog.String("user_id", user.ID.String()))
	return user, nil
}
