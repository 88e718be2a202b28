package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/kmo-registration/models"
	"github.com/Dosada05/kmo-registration/repositories"
	"github.com/Dosada05/kmo-registration/storage"
	"github.com/Dosada05/kmo-registration/utils"
	"github.com/google/uuid"
)

const birthDateLayout = "2006-01-02"

type ProfileService interface {
	// Get возвращает анкету пользователя; если анкеты ещё нет, возвращается пустая с его ID.
	Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	Save(ctx context.Context, userID uuid.UUID, input ProfileInput) (*models.Profile, error)
	UploadAvatar(ctx context.Context, userID uuid.UUID, file io.Reader, contentType string) (*models.Profile, error)
}

// ProfileInput - редактируемые поля анкеты.
type ProfileInput struct {
	LastName         string `json:"last_name"`
	FirstName        string `json:"first_name"`
	MiddleName       string `json:"middle_name"`
	BirthDate        string `json:"birth_date"`
	City             string `json:"city"`
	School           string `json:"school"`
	ClassNumber      *int   `json:"class_number"`
	ParentName       string `json:"parent_name"`
	TeacherName      string `json:"teacher_name"`
	TutorName        string `json:"tutor_name"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	TelegramUsername string `json:"telegram_username"`
}

type profileService struct {
	profileRepo repositories.ProfileRepository
	uploader    storage.FileUploader
	logger      *slog.Logger
	now         func() time.Time
}

// NewProfileService: uploader может быть nil, тогда загрузка аватаров отключена.
func NewProfileService(profileRepo repositories.ProfileRepository, uploader storage.FileUploader, logger *slog.Logger) ProfileService {
	return &profileService{
		profileRepo: profileRepo,
		uploader:    uploader,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *profileService) Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return &models.Profile{ID: userID}, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	populateAvatarURL(profile, s.uploader)
	return profile, nil
}

func (s *profileService) Save(ctx context.Context, userID uuid.UUID, input ProfileInput) (*models.Profile, error) {
	if err := validateProfileInput(input); err != nil {
		return nil, err
	}

	profile := &models.Profile{
		ID:               userID,
		LastName:         strings.TrimSpace(input.LastName),
		FirstName:        strings.TrimSpace(input.FirstName),
		MiddleName:       strings.TrimSpace(input.MiddleName),
		BirthDate:        strings.TrimSpace(input.BirthDate),
		City:             strings.TrimSpace(input.City),
		School:           strings.TrimSpace(input.School),
		ClassNumber:      input.ClassNumber,
		ParentName:       strings.TrimSpace(input.ParentName),
		TeacherName:      strings.TrimSpace(input.TeacherName),
		TutorName:        strings.TrimSpace(input.TutorName),
		Phone:            strings.TrimSpace(input.Phone),
		Email:            strings.TrimSpace(input.Email),
		TelegramUsername: strings.TrimPrefix(strings.TrimSpace(input.TelegramUsername), "@"),
		UpdatedAt:        s.now(),
	}

	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		if errors.Is(err, repositories.ErrProfileUserInvalid) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	populateAvatarURL(profile, s.uploader)
	return profile, nil
}

func validateProfileInput(input ProfileInput) error {
	if input.ClassNumber != nil {
		if *input.ClassNumber < models.MinClassNumber || *input.ClassNumber > models.MaxClassNumber {
			return ErrInvalidClassNumber
		}
	}
	if bd := strings.TrimSpace(input.BirthDate); bd != "" {
		if _, err := time.Parse(birthDateLayout, bd); err != nil {
			return ErrInvalidBirthDate
		}
	}
	if email := strings.TrimSpace(input.Email); email != "" && !utils.IsValidEmail(email) {
		return fmt.Errorf("%w: invalid email format", ErrValidationFailed)
	}
	return nil
}

func (s *profileService) UploadAvatar(ctx context.Context, userID uuid.UUID, file io.Reader, contentType string) (*models.Profile, error) {
	if s.uploader == nil {
		return nil, ErrStorageNotConfigured
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	key := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.NewString(), ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			return nil, ErrStorageNotConfigured
		}
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	oldKey := derefString(profile.AvatarKey)
	if err := s.profileRepo.UpdateAvatarKey(ctx, userID, &key); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to delete orphaned avatar", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, fmt.Errorf("failed to save avatar key: %w", err)
	}

	if oldKey != "" {
		if err := s.uploader.Delete(ctx, oldKey); err != nil {
			s.logger.Warn("failed to delete previous avatar", slog.String("key", oldKey), slog.Any("error", err))
		}
	}

	profile.AvatarKey = &key
	profile.AvatarURL = nil
	populateAvatarURL(profile, s.uploader)
	return profile, nil
}
