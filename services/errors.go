package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed       = errors.New("validation failed")
	ErrPasswordTooShort       = errors.New("password is too short")
	ErrEmailRequired          = errors.New("email is required")
	ErrInvalidClassNumber     = errors.New("class number must be between 1 and 11")
	ErrInvalidBirthDate       = errors.New("birth date must be in YYYY-MM-DD format")
	ErrProfileIncomplete      = errors.New("profile is incomplete: fill in the required fields before registering")
	ErrRegistrationNotOpen    = errors.New("tournament registration is not open")
	ErrTournamentFull         = errors.New("tournament registration is full")
	ErrTournamentNameRequired = errors.New("tournament name is required")
	ErrTournamentInvalidDates = errors.New("registration deadline must not be after the tournament date")
	ErrTournamentInvalidFmt   = errors.New("tournament format must be online, offline or hybrid")
	ErrTournamentInvalidCap   = errors.New("tournament max participants must be positive")
	ErrInvalidPlace           = errors.New("place must be positive")
	ErrUnsupportedFileType    = errors.New("unsupported avatar file type")

	// Ошибки конфликтов
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrRegistrationConflict = errors.New("user is already registered for this tournament")
	ErrYandexLinkConflict   = errors.New("an account with this email already exists: sign in with your password")

	// Ошибки аутентификации и авторизации
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthInvalidToken       = errors.New("invalid or expired token")
	ErrAuthInvalidState       = errors.New("invalid oauth state")
	ErrAuthProviderDisabled   = errors.New("yandex id login is not configured")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound       = errors.New("user not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrTournamentNotFound = errors.New("tournament not found")

	ErrStorageNotConfigured = errors.New("file storage is not configured")
)
