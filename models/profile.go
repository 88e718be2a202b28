package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MinClassNumber = 1
	MaxClassNumber = 11
)

// Profile - анкета участника. ID совпадает с ID пользователя.
type Profile struct {
	ID               uuid.UUID `json:"id"`
	LastName         string    `json:"last_name"`
	FirstName        string    `json:"first_name"`
	MiddleName       string    `json:"middle_name"`
	BirthDate        string    `json:"birth_date"`
	City             string    `json:"city"`
	School           string    `json:"school"`
	ClassNumber      *int      `json:"class_number"`
	ParentName       string    `json:"parent_name"`
	TeacherName      string    `json:"teacher_name"`
	TutorName        string    `json:"tutor_name"`
	Phone            string    `json:"phone"`
	Email            string    `json:"email"`
	TelegramUsername string    `json:"telegram_username"`
	AvatarKey        *string   `json:"-"`
	AvatarURL        *string   `json:"avatar_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// MissingFields возвращает незаполненные обязательные поля анкеты.
func (p *Profile) MissingFields() []string {
	required := []struct {
		name  string
		value string
	}{
		{"last_name", p.LastName},
		{"first_name", p.FirstName},
		{"middle_name", p.MiddleName},
		{"birth_date", p.BirthDate},
		{"city", p.City},
		{"school", p.School},
		{"parent_name", p.ParentName},
		{"teacher_name", p.TeacherName},
	}

	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if p.ClassNumber == nil || *p.ClassNumber == 0 {
		missing = append(missing, "class_number")
	}
	return missing
}

func (p *Profile) IsComplete() bool {
	return len(p.MissingFields()) == 0
}

// FullName - "Фамилия Имя Отчество".
func (p *Profile) FullName() string {
	return p.LastName + " " + p.FirstName + " " + p.MiddleName
}
