package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/Dosada05/kmo-registration/models"
	"github.com/Dosada05/kmo-registration/repositories"
	"github.com/Dosada05/kmo-registration/storage"
	"github.com/google/uuid"
)

type fakeUploader struct {
	uploaded map[string]string
	deleted  []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{uploaded: make(map[string]string)}
}

func (u *fakeUploader) Upload(_ context.Context, key, _ string, r io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	u.uploaded[key] = string(data)
	return &storage.UploadResult{Key: key}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func setupProfileService(t *testing.T, uploader storage.FileUploader) (ProfileService, uuid.UUID) {
	t.Helper()
	store := repositories.NewMemoryStore()
	user := &models.User{Email: "student@example.com", Role: models.RoleParticipant}
	if err := store.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return NewProfileService(store.Profiles(), uploader, discardLogger()), user.ID
}

func TestProfileGetReturnsEmptyProfile(t *testing.T) {
	svc, userID := setupProfileService(t, nil)

	p, err := svc.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.ID != userID {
		t.Errorf("expected id %s, got %s", userID, p.ID)
	}
	if p.IsComplete() {
		t.Error("empty profile must not be complete")
	}
}

func TestProfileSave(t *testing.T) {
	svc, userID := setupProfileService(t, nil)
	class := 9

	input := ProfileInput{
		LastName:         " Петрова ",
		FirstName:        "Мария",
		MiddleName:       "Сергеевна",
		BirthDate:        "2010-03-14",
		City:             "Казань",
		School:           "Лицей №131",
		ClassNumber:      &class,
		ParentName:       "Петров Сергей",
		TeacherName:      "Иванова Ольга",
		TelegramUsername: "@masha",
	}

	p, err := svc.Save(context.Background(), userID, input)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if p.LastName != "Петрова" {
		t.Errorf("expected trimmed last name, got %q", p.LastName)
	}
	if p.TelegramUsername != "masha" {
		t.Errorf("expected telegram username without @, got %q", p.TelegramUsername)
	}
	if !p.IsComplete() {
		t.Errorf("expected complete profile, missing %v", p.MissingFields())
	}
	if p.UpdatedAt.IsZero() {
		t.Error("expected updated_at to be set")
	}

	got, err := svc.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.FullName() != "Петрова Мария Сергеевна" {
		t.Errorf("unexpected full name %q", got.FullName())
	}

	t.Run("class out of range", func(t *testing.T) {
		for _, c := range []int{0, 12, -1} {
			bad := input
			bad.ClassNumber = &c
			if _, err := svc.Save(context.Background(), userID, bad); !errors.Is(err, ErrInvalidClassNumber) {
				t.Errorf("class %d: expected ErrInvalidClassNumber, got %v", c, err)
			}
		}
	})

	t.Run("bad birth date", func(t *testing.T) {
		bad := input
		bad.BirthDate = "14.03.2010"
		if _, err := svc.Save(context.Background(), userID, bad); !errors.Is(err, ErrInvalidBirthDate) {
			t.Errorf("expected ErrInvalidBirthDate, got %v", err)
		}
	})

	t.Run("invalid email", func(t *testing.T) {
		for _, email := range []string{"not-an-email", "ivanov@", " @example.com"} {
			bad := input
			bad.Email = email
			if _, err := svc.Save(context.Background(), userID, bad); !errors.Is(err, ErrValidationFailed) {
				t.Errorf("email %q: expected ErrValidationFailed, got %v", email, err)
			}
		}

		ok := input
		ok.Email = " masha@example.com "
		p, err := svc.Save(context.Background(), userID, ok)
		if err != nil {
			t.Fatalf("Save with valid email failed: %v", err)
		}
		if p.Email != "masha@example.com" {
			t.Errorf("expected trimmed email, got %q", p.Email)
		}
	})

	t.Run("optional fields may be empty", func(t *testing.T) {
		partial := ProfileInput{LastName: "Петрова"}
		p, err := svc.Save(context.Background(), userID, partial)
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if p.IsComplete() {
			t.Error("partial profile must not be complete")
		}
	})
}

func TestProfileUploadAvatar(t *testing.T) {
	t.Run("storage not configured", func(t *testing.T) {
		svc, userID := setupProfileService(t, nil)
		_, err := svc.UploadAvatar(context.Background(), userID, strings.NewReader("img"), "image/png")
		if !errors.Is(err, ErrStorageNotConfigured) {
			t.Errorf("expected ErrStorageNotConfigured, got %v", err)
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		svc, userID := setupProfileService(t, newFakeUploader())
		_, err := svc.UploadAvatar(context.Background(), userID, strings.NewReader("%PDF"), "application/pdf")
		if !errors.Is(err, ErrUnsupportedFileType) {
			t.Errorf("expected ErrUnsupportedFileType, got %v", err)
		}
	})

	t.Run("replaces previous avatar", func(t *testing.T) {
		uploader := newFakeUploader()
		svc, userID := setupProfileService(t, uploader)
		if _, err := svc.Save(context.Background(), userID, ProfileInput{LastName: "Петрова"}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		first, err := svc.UploadAvatar(context.Background(), userID, strings.NewReader("one"), "image/png")
		if err != nil {
			t.Fatalf("UploadAvatar failed: %v", err)
		}
		firstKey := *first.AvatarKey
		if !strings.HasPrefix(firstKey, "avatars/"+userID.String()+"/") || !strings.HasSuffix(firstKey, ".png") {
			t.Errorf("unexpected key %q", firstKey)
		}
		if first.AvatarURL == nil || *first.AvatarURL != "https://cdn.example.com/"+firstKey {
			t.Errorf("unexpected avatar url %v", first.AvatarURL)
		}

		second, err := svc.UploadAvatar(context.Background(), userID, strings.NewReader("two"), "image/jpeg")
		if err != nil {
			t.Fatalf("UploadAvatar failed: %v", err)
		}
		if *second.AvatarKey == firstKey {
			t.Error("expected a new key")
		}
		if len(uploader.deleted) != 1 || uploader.deleted[0] != firstKey {
			t.Errorf("expected previous avatar to be deleted, got %v", uploader.deleted)
		}
	})
}

func TestGetExtensionFromContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
		wantErr     bool
	}{
		{"image/jpeg", ".jpg", false},
		{"image/png; charset=binary", ".png", false},
		{"IMAGE/WEBP", ".webp", false},
		{"image/svg+xml", "", true},
		{"text/plain", "", true},
	}
	for _, tt := range tests {
		got, err := GetExtensionFromContentType(tt.contentType)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: unexpected error state %v", tt.contentType, err)
		}
		if got != tt.want {
			t.Errorf("%q: expected %q, got %q", tt.contentType, tt.want, got)
		}
	}
}
