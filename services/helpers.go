package services

import (
	"fmt"
	"strings"

	"github.com/Dosada05/kmo-registration/models"
	"github.com/Dosada05/kmo-registration/storage"
)

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func populateAvatarURL(p *models.Profile, uploader storage.FileUploader) {
	if p == nil || p.AvatarKey == nil || *p.AvatarKey == "" || uploader == nil {
		return
	}
	if url := uploader.GetPublicURL(*p.AvatarKey); url != "" {
		p.AvatarURL = &url
	}
}

// topParticipants - первые три результата турнира, имя в формате "Имя Фамилия".
func topParticipants(results []models.TournamentResult) []models.TopParticipant {
	top := make([]models.TopParticipant, 0, 3)
	for _, r := range results {
		if len(top) == 3 {
			break
		}
		top = append(top, models.TopParticipant{
			Name:  strings.TrimSpace(r.FirstName + " " + r.LastName),
			Place: r.Place,
			Score: r.Score,
		})
	}
	return top
}

// GetExtensionFromContentType возвращает расширение файла для поддерживаемых изображений.
func GetExtensionFromContentType(contentType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		return "", fmt.Errorf("%w: '%s'", ErrUnsupportedFileType, contentType)
	}
}
