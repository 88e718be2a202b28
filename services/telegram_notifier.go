package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Dosada05/kmo-registration/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const telegramHTTPTimeout = 10 * time.Second

type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier пишет о новых регистрациях в чат организаторов.
type TelegramNotifier struct {
	bot    telegramSender
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: telegramHTTPTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (n *TelegramNotifier) Channel() string { return "telegram" }

// NotifyRegistration не отправляет сообщение по уже отменённому ctx;
// сам запрос к Bot API ограничен telegramHTTPTimeout.
func (n *TelegramNotifier) NotifyRegistration(ctx context.Context, event models.RegistrationEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("telegram notification skipped: %w", err)
	}
	msg := tgbotapi.NewMessage(n.chatID, RegistrationMessageText(event))
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// RegistrationMessageText - текст уведомления для чата организаторов.
func RegistrationMessageText(event models.RegistrationEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Новая регистрация: %s\n", event.Tournament.Name)
	fmt.Fprintf(&b, "Участник: %s\n", event.Profile.FullName())
	class := "?"
	if event.Profile.ClassNumber != nil {
		class = fmt.Sprint(*event.Profile.ClassNumber)
	}
	fmt.Fprintf(&b, "Школа: %s, %s класс\n", event.Profile.School, class)
	if event.Profile.TelegramUsername != "" {
		fmt.Fprintf(&b, "Telegram: @%s\n", event.Profile.TelegramUsername)
	}
	if event.ParticipantCount > 0 {
		fmt.Fprintf(&b, "Всего участников: %d", event.ParticipantCount)
		if event.Tournament.MaxParticipants != nil {
			fmt.Fprintf(&b, " из %d", *event.Tournament.MaxParticipants)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
