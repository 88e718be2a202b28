package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/kmo-registration/metrics"
)

// RequiredWebhookFields - обязательные поля вебхука регистрации, в порядке проверки.
var RequiredWebhookFields = []string{
	"user_id",
	"full_name",
	"school",
	"class",
	"tournament_id",
	"registration_date",
}

// timestampLayout совпадает с форматом Date.toISOString: миллисекунды и "Z".
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// MissingFieldError - в теле вебхука нет обязательного поля (или оно пустое).
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "Missing required field: " + e.Field
}

// UpstreamError - платформа автоматизации ответила не-2xx статусом.
type UpstreamError struct {
	StatusCode int
	StatusText string
}

func (e *UpstreamError) Error() string {
	return "n8n webhook failed: " + e.StatusText
}

type WebhookRelayConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// WebhookRelay пересылает события регистрации в n8n.
type WebhookRelay struct {
	url    string
	token  string
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

func NewWebhookRelay(cfg WebhookRelayConfig, logger *slog.Logger) *WebhookRelay {
	return &WebhookRelay{
		url:    cfg.URL,
		token:  cfg.Token,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
		now:    time.Now,
	}
}

type relayMessage struct {
	UserID           any    `json:"user_id"`
	FullName         any    `json:"full_name"`
	School           any    `json:"school"`
	Class            any    `json:"class"`
	TournamentID     any    `json:"tournament_id"`
	RegistrationDate any    `json:"registration_date"`
	Timestamp        string `json:"timestamp"`
}

// ValidateWebhookPayload возвращает *MissingFieldError для первого отсутствующего поля.
// Пустая строка, 0, false и null считаются отсутствием значения.
func ValidateWebhookPayload(body map[string]any) error {
	for _, field := range RequiredWebhookFields {
		if isBlank(body[field]) {
			return &MissingFieldError{Field: field}
		}
	}
	return nil
}

func isBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	case float64:
		return val == 0 || math.IsNaN(val)
	case int:
		return val == 0
	case json.Number:
		// Переполнение (1e400) в JS даёт Infinity, а это непустое значение.
		f, err := val.Float64()
		return err == nil && f == 0
	}
	return false
}

// Relay проверяет тело и отправляет его в n8n.
func (r *WebhookRelay) Relay(ctx context.Context, body map[string]any) error {
	if err := ValidateWebhookPayload(body); err != nil {
		metrics.WebhookRelays.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return err
	}

	timestamp := r.now().UTC().Format(timestampLayout)
	msg := relayMessage{
		UserID:           body["user_id"],
		FullName:         body["full_name"],
		School:           body["school"],
		Class:            body["class"],
		TournamentID:     body["tournament_id"],
		RegistrationDate: body["registration_date"],
		Timestamp:        timestamp,
	}

	if err := r.send(ctx, msg); err != nil {
		metrics.WebhookRelays.WithLabelValues(metrics.OutcomeUpstream).Inc()
		return err
	}

	metrics.WebhookRelays.WithLabelValues(metrics.OutcomeSuccess).Inc()
	r.logger.Info("tournament registration webhook sent",
		slog.Any("user_id", body["user_id"]),
		slog.Any("tournament_id", body["tournament_id"]),
		slog.String("timestamp", timestamp),
	)
	return nil
}

func (r *WebhookRelay) send(ctx context.Context, msg relayMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.token)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{
			StatusCode: resp.StatusCode,
			StatusText: strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "),
		}
	}
	return nil
}

// IsMissingField сообщает, является ли err ошибкой отсутствующего поля.
func IsMissingField(err error) (*MissingFieldError, bool) {
	var mf *MissingFieldError
	if errors.As(err, &mf) {
		return mf, true
	}
	return nil, false
}
