package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Dosada05/kmo-registration/services"
)

const webhookPath = "/api/webhooks/tournament-registration"

type webhookRelayer interface {
	Relay(ctx context.Context, body map[string]any) error
}

type WebhookHandler struct {
	relay webhookRelayer
}

func NewWebhookHandler(relay webhookRelayer) *WebhookHandler {
	return &WebhookHandler{relay: relay}
}

func webhookFailure(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "Webhook error", slog.Any("error", err))
	resp := jsonResponse{
		"error":   "Failed to send webhook",
		"details": err.Error(),
	}
	if werr := writeJSON(w, http.StatusInternalServerError, resp, nil); werr != nil {
		serverErrorResponse(w, r, werr)
	}
}

// decodeWebhookBody читает произвольный JSON. Объект возвращается как есть,
// любое другое значение кроме null считается пустым объектом.
func decodeWebhookBody(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1_048_576))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("body must only contain a single JSON value")
	}

	switch v := raw.(type) {
	case map[string]any:
		return v, nil
	case nil:
		return nil, errors.New("request body must not be null")
	default:
		return map[string]any{}, nil
	}
}

// RelayRegistration godoc
// @Summary Переслать регистрацию на турнир в n8n
// @Tags webhooks
// @Accept json
// @Produce json
// @Param input body map[string]interface{} true "user_id, full_name, school, class, tournament_id, registration_date"
// @Success 200 {object} map[string]interface{} "success, message"
// @Failure 400 {object} map[string]string "Missing required field"
// @Failure 500 {object} map[string]string "Failed to send webhook"
// @Router /api/webhooks/tournament-registration [post]
func (h *WebhookHandler) RelayRegistration(w http.ResponseWriter, r *http.Request) {
	body, err := decodeWebhookBody(w, r)
	if err != nil {
		webhookFailure(w, r, err)
		return
	}

	if err := h.relay.Relay(r.Context(), body); err != nil {
		if mf, ok := services.IsMissingField(err); ok {
			badRequestResponse(w, r, mf)
			return
		}
		webhookFailure(w, r, err)
		return
	}

	resp := jsonResponse{"success": true, "message": "Webhook sent successfully"}
	if err := writeJSON(w, http.StatusOK, resp, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Documentation godoc
// @Summary Описание вебхука регистрации
// @Tags webhooks
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/webhooks/tournament-registration [get]
func (h *WebhookHandler) Documentation(w http.ResponseWriter, r *http.Request) {
	doc := jsonResponse{
		"endpoint":        webhookPath,
		"method":          http.MethodPost,
		"description":     "Webhook для отправки данных о регистрации на турнир в n8n",
		"required_fields": services.RequiredWebhookFields,
		"example_payload": jsonResponse{
			"user_id":           "uuid-string",
			"full_name":         "Иванов Иван Иванович",
			"school":            "МБОУ СОШ №1",
			"class":             10,
			"tournament_id":     "uuid-string",
			"registration_date": "2024-01-15T10:30:00Z",
		},
		"environment_variables": []string{
			"N8N_WEBHOOK_URL - URL вебхука n8n",
			"N8N_WEBHOOK_TOKEN - Токен авторизации (опционально)",
		},
	}
	if err := writeJSON(w, http.StatusOK, doc, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
