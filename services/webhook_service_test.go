package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validWebhookBody() map[string]any {
	return map[string]any{
		"user_id":           "3b8c1e9e-1c2d-4a4b-9a7e-2f0a1b2c3d4e",
		"full_name":         "Иванов Иван Иванович",
		"school":            "МБОУ СОШ №1",
		"class":             float64(10),
		"tournament_id":     "9f1e2d3c-4b5a-6978-8a9b-0c1d2e3f4a5b",
		"registration_date": "2024-01-15T10:30:00Z",
	}
}

func TestValidateWebhookPayload(t *testing.T) {
	t.Run("complete payload passes", func(t *testing.T) {
		if err := ValidateWebhookPayload(validWebhookBody()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	for _, field := range RequiredWebhookFields {
		t.Run("missing "+field, func(t *testing.T) {
			body := validWebhookBody()
			delete(body, field)

			err := ValidateWebhookPayload(body)
			mf, ok := IsMissingField(err)
			if !ok {
				t.Fatalf("expected MissingFieldError, got %v", err)
			}
			if mf.Field != field {
				t.Errorf("field: expected %q, got %q", field, mf.Field)
			}
			if mf.Error() != "Missing required field: "+field {
				t.Errorf("unexpected message: %q", mf.Error())
			}
		})
	}

	t.Run("falsy values count as missing", func(t *testing.T) {
		cases := map[string]any{
			"full_name": "",
			"class":     float64(0),
			"school":    nil,
			"user_id":   false,
		}
		for field, value := range cases {
			body := validWebhookBody()
			body[field] = value
			mf, ok := IsMissingField(ValidateWebhookPayload(body))
			if !ok || mf.Field != field {
				t.Errorf("%s=%v: expected missing %q, got %v", field, value, field, mf)
			}
		}
	})

	t.Run("decoded numbers", func(t *testing.T) {
		cases := []struct {
			value   json.Number
			missing bool
		}{
			{"0", true},
			{"0.0", true},
			{"10", false},
			{"1e400", false},
		}
		for _, tc := range cases {
			body := validWebhookBody()
			body["class"] = tc.value
			_, missing := IsMissingField(ValidateWebhookPayload(body))
			if missing != tc.missing {
				t.Errorf("class=%s: expected missing=%v, got %v", tc.value, tc.missing, missing)
			}
		}
	})

	t.Run("first missing field in list order wins", func(t *testing.T) {
		body := validWebhookBody()
		delete(body, "registration_date")
		delete(body, "school")

		mf, ok := IsMissingField(ValidateWebhookPayload(body))
		if !ok || mf.Field != "school" {
			t.Errorf("expected school, got %v", mf)
		}
	})
}

func TestWebhookRelaySuccess(t *testing.T) {
	var (
		gotAuth        string
		gotContentType string
		gotBody        map[string]any
	)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode relayed body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	relay := NewWebhookRelay(WebhookRelayConfig{URL: upstream.URL, Token: "secret", Timeout: time.Second}, discardLogger())
	relay.now = func() time.Time { return time.Date(2024, 1, 15, 10, 30, 5, 123_000_000, time.UTC) }

	body := validWebhookBody()
	body["extra"] = "ignored"

	if err := relay.Relay(context.Background(), body); err != nil {
		t.Fatalf("Relay failed: %v", err)
	}

	if gotAuth != "Bearer secret" {
		t.Errorf("authorization: expected 'Bearer secret', got %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("content type: expected application/json, got %q", gotContentType)
	}
	if gotBody["timestamp"] != "2024-01-15T10:30:05.123Z" {
		t.Errorf("timestamp: got %v", gotBody["timestamp"])
	}
	for _, field := range RequiredWebhookFields {
		if gotBody[field] != body[field] {
			t.Errorf("%s: expected %v, got %v", field, body[field], gotBody[field])
		}
	}
	if _, ok := gotBody["extra"]; ok {
		t.Error("unexpected extra field relayed")
	}
	if len(gotBody) != len(RequiredWebhookFields)+1 {
		t.Errorf("expected %d fields, got %d", len(RequiredWebhookFields)+1, len(gotBody))
	}
}

func TestWebhookRelayEmptyTokenStillSendsBearer(t *testing.T) {
	var gotAuth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer upstream.Close()

	relay := NewWebhookRelay(WebhookRelayConfig{URL: upstream.URL, Timeout: time.Second}, discardLogger())
	if err := relay.Relay(context.Background(), validWebhookBody()); err != nil {
		t.Fatalf("Relay failed: %v", err)
	}
	// net/http trims trailing whitespace of header values on the server side.
	if gotAuth != "Bearer" && gotAuth != "Bearer " {
		t.Errorf("authorization: got %q", gotAuth)
	}
}

func TestWebhookRelayUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	relay := NewWebhookRelay(WebhookRelayConfig{URL: upstream.URL, Timeout: time.Second}, discardLogger())
	err := relay.Relay(context.Background(), validWebhookBody())
	if err == nil {
		t.Fatal("expected error for upstream failure")
	}

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamError, got %T: %v", err, err)
	}
	if upErr.StatusCode != http.StatusBadGateway {
		t.Errorf("status: expected 502, got %d", upErr.StatusCode)
	}
	if err.Error() != "n8n webhook failed: Bad Gateway" {
		t.Errorf("message: got %q", err.Error())
	}
}

func TestWebhookRelayDoesNotSendInvalidPayload(t *testing.T) {
	called := false
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer upstream.Close()

	relay := NewWebhookRelay(WebhookRelayConfig{URL: upstream.URL, Timeout: time.Second}, discardLogger())
	body := validWebhookBody()
	delete(body, "class")

	if _, ok := IsMissingField(relay.Relay(context.Background(), body)); !ok {
		t.Fatal("expected MissingFieldError")
	}
	if called {
		t.Error("upstream must not be called for invalid payload")
	}
}
