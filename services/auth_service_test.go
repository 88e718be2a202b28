package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Dosada05/kmo-registration/models"
	"github.com/Dosada05/kmo-registration/repositories"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

func setupAuthService(t *testing.T) (AuthService, *repositories.MemoryStore) {
	t.Helper()
	store := repositories.NewMemoryStore()
	return NewAuthService(store.Users(), store.Profiles(), nil, discardLogger()), store
}

func TestSignUpAndSignIn(t *testing.T) {
	svc, _ := setupAuthService(t)
	ctx := context.Background()

	user, err := svc.SignUp(ctx, models.Credentials{Email: " Student@Example.com ", Password: "secret1"})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if user.Email != "student@example.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if user.PasswordHash != "" {
		t.Error("password hash must not leak")
	}
	if user.Role != models.RoleParticipant {
		t.Errorf("expected participant role, got %q", user.Role)
	}

	if _, err := svc.SignUp(ctx, models.Credentials{Email: "student@example.com", Password: "another1"}); !errors.Is(err, ErrUserEmailConflict) {
		t.Errorf("expected ErrUserEmailConflict, got %v", err)
	}

	signedIn, err := svc.SignIn(ctx, models.Credentials{Email: "student@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if signedIn.ID != user.ID {
		t.Error("expected same user")
	}

	if _, err := svc.SignIn(ctx, models.Credentials{Email: "student@example.com", Password: "wrong"}); !errors.Is(err, ErrAuthInvalidCredentials) {
		t.Errorf("expected ErrAuthInvalidCredentials, got %v", err)
	}
	if _, err := svc.SignIn(ctx, models.Credentials{Email: "nobody@example.com", Password: "secret1"}); !errors.Is(err, ErrAuthInvalidCredentials) {
		t.Errorf("expected ErrAuthInvalidCredentials, got %v", err)
	}
}

func TestSignUpValidation(t *testing.T) {
	svc, _ := setupAuthService(t)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, models.Credentials{Password: "secret1"}); !errors.Is(err, ErrEmailRequired) {
		t.Errorf("expected ErrEmailRequired, got %v", err)
	}
	if _, err := svc.SignUp(ctx, models.Credentials{Email: "bad", Password: "secret1"}); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("expected ErrValidationFailed, got %v", err)
	}
	if _, err := svc.SignUp(ctx, models.Credentials{Email: "a@example.com", Password: "123"}); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestDemoSignIn(t *testing.T) {
	svc, store := setupAuthService(t)
	ctx := context.Background()

	first, err := svc.DemoSignIn(ctx)
	if err != nil {
		t.Fatalf("DemoSignIn failed: %v", err)
	}
	if first.Email != DemoEmail {
		t.Errorf("expected demo email, got %q", first.Email)
	}

	second, err := svc.DemoSignIn(ctx)
	if err != nil {
		t.Fatalf("second DemoSignIn failed: %v", err)
	}
	if second.ID != first.ID {
		t.Error("expected demo sign in to reuse the account")
	}

	stored, err := store.Users().GetByEmail(ctx, DemoEmail)
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if stored.PasswordHash == "" {
		t.Error("expected stored password hash")
	}
}

func TestYandexDisabled(t *testing.T) {
	svc, _ := setupAuthService(t)
	if svc.YandexEnabled() {
		t.Fatal("expected yandex to be disabled")
	}
	if _, err := svc.YandexLoginURL("state"); !errors.Is(err, ErrAuthProviderDisabled) {
		t.Errorf("expected ErrAuthProviderDisabled, got %v", err)
	}
	if _, err := svc.YandexCallback(context.Background(), "code"); !errors.Is(err, ErrAuthProviderDisabled) {
		t.Errorf("expected ErrAuthProviderDisabled, got %v", err)
	}
}

func TestYandexLoginURL(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewAuthService(store.Users(), store.Profiles(), &YandexConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/api/auth/yandex/callback",
	}, discardLogger())

	raw, err := svc.YandexLoginURL("xyz")
	if err != nil {
		t.Fatalf("YandexLoginURL failed: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid url: %v", err)
	}
	if !strings.Contains(u.Host, "yandex") {
		t.Errorf("expected yandex host, got %q", u.Host)
	}
	q := u.Query()
	if q.Get("state") != "xyz" || q.Get("client_id") != "client" {
		t.Errorf("unexpected query: %v", q)
	}
}

func TestYandexCallbackCreatesAndLinksUsers(t *testing.T) {
	var infoBody atomic.Value
	infoBody.Store(`{"id":"42","login":"ivanov","default_email":"Ivanov@yandex.ru","first_name":"Иван","last_name":"Иванов"}`)
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"yandex-token","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "OAuth yandex-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(infoBody.Load().(string)))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := repositories.NewMemoryStore()
	svc := &authService{
		userRepo:    store.Users(),
		profileRepo: store.Profiles(),
		oauth: &oauth2.Config{
			ClientID:     "client",
			ClientSecret: "secret",
			Endpoint:     oauth2.Endpoint{AuthURL: srv.URL + "/authorize", TokenURL: srv.URL + "/token"},
		},
		infoURL: srv.URL + "/info",
		logger:  discardLogger(),
	}
	ctx := context.Background()

	user, err := svc.YandexCallback(ctx, "code")
	if err != nil {
		t.Fatalf("YandexCallback failed: %v", err)
	}
	if user.Email != "ivanov@yandex.ru" || user.YandexID == nil || *user.YandexID != "42" {
		t.Errorf("unexpected user: %+v", user)
	}

	profile, err := store.Profiles().GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("expected prefilled profile: %v", err)
	}
	if profile.FirstName != "Иван" || profile.LastName != "Иванов" {
		t.Errorf("unexpected profile: %+v", profile)
	}

	again, err := svc.YandexCallback(ctx, "code")
	if err != nil {
		t.Fatalf("second YandexCallback failed: %v", err)
	}
	if again.ID != user.ID {
		t.Error("expected the same user on repeated login")
	}

	if _, err := svc.YandexCallback(ctx, ""); !errors.Is(err, ErrAuthInvalidState) {
		t.Errorf("expected ErrAuthInvalidState for empty code, got %v", err)
	}

	t.Run("password account with same email is not linked", func(t *testing.T) {
		owner, err := NewAuthService(store.Users(), store.Profiles(), nil, discardLogger()).
			SignUp(ctx, models.Credentials{Email: "petrov@yandex.ru", Password: "someone1"})
		if err != nil {
			t.Fatalf("SignUp failed: %v", err)
		}
		infoBody.Store(`{"id":"77","login":"petrov","default_email":"petrov@yandex.ru"}`)

		if _, err := svc.YandexCallback(ctx, "code"); !errors.Is(err, ErrYandexLinkConflict) {
			t.Fatalf("expected ErrYandexLinkConflict, got %v", err)
		}
		stored, err := store.Users().GetByID(ctx, owner.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if stored.YandexID != nil {
			t.Errorf("yandex id must not be attached, got %q", *stored.YandexID)
		}
		if _, err := store.Users().GetByYandexID(ctx, "77"); !errors.Is(err, repositories.ErrUserNotFound) {
			t.Errorf("expected no user for yandex id 77, got %v", err)
		}
	})

	t.Run("passwordless account with same email is linked", func(t *testing.T) {
		existing := &models.User{Email: "sidorov@yandex.ru", Role: models.RoleParticipant}
		if err := store.Users().Create(ctx, existing); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		infoBody.Store(`{"id":"88","login":"sidorov","default_email":"sidorov@yandex.ru"}`)

		user, err := svc.YandexCallback(ctx, "code")
		if err != nil {
			t.Fatalf("YandexCallback failed: %v", err)
		}
		if user.ID != existing.ID {
			t.Errorf("expected link to existing user %s, got %s", existing.ID, user.ID)
		}
	})
}

func TestTokenManager(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	user := &models.User{ID: uuid.New(), Role: models.RoleAdmin}

	token, err := tm.Issue(user)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != models.RoleAdmin {
		t.Errorf("unexpected claims: %+v", claims)
	}

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("other-secret", time.Hour)
		if _, err := other.Parse(token); !errors.Is(err, ErrAuthInvalidToken) {
			t.Errorf("expected ErrAuthInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		old := NewTokenManager("test-secret", time.Hour)
		old.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		expired, err := old.Issue(user)
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
		if _, err := tm.Parse(expired); !errors.Is(err, ErrAuthInvalidToken) {
			t.Errorf("expected ErrAuthInvalidToken, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := tm.Parse("not-a-jwt"); !errors.Is(err, ErrAuthInvalidToken) {
			t.Errorf("expected ErrAuthInvalidToken, got %v", err)
		}
	})
}
