package routes

import (
	"net/http"
	"time"

	_ "github.com/Dosada05/kmo-registration/docs"
	"github.com/Dosada05/kmo-registration/handlers"
	"github.com/Dosada05/kmo-registration/metrics"
	"github.com/Dosada05/kmo-registration/middleware"
	"github.com/Dosada05/kmo-registration/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Handlers - все HTTP-обработчики приложения.
type Handlers struct {
	Health     *handlers.HealthHandler
	Auth       *handlers.AuthHandler
	Profile    *handlers.ProfileHandler
	Tournament *handlers.TournamentHandler
	Admin      *handlers.AdminHandler
	Webhook    *handlers.WebhookHandler
	WebSocket  *handlers.WebSocketHandler
}

func SetupRoutes(router *chi.Mux, h Handlers, tokens middleware.TokenParser, allowedOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", h.Health.Health)
	router.Method(http.MethodGet, "/metrics", metrics.Handler())
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	router.Route("/api", func(r chi.Router) {
		// Websocket выше не должен попадать под таймаут.
		r.Use(chiMiddleware.Timeout(60 * time.Second))

		r.Get("/home", h.Tournament.Home)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.Auth.SignUp)
			r.Post("/signin", h.Auth.SignIn)
			r.Post("/demo", h.Auth.Demo)
			r.Post("/signout", h.Auth.SignOut)
			r.Get("/yandex/login", h.Auth.YandexLogin)
			r.Get("/yandex/callback", h.Auth.YandexCallback)
		})

		r.Route("/webhooks/tournament-registration", func(r chi.Router) {
			r.Get("/", h.Webhook.Documentation)
			r.Post("/", h.Webhook.RelayRegistration)
		})

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", h.Tournament.ListOpen)
			r.Get("/{tournamentID}", h.Tournament.GetTournament)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate(tokens))
				r.Post("/{tournamentID}/register", h.Tournament.Register)
			})
		})

		r.Route("/profile", func(r chi.Router) {
			r.Use(middleware.Authenticate(tokens))
			r.Get("/", h.Profile.GetProfile)
			r.Put("/", h.Profile.UpdateProfile)
			r.Post("/avatar", h.Profile.UploadAvatar)
			r.Get("/registrations", h.Profile.ListRegistrations)
		})

		r.Route("/admin/tournaments", func(r chi.Router) {
			r.Use(middleware.Authenticate(tokens))
			r.Use(middleware.Authorize(models.RoleAdmin))

			r.Post("/", h.Admin.CreateTournament)
			r.Put("/{tournamentID}", h.Admin.UpdateTournament)
			r.Post("/{tournamentID}/results", h.Admin.RecordResult)
			r.Get("/{tournamentID}/registrations", h.Admin.ListRegistrations)
		})
	})
}
