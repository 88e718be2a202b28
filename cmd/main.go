package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/kmo-registration/config"
	"github.com/Dosada05/kmo-registration/db"
	"github.com/Dosada05/kmo-registration/handlers"
	"github.com/Dosada05/kmo-registration/live"
	"github.com/Dosada05/kmo-registration/logging"
	"github.com/Dosada05/kmo-registration/repositories"
	api "github.com/Dosada05/kmo-registration/routes"
	"github.com/Dosada05/kmo-registration/services"
	"github.com/Dosada05/kmo-registration/storage"
	"github.com/Dosada05/kmo-registration/utils"
	"github.com/go-chi/chi/v5"
)

type repositorySet struct {
	users         repositories.UserRepository
	profiles      repositories.ProfileRepository
	tournaments   repositories.TournamentRepository
	registrations repositories.RegistrationRepository
	results       repositories.ResultRepository
}

// @title KMO Registration API
// @version 1.0
// @description Регистрация участников на турниры КМО и пересылка событий в n8n.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.Bool("demo", cfg.DemoMode()))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var repos repositorySet
	if cfg.DemoMode() {
		// Без базы данных работаем на памяти с демо-турнирами.
		store := repositories.NewMemoryStore()
		if err := services.SeedDemoData(ctx, store, time.Now()); err != nil {
			logger.Error("failed to seed demo data", slog.Any("error", err))
			os.Exit(1)
		}
		repos = repositorySet{
			users:         store.Users(),
			profiles:      store.Profiles(),
			tournaments:   store.Tournaments(),
			registrations: store.Registrations(),
			results:       store.Results(),
		}
		if cfg.JWTSecretKey == "" {
			cfg.JWTSecretKey, err = utils.GenerateRandomToken(32)
			if err != nil {
				logger.Error("failed to generate demo JWT secret", slog.Any("error", err))
				os.Exit(1)
			}
		}
		logger.Warn("DATABASE_URL is not set, running in demo mode with in-memory storage")
	} else {
		// Подключение к базе данных
		dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			logger.Error("failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := dbConn.Close(); err != nil {
				logger.Error("failed to close database connection", slog.Any("error", err))
			} else {
				logger.Info("database connection closed")
			}
		}()
		logger.Info("database connection established")

		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			logger.Error("failed to apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("migrations applied")

		repos = repositorySet{
			users:         repositories.NewPostgresUserRepository(dbConn),
			profiles:      repositories.NewPostgresProfileRepository(dbConn),
			tournaments:   repositories.NewPostgresTournamentRepository(dbConn),
			registrations: repositories.NewPostgresRegistrationRepository(dbConn),
			results:       repositories.NewPostgresResultRepository(dbConn),
		}
	}
	logger.Info("Repositories initialized")

	// Инициализация загрузчика файлов (Cloudflare R2)
	var uploader storage.FileUploader
	if cfg.R2Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 is not configured, avatar uploads are disabled")
	}

	// Инициализация WebSocket Hub
	hub := live.NewHub(logger)
	go hub.Run(ctx)
	logger.Info("WebSocket Hub started")

	relay := services.NewWebhookRelay(services.WebhookRelayConfig{
		URL:     cfg.WebhookURL,
		Token:   cfg.WebhookToken,
		Timeout: cfg.WebhookTimeout,
	}, logger)

	notifiers := []services.RegistrationNotifier{services.NewWebhookNotifier(relay), hub}
	if cfg.TelegramEnabled() {
		tg, err := services.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			// Бот не обязателен: регистрация работает и без него.
			logger.Error("failed to initialize Telegram notifier", slog.Any("error", err))
		} else {
			notifiers = append(notifiers, tg)
			logger.Info("Telegram notifier initialized")
		}
	}
	if cfg.SMTPEnabled() {
		notifiers = append(notifiers, services.NewEmailService(services.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		}, cfg.PublicURL))
		logger.Info("SMTP notifier initialized")
	}

	var yandexCfg *services.YandexConfig
	if cfg.YandexEnabled() {
		yandexCfg = &services.YandexConfig{
			ClientID:     cfg.YandexClientID,
			ClientSecret: cfg.YandexClientSecret,
			RedirectURL:  cfg.YandexRedirectURL,
		}
	}

	// Инициализация сервисов
	tokenManager := services.NewTokenManager(cfg.JWTSecretKey, services.DefaultTokenTTL)
	authService := services.NewAuthService(repos.users, repos.profiles, yandexCfg, logger)
	profileService := services.NewProfileService(repos.profiles, uploader, logger)
	tournamentService := services.NewTournamentService(repos.tournaments, repos.results, repos.registrations, logger)
	registrationService := services.NewRegistrationService(repos.registrations, repos.tournaments, repos.profiles, logger, notifiers...)
	logger.Info("Services initialized", slog.Int("notifiers", len(notifiers)))

	// Инициализация обработчиков HTTP
	h := api.Handlers{
		Health:     handlers.NewHealthHandler(cfg.DemoMode()),
		Auth:       handlers.NewAuthHandler(authService, tokenManager, cfg.PublicURL),
		Profile:    handlers.NewProfileHandler(profileService, registrationService),
		Tournament: handlers.NewTournamentHandler(tournamentService, registrationService, cfg.DemoMode()),
		Admin:      handlers.NewAdminHandler(tournamentService),
		Webhook:    handlers.NewWebhookHandler(relay),
		WebSocket:  handlers.NewWebSocketHandler(hub, cfg.CORSAllowedOrigins),
	}
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, h, tokenManager, cfg.CORSAllowedOrigins)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 70 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			stop()
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}
	stop()
	logger.Info("application exited")
}
