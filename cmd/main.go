package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"varta/server/internal/appMiddleware"
	"varta/server/internal/config"
	"varta/server/internal/db"
	"varta/server/internal/handlers"
	"varta/server/internal/providers"
	"varta/server/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg.Env)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := db.Migrate(pool); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	emailSender := providers.NewSMTPSender(cfg.SMTP)
	phoneVerifier := providers.NewTwilioVerifier(cfg.Twilio)
	mediaUploader, err := providers.NewCloudinaryUploader(cfg.Cloudinary)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init media host client")
	}

	userService := services.NewUserService(pool)
	chatService := services.NewChatService(pool)
	statusService := services.NewStatusService(pool)

	jwtSecret := []byte(cfg.JWTSecret)
	authHandler := handlers.NewAuthHandler(userService, emailSender, phoneVerifier, mediaUploader, jwtSecret)
	chatHandler := handlers.NewChatHandler(chatService, mediaUploader)
	statusHandler := handlers.NewStatusHandler(statusService, mediaUploader)

	r := chi.NewRouter()

	r.Use(appMiddleware.CorsMiddleware)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Post("/api/auth/sendOtp", authHandler.SendOtp)
	r.Post("/api/auth/verifyOtp", authHandler.VerifyOtp)

	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.AuthMiddleware(jwtSecret))
		r.Use(appMiddleware.PresenceMiddleware(userService))

		r.Put("/api/auth/updateProfile", authHandler.UpdateProfile)
		r.Get("/api/auth/checkAuth", authHandler.CheckAuth)
		r.Get("/api/auth/viewProfile", authHandler.ViewProfile)
		r.Get("/api/auth/logout", authHandler.Logout)
		r.Get("/api/auth/users", authHandler.GetAllUsers)

		r.Post("/api/chat/sendMessage", chatHandler.SendMessage)
		r.Get("/api/chat/conversations/{conversationId}/messages", chatHandler.GetMessages)
		r.Put("/api/chat/messages/read", chatHandler.MarkAsRead)
		r.Delete("/api/chat/messages/{messageIds}", chatHandler.DeleteMessages)

		r.Post("/api/status/createStatus", statusHandler.CreateStatus)
		r.Get("/api/status/getStatuses", statusHandler.GetStatuses)
		r.Post("/api/status/viewStatus/{statusId}", statusHandler.ViewStatus)
		r.Get("/api/status/getStatusViewers/{statusId}", statusHandler.GetStatusViewers)
		r.Delete("/api/status/deleteStatus/{statusId}", statusHandler.DeleteStatus)
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("stopping the server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server shutdown error")
	}
	log.Info().Msg("server has been successfully stopped")
}

func setupLogging(env string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
