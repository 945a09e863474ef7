package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"booking-service/internal/app"
	"booking-service/internal/booking"
	"booking-service/internal/calendar"
	"booking-service/internal/config"
	"booking-service/internal/logger"
	"booking-service/internal/mail"
	"booking-service/internal/server"
	"booking-service/internal/verify"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zapLog, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zapLog.Sync()

	tokenStore := calendar.NewTokenStore(cfg.Google.TokenFile, cfg.Google.TokensJSON)
	googleAuth := calendar.NewAuth(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL, tokenStore)

	var codeStore verify.Store
	switch cfg.Verify.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			zapLog.Fatal("redis unavailable", zap.Error(err))
		}
		codeStore = verify.NewRedisStore(client)
	default:
		codeStore = verify.NewMemoryStore()
	}

	var ledger booking.Ledger
	switch cfg.Ledger.Backend {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Ledger.DatabaseURL)
		if err != nil {
			zapLog.Fatal("postgres unavailable", zap.Error(err))
		}
		defer pool.Close()
		ledger = booking.NewPostgresLedger(pool)
	default:
		ledger = booking.NewMemoryLedger()
	}

	svc := app.NewService(app.ServiceParams{
		Calendar:          calendar.NewGoogleCalendar(googleAuth),
		GoogleAuth:        googleAuth,
		Mailer:            mail.NewGmailMailer(googleAuth, cfg.Owner.Name, cfg.Owner.Email),
		Verifier:          verify.NewVerifier(codeStore),
		Ledger:            ledger,
		Policy:            cfg.Policy,
		Hours:             cfg.Hours,
		OwnerName:         cfg.Owner.Name,
		OwnerEmail:        cfg.Owner.Email,
		FrontendURL:       cfg.Frontend.URL,
		DisposableDomains: cfg.Email.DisposableDomains,
		PersonalDomains:   cfg.Email.PersonalDomains,
		Log:               zapLog,
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinMiddleware(zapLog))
	router.Use(app.CORSMiddleware(cfg.Frontend.AllowedOrigins))

	router.GET("/", svc.HealthHandler)

	auth := router.Group("/auth")
	{
		auth.GET("/setup", svc.AuthSetupHandler)
		auth.GET("/callback", svc.AuthCallbackHandler)
	}

	api := router.Group("/api")
	{
		api.GET("/config", svc.ConfigHandler)
		api.GET("/available-dates", svc.AvailableDatesHandler)
		api.GET("/availability", svc.AvailabilityHandler)
		api.POST("/check-slot", svc.CheckSlotHandler)
		api.POST("/send-otp", svc.SendOTPHandler)
		api.POST("/verify-otp", svc.VerifyOTPHandler)
		api.POST("/book", svc.BookHandler)
	}

	admin := router.Group("/", app.AdminAuthMiddleware(cfg.Auth.StaticTokens, cfg.Auth.JWTSecret))
	{
		admin.GET("/api/bookings", svc.BookingsHandler)
		admin.GET("/auth/disconnect", svc.AuthDisconnectHandler)
	}

	zapLog.Info("starting",
		zap.Int("port", cfg.Port),
		zap.Bool("calendar_connected", googleAuth.Connected()))

	if err := server.Run(router, cfg.Port); err != nil {
		zapLog.Fatal("server", zap.Error(err))
	}
}
