package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trackify/api/internal/api"
	"trackify/api/internal/auth"
	"trackify/api/internal/config"
	"trackify/api/internal/logging"
	"trackify/api/internal/mailer"
	"trackify/api/internal/metrics"
	"trackify/api/internal/rating"
	"trackify/api/internal/repository/mongo"
	"trackify/api/internal/service"
	"trackify/api/internal/storage"

	"github.com/gin-gonic/gin"
)

// @title Trackify API
// @version 1.0
// @description API for the Trackify trainer marketplace: accounts, trainers, reviews, and exercises.
// @contact.name API Support
// @contact.email support@trackify.fit
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	log := logging.For("main")
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Server.IsProduction())
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	log = logging.For("main")
	log.Info().Str("env", cfg.Server.Env).Msg("starting Trackify API server")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to MongoDB")
	}
	defer func() {
		log.Info().Msg("disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Error().Err(err).Msg("failed to disconnect MongoDB")
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Info().Str("database", cfg.Database.Name).Msg("database connection established")

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		for collection, err := range mongo.EnsureIndexes(ctx, appDB) {
			log.Error().Err(err).Str("collection", collection).Msg("index creation failed")
		}
		log.Info().Msg("index creation process completed")
	}()

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	adminRepo := mongo.NewMongoAdminRepository(appDB)
	trainerRepo := mongo.NewMongoTrainerRepository(appDB)
	reviewRepo := mongo.NewMongoReviewRepository(appDB)
	exerciseRepo := mongo.NewMongoExerciseRepository(appDB)
	contactRepo := mongo.NewMongoContactRepository(appDB)
	revokedRepo := mongo.NewMongoRevokedTokenRepository(appDB)

	// --- Infrastructure ---
	tokens, err := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.Issuer)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid JWT configuration")
	}
	hasher, err := auth.NewHasher(cfg.Auth.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid bcrypt cost")
	}

	var sender mailer.Sender = mailer.NewLogSender(logging.For("mailer"))
	if cfg.Email.Provider == config.EmailProviderSES {
		sesSender, err := mailer.NewSESSender(context.Background(), cfg.Email.Region, cfg.Email.From)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize SES sender")
		}
		sender = sesSender
	}

	var fileStorage storage.FileStorage
	if cfg.S3.Enabled() {
		fileStorage, err = storage.NewS3Storage(context.Background(), cfg.S3, logging.For("storage"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize S3 storage")
		}
	} else {
		log.Warn().Msg("S3 is not configured, trainer image uploads are disabled")
	}

	m := metrics.New()

	aggregator := rating.NewAggregator(reviewRepo, trainerRepo, cfg.Rating.Workers, m, logging.For("rating"))
	aggregator.Start()

	// --- Initialize Services ---
	authService, err := service.NewAuthService(service.AuthDeps{
		Users:    userRepo,
		Admins:   adminRepo,
		Revoked:  revokedRepo,
		Tokens:   tokens,
		Hasher:   hasher,
		Mailer:   sender,
		Metrics:  m,
		Logger:   logging.For("auth"),
		ResetTTL: cfg.Auth.ResetTokenTTL,
		ResetURL: cfg.Auth.ResetURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize auth service")
	}
	adminService := service.NewAdminService(service.AdminDeps{
		Users:     userRepo,
		Admins:    adminRepo,
		Trainers:  trainerRepo,
		Reviews:   reviewRepo,
		Exercises: exerciseRepo,
		Contacts:  contactRepo,
		Hasher:    hasher,
		Logger:    logging.For("admin"),
	})

	// --- Bootstrap Admin ---
	if cfg.Admin.BootstrapEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		_, created, err := adminService.BootstrapAdmin(ctx, service.CreateAdminInput{
			FirstName: cfg.Admin.BootstrapFirstName,
			LastName:  cfg.Admin.BootstrapLastName,
			Email:     cfg.Admin.BootstrapEmail,
			Password:  cfg.Admin.BootstrapPassword,
		})
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to bootstrap admin")
		}
		if !created {
			log.Info().Msg("admins exist, bootstrap admin skipped")
		}
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		Metrics:     m,
		Production:  cfg.Server.IsProduction(),
		CORSOrigins: cfg.Server.CORSOrigins,
	}, api.Services{
		Auth:      authService,
		Admin:     adminService,
		Trainers:  service.NewTrainerService(trainerRepo, fileStorage, logging.For("trainers")),
		Reviews:   service.NewReviewService(reviewRepo, trainerRepo, aggregator, logging.For("reviews")),
		Exercises: service.NewExerciseService(exerciseRepo),
		Contact:   service.NewContactService(contactRepo, sender, m, cfg.Email.ContactInbox, logging.For("contact")),
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Address).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe error")
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := aggregator.Stop(); err != nil {
		log.Error().Err(err).Msg("rating aggregator stopped with error")
	}

	log.Info().Msg("server exiting")
}
