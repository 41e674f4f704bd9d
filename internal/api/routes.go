package api

import (
	"net/http"
	"time"

	"trackify/api/internal/domain"
	"trackify/api/internal/metrics"
	"trackify/api/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Services groups the business services the routes dispatch to.
type Services struct {
	Auth      service.AuthService
	Admin     service.AdminService
	Trainers  service.TrainerService
	Reviews   service.ReviewService
	Exercises service.ExerciseService
	Contact   service.ContactService
}

// RouterConfig holds the HTTP concerns that are not part of any service.
type RouterConfig struct {
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
	Production  bool
	CORSOrigins []string
}

// NewRouter builds the gin engine with the global middleware and every route.
func NewRouter(cfg RouterConfig, svc Services) *gin.Engine {
	useJSONFieldNames()

	router := gin.New()
	router.Use(RequestLogger(cfg.Logger, cfg.Metrics))
	router.Use(Recovery(cfg.Logger, cfg.Production))
	if mw := CORS(cfg.CORSOrigins, cfg.Production); mw != nil {
		router.Use(mw)
	}
	router.Use(ErrorHandler(cfg.Logger, cfg.Production))

	router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	SetupRoutes(router, svc)
	return router
}

// CORS allows the SPA origins. Without configured origins every origin is allowed
// outside production and CORS stays off in production.
func CORS(origins []string, production bool) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	switch {
	case len(origins) == 1 && origins[0] == "*":
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	case len(origins) > 0:
		corsConfig.AllowOrigins = origins
	case !production:
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	default:
		return nil
	}
	return cors.New(corsConfig)
}

func SetupRoutes(router *gin.Engine, svc Services) {
	authHandler := NewAuthHandler(svc.Auth, svc.Admin)
	trainerHandler := NewTrainerHandler(svc.Trainers)
	reviewHandler := NewReviewHandler(svc.Reviews)
	exerciseHandler := NewExerciseHandler(svc.Exercises)
	adminHandler := NewAdminHandler(svc.Admin, svc.Contact)

	protect := Protect(svc.Auth)
	optionalAuth := OptionalAuth(svc.Auth)
	adminOnly := RestrictTo(domain.RoleAdmin)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")

	authGroup := apiV1.Group("/auth")
	{
		authGroup.POST("/signup", authHandler.Signup)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/forgot-password", authHandler.ForgotPassword)
		authGroup.POST("/reset-password/:token", authHandler.ResetPassword)
		authGroup.GET("/verify-reset-token/:token", authHandler.VerifyResetToken)

		authGroup.GET("/me", protect, authHandler.Me)
		authGroup.PUT("/update-profile", protect, authHandler.UpdateProfile)
		authGroup.PUT("/change-password", protect, authHandler.ChangePassword)
		authGroup.POST("/logout", protect, authHandler.Logout)
		authGroup.POST("/create-admin", protect, adminOnly, RequirePermission(domain.PermManageAdmins), authHandler.CreateAdmin)
	}

	trainerGroup := apiV1.Group("/trainers")
	{
		manageTrainers := []gin.HandlerFunc{protect, adminOnly, RequirePermission(domain.PermManageTrainers)}

		trainerGroup.GET("/:id", trainerHandler.GetTrainer)
		trainerGroup.POST("", append(manageTrainers, trainerHandler.CreateTrainer)...)
		trainerGroup.PUT("/:id", append(manageTrainers, trainerHandler.UpdateTrainer)...)
		trainerGroup.POST("/:id/image-upload-url", append(manageTrainers, trainerHandler.CreateImageUploadURL)...)
		trainerGroup.PUT("/:id/image", append(manageTrainers, trainerHandler.ConfirmImage)...)
	}

	reviewGroup := apiV1.Group("/reviews")
	{
		reviewGroup.GET("/trainer/:trainerId", optionalAuth, reviewHandler.ListTrainerReviews)
		reviewGroup.POST("", protect, reviewHandler.CreateReview)
		reviewGroup.PUT("/:id", protect, reviewHandler.UpdateReview)
		reviewGroup.DELETE("/:id", protect, reviewHandler.DeleteReview)
	}

	exerciseGroup := apiV1.Group("/exercises")
	{
		manageExercises := []gin.HandlerFunc{protect, adminOnly, RequirePermission(domain.PermManageExercises)}

		exerciseGroup.GET("", exerciseHandler.ListExercises)
		exerciseGroup.GET("/:id", exerciseHandler.GetExercise)
		exerciseGroup.POST("", append(manageExercises, exerciseHandler.CreateExercise)...)
		exerciseGroup.PUT("/:id", append(manageExercises, exerciseHandler.UpdateExercise)...)
		exerciseGroup.DELETE("/:id", append(manageExercises, exerciseHandler.DeleteExercise)...)
	}

	apiV1.POST("/contact", adminHandler.SubmitContact)
	apiV1.GET("/contact", protect, adminOnly, RequirePermission(domain.PermManageUsers), adminHandler.ListContacts)

	adminGroup := apiV1.Group("/admin")
	adminGroup.Use(protect, adminOnly)
	{
		adminGroup.PUT("/users/:id/status", RequirePermission(domain.PermManageUsers), adminHandler.SetUserStatus)
		adminGroup.GET("/stats", RequirePermission(domain.PermViewAnalytics), adminHandler.Stats)
	}
}
