package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prateek-combat/critest/config"
	"github.com/prateek-combat/critest/database"
	_ "github.com/prateek-combat/critest/docs" // Swagger docs - auto-generated
	adminctrl "github.com/prateek-combat/critest/internal/controller/admin"
	candidatectrl "github.com/prateek-combat/critest/internal/controller/candidate"
	"github.com/prateek-combat/critest/internal/logger"
	"github.com/prateek-combat/critest/internal/model"
	"github.com/prateek-combat/critest/internal/repository"
	"github.com/prateek-combat/critest/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Hiring Assessment API
// @version 1.0
// @description API for timed hiring assessments: test authoring, gated candidate attempts, proctoring-violation accounting, and scoring.
// @contact.name API Support
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		// Core application components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
		),

		// Repositories layer
		fx.Provide(
			repository.NewTestRepository,
			repository.NewAttemptRepository,
			repository.NewPublicLinkRepository,
			repository.NewInvitationRepository,
			repository.NewTimeSlotRepository,
			repository.NewProctorEventRepository,
		),

		// Services layer
		fx.Provide(
			service.NewSystemClock,
			service.NewTimezoneResolver,
			service.NewAccessGateService,
			service.NewScoringService,
			service.NewTerminationNotifier,
			service.NewAttemptService,
			service.NewViolationService,
			service.NewAdminService,
		),

		// API controllers layer
		fx.Provide(
			adminctrl.NewAdminController,
			candidatectrl.NewAttemptController,
		),

		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(AutoMigrateDB),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	r := gin.New()

	// Request logging through the global zerolog instance.
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Be more specific in production
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger UI at /swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	adminCtrl *adminctrl.AdminController,
	attemptCtrl *candidatectrl.AttemptController,
) {
	adminAPIGroup := router.Group("/api/v1/admin")
	{
		adminAPIGroup.POST("/tests", adminCtrl.CreateTest)
		adminAPIGroup.GET("/tests/:test_id", adminCtrl.GetTest)
		adminAPIGroup.POST("/tests/:test_id/links", adminCtrl.CreatePublicLink)
		adminAPIGroup.POST("/tests/:test_id/invitations", adminCtrl.CreateInvitation)
		adminAPIGroup.GET("/tests/:test_id/attempts", adminCtrl.GetTestAttempts)
		adminAPIGroup.POST("/time-slots", adminCtrl.CreateTimeSlot)
	}

	candidateAPIGroup := router.Group("/api/v1")
	{
		candidateAPIGroup.POST("/attempts", attemptCtrl.StartAttempt)
		candidateAPIGroup.GET("/attempts/:attempt_id", attemptCtrl.GetAttempt)
		candidateAPIGroup.POST("/attempts/:attempt_id/answers", attemptCtrl.FinalizeAttempt)
		candidateAPIGroup.POST("/attempts/:attempt_id/proctor-events", attemptCtrl.RecordProctorEvents)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Assessment API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.Test{},
		&model.Question{},
		&model.TimeSlot{},
		&model.PublicLink{},
		&model.Invitation{},
		&model.Attempt{},
		&model.SubmittedAnswer{},
		&model.ProctorEvent{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
