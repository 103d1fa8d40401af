package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/kuis-go-api/internal/config"
	"github.com/noah-isme/kuis-go-api/internal/database"
	"github.com/noah-isme/kuis-go-api/internal/handler"
	"github.com/noah-isme/kuis-go-api/internal/middleware"
	"github.com/noah-isme/kuis-go-api/internal/models"
	"github.com/noah-isme/kuis-go-api/internal/observability"
	"github.com/noah-isme/kuis-go-api/internal/repository"
	"github.com/noah-isme/kuis-go-api/internal/router"
	"github.com/noah-isme/kuis-go-api/internal/service"
	"github.com/noah-isme/kuis-go-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	observability.RegisterMetrics()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Class{},
		&models.Enrollment{},
		&models.Quiz{},
		&models.Result{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	generator, err := ai.NewOpenAIGenerator(ai.OpenAIConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.AIModel,
		Logger: logger,
	})
	if err != nil {
		log.Fatalf("failed to create question generator: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	quizRepo := repository.NewQuizRepository(db)
	resultRepo := repository.NewResultRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	studentRepo := repository.NewStudentRepository(db)

	examService := service.NewExamService(quizRepo, logger)
	quizService := service.NewQuizService(quizRepo, generator, examService, validate, logger)
	submissionService := service.NewSubmissionService(quizRepo, resultRepo, enrollmentRepo, examService, validate, cfg.GraceWindow, logger)
	rankingService := service.NewRankingService(quizRepo, resultRepo, studentRepo, logger)
	dashboardService := service.NewStudentDashboardService(quizRepo, resultRepo, redisClient, cfg.DashboardCacheTTL, logger)

	quizHandler := handler.NewQuizHandler(quizService, examService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	rankingHandler := handler.NewRankingHandler(rankingService, logger)
	studentDashboardHandler := handler.NewStudentDashboardHandler(dashboardService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		QuizHandler:             quizHandler,
		SubmissionHandler:       submissionHandler,
		RankingHandler:          rankingHandler,
		StudentDashboardHandler: studentDashboardHandler,
		JWTMiddleware:           middleware.JWTProtected(cfg.JWTSecret),
		InstructorGuard:         middleware.RequireRole("instructor", "admin"),
		SubmitRateLimit:         middleware.RateLimit("submissions", 5, time.Second),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
