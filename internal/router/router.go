package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/kuis-go-api/internal/config"
	"github.com/noah-isme/kuis-go-api/internal/handler"
	"github.com/noah-isme/kuis-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	QuizHandler             *handler.QuizHandler
	SubmissionHandler       *handler.SubmissionHandler
	RankingHandler          *handler.RankingHandler
	StudentDashboardHandler *handler.StudentDashboardHandler
	JWTMiddleware           fiber.Handler
	InstructorGuard         fiber.Handler
	SubmitRateLimit         fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided middlewares, or no-ops if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	instructorGuard := deps.InstructorGuard
	if instructorGuard == nil {
		instructorGuard = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Quizzes (generation, exam lifecycle, submissions, per-quiz rankings)
	if deps.QuizHandler != nil {
		quizzes := app.Group("/api/v2/quizzes", jwtMiddleware)
		deps.QuizHandler.Register(quizzes, instructorGuard)

		if deps.SubmissionHandler != nil {
			submissionGroup := quizzes
			if deps.SubmitRateLimit != nil {
				submissionGroup = quizzes.Group("", deps.SubmitRateLimit)
			}
			deps.SubmissionHandler.Register(submissionGroup)
		}

		if deps.RankingHandler != nil {
			deps.RankingHandler.RegisterQuizRoutes(quizzes)
		}
	}

	// Classes (quiz listings & class leaderboard)
	classes := app.Group("/api/v2/classes", jwtMiddleware)
	if deps.QuizHandler != nil {
		deps.QuizHandler.RegisterClassRoutes(classes)
	}
	if deps.RankingHandler != nil {
		deps.RankingHandler.RegisterClassRoutes(classes)
	}

	// Student dashboard
	if deps.StudentDashboardHandler != nil {
		student := app.Group("/api/v2/student", jwtMiddleware)
		deps.StudentDashboardHandler.Register(student)
	}
}
