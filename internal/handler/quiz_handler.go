package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/kuis-go-api/internal/dto"
	"github.com/noah-isme/kuis-go-api/internal/service"
	"github.com/noah-isme/kuis-go-api/internal/utils"
)

// QuizHandler manages quiz generation, reads, and exam lifecycle endpoints.
type QuizHandler struct {
	quizzes service.QuizService
	exams   service.ExamService
	logger  zerolog.Logger
}

// NewQuizHandler builds a quiz handler instance.
func NewQuizHandler(quizzes service.QuizService, exams service.ExamService, logger zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		quizzes: quizzes,
		exams:   exams,
		logger:  logger.With().Str("component", "quiz_handler").Logger(),
	}
}

// Register attaches the quiz routes to the provided router group. Generation
// and exam lifecycle routes go through the instructorOnly guard; quiz reads
// stay open to any authenticated caller.
func (h *QuizHandler) Register(router fiber.Router, instructorOnly fiber.Handler) {
	router.Post("", instructorOnly, h.generate)
	router.Get("/:id", h.get)
	router.Get("/:id/status", h.status)
	router.Post("/:id/start-exam", instructorOnly, h.startExam)
	router.Delete("/:id", instructorOnly, h.deactivate)
}

// RegisterClassRoutes attaches the class-scoped quiz listing route.
func (h *QuizHandler) RegisterClassRoutes(router fiber.Router) {
	router.Get("/:id/quizzes", h.listByClass)
}

func (h *QuizHandler) listByClass(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	quizzes, err := h.quizzes.ListByClass(c.UserContext(), classID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "quizzes retrieved", quizzes)
}

func (h *QuizHandler) generate(c *fiber.Ctx) error {
	var payload dto.QuizGenerateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	quiz, err := h.quizzes.Generate(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "quiz generated", quiz)
}

func (h *QuizHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	quiz, err := h.quizzes.Get(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "quiz retrieved", quiz)
}

func (h *QuizHandler) status(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	status, err := h.exams.CheckStatus(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exam status retrieved", status)
}

func (h *QuizHandler) startExam(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	window, err := h.exams.StartExam(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exam started", window)
}

func (h *QuizHandler) deactivate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.quizzes.Deactivate(c.UserContext(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "quiz deactivated", nil)
}

func (h *QuizHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrQuizNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "quiz not found")
	case errors.Is(err, service.ErrExamNotScheduled):
		return utils.SendError(c, fiber.StatusConflict, "exam is not in a scheduled state")
	case errors.Is(err, service.ErrGenerationFailed):
		return utils.SendError(c, fiber.StatusBadGateway, "question generation failed, please retry")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
