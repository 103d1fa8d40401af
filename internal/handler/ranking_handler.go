package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/kuis-go-api/internal/service"
	"github.com/noah-isme/kuis-go-api/internal/utils"
)

// RankingHandler serves class and per-quiz leaderboards. Leaderboards are
// recomputed on every request, so the handler is a thin pass-through.
type RankingHandler struct {
	service service.RankingService
	logger  zerolog.Logger
}

// NewRankingHandler builds a ranking handler instance.
func NewRankingHandler(service service.RankingService, logger zerolog.Logger) *RankingHandler {
	return &RankingHandler{
		service: service,
		logger:  logger.With().Str("component", "ranking_handler").Logger(),
	}
}

// RegisterQuizRoutes attaches the per-quiz leaderboard route.
func (h *RankingHandler) RegisterQuizRoutes(router fiber.Router) {
	router.Get("/:id/rankings", h.quizRankings)
}

// RegisterClassRoutes attaches the class leaderboard route.
func (h *RankingHandler) RegisterClassRoutes(router fiber.Router) {
	router.Get("/:id/rankings", h.classRankings)
}

func (h *RankingHandler) quizRankings(c *fiber.Ctx) error {
	quizID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	topN, err := parseQueryInt(c, "top")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid top parameter")
	}

	rankings, err := h.service.QuizRankings(c.UserContext(), quizID, topN, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "quiz rankings retrieved", rankings)
}

func (h *RankingHandler) classRankings(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	rankings, err := h.service.ClassRankings(c.UserContext(), classID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "class rankings retrieved", rankings)
}

func (h *RankingHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrQuizNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "quiz not found")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
