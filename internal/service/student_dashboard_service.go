package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/kuis-go-api/internal/dto"
	"github.com/noah-isme/kuis-go-api/internal/models"
	"github.com/noah-isme/kuis-go-api/internal/repository"
	"github.com/noah-isme/kuis-go-api/internal/scoring"
)

const dashboardRecentLimit = 10

// StudentDashboardService produces a per-student results overview. The
// overview covers only the caller's own attempts and is cached with a TTL;
// leaderboards are never served from this path.
type StudentDashboardService interface {
	GetDashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error)
}

type studentDashboardService struct {
	quizzes  repository.QuizRepository
	results  repository.ResultRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewStudentDashboardService builds the dashboard aggregator.
func NewStudentDashboardService(quizzes repository.QuizRepository, results repository.ResultRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) StudentDashboardService {
	return &studentDashboardService{
		quizzes:  quizzes,
		results:  results,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "student_dashboard_service").Logger(),
		now:      time.Now,
	}
}

func (s *studentDashboardService) GetDashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:student:%d", studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.StudentDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("student_id", studentID).Msg("dashboard cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	results, err := s.results.ListByStudent(ctx, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	response := s.buildResponse(ctx, studentID, results)

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

func (s *studentDashboardService) buildResponse(ctx context.Context, studentID uint, results []models.Result) dto.StudentDashboardResponse {
	response := dto.StudentDashboardResponse{
		StudentID:   studentID,
		GeneratedAt: s.now().UTC(),
		Recent:      []dto.RecentResult{},
	}

	if len(results) == 0 {
		return response
	}

	quizByID := map[uint]models.Quiz{}
	lookup := func(id uint) (models.Quiz, bool) {
		if quiz, ok := quizByID[id]; ok {
			return quiz, quiz.ID != 0
		}
		quiz, err := s.quizzes.GetByID(ctx, id)
		if err != nil {
			quizByID[id] = models.Quiz{}
			return models.Quiz{}, false
		}
		quizByID[id] = quiz
		return quiz, true
	}

	var percentageTotal, efficiencyTotal float64
	for _, result := range results {
		percentageTotal += result.Percentage
		if result.Percentage > response.BestScore {
			response.BestScore = result.Percentage
		}

		allotted := 0
		title := ""
		if quiz, ok := lookup(result.QuizID); ok {
			allotted = quiz.AllottedSeconds()
			title = quiz.Title
		}
		efficiencyTotal += scoring.TimeEfficiency(result.TimeTakenSeconds, allotted)

		if len(response.Recent) < dashboardRecentLimit {
			response.Recent = append(response.Recent, dto.RecentResult{
				QuizID:      result.QuizID,
				QuizTitle:   title,
				Percentage:  result.Percentage,
				Score:       result.Score,
				Total:       result.TotalQuestions,
				SubmittedAt: result.SubmittedAt,
			})
		}
	}

	response.QuizzesAttempted = len(results)
	response.AverageScore = scoring.Round1(percentageTotal / float64(len(results)))
	response.AverageEfficiency = scoring.Round1(efficiencyTotal / float64(len(results)))

	return response
}
