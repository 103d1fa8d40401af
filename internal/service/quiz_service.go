package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/kuis-go-api/internal/dto"
	"github.com/noah-isme/kuis-go-api/internal/models"
	"github.com/noah-isme/kuis-go-api/internal/repository"
	"github.com/noah-isme/kuis-go-api/pkg/ai"
)

// ErrQuizNotFound indicates a quiz could not be found.
var ErrQuizNotFound = errors.New("quiz not found")

// ErrQuizInactive indicates the quiz exists but is no longer attemptable.
var ErrQuizInactive = errors.New("quiz is not active")

// ErrGenerationFailed indicates the AI generator returned nothing usable.
// Callers should retry the whole request; the core performs no retry loop.
var ErrGenerationFailed = errors.New("question generation failed")

// placeholderExplanation backfills explanations the generator omitted so that
// every wrong option always carries one.
const placeholderExplanation = "This option is incorrect. Review the related lecture material."

// QuizService owns the quiz generation pipeline and quiz reads.
type QuizService interface {
	Generate(ctx context.Context, payload dto.QuizGenerateRequest) (dto.QuizResponse, error)
	Get(ctx context.Context, id uint) (dto.QuizResponse, error)
	ListByClass(ctx context.Context, classID uint) ([]dto.QuizResponse, error)
	Deactivate(ctx context.Context, id uint) error
}

type quizService struct {
	quizzes   repository.QuizRepository
	generator ai.QuestionGenerator
	exams     ExamService
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewQuizService constructs a QuizService instance.
func NewQuizService(quizzes repository.QuizRepository, generator ai.QuestionGenerator, exams ExamService, validate *validator.Validate, logger zerolog.Logger) QuizService {
	return &quizService{
		quizzes:   quizzes,
		generator: generator,
		exams:     exams,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "quiz_service").Logger(),
		now:       time.Now,
	}
}

// Generate runs the full pipeline: sanitize lecture text, ask the generator,
// trim over-production to the requested count, backfill missing explanations,
// persist. Trimming is the single automatic repair; anything else surfaces
// ErrGenerationFailed for the caller to retry.
func (s *quizService) Generate(ctx context.Context, payload dto.QuizGenerateRequest) (dto.QuizResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuizResponse{}, err
	}

	lecture := s.sanitizer.Sanitize(payload.LectureText)

	generated, err := s.generator.Generate(ctx, ai.GenerationInput{
		Title:           payload.Title,
		Topic:           payload.Topic,
		LectureText:     lecture,
		QuestionCount:   payload.QuestionCount,
		DurationMinutes: payload.DurationMinutes,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("title", payload.Title).Msg("question generation failed")
		return dto.QuizResponse{}, ErrGenerationFailed
	}

	if len(generated) == 0 {
		s.logger.Error().Str("title", payload.Title).Msg("generator returned no questions")
		return dto.QuizResponse{}, ErrGenerationFailed
	}

	if len(generated) > payload.QuestionCount {
		s.logger.Warn().
			Int("requested", payload.QuestionCount).
			Int("returned", len(generated)).
			Msg("generator over-produced, trimming")
		generated = generated[:payload.QuestionCount]
	}

	questions := make([]models.Question, 0, len(generated))
	for _, item := range generated {
		questions = append(questions, normalizeQuestion(item))
	}

	quiz := models.Quiz{
		ClassID:         payload.ClassID,
		Title:           payload.Title,
		Topic:           payload.Topic,
		DurationMinutes: payload.DurationMinutes,
		IsActive:        true,
		IsExamMode:      payload.IsExamMode,
	}

	if payload.IsExamMode {
		quiz.ExamStatus = models.ExamStatusScheduled
		quiz.ExamDurationMinutes = payload.ExamDurationMinutes
		if quiz.ExamDurationMinutes == 0 {
			quiz.ExamDurationMinutes = payload.DurationMinutes
		}
	}

	if err := quiz.SetQuestions(questions); err != nil {
		return dto.QuizResponse{}, err
	}

	if err := s.quizzes.Create(ctx, &quiz); err != nil {
		return dto.QuizResponse{}, err
	}

	s.logger.Info().
		Uint("quiz_id", quiz.ID).
		Int("total_questions", quiz.TotalQuestions).
		Bool("exam_mode", quiz.IsExamMode).
		Msg("quiz generated")

	return dto.NewQuizResponse(quiz, false)
}

// normalizeQuestion converts a generated question into the stored form,
// guaranteeing an explanation for every non-correct option.
func normalizeQuestion(item ai.GeneratedQuestion) models.Question {
	explanations := make(map[string]string, len(models.OptionKeys))
	for _, key := range models.OptionKeys {
		if key == item.CorrectAnswer {
			continue
		}
		explanation := item.Explanations[key]
		if explanation == "" {
			explanation = placeholderExplanation
		}
		explanations[key] = explanation
	}

	correctExplanation := item.CorrectExplanation
	if correctExplanation == "" {
		correctExplanation = "This is the correct answer."
	}

	return models.Question{
		Text:               item.Text,
		Options:            item.Options,
		CorrectAnswer:      item.CorrectAnswer,
		Explanations:       explanations,
		CorrectExplanation: correctExplanation,
	}
}

// Get returns a quiz with its questions for a participant about to take it.
// Reading evaluates exam expiry lazily, so a stale active status is corrected
// before it reaches the client.
func (s *quizService) Get(ctx context.Context, id uint) (dto.QuizResponse, error) {
	quiz, err := s.quizzes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizResponse{}, ErrQuizNotFound
		}
		return dto.QuizResponse{}, err
	}

	s.exams.EvaluateStatus(ctx, &quiz)

	return dto.NewQuizResponse(quiz, true)
}

func (s *quizService) ListByClass(ctx context.Context, classID uint) ([]dto.QuizResponse, error) {
	quizzes, err := s.quizzes.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	for i := range quizzes {
		s.exams.EvaluateStatus(ctx, &quizzes[i])
	}

	return dto.NewQuizResponseSlice(quizzes)
}

func (s *quizService) Deactivate(ctx context.Context, id uint) error {
	quiz, err := s.quizzes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuizNotFound
		}
		return err
	}

	quiz.IsActive = false
	if err := s.quizzes.Update(ctx, &quiz); err != nil {
		return err
	}

	s.logger.Info().Uint("quiz_id", quiz.ID).Msg("quiz deactivated")
	return nil
}
