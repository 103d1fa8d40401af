package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/kuis-go-api/internal/dto"
	"github.com/noah-isme/kuis-go-api/internal/models"
	"github.com/noah-isme/kuis-go-api/internal/observability"
	"github.com/noah-isme/kuis-go-api/internal/repository"
)

// ErrExamNotScheduled indicates a start was attempted on an exam that is not
// in the scheduled state (already started, already ended, or plain quiz).
var ErrExamNotScheduled = errors.New("exam is not in a scheduled state")

// ErrExamNotStarted indicates an attempt on an exam whose window has not
// been opened yet.
var ErrExamNotStarted = errors.New("exam has not started yet")

// ErrExamEnded indicates an attempt on an exam whose window has closed.
var ErrExamEnded = errors.New("exam has ended")

// ExamStatus is the outcome of evaluating a quiz's attemptability at a given
// instant.
type ExamStatus struct {
	Status           string
	CanAttempt       bool
	SecondsRemaining int
	Message          string
}

// ExamService governs the exam session lifecycle. There is no background
// scheduler: every read and write path evaluates expiry itself, so the stored
// exam status is only a cache of a judgment re-derived from timestamps.
type ExamService interface {
	EvaluateStatus(ctx context.Context, quiz *models.Quiz) ExamStatus
	CheckStatus(ctx context.Context, quizID uint) (dto.ExamStatusResponse, error)
	StartExam(ctx context.Context, quizID uint) (dto.StartExamResponse, error)
}

type examService struct {
	quizzes repository.QuizRepository
	logger  zerolog.Logger
	now     func() time.Time
}

// NewExamService constructs the exam lifecycle service.
func NewExamService(quizzes repository.QuizRepository, logger zerolog.Logger) ExamService {
	return &examService{
		quizzes: quizzes,
		logger:  logger.With().Str("component", "exam_service").Logger(),
		now:     time.Now,
	}
}

// EvaluateStatus derives the quiz's current attemptability from timestamps.
// A deactivated quiz is never attemptable, whatever its exam window says.
// When an active exam's window has passed, the stored status is lazily flipped
// to ended before reporting. The flip is idempotent: concurrent readers may
// all perform it with no ill effect.
func (s *examService) EvaluateStatus(ctx context.Context, quiz *models.Quiz) ExamStatus {
	if !quiz.IsActive {
		return ExamStatus{Status: quiz.ExamStatus, CanAttempt: false, Message: "quiz is not active"}
	}

	if !quiz.IsExamMode {
		return ExamStatus{CanAttempt: true, Message: "quiz is open"}
	}

	now := s.now()

	switch quiz.ExamStatus {
	case models.ExamStatusScheduled:
		return ExamStatus{
			Status:  models.ExamStatusScheduled,
			Message: "exam has not started yet",
		}

	case models.ExamStatusActive:
		if quiz.ExamWindowExpired(now) {
			s.expire(ctx, quiz)
			return ExamStatus{
				Status:  models.ExamStatusEnded,
				Message: "exam has ended",
			}
		}

		remaining := 0
		if quiz.ExamEndTime != nil {
			remaining = int(quiz.ExamEndTime.Sub(now).Seconds())
		}

		return ExamStatus{
			Status:           models.ExamStatusActive,
			CanAttempt:       true,
			SecondsRemaining: remaining,
			Message:          "exam is in progress",
		}

	case models.ExamStatusEnded:
		return ExamStatus{
			Status:  models.ExamStatusEnded,
			Message: "exam has ended",
		}

	default:
		return ExamStatus{
			Status:  quiz.ExamStatus,
			Message: "exam is not attemptable",
		}
	}
}

// expire persists the lazy scheduled->ended transition. A persistence failure
// is logged but does not change the verdict: the status will simply be
// re-derived (and re-flipped) on the next read.
func (s *examService) expire(ctx context.Context, quiz *models.Quiz) {
	quiz.ExamStatus = models.ExamStatusEnded
	if err := s.quizzes.UpdateExamState(ctx, quiz); err != nil {
		s.logger.Warn().Err(err).Uint("quiz_id", quiz.ID).Msg("failed to persist exam expiry")
		return
	}

	observability.ExamTransitions().WithLabelValues("expired").Inc()
	s.logger.Info().Uint("quiz_id", quiz.ID).Msg("exam expired lazily")
}

func (s *examService) CheckStatus(ctx context.Context, quizID uint) (dto.ExamStatusResponse, error) {
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamStatusResponse{}, ErrQuizNotFound
		}
		return dto.ExamStatusResponse{}, err
	}

	status := s.EvaluateStatus(ctx, &quiz)

	return dto.ExamStatusResponse{
		QuizID:           quiz.ID,
		IsExamMode:       quiz.IsExamMode,
		ExamStatus:       status.Status,
		CanAttempt:       status.CanAttempt,
		SecondsRemaining: status.SecondsRemaining,
		Message:          status.Message,
	}, nil
}

// StartExam opens the shared exam window. Only legal from the scheduled
// state; starting twice or starting a plain quiz fails.
func (s *examService) StartExam(ctx context.Context, quizID uint) (dto.StartExamResponse, error) {
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StartExamResponse{}, ErrQuizNotFound
		}
		return dto.StartExamResponse{}, err
	}

	if !quiz.IsExamMode || quiz.ExamStatus != models.ExamStatusScheduled {
		return dto.StartExamResponse{}, ErrExamNotScheduled
	}

	start := s.now()
	end := start.Add(time.Duration(quiz.ExamDurationMinutes) * time.Minute)

	quiz.ExamStatus = models.ExamStatusActive
	quiz.ExamStartTime = &start
	quiz.ExamEndTime = &end

	if err := s.quizzes.UpdateExamState(ctx, &quiz); err != nil {
		return dto.StartExamResponse{}, err
	}

	observability.ExamTransitions().WithLabelValues("started").Inc()
	s.logger.Info().
		Uint("quiz_id", quiz.ID).
		Time("exam_end_time", end).
		Msg("exam started")

	return dto.StartExamResponse{
		QuizID:        quiz.ID,
		ExamStatus:    models.ExamStatusActive,
		ExamStartTime: start,
		ExamEndTime:   end,
	}, nil
}
