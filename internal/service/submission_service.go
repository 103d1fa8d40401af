package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/kuis-go-api/internal/dto"
	"github.com/noah-isme/kuis-go-api/internal/models"
	"github.com/noah-isme/kuis-go-api/internal/observability"
	"github.com/noah-isme/kuis-go-api/internal/repository"
	"github.com/noah-isme/kuis-go-api/internal/scoring"
)

// ErrNotEnrolled indicates the student is not actively enrolled in the class
// the quiz belongs to.
var ErrNotEnrolled = errors.New("student is not enrolled in this class")

// ErrDuplicateSubmission indicates a result already exists for this student
// and quiz, including the case where a concurrent submission won the race.
var ErrDuplicateSubmission = errors.New("quiz has already been submitted")

// ErrResultNotFound indicates the student has no result for the quiz.
var ErrResultNotFound = errors.New("result not found")

// SubmissionService is the single gate through which attempts become results.
type SubmissionService interface {
	Submit(ctx context.Context, quizID, studentID uint, payload dto.SubmissionRequest) (dto.ResultResponse, error)
	GetOwnResult(ctx context.Context, quizID, studentID uint) (dto.ResultResponse, error)
}

type submissionService struct {
	quizzes     repository.QuizRepository
	results     repository.ResultRepository
	enrollments repository.EnrollmentRepository
	exams       ExamService
	validator   *validator.Validate
	graceWindow time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance. graceWindow is
// the tolerance after an exam's nominal end during which in-flight submissions
// are still honored, absorbing client/server clock skew.
func NewSubmissionService(
	quizzes repository.QuizRepository,
	results repository.ResultRepository,
	enrollments repository.EnrollmentRepository,
	exams ExamService,
	validate *validator.Validate,
	graceWindow time.Duration,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		quizzes:     quizzes,
		results:     results,
		enrollments: enrollments,
		exams:       exams,
		validator:   validate,
		graceWindow: graceWindow,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

// Submit validates the attempt, scores it, and persists exactly one immutable
// result. Preconditions run in order, each failing fast with its own error:
// quiz exists and is active, the exam window (or grace window) is open, the
// student is enrolled, and no result exists yet. The duplicate pre-check is
// advisory only; the real guarantee is the atomic insert over the storage
// unique index.
func (s *submissionService) Submit(ctx context.Context, quizID, studentID uint, payload dto.SubmissionRequest) (dto.ResultResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ResultResponse{}, err
	}

	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ResultResponse{}, ErrQuizNotFound
		}
		return dto.ResultResponse{}, err
	}

	if !quiz.IsActive {
		return dto.ResultResponse{}, ErrQuizInactive
	}

	if quiz.IsExamMode {
		if err := s.checkExamWindow(ctx, &quiz); err != nil {
			return dto.ResultResponse{}, err
		}
	}

	if quiz.ClassID != nil {
		enrolled, err := s.enrollments.IsEnrolled(ctx, studentID, *quiz.ClassID)
		if err != nil {
			return dto.ResultResponse{}, err
		}
		if !enrolled {
			return dto.ResultResponse{}, ErrNotEnrolled
		}
	}

	// Advisory pre-check for a friendly error before the atomic insert.
	if _, err := s.results.GetByQuizAndStudent(ctx, quizID, studentID); err == nil {
		return dto.ResultResponse{}, ErrDuplicateSubmission
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ResultResponse{}, err
	}

	questions, err := quiz.QuestionList()
	if err != nil {
		return dto.ResultResponse{}, err
	}

	answers := make([]scoring.SubmittedAnswer, 0, len(payload.Answers))
	for _, answer := range payload.Answers {
		answers = append(answers, scoring.SubmittedAnswer{
			QuestionIndex:  answer.QuestionIndex,
			SelectedOption: answer.SelectedOption,
		})
	}

	outcome := scoring.Score(questions, answers)

	result := models.Result{
		QuizID:           quizID,
		StudentID:        studentID,
		Score:            outcome.Score,
		TotalQuestions:   quiz.TotalQuestions,
		Percentage:       outcome.Percentage,
		TimeTakenSeconds: payload.TimeTakenSeconds,
		SubmittedAt:      s.now(),
		SubmissionType:   classifySubmission(quiz, payload.AntiCheat),
		ViolationCount:   payload.AntiCheat.ViolationCount,
		WasAutoSubmitted: payload.AntiCheat.WasAutoSubmitted,
		SecurityStatus:   payload.AntiCheat.SecurityStatus,
	}

	if err := result.SetAnswerDetails(outcome.Details); err != nil {
		return dto.ResultResponse{}, err
	}

	if err := s.results.InsertIfAbsent(ctx, &result); err != nil {
		if errors.Is(err, repository.ErrDuplicateResult) {
			observability.Submissions().WithLabelValues("duplicate").Inc()
			return dto.ResultResponse{}, ErrDuplicateSubmission
		}
		observability.Submissions().WithLabelValues("error").Inc()
		return dto.ResultResponse{}, err
	}

	observability.Submissions().WithLabelValues("accepted").Inc()
	s.logger.Info().
		Uint("quiz_id", quizID).
		Uint("student_id", studentID).
		Int("score", outcome.Score).
		Float64("percentage", outcome.Percentage).
		Str("submission_type", result.SubmissionType).
		Msg("submission accepted")

	return dto.NewResultResponse(result)
}

// checkExamWindow enforces the shared time window. A submission arriving
// shortly after the window closed is still honored when it falls inside the
// grace window, even though EvaluateStatus has already flipped the stored
// status to ended.
func (s *submissionService) checkExamWindow(ctx context.Context, quiz *models.Quiz) error {
	status := s.exams.EvaluateStatus(ctx, quiz)
	if status.CanAttempt {
		return nil
	}

	if status.Status == models.ExamStatusScheduled {
		return ErrExamNotStarted
	}

	if quiz.ExamEndTime != nil && !s.now().After(quiz.ExamEndTime.Add(s.graceWindow)) {
		s.logger.Info().
			Uint("quiz_id", quiz.ID).
			Dur("grace_window", s.graceWindow).
			Msg("submission accepted within grace window")
		return nil
	}

	return ErrExamEnded
}

// classifySubmission derives the submission type from the exam context and
// the client's auto-submit telemetry. Classification is descriptive only and
// never affects the score.
func classifySubmission(quiz models.Quiz, antiCheat dto.AntiCheatPayload) string {
	if !antiCheat.WasAutoSubmitted {
		return models.SubmissionTypeManual
	}
	if quiz.IsExamMode {
		return models.SubmissionTypeAutoExamTimer
	}
	return models.SubmissionTypeAutoQuizTimer
}

func (s *submissionService) GetOwnResult(ctx context.Context, quizID, studentID uint) (dto.ResultResponse, error) {
	result, err := s.results.GetByQuizAndStudent(ctx, quizID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ResultResponse{}, ErrResultNotFound
		}
		return dto.ResultResponse{}, err
	}

	return dto.NewResultResponse(result)
}
