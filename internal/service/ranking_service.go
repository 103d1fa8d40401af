package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/kuis-go-api/internal/dto"
	"github.com/noah-isme/kuis-go-api/internal/models"
	"github.com/noah-isme/kuis-go-api/internal/observability"
	"github.com/noah-isme/kuis-go-api/internal/repository"
	"github.com/noah-isme/kuis-go-api/internal/scoring"
)

// defaultTopN caps a per-quiz leaderboard when the caller does not ask for a
// specific window.
const defaultTopN = 10

// RankingService recomputes leaderboards from the full result set on every
// request. No cache, no incremental maintenance: at classroom scale (tens to
// low hundreds of participants) recomputation is cheap and always correct.
// Revisit if classes grow to thousands of results.
type RankingService interface {
	ClassRankings(ctx context.Context, classID uint) ([]dto.ClassRankingEntry, error)
	QuizRankings(ctx context.Context, quizID uint, topN int, callerID uint) (dto.QuizRankingsResponse, error)
}

type rankingService struct {
	quizzes  repository.QuizRepository
	results  repository.ResultRepository
	students repository.StudentRepository
	logger   zerolog.Logger
}

// NewRankingService constructs the leaderboard aggregator.
func NewRankingService(quizzes repository.QuizRepository, results repository.ResultRepository, students repository.StudentRepository, logger zerolog.Logger) RankingService {
	return &rankingService{
		quizzes:  quizzes,
		results:  results,
		students: students,
		logger:   logger.With().Str("component", "ranking_service").Logger(),
	}
}

type studentAccumulator struct {
	studentID       uint
	attempts        int
	percentageTotal float64
	efficiencyTotal float64
}

// ClassRankings builds the participation-weighted class leaderboard. Students
// with zero attempts never appear: they are omitted, not ranked last.
func (s *rankingService) ClassRankings(ctx context.Context, classID uint) ([]dto.ClassRankingEntry, error) {
	tracer := otel.Tracer("github.com/noah-isme/kuis-go-api/internal/service/ranking")
	ctx, span := tracer.Start(ctx, "ranking.class")
	span.SetAttributes(attribute.Int64("class_id", int64(classID)))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.RankingBuild().Observe(time.Since(start).Seconds())
	}()

	quizzes, err := s.quizzes.ListByClass(ctx, classID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_quizzes_failed")
		return nil, err
	}

	results, err := s.results.ListByClass(ctx, classID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_results_failed")
		return nil, err
	}

	quizByID := make(map[uint]models.Quiz, len(quizzes))
	for _, quiz := range quizzes {
		quizByID[quiz.ID] = quiz
	}

	accumulators := map[uint]*studentAccumulator{}
	for _, result := range results {
		acc, ok := accumulators[result.StudentID]
		if !ok {
			acc = &studentAccumulator{studentID: result.StudentID}
			accumulators[result.StudentID] = acc
		}

		// A result whose quiz row is missing contributes zero efficiency
		// rather than failing the whole leaderboard.
		allotted := 0
		if quiz, found := quizByID[result.QuizID]; found {
			allotted = quiz.AllottedSeconds()
		}

		acc.attempts++
		acc.percentageTotal += result.Percentage
		acc.efficiencyTotal += scoring.TimeEfficiency(result.TimeTakenSeconds, allotted)
	}

	totalQuizzes := len(quizzes)
	entries := make([]dto.ClassRankingEntry, 0, len(accumulators))
	for _, acc := range accumulators {
		avgScore := scoring.Round1(acc.percentageTotal / float64(acc.attempts))
		avgEfficiency := scoring.Round1(acc.efficiencyTotal / float64(acc.attempts))
		participation := scoring.ParticipationRate(acc.attempts, totalQuizzes)
		basePoints := scoring.BasePoints(avgScore, avgEfficiency)

		entries = append(entries, dto.ClassRankingEntry{
			StudentID:         acc.studentID,
			QuizzesAttempted:  acc.attempts,
			AverageScore:      avgScore,
			AverageEfficiency: avgEfficiency,
			ParticipationRate: scoring.Round1(participation),
			BasePoints:        basePoints,
			FinalPoints:       scoring.FinalPoints(basePoints, participation),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].FinalPoints != entries[j].FinalPoints {
			return entries[i].FinalPoints > entries[j].FinalPoints
		}
		if entries[i].AverageScore != entries[j].AverageScore {
			return entries[i].AverageScore > entries[j].AverageScore
		}
		return entries[i].StudentID < entries[j].StudentID
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	if err := s.attachClassNames(ctx, entries); err != nil {
		s.logger.Warn().Err(err).Msg("failed to resolve student names for class rankings")
	}

	span.SetAttributes(
		attribute.Int("ranking.quizzes", totalQuizzes),
		attribute.Int("ranking.ranked_students", len(entries)),
	)

	return entries, nil
}

func (s *rankingService) attachClassNames(ctx context.Context, entries []dto.ClassRankingEntry) error {
	ids := make([]uint, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.StudentID)
	}

	students, err := s.students.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}

	names := make(map[uint]string, len(students))
	for _, student := range students {
		names[student.ID] = student.Name
	}

	for i := range entries {
		entries[i].StudentName = names[entries[i].StudentID]
	}

	return nil
}

// QuizRankings builds a per-quiz leaderboard ordered by percentage descending
// then time taken ascending, and locates the caller's own rank even when it
// falls outside the returned window.
func (s *rankingService) QuizRankings(ctx context.Context, quizID uint, topN int, callerID uint) (dto.QuizRankingsResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/kuis-go-api/internal/service/ranking")
	ctx, span := tracer.Start(ctx, "ranking.quiz")
	span.SetAttributes(attribute.Int64("quiz_id", int64(quizID)))
	defer span.End()

	if topN <= 0 {
		topN = defaultTopN
	}

	if _, err := s.quizzes.GetByID(ctx, quizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuizRankingsResponse{}, ErrQuizNotFound
		}
		span.RecordError(err)
		return dto.QuizRankingsResponse{}, err
	}

	results, err := s.results.ListByQuiz(ctx, quizID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_results_failed")
		return dto.QuizRankingsResponse{}, err
	}

	// The repository already orders by percentage/time, but the sort is
	// re-applied here so the ranking does not silently depend on a query
	// detail.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Percentage != results[j].Percentage {
			return results[i].Percentage > results[j].Percentage
		}
		return results[i].TimeTakenSeconds < results[j].TimeTakenSeconds
	})

	response := dto.QuizRankingsResponse{QuizID: quizID, Total: len(results)}
	ids := make([]uint, 0, len(results))

	for i, result := range results {
		entry := dto.QuizRankingEntry{
			Rank:             i + 1,
			StudentID:        result.StudentID,
			Percentage:       result.Percentage,
			TimeTakenSeconds: result.TimeTakenSeconds,
			SubmittedAt:      result.SubmittedAt,
		}

		if i < topN {
			response.Entries = append(response.Entries, entry)
			ids = append(ids, result.StudentID)
		}

		if callerID != 0 && result.StudentID == callerID {
			rank := i + 1
			callerEntry := entry
			response.CallerRank = &rank
			response.CallerResult = &callerEntry

			// The caller may sit below the returned window and still
			// needs a resolved name.
			if i >= topN {
				ids = append(ids, result.StudentID)
			}
		}
	}

	students, err := s.students.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to resolve student names for quiz rankings")
	} else {
		names := make(map[uint]string, len(students))
		for _, student := range students {
			names[student.ID] = student.Name
		}
		for i := range response.Entries {
			response.Entries[i].StudentName = names[response.Entries[i].StudentID]
		}
		if response.CallerResult != nil {
			response.CallerResult.StudentName = names[response.CallerResult.StudentID]
		}
	}

	span.SetAttributes(attribute.Int("ranking.results", len(results)))

	return response, nil
}
