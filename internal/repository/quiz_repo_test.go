package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/kuis-go-api/internal/models"
)

func TestQuizRepositoryQuestionDocumentRoundTrip(t *testing.T) {
	db := setupTestDB(t, &models.Quiz{})
	repo := NewQuizRepository(db)
	ctx := context.Background()

	quiz := models.Quiz{Title: "Pop quiz", DurationMinutes: 10, IsActive: true}
	require.NoError(t, quiz.SetQuestions([]models.Question{
		{
			Text:               "What is 2+2?",
			Options:            map[string]string{"A": "3", "B": "4", "C": "5", "D": "6"},
			CorrectAnswer:      "B",
			Explanations:       map[string]string{"A": "off by one", "C": "off by one", "D": "off by two"},
			CorrectExplanation: "basic arithmetic",
		},
	}))
	require.Equal(t, 1, quiz.TotalQuestions)

	require.NoError(t, repo.Create(ctx, &quiz))

	stored, err := repo.GetByID(ctx, quiz.ID)
	require.NoError(t, err)

	questions, err := stored.QuestionList()
	require.NoError(t, err)
	require.Len(t, questions, 1)
	require.Equal(t, "B", questions[0].CorrectAnswer)
	require.Equal(t, "off by one", questions[0].Explanations["A"])
}

func TestQuizRepositoryUpdateExamStateTouchesOnlyLifecycleColumns(t *testing.T) {
	db := setupTestDB(t, &models.Quiz{})
	repo := NewQuizRepository(db)
	ctx := context.Background()

	quiz := models.Quiz{
		Title:               "Midterm",
		DurationMinutes:     10,
		IsActive:            true,
		IsExamMode:          true,
		ExamStatus:          models.ExamStatusScheduled,
		ExamDurationMinutes: 30,
	}
	require.NoError(t, quiz.SetQuestions([]models.Question{
		{Text: "Q", Options: map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"}, CorrectAnswer: "A"},
	}))
	require.NoError(t, repo.Create(ctx, &quiz))

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	quiz.ExamStatus = models.ExamStatusActive
	quiz.ExamStartTime = &start
	quiz.ExamEndTime = &end
	quiz.Title = "Tampered"
	require.NoError(t, repo.UpdateExamState(ctx, &quiz))

	stored, err := repo.GetByID(ctx, quiz.ID)
	require.NoError(t, err)
	require.Equal(t, models.ExamStatusActive, stored.ExamStatus)
	require.NotNil(t, stored.ExamEndTime)
	require.Equal(t, "Midterm", stored.Title, "lifecycle update must not rewrite other columns")

	questions, err := stored.QuestionList()
	require.NoError(t, err)
	require.Len(t, questions, 1)
}

func TestQuizRepositoryListByClass(t *testing.T) {
	db := setupTestDB(t, &models.Quiz{})
	repo := NewQuizRepository(db)
	ctx := context.Background()

	classID := uint(3)
	first := models.Quiz{ClassID: &classID, Title: "First", DurationMinutes: 10, IsActive: true, CreatedAt: time.Now().Add(-time.Hour)}
	second := models.Quiz{ClassID: &classID, Title: "Second", DurationMinutes: 10, IsActive: true, CreatedAt: time.Now()}
	other := models.Quiz{Title: "Unassigned", DurationMinutes: 10, IsActive: true}
	require.NoError(t, repo.Create(ctx, &first))
	require.NoError(t, repo.Create(ctx, &second))
	require.NoError(t, repo.Create(ctx, &other))

	listed, err := repo.ListByClass(ctx, classID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.Equal(t, "Second", listed[0].Title, "newest quiz first")
}

func TestQuizRepositoryGetByIDNotFound(t *testing.T) {
	db := setupTestDB(t, &models.Quiz{})
	repo := NewQuizRepository(db)

	_, err := repo.GetByID(context.Background(), 404)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestEnrollmentRepositoryIsEnrolled(t *testing.T) {
	db := setupTestDB(t, &models.Class{}, &models.Enrollment{})
	repo := NewEnrollmentRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Enrollment{ClassID: 3, StudentID: 7, IsActive: true}).Error)

	dropped := models.Enrollment{ClassID: 3, StudentID: 8, IsActive: true}
	require.NoError(t, db.Create(&dropped).Error)
	require.NoError(t, db.Model(&dropped).Update("is_active", false).Error)

	enrolled, err := repo.IsEnrolled(ctx, 7, 3)
	require.NoError(t, err)
	require.True(t, enrolled)

	inactive, err := repo.IsEnrolled(ctx, 8, 3)
	require.NoError(t, err)
	require.False(t, inactive, "inactive enrollments do not count")

	unknown, err := repo.IsEnrolled(ctx, 9, 3)
	require.NoError(t, err)
	require.False(t, unknown)
}
