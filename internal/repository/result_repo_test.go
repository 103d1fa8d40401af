package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/kuis-go-api/internal/models"
)

func setupTestDB(t *testing.T, migrations ...interface{}) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(migrations...))
	return db
}

func seedQuiz(t *testing.T, db *gorm.DB, quiz models.Quiz) models.Quiz {
	t.Helper()
	require.NoError(t, db.Create(&quiz).Error)
	return quiz
}

func TestResultRepositoryInsertIfAbsent(t *testing.T) {
	db := setupTestDB(t, &models.Quiz{}, &models.Result{})
	repo := NewResultRepository(db)
	ctx := context.Background()

	quiz := seedQuiz(t, db, models.Quiz{Title: "Pop quiz", DurationMinutes: 10, IsActive: true})

	first := models.Result{
		QuizID:           quiz.ID,
		StudentID:        7,
		Score:            4,
		TotalQuestions:   5,
		Percentage:       80,
		TimeTakenSeconds: 120,
		SubmittedAt:      time.Now(),
		SubmissionType:   models.SubmissionTypeManual,
	}
	require.NoError(t, repo.InsertIfAbsent(ctx, &first))
	require.NotZero(t, first.ID)

	// A second insert for the same pair rides the unique index and loses.
	second := models.Result{
		QuizID:           quiz.ID,
		StudentID:        7,
		Score:            5,
		TotalQuestions:   5,
		Percentage:       100,
		TimeTakenSeconds: 60,
		SubmittedAt:      time.Now(),
		SubmissionType:   models.SubmissionTypeManual,
	}
	require.ErrorIs(t, repo.InsertIfAbsent(ctx, &second), ErrDuplicateResult)

	stored, err := repo.GetByQuizAndStudent(ctx, quiz.ID, 7)
	require.NoError(t, err)
	require.Equal(t, 4, stored.Score, "the losing insert must not overwrite the winner")

	// Other students and other quizzes are unaffected by the index.
	other := models.Result{QuizID: quiz.ID, StudentID: 8, TotalQuestions: 5, SubmittedAt: time.Now(), SubmissionType: models.SubmissionTypeManual}
	require.NoError(t, repo.InsertIfAbsent(ctx, &other))
}

func TestResultRepositoryGetByQuizAndStudentNotFound(t *testing.T) {
	db := setupTestDB(t, &models.Quiz{}, &models.Result{})
	repo := NewResultRepository(db)

	_, err := repo.GetByQuizAndStudent(context.Background(), 1, 1)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestResultRepositoryListByQuizOrdersForLeaderboard(t *testing.T) {
	db := setupTestDB(t, &models.Quiz{}, &models.Result{})
	repo := NewResultRepository(db)
	ctx := context.Background()

	quiz := seedQuiz(t, db, models.Quiz{Title: "Pop quiz", DurationMinutes: 10, IsActive: true})

	rows := []models.Result{
		{QuizID: quiz.ID, StudentID: 1, Percentage: 80, TimeTakenSeconds: 100, TotalQuestions: 5, SubmittedAt: time.Now(), SubmissionType: models.SubmissionTypeManual},
		{QuizID: quiz.ID, StudentID: 2, Percentage: 100, TimeTakenSeconds: 200, TotalQuestions: 5, SubmittedAt: time.Now(), SubmissionType: models.SubmissionTypeManual},
		{QuizID: quiz.ID, StudentID: 3, Percentage: 100, TimeTakenSeconds: 90, TotalQuestions: 5, SubmittedAt: time.Now(), SubmissionType: models.SubmissionTypeManual},
	}
	for i := range rows {
		require.NoError(t, repo.InsertIfAbsent(ctx, &rows[i]))
	}

	listed, err := repo.ListByQuiz(ctx, quiz.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	require.Equal(t, uint(3), listed[0].StudentID, "ties broken by faster time")
	require.Equal(t, uint(2), listed[1].StudentID)
	require.Equal(t, uint(1), listed[2].StudentID)
}

func TestResultRepositoryListByClassJoinsQuizzes(t *testing.T) {
	db := setupTestDB(t, &models.Quiz{}, &models.Result{})
	repo := NewResultRepository(db)
	ctx := context.Background()

	classID := uint(3)
	inClass := seedQuiz(t, db, models.Quiz{ClassID: &classID, Title: "Class quiz", DurationMinutes: 10, IsActive: true})
	outside := seedQuiz(t, db, models.Quiz{Title: "Open quiz", DurationMinutes: 10, IsActive: true})

	require.NoError(t, repo.InsertIfAbsent(ctx, &models.Result{QuizID: inClass.ID, StudentID: 1, TotalQuestions: 5, SubmittedAt: time.Now(), SubmissionType: models.SubmissionTypeManual}))
	require.NoError(t, repo.InsertIfAbsent(ctx, &models.Result{QuizID: outside.ID, StudentID: 1, TotalQuestions: 5, SubmittedAt: time.Now(), SubmissionType: models.SubmissionTypeManual}))

	listed, err := repo.ListByClass(ctx, classID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, inClass.ID, listed[0].QuizID)
}

func TestResultRepositoryAnswerDetailsRoundTrip(t *testing.T) {
	db := setupTestDB(t, &models.Quiz{}, &models.Result{})
	repo := NewResultRepository(db)
	ctx := context.Background()

	quiz := seedQuiz(t, db, models.Quiz{Title: "Pop quiz", DurationMinutes: 10, IsActive: true})

	result := models.Result{QuizID: quiz.ID, StudentID: 7, TotalQuestions: 1, SubmittedAt: time.Now(), SubmissionType: models.SubmissionTypeManual}
	require.NoError(t, result.SetAnswerDetails([]models.AnswerDetail{
		{QuestionIndex: 0, SelectedOption: "B", CorrectAnswer: "A", IsCorrect: false, Explanation: "wrong"},
	}))
	require.NoError(t, repo.InsertIfAbsent(ctx, &result))

	stored, err := repo.GetByQuizAndStudent(ctx, quiz.ID, 7)
	require.NoError(t, err)

	details, err := stored.AnswerDetails()
	require.NoError(t, err)
	require.Len(t, details, 1)
	require.Equal(t, "B", details[0].SelectedOption)
	require.False(t, details[0].IsCorrect)
}
