package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/kuis-go-api/internal/models"
)

// ErrDuplicateResult indicates a result already exists for the same
// (quiz, student) pair. InsertIfAbsent returns it both when the row was there
// before the call and when a concurrent insert won the race.
var ErrDuplicateResult = errors.New("result already exists for this quiz and student")

// ResultRepository defines data operations for attempt results. Results are
// append-only; there is deliberately no update or delete.
type ResultRepository interface {
	InsertIfAbsent(ctx context.Context, result *models.Result) error
	GetByQuizAndStudent(ctx context.Context, quizID, studentID uint) (models.Result, error)
	ListByQuiz(ctx context.Context, quizID uint) ([]models.Result, error)
	ListByClass(ctx context.Context, classID uint) ([]models.Result, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Result, error)
}

type resultRepository struct {
	db *gorm.DB
}

// NewResultRepository instantiates the repository.
func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

// InsertIfAbsent atomically creates the result unless one already exists for
// the (quiz_id, student_id) pair. The ON CONFLICT DO NOTHING clause rides on
// the compound unique index, so two concurrent submissions can never both
// succeed regardless of how many process instances are running.
func (r *resultRepository) InsertIfAbsent(ctx context.Context, result *models.Result) error {
	tx := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "quiz_id"}, {Name: "student_id"}},
			DoNothing: true,
		}).
		Create(result)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return ErrDuplicateResult
	}

	return nil
}

func (r *resultRepository) GetByQuizAndStudent(ctx context.Context, quizID, studentID uint) (models.Result, error) {
	var result models.Result
	if err := r.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Where("student_id = ?", studentID).
		First(&result).Error; err != nil {
		return models.Result{}, err
	}

	return result, nil
}

func (r *resultRepository) ListByQuiz(ctx context.Context, quizID uint) ([]models.Result, error) {
	var results []models.Result
	if err := r.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("percentage DESC, time_taken_seconds ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

func (r *resultRepository) ListByClass(ctx context.Context, classID uint) ([]models.Result, error) {
	var results []models.Result
	if err := r.db.WithContext(ctx).
		Joins("JOIN quizzes ON quizzes.id = results.quiz_id").
		Where("quizzes.class_id = ?", classID).
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

func (r *resultRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Result, error) {
	var results []models.Result
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("submitted_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}
