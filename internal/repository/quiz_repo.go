package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/kuis-go-api/internal/models"
)

// QuizRepository defines data operations for quizzes.
type QuizRepository interface {
	GetByID(ctx context.Context, id uint) (models.Quiz, error)
	ListByClass(ctx context.Context, classID uint) ([]models.Quiz, error)
	Create(ctx context.Context, quiz *models.Quiz) error
	Update(ctx context.Context, quiz *models.Quiz) error
	UpdateExamState(ctx context.Context, quiz *models.Quiz) error
}

type quizRepository struct {
	db *gorm.DB
}

// NewQuizRepository instantiates the repository.
func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) GetByID(ctx context.Context, id uint) (models.Quiz, error) {
	var quiz models.Quiz
	if err := r.db.WithContext(ctx).First(&quiz, id).Error; err != nil {
		return models.Quiz{}, err
	}

	return quiz, nil
}

func (r *quizRepository) ListByClass(ctx context.Context, classID uint) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	if err := r.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("created_at DESC").
		Find(&quizzes).Error; err != nil {
		return nil, err
	}

	return quizzes, nil
}

func (r *quizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	return r.db.WithContext(ctx).Create(quiz).Error
}

func (r *quizRepository) Update(ctx context.Context, quiz *models.Quiz) error {
	return r.db.WithContext(ctx).Save(quiz).Error
}

// UpdateExamState persists only the exam lifecycle columns. The question
// document is immutable after generation, so lifecycle transitions must not
// rewrite the whole row.
func (r *quizRepository) UpdateExamState(ctx context.Context, quiz *models.Quiz) error {
	return r.db.WithContext(ctx).
		Model(&models.Quiz{}).
		Where("id = ?", quiz.ID).
		Updates(map[string]interface{}{
			"exam_status":     quiz.ExamStatus,
			"exam_start_time": quiz.ExamStartTime,
			"exam_end_time":   quiz.ExamEndTime,
		}).Error
}
