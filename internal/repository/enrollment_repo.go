package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/kuis-go-api/internal/models"
)

// EnrollmentRepository reads roster data. Enrollment CRUD belongs to the
// external class service; the quiz core only ever asks membership questions.
type EnrollmentRepository interface {
	IsEnrolled(ctx context.Context, studentID, classID uint) (bool, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository instantiates the repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) IsEnrolled(ctx context.Context, studentID, classID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("student_id = ?", studentID).
		Where("class_id = ?", classID).
		Where("is_active = ?", true).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}
