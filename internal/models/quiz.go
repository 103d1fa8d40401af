package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Exam lifecycle states. Transitions only move forward:
// scheduled -> active -> ended.
const (
	ExamStatusScheduled = "scheduled"
	ExamStatusActive    = "active"
	ExamStatusEnded     = "ended"
)

// OptionKeys lists the valid answer option letters in display order.
var OptionKeys = []string{"A", "B", "C", "D"}

// Question is a single multiple-choice question embedded in a quiz. Questions
// are immutable once the quiz has been generated.
type Question struct {
	Text               string            `json:"text"`
	Options            map[string]string `json:"options"`
	CorrectAnswer      string            `json:"correct_answer"`
	Explanations       map[string]string `json:"explanations"`
	CorrectExplanation string            `json:"correct_explanation"`
}

// Quiz represents a generated knowledge check distributed to a class. The
// question list is stored as an embedded JSON document and is never mutated
// after generation; only lifecycle fields change.
type Quiz struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	ClassID             *uint          `gorm:"index" json:"class_id"`
	Title               string         `gorm:"size:255;not null" json:"title"`
	Topic               string         `gorm:"size:255" json:"topic"`
	TotalQuestions      int            `gorm:"not null" json:"total_questions"`
	DurationMinutes     int            `gorm:"not null" json:"duration_minutes"`
	Questions           datatypes.JSON `json:"-"`
	IsActive            bool           `gorm:"not null;default:true" json:"is_active"`
	IsExamMode          bool           `gorm:"not null;default:false" json:"is_exam_mode"`
	ExamStatus          string         `gorm:"size:32" json:"exam_status"`
	ExamStartTime       *time.Time     `json:"exam_start_time"`
	ExamEndTime         *time.Time     `json:"exam_end_time"`
	ExamDurationMinutes int            `json:"exam_duration_minutes"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// QuestionList decodes the embedded question document.
func (q Quiz) QuestionList() ([]Question, error) {
	if len(q.Questions) == 0 {
		return nil, nil
	}

	var questions []Question
	if err := json.Unmarshal(q.Questions, &questions); err != nil {
		return nil, fmt.Errorf("decode quiz questions: %w", err)
	}

	return questions, nil
}

// SetQuestions encodes the question list into the embedded document and keeps
// TotalQuestions in sync with it.
func (q *Quiz) SetQuestions(questions []Question) error {
	payload, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("encode quiz questions: %w", err)
	}

	q.Questions = datatypes.JSON(payload)
	q.TotalQuestions = len(questions)
	return nil
}

// AllottedSeconds returns the nominal time budget a participant is scored
// against: the shared exam duration in exam mode, otherwise the quiz duration.
func (q Quiz) AllottedSeconds() int {
	if q.IsExamMode && q.ExamDurationMinutes > 0 {
		return q.ExamDurationMinutes * 60
	}

	return q.DurationMinutes * 60
}

// ExamWindowExpired reports whether the shared exam window has passed at the
// given instant. Always false for plain quizzes or exams that have not started.
func (q Quiz) ExamWindowExpired(now time.Time) bool {
	if !q.IsExamMode || q.ExamEndTime == nil {
		return false
	}

	return now.After(*q.ExamEndTime)
}
