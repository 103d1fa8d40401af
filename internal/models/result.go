package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Submission type classification. The type records how the attempt reached the
// server and never influences the score.
const (
	SubmissionTypeManual        = "manual"
	SubmissionTypeAutoQuizTimer = "auto_quiz_timer"
	SubmissionTypeAutoExamTimer = "auto_exam_timer"
)

// AnswerDetail captures the per-question outcome stored with a result.
type AnswerDetail struct {
	QuestionIndex  int    `json:"question_index"`
	SelectedOption string `json:"selected_option"`
	CorrectAnswer  string `json:"correct_answer"`
	IsCorrect      bool   `json:"is_correct"`
	Explanation    string `json:"explanation"`
}

// Result is the append-only record of a student's single attempt at a quiz.
// The compound unique index on (quiz_id, student_id) is the storage-level
// guarantee that at most one result ever exists per pair; application code
// must never rely on a check-then-insert alone.
type Result struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	QuizID           uint           `gorm:"not null;uniqueIndex:idx_results_quiz_student" json:"quiz_id"`
	StudentID        uint           `gorm:"not null;uniqueIndex:idx_results_quiz_student" json:"student_id"`
	Score            int            `gorm:"not null" json:"score"`
	TotalQuestions   int            `gorm:"not null" json:"total_questions"`
	Percentage       float64        `gorm:"not null" json:"percentage"`
	TimeTakenSeconds int            `gorm:"not null" json:"time_taken_seconds"`
	SubmittedAt      time.Time      `gorm:"not null" json:"submitted_at"`
	Answers          datatypes.JSON `json:"-"`
	SubmissionType   string         `gorm:"size:32;not null" json:"submission_type"`

	// Client-reported anti-cheat telemetry, stored as advisory metadata only.
	ViolationCount   int    `json:"violation_count"`
	WasAutoSubmitted bool   `json:"was_auto_submitted"`
	SecurityStatus   string `gorm:"size:64" json:"security_status"`

	CreatedAt time.Time `json:"created_at"`
}

// AnswerDetails decodes the embedded per-question detail document.
func (r Result) AnswerDetails() ([]AnswerDetail, error) {
	if len(r.Answers) == 0 {
		return nil, nil
	}

	var details []AnswerDetail
	if err := json.Unmarshal(r.Answers, &details); err != nil {
		return nil, fmt.Errorf("decode result answers: %w", err)
	}

	return details, nil
}

// SetAnswerDetails encodes the per-question detail document.
func (r *Result) SetAnswerDetails(details []AnswerDetail) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encode result answers: %w", err)
	}

	r.Answers = datatypes.JSON(payload)
	return nil
}
