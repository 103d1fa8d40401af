package dto

import (
	"time"

	"github.com/noah-isme/kuis-go-api/internal/models"
)

// SubmittedAnswer is a single answer in a submission payload.
type SubmittedAnswer struct {
	QuestionIndex  int    `json:"question_index" validate:"gte=0"`
	SelectedOption string `json:"selected_option" validate:"required,oneof=A B C D"`
}

// AntiCheatPayload carries client-reported proctoring telemetry. It is stored
// verbatim as advisory metadata and never gates scoring or state transitions.
type AntiCheatPayload struct {
	ViolationCount   int    `json:"violation_count" validate:"gte=0"`
	WasAutoSubmitted bool   `json:"was_auto_submitted"`
	SecurityStatus   string `json:"security_status" validate:"omitempty,oneof=clean flagged violated"`
}

// SubmissionRequest is the payload for submitting quiz answers.
type SubmissionRequest struct {
	Answers          []SubmittedAnswer `json:"answers" validate:"required,min=1,dive"`
	TimeTakenSeconds int               `json:"time_taken_seconds" validate:"gte=0"`
	AntiCheat        AntiCheatPayload  `json:"anti_cheat"`
}

// AnswerDetailResponse serializes the per-question outcome of an attempt.
type AnswerDetailResponse struct {
	QuestionIndex  int    `json:"question_index"`
	SelectedOption string `json:"selected_option"`
	CorrectAnswer  string `json:"correct_answer"`
	IsCorrect      bool   `json:"is_correct"`
	Explanation    string `json:"explanation"`
}

// ResultResponse is returned after a successful submission or when a student
// views their own result.
type ResultResponse struct {
	ResultID         uint                   `json:"result_id"`
	QuizID           uint                   `json:"quiz_id"`
	StudentID        uint                   `json:"student_id"`
	Score            int                    `json:"score"`
	TotalQuestions   int                    `json:"total_questions"`
	Percentage       float64                `json:"percentage"`
	TimeTakenSeconds int                    `json:"time_taken_seconds"`
	SubmissionType   string                 `json:"submission_type"`
	SubmittedAt      time.Time              `json:"submitted_at"`
	Answers          []AnswerDetailResponse `json:"answers,omitempty"`
}

// NewResultResponse converts a Result model into a DTO.
func NewResultResponse(model models.Result) (ResultResponse, error) {
	details, err := model.AnswerDetails()
	if err != nil {
		return ResultResponse{}, err
	}

	answers := make([]AnswerDetailResponse, 0, len(details))
	for _, detail := range details {
		answers = append(answers, AnswerDetailResponse{
			QuestionIndex:  detail.QuestionIndex,
			SelectedOption: detail.SelectedOption,
			CorrectAnswer:  detail.CorrectAnswer,
			IsCorrect:      detail.IsCorrect,
			Explanation:    detail.Explanation,
		})
	}

	return ResultResponse{
		ResultID:         model.ID,
		QuizID:           model.QuizID,
		StudentID:        model.StudentID,
		Score:            model.Score,
		TotalQuestions:   model.TotalQuestions,
		Percentage:       model.Percentage,
		TimeTakenSeconds: model.TimeTakenSeconds,
		SubmissionType:   model.SubmissionType,
		SubmittedAt:      model.SubmittedAt,
		Answers:          answers,
	}, nil
}
