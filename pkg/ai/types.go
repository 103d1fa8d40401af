package ai

import "context"

// GenerationInput describes the material a quiz should be generated from.
type GenerationInput struct {
	Title           string
	Topic           string
	LectureText     string
	QuestionCount   int
	DurationMinutes int
}

// GeneratedQuestion is one multiple-choice question produced by the model.
// Options and explanations are keyed by option letter (A-D).
type GeneratedQuestion struct {
	Text               string            `json:"text"`
	Options            map[string]string `json:"options"`
	CorrectAnswer      string            `json:"correct_answer"`
	Explanations       map[string]string `json:"explanations,omitempty"`
	CorrectExplanation string            `json:"correct_explanation,omitempty"`
}

// QuestionGenerator describes an AI model capable of producing quiz questions
// from lecture material. Implementations return however many questions the
// model produced; the quiz service owns trimming and explanation backfill.
type QuestionGenerator interface {
	Generate(ctx context.Context, input GenerationInput) ([]GeneratedQuestion, error)
}
