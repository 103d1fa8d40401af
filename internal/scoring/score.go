// Package scoring holds the pure arithmetic the quiz engine is built on:
// answer scoring, time efficiency, and the participation-weighted ranking
// formula. Nothing here touches storage or the clock.
package scoring

import "github.com/noah-isme/kuis-go-api/internal/models"

// SubmittedAnswer is a single answer keyed by question index.
type SubmittedAnswer struct {
	QuestionIndex  int
	SelectedOption string
}

// Outcome is the full scoring result for one attempt.
type Outcome struct {
	Score      int
	Percentage float64
	Details    []models.AnswerDetail
}

// Score grades submitted answers against the quiz questions. Answers are
// keyed by question index: only the first answer for an index counts, and
// answers with an index outside the question list are skipped entirely rather
// than counted as wrong; unanswered questions simply contribute nothing to the
// score.
func Score(questions []models.Question, answers []SubmittedAnswer) Outcome {
	outcome := Outcome{Details: make([]models.AnswerDetail, 0, len(answers))}
	graded := make(map[int]struct{}, len(answers))

	for _, answer := range answers {
		if answer.QuestionIndex < 0 || answer.QuestionIndex >= len(questions) {
			continue
		}
		if _, done := graded[answer.QuestionIndex]; done {
			continue
		}
		graded[answer.QuestionIndex] = struct{}{}

		question := questions[answer.QuestionIndex]
		correct := answer.SelectedOption == question.CorrectAnswer

		explanation := question.CorrectExplanation
		if !correct {
			explanation = question.Explanations[answer.SelectedOption]
		}

		if correct {
			outcome.Score++
		}

		outcome.Details = append(outcome.Details, models.AnswerDetail{
			QuestionIndex:  answer.QuestionIndex,
			SelectedOption: answer.SelectedOption,
			CorrectAnswer:  question.CorrectAnswer,
			IsCorrect:      correct,
			Explanation:    explanation,
		})
	}

	outcome.Percentage = Percentage(outcome.Score, len(questions))
	return outcome
}

// Percentage computes the score percentage rounded to one decimal. Zero
// questions yields zero rather than a division error.
func Percentage(score, totalQuestions int) float64 {
	if totalQuestions <= 0 {
		return 0
	}

	return Round1(float64(score) / float64(totalQuestions) * 100)
}
