package dto

import (
	"time"

	"github.com/noah-isme/kuis-go-api/internal/models"
)

// QuizGenerateRequest is the instructor payload for generating a quiz from
// lecture material.
type QuizGenerateRequest struct {
	ClassID             *uint  `json:"class_id" validate:"omitempty,gt=0"`
	Title               string `json:"title" validate:"required,min=3,max=255"`
	Topic               string `json:"topic" validate:"omitempty,max=255"`
	LectureText         string `json:"lecture_text" validate:"required,min=50"`
	QuestionCount       int    `json:"question_count" validate:"required,gte=1,lte=50"`
	DurationMinutes     int    `json:"duration_minutes" validate:"required,gte=1,lte=240"`
	IsExamMode          bool   `json:"is_exam_mode"`
	ExamDurationMinutes int    `json:"exam_duration_minutes" validate:"omitempty,gte=1,lte=240"`
}

// QuestionView is a question as shown to a participant: no correct answer, no
// explanations. Those only surface in the per-answer result detail.
type QuestionView struct {
	Index   int               `json:"index"`
	Text    string            `json:"text"`
	Options map[string]string `json:"options"`
}

// QuizResponse is returned to API clients when viewing a quiz.
type QuizResponse struct {
	ID                  uint           `json:"id"`
	ClassID             *uint          `json:"class_id"`
	Title               string         `json:"title"`
	Topic               string         `json:"topic"`
	TotalQuestions      int            `json:"total_questions"`
	DurationMinutes     int            `json:"duration_minutes"`
	IsActive            bool           `json:"is_active"`
	IsExamMode          bool           `json:"is_exam_mode"`
	ExamStatus          string         `json:"exam_status,omitempty"`
	ExamStartTime       *time.Time     `json:"exam_start_time,omitempty"`
	ExamEndTime         *time.Time     `json:"exam_end_time,omitempty"`
	ExamDurationMinutes int            `json:"exam_duration_minutes,omitempty"`
	Questions           []QuestionView `json:"questions,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
}

// ExamStatusResponse reports the attemptability of a quiz at the moment of the
// request. The stored exam status is re-derived from timestamps on every call.
type ExamStatusResponse struct {
	QuizID           uint   `json:"quiz_id"`
	IsExamMode       bool   `json:"is_exam_mode"`
	ExamStatus       string `json:"exam_status,omitempty"`
	CanAttempt       bool   `json:"can_attempt"`
	SecondsRemaining int    `json:"seconds_remaining"`
	Message          string `json:"message"`
}

// StartExamResponse confirms the shared exam window that was opened.
type StartExamResponse struct {
	QuizID        uint      `json:"quiz_id"`
	ExamStatus    string    `json:"exam_status"`
	ExamStartTime time.Time `json:"exam_start_time"`
	ExamEndTime   time.Time `json:"exam_end_time"`
}

// NewQuizResponse converts a Quiz model into a DTO. Question content is
// included only when includeQuestions is set (participants taking the quiz);
// listings omit it.
func NewQuizResponse(model models.Quiz, includeQuestions bool) (QuizResponse, error) {
	response := QuizResponse{
		ID:                  model.ID,
		ClassID:             model.ClassID,
		Title:               model.Title,
		Topic:               model.Topic,
		TotalQuestions:      model.TotalQuestions,
		DurationMinutes:     model.DurationMinutes,
		IsActive:            model.IsActive,
		IsExamMode:          model.IsExamMode,
		ExamStatus:          model.ExamStatus,
		ExamStartTime:       model.ExamStartTime,
		ExamEndTime:         model.ExamEndTime,
		ExamDurationMinutes: model.ExamDurationMinutes,
		CreatedAt:           model.CreatedAt,
	}

	if includeQuestions {
		questions, err := model.QuestionList()
		if err != nil {
			return QuizResponse{}, err
		}

		views := make([]QuestionView, 0, len(questions))
		for i, question := range questions {
			views = append(views, QuestionView{
				Index:   i,
				Text:    question.Text,
				Options: question.Options,
			})
		}
		response.Questions = views
	}

	return response, nil
}

// NewQuizResponseSlice converts quiz models into listing DTOs.
func NewQuizResponseSlice(quizzes []models.Quiz) ([]QuizResponse, error) {
	responses := make([]QuizResponse, 0, len(quizzes))
	for _, quiz := range quizzes {
		response, err := NewQuizResponse(quiz, false)
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}

	return responses, nil
}
