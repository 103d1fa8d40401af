package dto

import "time"

// RecentResult summarizes one of the student's latest attempts.
type RecentResult struct {
	QuizID      uint      `json:"quiz_id"`
	QuizTitle   string    `json:"quiz_title"`
	Percentage  float64   `json:"percentage"`
	Score       int       `json:"score"`
	Total       int       `json:"total_questions"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// StudentDashboardResponse is the per-student overview. It aggregates only the
// caller's own results and may be served from cache; leaderboards are always
// recomputed live and never pass through here.
type StudentDashboardResponse struct {
	StudentID         uint           `json:"student_id"`
	QuizzesAttempted  int            `json:"quizzes_attempted"`
	AverageScore      float64        `json:"average_score"`
	BestScore         float64        `json:"best_score"`
	AverageEfficiency float64        `json:"average_efficiency"`
	Recent            []RecentResult `json:"recent"`
	GeneratedAt       time.Time      `json:"generated_at"`
}
