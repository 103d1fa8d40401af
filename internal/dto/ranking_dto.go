package dto

import "time"

// ClassRankingEntry is one row of a class leaderboard. Students with zero
// attempts are omitted from the ranked output entirely.
type ClassRankingEntry struct {
	Rank              int     `json:"rank"`
	StudentID         uint    `json:"student_id"`
	StudentName       string  `json:"student_name,omitempty"`
	QuizzesAttempted  int     `json:"quizzes_attempted"`
	AverageScore      float64 `json:"average_score"`
	AverageEfficiency float64 `json:"average_efficiency"`
	ParticipationRate float64 `json:"participation_rate"`
	BasePoints        float64 `json:"base_points"`
	FinalPoints       float64 `json:"final_points"`
}

// QuizRankingEntry is one row of a per-quiz leaderboard, ordered by
// percentage descending with faster submissions winning ties.
type QuizRankingEntry struct {
	Rank             int       `json:"rank"`
	StudentID        uint      `json:"student_id"`
	StudentName      string    `json:"student_name,omitempty"`
	Percentage       float64   `json:"percentage"`
	TimeTakenSeconds int       `json:"time_taken_seconds"`
	SubmittedAt      time.Time `json:"submitted_at"`
}

// QuizRankingsResponse bundles the top entries with the caller's own rank,
// which may lie outside the returned window. CallerRank is nil when the
// caller has not attempted the quiz.
type QuizRankingsResponse struct {
	QuizID       uint               `json:"quiz_id"`
	Total        int                `json:"total"`
	Entries      []QuizRankingEntry `json:"entries"`
	CallerRank   *int               `json:"caller_rank,omitempty"`
	CallerResult *QuizRankingEntry  `json:"caller_result,omitempty"`
}
