package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/kuis-go-api/internal/models"
	"github.com/noah-isme/kuis-go-api/internal/repository"
	"github.com/noah-isme/kuis-go-api/pkg/ai"
)

type memoryQuizRepo struct {
	quizzes             map[uint]models.Quiz
	nextID              uint
	failExamStateUpdate bool
	examStateUpdates    int
}

func newMemoryQuizRepo() *memoryQuizRepo {
	return &memoryQuizRepo{quizzes: make(map[uint]models.Quiz), nextID: 1}
}

func (m *memoryQuizRepo) GetByID(ctx context.Context, id uint) (models.Quiz, error) {
	quiz, ok := m.quizzes[id]
	if !ok {
		return models.Quiz{}, gorm.ErrRecordNotFound
	}
	return quiz, nil
}

func (m *memoryQuizRepo) ListByClass(ctx context.Context, classID uint) ([]models.Quiz, error) {
	results := make([]models.Quiz, 0, len(m.quizzes))
	for _, quiz := range m.quizzes {
		if quiz.ClassID != nil && *quiz.ClassID == classID {
			results = append(results, quiz)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryQuizRepo) Create(ctx context.Context, quiz *models.Quiz) error {
	quiz.ID = m.nextID
	quiz.CreatedAt = time.Now()
	quiz.UpdatedAt = time.Now()
	m.quizzes[m.nextID] = *quiz
	m.nextID++
	return nil
}

func (m *memoryQuizRepo) Update(ctx context.Context, quiz *models.Quiz) error {
	if _, ok := m.quizzes[quiz.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	quiz.UpdatedAt = time.Now()
	m.quizzes[quiz.ID] = *quiz
	return nil
}

func (m *memoryQuizRepo) UpdateExamState(ctx context.Context, quiz *models.Quiz) error {
	if m.failExamStateUpdate {
		return errors.New("exam state update failed")
	}
	stored, ok := m.quizzes[quiz.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.ExamStatus = quiz.ExamStatus
	stored.ExamStartTime = quiz.ExamStartTime
	stored.ExamEndTime = quiz.ExamEndTime
	m.quizzes[quiz.ID] = stored
	m.examStateUpdates++
	return nil
}

type resultKey struct {
	quizID    uint
	studentID uint
}

type memoryResultRepo struct {
	results        map[resultKey]models.Result
	quizzes        *memoryQuizRepo
	nextID         uint
	forceDuplicate bool
}

func newMemoryResultRepo(quizzes *memoryQuizRepo) *memoryResultRepo {
	return &memoryResultRepo{results: make(map[resultKey]models.Result), quizzes: quizzes, nextID: 1}
}

func (m *memoryResultRepo) InsertIfAbsent(ctx context.Context, result *models.Result) error {
	if m.forceDuplicate {
		return repository.ErrDuplicateResult
	}
	key := resultKey{quizID: result.QuizID, studentID: result.StudentID}
	if _, ok := m.results[key]; ok {
		return repository.ErrDuplicateResult
	}
	result.ID = m.nextID
	result.CreatedAt = time.Now()
	m.results[key] = *result
	m.nextID++
	return nil
}

func (m *memoryResultRepo) GetByQuizAndStudent(ctx context.Context, quizID, studentID uint) (models.Result, error) {
	result, ok := m.results[resultKey{quizID: quizID, studentID: studentID}]
	if !ok {
		return models.Result{}, gorm.ErrRecordNotFound
	}
	return result, nil
}

func (m *memoryResultRepo) ListByQuiz(ctx context.Context, quizID uint) ([]models.Result, error) {
	results := make([]models.Result, 0, len(m.results))
	for key, result := range m.results {
		if key.quizID == quizID {
			results = append(results, result)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Percentage != results[j].Percentage {
			return results[i].Percentage > results[j].Percentage
		}
		return results[i].TimeTakenSeconds < results[j].TimeTakenSeconds
	})
	return results, nil
}

func (m *memoryResultRepo) ListByClass(ctx context.Context, classID uint) ([]models.Result, error) {
	results := make([]models.Result, 0, len(m.results))
	for _, result := range m.results {
		quiz, ok := m.quizzes.quizzes[result.QuizID]
		if !ok || quiz.ClassID == nil || *quiz.ClassID != classID {
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

func (m *memoryResultRepo) ListByStudent(ctx context.Context, studentID uint) ([]models.Result, error) {
	results := make([]models.Result, 0, len(m.results))
	for key, result := range m.results {
		if key.studentID == studentID {
			results = append(results, result)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].SubmittedAt.After(results[j].SubmittedAt) })
	return results, nil
}

type memoryEnrollmentRepo struct {
	enrolled map[resultKey]bool
}

func newMemoryEnrollmentRepo() *memoryEnrollmentRepo {
	return &memoryEnrollmentRepo{enrolled: make(map[resultKey]bool)}
}

func (m *memoryEnrollmentRepo) enroll(studentID, classID uint) {
	m.enrolled[resultKey{quizID: classID, studentID: studentID}] = true
}

func (m *memoryEnrollmentRepo) IsEnrolled(ctx context.Context, studentID, classID uint) (bool, error) {
	return m.enrolled[resultKey{quizID: classID, studentID: studentID}], nil
}

type memoryStudentRepo struct {
	students map[uint]models.Student
}

func newMemoryStudentRepo(students ...models.Student) *memoryStudentRepo {
	repo := &memoryStudentRepo{students: make(map[uint]models.Student)}
	for _, student := range students {
		repo.students[student.ID] = student
	}
	return repo
}

func (m *memoryStudentRepo) GetByID(ctx context.Context, id uint) (models.Student, error) {
	student, ok := m.students[id]
	if !ok {
		return models.Student{}, gorm.ErrRecordNotFound
	}
	return student, nil
}

func (m *memoryStudentRepo) ListByIDs(ctx context.Context, ids []uint) ([]models.Student, error) {
	results := make([]models.Student, 0, len(ids))
	for _, id := range ids {
		if student, ok := m.students[id]; ok {
			results = append(results, student)
		}
	}
	return results, nil
}

type stubGenerator struct {
	questions []ai.GeneratedQuestion
	err       error
	calls     int
}

func (s *stubGenerator) Generate(ctx context.Context, input ai.GenerationInput) ([]ai.GeneratedQuestion, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.questions, nil
}

func generatedQuestions(count int) []ai.GeneratedQuestion {
	questions := make([]ai.GeneratedQuestion, 0, count)
	for i := 0; i < count; i++ {
		questions = append(questions, ai.GeneratedQuestion{
			Text:          fmt.Sprintf("Question %d", i+1),
			Options:       map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"},
			CorrectAnswer: "A",
			Explanations:  map[string]string{"B": "no", "C": "no", "D": "no"},
		})
	}
	return questions
}

func testQuestions(correct ...string) []models.Question {
	questions := make([]models.Question, 0, len(correct))
	for i, answer := range correct {
		questions = append(questions, models.Question{
			Text:               fmt.Sprintf("Question %d", i+1),
			Options:            map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"},
			CorrectAnswer:      answer,
			Explanations:       map[string]string{},
			CorrectExplanation: "right",
		})
	}
	return questions
}

func newTestQuiz(t *testing.T, repo *memoryQuizRepo, quiz models.Quiz, correct ...string) models.Quiz {
	t.Helper()
	if len(correct) > 0 {
		if err := quiz.SetQuestions(testQuestions(correct...)); err != nil {
			t.Fatalf("set questions: %v", err)
		}
	}
	if err := repo.Create(context.Background(), &quiz); err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	return quiz
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
