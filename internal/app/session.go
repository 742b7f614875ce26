package app

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizforge/internal/domain"
)

// State identifies the lifecycle phase of a session.
type State string

const (
	StateNotStarted State = "NOT_STARTED"
	StateInProgress State = "IN_PROGRESS"
	StateCompleted  State = "COMPLETED"
)

// Snapshot is the read model pushed to presentation code on every state
// change. It carries the full session view so renderers never reach back
// into the session.
type Snapshot struct {
	State              State                     `json:"state"`
	EditorOpen         bool                      `json:"editorOpen"`
	PlayerName         string                    `json:"playerName"`
	Quiz               domain.Quiz               `json:"quiz"`
	QuestionIndex      int                       `json:"questionIndex"`
	CurrentQuestion    *domain.Question          `json:"currentQuestion,omitempty"`
	Answers            []domain.PlayerAnswer     `json:"answers"`
	ProgressPercentage int                       `json:"progressPercentage"`
	TotalScore         int                       `json:"totalScore"`
	MaxPossibleScore   int                       `json:"maxPossibleScore"`
	Leaderboard        []domain.LeaderboardEntry `json:"leaderboard"`
	Result             *domain.PlayerResult      `json:"result,omitempty"`
}

// Session is the single in-process quiz session: active quiz, question
// pointer, recorded answers, player identity, and mode flags. All mutations
// run under the mutex because the transport reads and writes from separate
// goroutines; there is still exactly one logical writer.
type Session struct {
	mu    sync.RWMutex
	now   func() time.Time
	newID func() string

	quiz          domain.Quiz
	questionIndex int
	playerName    string
	answers       []domain.PlayerAnswer
	leaderboard   []domain.LeaderboardEntry
	started       bool
	completed     bool
	editorOpen    bool

	subscribers map[chan Snapshot]struct{}
}

// NewSession builds a session around the given quiz. Seed entries are
// reranked once so a pre-populated scoreboard starts consistent.
func NewSession(quiz domain.Quiz, seed []domain.LeaderboardEntry) *Session {
	return NewSessionWithClock(quiz, seed, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(quiz domain.Quiz, seed []domain.LeaderboardEntry, now func() time.Time) *Session {
	return &Session{
		now:           now,
		newID:         uuid.NewString,
		quiz:          quiz,
		questionIndex: -1,
		leaderboard:   Rerank(seed),
		subscribers:   make(map[chan Snapshot]struct{}),
	}
}

// SetPlayerName stores the name as given; validation happens at start.
func (s *Session) SetPlayerName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerName = name
	s.broadcastLocked()
}

// StartQuiz moves the session to InProgress, pointing at the first question
// with a clean answer list. A blank player name makes it a silent no-op.
func (s *Session) StartQuiz() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(s.playerName) == "" {
		return
	}
	s.started = true
	s.completed = false
	s.questionIndex = 0
	s.answers = nil
	s.broadcastLocked()
}

// GoToNextQuestion advances the pointer, clamped at the last question.
func (s *Session) GoToNextQuestion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.questionIndex < len(s.quiz.Questions)-1 {
		s.questionIndex++
		s.broadcastLocked()
	}
}

// GoToPreviousQuestion moves the pointer back, clamped at the first question.
func (s *Session) GoToPreviousQuestion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.questionIndex > 0 {
		s.questionIndex--
		s.broadcastLocked()
	}
}

// SubmitAnswer upserts by question ID: a resubmission replaces the existing
// entry at its position, a first submission appends. The caller supplies the
// grading verdict. Answers for questions outside the active quiz fail fast.
func (s *Session) SubmitAnswer(answer domain.PlayerAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.questionByIDLocked(answer.QuestionID) == nil {
		return domain.ErrQuestionNotFound
	}

	for i := range s.answers {
		if s.answers[i].QuestionID == answer.QuestionID {
			s.answers[i] = answer
			s.broadcastLocked()
			return nil
		}
	}
	s.answers = append(s.answers, answer)
	s.broadcastLocked()
	return nil
}

// Answer validates and grades a raw response for a question, then records it.
// Invalid input (blank text, empty selection) is refused with a typed error
// and leaves the answer list untouched.
func (s *Session) Answer(questionID string, selectedIDs []string, textAnswer string) (domain.PlayerAnswer, error) {
	s.mu.RLock()
	question := s.questionByIDLocked(questionID)
	s.mu.RUnlock()
	if question == nil {
		return domain.PlayerAnswer{}, domain.ErrQuestionNotFound
	}

	if err := ValidateResponse(*question, selectedIDs, textAnswer); err != nil {
		return domain.PlayerAnswer{}, err
	}

	correct, points := Grade(*question, selectedIDs, textAnswer)
	answer := domain.PlayerAnswer{
		QuestionID:        questionID,
		SelectedOptionIDs: selectedIDs,
		IsCorrect:         correct,
		Points:            points,
	}
	if question.Type == domain.FillInBlank {
		answer.TextAnswer = textAnswer
	}
	if err := s.SubmitAnswer(answer); err != nil {
		return domain.PlayerAnswer{}, err
	}
	return answer, nil
}

// CompleteQuiz transitions to Completed, snapshots the player result, and
// inserts it into the leaderboard. With no recorded answers there is no
// result and no leaderboard entry; the completed flag is still set, matching
// the observed behavior this service reimplements.
func (s *Session) CompleteQuiz() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = true

	result := s.playerResultLocked()
	if result == nil {
		s.broadcastLocked()
		return
	}

	s.leaderboard = append(s.leaderboard, domain.LeaderboardEntry{
		PlayerName:     result.PlayerName,
		Score:          result.Score,
		CorrectAnswers: result.CorrectAnswers,
		TotalQuestions: result.TotalQuestions,
		CompletedAt:    result.CompletedAt,
	})
	s.leaderboard = Rerank(s.leaderboard)
	s.broadcastLocked()
}

// ResetQuiz returns to NotStarted. Player name and leaderboard survive.
func (s *Session) ResetQuiz() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	s.completed = false
	s.editorOpen = false
	s.questionIndex = -1
	s.answers = nil
	s.broadcastLocked()
}

// ReplaceQuiz swaps the active quiz wholesale and implicitly resets the
// session. Covers both the catalog switch and the editor save path.
func (s *Session) ReplaceQuiz(quiz domain.Quiz) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quiz = quiz
	s.started = false
	s.completed = false
	s.editorOpen = false
	s.questionIndex = -1
	s.answers = nil
	s.broadcastLocked()
}

// SetEditorOpen toggles the orthogonal editor mode flag.
func (s *Session) SetEditorOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editorOpen = open
	s.broadcastLocked()
}

// Quiz returns the active quiz.
func (s *Session) Quiz() domain.Quiz {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quiz
}

// CurrentQuestion returns the question under the pointer, or nil outside a
// running quiz.
func (s *Session) CurrentQuestion() *domain.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentQuestionLocked()
}

// Answers returns a copy of the recorded answers in submission order.
func (s *Session) Answers() []domain.PlayerAnswer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PlayerAnswer, len(s.answers))
	copy(out, s.answers)
	return out
}

// Leaderboard returns a copy of the current ranked entries.
func (s *Session) Leaderboard() []domain.LeaderboardEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.LeaderboardEntry, len(s.leaderboard))
	copy(out, s.leaderboard)
	return out
}

// ProgressPercentage reports answered questions as a rounded percentage,
// zero before the quiz starts.
func (s *Session) ProgressPercentage() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progressLocked()
}

// TotalScore sums points over recorded answers.
func (s *Session) TotalScore() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalScoreLocked()
}

// MaxPossibleScore sums points over every question in the active quiz.
func (s *Session) MaxPossibleScore() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxScoreLocked()
}

// PlayerResult computes the completion snapshot, or nil unless the quiz has
// started and at least one answer exists.
func (s *Session) PlayerResult() *domain.PlayerResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playerResultLocked()
}

// Snapshot returns the full current read model.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every state change,
// primed with the current one. The caller must invoke cancel to avoid leaks.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot so a slow consumer never blocks the session.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Session) snapshotLocked() Snapshot {
	answers := make([]domain.PlayerAnswer, len(s.answers))
	copy(answers, s.answers)
	leaderboard := make([]domain.LeaderboardEntry, len(s.leaderboard))
	copy(leaderboard, s.leaderboard)

	return Snapshot{
		State:              s.stateLocked(),
		EditorOpen:         s.editorOpen,
		PlayerName:         s.playerName,
		Quiz:               s.quiz,
		QuestionIndex:      s.questionIndex,
		CurrentQuestion:    s.currentQuestionLocked(),
		Answers:            answers,
		ProgressPercentage: s.progressLocked(),
		TotalScore:         s.totalScoreLocked(),
		MaxPossibleScore:   s.maxScoreLocked(),
		Leaderboard:        leaderboard,
		Result:             s.playerResultLocked(),
	}
}

func (s *Session) stateLocked() State {
	switch {
	case s.completed:
		return StateCompleted
	case s.started:
		return StateInProgress
	default:
		return StateNotStarted
	}
}

func (s *Session) currentQuestionLocked() *domain.Question {
	if s.questionIndex < 0 || s.questionIndex >= len(s.quiz.Questions) {
		return nil
	}
	q := s.quiz.Questions[s.questionIndex]
	return &q
}

func (s *Session) questionByIDLocked(id string) *domain.Question {
	for i := range s.quiz.Questions {
		if s.quiz.Questions[i].ID == id {
			return &s.quiz.Questions[i]
		}
	}
	return nil
}

func (s *Session) progressLocked() int {
	if !s.started || len(s.quiz.Questions) == 0 {
		return 0
	}
	return int(math.Round(100 * float64(len(s.answers)) / float64(len(s.quiz.Questions))))
}

func (s *Session) totalScoreLocked() int {
	total := 0
	for _, a := range s.answers {
		total += a.Points
	}
	return total
}

func (s *Session) maxScoreLocked() int {
	total := 0
	for _, q := range s.quiz.Questions {
		total += q.Points
	}
	return total
}

func (s *Session) playerResultLocked() *domain.PlayerResult {
	if !s.started || len(s.answers) == 0 {
		return nil
	}

	correct := 0
	for _, a := range s.answers {
		if a.IsCorrect {
			correct++
		}
	}
	answers := make([]domain.PlayerAnswer, len(s.answers))
	copy(answers, s.answers)

	return &domain.PlayerResult{
		PlayerID:       "player-" + s.newID(),
		PlayerName:     s.playerName,
		Score:          s.totalScoreLocked(),
		CorrectAnswers: correct,
		TotalQuestions: len(s.quiz.Questions),
		Answers:        answers,
		CompletedAt:    s.now(),
	}
}
