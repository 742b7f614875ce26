package app_test

import (
	"testing"
	"time"

	"quizforge/internal/app"
	"quizforge/internal/domain"
)

func testQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "Programming Fundamentals",
		Questions: []domain.Question{
			{
				ID:   "q1",
				Text: "Which data structure follows LIFO?",
				Type: domain.SingleSelect,
				Options: []domain.Option{
					{ID: "q1-opt1", Text: "Queue", IsCorrect: false},
					{ID: "q1-opt2", Text: "Stack", IsCorrect: true},
				},
				Points: 10,
			},
			{
				ID:   "q2",
				Text: "Time complexity of binary search?",
				Type: domain.FillInBlank,
				Options: []domain.Option{
					{ID: "q2-opt1", Text: "O(log n)", IsCorrect: true},
				},
				Points: 10,
			},
		},
	}
}

func newTestSession(quiz domain.Quiz) *app.Session {
	return app.NewSessionWithClock(quiz, nil, func() time.Time {
		return time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	})
}

func TestStartRequiresPlayerName(t *testing.T) {
	session := newTestSession(testQuiz())

	session.StartQuiz()
	if session.Snapshot().State != app.StateNotStarted {
		t.Fatalf("expected start to no-op without a name")
	}

	session.SetPlayerName("   ")
	session.StartQuiz()
	if session.Snapshot().State != app.StateNotStarted {
		t.Fatalf("expected start to no-op with whitespace name")
	}

	session.SetPlayerName("Alice")
	session.StartQuiz()
	snap := session.Snapshot()
	if snap.State != app.StateInProgress {
		t.Fatalf("expected InProgress, got %s", snap.State)
	}
	if snap.QuestionIndex != 0 {
		t.Fatalf("expected pointer at first question, got %d", snap.QuestionIndex)
	}
}

func TestProgressStartsAtZeroAndIsMonotonic(t *testing.T) {
	session := newTestSession(testQuiz())
	session.SetPlayerName("Alice")
	session.StartQuiz()

	if got := session.ProgressPercentage(); got != 0 {
		t.Fatalf("expected 0%% right after start, got %d", got)
	}

	prev := 0
	if _, err := session.Answer("q1", []string{"q1-opt2"}, ""); err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if got := session.ProgressPercentage(); got < prev || got != 50 {
		t.Fatalf("expected 50%% after one of two answers, got %d", got)
	}
	prev = session.ProgressPercentage()

	if _, err := session.Answer("q2", nil, "O(log n)"); err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if got := session.ProgressPercentage(); got < prev || got != 100 {
		t.Fatalf("expected 100%% after all answers, got %d", got)
	}
}

func TestNavigationIsClamped(t *testing.T) {
	session := newTestSession(testQuiz())
	session.SetPlayerName("Alice")
	session.StartQuiz()

	session.GoToPreviousQuestion()
	if got := session.Snapshot().QuestionIndex; got != 0 {
		t.Fatalf("expected pointer clamped at 0, got %d", got)
	}

	session.GoToNextQuestion()
	session.GoToNextQuestion()
	session.GoToNextQuestion()
	if got := session.Snapshot().QuestionIndex; got != 1 {
		t.Fatalf("expected pointer clamped at last question, got %d", got)
	}
	if q := session.CurrentQuestion(); q == nil || q.ID != "q2" {
		t.Fatalf("expected current question q2, got %+v", q)
	}
}

func TestSubmitAnswerReplacesNotDuplicates(t *testing.T) {
	session := newTestSession(testQuiz())
	session.SetPlayerName("Alice")
	session.StartQuiz()

	if _, err := session.Answer("q1", []string{"q1-opt1"}, ""); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if _, err := session.Answer("q2", nil, "O(n)"); err != nil {
		t.Fatalf("second submit failed: %v", err)
	}
	if _, err := session.Answer("q1", []string{"q1-opt2"}, ""); err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}

	answers := session.Answers()
	if len(answers) != 2 {
		t.Fatalf("expected resubmission to replace, got %d answers", len(answers))
	}
	// Replacement keeps the original position.
	if answers[0].QuestionID != "q1" || !answers[0].IsCorrect {
		t.Fatalf("expected q1 updated in place, got %+v", answers[0])
	}
}

func TestSubmitAnswerForUnknownQuestionFailsFast(t *testing.T) {
	session := newTestSession(testQuiz())
	session.SetPlayerName("Alice")
	session.StartQuiz()

	err := session.SubmitAnswer(domain.PlayerAnswer{QuestionID: "ghost"})
	if err != domain.ErrQuestionNotFound {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
	if len(session.Answers()) != 0 {
		t.Fatalf("expected answer list untouched")
	}
}

func TestAnswerRejectsInvalidInput(t *testing.T) {
	session := newTestSession(testQuiz())
	session.SetPlayerName("Alice")
	session.StartQuiz()

	if _, err := session.Answer("q1", nil, ""); err != domain.ErrNoSelection {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if _, err := session.Answer("q2", nil, "  "); err != domain.ErrEmptyAnswer {
		t.Fatalf("expected ErrEmptyAnswer, got %v", err)
	}
	if len(session.Answers()) != 0 {
		t.Fatalf("expected no answers recorded for invalid input")
	}
}

func TestCompleteQuizCorrectAnswer(t *testing.T) {
	quiz := testQuiz()
	quiz.Questions = quiz.Questions[:1]
	session := newTestSession(quiz)
	session.SetPlayerName("Alice")
	session.StartQuiz()

	if _, err := session.Answer("q1", []string{"q1-opt2"}, ""); err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	session.CompleteQuiz()

	snap := session.Snapshot()
	if snap.State != app.StateCompleted {
		t.Fatalf("expected Completed, got %s", snap.State)
	}
	result := snap.Result
	if result == nil {
		t.Fatalf("expected a player result")
	}
	if result.Score != 10 || result.CorrectAnswers != 1 || result.TotalQuestions != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	lb := snap.Leaderboard
	if len(lb) != 1 || lb[0].PlayerName != "Alice" || lb[0].Score != 10 || lb[0].Rank != 1 {
		t.Fatalf("unexpected leaderboard: %+v", lb)
	}
}

func TestCompleteQuizIncorrectAnswer(t *testing.T) {
	quiz := testQuiz()
	quiz.Questions = quiz.Questions[:1]
	session := newTestSession(quiz)
	session.SetPlayerName("Alice")
	session.StartQuiz()

	if _, err := session.Answer("q1", []string{"q1-opt1"}, ""); err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	session.CompleteQuiz()

	result := session.PlayerResult()
	if result == nil {
		t.Fatalf("expected a player result")
	}
	if result.Score != 0 || result.CorrectAnswers != 0 {
		t.Fatalf("expected zero score, got %+v", result)
	}
}

func TestCompleteQuizWithoutAnswersAddsNothing(t *testing.T) {
	session := newTestSession(testQuiz())
	session.SetPlayerName("Alice")
	session.StartQuiz()

	session.CompleteQuiz()

	if result := session.PlayerResult(); result != nil {
		t.Fatalf("expected no result without answers, got %+v", result)
	}
	if lb := session.Leaderboard(); len(lb) != 0 {
		t.Fatalf("expected empty leaderboard, got %+v", lb)
	}
}

func TestResetKeepsNameAndLeaderboard(t *testing.T) {
	quiz := testQuiz()
	quiz.Questions = quiz.Questions[:1]
	session := newTestSession(quiz)
	session.SetPlayerName("Alice")
	session.StartQuiz()
	if _, err := session.Answer("q1", []string{"q1-opt2"}, ""); err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	session.CompleteQuiz()

	session.ResetQuiz()

	snap := session.Snapshot()
	if snap.State != app.StateNotStarted {
		t.Fatalf("expected NotStarted after reset, got %s", snap.State)
	}
	if snap.PlayerName != "Alice" {
		t.Fatalf("expected player name kept, got %q", snap.PlayerName)
	}
	if len(snap.Leaderboard) != 1 {
		t.Fatalf("expected leaderboard kept, got %+v", snap.Leaderboard)
	}
	if len(snap.Answers) != 0 || snap.QuestionIndex != -1 {
		t.Fatalf("expected answers and pointer cleared, got %+v", snap)
	}
}

func TestReplaceQuizResetsSession(t *testing.T) {
	session := newTestSession(testQuiz())
	session.SetPlayerName("Alice")
	session.StartQuiz()
	if _, err := session.Answer("q1", []string{"q1-opt2"}, ""); err != nil {
		t.Fatalf("answer failed: %v", err)
	}

	replacement := domain.Quiz{
		ID:    "quiz-2",
		Title: "Fresh",
		Questions: []domain.Question{
			{ID: "n1", Type: domain.SingleSelect, Options: []domain.Option{{ID: "x", IsCorrect: true}}, Points: 5},
		},
	}
	session.ReplaceQuiz(replacement)

	snap := session.Snapshot()
	if snap.State != app.StateNotStarted || len(snap.Answers) != 0 {
		t.Fatalf("expected clean session after quiz replacement, got %+v", snap)
	}
	if snap.Quiz.ID != "quiz-2" {
		t.Fatalf("expected replacement quiz active, got %s", snap.Quiz.ID)
	}
	if got := session.MaxPossibleScore(); got != 5 {
		t.Fatalf("expected max score 5 for replacement quiz, got %d", got)
	}
}

func TestMaxPossibleScoreSumsQuestionPoints(t *testing.T) {
	session := newTestSession(testQuiz())
	if got := session.MaxPossibleScore(); got != 20 {
		t.Fatalf("expected 20, got %d", got)
	}
}

func TestSeedLeaderboardIsRankedOnConstruction(t *testing.T) {
	seed := []domain.LeaderboardEntry{
		{PlayerName: "Sarah Chen", Score: 85},
		{PlayerName: "Michael Rodriguez", Score: 75},
		{PlayerName: "Emma Thompson", Score: 95},
	}
	ranked := app.NewSessionWithClock(testQuiz(), seed, time.Now).Leaderboard()
	if ranked[0].PlayerName != "Emma Thompson" || ranked[0].Rank != 1 {
		t.Fatalf("expected Emma first, got %+v", ranked[0])
	}
	if ranked[2].PlayerName != "Michael Rodriguez" || ranked[2].Rank != 3 {
		t.Fatalf("expected Michael last, got %+v", ranked[2])
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	session := newTestSession(testQuiz())
	ch, cancel := session.Subscribe()
	defer cancel()

	initial := <-ch
	if initial.State != app.StateNotStarted {
		t.Fatalf("expected initial NotStarted snapshot, got %s", initial.State)
	}

	session.SetPlayerName("Alice")
	update := <-ch
	if update.PlayerName != "Alice" {
		t.Fatalf("expected name update, got %+v", update)
	}
}
