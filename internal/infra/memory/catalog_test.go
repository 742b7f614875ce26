package memory

import (
	"context"
	"testing"
	"time"

	"quizforge/internal/domain"
)

func TestCatalogCaches(t *testing.T) {
	loader := &countingLoader{
		CatalogLoader: NewStaticLoader(
			map[string]domain.Quiz{"quiz-1": sampleQuiz()},
			map[string][]domain.LeaderboardEntry{"quiz-1": sampleSeed()},
		),
	}
	catalog := NewCatalog(loader, time.Minute)

	if _, err := catalog.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.quizCalls != 1 {
		t.Fatalf("expected loader once, got %d", loader.quizCalls)
	}

	if _, err := catalog.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.quizCalls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.quizCalls)
	}

	// Seed entries ride the same cache entry.
	seed, err := catalog.GetSeedEntries(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get seed: %v", err)
	}
	if len(seed) != 2 {
		t.Fatalf("expected 2 seed entries, got %d", len(seed))
	}
	if loader.seedCalls != 1 {
		t.Fatalf("expected seed loaded once, got %d", loader.seedCalls)
	}
}

func TestCatalogUnknownQuiz(t *testing.T) {
	catalog := NewCatalog(NewStaticLoader(nil, nil), time.Minute)
	if _, err := catalog.GetQuiz(context.Background(), "ghost"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

type countingLoader struct {
	CatalogLoader
	quizCalls int
	seedCalls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.quizCalls++
	return l.CatalogLoader.LoadQuiz(ctx, quizID)
}

func (l *countingLoader) LoadSeedEntries(ctx context.Context, quizID string) ([]domain.LeaderboardEntry, error) {
	l.seedCalls++
	return l.CatalogLoader.LoadSeedEntries(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "Sample",
		Questions: []domain.Question{
			{
				ID:   "q1",
				Text: "What is 2 + 2?",
				Type: domain.SingleSelect,
				Options: []domain.Option{
					{ID: "o1", Text: "3", IsCorrect: false},
					{ID: "o2", Text: "4", IsCorrect: true},
				},
				Points: 10,
			},
		},
	}
}

func sampleSeed() []domain.LeaderboardEntry {
	return []domain.LeaderboardEntry{
		{PlayerName: "Sarah Chen", Score: 85, CorrectAnswers: 5, TotalQuestions: 6},
		{PlayerName: "Emma Thompson", Score: 95, CorrectAnswers: 6, TotalQuestions: 6},
	}
}
