package app

import (
	"testing"

	"quizforge/internal/domain"
)

func fillQuestion() domain.Question {
	return domain.Question{
		ID:   "q1",
		Type: domain.FillInBlank,
		Options: []domain.Option{
			{ID: "o1", Text: "Paris", IsCorrect: true},
		},
		Points: 10,
	}
}

func multiQuestion() domain.Question {
	return domain.Question{
		ID:   "q2",
		Type: domain.MultiSelect,
		Options: []domain.Option{
			{ID: "a", Text: "Encapsulation", IsCorrect: true},
			{ID: "b", Text: "Iteration", IsCorrect: false},
			{ID: "c", Text: "Polymorphism", IsCorrect: true},
		},
		Points: 15,
	}
}

func TestGradeFillInBlankNormalizes(t *testing.T) {
	q := fillQuestion()
	for _, submitted := range []string{"Paris", " paris ", "PARIS"} {
		correct, points := Grade(q, nil, submitted)
		if !correct || points != 10 {
			t.Fatalf("expected %q to grade correct for 10 points, got correct=%v points=%d", submitted, correct, points)
		}
	}

	correct, points := Grade(q, nil, "London")
	if correct || points != 0 {
		t.Fatalf("expected wrong answer to score 0, got correct=%v points=%d", correct, points)
	}
}

func TestGradeSingleSelect(t *testing.T) {
	q := domain.Question{
		ID:   "q1",
		Type: domain.SingleSelect,
		Options: []domain.Option{
			{ID: "o1", Text: "Queue", IsCorrect: false},
			{ID: "o2", Text: "Stack", IsCorrect: true},
		},
		Points: 10,
	}

	if correct, points := Grade(q, []string{"o2"}, ""); !correct || points != 10 {
		t.Fatalf("expected correct option to award 10, got correct=%v points=%d", correct, points)
	}
	if correct, points := Grade(q, []string{"o1"}, ""); correct || points != 0 {
		t.Fatalf("expected incorrect option to award 0, got correct=%v points=%d", correct, points)
	}
	if correct, _ := Grade(q, []string{"missing"}, ""); correct {
		t.Fatalf("expected unknown option ID to grade incorrect")
	}
}

func TestGradeMultiSelectExactSet(t *testing.T) {
	q := multiQuestion()

	cases := []struct {
		name     string
		selected []string
		want     bool
	}{
		{"all correct", []string{"a", "c"}, true},
		{"order irrelevant", []string{"c", "a"}, true},
		{"missing one", []string{"a"}, false},
		{"extra incorrect", []string{"a", "b", "c"}, false},
		{"only incorrect", []string{"b"}, false},
	}
	for _, tc := range cases {
		correct, _ := Grade(q, tc.selected, "")
		if correct != tc.want {
			t.Fatalf("%s: expected correct=%v, got %v", tc.name, tc.want, correct)
		}
	}
}

func TestGradeMultiSelectCommutesOverOptionOrder(t *testing.T) {
	q := multiQuestion()
	selected := []string{"c", "a"}

	before, _ := Grade(q, selected, "")

	// Shuffling the question's option list must not change the verdict.
	q.Options = []domain.Option{q.Options[2], q.Options[0], q.Options[1]}
	after, _ := Grade(q, selected, "")

	if before != after {
		t.Fatalf("verdict changed with option order: before=%v after=%v", before, after)
	}
}

func TestValidateResponse(t *testing.T) {
	if err := ValidateResponse(fillQuestion(), nil, "   "); err != domain.ErrEmptyAnswer {
		t.Fatalf("expected ErrEmptyAnswer, got %v", err)
	}
	if err := ValidateResponse(multiQuestion(), nil, ""); err != domain.ErrNoSelection {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if err := ValidateResponse(fillQuestion(), nil, "Paris"); err != nil {
		t.Fatalf("expected valid text answer, got %v", err)
	}
	if err := ValidateResponse(multiQuestion(), []string{"a"}, ""); err != nil {
		t.Fatalf("expected valid selection, got %v", err)
	}
}
