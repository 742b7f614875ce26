package app

import (
	"strings"

	"quizforge/internal/domain"
)

// ValidateResponse rejects submissions that should never reach grading:
// blank text for fill-in-the-blank, or zero selections for choice questions.
func ValidateResponse(q domain.Question, selectedIDs []string, textAnswer string) error {
	switch q.Type {
	case domain.FillInBlank:
		if strings.TrimSpace(textAnswer) == "" {
			return domain.ErrEmptyAnswer
		}
	default:
		if len(selectedIDs) == 0 {
			return domain.ErrNoSelection
		}
	}
	return nil
}

// Grade decides correctness for a submission and returns the points awarded:
// full question points when correct, zero otherwise. No partial credit.
func Grade(q domain.Question, selectedIDs []string, textAnswer string) (bool, int) {
	var correct bool
	switch q.Type {
	case domain.FillInBlank:
		correct = gradeFillInBlank(q, textAnswer)
	case domain.MultiSelect:
		correct = gradeMultiSelect(q, selectedIDs)
	default:
		correct = gradeSingleSelect(q, selectedIDs)
	}
	if correct {
		return true, q.Points
	}
	return false, 0
}

// gradeFillInBlank matches the normalized submission against any accepted
// answer text, ignoring case and surrounding whitespace.
func gradeFillInBlank(q domain.Question, textAnswer string) bool {
	submitted := normalizeAnswer(textAnswer)
	for _, opt := range q.Options {
		if normalizeAnswer(opt.Text) == submitted {
			return true
		}
	}
	return false
}

func gradeSingleSelect(q domain.Question, selectedIDs []string) bool {
	if len(selectedIDs) != 1 {
		return false
	}
	for _, opt := range q.Options {
		if opt.ID == selectedIDs[0] {
			return opt.IsCorrect
		}
	}
	return false
}

// gradeMultiSelect requires exact set equality: every correct option selected
// and nothing else. Selection order is irrelevant.
func gradeMultiSelect(q domain.Question, selectedIDs []string) bool {
	correct := make(map[string]bool, len(q.Options))
	for _, opt := range q.Options {
		if opt.IsCorrect {
			correct[opt.ID] = true
		}
	}

	selected := make(map[string]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = true
	}

	if len(selected) != len(correct) {
		return false
	}
	for id := range selected {
		if !correct[id] {
			return false
		}
	}
	return true
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
