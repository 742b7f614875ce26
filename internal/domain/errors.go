package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a question ID or index outside the active quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates an option ID or index outside a question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrEmptyAnswer is returned when a fill-in-the-blank submission is blank.
	ErrEmptyAnswer = errors.New("answer text is empty")
	// ErrNoSelection is returned when a choice question is submitted with no options selected.
	ErrNoSelection = errors.New("no option selected")
	// ErrGenerationInFlight rejects overlapping question-generation calls.
	ErrGenerationInFlight = errors.New("question generation already in progress")
	// ErrGeneratorDisabled is returned when no generator API key is configured.
	ErrGeneratorDisabled = errors.New("question generator not configured")
)
