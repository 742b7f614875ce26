package app

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"quizforge/internal/domain"
)

// Generator is the external question-generation collaborator: given a topic
// and a count it proposes candidate questions, or fails.
type Generator interface {
	Generate(ctx context.Context, topic string, count int) ([]domain.Question, error)
}

const defaultQuestionPoints = 10

// Editor holds a working copy of the active quiz's question list. Nothing
// touches the session until Save commits the copy via ReplaceQuiz; Cancel
// discards it.
type Editor struct {
	session *Session
	gen     Generator

	mu         sync.Mutex
	questions  []domain.Question
	generating bool
}

// NewEditor opens the editor over the session's current quiz and flips the
// session into editor mode.
func NewEditor(session *Session, gen Generator) *Editor {
	e := &Editor{
		session:   session,
		gen:       gen,
		questions: copyQuestions(session.Quiz().Questions),
	}
	session.SetEditorOpen(true)
	return e
}

// Questions returns a copy of the working list.
func (e *Editor) Questions() []domain.Question {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyQuestions(e.questions)
}

// AddQuestion appends a blank single-select question with two empty,
// incorrect options and the default point value, and returns it.
func (e *Editor) AddQuestion() domain.Question {
	e.mu.Lock()
	defer e.mu.Unlock()

	q := domain.Question{
		ID:   "q-" + uuid.NewString(),
		Type: domain.SingleSelect,
		Options: []domain.Option{
			{ID: "opt-" + uuid.NewString()},
			{ID: "opt-" + uuid.NewString()},
		},
		Points: defaultQuestionPoints,
	}
	e.questions = append(e.questions, q)
	return q
}

// DeleteQuestion removes the question with the given ID, if present.
func (e *Editor) DeleteQuestion(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.questions[:0]
	for _, q := range e.questions {
		if q.ID != id {
			kept = append(kept, q)
		}
	}
	e.questions = kept
}

// SetQuestionText replaces the text of the question at index.
func (e *Editor) SetQuestionText(index int, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkQuestionLocked(index); err != nil {
		return err
	}
	e.questions[index].Text = text
	return nil
}

// SetQuestionType switches the question's type. The existing option set is
// kept as-is; it is up to the operator to reconcile options with the new
// type's grading rules.
func (e *Editor) SetQuestionType(index int, t domain.QuestionType) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkQuestionLocked(index); err != nil {
		return err
	}
	switch t {
	case domain.SingleSelect, domain.MultiSelect, domain.FillInBlank:
	default:
		return domain.ErrQuestionNotFound
	}
	e.questions[index].Type = t
	return nil
}

// SetQuestionPoints replaces the point value of the question at index.
func (e *Editor) SetQuestionPoints(index, points int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkQuestionLocked(index); err != nil {
		return err
	}
	e.questions[index].Points = points
	return nil
}

// SetQuestionExplanation replaces the explanation of the question at index.
func (e *Editor) SetQuestionExplanation(index int, explanation string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkQuestionLocked(index); err != nil {
		return err
	}
	e.questions[index].Explanation = explanation
	return nil
}

// AddOption appends a blank incorrect option to the question at index.
func (e *Editor) AddOption(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkQuestionLocked(index); err != nil {
		return err
	}
	e.questions[index].Options = append(e.questions[index].Options, domain.Option{
		ID: "opt-" + uuid.NewString(),
	})
	return nil
}

// SetOptionText replaces the text of one option.
func (e *Editor) SetOptionText(questionIndex, optionIndex int, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkOptionLocked(questionIndex, optionIndex); err != nil {
		return err
	}
	e.questions[questionIndex].Options[optionIndex].Text = text
	return nil
}

// SetOptionCorrect flips the correctness flag of one option.
func (e *Editor) SetOptionCorrect(questionIndex, optionIndex int, correct bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkOptionLocked(questionIndex, optionIndex); err != nil {
		return err
	}
	e.questions[questionIndex].Options[optionIndex].IsCorrect = correct
	return nil
}

// DeleteOption removes an option by ID from the question at index. There is
// no minimum-option-count enforcement.
func (e *Editor) DeleteOption(questionIndex int, optionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkQuestionLocked(questionIndex); err != nil {
		return err
	}
	opts := e.questions[questionIndex].Options
	kept := opts[:0]
	for _, opt := range opts {
		if opt.ID != optionID {
			kept = append(kept, opt)
		}
	}
	e.questions[questionIndex].Options = kept
	return nil
}

// GenerateQuestions asks the collaborator for candidate questions and appends
// whatever comes back. A failed or malformed generation is logged and adds
// nothing. Only one generation may be in flight at a time. Returns the number
// of questions added.
func (e *Editor) GenerateQuestions(ctx context.Context, topic string, count int) (int, error) {
	if strings.TrimSpace(topic) == "" {
		return 0, nil
	}

	e.mu.Lock()
	if e.generating {
		e.mu.Unlock()
		return 0, domain.ErrGenerationInFlight
	}
	e.generating = true
	e.mu.Unlock()

	// The mutex is released during the round-trip; other editor operations
	// stay available while the indicator is up.
	generated, err := e.gen.Generate(ctx, topic, count)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.generating = false
	if err != nil {
		log.Printf("question generation failed for topic %q: %v", topic, err)
		return 0, nil
	}
	e.questions = append(e.questions, generated...)
	return len(generated), nil
}

// Generating reports whether a generation round-trip is outstanding.
func (e *Editor) Generating() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generating
}

// Save commits the working list as the active quiz's questions and leaves
// editor mode. The session resets as part of the quiz replacement.
func (e *Editor) Save() {
	e.mu.Lock()
	questions := copyQuestions(e.questions)
	e.mu.Unlock()

	quiz := e.session.Quiz()
	quiz.Questions = questions
	e.session.ReplaceQuiz(quiz)
}

// Cancel discards the working copy and leaves editor mode.
func (e *Editor) Cancel() {
	e.session.SetEditorOpen(false)
}

func (e *Editor) checkQuestionLocked(index int) error {
	if index < 0 || index >= len(e.questions) {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (e *Editor) checkOptionLocked(questionIndex, optionIndex int) error {
	if err := e.checkQuestionLocked(questionIndex); err != nil {
		return err
	}
	if optionIndex < 0 || optionIndex >= len(e.questions[questionIndex].Options) {
		return domain.ErrOptionNotFound
	}
	return nil
}

func copyQuestions(questions []domain.Question) []domain.Question {
	out := make([]domain.Question, len(questions))
	copy(out, questions)
	for i := range out {
		opts := make([]domain.Option, len(out[i].Options))
		copy(opts, out[i].Options)
		out[i].Options = opts
	}
	return out
}
