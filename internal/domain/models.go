package domain

import "time"

// QuestionType discriminates how a question is answered and graded.
type QuestionType string

const (
	SingleSelect QuestionType = "SINGLE_SELECT"
	MultiSelect  QuestionType = "MULTIPLE_SELECT"
	FillInBlank  QuestionType = "FILL_IN_BLANK"
)

// Option represents a possible answer for a question. For FillInBlank
// questions Text holds an accepted answer string and IsCorrect is
// conventionally true.
type Option struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question models a quiz question of any supported type.
type Question struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	Type        QuestionType `json:"type"`
	Options     []Option     `json:"options"`
	Points      int          `json:"points"`
	Explanation string       `json:"explanation,omitempty"`
}

// Quiz is an ordered collection of questions with display metadata.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// PlayerAnswer records one submitted answer. Exactly one entry exists per
// question in a session; resubmission replaces in place.
type PlayerAnswer struct {
	QuestionID        string   `json:"questionId"`
	SelectedOptionIDs []string `json:"selectedOptionIds"`
	TextAnswer        string   `json:"textAnswer,omitempty"`
	IsCorrect         bool     `json:"isCorrect"`
	Points            int      `json:"points"`
}

// PlayerResult is the completion-time snapshot of a session.
type PlayerResult struct {
	PlayerID       string         `json:"playerId"`
	PlayerName     string         `json:"playerName"`
	Score          int            `json:"score"`
	CorrectAnswers int            `json:"correctAnswers"`
	TotalQuestions int            `json:"totalQuestions"`
	Answers        []PlayerAnswer `json:"answers"`
	CompletedAt    time.Time      `json:"completedAt"`
}

// LeaderboardEntry is one ranked row of the scoreboard.
type LeaderboardEntry struct {
	Rank           int       `json:"rank"`
	PlayerName     string    `json:"playerName"`
	Score          int       `json:"score"`
	CorrectAnswers int       `json:"correctAnswers"`
	TotalQuestions int       `json:"totalQuestions"`
	CompletedAt    time.Time `json:"completedAt"`
}
