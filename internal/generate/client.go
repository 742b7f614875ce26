package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"quizforge/internal/domain"
)

// Config holds the settings for the chat-completion backend.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-3.5-turbo"
	defaultTimeout = 10 * time.Second
)

// Client proposes quiz questions for a topic via a chat-completion API.
// It implements app.Generator.
type Client struct {
	cfg    Config
	client *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// candidate is the shape the model is asked to return per question.
type candidate struct {
	Text    string `json:"text"`
	Options []struct {
		Text      string `json:"text"`
		IsCorrect bool   `json:"isCorrect"`
	} `json:"options"`
	Explanation string `json:"explanation"`
}

// Generate asks the model for count multiple-choice questions about topic.
// Any transport, status, or parsing failure surfaces as an error; callers
// degrade to zero new questions.
func (c *Client) Generate(ctx context.Context, topic string, count int) ([]domain.Question, error) {
	if c.cfg.APIKey == "" {
		return nil, domain.ErrGeneratorDisabled
	}
	if count < 1 {
		count = 1
	}

	prompt := fmt.Sprintf(`Generate %d multiple-choice question(s) about %s.
Include 4 options with one correct answer.
Also provide an explanation for the correct answer.
Format as a JSON array with properties:
- text (question text)
- options (array of {text, isCorrect})
- explanation`, count, topic)

	reqBody := map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": prompt},
		},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("completion request failed: %s", resp.Status)
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("empty completion response")
	}

	var candidates []candidate
	content := stripCodeFence(completion.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &candidates); err != nil {
		return nil, fmt.Errorf("parse generated questions: %w", err)
	}

	questions := make([]domain.Question, 0, len(candidates))
	for _, cand := range candidates {
		q := domain.Question{
			ID:          "ai-q-" + uuid.NewString(),
			Text:        cand.Text,
			Type:        domain.SingleSelect,
			Points:      10,
			Explanation: cand.Explanation,
		}
		for _, opt := range cand.Options {
			q.Options = append(q.Options, domain.Option{
				ID:        "ai-opt-" + uuid.NewString(),
				Text:      opt.Text,
				IsCorrect: opt.IsCorrect,
			})
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// stripCodeFence unwraps content the model returned inside a markdown fence.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
