package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/projecthub/internal/config"
	"github.com/yukikurage/projecthub/internal/models"
	"golang.org/x/time/rate"
)

// SuggestedTask is a task proposed by the model. It is never stored.
type SuggestedTask struct {
	Name     string          `json:"name"`
	Priority models.Priority `json:"priority"`
	Due      *time.Time      `json:"due"`
}

// AIService asks OpenAI to extract tasks from free text.
type AIService struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
}

// NewAIService creates an AIService from configuration.
func NewAIService(cfg config.OpenAIConfig) *AIService {
	return NewAIServiceWithClient(openai.NewClient(cfg.APIKey), cfg.Model, cfg.RateLimit)
}

// NewAIServiceWithClient creates an AIService around an existing client.
// ratePerSecond <= 0 disables limiting.
func NewAIServiceWithClient(client *openai.Client, model string, ratePerSecond float64) *AIService {
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	if model == "" {
		model = openai.GPT4o
	}
	return &AIService{
		client:  client,
		model:   model,
		limiter: rate.NewLimiter(limit, 1),
	}
}

const suggestPrompt = `You extract concrete tasks from project notes.

Current time: %s

Text:
%s

Respond with a JSON array only, no prose:
[
  {
    "name": "short task name",
    "priority": "low | medium | high",
    "due": "deadline in ISO8601 (e.g. 2025-10-28T23:59:59Z) or null when none is stated"
  }
]

Rules:
- Return [] when the text contains no tasks
- Convert relative dates ("tomorrow", "next week") to absolute ones
- Use "medium" priority unless urgency is stated`

// SuggestTasks analyzes text and returns the model's task suggestions
func (s *AIService) SuggestTasks(ctx context.Context, text string) ([]SuggestedTask, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	prompt := fmt.Sprintf(suggestPrompt, time.Now().Format(time.RFC3339), text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)

	var tasks []SuggestedTask
	if err := json.Unmarshal([]byte(content), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	return tasks, nil
}

// stripCodeFence removes a surrounding ``` block the model sometimes adds.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimPrefix(content, "json")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
