// Package llm asks an OpenAI-compatible model for a short study plan built from a
// user's weakest topics.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/studytracker/internal/analytics"
	"github.com/pavelanni/studytracker/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// ErrNoChoices is returned when the model answers without any completion.
var ErrNoChoices = errors.New("LLM returned no choices")

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Ping checks that the endpoint is reachable and serves models.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// StudyPlan asks the model for a short plan targeting the weakest topics of report.
func (c *Client) StudyPlan(ctx context.Context, report model.PerformanceReport, weakest []model.TopicAccuracy) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildStudyPlanPrompt(report, weakest)},
		},
		Temperature: 0.4,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	plan := strings.TrimSpace(resp.Choices[0].Message.Content)
	slog.Debug("LLM study plan", "chars", len(plan))
	return plan, nil
}

const systemPrompt = "You are a concise study coach. Reply with a short, practical study plan " +
	"as a numbered list of at most five steps. Do not invent statistics."

func buildStudyPlanPrompt(report model.PerformanceReport, weakest []model.TopicAccuracy) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("QUESTIONS ANSWERED: %d\n", report.AnsweredQuestionsCount))
	sb.WriteString(fmt.Sprintf("OVERALL ACCURACY: %d%%\n\n", analytics.Percent(report.OverallAccuracy)))

	if len(weakest) == 0 {
		sb.WriteString("The student has not answered any questions yet. ")
		sb.WriteString("Suggest how to start with basic questions in any subject.\n")
		return sb.String()
	}

	sb.WriteString("WEAKEST TOPICS (lowest accuracy first):\n")
	for _, ta := range weakest {
		sb.WriteString(fmt.Sprintf("- %s: %d%%\n", ta.Topic, analytics.Percent(ta.Accuracy)))
	}
	sb.WriteString("\nFocus the plan on these topics, weakest first.\n")
	return sb.String()
}
