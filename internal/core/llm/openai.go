package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/DragonSun329/briefai/internal/platform/observability"
)

const (
	scorerTemperature = 0.0
	maxEventTextChars = 6000
	minGravity        = 0.0
	maxGravity        = 10.0
	scorerTask        = "cluster_scoring"
)

const scorerSystemPrompt = `You rate the business importance of one news event for a CEO briefing.
Respond with a single JSON object: {"gravity_score": <number 0-10>, "gravity_details": {<aspect>: <one-line reason>}}.
Do not include any other text.`

type openaiScorer struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

// NewOpenAIScorer creates a Scorer backed by an OpenAI-compatible chat
// model, throttled by the shared limiter.
func NewOpenAIScorer(client *openai.Client, model string, limiter *rate.Limiter, logger *zerolog.Logger) Scorer {
	return &openaiScorer{client: client, model: model, limiter: limiter, logger: logger}
}

type scorerPayload struct {
	GravityScore   float64           `json:"gravity_score"`
	GravityDetails map[string]string `json:"gravity_details"`
}

func (s *openaiScorer) Score(ctx context.Context, text string, metadata map[string]string) (ScoreResult, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return ScoreResult{}, fmt.Errorf("wait for rate limiter: %w", err)
	}

	if len(text) > maxEventTextChars {
		text = text[:maxEventTextChars]
	}

	start := time.Now()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: scorerTemperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: scorerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text + formatMetadata(metadata)},
		},
	})

	observability.RemoteRequestDuration.WithLabelValues(scorerTask).Observe(time.Since(start).Seconds())

	if err != nil {
		return ScoreResult{}, fmt.Errorf("create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return ScoreResult{}, fmt.Errorf("empty completion response")
	}

	var payload scorerPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.Choices[0].Message.Content)), &payload); err != nil {
		return ScoreResult{}, fmt.Errorf("parse scorer response: %w", err)
	}

	if payload.GravityScore < minGravity {
		payload.GravityScore = minGravity
	}

	if payload.GravityScore > maxGravity {
		payload.GravityScore = maxGravity
	}

	return ScoreResult{GravityScore: payload.GravityScore, GravityDetails: payload.GravityDetails}, nil
}

func formatMetadata(metadata map[string]string) string {
	if len(metadata) == 0 {
		return ""
	}

	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	var b strings.Builder

	b.WriteString("\n\nCluster stats:")

	for _, key := range keys {
		fmt.Fprintf(&b, "\n- %s: %s", key, metadata[key])
	}

	return b.String()
}

var _ Scorer = (*openaiScorer)(nil)
