package entities

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/DragonSun329/briefai/internal/core/domain"
	"github.com/DragonSun329/briefai/internal/platform/observability"
)

const (
	remoteMaxInputChars = 4000
	remoteTemperature   = 0.0
	remoteTask          = "entity_extraction"
)

const remoteSystemPrompt = `You extract entities from news text about the AI industry.
Respond with a single JSON object with the keys "companies", "models",
"topics", "business_models" and "people", each an array of strings.
Return at most 10 entries per key. Do not include any other text.`

// RemoteExtractor asks an OpenAI-compatible model for entities when the
// local tagger is not confident. Calls are throttled by a shared limiter
// sized to the caller's rate-limit budget.
type RemoteExtractor struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

// NewRemote creates a RemoteExtractor.
func NewRemote(client *openai.Client, model string, limiter *rate.Limiter, logger *zerolog.Logger) *RemoteExtractor {
	return &RemoteExtractor{client: client, model: model, limiter: limiter, logger: logger}
}

type remotePayload struct {
	Companies      []string `json:"companies"`
	Models         []string `json:"models"`
	Topics         []string `json:"topics"`
	BusinessModels []string `json:"business_models"`
	People         []string `json:"people"`
}

// Extract calls the model and parses its JSON reply. Errors (rate-limiter
// aborts, API failures, malformed replies) are returned to the caller, which
// degrades to the local result.
func (r *RemoteExtractor) Extract(ctx context.Context, text string) (*domain.EntitySet, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	if len(text) > remoteMaxInputChars {
		text = text[:remoteMaxInputChars]
	}

	start := time.Now()

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: remoteTemperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: remoteSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})

	observability.RemoteRequestDuration.WithLabelValues(remoteTask).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, fmt.Errorf("create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion response")
	}

	var payload remotePayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.Choices[0].Message.Content)), &payload); err != nil {
		return nil, fmt.Errorf("parse entity response: %w", err)
	}

	return &domain.EntitySet{
		Companies:      normalizeAll(payload.Companies),
		Models:         normalizeAll(payload.Models),
		Topics:         normalizeAll(payload.Topics),
		BusinessModels: normalizeAll(payload.BusinessModels),
		People:         normalizeAll(payload.People),
	}, nil
}

func normalizeAll(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))

	var out []string

	for _, entity := range raw {
		if len(out) >= domain.MaxEntitiesPerCategory {
			break
		}

		normalized := Normalize(entity)
		if normalized == "" {
			continue
		}

		key := strings.ToLower(normalized)
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}

		out = append(out, normalized)
	}

	return out
}

var _ Extractor = (*RemoteExtractor)(nil)
