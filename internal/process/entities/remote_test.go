package entities

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/DragonSun329/briefai/internal/platform/observability"
)

const remoteTestReply = `{
	"id": "cmpl-1",
	"object": "chat.completion",
	"choices": [{
		"index": 0,
		"message": {
			"role": "assistant",
			"content": "{\"companies\": [\"OpenAI\"], \"models\": [\"gpt 5\"], \"topics\": [], \"business_models\": [], \"people\": []}"
		},
		"finish_reason": "stop"
	}]
}`

func newRemoteTestExtractor(t *testing.T, handler http.HandlerFunc) *RemoteExtractor {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := openai.DefaultConfig("sk-test")
	cfg.BaseURL = server.URL + "/v1"

	logger := zerolog.Nop()

	return NewRemote(openai.NewClientWithConfig(cfg), "gpt-4o-mini", rate.NewLimiter(rate.Inf, 1), &logger)
}

func TestRemoteExtract(t *testing.T) {
	extractor := newRemoteTestExtractor(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if _, err := w.Write([]byte(remoteTestReply)); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	})

	before := remoteDurationSamples(t)

	set, err := extractor.Extract(context.Background(), "OpenAI releases GPT-5")
	require.NoError(t, err)

	assert.Contains(t, set.Companies, "OpenAI")
	assert.Contains(t, set.Models, "gpt-5")

	assert.Equal(t, before+1, remoteDurationSamples(t))
}

func TestRemoteExtractAPIFailure(t *testing.T) {
	extractor := newRemoteTestExtractor(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
	})

	before := remoteDurationSamples(t)

	_, err := extractor.Extract(context.Background(), "OpenAI releases GPT-5")
	assert.Error(t, err)

	// Failed requests still record a duration sample.
	assert.Equal(t, before+1, remoteDurationSamples(t))
}

func remoteDurationSamples(t *testing.T) uint64 {
	t.Helper()

	histogram, err := observability.RemoteRequestDuration.GetMetricWithLabelValues(remoteTask)
	require.NoError(t, err)

	var metric dto.Metric
	require.NoError(t, histogram.(prometheus.Histogram).Write(&metric))

	return metric.GetHistogram().GetSampleCount()
}
